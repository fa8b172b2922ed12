package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/rerank"
	"github.com/kailas-cloud/fundsearch/internal/domain/result"
	"github.com/kailas-cloud/fundsearch/internal/logger"
	healthuc "github.com/kailas-cloud/fundsearch/internal/usecase/health"
	"github.com/kailas-cloud/fundsearch/internal/usecase/registry"
)

const maxBodyBytes = 1 << 20

// Resolver answers free-text queries.
type Resolver interface {
	Resolve(ctx context.Context, text string) []rerank.Scored
}

// Datasets reports and rebuilds datasets.
type Datasets interface {
	Status() []registry.Status
	BuildIndexFor(ctx context.Context, id string) (registry.Status, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	resolver      Resolver
	datasets      Datasets
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(resolver Resolver, datasets Datasets, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		resolver: resolver,
		datasets: datasets,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDatasetNotFound, http.StatusNotFound, ErrorCodeDatasetNotFound),
		sentinelHandler(domain.ErrSourceMissing, http.StatusUnprocessableEntity, ErrorCodeSourceInvalid),
		sentinelHandler(domain.ErrSourceMalformed, http.StatusUnprocessableEntity, ErrorCodeSourceInvalid),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrorCodeEmbeddingFailed),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadGateway, ErrorCodeEmbeddingFailed),
	}
	return s
}

// PostQuery handles POST /query.
func (s *Server) PostQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.answer(w, r, req.Query)
}

// GetQuery handles GET /query?q=....
func (s *Server) GetQuery(w http.ResponseWriter, r *http.Request) {
	var params QueryParams
	if err := runtime.BindQueryParameter("form", true, true, "q", r.URL.Query(), &params.Q); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter q: "+err.Error())
		return
	}
	s.answer(w, r, params.Q)
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "query is required")
		return
	}

	scored := s.resolver.Resolve(r.Context(), query)
	writeJSON(w, http.StatusOK, QueryResponse{Results: result.FormatAll(scored)})
}

// ListDatasets handles GET /datasets.
func (s *Server) ListDatasets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, DatasetListResponse{Items: s.datasets.Status()})
}

// BuildDataset handles POST /datasets/{dataset}/build.
func (s *Server) BuildDataset(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "dataset")

	st, err := s.datasets.BuildIndexFor(r.Context(), id)
	if err != nil {
		s.handleDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:   string(report.Status),
		Checks:   checks,
		Datasets: report.Datasets,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDatasetNotFound,
		domain.ErrDatasetNotReady,
		domain.ErrSourceMissing,
		domain.ErrSourceMalformed,
		domain.ErrDimensionMismatch,
		domain.ErrIndexCorrupt,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContextOr(ctx, s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
