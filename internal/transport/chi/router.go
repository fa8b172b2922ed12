package chi

import (
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/metrics"
)

// NewRouter mounts the server's routes behind the standard middleware stack.
// An empty apiKeys disables authentication.
func NewRouter(s *Server, apiKeys []string, logger *zap.Logger) http.Handler {
	r := gochi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(logger))
	r.Use(JSONRecoverer(logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, "method not allowed")
	})

	r.Post("/query", s.PostQuery)
	r.Get("/query", s.GetQuery)
	r.Get("/datasets", s.ListDatasets)
	r.Post("/datasets/{dataset}/build", s.BuildDataset)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	return r
}
