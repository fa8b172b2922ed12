// Package query routes a user query to the resolver its intent selects.
package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain/intent"
	"github.com/kailas-cloud/fundsearch/internal/domain/rerank"
	"github.com/kailas-cloud/fundsearch/internal/logger"
	"github.com/kailas-cloud/fundsearch/internal/metrics"
)

// Service orchestrates classification and resolution.
type Service struct {
	classifier Classifier
	entities   EntityResolver
	filters    FilterResolver
	timeout    time.Duration
	logger     *zap.Logger
}

// New creates a query orchestrator. classifyTimeout bounds each
// classification; zero disables the bound.
func New(
	classifier Classifier, entities EntityResolver, filters FilterResolver,
	classifyTimeout time.Duration, logger *zap.Logger,
) *Service {
	return &Service{
		classifier: classifier,
		entities:   entities,
		filters:    filters,
		timeout:    classifyTimeout,
		logger:     logger,
	}
}

// Resolve classifies text and runs the matching resolver. Failures degrade
// to an empty, non-nil result list.
func (s *Service) Resolve(ctx context.Context, text string) []rerank.Scored {
	start := time.Now()
	log := logger.FromContextOr(ctx, s.logger)

	in, err := s.classify(ctx, text)
	if err != nil {
		log.Warn("Query classification failed", zap.String("query", text), zap.Error(err))
		s.observe(RouteUnclassified, OutcomeClassifierError, start)
		return []rerank.Scored{}
	}

	var (
		route   string
		results []rerank.Scored
	)
	switch {
	case in.Type == intent.EntityQuery:
		route = RouteEntity
		results = s.entities.Search(ctx, in.EntityOr(text))
	case in.Type.UsesFilters():
		route = RouteFilter
		results = s.filters.Search(ctx, in.Filters)
	default:
		log.Info("Unsupported query type", zap.String("type", string(in.Type)))
		s.observe(RouteUnsupported, OutcomeUnsupported, start)
		return []rerank.Scored{}
	}
	if results == nil {
		results = []rerank.Scored{}
	}

	outcome := OutcomeResults
	if len(results) == 0 {
		outcome = OutcomeEmpty
	}
	s.observe(route, outcome, start)

	log.Info("Query resolved",
		zap.String("type", string(in.Type)),
		zap.String("route", route),
		zap.Int("filters", len(in.Filters)),
		zap.Int("results", len(results)),
		zap.Duration("duration", time.Since(start)),
	)
	return results
}

func (s *Service) classify(ctx context.Context, text string) (intent.Intent, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.classifier.Classify(ctx, text)
}

func (s *Service) observe(route, outcome string, start time.Time) {
	metrics.QueryResolutionsTotal.WithLabelValues(route, outcome).Inc()
	metrics.QueryResolutionDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}
