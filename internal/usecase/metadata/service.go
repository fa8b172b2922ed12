// Package metadata resolves sector, performance, tax, holding and attribute
// queries by scanning dataset rows against typed filter conditions.
package metadata

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain/filter"
	"github.com/kailas-cloud/fundsearch/internal/domain/record"
	"github.com/kailas-cloud/fundsearch/internal/domain/rerank"
)

// Service resolves filter queries.
type Service struct {
	datasets Datasets
	enricher Enricher
	limit    int
	logger   *zap.Logger
}

// New creates a filter resolver. enricher can be nil.
func New(datasets Datasets, enricher Enricher, cfg Config, logger *zap.Logger) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Service{datasets: datasets, enricher: enricher, limit: cfg.Limit, logger: logger}
}

// Search returns the rows of every ready dataset matching all filters,
// enriched and reranked against the filter values. Empty filters match every row.
func (s *Service) Search(ctx context.Context, filters filter.Set) []rerank.Scored {
	var matches []record.Record
	for _, ds := range s.datasets.Datasets() {
		if ctx.Err() != nil {
			break
		}
		n := 0
		for _, row := range ds.Rows() {
			if !filters.Match(row) {
				continue
			}
			if s.enricher != nil {
				row = s.enricher.Enrich(row)
			}
			matches = append(matches, row)
			n++
		}
		s.logger.Debug("Filter scan",
			zap.String("dataset", ds.ID()),
			zap.Int("rows", ds.Len()),
			zap.Int("matches", n),
		)
	}

	return rerank.Top(rerank.Rerank(matches, filters.QueryText()), s.limit)
}
