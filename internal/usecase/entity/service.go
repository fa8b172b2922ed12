// Package entity resolves a named fund, stock or ETF by searching every
// ready dataset with lexical variants of the name.
package entity

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain/record"
	"github.com/kailas-cloud/fundsearch/internal/domain/rerank"
	"github.com/kailas-cloud/fundsearch/internal/domain/variant"
)

// Service resolves entity queries.
type Service struct {
	datasets Datasets
	embed    Embedder
	cfg      Config
	logger   *zap.Logger
}

// New creates an entity resolver. Zero config values take the defaults.
func New(datasets Datasets, embed Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	return &Service{datasets: datasets, embed: embed, cfg: cfg, logger: logger}
}

// Search returns the best matches for query, at most Limit.
// Variants that fail to embed and datasets that fail to search are skipped.
func (s *Service) Search(ctx context.Context, query string) []rerank.Scored {
	variants := variant.Generate(query)
	vectors := s.embedVariants(ctx, variants)

	c := newCollector()
	for _, ds := range s.datasets.Datasets() {
		for _, v := range variants {
			vec, ok := vectors[v]
			if !ok {
				continue
			}
			rows, err := ds.Neighbors(vec, s.cfg.TopK)
			if err != nil {
				s.logger.Debug("Variant search failed",
					zap.String("dataset", ds.ID()),
					zap.String("variant", v),
					zap.Error(err),
				)
				continue
			}
			for _, row := range rows {
				c.add(row)
			}
		}
	}

	return rerank.Top(rerank.Rerank(c.records(), query), s.cfg.Limit)
}

// embedVariants embeds each variant once per request.
func (s *Service) embedVariants(ctx context.Context, variants []string) map[string][]float32 {
	out := make(map[string][]float32, len(variants))
	for _, v := range variants {
		if ctx.Err() != nil {
			break
		}
		res, err := s.embed.Embed(ctx, v)
		if err != nil {
			s.logger.Warn("Variant embedding failed", zap.String("variant", v), zap.Error(err))
			continue
		}
		out[v] = res.Embedding
	}
	return out
}

// collector deduplicates candidates by name: the first sighting fixes the
// position, the last sighting supplies the row.
type collector struct {
	order  []string
	byName map[string]record.Record
}

func newCollector() *collector {
	return &collector{byName: make(map[string]record.Record)}
}

func (c *collector) add(r record.Record) {
	name, ok := r.Name()
	if !ok {
		return
	}
	if _, seen := c.byName[name]; !seen {
		c.order = append(c.order, name)
	}
	c.byName[name] = r
}

func (c *collector) records() []record.Record {
	out := make([]record.Record, len(c.order))
	for i, name := range c.order {
		out[i] = c.byName[name]
	}
	return out
}
