// Package enrich attaches holdings rows to matched funds.
package enrich

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/record"
	"github.com/kailas-cloud/fundsearch/internal/repository/dataset"
)

// Holdings merges holdings rows into records by fund name.
// The zero value and nil are valid and enrich nothing.
type Holdings struct {
	byFund map[string][]record.Record
	rows   int
}

// NewHoldings indexes rows by their fund_name, keeping source order per fund.
func NewHoldings(rows []record.Record) *Holdings {
	h := &Holdings{byFund: make(map[string][]record.Record), rows: len(rows)}
	for _, r := range rows {
		name, ok := r.Text(record.FieldFundName)
		if !ok {
			continue
		}
		h.byFund[name] = append(h.byFund[name], r)
	}
	return h
}

// LoadHoldings reads the holdings source at path. A missing file yields
// empty holdings and a warning; a malformed file is an error.
func LoadHoldings(path string, logger *zap.Logger) (*Holdings, error) {
	if path == "" {
		logger.Warn("Holdings path not configured, enrichment disabled")
		return &Holdings{}, nil
	}
	src, err := dataset.LoadSource(path)
	if errors.Is(err, domain.ErrSourceMissing) {
		logger.Warn("Holdings file not found, enrichment disabled", zap.String("path", path))
		return &Holdings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}

	h := NewHoldings(src.Records)
	logger.Info("Holdings loaded",
		zap.String("path", path),
		zap.Int("rows", h.rows),
		zap.Int("funds", len(h.byFund)),
	)
	return h, nil
}

// Len returns the number of holdings rows loaded.
func (h *Holdings) Len() int {
	if h == nil {
		return 0
	}
	return h.rows
}

// Enrich returns a copy of r with every holding of the same name merged in
// source order; later holdings overwrite earlier fields. r is not modified.
func (h *Holdings) Enrich(r record.Record) record.Record {
	out := r.Clone()
	if h == nil || len(h.byFund) == 0 {
		return out
	}
	name, ok := r.Name()
	if !ok {
		return out
	}
	for _, holding := range h.byFund[name] {
		out.Merge(holding)
	}
	return out
}
