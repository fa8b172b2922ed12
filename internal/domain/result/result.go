// Package result shapes scored records into the caller-facing result form.
package result

import (
	"github.com/kailas-cloud/fundsearch/internal/domain/record"
	"github.com/kailas-cloud/fundsearch/internal/domain/rerank"
)

// NotAvailable fills fields that cannot be resolved from a record.
const NotAvailable = "N/A"

// Result is one caller-facing match.
type Result struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	FundType    string  `json:"fund_type"`
	Sector      string  `json:"sector"`
	Industry    string  `json:"industry"`
	AMC         string  `json:"amc"`
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
}

// Format resolves every output field through the record's fallback chains.
func Format(s rerank.Scored) Result {
	r := s.Record
	return Result{
		Name:        orNA(r.FirstTruthy(record.FieldName)),
		Category:    orNA(r.Category()),
		Subcategory: orNA(r.Subcategory()),
		FundType:    orNA(r.FundType()),
		Sector:      orNA(r.Sector()),
		Industry:    orNA(r.Industry()),
		AMC:         orNA(r.AMC()),
		Source:      r.Source(),
		Score:       s.Score,
	}
}

// FormatAll formats results in order. The returned slice is never nil.
func FormatAll(scored []rerank.Scored) []Result {
	out := make([]Result, 0, len(scored))
	for _, s := range scored {
		out = append(out, Format(s))
	}
	return out
}

func orNA(v string, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return v
}

