package filter

import (
	"testing"

	"github.com/kailas-cloud/fundsearch/internal/domain/record"
)

func TestFromValue_Typing(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value record.Value
		op    Op
		field string
	}{
		{"string becomes contains", "sector", record.String("Technology"), Contains, "sector"},
		{"min suffix", "aum_min", record.Number(1000), Min, "aum"},
		{"max suffix", "expenseRatio_max", record.Number(1), Max, "expenseRatio"},
		{"number without suffix", "aum", record.Number(1000), Never, "aum"},
		{"bool", "active", record.Bool(true), Never, "active"},
		{"string on min key stays contains", "aum_min", record.String("1000"), Contains, "aum_min"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := FromValue(tc.key, tc.value)
			if c.Op() != tc.op {
				t.Errorf("op: got %s, want %s", c.Op(), tc.op)
			}
			if c.Field() != tc.field {
				t.Errorf("field: got %q, want %q", c.Field(), tc.field)
			}
			if c.Key() != tc.key {
				t.Errorf("key: got %q, want %q", c.Key(), tc.key)
			}
		})
	}
}

func TestCondition_Match(t *testing.T) {
	tech := record.Record{
		"name":   record.String("Tech Fund"),
		"sector": record.String("Information TECHNOLOGY"),
		"aum":    record.Number(1500),
	}

	tests := []struct {
		name string
		cond Condition
		rec  record.Record
		want bool
	}{
		{"contains case-insensitive", NewContains("sector", "technology"), tech, true},
		{"contains miss", NewContains("sector", "pharma"), tech, false},
		{"contains on numeric field", NewContains("aum", "15"), tech, false},
		{"contains on absent field", NewContains("category", "tax"), tech, false},
		{"min satisfied", NewMin("aum_min", "aum", 1000, "1000"), tech, true},
		{"min boundary", NewMin("aum_min", "aum", 1500, "1500"), tech, true},
		{"min violated", NewMin("aum_min", "aum", 2000, "2000"), tech, false},
		{"max satisfied", NewMax("aum_max", "aum", 2000, "2000"), tech, true},
		{"max violated", NewMax("aum_max", "aum", 1000, "1000"), tech, false},
		{"min on string field", NewMin("sector_min", "sector", 1, "1"), tech, false},
		{"min on absent field", NewMin("nav_min", "nav", 1, "1"), tech, false},
		{"never", NewNever("aum", "1500"), tech, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cond.Match(tc.rec); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSet_Match(t *testing.T) {
	set := Set{
		NewContains("sector", "Technology"),
		NewMin("aum_min", "aum", 1000, "1000"),
	}

	cases := []struct {
		name string
		rec  record.Record
		want bool
	}{
		{"both", record.Record{"sector": record.String("technology"), "aum": record.Number(1000)}, true},
		{"aum low", record.Record{"sector": record.String("technology"), "aum": record.Number(999)}, false},
		{"aum missing", record.Record{"sector": record.String("technology")}, false},
		{"wrong sector", record.Record{"sector": record.String("Pharma"), "aum": record.Number(5000)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := set.Match(tc.rec); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}

	if !(Set{}).Match(record.Record{}) {
		t.Error("empty set must match everything")
	}
}

func TestSet_QueryText(t *testing.T) {
	set := Set{
		NewContains("sector", "Technology"),
		NewMin("aum_min", "aum", 1000, "1000"),
	}
	if got := set.QueryText(); got != "Technology 1000" {
		t.Errorf("got %q", got)
	}
	if got := (Set{}).QueryText(); got != "" {
		t.Errorf("empty set: got %q", got)
	}
}
