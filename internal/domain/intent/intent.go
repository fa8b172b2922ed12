// Package intent models the structured classification of a user query.
package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/fundsearch/internal/domain"
	"github.com/kailas-cloud/fundsearch/internal/domain/filter"
	"github.com/kailas-cloud/fundsearch/internal/domain/record"
)

// Type is the query category chosen by the classifier.
type Type string

// Query types.
const (
	EntityQuery      Type = "entity_query"
	SectorQuery      Type = "sector_query"
	PerformanceQuery Type = "performance_query"
	TaxQuery         Type = "tax_query"
	HoldingQuery     Type = "holding_query"
	AttributeQuery   Type = "attribute_query"
)

// Types lists every known query type.
var Types = []Type{EntityQuery, SectorQuery, PerformanceQuery, TaxQuery, HoldingQuery, AttributeQuery}

// IsKnown reports whether t is one of the supported query types.
func (t Type) IsKnown() bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// UsesFilters reports whether t is resolved by metadata filtering.
func (t Type) UsesFilters() bool {
	return t.IsKnown() && t != EntityQuery
}

// Intent is a validated classifier result.
type Intent struct {
	Type    Type
	Entity  string
	Filters filter.Set
}

// EntityOr returns the entity, or fallback when the classifier gave none.
func (i Intent) EntityOr(fallback string) string {
	if strings.TrimSpace(i.Entity) == "" {
		return fallback
	}
	return i.Entity
}

type wireIntent struct {
	Type    json.RawMessage `json:"type"`
	Entity  json.RawMessage `json:"entity"`
	Filters json.RawMessage `json:"filters"`
}

// Parse decodes a JSON intent object. A missing or non-string type is invalid;
// unknown type strings are kept so the caller can decide how to route them.
// Filter order is preserved. Malformed filters invalidate only filter-routed types.
func Parse(data []byte) (Intent, error) {
	var w wireIntent
	if err := json.Unmarshal(data, &w); err != nil {
		return Intent{}, fmt.Errorf("%w: %w", domain.ErrInvalidIntent, err)
	}

	var typ string
	if len(w.Type) == 0 || json.Unmarshal(w.Type, &typ) != nil || typ == "" {
		return Intent{}, fmt.Errorf("%w: missing type", domain.ErrInvalidIntent)
	}

	var entity string
	if len(w.Entity) > 0 {
		// Non-string entities are ignored rather than rejected.
		_ = json.Unmarshal(w.Entity, &entity)
	}

	in := Intent{Type: Type(typ), Entity: entity, Filters: filter.Set{}}
	if !in.Type.UsesFilters() {
		// Filters are never read on these routes, so a malformed value is dropped.
		if filters, err := parseFilters(w.Filters); err == nil {
			in.Filters = filters
		}
		return in, nil
	}

	filters, err := parseFilters(w.Filters)
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %w", domain.ErrInvalidIntent, err)
	}
	in.Filters = filters
	return in, nil
}

// Extract pulls the outermost {...} span out of a noisy model response and parses it.
func Extract(response string) (Intent, error) {
	start := strings.IndexByte(response, '{')
	end := strings.LastIndexByte(response, '}')
	if start < 0 || end < start {
		return Intent{}, fmt.Errorf("%w: no JSON object in response", domain.ErrInvalidIntent)
	}
	cleaned := strings.NewReplacer("\n", "", "\r", "").Replace(response[start : end+1])
	return Parse([]byte(cleaned))
}

func parseFilters(raw json.RawMessage) (filter.Set, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return filter.Set{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read filters: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("filters must be an object")
	}

	set := filter.Set{}
	position := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read filter key: %w", err)
		}
		key, _ := keyTok.(string)

		var v record.Value
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("read filter %q: %w", key, err)
		}

		cond := filter.FromValue(key, v)
		if i, dup := position[key]; dup {
			set[i] = cond
			continue
		}
		position[key] = len(set)
		set = append(set, cond)
	}
	return set, nil
}
