// Package record models a dataset row as a mapping of field names to typed values.
//
// Rows from different datasets carry different field sets; shared logic goes
// through the accessors here, which encode each fallback chain exactly once.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Well-known field names.
const (
	FieldName     = "name"
	FieldScore    = "score"
	FieldSource   = "source"
	FieldFundName = "fund_name"
)

// Record is one instrument or holding.
type Record map[string]Value

// Get returns a present field value.
func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	if !ok || v.IsZero() {
		return Value{}, false
	}
	return v, true
}

// Has reports whether field is present.
func (r Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// String returns the payload of a string field.
func (r Record) String(field string) (string, bool) {
	v, ok := r.Get(field)
	if !ok {
		return "", false
	}
	return v.Str()
}

// Number returns the payload of a numeric field.
func (r Record) Number(field string) (float64, bool) {
	v, ok := r.Get(field)
	if !ok {
		return 0, false
	}
	return v.Num()
}

// Text returns the text rendering of a present field.
func (r Record) Text(field string) (string, bool) {
	v, ok := r.Get(field)
	if !ok {
		return "", false
	}
	return v.Text(), true
}

// Name returns the identity key.
func (r Record) Name() (string, bool) { return r.Text(FieldName) }

// FirstTruthy returns the text of the first field that holds a truthy value.
func (r Record) FirstTruthy(fields ...string) (string, bool) {
	for _, f := range fields {
		if v, ok := r.Get(f); ok && v.Truthy() {
			return v.Text(), true
		}
	}
	return "", false
}

// FirstPresent returns the text of the first present field, even if empty.
func (r Record) FirstPresent(fields ...string) (string, bool) {
	for _, f := range fields {
		if v, ok := r.Get(f); ok {
			return v.Text(), true
		}
	}
	return "", false
}

// FundType resolves fund_type, then instrument_type.
func (r Record) FundType() (string, bool) { return r.FirstTruthy("fund_type", "instrument_type") }

// Sector resolves sector, then industry.
func (r Record) Sector() (string, bool) { return r.FirstTruthy("sector", "industry") }

// Industry resolves industry, then sector.
func (r Record) Industry() (string, bool) { return r.FirstTruthy("industry", "sector") }

// AMC resolves amc, company_name, then issuer_name.
func (r Record) AMC() (string, bool) {
	return r.FirstTruthy("amc", "company_name", "issuer_name", "amcName")
}

// Category resolves category.
func (r Record) Category() (string, bool) { return r.FirstPresent("category") }

// Subcategory resolves subcategory, then subCategory.
func (r Record) Subcategory() (string, bool) { return r.FirstPresent("subcategory", "subCategory") }

// Source resolves the originating source label, "unknown" when absent.
func (r Record) Source() string {
	if s, ok := r.FirstPresent(FieldSource); ok {
		return s
	}
	return "unknown"
}

// Clone returns a shallow copy. Values are immutable so a shallow copy is independent.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge copies every present field of other into r, overwriting collisions.
func (r Record) Merge(other Record) {
	for k, v := range other {
		if !v.IsZero() {
			r[k] = v
		}
	}
}

// UnmarshalJSON decodes an object, dropping null fields. A JSON null leaves a
// nil Record, which is distinct from the empty object.
func (r *Record) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}
	var raw map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	out := make(Record, len(raw))
	for k, v := range raw {
		if !v.IsZero() {
			out[k] = v
		}
	}
	*r = out
	return nil
}
