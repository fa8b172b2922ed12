// Package filter holds metadata filter conditions, typed once when an intent is parsed.
package filter

import (
	"strings"

	"github.com/kailas-cloud/fundsearch/internal/domain/record"
)

// Key suffixes that turn a numeric filter into a range bound.
const (
	SuffixMin = "_min"
	SuffixMax = "_max"
)

// Op is the comparison a condition performs.
type Op uint8

// Condition operators.
const (
	// Contains matches a string field containing the value, case-insensitively.
	Contains Op = iota + 1
	// Min matches a numeric field greater than or equal to the bound.
	Min
	// Max matches a numeric field less than or equal to the bound.
	Max
	// Never is a condition that no record satisfies (untyped or mismatched filter).
	Never
)

func (o Op) String() string {
	switch o {
	case Contains:
		return "contains"
	case Min:
		return "min"
	case Max:
		return "max"
	case Never:
		return "never"
	default:
		return "unknown"
	}
}

// Condition is a single filter clause.
type Condition struct {
	key    string
	field  string
	op     Op
	needle string
	bound  float64
	text   string
}

// NewContains creates a case-insensitive substring condition on field key.
func NewContains(key, value string) Condition {
	return Condition{key: key, field: key, op: Contains, needle: strings.ToLower(value), text: value}
}

// NewMin creates a lower bound on field.
func NewMin(key, field string, bound float64, text string) Condition {
	return Condition{key: key, field: field, op: Min, bound: bound, text: text}
}

// NewMax creates an upper bound on field.
func NewMax(key, field string, bound float64, text string) Condition {
	return Condition{key: key, field: field, op: Max, bound: bound, text: text}
}

// NewNever creates an unsatisfiable condition; text still feeds the rerank pseudo-query.
func NewNever(key, text string) Condition {
	return Condition{key: key, field: key, op: Never, text: text}
}

// FromValue types a raw filter entry: strings become Contains, numbers with a
// _min/_max key become range bounds on the unsuffixed field, anything else is Never.
func FromValue(key string, v record.Value) Condition {
	if s, ok := v.Str(); ok {
		return NewContains(key, s)
	}
	if n, ok := v.Num(); ok {
		switch {
		case strings.HasSuffix(key, SuffixMin):
			return NewMin(key, strings.TrimSuffix(key, SuffixMin), n, v.Text())
		case strings.HasSuffix(key, SuffixMax):
			return NewMax(key, strings.TrimSuffix(key, SuffixMax), n, v.Text())
		}
	}
	return NewNever(key, v.Text())
}

// Key returns the filter key as given by the classifier.
func (c Condition) Key() string { return c.key }

// Field returns the record field the condition inspects.
func (c Condition) Field() string { return c.field }

// Op returns the operator.
func (c Condition) Op() Op { return c.op }

// Text returns the filter value as text.
func (c Condition) Text() string { return c.text }

// Match reports whether r satisfies the condition.
// Absent fields and type mismatches never match.
func (c Condition) Match(r record.Record) bool {
	switch c.op {
	case Contains:
		s, ok := r.String(c.field)
		return ok && strings.Contains(strings.ToLower(s), c.needle)
	case Min:
		n, ok := r.Number(c.field)
		return ok && n >= c.bound
	case Max:
		n, ok := r.Number(c.field)
		return ok && n <= c.bound
	default:
		return false
	}
}

// Set is an ordered conjunction of conditions.
type Set []Condition

// Match reports whether r satisfies every condition. An empty set matches everything.
func (s Set) Match(r record.Record) bool {
	for _, c := range s {
		if !c.Match(r) {
			return false
		}
	}
	return true
}

// QueryText joins the filter values in order, for use as a rerank pseudo-query.
func (s Set) QueryText() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.text
	}
	return strings.Join(parts, " ")
}
