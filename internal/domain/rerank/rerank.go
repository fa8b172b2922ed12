// Package rerank orders candidate records by a blend of weighted lexical field
// overlap and, for short queries, fuzzy similarity against the record name.
package rerank

import (
	"math"
	"slices"
	"strings"

	"github.com/kailas-cloud/fundsearch/internal/domain/record"
)

// Blend factors applied to name-style queries.
const (
	LexicalShare = 0.7
	FuzzyShare   = 0.3
	// MaxNameQueryTokens is the token count up to which a query is treated as a name.
	MaxNameQueryTokens = 3
	scorePrecision     = 1e4
)

// FieldWeight is the share one field contributes to the lexical score.
type FieldWeight struct {
	Field  string
	Weight float64
}

var weights = []FieldWeight{
	{"name", 0.40},
	{"category", 0.15},
	{"sector", 0.15},
	{"industry", 0.10},
	{"shortName", 0.10},
	{"assetType", 0.05},
	{"fundPrimarySector", 0.05},
}

// Weights returns the field weight table. The weights sum to 1.
func Weights() []FieldWeight {
	return slices.Clone(weights)
}

// Scored is a record with its relevance score. Scores only order results.
type Scored struct {
	Record record.Record
	Score  float64
}

// Query is a normalized rerank query.
type Query struct {
	text   string
	tokens []string
}

// NewQuery normalizes raw query text.
func NewQuery(raw string) Query {
	text := Normalize(raw)
	return Query{text: text, tokens: Tokens(text)}
}

// Text returns the normalized query.
func (q Query) Text() string { return q.text }

// Tokens returns the distinct query tokens.
func (q Query) Tokens() []string { return slices.Clone(q.tokens) }

// IsNameQuery reports whether the fuzzy name blend applies.
func (q Query) IsNameQuery() bool { return len(q.tokens) <= MaxNameQueryTokens }

// Lexical sums, over every weighted string field, weight × the fraction of
// query tokens found as substrings of the lower-cased field value.
func (q Query) Lexical(r record.Record) float64 {
	if len(q.tokens) == 0 {
		return 0
	}
	var score float64
	for _, fw := range weights {
		value, ok := r.String(fw.Field)
		if !ok {
			continue
		}
		value = strings.ToLower(value)
		matches := 0
		for _, tok := range q.tokens {
			if strings.Contains(value, tok) {
				matches++
			}
		}
		score += fw.Weight * float64(matches) / float64(len(q.tokens))
	}
	return score
}

// Fuzzy returns the partial ratio between the query and the record name.
// ok is false when the record has no name.
func (q Query) Fuzzy(r record.Record) (float64, bool) {
	name, ok := r.Name()
	if !ok {
		return 0, false
	}
	return PartialRatio(q.text, strings.ToLower(name)), true
}

// Score computes the unrounded blended score of r.
func (q Query) Score(r record.Record) float64 {
	score := q.Lexical(r)
	if q.IsNameQuery() {
		if fuzzy, ok := q.Fuzzy(r); ok {
			score = score*LexicalShare + fuzzy*FuzzyShare
		}
	}
	return score
}

// Rerank scores every record against query and stable-sorts by descending score.
// Records are not modified.
func Rerank(records []record.Record, query string) []Scored {
	q := NewQuery(query)
	out := make([]Scored, len(records))
	for i, r := range records {
		out[i] = Scored{Record: r, Score: round(q.Score(r))}
	}
	slices.SortStableFunc(out, func(a, b Scored) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return out
}

// Top returns at most n leading results.
func Top(results []Scored, n int) []Scored {
	if len(results) > n {
		return results[:n]
	}
	return results
}

func round(v float64) float64 {
	return math.Round(v*scorePrecision) / scorePrecision
}
