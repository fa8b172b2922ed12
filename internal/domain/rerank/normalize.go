package rerank

import (
	"strings"
	"unicode"
)

// Normalize lower-cases text, strips punctuation and symbols, and collapses whitespace.
func Normalize(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
	return strings.Join(strings.Fields(stripped), " ")
}

// Tokens returns the distinct whitespace-separated tokens of normalized text, in first-seen order.
func Tokens(normalized string) []string {
	fields := strings.Fields(normalized)
	out := fields[:0]
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
