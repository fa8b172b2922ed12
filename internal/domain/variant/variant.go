// Package variant expands an entity query into lexical rewrites.
//
// Approximate vector retrieval is sensitive to word order and compounding
// ("hdfc top 100" vs "top 100 hdfc", "bluechip" vs "blue chip"), so each
// rewrite is embedded and searched on its own.
package variant

import "strings"

// Permutations are only generated for queries with this many words.
const (
	MinPermutationWords = 2
	MaxPermutationWords = 3
)

// Generate returns the deduplicated variants of query in a stable order:
// the query verbatim, word permutations (2–3 words), single words,
// and the words concatenated (more than one word).
func Generate(query string) []string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(query)))

	out := make([]string, 0, 1+factorial(len(words))+len(words)+1)
	seen := make(map[string]struct{})
	add := func(v string) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	add(query)

	if len(words) >= MinPermutationWords && len(words) <= MaxPermutationWords {
		permute(words, func(p []string) { add(strings.Join(p, " ")) })
	}

	for _, w := range words {
		add(w)
	}

	if len(words) > 1 {
		add(strings.Join(words, ""))
	}

	return out
}

// permute calls fn with every ordering of words (Heap's algorithm on a copy).
func permute(words []string, fn func([]string)) {
	a := append([]string(nil), words...)
	c := make([]int, len(a))
	fn(a)
	for i := 0; i < len(a); {
		if c[i] < i {
			if i%2 == 0 {
				a[0], a[i] = a[i], a[0]
			} else {
				a[c[i]], a[i] = a[i], a[c[i]]
			}
			fn(a)
			c[i]++
			i = 0
			continue
		}
		c[i] = 0
		i++
	}
}

func factorial(n int) int {
	if n < MinPermutationWords || n > MaxPermutationWords {
		return 0
	}
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}
