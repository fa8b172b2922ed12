package rerank

// PartialRatio scores how well the shorter string aligns with its best-matching
// window of the longer one, on a 0–1 scale. Each window is compared with the
// Indel similarity 2·LCS/(len(a)+len(b)); windows sliding off either end of the
// longer string are considered too. Empty input scores 0.
func PartialRatio(a, b string) float64 {
	s1, s2 := []rune(a), []rune(b)
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}
	if len(s1) == 0 {
		return 0
	}

	m := len(s1)
	best := 0.0
	for start := 1 - m; start < len(s2); start++ {
		lo := max(0, start)
		hi := min(len(s2), start+m)
		if r := indelRatio(s1, s2[lo:hi]); r > best {
			best = r
			if best == 1 {
				break
			}
		}
	}
	return best
}

// Ratio is the Indel similarity of a and b on a 0–1 scale.
func Ratio(a, b string) float64 {
	return indelRatio([]rune(a), []rune(b))
}

func indelRatio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(lcs(a, b)) / float64(total)
}

// lcs returns the length of the longest common subsequence (two-row DP).
func lcs(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
