package validation

import (
	"math"
	"strings"
)

// Score measures character-level similarity between two field values on a
// 0-100 scale, using the longest-common-subsequence ratio of the trimmed
// strings. It returns 0 when either side is empty or absent and 100 for
// identical trimmed values. The measure is symmetric.
func Score(a, b string) int {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}

	ra := []rune(a)
	rb := []rune(b)
	common := lcsLength(ra, rb)
	ratio := 2 * float64(common) / float64(len(ra)+len(rb))
	return int(math.Round(ratio * 100))
}

// lcsLength computes the longest-common-subsequence length with a rolling
// single-row table. Field values are short, so quadratic time is fine.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	row := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		prevDiag := 0
		for j := 1; j <= len(b); j++ {
			tmp := row[j]
			if a[i-1] == b[j-1] {
				row[j] = prevDiag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prevDiag = tmp
		}
	}
	return row[len(b)]
}
