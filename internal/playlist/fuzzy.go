// SPDX-License-Identifier: MIT
package playlist

import (
	"strings"

	unorm "golang.org/x/text/unicode/norm"
)

// fuzzyKey folds case and whitespace for approximate matching.
func fuzzyKey(s string) string {
	s = unorm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(s), " ")
}

// findBest returns the candidate closest to name within maxDist edits.
// Ties go to the earliest candidate.
func findBest(name string, candidates []string, maxDist int) (string, bool) {
	key := fuzzyKey(name)
	best, bestDist := "", maxDist+1
	for _, c := range candidates {
		d := levenshtein(key, fuzzyKey(c))
		if d < bestDist {
			best, bestDist = c, d
			if d == 0 {
				break
			}
		}
	}
	return best, bestDist <= maxDist
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
