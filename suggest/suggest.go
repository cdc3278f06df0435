// Package suggest finds close matches for misspelled identifiers.
package suggest

import "github.com/agext/levenshtein"

// String returns the candidate that most closely matches want.
//
// The allowed difference scales with the length of the input so short ids do
// not produce far-fetched suggestions. If no candidate is close enough, an
// empty string is returned.
func String(want string, candidates []string) string {
	maxDist := len(want) / 5
	if maxDist == 0 {
		maxDist = 1
	}

	best := ""
	dist := maxDist + 1
	for _, cand := range candidates {
		if cand == want {
			return want
		}
		if d := levenshtein.Distance(want, cand, nil); d < dist {
			best = cand
			dist = d
		}
	}
	if dist > maxDist {
		return ""
	}
	return best
}
