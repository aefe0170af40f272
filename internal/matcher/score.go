package matcher

import (
	"github.com/bowerhall/worklog/internal/logstore"
)

// tokenSimilarity is the embedder-free fallback: Jaccard overlap of the
// significant tokens of both contents.
func tokenSimilarity(a, b string) float64 {
	at := logstore.SignificantTokens(a)
	bt := logstore.SignificantTokens(b)
	if len(at) == 0 || len(bt) == 0 {
		return 0
	}

	seen := make(map[string]bool, len(at))
	for _, tok := range at {
		seen[tok] = true
	}

	union := len(seen)
	shared := 0
	counted := make(map[string]bool, len(bt))
	for _, tok := range bt {
		if counted[tok] {
			continue
		}
		counted[tok] = true
		if seen[tok] {
			shared++
		} else {
			union++
		}
	}

	return float64(shared) / float64(union)
}
