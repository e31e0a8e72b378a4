package util

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// ScoreCompletions returns the top n matches for input from candidates.
func ScoreCompletions(input string, candidates []string, n int) []string {
	if input == "" {
		return candidates
	}
	matches := fuzzy.Find(input, candidates)
	if len(matches) == 0 {
		return nil
	}

	limit := n
	if n <= 0 || len(matches) < limit {
		limit = len(matches)
	}

	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = matches[i].Str
	}
	return out
}

// BestMatch returns the index of the candidate input most likely refers to.
// A case-insensitive exact match wins; otherwise the top fuzzy match is used.
func BestMatch(input string, candidates []string) (int, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return -1, false
	}
	for i, c := range candidates {
		if strings.EqualFold(c, input) {
			return i, true
		}
	}
	matches := fuzzy.Find(strings.ToLower(input), lowerAll(candidates))
	if len(matches) == 0 {
		return -1, false
	}
	return matches[0].Index, true
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
