package search

import (
	"sort"
	"strings"

	"github.com/dejoiner/dejoiner/pkg/types"
)

const (
	// MaxSuggestions caps the "did you mean" list
	MaxSuggestions = 5

	// minDistanceThreshold is the floor of the dynamic acceptance threshold
	minDistanceThreshold = 3

	// thresholdRatio scales the acceptance threshold with query length
	thresholdRatio = 0.4

	// Heuristic bonuses; each lowers the score, improving rank
	bonusSubstring  = 10
	bonusPrefix     = 3
	bonusWordPrefix = 2
)

// Suggest computes fuzzy "did you mean" suggestions for query over the given
// candidate pool, ordered best-first and capped at MaxSuggestions. The query
// is assumed non-empty; callers reject empty queries upstream.
func Suggest(query string, candidates []types.Resource) []types.FuzzySuggestion {
	q := strings.ToLower(query)
	if q == "" {
		return nil
	}

	threshold := int(float64(len([]rune(q))) * thresholdRatio)
	if threshold < minDistanceThreshold {
		threshold = minDistanceThreshold
	}
	prefix := runePrefix(q, 2)

	suggestions := make([]types.FuzzySuggestion, 0)
	for i := range candidates {
		title := strings.ToLower(candidates[i].Title)
		distance := Levenshtein(q, title)

		score := distance
		if strings.Contains(title, q) {
			score -= bonusSubstring
		}
		if strings.HasPrefix(title, prefix) {
			score -= bonusPrefix
		}
		for _, word := range strings.Fields(title) {
			if strings.HasPrefix(word, prefix) {
				score -= bonusWordPrefix
				break
			}
		}

		// A strong substring or prefix bonus can rescue a candidate that
		// is otherwise too distant.
		if distance <= threshold || score < 0 {
			suggestions = append(suggestions, types.FuzzySuggestion{
				Resource: candidates[i],
				Distance: distance,
				Score:    score,
			})
		}
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score < suggestions[j].Score
	})

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	return suggestions
}

// Levenshtein computes the edit distance between a and b using the standard
// dynamic-programming recurrence over runes.
func Levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)

	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := 0; j <= len(br); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			if ar[i-1] == br[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min3(prev[j-1], curr[j-1], prev[j])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(br)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// runePrefix returns the first n runes of s, or all of s when shorter
func runePrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
