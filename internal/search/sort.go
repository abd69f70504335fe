package search

import "sort"

// sortByScore orders paragraph indices by score (descending), then by index
// (ascending).
func sortByScore(idx []int, scores []float64) {
	sort.Slice(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if scores[a] == scores[b] {
			return a < b
		}
		return scores[a] > scores[b]
	})
}
