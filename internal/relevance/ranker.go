// internal/relevance/ranker.go
package relevance

import "sort"

// Rank returns a new slice sorted ascending by price. With byScore set, the
// relevance score is the primary key (descending) and price breaks ties.
func Rank(in []Candidate, byScore bool) []Candidate {
	out := make([]Candidate, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if byScore && out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Price < out[j].Price
	})
	return out
}
