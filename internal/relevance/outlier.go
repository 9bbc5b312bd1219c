// internal/relevance/outlier.go
package relevance

import (
	"sort"

	"price-finder/pkg/ruleset"
)

// FilterOutliers removes the cheap tail that sits below the real product
// price cluster. The result is sorted ascending by price.
func (r *Rules) FilterOutliers(in []Candidate) []Candidate {
	if len(in) < r.outlier.MinCandidates {
		return in
	}

	sorted := make([]Candidate, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	if r.outlier.Strategy == ruleset.OutlierGap {
		return sorted[r.lastGap(sorted):]
	}

	floor := sorted[len(sorted)/2].Price * r.outlier.MedianRatio
	out := make([]Candidate, 0, len(sorted))
	for _, c := range sorted {
		if c.Price >= floor {
			out = append(out, c)
		}
	}
	return out
}

// lastGap returns the index of the first item after the last adjacent price
// jump exceeding the multiplier whose upper price is above the floor, or 0.
func (r *Rules) lastGap(sorted []Candidate) int {
	cut := 0
	for i := 1; i < len(sorted); i++ {
		lo, hi := sorted[i-1].Price, sorted[i].Price
		if hi > r.outlier.GapFloor && hi > lo*r.outlier.GapMultiplier {
			cut = i
		}
	}
	return cut
}
