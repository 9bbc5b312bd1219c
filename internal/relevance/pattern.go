// internal/relevance/pattern.go
package relevance

import (
	"math"
	"sort"
	"strings"
)

// Fingerprint returns the sorted, comma-joined set of descriptive tokens in a
// title: query tokens, pattern stopwords and purely numeric tokens are left out.
func (r *Rules) Fingerprint(title string, q Query) string {
	seen := make(map[string]struct{})
	for _, tok := range wordPattern.FindAllString(strings.ToLower(title), -1) {
		if q.HasToken(tok) || numberPattern.MatchString(tok) {
			continue
		}
		if _, stop := r.patternStopwords[tok]; stop {
			continue
		}
		seen[tok] = struct{}{}
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	return strings.Join(words, ",")
}

// DominantPattern returns the most frequent fingerprint and its count. The
// empty fingerprint, a title made only of query words and noise, competes like
// any other. Ties go to the fingerprint seen first.
func (r *Rules) DominantPattern(in []Candidate, q Query) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, c := range in {
		fp := r.Fingerprint(c.Title, q)
		if _, seen := counts[fp]; !seen {
			order = append(order, fp)
		}
		counts[fp]++
	}

	best, bestCount := "", 0
	for _, fp := range order {
		if counts[fp] > bestCount {
			best, bestCount = fp, counts[fp]
		}
	}
	return best, bestCount
}

// Quorum is the minimum count the dominant pattern needs before it is trusted.
func (r *Rules) Quorum(n int) int {
	// small epsilon keeps 0.2*15 from rounding up to 4
	byRatio := int(math.Ceil(r.pattern.QuorumRatio*float64(n) - 1e-9))
	if byRatio > r.pattern.QuorumMin {
		return byRatio
	}
	return r.pattern.QuorumMin
}

// FilterByPattern keeps only candidates consistent with the dominant
// fingerprint. Small inputs and patterns below quorum leave the input as is.
func (r *Rules) FilterByPattern(in []Candidate, q Query) []Candidate {
	if len(in) < r.pattern.MinCandidates {
		return in
	}

	// bare product titles in the majority: nothing to narrow down
	dominant, count := r.DominantPattern(in, q)
	if dominant == "" || count < r.Quorum(len(in)) {
		return in
	}

	words := strings.Split(dominant, ",")
	out := make([]Candidate, 0, count)
	for _, c := range in {
		title := strings.ToLower(c.Title)
		if containsAll(title, words) {
			out = append(out, c)
		}
	}
	return out
}

func containsAll(s string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(s, w) {
			return false
		}
	}
	return true
}
