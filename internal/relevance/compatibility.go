// internal/relevance/compatibility.go
package relevance

import "strings"

// FilterCompatibility drops listings that describe themselves as made for
// another product ("for ", "compatible with", ...).
func (r *Rules) FilterCompatibility(in []Candidate) []Candidate {
	if len(r.compatibility) == 0 {
		return in
	}
	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		if !containsAny(strings.ToLower(c.Title), r.compatibility) {
			out = append(out, c)
		}
	}
	return out
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
