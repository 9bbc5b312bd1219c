// internal/relevance/topic.go
package relevance

import "regexp"

// FilterByTopic keeps candidates whose title contains every significant query
// term as a whole word, ignoring case. A query without significant terms
// lets everything through.
func FilterByTopic(in []Candidate, q Query) []Candidate {
	terms := q.Terms()
	if len(terms) == 0 {
		return in
	}

	patterns := make([]*regexp.Regexp, len(terms))
	for i, t := range terms {
		patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`)
	}

	out := make([]Candidate, 0, len(in))
	for _, c := range in {
		if matchesAll(patterns, c.Title) {
			out = append(out, c)
		}
	}
	return out
}

func matchesAll(patterns []*regexp.Regexp, title string) bool {
	for _, p := range patterns {
		if !p.MatchString(title) {
			return false
		}
	}
	return true
}
