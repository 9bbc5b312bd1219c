// internal/relevance/query.go
package relevance

import (
	"regexp"
	"strings"
)

const edgePunctuation = `.,;:!?"'()[]{}`

var (
	numberPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	wordPattern   = regexp.MustCompile(`[a-z0-9]+`)
)

// Query is a user search string decomposed for matching. Words and Numbers
// keep first-appearance order and contain no duplicates.
type Query struct {
	Raw     string
	Lower   string
	Words   []string
	Numbers []string

	tokens map[string]struct{}
}

func (r *Rules) ParseQuery(raw string) Query {
	q := Query{
		Raw:    raw,
		Lower:  strings.ToLower(strings.TrimSpace(raw)),
		tokens: make(map[string]struct{}),
	}

	seen := make(map[string]struct{})
	for _, tok := range strings.Fields(q.Lower) {
		tok = strings.Trim(tok, edgePunctuation)
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}

		if numberPattern.MatchString(tok) {
			q.Numbers = append(q.Numbers, tok)
			continue
		}
		if len(tok) <= 1 {
			continue
		}
		if _, stop := r.queryStopwords[tok]; stop {
			continue
		}
		q.Words = append(q.Words, tok)
	}

	for _, tok := range wordPattern.FindAllString(q.Lower, -1) {
		q.tokens[tok] = struct{}{}
	}
	return q
}

// Terms returns every significant term, words first.
func (q Query) Terms() []string {
	terms := make([]string, 0, len(q.Words)+len(q.Numbers))
	terms = append(terms, q.Words...)
	return append(terms, q.Numbers...)
}

// HasToken reports whether tok appears in the query under title tokenization.
func (q Query) HasToken(tok string) bool {
	_, ok := q.tokens[tok]
	return ok
}
