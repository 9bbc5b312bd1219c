// internal/relevance/score.go
package relevance

import "strings"

// Score rates how closely a title follows the query: points for each query
// word and number present, a bonus for the whole phrase, and a penalty for
// compatibility wording.
func (r *Rules) Score(title string, q Query) int {
	t := strings.ToLower(title)
	w := r.scoring
	score := 0

	for _, word := range q.Words {
		if strings.Contains(t, word) {
			score += w.Word
		}
	}
	for _, n := range q.Numbers {
		if strings.Contains(t, n) {
			score += w.Number
		}
	}
	if len(q.Words) > 0 && strings.Contains(t, strings.Join(q.Words, " ")) {
		score += w.Phrase
	}
	if strings.Contains(t, "for ") || strings.Contains(t, "compatible with") {
		score += w.Compatibility
	}
	return score
}
