// internal/relevance/condition.go
package relevance

import "strings"

const (
	ConditionNew         = "New"
	ConditionRefurbished = "Refurbished"
)

// Condition guesses whether a listing is refurbished from its title.
func (r *Rules) Condition(title string) string {
	if matches(r.refurbished, strings.ToLower(title)) {
		return ConditionRefurbished
	}
	return ConditionNew
}
