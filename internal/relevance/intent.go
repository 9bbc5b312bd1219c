// internal/relevance/intent.go
package relevance

import "strings"

type Intent string

const (
	IntentMainProduct Intent = "FIND_MAIN_PRODUCT"
	IntentAccessory   Intent = "FIND_ACCESSORY"
)

// Classify reports FIND_ACCESSORY when the lower-cased query contains any
// accessory or component term as a substring. Parts are cheap next to the
// systems they fit, so they skip the main-product price filters too.
func (r *Rules) Classify(query string) Intent {
	lower := strings.ToLower(query)
	if matches(r.accessory, lower) || matches(r.component, lower) {
		return IntentAccessory
	}
	return IntentMainProduct
}
