// internal/workers/search/process-listings/models.go
package processlistings

import (
	"price-finder/internal/models"
	"price-finder/internal/relevance"
)

type Input struct {
	Query    string                 `json:"query"`
	Listings []relevance.RawListing `json:"results"`
}

type Output struct {
	Results []models.Result  `json:"results"`
	Intent  relevance.Intent `json:"intent"`
	Report  relevance.Report `json:"report"`
}
