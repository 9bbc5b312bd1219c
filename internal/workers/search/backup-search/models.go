// internal/workers/search/backup-search/models.go
package backupsearch

import "price-finder/internal/relevance"

type Input struct {
	Query string `json:"query"`
}

type Output struct {
	Listings []relevance.RawListing `json:"results"`
}

// searchResponse accepts both the flat results shape and the offers shape.
type searchResponse struct {
	Results []relevance.RawListing `json:"results"`
	Offers  []offer                `json:"offers"`
}

type offer struct {
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	ShopName string  `json:"shop_name"`
	URL      string  `json:"url"`
}
