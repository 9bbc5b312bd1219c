// internal/workers/search/enrich-images/models.go
package enrichimages

import "price-finder/internal/models"

type Input struct {
	Query   string          `json:"query"`
	Results []models.Result `json:"results"`
}

type Output struct {
	Image   string          `json:"image"`
	Cached  bool            `json:"cached"`
	Results []models.Result `json:"results"`
}

type searchResponse struct {
	Items []struct {
		Link string `json:"link"`
		Mime string `json:"mime"`
	} `json:"items"`
}
