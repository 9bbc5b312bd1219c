// internal/models/result.go
package models

import (
	"strings"
	"time"
)

// Result is one listing in a served result set.
type Result struct {
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	PriceDisplay string  `json:"price_string"`
	Store        string  `json:"store"`
	URL          string  `json:"url"`
	Image        string  `json:"image,omitempty"`
	Condition    string  `json:"condition,omitempty"`
}

type ResultSource string

const (
	SourceWorker ResultSource = "worker"
	SourceBackup ResultSource = "backup"
)

// ResultSet is the cached answer for one query. It is replaced wholesale on
// re-scrape and never edited in place.
type ResultSet struct {
	Query     string       `json:"query"`
	Items     []Result     `json:"items"`
	Source    ResultSource `json:"source"`
	CreatedAt time.Time    `json:"createdAt"`
}

// CacheKey is the case-insensitive key shared by every per-query store.
func CacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
