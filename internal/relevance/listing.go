// internal/relevance/listing.go
package relevance

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultURL is used when a listing arrives without a link.
const DefaultURL = "#"

// RawListing is a single record as posted by a scraping worker or a backup API.
type RawListing struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// Candidate is a normalized listing. Title is always the untouched original.
type Candidate struct {
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	PriceDisplay string  `json:"price_string"`
	Store        string  `json:"store"`
	URL          string  `json:"url"`
	Score        int     `json:"-"`
}

var pricePattern = regexp.MustCompile(`\$((?:\d{1,3}(?:,\d{3})+)|\d+)(\.\d{2})?`)

// Normalize turns a raw listing into a Candidate. The second return value is
// false when the listing has no usable title or no positive price.
func Normalize(raw RawListing) (Candidate, bool) {
	if strings.TrimSpace(raw.Title) == "" {
		return Candidate{}, false
	}

	m := pricePattern.FindStringSubmatch(raw.Title)
	if m == nil {
		return Candidate{}, false
	}
	price, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "")+m[2], 64)
	if err != nil || price <= 0 {
		return Candidate{}, false
	}

	url := strings.TrimSpace(raw.URL)
	if url == "" {
		url = DefaultURL
	}

	return Candidate{
		Title:        raw.Title,
		Price:        price,
		PriceDisplay: m[0],
		Store:        strings.Fields(raw.Title)[0],
		URL:          url,
	}, true
}

// NormalizeAll normalizes each listing independently and drops the ones that
// cannot be used. Input order is preserved.
func NormalizeAll(raw []RawListing) []Candidate {
	out := make([]Candidate, 0, len(raw))
	for _, r := range raw {
		if c, ok := Normalize(r); ok {
			out = append(out, c)
		}
	}
	return out
}
