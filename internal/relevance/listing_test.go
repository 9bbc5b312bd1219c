package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		raw       RawListing
		wantOK    bool
		wantPrice float64
		wantShown string
		wantStore string
		wantURL   string
	}{
		{
			name:      "plain price",
			raw:       RawListing{Title: "JB Hi-Fi Apple iPhone 15 128GB Blue $999.00", URL: "https://jbhifi.example/p/1"},
			wantOK:    true,
			wantPrice: 999,
			wantShown: "$999.00",
			wantStore: "JB",
			wantURL:   "https://jbhifi.example/p/1",
		},
		{
			name:      "thousands separator",
			raw:       RawListing{Title: "Officeworks MacBook Air $1,299.50"},
			wantOK:    true,
			wantPrice: 1299.50,
			wantShown: "$1,299.50",
			wantStore: "Officeworks",
			wantURL:   DefaultURL,
		},
		{
			name:      "no cents",
			raw:       RawListing{Title: "Kogan Headphones $45"},
			wantOK:    true,
			wantPrice: 45,
			wantShown: "$45",
			wantStore: "Kogan",
			wantURL:   DefaultURL,
		},
		{
			name:      "first price wins",
			raw:       RawListing{Title: "eBay Switch OLED $399.00 was $549.00"},
			wantOK:    true,
			wantPrice: 399,
			wantShown: "$399.00",
			wantStore: "eBay",
			wantURL:   DefaultURL,
		},
		{name: "no price", raw: RawListing{Title: "Amazon Apple iPhone 15"}},
		{name: "zero price", raw: RawListing{Title: "Amazon Apple iPhone 15 $0.00"}},
		{name: "empty title", raw: RawListing{Title: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := Normalize(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.raw.Title, c.Title)
			assert.InDelta(t, tt.wantPrice, c.Price, 1e-9)
			assert.Equal(t, tt.wantShown, c.PriceDisplay)
			assert.Equal(t, tt.wantStore, c.Store)
			assert.Equal(t, tt.wantURL, c.URL)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := RawListing{Title: "Amazon Apple iPhone 15 512GB $1399.00"}

	first, ok1 := Normalize(raw)
	second, ok2 := Normalize(raw)

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, first, second)
}

func TestNormalizeAll_IsolatesBadRows(t *testing.T) {
	raw := []RawListing{
		{Title: "Store A Widget $10.00"},
		{Title: ""},
		{Title: "Store B Widget no price"},
		{Title: "Store C Widget $12.00"},
	}

	out := NormalizeAll(raw)

	assert.Len(t, out, 2)
	assert.Equal(t, "Store", out[0].Store)
	assert.InDelta(t, 12.0, out[1].Price, 1e-9)
	for _, c := range out {
		assert.Greater(t, c.Price, 0.0)
	}
}
