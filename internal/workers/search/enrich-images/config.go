// internal/workers/search/enrich-images/config.go
package enrichimages

import (
	"time"

	"price-finder/internal/common/config"
)

type Config struct {
	SearchAPIBaseURL string
	SearchAPIKey     string
	SearchEngineID   string
	Timeout          time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		SearchAPIBaseURL: cfg.APIs.ImageSearch.BaseURL,
		SearchAPIKey:     cfg.APIs.ImageSearch.APIKey,
		SearchEngineID:   cfg.APIs.ImageSearch.EngineID,
		Timeout:          config.GetDuration(cfg.APIs.ImageSearch.Timeout),
	}
}

// Enabled reports whether credentials for the image search API are set.
func (c *Config) Enabled() bool {
	return c.SearchAPIKey != "" && c.SearchEngineID != ""
}
