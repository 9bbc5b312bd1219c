// internal/workers/search/backup-search/config.go
package backupsearch

import (
	"time"

	"price-finder/internal/common/config"
)

type Config struct {
	Enabled      bool
	BaseURL      string
	APIKey       string
	Country      string
	Timeout      time.Duration
	MaxRetries   int
	InitialDelay time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	w := config.GetWorkerConfig(cfg, TaskType)
	api := cfg.APIs.BackupSearch
	return &Config{
		Enabled:      api.Enabled && w.Enabled,
		BaseURL:      api.BaseURL,
		APIKey:       api.APIKey,
		Country:      api.Country,
		Timeout:      config.GetDuration(api.Timeout),
		MaxRetries:   w.MaxRetries,
		InitialDelay: 500 * time.Millisecond,
	}
}
