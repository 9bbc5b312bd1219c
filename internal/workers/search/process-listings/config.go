// internal/workers/search/process-listings/config.go
package processlistings

import (
	"time"

	"price-finder/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	SlowThreshold time.Duration
}

func LoadConfig(cfg *config.Config) *Config {
	w := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:       config.GetDuration(w.Timeout),
		SlowThreshold: 500 * time.Millisecond,
	}
}
