package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and fills blanks from the environment.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading %s config overlay: %w", env, err)
		}
	}

	return decode(v)
}

// LoadFromFile reads a single config file with no environment overlay.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	paths := []string{".env", "../.env", "../../.env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		s, ok := v.Get(key).(string)
		if !ok || !strings.Contains(s, "$") {
			continue
		}
		if expanded := os.ExpandEnv(s); expanded != s {
			v.Set(key, expanded)
		}
	}
}

func fromEnv(dst *string, name string) {
	if *dst == "" {
		*dst = os.Getenv(name)
	}
}

func overrideEmptyConfig(cfg *Config) {
	fromEnv(&cfg.Security.AdminCode, "ADMIN_CODE")
	fromEnv(&cfg.Security.ServerSideSecret, "SERVER_SIDE_SECRET")

	fromEnv(&cfg.APIs.ImageSearch.APIKey, "GOOGLE_API_KEY")
	fromEnv(&cfg.APIs.ImageSearch.EngineID, "GOOGLE_CSE_ID")
	fromEnv(&cfg.APIs.BackupSearch.APIKey, "PRICEAPI_COM_KEY")

	fromEnv(&cfg.Database.Postgres.User, "DB_USER")
	fromEnv(&cfg.Database.Postgres.Password, "DB_PASSWORD")
	fromEnv(&cfg.Database.Redis.Password, "REDIS_PASSWORD")
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "price-finder"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.MetricsPort == 0 {
		cfg.Server.MetricsPort = 9090
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = "public"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = 10 << 20
	}
	if cfg.Server.RateLimit.PerSecond == 0 {
		cfg.Server.RateLimit.PerSecond = 2
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 10
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = CacheBackendMemory
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 60 * 60 * 1000
	}
	if cfg.Cache.PendingTTL == 0 {
		cfg.Cache.PendingTTL = 5 * 60 * 1000
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "pricefinder:results:"
	}
	if cfg.Cache.ImageSize == 0 {
		cfg.Cache.ImageSize = 5000
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 10
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 2
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}

	for name, w := range cfg.Workers {
		if w.Timeout == 0 {
			w.Timeout = 10000
		}
		if w.MaxRetries == 0 {
			w.MaxRetries = 3
		}
		cfg.Workers[name] = w
	}

	if cfg.APIs.ImageSearch.BaseURL == "" {
		cfg.APIs.ImageSearch.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if cfg.APIs.ImageSearch.Timeout == 0 {
		cfg.APIs.ImageSearch.Timeout = 3000
	}
	if cfg.APIs.BackupSearch.BaseURL == "" {
		cfg.APIs.BackupSearch.BaseURL = "https://api.priceapi.com/v2"
	}
	if cfg.APIs.BackupSearch.Country == "" {
		cfg.APIs.BackupSearch.Country = "au"
	}
	if cfg.APIs.BackupSearch.Timeout == 0 {
		cfg.APIs.BackupSearch.Timeout = 20000
	}

	if cfg.Relay.WriteTimeout == 0 {
		cfg.Relay.WriteTimeout = 5000
	}

	if cfg.Traffic.MaxHistory == 0 {
		cfg.Traffic.MaxHistory = 50
	}
	if cfg.Traffic.OnlineTimeout == 0 {
		cfg.Traffic.OnlineTimeout = 65000
	}
	if cfg.Traffic.TopTerms == 0 {
		cfg.Traffic.TopTerms = 10
	}

	if cfg.LiveState.DefaultTheme == "" {
		cfg.LiveState.DefaultTheme = "default"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Security.AdminCode == "" {
		return fmt.Errorf("security.admin_code is required")
	}
	if cfg.Security.ServerSideSecret == "" {
		return fmt.Errorf("security.server_side_secret is required")
	}

	switch cfg.Cache.Backend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if cfg.Database.Redis.Address == "" {
			return fmt.Errorf("database.redis.address is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend must be %q or %q, got %q", CacheBackendMemory, CacheBackendRedis, cfg.Cache.Backend)
	}

	if cfg.Database.Postgres.Enabled {
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	}

	if cfg.APIs.BackupSearch.Enabled && cfg.APIs.BackupSearch.APIKey == "" {
		return fmt.Errorf("apis.backup_search.api_key is required when backup search is enabled")
	}
	return nil
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig returns the named worker section or the defaults.
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if w, ok := cfg.Workers[workerName]; ok {
		return w
	}
	return WorkerConfig{Enabled: true, Timeout: 10000, MaxRetries: 3}
}

func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if w, ok := cfg.Workers[workerName]; ok {
		return w.Enabled
	}
	return true
}
