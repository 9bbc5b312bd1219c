package config

import "fmt"

// Config is the root configuration for the price-finder server.
type Config struct {
	App       AppConfig               `mapstructure:"app"`
	Server    ServerConfig            `mapstructure:"server"`
	Security  SecurityConfig          `mapstructure:"security"`
	Cache     CacheConfig             `mapstructure:"cache"`
	Database  DatabaseConfig          `mapstructure:"database"`
	Workers   map[string]WorkerConfig `mapstructure:"workers"`
	APIs      APIsConfig              `mapstructure:"apis"`
	Pipeline  PipelineConfig          `mapstructure:"pipeline"`
	Relay     RelayConfig             `mapstructure:"relay"`
	Traffic   TrafficConfig           `mapstructure:"traffic"`
	LiveState LiveStateConfig         `mapstructure:"live_state"`
	Logging   LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	MetricsPort     int    `mapstructure:"metrics_port"`
	StaticDir       string `mapstructure:"static_dir"`
	RequestTimeout  int    `mapstructure:"request_timeout"`  // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
	MaxBodyBytes    int64  `mapstructure:"max_body_bytes"`
	RateLimit       struct {
		PerSecond float64 `mapstructure:"per_second"`
		Burst     int     `mapstructure:"burst"`
	} `mapstructure:"rate_limit"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type SecurityConfig struct {
	AdminCode        string `mapstructure:"admin_code"`
	ServerSideSecret string `mapstructure:"server_side_secret"`
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type CacheConfig struct {
	Backend    string `mapstructure:"backend"`
	TTL        int    `mapstructure:"ttl"`         // milliseconds
	PendingTTL int    `mapstructure:"pending_ttl"` // milliseconds
	KeyPrefix  string `mapstructure:"key_prefix"`
	ImageSize  int    `mapstructure:"image_size"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkerConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Timeout    int  `mapstructure:"timeout"` // milliseconds
	MaxRetries int  `mapstructure:"max_retries"`
}

type APIsConfig struct {
	ImageSearch struct {
		BaseURL  string `mapstructure:"base_url"`
		APIKey   string `mapstructure:"api_key"`
		EngineID string `mapstructure:"engine_id"`
		Timeout  int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"image_search"`

	BackupSearch struct {
		Enabled bool   `mapstructure:"enabled"`
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		Country string `mapstructure:"country"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"backup_search"`
}

type PipelineConfig struct {
	RulesetPath string `mapstructure:"ruleset_path"`
	RankByScore bool   `mapstructure:"rank_by_score"`
}

type RelayConfig struct {
	WriteTimeout int `mapstructure:"write_timeout"` // milliseconds
}

type TrafficConfig struct {
	MaxHistory    int `mapstructure:"max_history"`
	OnlineTimeout int `mapstructure:"online_timeout"` // milliseconds
	TopTerms      int `mapstructure:"top_terms"`
}

type LiveStateConfig struct {
	SnapshotPath string `mapstructure:"snapshot_path"`
	DefaultTheme string `mapstructure:"default_theme"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
