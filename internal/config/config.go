package config

import "time"

// Config is the root configuration for a pricecache instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`
	Warmer   WarmerConfig   `yaml:"warmer"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// InstanceConfig identifies this instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// APIConfig holds upstream price API settings.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`      // falls back to GRIDSTATUS_API_KEY
	APIKeyFile   string        `yaml:"api_key_file"` // file holding the key, trimmed
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	QueryLimit   int           `yaml:"query_limit"`
}

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// StorageConfig selects and configures the durable series store.
type StorageConfig struct {
	Backend  string         `yaml:"backend"`
	Dir      string         `yaml:"dir"` // file backend only
	HotCache HotCacheConfig `yaml:"hot_cache"`
}

// HotCacheConfig configures the in-process copy kept in front of the store.
type HotCacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Capacity int           `yaml:"capacity"`
	Shards   int           `yaml:"shards"`
	TTL      time.Duration `yaml:"ttl"`
}

// DatabaseConfig holds the PostgreSQL connection used by the postgres backend.
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig holds the Redis connection used by the redis backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// CacheConfig holds range cache settings.
type CacheConfig struct {
	DefaultResolution time.Duration `yaml:"default_resolution"`
	FetchTimeout      time.Duration `yaml:"fetch_timeout"`
}

// WarmerConfig holds background refresh settings.
type WarmerConfig struct {
	Enabled     bool           `yaml:"enabled"`
	Interval    time.Duration  `yaml:"interval"`
	Lookback    time.Duration  `yaml:"lookback"`
	Concurrency int            `yaml:"concurrency"`
	Series      []SeriesConfig `yaml:"series"`
}

// SeriesConfig names one series key in config.
type SeriesConfig struct {
	ISO       string `yaml:"iso"`
	Market    string `yaml:"market"`
	PriceType string `yaml:"price_type"`
	Location  string `yaml:"location"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}
