package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL          = "https://api.gridstatus.io/v1"
	DefaultAPITimeout       = 30 * time.Second
	DefaultMaxRetries       = 3
	DefaultRetryBackoff     = 1 * time.Second
	DefaultQueryLimit       = 10_000
	DefaultBackend          = BackendFile
	DefaultStorageDir       = "data_store_volume"
	DefaultHotCacheCapacity = 256
	DefaultHotCacheShards   = 16
	DefaultHotCacheTTL      = 10 * time.Minute
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisPrefix      = "pricecache"
	DefaultResolution       = time.Hour
	DefaultFetchTimeout     = 2 * time.Minute
	DefaultWarmInterval     = 1 * time.Hour
	DefaultWarmLookback     = 48 * time.Hour
	DefaultWarmConcurrency  = 2
	DefaultServerPort       = 8080
	DefaultLogLevel         = "info"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.QueryLimit == 0 {
		c.API.QueryLimit = DefaultQueryLimit
	}

	// Storage defaults
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = DefaultStorageDir
	}
	if c.Storage.HotCache.Capacity == 0 {
		c.Storage.HotCache.Capacity = DefaultHotCacheCapacity
	}
	if c.Storage.HotCache.Shards == 0 {
		c.Storage.HotCache.Shards = DefaultHotCacheShards
	}
	if c.Storage.HotCache.TTL == 0 {
		c.Storage.HotCache.TTL = DefaultHotCacheTTL
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = DefaultRedisPrefix
	}

	// Cache defaults
	if c.Cache.DefaultResolution == 0 {
		c.Cache.DefaultResolution = DefaultResolution
	}
	if c.Cache.FetchTimeout == 0 {
		c.Cache.FetchTimeout = DefaultFetchTimeout
	}

	// Warmer defaults
	if c.Warmer.Interval == 0 {
		c.Warmer.Interval = DefaultWarmInterval
	}
	if c.Warmer.Lookback == 0 {
		c.Warmer.Lookback = DefaultWarmLookback
	}
	if c.Warmer.Concurrency == 0 {
		c.Warmer.Concurrency = DefaultWarmConcurrency
	}

	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
