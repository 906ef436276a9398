package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rickgao/pricecache/internal/dataset"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	if c.API.MaxRetries < 0 {
		return errors.New("api.max_retries must be >= 0")
	}
	if c.API.QueryLimit < 1 {
		return errors.New("api.query_limit must be >= 1")
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.Dir == "" {
			return errors.New("storage.dir is required for the file backend")
		}
	case BackendPostgres:
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("storage.backend must be one of file, postgres, redis, got %q", c.Storage.Backend)
	}

	if c.Storage.HotCache.Enabled {
		if c.Storage.HotCache.Capacity < 1 {
			return errors.New("storage.hot_cache.capacity must be >= 1")
		}
		if c.Storage.HotCache.Shards < 1 {
			return errors.New("storage.hot_cache.shards must be >= 1")
		}
		if c.Storage.HotCache.TTL <= 0 {
			return errors.New("storage.hot_cache.ttl must be > 0")
		}
	}

	if c.Cache.DefaultResolution <= 0 {
		return errors.New("cache.default_resolution must be > 0")
	}
	if c.Cache.FetchTimeout <= 0 {
		return errors.New("cache.fetch_timeout must be > 0")
	}

	if c.Warmer.Enabled {
		if c.Warmer.Interval <= 0 {
			return errors.New("warmer.interval must be > 0")
		}
		if c.Warmer.Lookback <= 0 {
			return errors.New("warmer.lookback must be > 0")
		}
		if c.Warmer.Concurrency < 1 {
			return errors.New("warmer.concurrency must be >= 1")
		}
		for i, s := range c.Warmer.Series {
			key, err := s.Key()
			if err != nil {
				return fmt.Errorf("warmer.series[%d]: %w", i, err)
			}
			if !dataset.Supported(key) {
				return fmt.Errorf("warmer.series[%d]: no upstream dataset for %s", i, key)
			}
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
