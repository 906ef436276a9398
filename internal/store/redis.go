package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/pricecache/internal/config"
	"github.com/rickgao/pricecache/internal/model"
)

// RedisStore keeps each series as a single CSV-encoded string value.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewRedisClient opens a client for cfg and verifies it with a ping.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedisStore wraps an open client. Keys are written under prefix.
func NewRedisStore(rdb redis.UniversalClient, prefix string, logger *slog.Logger) *RedisStore {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = config.DefaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, logger: logger}
}

// Key returns the redis key holding the series.
func (s *RedisStore) Key(key model.SeriesKey) string {
	return s.prefix + ":series:" + key.String()
}

// Ping checks the redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Load reads the series for key. A missing key yields an empty series.
func (s *RedisStore) Load(ctx context.Context, key model.SeriesKey) (*model.Series, error) {
	data, err := s.rdb.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewSeries(key), nil
	}
	if err != nil {
		return nil, loadError(key, err)
	}

	series, err := UnmarshalCSV(data, key)
	if err != nil {
		return nil, loadError(key, err)
	}
	return series, nil
}

// Save replaces the value for the series. A single SET is atomic.
func (s *RedisStore) Save(ctx context.Context, series *model.Series) error {
	data, err := MarshalCSV(series)
	if err != nil {
		return saveError(series.Key, err)
	}
	if err := s.rdb.Set(ctx, s.Key(series.Key), data, 0).Err(); err != nil {
		return saveError(series.Key, err)
	}

	s.logger.Debug("saved series", "key", series.Key.String(), "bytes", len(data))
	return nil
}
