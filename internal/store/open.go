package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rickgao/pricecache/internal/config"
	"github.com/rickgao/pricecache/internal/database"
)

// Open builds the configured backend, wrapped in a hot cache when enabled.
// The returned close function releases any connections.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		backend Store
		closer  = func() {}
	)

	switch cfg.Storage.Backend {
	case config.BackendFile:
		fs, err := NewFileStore(cfg.Storage.Dir, logger)
		if err != nil {
			return nil, nil, err
		}
		backend = fs

	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		pg := NewPostgresStore(pool, logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		backend = pg
		closer = pool.Close

	case config.BackendRedis:
		rdb, err := NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		backend = NewRedisStore(rdb, cfg.Redis.Prefix, logger)
		closer = func() { rdb.Close() }

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	logger.Info("storage backend ready", "backend", cfg.Storage.Backend, "hot_cache", cfg.Storage.HotCache.Enabled)

	if hc := cfg.Storage.HotCache; hc.Enabled {
		return NewCachedStore(backend, hc.Capacity, hc.Shards, hc.TTL, logger), closer, nil
	}
	return backend, closer, nil
}
