package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/rickgao/pricecache/internal/model"
)

const hotCacheEvictionPercent = 10

// CachedStore keeps recently used series in memory in front of another store.
// Callers always receive a private copy.
type CachedStore struct {
	next   Store
	hot    *sturdyc.Client[*model.Series]
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports hot cache counters.
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int   `json:"size"`
}

// NewCachedStore wraps next with a hot cache of the given capacity.
func NewCachedStore(next Store, capacity, shards int, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{
		next:   next,
		hot:    sturdyc.New[*model.Series](capacity, shards, ttl, hotCacheEvictionPercent),
		logger: logger,
	}
}

// Load returns the cached series for key, reading through on a miss.
func (c *CachedStore) Load(ctx context.Context, key model.SeriesKey) (*model.Series, error) {
	k := key.String()
	if s, ok := c.hot.Get(k); ok {
		c.hits.Add(1)
		return s.Clone(), nil
	}
	c.misses.Add(1)

	s, err := c.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	c.hot.Set(k, s.Clone())
	return s, nil
}

// Save writes through to the underlying store. On failure the cached copy is
// dropped so the next load reads the durable state.
func (c *CachedStore) Save(ctx context.Context, s *model.Series) error {
	k := s.Key.String()
	if err := c.next.Save(ctx, s); err != nil {
		c.hot.Delete(k)
		return err
	}
	c.hot.Set(k, s.Clone())
	return nil
}

// Ping delegates to the underlying store.
func (c *CachedStore) Ping(ctx context.Context) error {
	return Ping(ctx, c.next)
}

// Stats returns hot cache counters.
func (c *CachedStore) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.hot.Size(),
	}
}
