package rangecache

import (
	"context"
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

// Fetcher retrieves observed samples of key in [start, end) from upstream.
// It may return fewer samples than the full slot grid.
type Fetcher interface {
	Fetch(ctx context.Context, key model.SeriesKey, start, end time.Time) ([]model.Sample, error)
}

// FetcherFunc is a function adapter for Fetcher.
type FetcherFunc func(ctx context.Context, key model.SeriesKey, start, end time.Time) ([]model.Sample, error)

func (f FetcherFunc) Fetch(ctx context.Context, key model.SeriesKey, start, end time.Time) ([]model.Sample, error) {
	return f(ctx, key, start, end)
}
