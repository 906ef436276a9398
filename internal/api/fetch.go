package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"time"

	"github.com/rickgao/pricecache/internal/dataset"
	"github.com/rickgao/pricecache/internal/model"
)

// Fetch returns the samples of key within [start, end), ordered by interval start.
// Keys without an upstream dataset fail with *model.UnsupportedCombinationError;
// every other failure is a *model.FetchError.
func (c *Client) Fetch(ctx context.Context, key model.SeriesKey, start, end time.Time) ([]model.Sample, error) {
	ds, err := dataset.Resolve(key)
	if err != nil {
		return nil, err
	}
	rng := model.MissingRange{Start: start, End: end}

	rows, err := c.GetDataset(ctx, DatasetQuery{
		Dataset:      ds.Name,
		Start:        start.UTC().Format(time.RFC3339),
		End:          end.UTC().Format(time.RFC3339),
		FilterColumn: ColLocation,
		FilterValue:  key.Location,
	})
	if err != nil {
		return nil, &model.FetchError{Key: key.String(), Range: rng, Transient: isTransient(err), Err: err}
	}

	samples := make([]model.Sample, 0, len(rows))
	for i, row := range rows {
		smp, err := RowToSample(row, ds, key)
		if err != nil {
			return nil, &model.FetchError{
				Key:   key.String(),
				Range: rng,
				Err:   fmt.Errorf("decode %s row %d: %w", ds.Name, i, err),
			}
		}
		if smp.IntervalStart.Before(start) || !smp.IntervalStart.Before(end) {
			continue
		}
		samples = append(samples, smp)
	}
	slices.SortStableFunc(samples, func(a, b model.Sample) int {
		return a.IntervalStart.Compare(b.IntervalStart)
	})

	c.logger.Debug("fetched samples",
		"key", key.String(),
		"dataset", ds.Name,
		"range", rng.String(),
		"rows", len(rows),
		"samples", len(samples),
	)
	return samples, nil
}

// isTransient classifies a request failure: rate limits, upstream 5xx, timeouts and
// network errors may succeed later; everything else will not.
func isTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
