package rangecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/rickgao/pricecache/internal/gap"
	"github.com/rickgao/pricecache/internal/model"
	"github.com/rickgao/pricecache/internal/store"
)

// State names a step of a Get, as reported in debug logs.
type State string

const (
	StateLoaded      State = "loaded"
	StateGapComputed State = "gap_computed"
	StateAllCovered  State = "all_covered"
	StateFetching    State = "fetching"
	StateMerged      State = "merged"
	StatePersisted   State = "persisted"
	StateReturned    State = "returned"
	StateFailed      State = "failed"
)

// Config holds service configuration.
type Config struct {
	// DefaultResolution is the slot width assumed for a key with no present sample.
	DefaultResolution time.Duration

	// FetchTimeout bounds each upstream call. Zero means no per-call bound.
	FetchTimeout time.Duration

	// CheckKey, when set, rejects keys before any storage or upstream access.
	CheckKey func(model.SeriesKey) error
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultResolution: time.Hour,
		FetchTimeout:      2 * time.Minute,
	}
}

// Stats holds service counters.
type Stats struct {
	Requests       int64 `json:"requests"`
	Shared         int64 `json:"shared"`
	Hits           int64 `json:"hits"`
	Misses         int64 `json:"misses"`
	Fetches        int64 `json:"fetches"`
	FetchedSamples int64 `json:"fetched_samples"`
	Overwritten    int64 `json:"overwritten"`
	Saves          int64 `json:"saves"`
	Failures       int64 `json:"failures"`
	ActiveKeys     int64 `json:"active_keys"`
}

type counters struct {
	requests, shared, hits, misses       atomic.Int64
	fetches, fetchedSamples, overwritten atomic.Int64
	saves, failures                      atomic.Int64
}

// Service answers window queries for series keys, fetching only the slots the
// store does not already hold.
type Service struct {
	store   store.Store
	fetcher Fetcher
	cfg     Config
	logger  *slog.Logger

	locks  *keyLock
	flight singleflight.Group
	stats  counters
}

// New creates a Service.
func New(st store.Store, fetcher Fetcher, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   st,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
		locks:   newKeyLock(),
	}
}

// Get returns the samples of key with IntervalStart >= start and IntervalEnd <= end,
// fetching and persisting whatever the store is missing first.
//
// Validation failures return *model.ValidationError before any side effect. Store
// failures return *model.StorageError; upstream failures return *model.FetchError or
// *model.UnsupportedCombinationError. When a fetch fails, the ranges merged before it
// are still persisted.
//
// Concurrent calls for the same window share one execution. It runs detached from
// any single caller's context, so a caller giving up returns a transient
// *model.FetchError without failing the others.
func (s *Service) Get(ctx context.Context, key model.SeriesKey, start, end time.Time) (*model.Series, error) {
	if err := s.validate(key, start, end); err != nil {
		return nil, err
	}
	s.stats.requests.Add(1)

	ch := s.flight.DoChan(flightKey(key, start, end), func() (any, error) {
		return s.get(context.WithoutCancel(ctx), key, start, end)
	})
	select {
	case res := <-ch:
		if res.Shared {
			s.stats.shared.Add(1)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.Series).Clone(), nil
	case <-ctx.Done():
		return nil, &model.FetchError{
			Key:       key.String(),
			Range:     model.MissingRange{Start: start, End: end},
			Transient: true,
			Err:       ctx.Err(),
		}
	}
}

// Stats returns a snapshot of the counters.
func (s *Service) Stats() Stats {
	return Stats{
		Requests:       s.stats.requests.Load(),
		Shared:         s.stats.shared.Load(),
		Hits:           s.stats.hits.Load(),
		Misses:         s.stats.misses.Load(),
		Fetches:        s.stats.fetches.Load(),
		FetchedSamples: s.stats.fetchedSamples.Load(),
		Overwritten:    s.stats.overwritten.Load(),
		Saves:          s.stats.saves.Load(),
		Failures:       s.stats.failures.Load(),
		ActiveKeys:     int64(s.locks.Len()),
	}
}

func (s *Service) validate(key model.SeriesKey, start, end time.Time) error {
	switch {
	case !key.ISO.Valid():
		return &model.ValidationError{Field: "iso", Message: fmt.Sprintf("unknown value %q", key.ISO)}
	case !key.Market.Valid():
		return &model.ValidationError{Field: "market", Message: fmt.Sprintf("unknown value %q", key.Market)}
	case !key.PriceType.Valid():
		return &model.ValidationError{Field: "price_type", Message: fmt.Sprintf("unknown value %q", key.PriceType)}
	case strings.TrimSpace(key.Location) == "":
		return &model.ValidationError{Field: "location", Message: "is required"}
	case start.IsZero():
		return &model.ValidationError{Field: "start", Message: "is required"}
	case end.IsZero():
		return &model.ValidationError{Field: "end", Message: "is required"}
	case start.Location() != time.UTC:
		return &model.ValidationError{Field: "start", Message: "must be UTC, got " + start.Location().String()}
	case end.Location() != time.UTC:
		return &model.ValidationError{Field: "end", Message: "must be UTC, got " + end.Location().String()}
	case !start.Before(end):
		return &model.ValidationError{Field: "end", Message: fmt.Sprintf("must be after start (%s >= %s)", start.Format(time.RFC3339), end.Format(time.RFC3339))}
	case s.cfg.DefaultResolution <= 0:
		return &model.ValidationError{Field: "default_resolution", Message: "must be > 0"}
	}

	if s.cfg.CheckKey != nil {
		if err := s.cfg.CheckKey(key); err != nil {
			return err
		}
	}
	return nil
}

// get runs one request under the key's lock.
func (s *Service) get(ctx context.Context, key model.SeriesKey, start, end time.Time) (*model.Series, error) {
	log := s.logger.With(
		"request_id", uuid.NewString(),
		"key", key.String(),
		"window", model.MissingRange{Start: start, End: end}.String(),
	)

	unlock := s.locks.Lock(key)
	defer unlock()

	series, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, s.fail(log, err)
	}
	log.Debug("range cache state", "state", StateLoaded,
		"samples", series.Len(),
		"resolution", series.Resolution(s.cfg.DefaultResolution),
	)

	// Gaps are computed and fetched on whole slots of the series grid.
	gapStart, gapEnd := gap.AlignWindow(series, start, end, s.cfg.DefaultResolution)
	missing := gap.ComputeMissing(series, gapStart, gapEnd)
	log.Debug("range cache state", "state", StateGapComputed, "missing", len(missing))

	if len(missing) == 0 {
		s.stats.hits.Add(1)
		log.Debug("range cache state", "state", StateAllCovered)
		return s.returned(log, series, start, end), nil
	}
	s.stats.misses.Add(1)

	dirty, fetchErr := s.fetchMissing(ctx, log, series, missing)
	if dirty {
		// Fetched data is kept even if the caller has gone away.
		if err := s.store.Save(context.WithoutCancel(ctx), series); err != nil {
			return nil, s.fail(log, errors.Join(fetchErr, err))
		}
		s.stats.saves.Add(1)
		log.Debug("range cache state", "state", StatePersisted, "samples", series.Len())
	}

	if fetchErr != nil {
		return nil, s.fail(log, fetchErr)
	}
	return s.returned(log, series, start, end), nil
}

// fetchMissing fetches each range in order and merges it into series. It stops at
// the first failure. dirty reports whether anything was merged.
func (s *Service) fetchMissing(ctx context.Context, log *slog.Logger, series *model.Series, missing []model.MissingRange) (dirty bool, err error) {
	res, hasRes := series.InferResolution()

	for i, r := range missing {
		log.Debug("range cache state", "state", StateFetching,
			"range", r.String(),
			"index", i+1,
			"of", len(missing),
		)

		fetched, err := s.fetch(ctx, series.Key, r)
		if err != nil {
			return dirty, err
		}

		fetched = withinRange(fetched, r)
		if err := checkWidths(fetched, res, hasRes); err != nil {
			return dirty, &model.FetchError{Key: series.Key.String(), Range: r, Err: err}
		}
		if !hasRes {
			res, hasRes = inferWidth(fetched)
		}

		present := countPresent(fetched)
		overwritten := series.Merge(fetched)
		s.stats.fetchedSamples.Add(int64(present))
		s.stats.overwritten.Add(int64(overwritten))
		if present > 0 {
			dirty = true
		}

		log.Debug("range cache state", "state", StateMerged,
			"range", r.String(),
			"fetched", present,
			"overwritten", overwritten,
		)
	}

	return dirty, nil
}

// fetch calls the upstream for one range under the per-call timeout and maps
// failures onto the error kinds callers can act on.
func (s *Service) fetch(ctx context.Context, key model.SeriesKey, r model.MissingRange) ([]model.Sample, error) {
	s.stats.fetches.Add(1)

	fctx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	samples, err := s.fetcher.Fetch(fctx, key, r.Start, r.End)
	if err == nil {
		return samples, nil
	}

	var (
		fe *model.FetchError
		ue *model.UnsupportedCombinationError
	)
	switch {
	case errors.As(err, &fe), errors.As(err, &ue):
		return nil, err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return nil, &model.FetchError{Key: key.String(), Range: r, Transient: true, Err: err}
	default:
		return nil, &model.FetchError{Key: key.String(), Range: r, Err: err}
	}
}

func (s *Service) returned(log *slog.Logger, series *model.Series, start, end time.Time) *model.Series {
	out := series.Slice(start, end)
	log.Debug("range cache state", "state", StateReturned, "samples", out.Len())
	return out
}

func (s *Service) fail(log *slog.Logger, err error) error {
	s.stats.failures.Add(1)
	log.Warn("range cache request failed", "state", StateFailed, "error", err)
	return err
}

func flightKey(key model.SeriesKey, start, end time.Time) string {
	return key.String() + "|" + strconv.FormatInt(start.UnixNano(), 10) + "|" + strconv.FormatInt(end.UnixNano(), 10)
}

// withinRange drops samples starting outside r.
func withinRange(samples []model.Sample, r model.MissingRange) []model.Sample {
	out := samples[:0:0]
	for _, smp := range samples {
		if smp.IntervalStart.Before(r.Start) || !smp.IntervalStart.Before(r.End) {
			continue
		}
		out = append(out, smp)
	}
	return out
}

// checkWidths verifies every present sample spans res, or that they agree with each
// other when the series has no resolution yet.
func checkWidths(samples []model.Sample, res time.Duration, hasRes bool) error {
	for _, smp := range samples {
		if !smp.Present() {
			continue
		}
		w := smp.Width()
		if !hasRes {
			res, hasRes = w, true
		}
		if w != res {
			return fmt.Errorf("sample at %s spans %s, series resolution is %s",
				smp.IntervalStart.Format(time.RFC3339), w, res)
		}
	}
	return nil
}

func inferWidth(samples []model.Sample) (time.Duration, bool) {
	for _, smp := range samples {
		if smp.Present() {
			return smp.Width(), true
		}
	}
	return 0, false
}

func countPresent(samples []model.Sample) int {
	n := 0
	for _, smp := range samples {
		if smp.Present() {
			n++
		}
	}
	return n
}
