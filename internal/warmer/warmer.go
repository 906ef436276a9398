package warmer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/pricecache/internal/model"
)

// Getter reads a window of a series through the cache.
type Getter interface {
	Get(ctx context.Context, key model.SeriesKey, start, end time.Time) (*model.Series, error)
}

// Config holds warmer configuration.
type Config struct {
	Interval    time.Duration // Cycle interval (default: 1h)
	Lookback    time.Duration // Window length ending at the current slot (default: 48h)
	Resolution  time.Duration // Window edges are truncated to this width (default: 1h)
	Concurrency int           // Max keys warmed at once (default: 2)
	Timeout     time.Duration // Per-key timeout (default: 5m)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:    time.Hour,
		Lookback:    48 * time.Hour,
		Resolution:  time.Hour,
		Concurrency: 2,
		Timeout:     5 * time.Minute,
	}
}

// Result summarizes one cycle.
type Result struct {
	Keys     int
	Warmed   int64
	Failed   int64
	Samples  int64
	Duration time.Duration
}

// Warmer periodically requests recent windows so later reads are cache hits.
type Warmer struct {
	cfg    Config
	getter Getter
	keys   []model.SeriesKey
	logger *slog.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Warmer.
func New(cfg Config, getter Getter, keys []model.SeriesKey, logger *slog.Logger) *Warmer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Warmer{
		cfg:    cfg,
		getter: getter,
		keys:   keys,
		logger: logger,
		now:    time.Now,
	}
}

// Start begins the warm loop.
func (w *Warmer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(1)
	go w.run()

	w.logger.Info("cache warmer started",
		"interval", w.cfg.Interval,
		"lookback", w.cfg.Lookback,
		"keys", len(w.keys),
		"concurrency", w.cfg.Concurrency,
	)

	return nil
}

// Stop cancels in-flight work and waits for the loop to exit.
func (w *Warmer) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.cancel()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("cache warmer stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Window returns the window warmed at now.
func (w *Warmer) Window(now time.Time) (start, end time.Time) {
	end = now.UTC()
	if w.cfg.Resolution > 0 {
		end = end.Truncate(w.cfg.Resolution)
	}
	start = end.Add(-w.cfg.Lookback)
	if w.cfg.Resolution > 0 {
		start = start.Truncate(w.cfg.Resolution)
	}
	return start, end
}

// run is the main warm loop.
func (w *Warmer) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// Warm immediately on start.
	w.warmAll(w.ctx)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.warmAll(w.ctx)
		}
	}
}

// warmAll warms every key once with bounded concurrency.
func (w *Warmer) warmAll(ctx context.Context) Result {
	began := time.Now()
	res := Result{Keys: len(w.keys)}
	if len(w.keys) == 0 {
		w.logger.Debug("no series to warm")
		return res
	}

	start, end := w.Window(w.now())
	var warmed, failed, samples atomic.Int64

	var g errgroup.Group
	g.SetLimit(w.cfg.Concurrency)
	for _, key := range w.keys {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			n, err := w.warmKey(ctx, key, start, end)
			if err != nil {
				w.logger.Warn("failed to warm series",
					"key", key.String(),
					"transient", model.IsTransient(err),
					"err", err,
				)
				failed.Add(1)
				return nil
			}
			warmed.Add(1)
			samples.Add(int64(n))
			return nil
		})
	}
	_ = g.Wait()

	res.Warmed = warmed.Load()
	res.Failed = failed.Load()
	res.Samples = samples.Load()
	res.Duration = time.Since(began)

	w.logger.Info("warm cycle complete",
		"keys", res.Keys,
		"warmed", res.Warmed,
		"failed", res.Failed,
		"samples", res.Samples,
		"window", model.MissingRange{Start: start, End: end}.String(),
		"duration", res.Duration,
	)
	return res
}

// warmKey reads one key's window and returns the number of present samples in it.
func (w *Warmer) warmKey(ctx context.Context, key model.SeriesKey, start, end time.Time) (int, error) {
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	s, err := w.getter.Get(ctx, key, start, end)
	if err != nil {
		return 0, err
	}
	return s.PresentCount(), nil
}
