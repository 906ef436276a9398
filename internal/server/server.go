package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/pricecache/internal/model"
	"github.com/rickgao/pricecache/internal/prices"
	"github.com/rickgao/pricecache/internal/rangecache"
	"github.com/rickgao/pricecache/internal/store"
	"github.com/rickgao/pricecache/internal/version"
)

// Cache is the range cache as seen by the handlers.
type Cache interface {
	Get(ctx context.Context, key model.SeriesKey, start, end time.Time) (*model.Series, error)
	Stats() rangecache.Stats
}

// hotStats is implemented by stores that keep an in-memory copy.
type hotStats interface {
	Stats() store.CacheStats
}

// Server serves cache queries.
type Server struct {
	cache   Cache
	prices  *prices.Service
	store   store.Store
	logger  *slog.Logger
	started time.Time
}

// New creates a Server. st is used for health checks only.
func New(cache Cache, st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cache:   cache,
		prices:  prices.NewService(cache, logger),
		store:   st,
		logger:  logger,
		started: time.Now(),
	}
}

// Handler returns the HTTP handler for all endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /debug/stats", s.handleStats)
	mux.HandleFunc("GET /series", s.handleSeries)
	mux.HandleFunc("GET /prices", s.handlePrices)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := struct {
		Status     string         `json:"status"`
		Version    string         `json:"version"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Version:    version.String(),
		Components: make(map[string]any),
	}

	if err := store.Ping(ctx, s.store); err != nil {
		health.Status = "unhealthy"
		health.Components["store"] = map[string]string{
			"status": "disconnected",
			"error":  err.Error(),
		}
	} else {
		health.Components["store"] = "connected"
	}

	status := http.StatusOK
	if health.Status == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"uptime": time.Since(s.started).Round(time.Second).String(),
		"cache":  s.cache.Stats(),
	}
	if hs, ok := s.store.(hotStats); ok {
		out["hot_cache"] = hs.Stats()
	}
	s.writeJSON(w, http.StatusOK, out)
}

type sampleJSON struct {
	IntervalStart time.Time `json:"interval_start_utc"`
	IntervalEnd   time.Time `json:"interval_end_utc"`
	Location      string    `json:"location"`
	LocationType  string    `json:"location_type"`
	Market        string    `json:"market"`
	Price         *float64  `json:"price"`
}

type seriesJSON struct {
	Key     string       `json:"key"`
	Start   time.Time    `json:"start"`
	End     time.Time    `json:"end"`
	Count   int          `json:"count"`
	Samples []sampleJSON `json:"samples"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q, err := parseWindow(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	series, err := s.cache.Get(r.Context(), q.key, q.start, q.end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := seriesJSON{
		Key:     q.key.String(),
		Start:   q.start,
		End:     q.end,
		Count:   series.Len(),
		Samples: make([]sampleJSON, 0, series.Len()),
	}
	for _, smp := range series.Samples {
		out.Samples = append(out.Samples, sampleJSON{
			IntervalStart: smp.IntervalStart,
			IntervalEnd:   smp.IntervalEnd,
			Location:      smp.Location,
			LocationType:  smp.LocationType,
			Market:        smp.Market,
			Price:         smp.Value,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	q, err := parseWindow(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := parseResolution(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.prices.GetPriceActual(r.Context(), prices.Query{
		ISO:       q.key.ISO,
		Market:    q.key.Market,
		PriceType: q.key.PriceType,
		Location: prices.PriceLocation{
			Name:         q.key.Location,
			LocationType: model.LocationType(r.URL.Query().Get("location_type")),
		},
		Start:      q.start,
		End:        q.end,
		Resolution: res,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "status", status, "error", err)
	}
}
