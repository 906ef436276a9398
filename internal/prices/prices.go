package prices

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

// Source returns the cached samples of a series for a window.
type Source interface {
	Get(ctx context.Context, key model.SeriesKey, start, end time.Time) (*model.Series, error)
}

// PriceLocation names the point a price refers to.
type PriceLocation struct {
	Name         string             `json:"name"`
	LocationType model.LocationType `json:"location_type"`
}

// Price is an evenly spaced price vector. Values[i] covers
// [StartTime + i*IntervalDuration, StartTime + (i+1)*IntervalDuration).
type Price struct {
	PriceType        model.PriceType
	Location         PriceLocation
	Values           []float64 // NaN where no data
	StartTime        time.Time
	IntervalDuration time.Duration
}

// Len returns the number of slots.
func (p *Price) Len() int {
	return len(p.Values)
}

// TimeAt returns the start of slot i.
func (p *Price) TimeAt(i int) time.Time {
	return p.StartTime.Add(time.Duration(i) * p.IntervalDuration)
}

// EndTime returns the end of the last slot.
func (p *Price) EndTime() time.Time {
	return p.TimeAt(len(p.Values))
}

// Valid returns the number of slots carrying a value.
func (p *Price) Valid() int {
	n := 0
	for _, v := range p.Values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

type priceJSON struct {
	PriceType        model.PriceType `json:"price_type"`
	Location         PriceLocation   `json:"location"`
	StartTime        time.Time       `json:"start_time"`
	IntervalDuration string          `json:"interval_duration"`
	Values           []*float64      `json:"values"`
}

// MarshalJSON encodes missing and non-finite slots as null.
func (p *Price) MarshalJSON() ([]byte, error) {
	out := priceJSON{
		PriceType:        p.PriceType,
		Location:         p.Location,
		StartTime:        p.StartTime,
		IntervalDuration: p.IntervalDuration.String(),
		Values:           make([]*float64, len(p.Values)),
	}
	for i, v := range p.Values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out.Values[i] = model.Value(v)
		}
	}
	return json.Marshal(out)
}

// Query describes one price request.
type Query struct {
	ISO        model.ISO
	Market     model.Market
	PriceType  model.PriceType
	Location   PriceLocation
	Start      time.Time
	End        time.Time
	Resolution time.Duration
}

// Key returns the series key the query reads.
func (q Query) Key() model.SeriesKey {
	return model.SeriesKey{ISO: q.ISO, Market: q.Market, PriceType: q.PriceType, Location: q.Location.Name}
}

// Service answers price queries from a Source.
type Service struct {
	source Source
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(source Source, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{source: source, logger: logger}
}

// GetPriceActual returns the settled prices for q, resampled to q.Resolution.
func (s *Service) GetPriceActual(ctx context.Context, q Query) (*Price, error) {
	if q.Resolution <= 0 {
		return nil, &model.ValidationError{Field: "resolution", Message: "must be > 0"}
	}
	if strings.TrimSpace(q.Location.Name) == "" {
		return nil, &model.ValidationError{Field: "location", Message: "is required"}
	}

	switch q.PriceType {
	case model.PriceTypeLMP, model.PriceTypeSPP:
	case model.PriceTypeRegUp, model.PriceTypeRegDown, model.PriceTypeRRS:
		return nil, &model.UnsupportedCombinationError{ISO: q.ISO, Market: q.Market, PriceType: q.PriceType}
	default:
		return nil, &model.ValidationError{Field: "price_type", Message: fmt.Sprintf("unknown value %q", q.PriceType)}
	}

	series, err := s.source.Get(ctx, q.Key(), q.Start, q.End)
	if err != nil {
		return nil, err
	}

	p := &Price{
		PriceType:        q.PriceType,
		Location:         q.Location,
		Values:           Resample(series, q.Start, q.End, q.Resolution),
		StartTime:        q.Start,
		IntervalDuration: q.Resolution,
	}
	s.logger.Debug("price vector built",
		"key", q.Key().String(),
		"resolution", q.Resolution,
		"slots", p.Len(),
		"valid", p.Valid(),
	)
	return p, nil
}
