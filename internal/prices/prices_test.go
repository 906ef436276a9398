package prices

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

var t0 = time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)

var houston = PriceLocation{Name: "HB_HOUSTON", LocationType: model.LocationHub}

func seriesOf(width time.Duration, values ...float64) *model.Series {
	s := model.NewSeries(model.SeriesKey{ISO: model.ISOERCOT, Market: model.MarketDayAhead, PriceType: model.PriceTypeSPP, Location: "HB_HOUSTON"})
	for i, v := range values {
		start := t0.Add(time.Duration(i) * width)
		smp := model.Sample{IntervalStart: start, IntervalEnd: start.Add(width), Location: "HB_HOUSTON"}
		if !math.IsNaN(v) {
			smp.Value = model.Value(v)
		}
		s.Samples = append(s.Samples, smp)
	}
	return s
}

func assertValues(t *testing.T, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("[%d] = %v, want NaN", i, got[i])
			}
			continue
		}
		if got[i] != want[i] {
			t.Errorf("[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestResample(t *testing.T) {
	nan := math.NaN()

	tests := []struct {
		name   string
		series *model.Series
		end    time.Time
		res    time.Duration
		want   []float64
	}{
		{
			name:   "equal resolution copies",
			series: seriesOf(time.Hour, 1, 2, 3),
			end:    t0.Add(3 * time.Hour),
			res:    time.Hour,
			want:   []float64{1, 2, 3},
		},
		{
			name:   "missing slot is NaN",
			series: seriesOf(time.Hour, 1, nan, 3),
			end:    t0.Add(4 * time.Hour),
			res:    time.Hour,
			want:   []float64{1, nan, 3, nan},
		},
		{
			name:   "coarser takes the mean",
			series: seriesOf(15*time.Minute, 1, 2, 3, 4, 5, 6, 7, 8),
			end:    t0.Add(2 * time.Hour),
			res:    time.Hour,
			want:   []float64{2.5, 6.5},
		},
		{
			name:   "coarser ignores absent samples",
			series: seriesOf(15*time.Minute, 1, nan, 3, nan),
			end:    t0.Add(time.Hour),
			res:    time.Hour,
			want:   []float64{2},
		},
		{
			name:   "finer interpolates then holds",
			series: seriesOf(time.Hour, 0, 60),
			end:    t0.Add(2 * time.Hour),
			res:    15 * time.Minute,
			want:   []float64{0, 15, 30, 45, 60, 60, 60, 60},
		},
		{
			name:   "finer does not bridge gaps",
			series: seriesOf(time.Hour, 10, nan, 30),
			end:    t0.Add(3 * time.Hour),
			res:    30 * time.Minute,
			want:   []float64{10, 10, nan, nan, 30, 30},
		},
		{
			name:   "partial trailing slot dropped",
			series: seriesOf(time.Hour, 1, 2),
			end:    t0.Add(90 * time.Minute),
			res:    time.Hour,
			want:   []float64{1},
		},
		{
			name:   "empty series",
			series: seriesOf(time.Hour),
			end:    t0.Add(2 * time.Hour),
			res:    time.Hour,
			want:   []float64{nan, nan},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertValues(t, Resample(tt.series, t0, tt.end, tt.res), tt.want)
		})
	}
}

type stubSource struct {
	series *model.Series
	err    error
	calls  int
	key    model.SeriesKey
}

func (s *stubSource) Get(ctx context.Context, key model.SeriesKey, start, end time.Time) (*model.Series, error) {
	s.calls++
	s.key = key
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

func TestGetPriceActual(t *testing.T) {
	src := &stubSource{series: seriesOf(15*time.Minute, 1, 2, 3, 4)}
	svc := NewService(src, nil)

	p, err := svc.GetPriceActual(context.Background(), Query{
		ISO:        model.ISOERCOT,
		Market:     model.MarketRealTime,
		PriceType:  model.PriceTypeSPP,
		Location:   houston,
		Start:      t0,
		End:        t0.Add(time.Hour),
		Resolution: time.Hour,
	})
	if err != nil {
		t.Fatalf("GetPriceActual() error = %v", err)
	}

	wantKey := model.SeriesKey{ISO: model.ISOERCOT, Market: model.MarketRealTime, PriceType: model.PriceTypeSPP, Location: "HB_HOUSTON"}
	if src.key != wantKey {
		t.Errorf("source key = %+v, want %+v", src.key, wantKey)
	}
	assertValues(t, p.Values, []float64{2.5})
	if !p.StartTime.Equal(t0) || p.IntervalDuration != time.Hour {
		t.Errorf("grid = %v/%v, want %v/1h", p.StartTime, p.IntervalDuration, t0)
	}
	if !p.EndTime().Equal(t0.Add(time.Hour)) {
		t.Errorf("EndTime() = %v", p.EndTime())
	}
	if p.Valid() != 1 {
		t.Errorf("Valid() = %d, want 1", p.Valid())
	}
}

func TestGetPriceActualErrors(t *testing.T) {
	upstream := &model.FetchError{Key: "k", Transient: true, Err: errors.New("boom")}

	tests := []struct {
		name      string
		mutate    func(*Query)
		sourceErr error
		wantErr   error
		wantCalls int
	}{
		{
			name:    "zero resolution",
			mutate:  func(q *Query) { q.Resolution = 0 },
			wantErr: model.ErrValidation,
		},
		{
			name:    "missing location",
			mutate:  func(q *Query) { q.Location = PriceLocation{} },
			wantErr: model.ErrValidation,
		},
		{
			name:    "regulation up not served",
			mutate:  func(q *Query) { q.PriceType = model.PriceTypeRegUp },
			wantErr: model.ErrUnsupported,
		},
		{
			name:    "responsive reserves not served",
			mutate:  func(q *Query) { q.PriceType = model.PriceTypeRRS },
			wantErr: model.ErrUnsupported,
		},
		{
			name:    "unknown price type",
			mutate:  func(q *Query) { q.PriceType = "heat_rate" },
			wantErr: model.ErrValidation,
		},
		{
			name:      "source error passes through",
			mutate:    func(q *Query) {},
			sourceErr: upstream,
			wantErr:   model.ErrFetch,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &stubSource{series: seriesOf(time.Hour), err: tt.sourceErr}
			q := Query{
				ISO:        model.ISOERCOT,
				Market:     model.MarketDayAhead,
				PriceType:  model.PriceTypeSPP,
				Location:   houston,
				Start:      t0,
				End:        t0.Add(time.Hour),
				Resolution: time.Hour,
			}
			tt.mutate(&q)

			_, err := NewService(src, nil).GetPriceActual(context.Background(), q)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if src.calls != tt.wantCalls {
				t.Errorf("source calls = %d, want %d", src.calls, tt.wantCalls)
			}
		})
	}
}

func TestPriceMarshalJSON(t *testing.T) {
	p := &Price{
		PriceType:        model.PriceTypeSPP,
		Location:         houston,
		Values:           []float64{1.5, math.NaN(), math.Inf(1)},
		StartTime:        t0,
		IntervalDuration: time.Hour,
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got := string(data)
	for _, want := range []string{`"values":[1.5,null,null]`, `"interval_duration":"1h0m0s"`, `"price_type":"spp"`, `"location_type":"Trading Hub"`} {
		if !strings.Contains(got, want) {
			t.Errorf("json %s missing %s", got, want)
		}
	}
}
