package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		key     model.SeriesKey
		want    string
		column  string
		res     time.Duration
		wantErr bool
	}{
		{
			name:   "ercot spp day ahead",
			key:    model.SeriesKey{ISO: model.ISOERCOT, Market: model.MarketDayAhead, PriceType: model.PriceTypeSPP},
			want:   "ercot_spp_day_ahead_hourly",
			column: "spp",
			res:    time.Hour,
		},
		{
			name:   "ercot spp real time",
			key:    model.SeriesKey{ISO: model.ISOERCOT, Market: model.MarketRealTime, PriceType: model.PriceTypeSPP},
			want:   "ercot_spp_real_time_15_min",
			column: "spp",
			res:    15 * time.Minute,
		},
		{
			name:   "caiso lmp day ahead",
			key:    model.SeriesKey{ISO: model.ISOCAISO, Market: model.MarketDayAhead, PriceType: model.PriceTypeLMP},
			want:   "caiso_lmp_day_ahead_hourly",
			column: "lmp",
			res:    time.Hour,
		},
		{
			name:    "ancillary services unsupported",
			key:     model.SeriesKey{ISO: model.ISOERCOT, Market: model.MarketDayAhead, PriceType: model.PriceTypeRegUp},
			wantErr: true,
		},
		{
			name:    "caiso spp unsupported",
			key:     model.SeriesKey{ISO: model.ISOCAISO, Market: model.MarketRealTime, PriceType: model.PriceTypeSPP},
			wantErr: true,
		},
		{
			name:    "unknown iso",
			key:     model.SeriesKey{ISO: "pjm", Market: model.MarketRealTime, PriceType: model.PriceTypeLMP},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Resolve(tt.key)
			if tt.wantErr {
				if !errors.Is(err, model.ErrUnsupported) {
					t.Fatalf("Resolve() error = %v, want ErrUnsupported", err)
				}
				if Supported(tt.key) {
					t.Error("Supported() = true, want false")
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error: %v", err)
			}
			if ds.Name != tt.want {
				t.Errorf("Name = %q, want %q", ds.Name, tt.want)
			}
			if ds.ValueColumn != tt.column {
				t.Errorf("ValueColumn = %q, want %q", ds.ValueColumn, tt.column)
			}
			if ds.Resolution != tt.res {
				t.Errorf("Resolution = %v, want %v", ds.Resolution, tt.res)
			}
		})
	}
}
