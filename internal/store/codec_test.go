package store

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

var testKey = model.SeriesKey{
	ISO:       model.ISOERCOT,
	Market:    model.MarketDayAhead,
	PriceType: model.PriceTypeSPP,
	Location:  "HB_HOUSTON",
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func hourSample(h int, v float64) model.Sample {
	start := t0.Add(time.Duration(h) * time.Hour)
	return model.Sample{
		IntervalStart: start,
		IntervalEnd:   start.Add(time.Hour),
		Value:         model.Value(v),
		Location:      "HB_HOUSTON",
		LocationType:  string(model.LocationHub),
		Market:        "DAM",
	}
}

func hourSeries(hours ...int) *model.Series {
	s := model.NewSeries(testKey)
	for _, h := range hours {
		s.Samples = append(s.Samples, hourSample(h, float64(h)+0.5))
	}
	return s
}

func TestMarshalCSV(t *testing.T) {
	s := hourSeries(0, 1)
	s.Samples = append(s.Samples, model.Sample{
		IntervalStart: t0.Add(2 * time.Hour),
		IntervalEnd:   t0.Add(3 * time.Hour),
	})

	data, err := MarshalCSV(s)
	if err != nil {
		t.Fatalf("MarshalCSV() error = %v", err)
	}

	want := "interval_start_utc,interval_end_utc,location,location_type,market,price\n" +
		"2024-01-01T00:00:00Z,2024-01-01T01:00:00Z,HB_HOUSTON,Trading Hub,DAM,0.5\n" +
		"2024-01-01T01:00:00Z,2024-01-01T02:00:00Z,HB_HOUSTON,Trading Hub,DAM,1.5\n"
	if string(data) != want {
		t.Errorf("MarshalCSV() =\n%s\nwant\n%s", data, want)
	}
}

func TestUnmarshalCSV_RoundTrip(t *testing.T) {
	in := hourSeries(3, 1, 2)
	in.Normalize()

	data, err := MarshalCSV(in)
	if err != nil {
		t.Fatalf("MarshalCSV() error = %v", err)
	}
	out, err := UnmarshalCSV(data, testKey)
	if err != nil {
		t.Fatalf("UnmarshalCSV() error = %v", err)
	}

	if out.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", out.Len())
	}
	for i, smp := range out.Samples {
		want := in.Samples[i]
		if !smp.IntervalStart.Equal(want.IntervalStart) || !smp.IntervalEnd.Equal(want.IntervalEnd) {
			t.Errorf("sample %d interval = [%v, %v), want [%v, %v)", i, smp.IntervalStart, smp.IntervalEnd, want.IntervalStart, want.IntervalEnd)
		}
		if *smp.Value != *want.Value {
			t.Errorf("sample %d value = %v, want %v", i, *smp.Value, *want.Value)
		}
		if smp.Location != want.Location || smp.LocationType != want.LocationType || smp.Market != want.Market {
			t.Errorf("sample %d attributes = %+v, want %+v", i, smp, want)
		}
	}
}

func TestUnmarshalCSV_Legacy(t *testing.T) {
	data := "location,interval_start_utc,interval_end_utc,location_type,market,price\n" +
		"HB_HOUSTON,2024-01-01 01:00:00+00:00,2024-01-01 02:00:00+00:00,Trading Hub,DAM,20.25\n" +
		"HB_HOUSTON,2024-01-01 00:00:00+00:00,2024-01-01 01:00:00+00:00,Trading Hub,DAM,\n" +
		"HB_HOUSTON,2024-01-01 02:00:00-06:00,2024-01-01 03:00:00-06:00,Trading Hub,DAM,NaN\n"

	s, err := UnmarshalCSV([]byte(data), testKey)
	if err != nil {
		t.Fatalf("UnmarshalCSV() error = %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (empty and NaN rows dropped)", s.Len())
	}
	if !s.Samples[0].IntervalStart.Equal(t0.Add(time.Hour)) {
		t.Errorf("IntervalStart = %v, want %v", s.Samples[0].IntervalStart, t0.Add(time.Hour))
	}
	if s.Samples[0].IntervalStart.Location() != time.UTC {
		t.Errorf("IntervalStart location = %v, want UTC", s.Samples[0].IntervalStart.Location())
	}
	if *s.Samples[0].Value != 20.25 {
		t.Errorf("Value = %v, want 20.25", *s.Samples[0].Value)
	}
}

func TestUnmarshalCSV_ValueAlias(t *testing.T) {
	data := "interval_start_utc,interval_end_utc,location,location_type,market,value\n" +
		"2024-01-01T00:00:00Z,2024-01-01T01:00:00Z,HB_HOUSTON,Trading Hub,DAM,7\n"

	s, err := UnmarshalCSV([]byte(data), testKey)
	if err != nil {
		t.Fatalf("UnmarshalCSV() error = %v", err)
	}
	if s.Len() != 1 || *s.Samples[0].Value != 7 {
		t.Errorf("UnmarshalCSV() = %+v, want one sample with value 7", s.Samples)
	}
}

func TestUnmarshalCSV_HeaderOnly(t *testing.T) {
	s, err := UnmarshalCSV([]byte(strings.Join(Columns, ",")+"\n"), testKey)
	if err != nil {
		t.Fatalf("UnmarshalCSV() error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
	if s.Key != testKey {
		t.Errorf("Key = %+v, want %+v", s.Key, testKey)
	}
}

func TestUnmarshalCSV_Errors(t *testing.T) {
	header := strings.Join(Columns, ",") + "\n"

	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "empty",
			data:    "",
			wantErr: "missing header",
		},
		{
			name:    "missing column",
			data:    "interval_start_utc,interval_end_utc,location,price\n",
			wantErr: "missing columns: location_type, market",
		},
		{
			name:    "naive timestamp",
			data:    header + "2024-01-01 00:00:00,2024-01-01 01:00:00,HB_HOUSTON,Trading Hub,DAM,1\n",
			wantErr: "not UTC-qualified",
		},
		{
			name:    "bad number",
			data:    header + "2024-01-01T00:00:00Z,2024-01-01T01:00:00Z,HB_HOUSTON,Trading Hub,DAM,abc\n",
			wantErr: `parse price "abc"`,
		},
		{
			name:    "infinite price",
			data:    header + "2024-01-01T00:00:00Z,2024-01-01T01:00:00Z,HB_HOUSTON,Trading Hub,DAM,+Inf\n",
			wantErr: `price "+Inf" is not finite`,
		},
		{
			name:    "inverted interval",
			data:    header + "2024-01-01T01:00:00Z,2024-01-01T00:00:00Z,HB_HOUSTON,Trading Hub,DAM,1\n",
			wantErr: "not after start",
		},
		{
			name:    "short row",
			data:    header + "2024-01-01T00:00:00Z,2024-01-01T01:00:00Z,HB_HOUSTON\n",
			wantErr: "line 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalCSV([]byte(tt.data), testKey)
			if err == nil {
				t.Fatalf("UnmarshalCSV() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("UnmarshalCSV() error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestMarshalCSV_RejectsInfinite(t *testing.T) {
	s := hourSeries(0)
	s.Samples[0].Value = model.Value(math.Inf(1))

	_, err := MarshalCSV(s)
	if err == nil || !strings.Contains(err.Error(), "not finite") {
		t.Errorf("MarshalCSV() error = %v, want not finite", err)
	}
}

func TestStorageErrorKind(t *testing.T) {
	err := loadError(testKey, errors.New("boom"))
	if !errors.Is(err, model.ErrStorage) {
		t.Errorf("errors.Is(%v, ErrStorage) = false", err)
	}
	var se *model.StorageError
	if !errors.As(err, &se) || se.Op != "load" || se.Key != testKey.String() {
		t.Errorf("errors.As() = %+v", se)
	}
}
