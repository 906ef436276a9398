package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

// Column names of the persisted contract, in write order.
const (
	ColIntervalStart = "interval_start_utc"
	ColIntervalEnd   = "interval_end_utc"
	ColLocation      = "location"
	ColLocationType  = "location_type"
	ColMarket        = "market"
	ColPrice         = "price"
)

// Columns is the header written to every encoded series.
var Columns = []string{ColIntervalStart, ColIntervalEnd, ColLocation, ColLocationType, ColMarket, ColPrice}

// colValue is accepted on read as an alias of ColPrice.
const colValue = "value"

// Accepted timestamp layouts on read. All carry an explicit offset.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// EncodeCSV writes the present samples of s in the column contract.
func EncodeCSV(w io.Writer, s *model.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(Columns))
	for _, smp := range s.Samples {
		if !smp.Present() {
			continue
		}
		if math.IsInf(*smp.Value, 0) {
			return fmt.Errorf("%s at %s is not finite", ColPrice, formatTime(smp.IntervalStart))
		}
		rec[0] = formatTime(smp.IntervalStart)
		rec[1] = formatTime(smp.IntervalEnd)
		rec[2] = smp.Location
		rec[3] = smp.LocationType
		rec[4] = smp.Market
		rec[5] = strconv.FormatFloat(*smp.Value, 'f', -1, 64)
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// MarshalCSV returns the encoded form of s.
func MarshalCSV(s *model.Series) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCSV reads a series for key. Rows without a value (empty or NaN) are dropped;
// anything else that does not fit the column contract, infinite prices included, is an
// error.
func DecodeCSV(r io.Reader, key model.SeriesKey) (*model.Series, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	s := model.NewSeries(key)
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		smp, ok, err := decodeRow(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ok {
			s.Samples = append(s.Samples, smp)
		}
	}

	s.Normalize()
	return s, nil
}

// UnmarshalCSV decodes data for key.
func UnmarshalCSV(data []byte, key model.SeriesKey) (*model.Series, error) {
	return DecodeCSV(bytes.NewReader(data), key)
}

type columns struct {
	start, end, location, locationType, market, value int
}

func columnIndex(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := pos[ColPrice]; !ok {
		if i, ok := pos[colValue]; ok {
			pos[ColPrice] = i
		}
	}

	var missing []string
	get := func(name string) int {
		i, ok := pos[name]
		if !ok {
			missing = append(missing, name)
		}
		return i
	}
	c := columns{
		start:        get(ColIntervalStart),
		end:          get(ColIntervalEnd),
		location:     get(ColLocation),
		locationType: get(ColLocationType),
		market:       get(ColMarket),
		value:        get(ColPrice),
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return c, nil
}

func decodeRow(rec []string, c columns) (model.Sample, bool, error) {
	raw := strings.TrimSpace(rec[c.value])
	if raw == "" {
		return model.Sample{}, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return model.Sample{}, false, fmt.Errorf("parse %s %q: %w", ColPrice, raw, err)
	}
	if math.IsNaN(v) {
		return model.Sample{}, false, nil
	}
	if math.IsInf(v, 0) {
		return model.Sample{}, false, fmt.Errorf("%s %q is not finite", ColPrice, raw)
	}

	start, err := parseTime(rec[c.start])
	if err != nil {
		return model.Sample{}, false, fmt.Errorf("parse %s: %w", ColIntervalStart, err)
	}
	end, err := parseTime(rec[c.end])
	if err != nil {
		return model.Sample{}, false, fmt.Errorf("parse %s: %w", ColIntervalEnd, err)
	}
	if !start.Before(end) {
		return model.Sample{}, false, fmt.Errorf("interval end %s not after start %s", rec[c.end], rec[c.start])
	}

	return model.Sample{
		IntervalStart: start,
		IntervalEnd:   end,
		Value:         model.Value(v),
		Location:      rec[c.location],
		LocationType:  rec[c.locationType],
		Market:        rec[c.market],
	}, true, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime accepts only offset-qualified timestamps; naive ones are rejected.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q is not UTC-qualified", s)
}
