package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/rickgao/pricecache/internal/dataset"
	"github.com/rickgao/pricecache/internal/model"
)

// Column names shared by the price datasets.
const (
	ColIntervalStart = "interval_start_utc"
	ColIntervalEnd   = "interval_end_utc"
	ColLocation      = "location"
	ColLocationType  = "location_type"
	ColMarket        = "market"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05Z07:00",
}

// ParseTimestamp parses an offset-qualified timestamp and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// RowToSample converts a dataset row into a sample for key. A null value yields an
// absent sample. Rows without an end column are assumed to span the dataset's
// native resolution.
func RowToSample(row Row, ds dataset.Dataset, key model.SeriesKey) (model.Sample, error) {
	var smp model.Sample

	startText, err := row.Text(ColIntervalStart)
	if err != nil {
		return smp, err
	}
	if startText == "" {
		return smp, fmt.Errorf("missing %s", ColIntervalStart)
	}
	if smp.IntervalStart, err = ParseTimestamp(startText); err != nil {
		return smp, fmt.Errorf("%s: %w", ColIntervalStart, err)
	}

	endText, err := row.Text(ColIntervalEnd)
	if err != nil {
		return smp, err
	}
	if endText == "" {
		smp.IntervalEnd = smp.IntervalStart.Add(ds.Resolution)
	} else if smp.IntervalEnd, err = ParseTimestamp(endText); err != nil {
		return smp, fmt.Errorf("%s: %w", ColIntervalEnd, err)
	}
	if !smp.IntervalEnd.After(smp.IntervalStart) {
		return smp, fmt.Errorf("interval end %s not after start %s", endText, startText)
	}

	if smp.Value, err = row.Float(ds.ValueColumn); err != nil {
		return smp, err
	}

	if smp.Location, err = row.Text(ColLocation); err != nil {
		return smp, err
	}
	if smp.Location == "" {
		smp.Location = key.Location
	}
	if smp.LocationType, err = row.Text(ColLocationType); err != nil {
		return smp, err
	}
	if smp.Market, err = row.Text(ColMarket); err != nil {
		return smp, err
	}
	if smp.Market == "" {
		smp.Market = key.Market.Name()
	}

	return smp, nil
}
