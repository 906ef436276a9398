package model

import (
	"fmt"
	"strings"
	"time"
)

// -----------------------------------------------------------------------------
// Enumerations
// -----------------------------------------------------------------------------

// ISO identifies the upstream system (independent system operator).
type ISO string

const (
	ISOERCOT ISO = "ercot"
	ISOCAISO ISO = "caiso"
)

// Market identifies the market type of a series.
type Market string

const (
	MarketDayAhead Market = "day_ahead"
	MarketRealTime Market = "real_time"
)

// PriceType identifies the value type of a series.
type PriceType string

const (
	PriceTypeLMP     PriceType = "lmp"
	PriceTypeSPP     PriceType = "spp"
	PriceTypeRegUp   PriceType = "regulation_up"
	PriceTypeRegDown PriceType = "regulation_down"
	PriceTypeRRS     PriceType = "responsive_reserves"
)

// LocationType describes what kind of location a price refers to.
type LocationType string

const (
	LocationHub  LocationType = "Trading Hub"
	LocationNode LocationType = "Resource Node"
	LocationZone LocationType = "Load Zone"
)

// Name returns the short upper-case code used in storage names.
func (i ISO) Name() string {
	switch i {
	case ISOERCOT:
		return "ERCOT"
	case ISOCAISO:
		return "CAISO"
	}
	return strings.ToUpper(string(i))
}

// Valid reports whether i is a known ISO.
func (i ISO) Valid() bool {
	return i == ISOERCOT || i == ISOCAISO
}

// Name returns the short upper-case code used in storage names.
func (m Market) Name() string {
	switch m {
	case MarketDayAhead:
		return "DAM"
	case MarketRealTime:
		return "RTM"
	}
	return strings.ToUpper(string(m))
}

// Valid reports whether m is a known market.
func (m Market) Valid() bool {
	return m == MarketDayAhead || m == MarketRealTime
}

// Name returns the short upper-case code used in storage names.
func (p PriceType) Name() string {
	switch p {
	case PriceTypeLMP:
		return "LMP"
	case PriceTypeSPP:
		return "SPP"
	case PriceTypeRegUp:
		return "REGUP"
	case PriceTypeRegDown:
		return "REGDOWN"
	case PriceTypeRRS:
		return "RRS"
	}
	return strings.ToUpper(string(p))
}

// Valid reports whether p is a known price type.
func (p PriceType) Valid() bool {
	switch p {
	case PriceTypeLMP, PriceTypeSPP, PriceTypeRegUp, PriceTypeRegDown, PriceTypeRRS:
		return true
	}
	return false
}

// ParseISO accepts either the wire value ("ercot") or the code ("ERCOT").
func ParseISO(s string) (ISO, error) {
	for _, v := range []ISO{ISOERCOT, ISOCAISO} {
		if strings.EqualFold(s, string(v)) || strings.EqualFold(s, v.Name()) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown iso %q", s)
}

// ParseMarket accepts either the wire value ("day_ahead") or the code ("DAM").
func ParseMarket(s string) (Market, error) {
	for _, v := range []Market{MarketDayAhead, MarketRealTime} {
		if strings.EqualFold(s, string(v)) || strings.EqualFold(s, v.Name()) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown market %q", s)
}

// ParsePriceType accepts either the wire value ("spp") or the code ("SPP").
func ParsePriceType(s string) (PriceType, error) {
	for _, v := range []PriceType{PriceTypeLMP, PriceTypeSPP, PriceTypeRegUp, PriceTypeRegDown, PriceTypeRRS} {
		if strings.EqualFold(s, string(v)) || strings.EqualFold(s, v.Name()) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown price type %q", s)
}

// -----------------------------------------------------------------------------
// Keys
// -----------------------------------------------------------------------------

// SeriesKey identifies one cached series. Two keys are equal iff all fields are equal.
type SeriesKey struct {
	ISO       ISO
	Market    Market
	PriceType PriceType
	Location  string
}

// String returns the storage name of the key, e.g. "ERCOT_DAM_SPP_HB_HOUSTON".
func (k SeriesKey) String() string {
	return k.ISO.Name() + "_" + k.Market.Name() + "_" + k.PriceType.Name() + "_" + sanitizeLocation(k.Location)
}

// FileName returns the CSV file name used by the file store.
func (k SeriesKey) FileName() string {
	return k.String() + ".csv"
}

// sanitizeLocation keeps location names usable as a single path element.
func sanitizeLocation(loc string) string {
	var b strings.Builder
	b.Grow(len(loc))
	for _, r := range loc {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// -----------------------------------------------------------------------------
// Samples
// -----------------------------------------------------------------------------

// Sample is one fixed-width observation covering [IntervalStart, IntervalEnd).
type Sample struct {
	IntervalStart time.Time // inclusive, UTC
	IntervalEnd   time.Time // exclusive, UTC
	Value         *float64  // nil when absent
	Location      string
	LocationType  string
	Market        string
}

// Present reports whether the sample carries a value.
func (s Sample) Present() bool {
	return s.Value != nil
}

// Width returns the slot width of the sample.
func (s Sample) Width() time.Duration {
	return s.IntervalEnd.Sub(s.IntervalStart)
}

// Value returns a pointer to v, for building present samples.
func Value(v float64) *float64 {
	return &v
}

// MissingRange is a half-open [Start, End) run of slots absent from a series.
type MissingRange struct {
	Start time.Time
	End   time.Time
}

// Duration returns the width of the range.
func (r MissingRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

func (r MissingRange) String() string {
	return r.Start.Format(time.RFC3339) + "/" + r.End.Format(time.RFC3339)
}
