package gap

import (
	"time"

	"github.com/rickgao/pricecache/internal/model"
)

// ComputeMissing returns the ascending, non-overlapping ranges of [start, end) not
// covered by a present sample of s, merged into maximal runs.
func ComputeMissing(s *model.Series, start, end time.Time) []model.MissingRange {
	if !start.Before(end) {
		return nil
	}

	res, ok := s.InferResolution()
	if !ok {
		return []model.MissingRange{{Start: start, End: end}}
	}

	var (
		ranges []model.MissingRange
		run    *model.MissingRange
	)
	for _, slot := range Slots(start, end, res) {
		if s.Has(slot) {
			run = nil
			continue
		}
		if run != nil && run.End.Equal(slot) {
			run.End = slot.Add(res)
			continue
		}
		ranges = append(ranges, model.MissingRange{Start: slot, End: slot.Add(res)})
		run = &ranges[len(ranges)-1]
	}
	return ranges
}

// Slots returns the slot starts start, start+res, ... whose full slot fits before end.
func Slots(start, end time.Time, res time.Duration) []time.Time {
	if res <= 0 || !start.Before(end) {
		return nil
	}
	n := int(end.Sub(start) / res)
	slots := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, start.Add(time.Duration(i)*res))
	}
	return slots
}

// epoch anchors the slot grid of a series with no present sample.
var epoch = time.Unix(0, 0).UTC()

// AlignWindow widens [start, end) outward to whole slots of the series grid. The grid
// has the width of the first present sample and passes through its start. A series
// without present samples uses def slots aligned to the Unix epoch.
func AlignWindow(s *model.Series, start, end time.Time, def time.Duration) (time.Time, time.Time) {
	res, anchor := def, epoch
	for _, smp := range s.Samples {
		if smp.Present() {
			res, anchor = smp.Width(), smp.IntervalStart
			break
		}
	}
	if res <= 0 || !start.Before(end) {
		return start, end
	}

	alignedEnd := floor(end, anchor, res)
	if alignedEnd.Before(end) {
		alignedEnd = alignedEnd.Add(res)
	}
	return floor(start, anchor, res), alignedEnd
}

// floor returns the latest grid point at or before t.
func floor(t, anchor time.Time, res time.Duration) time.Time {
	off := t.Sub(anchor) % res
	if off < 0 {
		off += res
	}
	return t.Add(-off)
}
