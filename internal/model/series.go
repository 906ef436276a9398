package model

import (
	"slices"
	"sort"
	"time"
)

// Series is the ordered collection of samples owned for one key.
//
// Invariant: Samples sorted strictly ascending by IntervalStart, no two samples share
// an IntervalStart.
type Series struct {
	Key     SeriesKey
	Samples []Sample
}

// NewSeries returns an empty series for key.
func NewSeries(key SeriesKey) *Series {
	return &Series{Key: key}
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.Samples)
}

// PresentCount returns the number of samples with a value.
func (s *Series) PresentCount() int {
	n := 0
	for _, smp := range s.Samples {
		if smp.Present() {
			n++
		}
	}
	return n
}

// Resolution returns the width of the first present sample, or def when the series
// holds no present sample.
func (s *Series) Resolution(def time.Duration) time.Duration {
	r, ok := s.InferResolution()
	if !ok {
		return def
	}
	return r
}

// InferResolution returns the width of the first present sample.
func (s *Series) InferResolution() (time.Duration, bool) {
	for _, smp := range s.Samples {
		if smp.Present() {
			return smp.Width(), true
		}
	}
	return 0, false
}

// Merge folds fetched into the series by slot start. A fetched sample replaces any
// existing sample with the same IntervalStart. Absent fetched samples are ignored.
// Returns the number of existing slots that were overwritten.
func (s *Series) Merge(fetched []Sample) int {
	incoming := make([]Sample, 0, len(fetched))
	for _, smp := range fetched {
		if !smp.Present() {
			continue
		}
		smp.IntervalStart = smp.IntervalStart.UTC()
		smp.IntervalEnd = smp.IntervalEnd.UTC()
		incoming = append(incoming, smp)
	}
	if len(incoming) == 0 {
		return 0
	}

	// Existing first, incoming second: a stable sort keeps that order within equal
	// starts, so keeping the last of each run is last-write-wins.
	all := make([]Sample, 0, len(s.Samples)+len(incoming))
	all = append(all, s.Samples...)
	all = append(all, incoming...)
	slices.SortStableFunc(all, func(a, b Sample) int {
		return a.IntervalStart.Compare(b.IntervalStart)
	})

	existing := make(map[int64]struct{}, len(s.Samples))
	for _, smp := range s.Samples {
		existing[smp.IntervalStart.UnixNano()] = struct{}{}
	}

	out := all[:0]
	overwritten := 0
	for i := 0; i < len(all); i++ {
		if i+1 < len(all) && all[i+1].IntervalStart.Equal(all[i].IntervalStart) {
			continue
		}
		out = append(out, all[i])
	}
	seen := make(map[int64]struct{}, len(incoming))
	for _, smp := range incoming {
		k := smp.IntervalStart.UnixNano()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := existing[k]; ok {
			overwritten++
		}
	}

	s.Samples = out
	return overwritten
}

// Index returns the position of the sample starting at t.
func (s *Series) Index(t time.Time) (int, bool) {
	return slices.BinarySearchFunc(s.Samples, t, func(smp Sample, target time.Time) int {
		return smp.IntervalStart.Compare(target)
	})
}

// Has reports whether the series holds a present sample starting at t.
func (s *Series) Has(t time.Time) bool {
	i, ok := s.Index(t)
	return ok && s.Samples[i].Present()
}

// Slice returns a copy of the samples with IntervalStart >= start and
// IntervalEnd <= end.
func (s *Series) Slice(start, end time.Time) *Series {
	out := &Series{Key: s.Key}
	lo := sort.Search(len(s.Samples), func(i int) bool {
		return !s.Samples[i].IntervalStart.Before(start)
	})
	for i := lo; i < len(s.Samples); i++ {
		smp := s.Samples[i]
		if !smp.IntervalStart.Before(end) {
			break
		}
		if smp.IntervalEnd.After(end) {
			continue
		}
		out.Samples = append(out.Samples, smp)
	}
	return out
}

// Clone returns a deep copy of the series.
func (s *Series) Clone() *Series {
	out := &Series{Key: s.Key, Samples: make([]Sample, len(s.Samples))}
	for i, smp := range s.Samples {
		if smp.Value != nil {
			smp.Value = Value(*smp.Value)
		}
		out.Samples[i] = smp
	}
	return out
}

// Normalize restores the ordering invariant on samples built outside Merge, keeping
// the last sample for duplicated starts.
func (s *Series) Normalize() {
	for i := range s.Samples {
		s.Samples[i].IntervalStart = s.Samples[i].IntervalStart.UTC()
		s.Samples[i].IntervalEnd = s.Samples[i].IntervalEnd.UTC()
	}
	slices.SortStableFunc(s.Samples, func(a, b Sample) int {
		return a.IntervalStart.Compare(b.IntervalStart)
	})
	out := s.Samples[:0]
	for i := 0; i < len(s.Samples); i++ {
		if i+1 < len(s.Samples) && s.Samples[i+1].IntervalStart.Equal(s.Samples[i].IntervalStart) {
			continue
		}
		out = append(out, s.Samples[i])
	}
	s.Samples = out
}
