package prices

import (
	"math"
	"sort"
	"time"

	"github.com/rickgao/pricecache/internal/gap"
	"github.com/rickgao/pricecache/internal/model"
)

// Resample maps the present samples of s onto the grid of width res starting at start.
// A partial trailing slot before end is dropped.
func Resample(s *model.Series, start, end time.Time, res time.Duration) []float64 {
	out := make([]float64, len(gap.Slots(start, end, res)))
	for i := range out {
		out[i] = math.NaN()
	}
	if s == nil || len(out) == 0 {
		return out
	}

	native, ok := s.InferResolution()
	if !ok {
		return out
	}
	if res >= native {
		downsample(out, s, start, res)
	} else {
		upsample(out, s, start, res)
	}
	return out
}

// downsample averages the samples starting in each slot. Equal widths reduce to a copy.
func downsample(out []float64, s *model.Series, start time.Time, res time.Duration) {
	sums := make([]float64, len(out))
	counts := make([]int, len(out))
	for _, smp := range s.Samples {
		if !smp.Present() || smp.IntervalStart.Before(start) {
			continue
		}
		i := int(smp.IntervalStart.Sub(start) / res)
		if i >= len(out) {
			break
		}
		sums[i] += *smp.Value
		counts[i]++
	}
	for i := range out {
		if counts[i] > 0 {
			out[i] = sums[i] / float64(counts[i])
		}
	}
}

// upsample reads each slot start from the sample covering it, interpolating linearly
// towards the next sample when the two are adjacent. The last sample of a run is held.
func upsample(out []float64, s *model.Series, start time.Time, res time.Duration) {
	for i := range out {
		t := start.Add(time.Duration(i) * res)
		j := sort.Search(len(s.Samples), func(k int) bool {
			return s.Samples[k].IntervalStart.After(t)
		}) - 1
		if j < 0 {
			continue
		}
		cur := s.Samples[j]
		if !cur.Present() || !t.Before(cur.IntervalEnd) {
			continue
		}

		v := *cur.Value
		if j+1 < len(s.Samples) {
			next := s.Samples[j+1]
			if next.Present() && next.IntervalStart.Equal(cur.IntervalEnd) {
				frac := float64(t.Sub(cur.IntervalStart)) / float64(cur.Width())
				v += (*next.Value - v) * frac
			}
		}
		out[i] = v
	}
}
