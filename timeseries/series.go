package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrNoData        = errors.New("no samples")
	ErrLenMismatch   = errors.New("timestamps have a different length than values")
	ErrNonIncreasing = errors.New("timestamps are not strictly increasing")
)

// Series is a sampled signal: one value per timestamp.
type Series struct {
	T []time.Duration
	V []float64
}

// NewSeries returns a Series after validating and copying the inputs.
// Timestamps must be strictly increasing.
func NewSeries(t []time.Duration, v []float64) (*Series, error) {
	if len(v) == 0 {
		return nil, ErrNoData
	}
	if len(t) != len(v) {
		return nil, fmt.Errorf(
			"timestamps have length of %d, but values have a length of %d, %w",
			len(t), len(v), ErrLenMismatch,
		)
	}
	for i := 1; i < len(t); i++ {
		if t[i] <= t[i-1] {
			return nil, fmt.Errorf("at sample %d, %w", i, ErrNonIncreasing)
		}
	}

	ts := make([]time.Duration, len(t))
	vs := make([]float64, len(v))
	copy(ts, t)
	copy(vs, v)
	return &Series{T: ts, V: vs}, nil
}

// Copy returns a deep copy of the series.
func (s *Series) Copy() *Series {
	ts := make([]time.Duration, len(s.T))
	vs := make([]float64, len(s.V))
	copy(ts, s.T)
	copy(vs, s.V)
	return &Series{T: ts, V: vs}
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.T)
}

// Support returns the epoch set spanning the first through last sample.
func (s *Series) Support() EpochSet {
	if len(s.T) == 0 {
		return nil
	}
	return EpochSet{{Start: s.T[0], End: s.T[len(s.T)-1]}}
}

// Rate returns the sampling rate in samples per second over the support.
// A series with fewer than two samples has no measurable rate and returns 0.
func (s *Series) Rate() float64 {
	if len(s.T) < 2 {
		return 0
	}
	span := (s.T[len(s.T)-1] - s.T[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(s.T)) / span
}

// Restrict returns the samples falling within ep. A nil ep returns a copy of
// the series. Epochs are expected to be ordered and non-overlapping.
func (s *Series) Restrict(ep EpochSet) *Series {
	if ep == nil {
		return s.Copy()
	}

	res := &Series{}
	for _, e := range ep {
		i := sort.Search(len(s.T), func(i int) bool { return s.T[i] >= e.Start })
		for ; i < len(s.T) && s.T[i] <= e.End; i++ {
			res.T = append(res.T, s.T[i])
			res.V = append(res.V, s.V[i])
		}
	}
	return res
}

// ValuesAt returns the value of the nearest sample for every query time.
// Ties between neighboring samples resolve to the earlier one.
func (s *Series) ValuesAt(ts []time.Duration) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = s.V[s.nearest(t)]
	}
	return out
}

func (s *Series) nearest(t time.Duration) int {
	i := sort.Search(len(s.T), func(i int) bool { return s.T[i] >= t })
	if i == 0 {
		return 0
	}
	if i == len(s.T) {
		return len(s.T) - 1
	}
	if t-s.T[i-1] <= s.T[i]-t {
		return i - 1
	}
	return i
}

// BinMean resamples the series onto the bin grid of ep, averaging the
// samples within each bin. Samples landing on an epoch's end boundary clamp
// into its final bin. Bins containing no samples resolve to 0. A nil ep uses
// the series support.
func (s *Series) BinMean(bin time.Duration, ep EpochSet) (*Series, error) {
	if len(s.T) == 0 {
		return nil, ErrNoData
	}
	if ep == nil {
		ep = s.Support()
	}
	centers, err := ep.BinCenters(bin)
	if err != nil {
		return nil, err
	}

	sums := make([]float64, len(centers))
	counts := make([]int, len(centers))
	offset := 0
	for _, e := range ep {
		nb := e.binCount(bin)
		i := sort.Search(len(s.T), func(i int) bool { return s.T[i] >= e.Start })
		for ; i < len(s.T) && s.T[i] <= e.End; i++ {
			k := int((s.T[i] - e.Start) / bin)
			if k >= nb {
				k = nb - 1
			}
			sums[offset+k] += s.V[i]
			counts[offset+k]++
		}
		offset += nb
	}

	vals := make([]float64, len(centers))
	for i, n := range counts {
		if n > 0 {
			vals[i] = sums[i] / float64(n)
		}
	}
	return &Series{T: centers, V: vals}, nil
}
