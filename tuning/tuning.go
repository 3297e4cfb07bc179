// Package tuning computes occupancy-normalized tuning curves and Skaggs
// mutual information for grouped spike trains and continuous signals.
package tuning

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/nvandam/ratemap/timeseries"
)

var (
	ErrNoBins       = errors.New("number of bins must be positive")
	ErrNoUnits      = errors.New("group has no units")
	ErrNoFeature    = errors.New("no feature samples")
	ErrNoSignal     = errors.New("no signal samples")
	ErrNoEpochs     = errors.New("no labeled epochs")
	ErrNot2D        = errors.New("features must have exactly two columns")
	ErrInvalidRange = errors.New("range max does not exceed min")
	ErrNoCurves     = errors.New("no tuning curves")
	ErrCurveShape   = errors.New("curve bins do not match occupancy bins")
)

// Range fixes the value boundaries of a binned feature axis.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CurveOptions configures the binning of the 1d curve computations.
type CurveOptions struct {
	// Epochs restricts the samples entering the computation. Nil uses the
	// feature's support.
	Epochs timeseries.EpochSet

	// Range fixes the feature axis boundaries. Nil infers them from the
	// feature values.
	Range *Range
}

// Curve2DOptions configures the binning of the 2d curve computations.
type Curve2DOptions struct {
	// Epochs restricts the samples entering the computation. Nil uses the
	// features' support.
	Epochs timeseries.EpochSet

	// XRange and YRange fix the axis boundaries of the first and second
	// feature column. Nil infers them from the feature values.
	XRange *Range
	YRange *Range
}

func resolveRange(r *Range, vals []float64) (float64, float64, error) {
	if r == nil {
		return floats.Min(vals), floats.Max(vals), nil
	}
	if r.Max <= r.Min {
		return 0, 0, fmt.Errorf("min %f with max %f, %w", r.Min, r.Max, ErrInvalidRange)
	}
	return r.Min, r.Max, nil
}

// binEdges lays nbins+1 evenly spaced boundaries over [lo, hi].
func binEdges(lo, hi float64, nbins int) []float64 {
	return floats.Span(make([]float64, nbins+1), lo, hi)
}

func binCenters(edges []float64) []float64 {
	c := make([]float64, len(edges)-1)
	for i := range c {
		c[i] = edges[i] + (edges[i+1]-edges[i])/2
	}
	return c
}

// histIndex returns the bin index of v over the given edges. Bins are
// half-open except the last, which includes its upper boundary. Values
// outside the edges, NaN included, return -1.
func histIndex(edges []float64, v float64) int {
	n := len(edges) - 1
	if math.IsNaN(v) || v < edges[0] || v > edges[n] {
		return -1
	}
	if v == edges[n] {
		return n - 1
	}
	i := sort.SearchFloat64s(edges, v)
	if edges[i] == v {
		return i
	}
	return i - 1
}

func histogram(vals, edges []float64) []float64 {
	h := make([]float64, len(edges)-1)
	for _, v := range vals {
		if k := histIndex(edges, v); k >= 0 {
			h[k]++
		}
	}
	return h
}
