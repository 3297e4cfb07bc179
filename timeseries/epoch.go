// Package timeseries provides the time containers used throughout ratemap:
// sampled signals, spike trains, grouped units, and the epoch sets that
// restrict them. All timestamps are offsets from the start of a recording
// session.
package timeseries

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidEpoch       = errors.New("epoch end precedes start")
	ErrNonPositiveBinSize = errors.New("bin size must be positive")
)

// Epoch is a closed time interval relative to session start.
type Epoch struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// NewEpoch returns an Epoch spanning [start, end].
func NewEpoch(start, end time.Duration) (Epoch, error) {
	if end < start {
		return Epoch{}, fmt.Errorf("start %s, end %s, %w", start, end, ErrInvalidEpoch)
	}
	return Epoch{Start: start, End: end}, nil
}

// Duration returns the length of the epoch.
func (e Epoch) Duration() time.Duration {
	return e.End - e.Start
}

// Contains reports whether t falls within the epoch, boundaries included.
func (e Epoch) Contains(t time.Duration) bool {
	return t >= e.Start && t <= e.End
}

// binCount is the number of left-aligned bins of width bin covering the
// epoch. The last bin may be partial. A zero-length epoch still spans one
// bin.
func (e Epoch) binCount(bin time.Duration) int {
	d := e.Duration()
	nb := int(d / bin)
	if d%bin != 0 || nb == 0 {
		nb++
	}
	return nb
}

// EpochSet is an ordered, non-overlapping set of epochs.
type EpochSet []Epoch

// Duration returns the summed length of all epochs.
func (es EpochSet) Duration() time.Duration {
	var total time.Duration
	for _, e := range es {
		total += e.Duration()
	}
	return total
}

// Contains reports whether t falls within any epoch.
func (es EpochSet) Contains(t time.Duration) bool {
	for _, e := range es {
		if e.Contains(t) {
			return true
		}
	}
	return false
}

// Span returns the epoch covering the full extent of the set.
func (es EpochSet) Span() Epoch {
	if len(es) == 0 {
		return Epoch{}
	}
	return Epoch{Start: es[0].Start, End: es[len(es)-1].End}
}

// BinCenters returns the centers of consecutive bins of width bin laid over
// each epoch in order. Counting, resampling, and design rows all derive
// their grid from this method so their rows stay aligned.
func (es EpochSet) BinCenters(bin time.Duration) ([]time.Duration, error) {
	if bin <= 0 {
		return nil, fmt.Errorf("bin size %s, %w", bin, ErrNonPositiveBinSize)
	}

	n := 0
	for _, e := range es {
		n += e.binCount(bin)
	}

	centers := make([]time.Duration, 0, n)
	for _, e := range es {
		nb := e.binCount(bin)
		for k := range nb {
			centers = append(centers, e.Start+time.Duration(k)*bin+bin/2)
		}
	}
	return centers, nil
}
