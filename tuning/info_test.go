package tuning

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvandam/ratemap/timeseries"
)

func twoBinCurves(rates []float64) *Curves {
	return &Curves{
		Edges:   []float64{0.0, 0.5, 1.0},
		Centers: []float64{0.25, 0.75},
		Keys:    []int{1},
		Rates:   map[int][]float64{1: rates},
	}
}

func TestMutualInfo1D(t *testing.T) {
	// equal occupancy of both bins
	feature := alternatingFeature(10)
	restricted := &InfoOptions{
		Epochs: timeseries.EpochSet{{Start: 0, End: 4 * time.Second}},
	}

	testData := map[string]struct {
		rates    []float64
		opt      *InfoOptions
		expected float64
	}{
		// all spikes in one of two equally occupied bins carry exactly one
		// bit each
		"selective":        {[]float64{0.0, 4.0}, nil, 1.0},
		"selective rate":   {[]float64{0.0, 4.0}, &InfoOptions{BitsPerSecond: true}, 2.0},
		"uniform firing":   {[]float64{3.0, 3.0}, nil, 0.0},
		"skewed occupancy": {[]float64{0.0, 4.0}, restricted, math.Log2(2.5)},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			info, err := MutualInfo1D(twoBinCurves(td.rates), feature, td.opt)
			require.Nil(t, err)
			assert.InDelta(t, td.expected, info[1], 1e-12)
		})
	}
}

func TestMutualInfo1DSilentUnit(t *testing.T) {
	feature := alternatingFeature(10)

	// a unit that never fired has no spikes to normalize by
	info, err := MutualInfo1D(twoBinCurves([]float64{0.0, 0.0}), feature, nil)
	require.Nil(t, err)
	assert.True(t, math.IsNaN(info[1]))

	info, err = MutualInfo1D(
		twoBinCurves([]float64{0.0, 0.0}), feature, &InfoOptions{BitsPerSecond: true},
	)
	require.Nil(t, err)
	assert.Equal(t, 0.0, info[1])
}

func TestMutualInfo1DValidate(t *testing.T) {
	feature := alternatingFeature(10)

	testData := map[string]struct {
		err     error
		curves  *Curves
		feature *timeseries.Series
		opt     *InfoOptions
	}{
		"nil curves":  {ErrNoCurves, nil, feature, nil},
		"nil feature": {ErrNoFeature, twoBinCurves([]float64{0.0, 4.0}), nil, nil},
		"curve shape": {ErrCurveShape, twoBinCurves([]float64{1.0, 2.0, 3.0}), feature, nil},
		"epochs outside the feature": {
			ErrNoFeature, twoBinCurves([]float64{0.0, 4.0}), feature,
			&InfoOptions{Epochs: timeseries.EpochSet{{Start: time.Hour, End: 2 * time.Hour}}},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := MutualInfo1D(td.curves, td.feature, td.opt)
			require.ErrorAs(t, err, &td.err)
		})
	}
}

func twoBinRateMap(surface [][]float64) *RateMap {
	return &RateMap{
		XEdges:   []float64{0.0, 0.5, 1.0},
		YEdges:   []float64{0.0, 0.5, 1.0},
		XCenters: []float64{0.25, 0.75},
		YCenters: []float64{0.25, 0.75},
		Keys:     []int{1},
		Rates:    map[int][][]float64{1: surface},
	}
}

func TestMutualInfo2D(t *testing.T) {
	// one sample per cell, so each holds a quarter of the occupancy
	features := cornerFeatures(t, []float64{0.0, 1.0, 0.0, 1.0})

	testData := map[string]struct {
		surface  [][]float64
		opt      *InfoOptions
		expected float64
	}{
		"selective":      {[][]float64{{0.0, 0.0}, {0.0, 8.0}}, nil, 2.0},
		"selective rate": {
			[][]float64{{0.0, 0.0}, {0.0, 8.0}},
			&InfoOptions{BitsPerSecond: true},
			4.0,
		},
		// an unvisited cell drops out of both the mean rate and the sum
		"unvisited cell": {[][]float64{{math.NaN(), 0.0}, {0.0, 8.0}}, nil, 2.0},
		"uniform firing": {[][]float64{{3.0, 3.0}, {3.0, 3.0}}, nil, 0.0},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			info, err := MutualInfo2D(twoBinRateMap(td.surface), features, td.opt)
			require.Nil(t, err)
			assert.InDelta(t, td.expected, info[1], 1e-12)
		})
	}
}

func TestMutualInfo2DValidate(t *testing.T) {
	features := cornerFeatures(t, []float64{0.0, 1.0, 0.0, 1.0})
	narrow, err := timeseries.NewFrame(features.T, []int{0}, [][]float64{features.V[0]})
	require.Nil(t, err)
	surface := [][]float64{{0.0, 0.0}, {0.0, 8.0}}

	testData := map[string]struct {
		err      error
		rm       *RateMap
		features *timeseries.Frame
	}{
		"nil rate map":   {ErrNoCurves, nil, features},
		"nil features":   {ErrNoFeature, twoBinRateMap(surface), nil},
		"one column":     {ErrNot2D, twoBinRateMap(surface), narrow},
		"short surface":  {ErrCurveShape, twoBinRateMap([][]float64{{0.0, 0.0}}), features},
		"ragged surface": {ErrCurveShape, twoBinRateMap([][]float64{{0.0}, {0.0, 8.0}}), features},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := MutualInfo2D(td.rm, td.features, nil)
			require.ErrorAs(t, err, &td.err)
		})
	}
}
