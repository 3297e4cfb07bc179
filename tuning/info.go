package tuning

import (
	"fmt"
	"math"

	"github.com/nvandam/ratemap/floatsunrolled"
	"github.com/nvandam/ratemap/timeseries"
)

// InfoOptions configures the Skaggs information computations.
type InfoOptions struct {
	// Epochs restricts the occupancy estimate. Nil uses the feature's
	// support.
	Epochs timeseries.EpochSet

	// BitsPerSecond reports the information rate instead of the default
	// bits per spike.
	BitsPerSecond bool
}

// MutualInfo1D computes the Skaggs mutual information between each unit's
// tuning curve and the feature that produced it, following Skaggs,
// McNaughton & Gothard (1993). The occupancy distribution is re-estimated
// from the feature over the curve's own bin edges. Results are bits per
// spike unless BitsPerSecond is set.
func MutualInfo1D(curves *Curves, feature *timeseries.Series, opt *InfoOptions) (map[int]float64, error) {
	if curves == nil || len(curves.Centers) == 0 {
		return nil, ErrNoCurves
	}
	if feature == nil || feature.Len() == 0 {
		return nil, ErrNoFeature
	}
	if opt == nil {
		opt = &InfoOptions{}
	}

	ep := opt.Epochs
	if ep == nil {
		ep = feature.Support()
	}

	occupancy := histogram(feature.Restrict(ep).V, curves.Edges)
	total := floatsunrolled.Sum(occupancy)
	if total == 0 {
		return nil, ErrNoFeature
	}
	p := floatsunrolled.ScaleTo(nil, 1.0/total, occupancy)

	out := make(map[int]float64, len(curves.Keys))
	for _, id := range curves.Keys {
		fx := curves.Rates[id]
		if len(fx) != len(p) {
			return nil, fmt.Errorf("unit %d has %d bins for %d occupancy bins, %w", id, len(fx), len(p), ErrCurveShape)
		}

		fr := floatsunrolled.Dot(p, fx)
		si := 0.0
		for i, v := range fx {
			logfx := math.Log2(v / fr)
			if math.IsInf(logfx, 0) || math.IsNaN(logfx) {
				logfx = 0.0
			}
			si += p[i] * v * logfx
		}
		if !opt.BitsPerSecond {
			si /= fr
		}
		out[id] = si
	}
	return out, nil
}

// MutualInfo2D computes the Skaggs mutual information between each unit's
// rate surface and the two features that produced it. NaN cells, the bins
// never visited, are skipped. Results are bits per spike unless
// BitsPerSecond is set.
func MutualInfo2D(rm *RateMap, features *timeseries.Frame, opt *InfoOptions) (map[int]float64, error) {
	if rm == nil || len(rm.XCenters) == 0 || len(rm.YCenters) == 0 {
		return nil, ErrNoCurves
	}
	if features == nil || features.Len() == 0 {
		return nil, ErrNoFeature
	}
	if features.NumCols() != 2 {
		return nil, fmt.Errorf("got %d feature columns, %w", features.NumCols(), ErrNot2D)
	}
	if opt == nil {
		opt = &InfoOptions{}
	}

	ep := opt.Epochs
	if ep == nil {
		ep = features.Support()
	}
	rfeats := features.Restrict(ep)
	if rfeats.Len() == 0 {
		return nil, ErrNoFeature
	}

	nx := len(rm.XCenters)
	ny := len(rm.YCenters)
	occupancy := newSurface(nx, 0)
	total := 0.0
	for i := range rfeats.T {
		kx := histIndex(rm.XEdges, rfeats.V[0][i])
		ky := histIndex(rm.YEdges, rfeats.V[1][i])
		if kx >= 0 && ky >= 0 {
			occupancy[kx][ky]++
			total++
		}
	}
	if total == 0 {
		return nil, ErrNoFeature
	}

	out := make(map[int]float64, len(rm.Keys))
	for _, id := range rm.Keys {
		fx := rm.Rates[id]
		if len(fx) != nx {
			return nil, fmt.Errorf("unit %d has %d bins for %d occupancy bins, %w", id, len(fx), nx, ErrCurveShape)
		}

		fr := 0.0
		for ix := range nx {
			if len(fx[ix]) != ny {
				return nil, fmt.Errorf("unit %d has %d bins for %d occupancy bins, %w", id, len(fx[ix]), ny, ErrCurveShape)
			}
			for iy := range ny {
				if v := fx[ix][iy]; !math.IsNaN(v) {
					fr += v * occupancy[ix][iy] / total
				}
			}
		}

		si := 0.0
		for ix := range nx {
			for iy := range ny {
				v := fx[ix][iy]
				if math.IsNaN(v) {
					continue
				}
				logfx := math.Log2(v / fr)
				if math.IsInf(logfx, 0) || math.IsNaN(logfx) {
					logfx = 0.0
				}
				si += occupancy[ix][iy] / total * v * logfx
			}
		}
		if !opt.BitsPerSecond {
			si /= fr
		}
		out[id] = si
	}
	return out, nil
}
