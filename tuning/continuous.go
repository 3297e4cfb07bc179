package tuning

import (
	"fmt"

	"github.com/nvandam/ratemap/timeseries"
)

// ContinuousCurves1D computes per-signal tuning curves from continuous data
// such as calcium traces, one frame column per cell. Each curve sample is
// the mean signal value over the rows whose aligned feature value fell in
// that bin. Bins with no rows resolve to 0.
func ContinuousCurves1D(data *timeseries.Frame, feature *timeseries.Series, nbins int, opt *CurveOptions) (*Curves, error) {
	if nbins < 1 {
		return nil, ErrNoBins
	}
	if data == nil || data.Len() == 0 || data.NumCols() == 0 {
		return nil, ErrNoSignal
	}
	if feature == nil || feature.Len() == 0 {
		return nil, ErrNoFeature
	}
	if opt == nil {
		opt = &CurveOptions{}
	}

	ep := opt.Epochs
	if ep == nil {
		ep = feature.Support()
	}

	rdata := data.Restrict(ep)
	if rdata.Len() == 0 {
		return nil, ErrNoSignal
	}
	rfeat := feature.Restrict(ep)
	if rfeat.Len() == 0 {
		return nil, ErrNoFeature
	}

	lo, hi, err := resolveRange(opt.Range, rfeat.V)
	if err != nil {
		return nil, err
	}
	edges := binEdges(lo, hi, nbins)

	// each signal row picks up the feature value nearest in time
	aligned := rfeat.ValuesAt(rdata.T)

	sums := make([][]float64, rdata.NumCols())
	for j := range sums {
		sums[j] = make([]float64, nbins)
	}
	counts := make([]float64, nbins)
	for i, v := range aligned {
		k := histIndex(edges, v)
		if k < 0 {
			continue
		}
		counts[k]++
		for j := range rdata.V {
			sums[j][k] += rdata.V[j][i]
		}
	}

	rates := make(map[int][]float64, rdata.NumCols())
	for j, id := range rdata.Keys {
		curve := make([]float64, nbins)
		for k := range curve {
			if counts[k] > 0 {
				curve[k] = sums[j][k] / counts[k]
			}
		}
		rates[id] = curve
	}

	return &Curves{
		Edges:   edges,
		Centers: binCenters(edges),
		Keys:    rdata.Keys,
		Rates:   rates,
	}, nil
}

// ContinuousCurves2D computes per-signal surfaces from continuous data over
// a two column feature frame. Each cell is the mean signal value over the
// rows whose aligned feature pair fell in that cell. Cells with no rows
// resolve to 0.
func ContinuousCurves2D(data *timeseries.Frame, features *timeseries.Frame, nbins int, opt *Curve2DOptions) (*RateMap, error) {
	if nbins < 1 {
		return nil, ErrNoBins
	}
	if data == nil || data.Len() == 0 || data.NumCols() == 0 {
		return nil, ErrNoSignal
	}
	if features == nil || features.Len() == 0 {
		return nil, ErrNoFeature
	}
	if features.NumCols() != 2 {
		return nil, fmt.Errorf("got %d feature columns, %w", features.NumCols(), ErrNot2D)
	}
	if opt == nil {
		opt = &Curve2DOptions{}
	}

	ep := opt.Epochs
	if ep == nil {
		ep = features.Support()
	}

	rdata := data.Restrict(ep)
	if rdata.Len() == 0 {
		return nil, ErrNoSignal
	}
	rfeats := features.Restrict(ep)
	if rfeats.Len() == 0 {
		return nil, ErrNoFeature
	}

	xlo, xhi, err := resolveRange(opt.XRange, rfeats.V[0])
	if err != nil {
		return nil, err
	}
	ylo, yhi, err := resolveRange(opt.YRange, rfeats.V[1])
	if err != nil {
		return nil, err
	}
	xEdges := binEdges(xlo, xhi, nbins)
	yEdges := binEdges(ylo, yhi, nbins)

	sx, err := timeseries.NewSeries(rfeats.T, rfeats.V[0])
	if err != nil {
		return nil, err
	}
	sy, err := timeseries.NewSeries(rfeats.T, rfeats.V[1])
	if err != nil {
		return nil, err
	}
	alignedX := sx.ValuesAt(rdata.T)
	alignedY := sy.ValuesAt(rdata.T)

	sums := make([][][]float64, rdata.NumCols())
	for j := range sums {
		sums[j] = newSurface(nbins, 0)
	}
	counts := newSurface(nbins, 0)
	for i := range rdata.T {
		kx := histIndex(xEdges, alignedX[i])
		ky := histIndex(yEdges, alignedY[i])
		if kx < 0 || ky < 0 {
			continue
		}
		counts[kx][ky]++
		for j := range rdata.V {
			sums[j][kx][ky] += rdata.V[j][i]
		}
	}

	rates := make(map[int][][]float64, rdata.NumCols())
	for j, id := range rdata.Keys {
		surface := newSurface(nbins, 0)
		for ix := range nbins {
			for iy := range nbins {
				if counts[ix][iy] > 0 {
					surface[ix][iy] = sums[j][ix][iy] / counts[ix][iy]
				}
			}
		}
		rates[id] = surface
	}

	return &RateMap{
		XEdges:   xEdges,
		YEdges:   yEdges,
		XCenters: binCenters(xEdges),
		YCenters: binCenters(yEdges),
		Keys:     rdata.Keys,
		Rates:    rates,
	}, nil
}
