package tuning

import (
	"fmt"

	"github.com/nvandam/ratemap/timeseries"
)

// RateMap holds per-unit firing rate surfaces over two binned features, the
// classic place-field view of position against firing.
type RateMap struct {
	// XEdges and YEdges are the nbins+1 bin boundaries per axis.
	XEdges []float64 `json:"x_edges"`
	YEdges []float64 `json:"y_edges"`

	// XCenters and YCenters are the bin midpoints per axis.
	XCenters []float64 `json:"x_centers"`
	YCenters []float64 `json:"y_centers"`

	// Keys lists the unit ids with a surface.
	Keys []int `json:"keys"`

	// Rates maps unit id to its rate surface indexed [x][y].
	Rates map[int][][]float64 `json:"rates"`
}

// Curves2D computes an occupancy-normalized rate surface per unit over a
// two column feature frame, e.g. firing rate against x/y position. Bins the
// features never visited jointly hold NaN rather than zero, marking them
// unobserved instead of silent.
func Curves2D(group timeseries.Group, features *timeseries.Frame, nbins int, opt *Curve2DOptions) (*RateMap, error) {
	if nbins < 1 {
		return nil, ErrNoBins
	}
	if len(group) == 0 {
		return nil, ErrNoUnits
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

	// joint occupancy counts samples where both coordinates land in range
	occupancy := newSurface(nbins, 0)
	for i := range rfeats.T {
		kx := histIndex(xEdges, rfeats.V[0][i])
		ky := histIndex(yEdges, rfeats.V[1][i])
		if kx >= 0 && ky >= 0 {
			occupancy[kx][ky]++
		}
	}

	sx, err := timeseries.NewSeries(rfeats.T, rfeats.V[0])
	if err != nil {
		return nil, err
	}
	sy, err := timeseries.NewSeries(rfeats.T, rfeats.V[1])
	if err != nil {
		return nil, err
	}

	rgroup := group.Restrict(ep)
	valsX, err := rgroup.ValueFrom(sx)
	if err != nil {
		return nil, err
	}
	valsY, err := rgroup.ValueFrom(sy)
	if err != nil {
		return nil, err
	}

	scale := 0.0
	if d := ep.Duration().Seconds(); d > 0 {
		scale = float64(rfeats.Len()) / d
	}

	keys := group.Keys()
	rates := make(map[int][][]float64, len(keys))
	for _, id := range keys {
		count := newSurface(nbins, 0)
		for i := range valsX[id] {
			kx := histIndex(xEdges, valsX[id][i])
			ky := histIndex(yEdges, valsY[id][i])
			if kx >= 0 && ky >= 0 {
				count[kx][ky]++
			}
		}

		surface := newSurface(nbins, 0)
		for ix := range nbins {
			for iy := range nbins {
				surface[ix][iy] = count[ix][iy] / occupancy[ix][iy] * scale
			}
		}
		rates[id] = surface
	}

	return &RateMap{
		XEdges:   xEdges,
		YEdges:   yEdges,
		XCenters: binCenters(xEdges),
		YCenters: binCenters(yEdges),
		Keys:     keys,
		Rates:    rates,
	}, nil
}

func newSurface(nbins int, fill float64) [][]float64 {
	s := make([][]float64, nbins)
	for i := range s {
		row := make([]float64, nbins)
		if fill != 0 {
			for j := range row {
				row[j] = fill
			}
		}
		s[i] = row
	}
	return s
}
