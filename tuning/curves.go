package tuning

import (
	"math"
	"sort"

	"github.com/nvandam/ratemap/timeseries"
)

// Curves holds per-unit firing rate as a function of a binned feature.
type Curves struct {
	// Edges are the nbins+1 bin boundaries on the feature axis.
	Edges []float64 `json:"edges"`

	// Centers are the bin midpoints, one per curve sample.
	Centers []float64 `json:"centers"`

	// Keys lists the unit ids with a curve.
	Keys []int `json:"keys"`

	// Rates maps unit id to its rate per feature bin in events per second.
	Rates map[int][]float64 `json:"rates"`
}

// Curves1D computes an occupancy-normalized tuning curve per unit: how often
// each unit fires as a function of where a 1d feature sits, e.g. firing rate
// against head direction. Spike counts per feature bin are divided by the
// time the feature spent there and scaled to events per second by the
// feature sampling rate. Bins the feature never visited resolve to 0.
func Curves1D(group timeseries.Group, feature *timeseries.Series, nbins int, opt *CurveOptions) (*Curves, error) {
	if nbins < 1 {
		return nil, ErrNoBins
	}
	if len(group) == 0 {
		return nil, ErrNoUnits
	}
	if feature == nil || feature.Len() == 0 {
		return nil, ErrNoFeature
	}
	if opt == nil {
		opt = &CurveOptions{}
	}

	// the automatic axis range covers the full feature even when epochs
	// restrict the occupancy below
	lo, hi, err := resolveRange(opt.Range, feature.V)
	if err != nil {
		return nil, err
	}
	edges := binEdges(lo, hi, nbins)

	ep := opt.Epochs
	if ep == nil {
		ep = feature.Support()
	}

	rfeat := feature.Restrict(ep)
	if rfeat.Len() == 0 {
		return nil, ErrNoFeature
	}

	vals, err := group.Restrict(ep).ValueFrom(rfeat)
	if err != nil {
		return nil, err
	}

	occupancy := histogram(rfeat.V, edges)
	scale := feature.Rate()

	keys := group.Keys()
	rates := make(map[int][]float64, len(keys))
	for _, id := range keys {
		count := histogram(vals[id], edges)
		rate := make([]float64, nbins)
		for i := range count {
			r := count[i] / occupancy[i]
			if math.IsNaN(r) {
				r = 0.0
			}
			rate[i] = r * scale
		}
		rates[id] = rate
	}

	return &Curves{
		Edges:   edges,
		Centers: binCenters(edges),
		Keys:    keys,
		Rates:   rates,
	}, nil
}

// Discrete holds per-unit mean firing rates within labeled epoch sets.
type Discrete struct {
	// Labels lists the epoch set labels in ascending order.
	Labels []string `json:"labels"`

	// Keys lists the unit ids with a rate per label.
	Keys []int `json:"keys"`

	// Rates maps label to unit id to mean rate in events per second.
	Rates map[string]map[int]float64 `json:"rates"`
}

// DiscreteCurves computes each unit's mean firing rate within every labeled
// epoch set, typically one label per stimulus condition presented over
// multiple epochs.
func DiscreteCurves(group timeseries.Group, epochs map[string]timeseries.EpochSet) (*Discrete, error) {
	if len(group) == 0 {
		return nil, ErrNoUnits
	}
	if len(epochs) == 0 {
		return nil, ErrNoEpochs
	}

	labels := make([]string, 0, len(epochs))
	for label := range epochs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	keys := group.Keys()
	rates := make(map[string]map[int]float64, len(labels))
	for _, label := range labels {
		ep := epochs[label]
		unitRates := make(map[int]float64, len(keys))
		for _, id := range keys {
			unitRates[id] = group[id].Rate(ep)
		}
		rates[label] = unitRates
	}

	return &Discrete{
		Labels: labels,
		Keys:   keys,
		Rates:  rates,
	}, nil
}
