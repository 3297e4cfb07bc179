package timeseries

import (
	"errors"
	"sort"
	"time"
)

var ErrEmptyGroup = errors.New("group has no units")

// SpikeTrain is a sorted slice of event times.
type SpikeTrain []time.Duration

// Restrict returns the events falling within ep. A nil ep returns a copy.
func (st SpikeTrain) Restrict(ep EpochSet) SpikeTrain {
	if ep == nil {
		res := make(SpikeTrain, len(st))
		copy(res, st)
		return res
	}

	var res SpikeTrain
	for _, e := range ep {
		i := sort.Search(len(st), func(i int) bool { return st[i] >= e.Start })
		for ; i < len(st) && st[i] <= e.End; i++ {
			res = append(res, st[i])
		}
	}
	return res
}

// Rate returns the mean event rate over ep in events per second.
func (st SpikeTrain) Rate(ep EpochSet) float64 {
	d := ep.Duration().Seconds()
	if d <= 0 {
		return 0
	}
	return float64(len(st.Restrict(ep))) / d
}

// Group holds one spike train per unit, keyed by unit id.
type Group map[int]SpikeTrain

// Keys returns the unit ids in ascending order.
func (g Group) Keys() []int {
	keys := make([]int, 0, len(g))
	for id := range g {
		keys = append(keys, id)
	}
	sort.Ints(keys)
	return keys
}

// Restrict restricts every unit's train to ep.
func (g Group) Restrict(ep EpochSet) Group {
	res := make(Group, len(g))
	for id, st := range g {
		res[id] = st.Restrict(ep)
	}
	return res
}

// Support returns the epoch set spanning the earliest through latest event
// across all units.
func (g Group) Support() EpochSet {
	first := true
	var lo, hi time.Duration
	for _, st := range g {
		if len(st) == 0 {
			continue
		}
		if first || st[0] < lo {
			lo = st[0]
		}
		if first || st[len(st)-1] > hi {
			hi = st[len(st)-1]
		}
		first = false
	}
	if first {
		return nil
	}
	return EpochSet{{Start: lo, End: hi}}
}

// Count bins every unit's events onto the shared grid of ep, returning a
// frame of per-bin event counts with one column per unit. Events landing on
// an epoch's end boundary clamp into its final bin. A nil ep uses the group
// support.
func (g Group) Count(bin time.Duration, ep EpochSet) (*Frame, error) {
	if len(g) == 0 {
		return nil, ErrEmptyGroup
	}
	if ep == nil {
		ep = g.Support()
		if ep == nil {
			return nil, ErrEmptyGroup
		}
	}
	centers, err := ep.BinCenters(bin)
	if err != nil {
		return nil, err
	}

	keys := g.Keys()
	cols := make([][]float64, len(keys))
	for j, id := range keys {
		col := make([]float64, len(centers))
		st := g[id]
		offset := 0
		for _, e := range ep {
			nb := e.binCount(bin)
			i := sort.Search(len(st), func(i int) bool { return st[i] >= e.Start })
			for ; i < len(st) && st[i] <= e.End; i++ {
				k := int((st[i] - e.Start) / bin)
				if k >= nb {
					k = nb - 1
				}
				col[offset+k]++
			}
			offset += nb
		}
		cols[j] = col
	}
	return NewFrame(centers, keys, cols)
}

// ValueFrom looks up, for every event of every unit, the value of s at the
// nearest sample time.
func (g Group) ValueFrom(s *Series) (map[int][]float64, error) {
	if len(g) == 0 {
		return nil, ErrEmptyGroup
	}
	if s == nil || len(s.T) == 0 {
		return nil, ErrNoData
	}

	out := make(map[int][]float64, len(g))
	for id, st := range g {
		out[id] = s.ValuesAt(st)
	}
	return out, nil
}
