package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpikeTrainRestrict(t *testing.T) {
	st := SpikeTrain{
		5 * time.Millisecond,
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
		45 * time.Millisecond,
	}

	testData := map[string]struct {
		ep       EpochSet
		expected SpikeTrain
	}{
		"boundaries included": {
			EpochSet{{Start: 10 * time.Millisecond, End: 30 * time.Millisecond}},
			SpikeTrain{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond},
		},
		"multiple epochs": {
			EpochSet{
				{Start: 0, End: 5 * time.Millisecond},
				{Start: 40 * time.Millisecond, End: 50 * time.Millisecond},
			},
			SpikeTrain{5 * time.Millisecond, 45 * time.Millisecond},
		},
		"no overlap": {
			EpochSet{{Start: 100 * time.Millisecond, End: 200 * time.Millisecond}},
			nil,
		},
		"nil returns a copy": {
			nil,
			SpikeTrain{
				5 * time.Millisecond,
				10 * time.Millisecond,
				20 * time.Millisecond,
				30 * time.Millisecond,
				45 * time.Millisecond,
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.expected, st.Restrict(td.ep))
		})
	}
}

func TestSpikeTrainRate(t *testing.T) {
	st := SpikeTrain{}
	for ti := 100 * time.Millisecond; ti <= 2*time.Second; ti += 200 * time.Millisecond {
		st = append(st, ti)
	}
	require.Len(t, st, 10)

	ep := EpochSet{{Start: 0, End: 2 * time.Second}}
	assert.InDelta(t, 5.0, st.Rate(ep), 1e-9)

	// restricting to half the session halves the events but not the rate
	half := EpochSet{{Start: 0, End: time.Second}}
	assert.InDelta(t, 5.0, st.Rate(half), 1e-9)

	zero := EpochSet{{Start: time.Second, End: time.Second}}
	assert.Equal(t, 0.0, st.Rate(zero))
}

func TestGroupKeysSupport(t *testing.T) {
	g := Group{
		9: {30 * time.Millisecond, 80 * time.Millisecond},
		2: {50 * time.Millisecond},
		5: {},
	}

	assert.Equal(t, []int{2, 5, 9}, g.Keys())
	assert.Equal(t, EpochSet{{Start: 30 * time.Millisecond, End: 80 * time.Millisecond}}, g.Support())

	assert.Nil(t, Group{}.Support())
	assert.Nil(t, Group{1: {}}.Support())
}

func TestGroupRestrict(t *testing.T) {
	g := Group{
		1: {5 * time.Millisecond, 25 * time.Millisecond},
		2: {15 * time.Millisecond},
	}

	res := g.Restrict(EpochSet{{Start: 10 * time.Millisecond, End: 20 * time.Millisecond}})
	assert.Equal(t, Group{
		1: nil,
		2: {15 * time.Millisecond},
	}, res)
}

func TestGroupCount(t *testing.T) {
	g := Group{
		1: {5 * time.Millisecond, 12 * time.Millisecond, 18 * time.Millisecond, 25 * time.Millisecond},
		2: {5 * time.Millisecond, 30 * time.Millisecond},
	}

	f, err := g.Count(10*time.Millisecond, EpochSet{{Start: 0, End: 30 * time.Millisecond}})
	require.Nil(t, err)

	assert.Equal(t, []time.Duration{5 * time.Millisecond, 15 * time.Millisecond, 25 * time.Millisecond}, f.T)
	assert.Equal(t, []int{1, 2}, f.Keys)

	c1, ok := f.Col(1)
	require.True(t, ok)
	assert.Equal(t, []float64{1.0, 2.0, 1.0}, c1)

	// the event on the end boundary clamps into the last bin
	c2, ok := f.Col(2)
	require.True(t, ok)
	assert.Equal(t, []float64{1.0, 0.0, 1.0}, c2)

	// a nil epoch set bins over the group support
	f, err = g.Count(10*time.Millisecond, nil)
	require.Nil(t, err)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}, f.T)

	c1, _ = f.Col(1)
	assert.Equal(t, []float64{2.0, 1.0, 1.0}, c1)

	_, err = Group{}.Count(10*time.Millisecond, nil)
	require.ErrorIs(t, err, ErrEmptyGroup)
	_, err = Group{1: {}}.Count(10*time.Millisecond, nil)
	require.ErrorIs(t, err, ErrEmptyGroup)
}

func TestGroupValueFrom(t *testing.T) {
	s, err := NewSeries(
		[]time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond},
		[]float64{1.0, 2.0, 3.0},
	)
	require.Nil(t, err)

	g := Group{
		1: {time.Millisecond, 19 * time.Millisecond},
		2: {50 * time.Millisecond},
		3: {},
	}

	vals, err := g.ValueFrom(s)
	require.Nil(t, err)
	assert.Equal(t, map[int][]float64{
		1: {1.0, 3.0},
		2: {3.0},
		3: {},
	}, vals)

	_, err = Group{}.ValueFrom(s)
	require.ErrorIs(t, err, ErrEmptyGroup)
	_, err = g.ValueFrom(nil)
	require.ErrorIs(t, err, ErrNoData)
}
