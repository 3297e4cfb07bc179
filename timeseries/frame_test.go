package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmat "gonum.org/v1/gonum/mat"
)

func TestNewFrame(t *testing.T) {
	ts := []time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond}

	testData := map[string]struct {
		err  error
		t    []time.Duration
		keys []int
		cols [][]float64
	}{
		"valid": {
			nil,
			ts,
			[]int{1, 4},
			[][]float64{{1.0, 2.0, 3.0}, {4.0, 5.0, 6.0}},
		},
		"no columns": {
			nil,
			ts,
			nil,
			nil,
		},
		"key column mismatch": {
			ErrKeyColMismatch,
			ts,
			[]int{1, 4},
			[][]float64{{1.0, 2.0, 3.0}},
		},
		"duplicate key": {
			ErrDuplicateKey,
			ts,
			[]int{4, 4},
			[][]float64{{1.0, 2.0, 3.0}, {4.0, 5.0, 6.0}},
		},
		"column length mismatch": {
			ErrColLenMismatch,
			ts,
			[]int{1, 4},
			[][]float64{{1.0, 2.0, 3.0}, {4.0, 5.0}},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			f, err := NewFrame(td.t, td.keys, td.cols)
			if td.err != nil {
				require.ErrorAs(t, err, &td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, len(td.t), f.Len())
			assert.Equal(t, len(td.keys), f.NumCols())
		})
	}
}

func TestFrameCol(t *testing.T) {
	f, err := NewFrame(
		[]time.Duration{0, 10 * time.Millisecond},
		[]int{2, 7},
		[][]float64{{1.0, 2.0}, {3.0, 4.0}},
	)
	require.Nil(t, err)

	col, ok := f.Col(7)
	require.True(t, ok)
	assert.Equal(t, []float64{3.0, 4.0}, col)

	_, ok = f.Col(3)
	assert.False(t, ok)
}

func TestFrameRestrict(t *testing.T) {
	f, err := NewFrame(
		[]time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond},
		[]int{1, 2},
		[][]float64{{1.0, 2.0, 3.0, 4.0}, {5.0, 6.0, 7.0, 8.0}},
	)
	require.Nil(t, err)

	res := f.Restrict(EpochSet{{Start: 10 * time.Millisecond, End: 20 * time.Millisecond}})
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, res.T)
	assert.Equal(t, []int{1, 2}, res.Keys)
	assert.Equal(t, [][]float64{{2.0, 3.0}, {6.0, 7.0}}, res.V)

	// a nil restriction is the frame itself
	assert.Same(t, f, f.Restrict(nil))

	assert.Equal(t, EpochSet{{Start: 0, End: 30 * time.Millisecond}}, f.Support())
	assert.Nil(t, (&Frame{}).Support())
}

func TestFrameMatrix(t *testing.T) {
	f, err := NewFrame(
		[]time.Duration{0, 10 * time.Millisecond, 20 * time.Millisecond},
		[]int{1, 4},
		[][]float64{{1.0, 2.0, 3.0}, {4.0, 5.0, 6.0}},
	)
	require.Nil(t, err)

	mx, err := f.Matrix()
	require.Nil(t, err)

	expected := gmat.NewDense(3, 2, []float64{
		1.0, 4.0,
		2.0, 5.0,
		3.0, 6.0,
	})
	assert.True(t, gmat.Equal(expected, mx))
}
