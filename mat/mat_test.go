package mat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewDenseFromArray(t *testing.T) {
	testData := map[string]struct {
		err error
		x   [][]float64
		m   int
		n   int
	}{
		"nil input": {
			mat.ErrZeroLength,
			nil,
			0, 0,
		},
		"empty input": {
			mat.ErrZeroLength,
			[][]float64{},
			0, 0,
		},
		"single element": {
			nil,
			[][]float64{{1}},
			1, 1,
		},
		"one row multiple cols": {
			nil,
			[][]float64{{1, 2, 3}},
			1, 3,
		},
		"multiple rows one col": {
			nil,
			[][]float64{{1}, {2}, {3}},
			3, 1,
		},
		"multiple rows and cols": {
			nil,
			[][]float64{{1, 2, 3}, {4, 5, 6}},
			2, 3,
		},
		"inconsistent cols": {
			ErrColMismatch,
			[][]float64{{1, 2, 3}, {4, 5}},
			0, 0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				if td.err != nil && r != nil {
					err, ok := r.(error)
					require.True(t, ok, "panic is not an error")
					assert.ErrorAs(t, err, &td.err)
				}
			}()
			mx, err := NewDenseFromArray(td.x)
			if td.err != nil {
				require.ErrorAs(t, err, &td.err)
				return
			}
			require.Nil(t, err)

			m, n := mx.Dims()
			assert.Equal(t, td.m, m, "m")
			assert.Equal(t, td.n, n, "n")

			for ri, row := range td.x {
				assert.Equal(t, row, mat.Row(nil, ri, mx), "array")
			}
		})
	}
}

func TestNewDenseFromColumns(t *testing.T) {
	testData := map[string]struct {
		err  error
		cols [][]float64
		m    int
		n    int
	}{
		"nil input": {
			ErrNoColumns,
			nil,
			0, 0,
		},
		"empty input": {
			ErrNoColumns,
			[][]float64{},
			0, 0,
		},
		"single column": {
			nil,
			[][]float64{{1, 2, 3}},
			3, 1,
		},
		"multiple columns": {
			nil,
			[][]float64{{1, 2}, {3, 4}, {5, 6}},
			2, 3,
		},
		"inconsistent rows": {
			ErrRowMismatch,
			[][]float64{{1, 2}, {3}},
			0, 0,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			mx, err := NewDenseFromColumns(td.cols)
			if td.err != nil {
				require.ErrorAs(t, err, &td.err)
				return
			}
			require.Nil(t, err)

			m, n := mx.Dims()
			assert.Equal(t, td.m, m, "m")
			assert.Equal(t, td.n, n, "n")

			for ci, col := range td.cols {
				assert.Equal(t, col, mat.Col(nil, ci, mx), "column")
			}
		})
	}
}

func TestScaleRows(t *testing.T) {
	testData := map[string]struct {
		err      error
		s        []float64
		x        [][]float64
		expected [][]float64
	}{
		"identity scale": {
			nil,
			[]float64{1, 1},
			[][]float64{{1, 2}, {3, 4}},
			[][]float64{{1, 2}, {3, 4}},
		},
		"per row scale": {
			nil,
			[]float64{2, 0.5},
			[][]float64{{1, 2}, {4, 8}},
			[][]float64{{2, 4}, {2, 4}},
		},
		"zero scale": {
			nil,
			[]float64{0, 1},
			[][]float64{{1, 2}, {3, 4}},
			[][]float64{{0, 0}, {3, 4}},
		},
		"scale length mismatch": {
			ErrScaleLenNotRow,
			[]float64{1, 2, 3},
			[][]float64{{1, 2}, {3, 4}},
			nil,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, err := NewDenseFromArray(td.x)
			require.Nil(t, err)

			res, err := ScaleRows(td.s, x)
			if td.err != nil {
				require.ErrorAs(t, err, &td.err)
				return
			}
			require.Nil(t, err)

			for ri, row := range td.expected {
				assert.Equal(t, row, mat.Row(nil, ri, res), "row")
			}
		})
	}
}
