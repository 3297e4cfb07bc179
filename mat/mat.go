// Package mat provides small construction helpers around gonum's mat types.
package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrColMismatch    = errors.New("column size mismatch")
	ErrRowMismatch    = errors.New("row size mismatch")
	ErrNoColumns      = errors.New("no columns")
	ErrScaleLenNotRow = errors.New("scale vector length does not match row count")
)

// NewDenseFromArray creates a dense matrix from a row-major slice of rows.
// All rows must have the same length.
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)

	n := -1
	for i, row := range x {
		if n >= 0 && len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
		if n < 0 {
			n = len(row)
		}
	}
	if n < 0 {
		n = 0
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// NewDenseFromColumns creates a dense matrix from a slice of equal length
// columns.
func NewDenseFromColumns(cols [][]float64) (*mat.Dense, error) {
	n := len(cols)
	if n == 0 {
		return nil, ErrNoColumns
	}

	m := len(cols[0])
	for j, col := range cols {
		if len(col) != m {
			return nil, fmt.Errorf("at column %d, %w", j, ErrRowMismatch)
		}
	}

	mx := mat.NewDense(m, n, nil)
	for j, col := range cols {
		mx.SetCol(j, col)
	}
	return mx, nil
}

// ScaleRows returns s ⊙ x, the matrix x with row i multiplied by s[i].
func ScaleRows(s []float64, x mat.Matrix) (*mat.Dense, error) {
	m, n := x.Dims()
	if len(s) != m {
		return nil, fmt.Errorf("got %d scales for %d rows, %w", len(s), m, ErrScaleLenNotRow)
	}

	out := mat.NewDense(m, n, nil)
	for i := range m {
		for j := range n {
			out.Set(i, j, s[i]*x.At(i, j))
		}
	}
	return out, nil
}
