package timeseries

import (
	"errors"
	"fmt"
	"sort"
	"time"

	gmat "gonum.org/v1/gonum/mat"

	"github.com/nvandam/ratemap/mat"
)

var (
	ErrKeyColMismatch = errors.New("keys have a different length than columns")
	ErrColLenMismatch = errors.New("column has a different length than timestamps")
	ErrDuplicateKey   = errors.New("duplicate column key")
)

// Frame is a multivariate series: one column of values per key, all sharing
// the same timestamps. Typical uses are per-unit spike counts, per-unit
// predicted rates, and multi-dimensional behavioral features.
type Frame struct {
	T    []time.Duration
	Keys []int
	V    [][]float64
}

// NewFrame returns a Frame after validating and copying the inputs. cols[j]
// holds the column for keys[j] and every column must match the timestamp
// length.
func NewFrame(t []time.Duration, keys []int, cols [][]float64) (*Frame, error) {
	if len(keys) != len(cols) {
		return nil, fmt.Errorf(
			"got %d keys for %d columns, %w", len(keys), len(cols), ErrKeyColMismatch,
		)
	}
	seen := make(map[int]struct{}, len(keys))
	for _, id := range keys {
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("key %d, %w", id, ErrDuplicateKey)
		}
		seen[id] = struct{}{}
	}
	for j, col := range cols {
		if len(col) != len(t) {
			return nil, fmt.Errorf(
				"column %d has length %d, but timestamps have length %d, %w",
				j, len(col), len(t), ErrColLenMismatch,
			)
		}
	}

	ts := make([]time.Duration, len(t))
	copy(ts, t)
	ks := make([]int, len(keys))
	copy(ks, keys)
	vs := make([][]float64, len(cols))
	for j, col := range cols {
		vs[j] = make([]float64, len(col))
		copy(vs[j], col)
	}
	return &Frame{T: ts, Keys: ks, V: vs}, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.T)
}

// NumCols returns the number of columns.
func (f *Frame) NumCols() int {
	return len(f.Keys)
}

// Col returns the column for the given key.
func (f *Frame) Col(key int) ([]float64, bool) {
	for j, id := range f.Keys {
		if id == key {
			return f.V[j], true
		}
	}
	return nil, false
}

// Support returns the epoch set spanning the first through last row.
func (f *Frame) Support() EpochSet {
	if len(f.T) == 0 {
		return nil
	}
	return EpochSet{{Start: f.T[0], End: f.T[len(f.T)-1]}}
}

// Restrict returns the rows falling within ep. A nil ep returns the frame
// unchanged.
func (f *Frame) Restrict(ep EpochSet) *Frame {
	if ep == nil {
		return f
	}

	res := &Frame{
		Keys: f.Keys,
		V:    make([][]float64, len(f.V)),
	}
	for _, e := range ep {
		i := sort.Search(len(f.T), func(i int) bool { return f.T[i] >= e.Start })
		for ; i < len(f.T) && f.T[i] <= e.End; i++ {
			res.T = append(res.T, f.T[i])
			for j := range f.V {
				res.V[j] = append(res.V[j], f.V[j][i])
			}
		}
	}
	return res
}

// Matrix assembles the frame values into a dense row-per-timestamp matrix
// with one column per key.
func (f *Frame) Matrix() (*gmat.Dense, error) {
	return mat.NewDenseFromColumns(f.V)
}
