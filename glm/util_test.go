package glm

import (
	"math"
	"testing"

	mat_ "github.com/nvandam/ratemap/mat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testModel(t *testing.T, model Model, x, y mat.Matrix, intercept float64, coef []float64, tol float64) {
	err := model.Fit(x, y)
	require.Nil(t, err)

	assert.InDelta(t, intercept, model.Intercept(), tol)

	c := model.Coef()
	assert.InDeltaSlice(t, coef, c, tol)

	r2, err := model.Score(x, y)
	require.Nil(t, err)
	assert.InDelta(t, 1.0, r2, tol)
}

// generateCountData builds a noise-free design and target where the expected
// count is exactly exp(intercept + x·coef). Feature column j+1 is the j-th
// power of a ramp over [-1, 1) so columns stay independent. withOnes prepends
// a constant 1.0 column for models fit without an implicit intercept.
func generateCountData(intercept float64, coef []float64, n int, withOnes bool) (mat.Matrix, mat.Matrix, error) {
	rows := make([][]float64, n)
	y := make([]float64, n)
	for i := range n {
		v := 2.0*float64(i)/float64(n) - 1.0

		feats := make([]float64, 0, len(coef)+1)
		if withOnes {
			feats = append(feats, 1.0)
		}
		eta := intercept
		for j, c := range coef {
			f := math.Pow(v, float64(j+1))
			feats = append(feats, f)
			eta += c * f
		}
		rows[i] = feats
		y[i] = math.Exp(eta)
	}

	x, err := mat_.NewDenseFromArray(rows)
	if err != nil {
		return nil, nil, err
	}
	return x, mat.NewDense(n, 1, y), nil
}
