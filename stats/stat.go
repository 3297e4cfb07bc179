// Package stats provides diagnostics for count vectors and design matrices:
// outlier bin detection for artifact censoring and variance inflation factors
// for collinearity checks on lagged regressors.
package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrMinimumFeatures = errors.New("need at least 2 feature columns to compute VIF")
	ErrFeatureLen      = errors.New("must have more rows than feature columns")
)

// DetectOutliers returns the indices of values lying strictly beyond Tukey
// fences. The fences sit tukeyFactor inner ranges outside the lower and upper
// percentile values, so a factor of 0 flags everything past the percentiles
// themselves. Typical use is flagging artifact bins in a count or residual
// vector before refitting.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	if len(y) == 0 {
		return nil
	}

	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, len(y))
	copy(yCopy, y)
	sort.Float64s(yCopy)
	lowerIdx := int(math.Floor(float64(len(yCopy)) * lowerPerc))
	upperIdx := int(math.Ceil(float64(len(yCopy)) * upperPerc))
	if upperIdx >= len(yCopy) {
		upperIdx = len(yCopy) - 1
	}

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// VarianceInflationFactor scores every column of x by how well the remaining
// columns linearly predict it, 1/(1-R²). A column independent of the rest
// scores near 1 and the score runs toward +Inf as the column approaches an
// exact combination of the others. Lagged designs built from slow features
// are the usual offenders. x must not carry an intercept column; one is added
// internally to each column regression.
func VarianceInflationFactor(x mat.Matrix) ([]float64, error) {
	m, n := x.Dims()
	if n < 2 {
		return nil, fmt.Errorf("got %d columns, %w", n, ErrMinimumFeatures)
	}
	if m <= n {
		return nil, fmt.Errorf("got %d rows for %d columns, %w", m, n, ErrFeatureLen)
	}

	ones := make([]float64, m)
	floats.AddConst(1.0, ones)

	others := mat.NewDense(m, n, nil)
	others.SetCol(0, ones)

	col := make([]float64, m)
	scratch := make([]float64, m)
	predicted := make([]float64, m)

	vifs := make([]float64, n)
	for j := range n {
		mat.Col(col, j, x)

		c := 1
		for k := range n {
			if k == j {
				continue
			}
			mat.Col(scratch, k, x)
			others.SetCol(c, scratch)
			c++
		}

		var qr mat.QR
		qr.Factorize(others)

		var betaMx mat.Dense
		if err := qr.SolveTo(&betaMx, false, mat.NewDense(m, 1, col)); err != nil {
			// a rank deficient solve means the other columns already span
			// this one exactly
			vifs[j] = math.Inf(1)
			continue
		}

		var predictedMx mat.Dense
		predictedMx.Mul(others, &betaMx)
		mat.Col(predicted, 0, &predictedMx)

		// a zero-variance column makes the score non-finite, which still
		// means the intercept alone spans it
		r2 := stat.RSquaredFrom(predicted, col, nil)
		if math.IsNaN(r2) || math.IsInf(r2, 0) || r2 >= 1.0 {
			vifs[j] = math.Inf(1)
			continue
		}
		vifs[j] = 1.0 / (1.0 - r2)
	}
	return vifs, nil
}
