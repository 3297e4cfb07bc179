// Package glm is a collection of generalized linear model fitting
// implementations relating binned event counts to a lagged feature history.
package glm

import (
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultIterations = 100
	DefaultTolerance  = 1e-5
)

type Model interface {
	Fit(x, y mat.Matrix) error
	Predict(x mat.Matrix) ([]float64, error)
	Score(x, y mat.Matrix) (float64, error)
	Intercept() float64
	Coef() []float64
}
