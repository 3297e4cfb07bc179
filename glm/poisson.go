package glm

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/nvandam/ratemap/floatsunrolled"
	mat_ "github.com/nvandam/ratemap/mat"
)

var (
	ErrNegativeIterations = errors.New("negative iterations")
	ErrNegativeTolerance  = errors.New("negative tolerance")
	ErrUnknownSolver      = errors.New("unknown solver")
)

// Solver selects the fitting scheme of a Poisson regression.
type Solver string

const (
	// SolverIRLS iterates reweighted least squares updates seeded by an
	// unweighted linear solve.
	SolverIRLS Solver = "irls"

	// SolverLBFGS minimizes the mean Poisson negative log-likelihood with
	// gonum's L-BFGS implementation.
	SolverLBFGS Solver = "lbfgs"
)

// PoissonOptions represents input options to run the Poisson Regression
type PoissonOptions struct {
	// Iterations is the maximum number of solver steps. 0 stops the IRLS
	// solver at its initial unweighted estimate.
	Iterations int `json:"iterations"`

	// Tolerance stops the IRLS solver once the summed relative coefficient
	// change of an update falls below it. For L-BFGS it is the gradient
	// threshold.
	Tolerance float64 `json:"tolerance"`

	// Solver picks the fitting scheme, defaulting to IRLS.
	Solver Solver `json:"solver"`

	// FitIntercept adds a constant 1.0 feature as the first column if set to
	// true. Leave false when the design matrix already carries one.
	FitIntercept bool `json:"fit_intercept"`
}

// Validate runs basic validation on Poisson options
func (p *PoissonOptions) Validate() (*PoissonOptions, error) {
	if p == nil {
		p = NewDefaultPoissonOptions()
	}

	if p.Iterations < 0 {
		return nil, ErrNegativeIterations
	}
	if p.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}
	if p.Solver == "" {
		p.Solver = SolverIRLS
	}
	switch p.Solver {
	case SolverIRLS, SolverLBFGS:
	default:
		return nil, fmt.Errorf("got %q, %w", p.Solver, ErrUnknownSolver)
	}
	return p, nil
}

// NewDefaultPoissonOptions returns a default set of Poisson Regression options
func NewDefaultPoissonOptions() *PoissonOptions {
	return &PoissonOptions{
		Iterations:   DefaultIterations,
		Tolerance:    DefaultTolerance,
		Solver:       SolverIRLS,
		FitIntercept: true,
	}
}

// PoissonRegression fits a log-linear model of event counts, E[y] = exp(X·B).
type PoissonRegression struct {
	opt *PoissonOptions

	coef      []float64
	intercept float64
	converged bool
}

// NewPoissonRegression initializes a Poisson model ready for fitting
func NewPoissonRegression(opt *PoissonOptions) (*PoissonRegression, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}
	return &PoissonRegression{
		opt: opt,
	}, nil
}

// Fit the model according to the given training data
func (p *PoissonRegression) Fit(x, y mat.Matrix) error {
	x, y, err := p.fitValidate(x, y)
	if err != nil {
		return err
	}

	yArr := mat.Col(nil, 0, y)
	p.converged = false

	var beta []float64
	switch p.opt.Solver {
	case SolverLBFGS:
		beta, err = p.fitLBFGS(x, yArr)
	default:
		beta, err = p.fitIRLS(x, yArr)
	}
	if err != nil {
		return err
	}

	if p.opt.FitIntercept {
		p.intercept = beta[0]
		p.coef = beta[1:]
		return nil
	}
	p.intercept = 0.0
	p.coef = beta
	return nil
}

func (p *PoissonRegression) fitValidate(x, y mat.Matrix) (mat.Matrix, mat.Matrix, error) {
	if p.opt == nil {
		return nil, nil, ErrNoOptions
	}
	if x == nil {
		return nil, nil, ErrNoTrainingMatrix
	}
	if y == nil {
		return nil, nil, ErrNoTargetMatrix
	}

	m, _ := x.Dims()

	ym, _ := y.Dims()
	if ym != m {
		return nil, nil, fmt.Errorf("training data has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	if p.opt.FitIntercept {
		ones := make([]float64, m)
		floats.AddConst(1.0, ones)
		onesMx := mat.NewDense(1, m, ones)
		xT := x.T()

		var xWithOnes mat.Dense
		xWithOnes.Stack(onesMx, xT)
		x = xWithOnes.T()
	}
	return x, y, nil
}

// fitIRLS seeds B from the unweighted normal equations, then repeatedly
// linearizes the exponential link around the current estimate and solves for
// an additive update. The loop stops early once the summed relative
// coefficient change drops below the tolerance. Exhausting the iteration
// budget is not an error, the model is just left unconverged.
func (p *PoissonRegression) fitIRLS(x mat.Matrix, y []float64) ([]float64, error) {
	m, _ := x.Dims()

	// observation weights stay uniform through every update
	w := make([]float64, m)
	floats.AddConst(1.0, w)

	beta, err := solveNormal(x, w, y)
	if err != nil {
		return nil, err
	}

	// betaMx shares beta's backing array so coefficient updates flow into
	// the next iteration's linear predictor
	betaMx := mat.NewDense(len(beta), 1, beta)

	eta := make([]float64, m)
	link := make([]float64, m)
	resid := make([]float64, m)
	var etaMx mat.Dense

	for range p.opt.Iterations {
		etaMx.Mul(x, betaMx)
		mat.Col(eta, 0, &etaMx)
		floatsunrolled.ExpTo(link, eta)

		// scale each design row by its link value to carry the link slope
		// into the normal equations
		z, err := mat_.ScaleRows(link, x)
		if err != nil {
			return nil, err
		}

		floatsunrolled.SubTo(resid, y, link)
		delta, err := solveNormal(z, w, resid)
		if err != nil {
			return nil, err
		}

		// summed relative change against the previous estimate. A zero
		// coefficient makes its term non-finite, which never compares below
		// the tolerance.
		tol := 0.0
		for j, d := range delta {
			tol += math.Abs(d / beta[j])
		}

		floats.Add(beta, delta)
		if tol < p.opt.Tolerance {
			p.converged = true
			break
		}
	}
	return beta, nil
}

// fitLBFGS minimizes the mean Poisson negative log-likelihood,
// sum(exp(eta)-y*eta)/m with eta = X·B, from a zero start. Unlike the IRLS
// solver, failing to reach the gradient threshold is an error here.
func (p *PoissonRegression) fitLBFGS(x mat.Matrix, y []float64) ([]float64, error) {
	m, n := x.Dims()
	mf := float64(m)

	eta := make([]float64, m)
	link := make([]float64, m)

	evalLink := func(theta []float64) {
		thetaMx := mat.NewDense(n, 1, theta)
		var etaMx mat.Dense
		etaMx.Mul(x, thetaMx)
		mat.Col(eta, 0, &etaMx)
		floatsunrolled.ExpTo(link, eta)
	}

	prob := optimize.Problem{
		Func: func(theta []float64) float64 {
			evalLink(theta)
			return (floatsunrolled.Sum(link) - floatsunrolled.Dot(y, eta)) / mf
		},
		Grad: func(grad, theta []float64) {
			evalLink(theta)
			resid := floatsunrolled.SubTo(nil, link, y)

			var gradMx mat.Dense
			gradMx.Mul(x.T(), mat.NewDense(m, 1, resid))
			mat.Col(grad, 0, &gradMx)
			floatsunrolled.ScaleTo(grad, 1.0/mf, grad)
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: p.opt.Tolerance,
		MajorIterations:   p.opt.Iterations,
	}
	method := &optimize.LBFGS{}

	res, err := optimize.Minimize(prob, make([]float64, n), settings, method)
	if err != nil {
		return nil, fmt.Errorf("lbfgs minimization, %w", err)
	}
	if err := res.Status.Err(); err != nil {
		return nil, fmt.Errorf("lbfgs minimization status, %w", err)
	}

	p.converged = true
	beta := make([]float64, len(res.X))
	copy(beta, res.X)
	return beta, nil
}

// solveNormal solves the weighted normal equations, (XᵀWX)b = XᵀWr, for b
// with W a diagonal of per-row weights. A design with linearly dependent
// columns, or one holding non-finite values from an overflowed link, has no
// usable inverse and returns ErrSingularDesign.
func solveNormal(x mat.Matrix, w, r []float64) ([]float64, error) {
	wx, err := mat_.ScaleRows(w, x)
	if err != nil {
		return nil, err
	}

	var xtwx mat.Dense
	xtwx.Mul(x.T(), wx)
	if !isFinite(xtwx.RawMatrix().Data) {
		return nil, fmt.Errorf("normal equations are not finite, %w", ErrSingularDesign)
	}

	var inv mat.Dense
	if err := inv.Inverse(&xtwx); err != nil {
		return nil, fmt.Errorf("%v, %w", err, ErrSingularDesign)
	}

	wr := floatsunrolled.MulTo(nil, w, r)
	var xtwr mat.Dense
	xtwr.Mul(x.T(), mat.NewDense(len(wr), 1, wr))

	var bMx mat.Dense
	bMx.Mul(&inv, &xtwr)
	return mat.Col(nil, 0, &bMx), nil
}

func isFinite(s []float64) bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Predict returns the expected count per design row, exp(x·B)
func (p *PoissonRegression) Predict(x mat.Matrix) ([]float64, error) {
	if p.opt == nil {
		return nil, ErrNoOptions
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}
	if p.coef == nil {
		return nil, ErrUntrainedModel
	}

	coef := p.coef
	if p.opt.FitIntercept {
		coef = append([]float64{p.intercept}, p.coef...)

		m, _ := x.Dims()
		ones := make([]float64, m)
		floats.AddConst(1.0, ones)
		onesMx := mat.NewDense(1, m, ones)
		xT := x.T()

		var xWithOnes mat.Dense
		xWithOnes.Stack(onesMx, xT)
		x = xWithOnes.T()
	}
	n := len(coef)

	_, xn := x.Dims()
	if xn != n {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", xn, n, ErrFeatureLenMismatch)
	}

	xT := x.T()
	coefMx := mat.NewDense(1, n, coef)

	var res mat.Dense
	res.Mul(coefMx, xT)

	rate := res.RawRowView(0)
	return floatsunrolled.ExpTo(rate, rate), nil
}

// Score computes the coefficient of determination of the prediction
func (p *PoissonRegression) Score(x, y mat.Matrix) (float64, error) {
	if p.opt == nil {
		return 0.0, ErrNoOptions
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()

	ym, _ := y.Dims()
	if m != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	res, err := p.Predict(x)
	if err != nil {
		return 0.0, err
	}

	ySlice := mat.Col(nil, 0, y)

	score := stat.RSquaredFrom(res, ySlice, nil)
	if math.IsNaN(score) {
		score = 1.0
	}

	return score, nil
}

// Intercept returns the computed intercept if FitIntercept is set to true. Defaults to 0.0 if not set.
func (p *PoissonRegression) Intercept() float64 {
	return p.intercept
}

// Coef returns a slice of the trained coefficients in the same order of the training feature Matrix by column.
func (p *PoissonRegression) Coef() []float64 {
	c := make([]float64, len(p.coef))
	copy(c, p.coef)
	return c
}

// Converged reports whether the last Fit stopped by meeting its tolerance
// rather than exhausting the iteration budget.
func (p *PoissonRegression) Converged() bool {
	return p.converged
}
