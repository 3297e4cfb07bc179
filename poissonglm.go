// Package ratemap relates grouped spike trains to behavioral features. It
// fits per-unit Poisson generalized linear models against a shared lagged
// feature design and packages the coefficients, predictions, and fit scores
// into time indexed containers.
package ratemap

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/components"
	"gonum.org/v1/gonum/mat"

	"github.com/nvandam/ratemap/floatsunrolled"
	"github.com/nvandam/ratemap/glm"
	mat_ "github.com/nvandam/ratemap/mat"
	"github.com/nvandam/ratemap/stats"
	"github.com/nvandam/ratemap/timeseries"
)

var (
	ErrNoUnits          = errors.New("group has no units")
	ErrNoFeature        = errors.New("no feature samples")
	ErrAllUnitsFailed   = errors.New("all units failed to fit")
	ErrUntrainedModel   = errors.New("model has not been trained")
	ErrNoOptionsInModel = errors.New("no options set in model")
	ErrRegressorLen     = errors.New("unit regressors do not match the lag count")
	ErrInsufficientBins = errors.New("insufficient bins left after artifact censoring")
)

// PoissonGLM fits one Poisson regression per unit relating its binned event
// counts to the recent history of a shared feature, E[count] = exp(X·B). All
// units share the same lagged design matrix and fit independently.
type PoissonGLM struct {
	opt *Options

	// lag time of each regressor relative to its bin, oldest first
	lags []time.Duration

	mu        sync.Mutex
	offsets   map[int]float64
	coef      map[int][]float64
	converged map[int]bool
	artifacts map[int][]int
	fitErrs   map[int]error

	counts     *timeseries.Frame
	regressors *timeseries.Frame
	prediction *timeseries.Frame
	scores     map[int]*Scores
	trained    bool
}

// New creates a new instance of a PoissonGLM using the provided options. If
// no options are provided a default is used.
func New(opt *Options) (*PoissonGLM, error) {
	opt, err := opt.Validate()
	if err != nil {
		return nil, err
	}

	lags, err := glm.Lags(opt.WindowSize, opt.BinSize)
	if err != nil {
		return nil, err
	}

	return &PoissonGLM{
		opt:  opt,
		lags: lags,
	}, nil
}

// NewFromModel creates a new instance of PoissonGLM from a pre-existing
// model. This should be generated from a previous call to Model() and can be
// used for predictions immediately without training.
func NewFromModel(model Model) (*PoissonGLM, error) {
	if model.Options == nil {
		return nil, ErrNoOptionsInModel
	}
	if len(model.Units) == 0 {
		return nil, ErrNoUnits
	}

	p, err := New(model.Options)
	if err != nil {
		return nil, err
	}

	p.offsets = make(map[int]float64, len(model.Units))
	p.coef = make(map[int][]float64, len(model.Units))
	p.converged = make(map[int]bool, len(model.Units))
	p.artifacts = make(map[int][]int)
	p.fitErrs = make(map[int]error)
	p.scores = make(map[int]*Scores, len(model.Units))
	for _, u := range model.Units {
		if len(u.Regressors) != len(p.lags) {
			return nil, fmt.Errorf("unit %d has %d regressors for %d lags, %w",
				u.ID, len(u.Regressors), len(p.lags), ErrRegressorLen)
		}

		coef := make([]float64, len(u.Regressors))
		copy(coef, u.Regressors)
		p.offsets[u.ID] = u.Offset
		p.coef[u.ID] = coef
		p.converged[u.ID] = u.Converged
		if len(u.Artifacts) > 0 {
			artifacts := make([]int, len(u.Artifacts))
			copy(artifacts, u.Artifacts)
			p.artifacts[u.ID] = artifacts
		}
		if u.Scores != nil {
			scores := *u.Scores
			p.scores[u.ID] = &scores
		}
	}

	regressors, err := p.regressorsFrame(p.fitUnits())
	if err != nil {
		return nil, err
	}
	p.regressors = regressors
	p.trained = true
	return p, nil
}

// Fit resamples the feature and every unit's events onto a shared bin grid
// over ep and fits one Poisson regression per unit against the lagged feature
// design. A nil ep uses the feature's support. A unit whose solve fails is
// recorded in FitErrors and excluded from the results without stopping the
// remaining units; Fit only errors when no unit fits at all.
func (p *PoissonGLM) Fit(group timeseries.Group, feature *timeseries.Series, ep timeseries.EpochSet) error {
	if len(group) == 0 {
		return ErrNoUnits
	}
	if feature == nil || feature.Len() == 0 {
		return ErrNoFeature
	}
	if ep == nil {
		ep = feature.Support()
	}

	binned, err := feature.BinMean(p.opt.BinSize, ep)
	if err != nil {
		return fmt.Errorf("unable to resample feature, %w", err)
	}

	counts, err := group.Count(p.opt.BinSize, ep)
	if err != nil {
		return fmt.Errorf("unable to bin unit events, %w", err)
	}

	x, err := glm.LagMatrix(binned.V, p.opt.WindowSize, p.opt.BinSize)
	if err != nil {
		return fmt.Errorf("unable to build design matrix, %w", err)
	}

	p.trained = false
	p.counts = counts
	p.regressors = nil
	p.prediction = nil
	p.scores = nil
	p.offsets = make(map[int]float64, len(group))
	p.coef = make(map[int][]float64, len(group))
	p.converged = make(map[int]bool, len(group))
	p.artifacts = make(map[int][]int)
	p.fitErrs = make(map[int]error)

	sem := make(chan struct{}, p.opt.Parallelization)
	var wg sync.WaitGroup
	for _, id := range counts.Keys {
		y, _ := counts.Col(id)

		sem <- struct{}{}
		wg.Add(1)

		go p.runUnitFit(id, x, y, &wg, sem)
	}
	wg.Wait()

	if len(p.offsets) == 0 {
		return fmt.Errorf("%d units, %w", counts.NumCols(), ErrAllUnitsFailed)
	}
	p.trained = true

	return p.packageResults(x, counts)
}

func (p *PoissonGLM) runUnitFit(id int, x mat.Matrix, y []float64, wg *sync.WaitGroup, sem chan struct{}) {
	defer func() {
		wg.Done()
		<-sem
	}()

	logger := p.opt.logger()
	logger.Info("fitting poisson glm", "unit", id)

	model, err := glm.NewPoissonRegression(p.opt.poissonOptions())
	if err != nil {
		logger.Error("unable to initialize poisson regression", "unit", id, "error", err.Error())
		p.mu.Lock()
		p.fitErrs[id] = err
		p.mu.Unlock()
		return
	}

	artifacts, err := p.fitUnitWithArtifacts(model, x, y)
	if err != nil {
		logger.Error("unable to fit poisson regression", "unit", id, "error", err.Error())
		p.mu.Lock()
		p.fitErrs[id] = err
		p.mu.Unlock()
		return
	}

	// the design's first column is the intercept, so the leading coefficient
	// is the unit's offset and the rest are its lag weights
	coef := model.Coef()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.offsets[id] = coef[0]
	p.coef[id] = coef[1:]
	p.converged[id] = model.Converged()
	if len(artifacts) > 0 {
		p.artifacts[id] = artifacts
	}
}

// fitUnitWithArtifacts fits a unit, then alternates between flagging bins
// whose count residual falls outside the Tukey fences and refitting without
// them, up to ArtifactOptions.NumPasses refits. It returns the censored bin
// indexes relative to the training grid. With no artifact options the single
// initial fit stands.
func (p *PoissonGLM) fitUnitWithArtifacts(model *glm.PoissonRegression, x mat.Matrix, y []float64) ([]int, error) {
	numPasses := 0
	if p.opt.ArtifactOptions != nil {
		numPasses = p.opt.ArtifactOptions.NumPasses
	}

	// bins maps each working row back to its bin on the training grid
	bins := make([]int, len(y))
	for i := range bins {
		bins[i] = i
	}
	var artifacts []int

	wx := x
	wy := y
	for pass := 0; ; pass++ {
		if err := model.Fit(wx, mat.NewDense(len(wy), 1, wy)); err != nil {
			return nil, err
		}
		if p.opt.ArtifactOptions == nil || pass >= numPasses {
			break
		}

		expected, err := model.Predict(wx)
		if err != nil {
			return nil, err
		}
		residual := floatsunrolled.SubTo(nil, wy, expected)
		outliers := stats.DetectOutliers(
			residual,
			p.opt.ArtifactOptions.LowerPercentile,
			p.opt.ArtifactOptions.UpperPercentile,
			p.opt.ArtifactOptions.TukeyFactor,
		)
		if len(outliers) == 0 {
			break
		}
		if len(wy)-len(outliers) < len(p.lags)+1 {
			return nil, fmt.Errorf("%d bins left for %d regressors, %w",
				len(wy)-len(outliers), len(p.lags)+1, ErrInsufficientBins)
		}

		for _, idx := range outliers {
			artifacts = append(artifacts, bins[idx])
		}
		wx, wy, bins = dropRows(wx, wy, bins, outliers)
	}

	sort.Ints(artifacts)
	return artifacts, nil
}

// dropRows copies x, y, and the bin mapping without the rows listed in drop.
func dropRows(x mat.Matrix, y []float64, bins, drop []int) (mat.Matrix, []float64, []int) {
	dropSet := make(map[int]struct{}, len(drop))
	for _, idx := range drop {
		dropSet[idx] = struct{}{}
	}

	m, n := x.Dims()
	kept := make([]float64, 0, (m-len(drop))*n)
	keptY := make([]float64, 0, m-len(drop))
	keptBins := make([]int, 0, m-len(drop))
	for i := 0; i < m; i++ {
		if _, exists := dropSet[i]; exists {
			continue
		}
		for j := 0; j < n; j++ {
			kept = append(kept, x.At(i, j))
		}
		keptY = append(keptY, y[i])
		keptBins = append(keptBins, bins[i])
	}
	return mat.NewDense(len(keptY), n, kept), keptY, keptBins
}

// packageResults assembles the regressor frame, the predicted rate frame,
// and the per-unit scores over the training grid.
func (p *PoissonGLM) packageResults(x mat.Matrix, counts *timeseries.Frame) error {
	units := p.fitUnits()

	regressors, err := p.regressorsFrame(units)
	if err != nil {
		return err
	}

	expected, err := p.expectedCounts(x, units)
	if err != nil {
		return err
	}

	// scores compare expected against observed bin counts before any rate
	// scaling, leaving censored bins out
	scores := make(map[int]*Scores, len(units))
	scale := p.opt.BinSize.Seconds()
	predCols := make([][]float64, len(units))
	for j, id := range units {
		observed, _ := counts.Col(id)
		if artifacts := p.artifacts[id]; len(artifacts) > 0 {
			censored := make([]float64, len(observed))
			copy(censored, observed)
			for _, bin := range artifacts {
				censored[bin] = math.NaN()
			}
			observed = censored
		}
		s, err := NewScores(expected[j], observed)
		if err != nil {
			return err
		}
		scores[id] = s

		predCols[j] = floatsunrolled.ScaleTo(nil, scale, expected[j])
	}

	prediction, err := timeseries.NewFrame(counts.T, units, predCols)
	if err != nil {
		return err
	}

	p.regressors = regressors
	p.scores = scores
	p.prediction = prediction
	return nil
}

// expectedCounts computes exp(x·B) for every requested unit with a single
// matrix product, returning one expected count column per unit.
func (p *PoissonGLM) expectedCounts(x mat.Matrix, units []int) ([][]float64, error) {
	_, n := x.Dims()

	cols := make([][]float64, 0, len(units))
	for _, id := range units {
		b := make([]float64, 0, n)
		b = append(b, p.offsets[id])
		b = append(b, p.coef[id]...)
		cols = append(cols, b)
	}
	bMx, err := mat_.NewDenseFromColumns(cols)
	if err != nil {
		return nil, err
	}

	var eta mat.Dense
	eta.Mul(x, bMx)

	out := make([][]float64, len(units))
	for j := range units {
		col := mat.Col(nil, j, &eta)
		out[j] = floatsunrolled.ExpTo(col, col)
	}
	return out, nil
}

// regressorsFrame lays the per-unit lag weights onto the lag time grid,
// oldest lag first, one column per unit.
func (p *PoissonGLM) regressorsFrame(units []int) (*timeseries.Frame, error) {
	cols := make([][]float64, 0, len(units))
	for _, id := range units {
		cols = append(cols, p.coef[id])
	}
	return timeseries.NewFrame(p.lags, units, cols)
}

func (p *PoissonGLM) fitUnits() []int {
	units := make([]int, 0, len(p.offsets))
	for id := range p.offsets {
		units = append(units, id)
	}
	sort.Ints(units)
	return units
}

// PredictRates applies the trained coefficients to new feature data,
// returning the predicted rate frame over that data's bin grid with one
// column per fitted unit.
func (p *PoissonGLM) PredictRates(feature *timeseries.Series, ep timeseries.EpochSet) (*timeseries.Frame, error) {
	if !p.trained {
		return nil, ErrUntrainedModel
	}
	if feature == nil || feature.Len() == 0 {
		return nil, ErrNoFeature
	}
	if ep == nil {
		ep = feature.Support()
	}

	binned, err := feature.BinMean(p.opt.BinSize, ep)
	if err != nil {
		return nil, fmt.Errorf("unable to resample feature, %w", err)
	}
	x, err := glm.LagMatrix(binned.V, p.opt.WindowSize, p.opt.BinSize)
	if err != nil {
		return nil, fmt.Errorf("unable to build design matrix, %w", err)
	}

	units := p.fitUnits()
	expected, err := p.expectedCounts(x, units)
	if err != nil {
		return nil, err
	}

	scale := p.opt.BinSize.Seconds()
	for j := range expected {
		floatsunrolled.ScaleTo(expected[j], scale, expected[j])
	}
	return timeseries.NewFrame(binned.T, units, expected)
}

// DesignVIF measures multicollinearity between the lagged feature columns
// that Fit would build over this data, returning the variance inflation
// factor of each column keyed by its lag time. A factor far above one means
// the feature history is too self similar at the configured bin size to
// resolve that lag's weight on its own.
func (p *PoissonGLM) DesignVIF(feature *timeseries.Series, ep timeseries.EpochSet) (map[time.Duration]float64, error) {
	if feature == nil || feature.Len() == 0 {
		return nil, ErrNoFeature
	}
	if ep == nil {
		ep = feature.Support()
	}

	binned, err := feature.BinMean(p.opt.BinSize, ep)
	if err != nil {
		return nil, fmt.Errorf("unable to resample feature, %w", err)
	}
	x, err := glm.LagMatrix(binned.V, p.opt.WindowSize, p.opt.BinSize)
	if err != nil {
		return nil, fmt.Errorf("unable to build design matrix, %w", err)
	}

	// leave out the leading intercept column, keeping one column per lag
	m, n := x.Dims()
	vifs, err := stats.VarianceInflationFactor(x.Slice(0, m, 1, n))
	if err != nil {
		return nil, err
	}

	out := make(map[time.Duration]float64, len(vifs))
	for i, lag := range p.lags {
		out[lag] = vifs[i]
	}
	return out, nil
}

// Offsets returns the fitted intercept per unit
func (p *PoissonGLM) Offsets() map[int]float64 {
	offsets := make(map[int]float64, len(p.offsets))
	for id, v := range p.offsets {
		offsets[id] = v
	}
	return offsets
}

// Lags returns the time offset of each regressor relative to its bin,
// ordered oldest first and ending at zero
func (p *PoissonGLM) Lags() []time.Duration {
	lags := make([]time.Duration, len(p.lags))
	copy(lags, p.lags)
	return lags
}

// Regressors returns the fitted lag weights as a lag-major frame with one
// column per unit
func (p *PoissonGLM) Regressors() *timeseries.Frame {
	return p.regressors
}

// Prediction returns the predicted rate frame over the training bin grid
func (p *PoissonGLM) Prediction() *timeseries.Frame {
	return p.prediction
}

// TrainingCounts returns the observed per-bin counts the model was fit
// against
func (p *PoissonGLM) TrainingCounts() *timeseries.Frame {
	return p.counts
}

// Scores returns the per-unit fit scores of the training data
func (p *PoissonGLM) Scores() map[int]Scores {
	scores := make(map[int]Scores, len(p.scores))
	for id, s := range p.scores {
		scores[id] = *s
	}
	return scores
}

// ArtifactBins returns per unit the training grid bins censored as artifacts
// during fitting. Units with no censored bins are absent.
func (p *PoissonGLM) ArtifactBins() map[int][]int {
	artifacts := make(map[int][]int, len(p.artifacts))
	for id, bins := range p.artifacts {
		c := make([]int, len(bins))
		copy(c, bins)
		artifacts[id] = c
	}
	return artifacts
}

// Converged reports per unit whether its solver met the tolerance within the
// iteration budget
func (p *PoissonGLM) Converged() map[int]bool {
	converged := make(map[int]bool, len(p.converged))
	for id, c := range p.converged {
		converged[id] = c
	}
	return converged
}

// FitErrors returns the per-unit failures of the last Fit. Units recorded
// here are excluded from all results.
func (p *PoissonGLM) FitErrors() map[int]error {
	fitErrs := make(map[int]error, len(p.fitErrs))
	for id, err := range p.fitErrs {
		fitErrs[id] = err
	}
	return fitErrs
}

// Model generates a serializeable representation of the fit options, lag
// times, and per-unit weights. This can be used to initialize a new
// PoissonGLM for immediate predictions skipping the training step.
func (p *PoissonGLM) Model() (Model, error) {
	if !p.trained {
		return Model{}, ErrUntrainedModel
	}

	units := p.fitUnits()
	uws := make([]UnitWeights, 0, len(units))
	for _, id := range units {
		coef := make([]float64, len(p.coef[id]))
		copy(coef, p.coef[id])

		uw := UnitWeights{
			ID:         id,
			Offset:     p.offsets[id],
			Regressors: coef,
			Converged:  p.converged[id],
		}
		if a, exists := p.artifacts[id]; exists {
			artifacts := make([]int, len(a))
			copy(artifacts, a)
			uw.Artifacts = artifacts
		}
		if s, exists := p.scores[id]; exists {
			scores := *s
			uw.Scores = &scores
		}
		uws = append(uws, uw)
	}

	lags := make([]time.Duration, len(p.lags))
	copy(lags, p.lags)

	return Model{
		Options: p.opt,
		Lags:    lags,
		Units:   uws,
	}, nil
}

// PlotOptions configures what PlotFit renders.
type PlotOptions struct {
	// Units limits the per-unit fit charts to these ids. Nil renders every
	// fitted unit.
	Units []int
}

// PlotFit uses the Apache Echarts library to generate an html page showing
// the fitted regressor lag profiles and each unit's predicted against
// observed counts
func (p *PoissonGLM) PlotFit(w io.Writer, opt *PlotOptions) error {
	if !p.trained || p.counts == nil {
		return ErrUntrainedModel
	}

	units := p.fitUnits()
	if opt != nil && opt.Units != nil {
		units = opt.Units
	}

	page := components.NewPage()
	page.AddCharts(LineFrame("Regressor Lag Profiles", p.regressors))

	scale := p.opt.BinSize.Seconds()
	for _, id := range units {
		observed, exists := p.counts.Col(id)
		if !exists {
			continue
		}
		predicted, exists := p.prediction.Col(id)
		if !exists {
			continue
		}

		// the prediction frame is rate scaled, bring it back to counts to
		// compare against the observations
		expected := floatsunrolled.ScaleTo(nil, 1.0/scale, predicted)
		page.AddCharts(LineUnitFit(fmt.Sprintf("Unit %d Fit", id), p.counts.T, observed, expected))
	}
	return page.Render(w)
}
