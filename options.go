package ratemap

import (
	"log/slog"
	"time"

	"github.com/nvandam/ratemap/glm"
)

const (
	DefaultBinSize    = 10 * time.Millisecond
	DefaultWindowSize = 100 * time.Millisecond
)

// ArtifactOptions configures the per-unit censoring of artifact bins, e.g.
// electrical noise registering as implausible event counts. After each fit
// pass the bins whose residuals lie beyond the Tukey fences are dropped and
// the unit refits on the remaining bins.
type ArtifactOptions struct {
	// NumPasses caps how many censor-and-refit rounds to run. Passes stop
	// early once no new artifact bins turn up.
	NumPasses int `json:"num_passes"`

	// UpperPercentile and LowerPercentile set the residual values the Tukey
	// fences are drawn from.
	UpperPercentile float64 `json:"upper_percentile"`
	LowerPercentile float64 `json:"lower_percentile"`

	// TukeyFactor widens the fences by this many inner ranges. 0 flags
	// everything beyond the percentiles themselves.
	TukeyFactor float64 `json:"tukey_factor"`
}

// NewArtifactOptions returns a default set of artifact censoring options
func NewArtifactOptions() *ArtifactOptions {
	return &ArtifactOptions{
		NumPasses:       3,
		UpperPercentile: 0.9,
		LowerPercentile: 0.1,
		TukeyFactor:     1.0,
	}
}

// Options configures the group Poisson GLM fit. The bin size sets the grid
// every unit's events and the feature are resampled onto, and the window size
// sets how much feature history each bin regresses against.
type Options struct {
	// BinSize is the width of each count bin. Must be positive.
	BinSize time.Duration `json:"bin_size"`

	// WindowSize is the span of feature history entering the design matrix.
	// Must cover at least one bin. The sign is ignored.
	WindowSize time.Duration `json:"window_size"`

	// Iterations is the maximum number of solver steps per unit.
	Iterations int `json:"iterations"`

	// Tolerance stops a unit's solver once the summed relative coefficient
	// change of an update falls below it.
	Tolerance float64 `json:"tolerance"`

	// Solver picks the per-unit fitting scheme, defaulting to IRLS.
	Solver glm.Solver `json:"solver"`

	// Parallelization sets how many unit fits to run in parallel. More will
	// increase memory and compute usage. Values below 1 run sequentially.
	Parallelization int `json:"parallelization"`

	// ArtifactOptions enables censoring of artifact bins between fit passes.
	// Nil fits every unit once on all of its bins.
	ArtifactOptions *ArtifactOptions `json:"artifact_options,omitempty"`

	// Logger receives per-unit progress and failure records. Nil uses
	// slog.Default().
	Logger *slog.Logger `json:"-"`
}

// NewDefaultOptions returns a default set of group fit options
func NewDefaultOptions() *Options {
	return &Options{
		BinSize:         DefaultBinSize,
		WindowSize:      DefaultWindowSize,
		Iterations:      glm.DefaultIterations,
		Tolerance:       glm.DefaultTolerance,
		Solver:          glm.SolverIRLS,
		Parallelization: 1,
	}
}

// Validate runs basic validation on the group fit options
func (o *Options) Validate() (*Options, error) {
	if o == nil {
		o = NewDefaultOptions()
	}

	if _, err := glm.NumLags(o.WindowSize, o.BinSize); err != nil {
		return nil, err
	}

	popt, err := o.poissonOptions().Validate()
	if err != nil {
		return nil, err
	}
	o.Solver = popt.Solver

	if o.Parallelization < 1 {
		o.Parallelization = 1
	}
	return o, nil
}

// poissonOptions maps the group options onto a single unit's solver options.
// The design matrix already carries the intercept column so the solver never
// adds its own.
func (o *Options) poissonOptions() *glm.PoissonOptions {
	return &glm.PoissonOptions{
		Iterations:   o.Iterations,
		Tolerance:    o.Tolerance,
		Solver:       o.Solver,
		FitIntercept: false,
	}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
