package ratemap

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Model represents a serializeable format of a fitted group Poisson GLM
// storing the fit options, the lag time of each regressor, and the per-unit
// coefficients with their fit scores
type Model struct {
	Options *Options        `json:"options"`
	Lags    []time.Duration `json:"lags"`
	Units   []UnitWeights   `json:"units"`
}

// UnitWeights stores the fit coefficients for a single unit. Regressors are
// ordered like the model lags, oldest first and the current bin last.
// Artifacts lists the training grid bins censored during fitting.
type UnitWeights struct {
	ID         int       `json:"id"`
	Offset     float64   `json:"offset"`
	Regressors []float64 `json:"regressors"`
	Converged  bool      `json:"converged"`
	Artifacts  []int     `json:"artifacts,omitempty"`
	Scores     *Scores   `json:"scores,omitempty"`
}

// TablePrint writes a human readable summary of the model
func (m Model) TablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Poisson GLM:\n"); err != nil {
		return err
	}

	if m.Options != nil {
		if _, err := fmt.Fprintf(w, "  Bin Size: %s    Window Size: %s\n",
			m.Options.BinSize, m.Options.WindowSize); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  Solver: %s    Iterations: %d    Tolerance: %g\n",
			m.Options.Solver, m.Options.Iterations, m.Options.Tolerance); err != nil {
			return err
		}
	}

	return m.unitsTablePrint(w)
}

func (m Model) unitsTablePrint(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Units:\n"); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "  ID\tOffset\tConverged\tR2\tMSE\tMAPE\t\n"); err != nil {
		return err
	}
	for _, u := range m.Units {
		r2, mse, mape := "...", "...", "..."
		if u.Scores != nil {
			r2 = fmt.Sprintf("%.3f", u.Scores.R2)
			mse = fmt.Sprintf("%.3f", u.Scores.MSE)
			mape = fmt.Sprintf("%.3f", u.Scores.MAPE)
		}
		if _, err := fmt.Fprintf(tbl, "  %d\t%.3f\t%t\t%s\t%s\t%s\t\n",
			u.ID, u.Offset, u.Converged, r2, mse, mape); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
