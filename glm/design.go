package glm

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	mat_ "github.com/nvandam/ratemap/mat"
)

var (
	ErrNonPositiveBinSize = errors.New("bin size must be positive")
	ErrWindowTooSmall     = errors.New("window is shorter than one bin")
	ErrNoFeature          = errors.New("no feature samples")
)

// NumLags returns the number of history taps a window contributes at the
// given bin width: one tap per whole bin spanned plus the current bin. The
// sign of the window is ignored.
func NumLags(window, bin time.Duration) (int, error) {
	if bin <= 0 {
		return 0, fmt.Errorf("bin size %s, %w", bin, ErrNonPositiveBinSize)
	}
	if window < 0 {
		window = -window
	}
	if window < bin {
		return 0, fmt.Errorf("window %s with bin size %s, %w", window, bin, ErrWindowTooSmall)
	}
	return int(window/bin) + 1, nil
}

// Lags returns the time offset of each history tap relative to the current
// bin, ordered oldest first and ending at zero. These are the timestamps of
// the design matrix columns produced by LagMatrix, intercept excluded.
func Lags(window, bin time.Duration) ([]time.Duration, error) {
	nt, err := NumLags(window, bin)
	if err != nil {
		return nil, err
	}

	lags := make([]time.Duration, 0, nt)
	for i := range nt {
		lags = append(lags, time.Duration(i-nt+1)*bin)
	}
	return lags, nil
}

// LagMatrix builds the regression design for a binned feature. Row i holds
// the feature over the window trailing bin i, oldest tap first and the
// current bin last, with a constant 1.0 intercept column prepended. History
// reaching before the first bin is zero padded so the design keeps one row
// per feature bin.
func LagMatrix(f []float64, window, bin time.Duration) (*mat.Dense, error) {
	nt, err := NumLags(window, bin)
	if err != nil {
		return nil, err
	}
	if len(f) == 0 {
		return nil, ErrNoFeature
	}

	padded := make([]float64, nt-1+len(f))
	copy(padded[nt-1:], f)

	rows := make([][]float64, len(f))
	for i := range f {
		row := make([]float64, nt+1)
		row[0] = 1.0
		copy(row[1:], padded[i:i+nt])
		rows[i] = row
	}
	return mat_.NewDenseFromArray(rows)
}
