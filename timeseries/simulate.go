package timeseries

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateGrid returns n evenly spaced sample times starting at interval/2.
func GenerateGrid(n int, interval time.Duration) []time.Duration {
	t := make([]time.Duration, 0, n)
	for i := range n {
		t = append(t, interval/2+time.Duration(i)*interval)
	}
	return t
}

// Samples is a chainable value slice for building simulated signals.
type Samples []float64

func (s Samples) Add(src Samples) Samples {
	floats.Add(s, src)
	return s
}

func (s Samples) Scale(c float64) Samples {
	floats.Scale(c, s)
	return s
}

// Exp exponentiates in place, turning a simulated log rate into a rate.
func (s Samples) Exp() Samples {
	for i := range s {
		s[i] = math.Exp(s[i])
	}
	return s
}

func GenerateConst(n int, val float64) Samples {
	y := make([]float64, n)
	for i := range y {
		y[i] = val
	}
	return Samples(y)
}

func GenerateWave(t []time.Duration, amp, periodSec, order, phaseSec float64) Samples {
	y := make([]float64, 0, len(t))
	for _, ti := range t {
		val := amp * math.Sin(2.0*math.Pi*order/periodSec*(ti.Seconds()+phaseSec))
		y = append(y, val)
	}
	return Samples(y)
}

func GenerateNoise(t []time.Duration, scale float64, seed uint64) Samples {
	rnd := rand.New(rand.NewPCG(seed, seed))
	y := make([]float64, 0, len(t))
	for range t {
		y = append(y, rnd.NormFloat64()*scale)
	}
	return Samples(y)
}

// GeneratePoissonSpikes draws an inhomogeneous Poisson spike train from a
// rate series given in events per second, thinning one Bernoulli draw per
// sample. The sampling interval must be short relative to the rate for the
// approximation to hold.
func GeneratePoissonSpikes(rate *Series, seed uint64) SpikeTrain {
	if rate == nil || len(rate.T) < 2 {
		return nil
	}

	rnd := rand.New(rand.NewPCG(seed, seed))
	var st SpikeTrain
	for i, ti := range rate.T {
		var dt time.Duration
		if i < len(rate.T)-1 {
			dt = rate.T[i+1] - ti
		} else {
			dt = ti - rate.T[i-1]
		}
		p := rate.V[i] * dt.Seconds()
		if p < 0 {
			continue
		}
		if p > 1 {
			p = 1
		}
		if rnd.Float64() < p {
			st = append(st, ti)
		}
	}
	return st
}
