package ratemap

import (
	"fmt"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/nvandam/ratemap/timeseries"
	"github.com/nvandam/ratemap/tuning"
)

// LineFrame generates an echart multi-line chart for the columns of a frame,
// one series per unit over the frame timestamps in seconds.
func LineFrame(title string, f *timeseries.Frame) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(durationsToSeconds(f.T))
	for j, id := range f.Keys {
		lineData := make([]opts.LineData, 0, len(f.V[j]))
		for _, v := range f.V[j] {
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line = line.AddSeries(fmt.Sprintf("unit %d", id), lineData)
	}

	return line
}

// LineUnitFit generates an echart line chart comparing one unit's observed
// bin counts against the model's expected counts.
func LineUnitFit(title string, t []time.Duration, observed, expected []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	lineDataObserved := make([]opts.LineData, 0, len(observed))
	lineDataExpected := make([]opts.LineData, 0, len(expected))

	for i := 0; i < len(observed); i++ {
		lineDataObserved = append(lineDataObserved, opts.LineData{Value: observed[i]})
		lineDataExpected = append(lineDataExpected, opts.LineData{Value: expected[i]})
	}

	line.SetXAxis(durationsToSeconds(t)).
		AddSeries("Observed", lineDataObserved).
		AddSeries("Expected", lineDataExpected)
	return line
}

// LineCurves generates an echart line chart of 1d tuning curves, one series
// per unit over the feature bin centers.
func LineCurves(title string, c *tuning.Curves) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
	)

	line = line.SetXAxis(c.Centers)
	for _, id := range c.Keys {
		rates := c.Rates[id]
		lineData := make([]opts.LineData, 0, len(rates))
		for _, v := range rates {
			lineData = append(lineData, opts.LineData{Value: v})
		}
		line = line.AddSeries(fmt.Sprintf("unit %d", id), lineData)
	}

	return line
}

func durationsToSeconds(ts []time.Duration) []float64 {
	s := make([]float64, 0, len(ts))
	for _, t := range ts {
		s = append(s, t.Seconds())
	}
	return s
}
