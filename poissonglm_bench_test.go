package ratemap

import (
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"

	"github.com/nvandam/ratemap/timeseries"
)

var benchPredictRes *timeseries.Frame

func benchSession() (timeseries.Group, *timeseries.Series, *Options) {
	feature := holdNoiseFeature(60000, time.Millisecond, 10*time.Millisecond, 0.5, 101)
	group := timeseries.Group{
		1: modulatedTrain(feature, math.Log(20), 1.2, 102),
		2: modulatedTrain(feature, math.Log(15), -0.7, 103),
		3: modulatedTrain(feature, math.Log(25), 0.5, 104),
		4: modulatedTrain(feature, math.Log(10), 0.9, 105),
	}

	opt := NewDefaultOptions()
	opt.WindowSize = 50 * time.Millisecond
	opt.Parallelization = 4
	opt.ArtifactOptions = NewArtifactOptions()
	opt.Logger = slog.New(slog.DiscardHandler)
	return group, feature, opt
}

func BenchmarkTrainToModel(b *testing.B) {
	group, feature, opt := benchSession()

	var p *PoissonGLM
	var err error

	b.ResetTimer()
	for b.Loop() {
		p, err = New(opt)
		if err != nil {
			panic(err)
		}

		if err := p.Fit(group, feature, nil); err != nil {
			panic(err)
		}
	}

	m, err := p.Model()
	if err != nil {
		panic(err)
	}

	bytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		panic(err)
	}

	if err := os.WriteFile("benchmark_model.json", bytes, 0o644); err != nil {
		panic(err)
	}
}

func BenchmarkPredictFromModel(b *testing.B) {
	bytes, err := os.ReadFile("benchmark_model.json")
	if err != nil {
		panic(err)
	}

	var model Model
	if err := json.Unmarshal(bytes, &model); err != nil {
		panic(err)
	}
	p, err := NewFromModel(model)
	if err != nil {
		panic(err)
	}

	feature := holdNoiseFeature(10000, time.Millisecond, 10*time.Millisecond, 0.5, 106)

	b.ResetTimer()
	defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	for b.Loop() {
		benchPredictRes, err = p.PredictRates(feature, nil)
		if err != nil {
			panic(err)
		}
	}
}
