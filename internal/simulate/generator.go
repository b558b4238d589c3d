// Package simulate produces synthetic sensor time series with rare injected
// leak events.
package simulate

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/couchcryptid/water-leak-service/internal/dataset"
	"github.com/couchcryptid/water-leak-service/internal/domain"
)

// Distribution parameters of the simulated readings.
const (
	FlowRateMean   = 80.0
	FlowRateStdDev = 10.0
	PressureMean   = 60.0
	PressureStdDev = 5.0
	LeakRate       = 0.05

	// DefaultDurationMinutes is one simulated day.
	DefaultDurationMinutes = 1440
)

// DefaultPath is where the generator writes and the preprocessor reads.
const DefaultPath = "data/sensor_data.csv"

// seedMix spreads one user seed over both PCG state words.
const seedMix = 0x9e3779b97f4a7c15

// SeededSource returns a deterministic source for seed.
func SeededSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^seedMix)
}

// Generator draws observations one minute apart, ending at the clock's now.
type Generator struct {
	clock clockwork.Clock
	flow  distuv.Normal
	press distuv.Normal
	leak  distuv.Bernoulli
}

// NewGenerator creates a Generator. A nil clock uses real time and a nil src
// uses a randomly seeded source.
func NewGenerator(clock clockwork.Clock, src rand.Source) *Generator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{
		clock: clock,
		flow:  distuv.Normal{Mu: FlowRateMean, Sigma: FlowRateStdDev, Src: src},
		press: distuv.Normal{Mu: PressureMean, Sigma: PressureStdDev, Src: src},
		leak:  distuv.Bernoulli{P: LeakRate, Src: src},
	}
}

// Generate returns durationMinutes observations in ascending time order. The
// last timestamp is the current time.
func (g *Generator) Generate(durationMinutes int) ([]domain.SensorObservation, error) {
	if durationMinutes <= 0 {
		return nil, errors.New("duration must be at least one minute")
	}

	end := g.clock.Now()
	obs := make([]domain.SensorObservation, durationMinutes)
	for i := range obs {
		obs[i].Timestamp = end.Add(-time.Duration(durationMinutes-1-i) * time.Minute)
	}
	// Columns are drawn one after another, matching a vectorized draw per column.
	for i := range obs {
		obs[i].FlowRate = g.flow.Rand()
	}
	for i := range obs {
		obs[i].Pressure = g.press.Rand()
	}
	for i := range obs {
		obs[i].Leak = int(g.leak.Rand())
	}
	return obs, nil
}

// GenerateFile generates observations and writes them as CSV to path,
// creating the parent directory.
func (g *Generator) GenerateFile(path string, durationMinutes int) ([]domain.SensorObservation, error) {
	obs, err := g.Generate(durationMinutes)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if err := dataset.WriteObservations(f, obs); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close %s: %w", path, err)
	}
	return obs, nil
}
