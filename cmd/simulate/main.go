// Command simulate writes a synthetic sensor time series with injected leak
// events to CSV.
//
// Usage:
//
//	go run ./cmd/simulate -out data/sensor_data.csv -minutes 1440
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/couchcryptid/water-leak-service/internal/simulate"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger); err != nil {
		logger.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	out := flag.String("out", simulate.DefaultPath, "output CSV path")
	minutes := flag.Int("minutes", simulate.DefaultDurationMinutes, "number of one-minute observations")
	seed := flag.Uint64("seed", 0, "random seed; 0 draws a random one")
	flag.Parse()

	if *minutes <= 0 {
		flag.Usage()
		return fmt.Errorf("-minutes must be positive, got %d", *minutes)
	}

	var src rand.Source
	if *seed != 0 {
		src = simulate.SeededSource(*seed)
	}

	obs, err := simulate.NewGenerator(nil, src).GenerateFile(*out, *minutes)
	if err != nil {
		return err
	}

	leaks := 0
	for _, o := range obs {
		leaks += o.Leak
	}
	logger.Info("sensor data written",
		"path", *out,
		"rows", len(obs),
		"leaks", leaks,
		"start", obs[0].Timestamp,
		"end", obs[len(obs)-1].Timestamp,
	)
	return nil
}
