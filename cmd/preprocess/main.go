// Command preprocess normalizes a sensor CSV into the feature table used for
// training.
//
// Usage:
//
//	go run ./cmd/preprocess -in data/sensor_data.csv -out data/features.csv
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/water-leak-service/internal/dataset"
	"github.com/couchcryptid/water-leak-service/internal/domain"
	"github.com/couchcryptid/water-leak-service/internal/preprocess"
	"github.com/couchcryptid/water-leak-service/internal/simulate"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(logger); err != nil {
		logger.Error("preprocessing failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	in := flag.String("in", simulate.DefaultPath, "sensor CSV to read")
	out := flag.String("out", "data/features.csv", "feature table CSV to write")
	flag.Parse()

	features, labels, stats, err := preprocess.Preprocess(*in)
	if err != nil {
		return err
	}
	logger.Info("normalization statistics",
		"rows", stats.Rows,
		"flow_mean", stats.FlowMean,
		"flow_std", stats.FlowStd,
		"pressure_mean", stats.PressureMean,
		"pressure_std", stats.PressureStd,
	)

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if err := dataset.WriteFeatures(f, domain.FeatureSchema, features, labels); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", *out, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", *out, err)
	}

	logger.Info("feature table written", "path", *out, "rows", len(features), "schema", domain.FeatureSchema.String())
	return nil
}
