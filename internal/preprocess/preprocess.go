// Package preprocess turns raw sensor observations into the normalized
// feature table used for training.
package preprocess

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/water-leak-service/internal/dataset"
	"github.com/couchcryptid/water-leak-service/internal/domain"
)

// ErrEmpty is returned when a sensor file has a header but no rows.
var ErrEmpty = errors.New("no observations")

// Preprocess reads the sensor file at path and returns one feature vector and
// one leak label per row, plus the statistics used for normalization.
func Preprocess(path string) ([]domain.FeatureVector, []int, domain.NormalizationStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, domain.NormalizationStats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	obs, err := dataset.ReadObservations(f)
	if err != nil {
		return nil, nil, domain.NormalizationStats{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Observations(obs)
}

// Observations z-scores flow rate and pressure against the mean and sample
// standard deviation of the whole slice and takes the hour from each
// timestamp.
func Observations(obs []domain.SensorObservation) ([]domain.FeatureVector, []int, domain.NormalizationStats, error) {
	if len(obs) == 0 {
		return nil, nil, domain.NormalizationStats{}, ErrEmpty
	}

	flows := make([]float64, len(obs))
	pressures := make([]float64, len(obs))
	for i, o := range obs {
		flows[i] = o.FlowRate
		pressures[i] = o.Pressure
	}

	stats := domain.NormalizationStats{Rows: len(obs)}
	stats.FlowMean, stats.FlowStd = stat.MeanStdDev(flows, nil)
	stats.PressureMean, stats.PressureStd = stat.MeanStdDev(pressures, nil)

	features := make([]domain.FeatureVector, len(obs))
	labels := make([]int, len(obs))
	for i, o := range obs {
		features[i] = domain.FeatureVector{
			FlowRateNorm: zscore(o.FlowRate, stats.FlowMean, stats.FlowStd),
			PressureNorm: zscore(o.Pressure, stats.PressureMean, stats.PressureStd),
			Hour:         float64(o.Timestamp.Hour()),
		}
		labels[i] = o.Leak
	}
	return features, labels, stats, nil
}

// zscore maps values of a constant or single-row column to 0.
func zscore(v, mean, std float64) float64 {
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return (v - mean) / std
}
