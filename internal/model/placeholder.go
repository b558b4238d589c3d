package model

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/water-leak-service/internal/domain"
)

// PlaceholderSamples is the size of the synthetic training set used when no
// trained artifact exists.
const PlaceholderSamples = 10

// NewPlaceholderClassifier fits a logistic regression on uniform random
// features and labels. Labels are redrawn until both classes are present.
func NewPlaceholderClassifier(name string, schema domain.Schema, rng *rand.Rand, now time.Time) (*Artifact, error) {
	X := uniformMatrix(rng, PlaceholderSamples, schema.Len())
	y := make([]float64, PlaceholderSamples)
	for {
		positives := 0
		for i := range y {
			y[i] = float64(rng.IntN(2))
			positives += int(y[i])
		}
		if positives > 0 && positives < len(y) {
			break
		}
	}

	clf, err := FitLogisticRegression(X, y)
	if err != nil {
		return nil, fmt.Errorf("fit placeholder classifier: %w", err)
	}
	return &Artifact{
		Name:      name,
		Kind:      KindLogisticRegression,
		Features:  schema.Names(),
		CreatedAt: now.UTC(),
		Logistic:  clf,
	}, nil
}

// NewPlaceholderRegressor fits a mean regressor on uniform random targets.
func NewPlaceholderRegressor(name string, schema domain.Schema, rng *rand.Rand, now time.Time) (*Artifact, error) {
	X := uniformMatrix(rng, PlaceholderSamples, schema.Len())
	y := make([]float64, PlaceholderSamples)
	for i := range y {
		y[i] = rng.Float64()
	}

	reg, err := FitMeanRegressor(X, y)
	if err != nil {
		return nil, fmt.Errorf("fit placeholder regressor: %w", err)
	}
	return &Artifact{
		Name:      name,
		Kind:      KindMeanRegressor,
		Features:  schema.Names(),
		CreatedAt: now.UTC(),
		Mean:      reg,
	}, nil
}

func uniformMatrix(rng *rand.Rand, rows, cols int) [][]float64 {
	X := make([][]float64, rows)
	for i := range X {
		X[i] = make([]float64, cols)
		for j := range X[i] {
			X[i][j] = rng.Float64()
		}
	}
	return X
}
