// Package model holds the placeholder predictors served by the service and
// the artifact envelope they are persisted in.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/water-leak-service/internal/domain"
)

// Kind identifies the predictor stored in an artifact.
type Kind string

const (
	KindLogisticRegression Kind = "logistic_regression"
	KindMeanRegressor      Kind = "mean_regressor"
)

// Classifier exposes positive-class probabilities.
type Classifier interface {
	PredictProba(X [][]float64) ([]float64, error)
}

// Regressor produces one scalar per input row.
type Regressor interface {
	Predict(X [][]float64) ([]float64, error)
}

// Artifact is a persisted predictor together with the feature names it was
// fit with. Exactly one of the parameter fields is set, matching Kind.
type Artifact struct {
	Name      string              `json:"name"`
	Kind      Kind                `json:"kind"`
	Features  []string            `json:"features"`
	CreatedAt time.Time           `json:"created_at"`
	Logistic  *LogisticRegression `json:"logistic_regression,omitempty"`
	Mean      *MeanRegressor      `json:"mean_regressor,omitempty"`
}

var errWrongKind = errors.New("operation not supported by artifact kind")

// PredictProba returns p(leak) per row. Only classifiers support it.
func (a *Artifact) PredictProba(X [][]float64) ([]float64, error) {
	if a.Kind != KindLogisticRegression || a.Logistic == nil {
		return nil, fmt.Errorf("%s (%s): predict_proba: %w", a.Name, a.Kind, errWrongKind)
	}
	return a.Logistic.PredictProba(X)
}

// Predict returns class labels for classifiers and values for regressors.
func (a *Artifact) Predict(X [][]float64) ([]float64, error) {
	switch {
	case a.Kind == KindLogisticRegression && a.Logistic != nil:
		return a.Logistic.Predict(X)
	case a.Kind == KindMeanRegressor && a.Mean != nil:
		return a.Mean.Predict(X)
	default:
		return nil, fmt.Errorf("%s (%s): predict: %w", a.Name, a.Kind, errWrongKind)
	}
}

// Validate checks that the artifact is internally consistent and was fit
// with the given feature schema.
func (a *Artifact) Validate(schema domain.Schema) error {
	if err := schema.Validate(a.Features); err != nil {
		return fmt.Errorf("artifact %q: %w", a.Name, err)
	}
	switch a.Kind {
	case KindLogisticRegression:
		if a.Logistic == nil {
			return fmt.Errorf("artifact %q: missing %s parameters", a.Name, a.Kind)
		}
		if len(a.Logistic.Weights) != schema.Len() {
			return fmt.Errorf("artifact %q: %d weights for %d features", a.Name, len(a.Logistic.Weights), schema.Len())
		}
	case KindMeanRegressor:
		if a.Mean == nil {
			return fmt.Errorf("artifact %q: missing %s parameters", a.Name, a.Kind)
		}
		if a.Mean.NFeatures != schema.Len() {
			return fmt.Errorf("artifact %q: fit on %d features, schema has %d", a.Name, a.Mean.NFeatures, schema.Len())
		}
	default:
		return fmt.Errorf("artifact %q: unknown kind %q", a.Name, a.Kind)
	}
	return nil
}

// Encode writes the artifact as indented JSON.
func Encode(w io.Writer, a *Artifact) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// Decode reads one artifact. It does not validate it.
func Decode(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}

func checkWidth(X [][]float64, want int) error {
	for _, row := range X {
		if len(row) != want {
			return fmt.Errorf("X has %d features, but model is expecting %d features as input", len(row), want)
		}
	}
	return nil
}
