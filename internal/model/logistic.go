package model

import (
	"errors"
	"math"
)

// LogisticRegression is a binary classifier with an L2 penalty, fit by full
// batch gradient descent.
type LogisticRegression struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Training hyperparameters. C is the inverse regularization strength.
const (
	logisticC          = 1.0
	logisticLearnRate  = 0.5
	logisticIterations = 1000
)

// ErrSingleClass is returned when the labels do not contain both classes.
var ErrSingleClass = errors.New("labels need samples of at least 2 classes")

// FitLogisticRegression fits weights and bias to X and binary labels y.
func FitLogisticRegression(X [][]float64, y []float64) (*LogisticRegression, error) {
	if len(X) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(X) != len(y) {
		return nil, errors.New("sample and label counts differ")
	}
	nFeatures := len(X[0])
	if err := checkWidth(X, nFeatures); err != nil {
		return nil, err
	}

	var positives int
	for _, label := range y {
		switch label {
		case 0:
		case 1:
			positives++
		default:
			return nil, errors.New("labels must be 0 or 1")
		}
	}
	if positives == 0 || positives == len(y) {
		return nil, ErrSingleClass
	}

	m := &LogisticRegression{Weights: make([]float64, nFeatures)}
	n := float64(len(X))
	gW := make([]float64, nFeatures)

	for iter := 0; iter < logisticIterations; iter++ {
		for j := range gW {
			gW[j] = m.Weights[j] / (logisticC * n)
		}
		gb := 0.0
		for i, row := range X {
			d := (m.proba(row) - y[i]) / n
			for j, x := range row {
				gW[j] += d * x
			}
			gb += d
		}
		for j := range m.Weights {
			m.Weights[j] -= logisticLearnRate * gW[j]
		}
		m.Bias -= logisticLearnRate * gb
	}
	return m, nil
}

// PredictProba returns p(y=1) for each row.
func (m *LogisticRegression) PredictProba(X [][]float64) ([]float64, error) {
	if err := checkWidth(X, len(m.Weights)); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = m.proba(row)
	}
	return out, nil
}

// Predict thresholds PredictProba at 0.5.
func (m *LogisticRegression) Predict(X [][]float64) ([]float64, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	for i, p := range proba {
		if p >= 0.5 {
			proba[i] = 1
		} else {
			proba[i] = 0
		}
	}
	return proba, nil
}

func (m *LogisticRegression) proba(row []float64) float64 {
	z := m.Bias
	for j, x := range row {
		z += m.Weights[j] * x
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
