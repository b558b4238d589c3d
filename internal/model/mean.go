package model

import "errors"

// MeanRegressor always predicts the mean of its training targets.
type MeanRegressor struct {
	Constant  float64 `json:"constant"`
	NFeatures int     `json:"n_features"`
}

// FitMeanRegressor records the target mean. X only fixes the input width.
func FitMeanRegressor(X [][]float64, y []float64) (*MeanRegressor, error) {
	if len(X) == 0 || len(y) == 0 {
		return nil, errors.New("no training samples")
	}
	if len(X) != len(y) {
		return nil, errors.New("sample and target counts differ")
	}
	nFeatures := len(X[0])
	if err := checkWidth(X, nFeatures); err != nil {
		return nil, err
	}

	sum := 0.0
	for _, v := range y {
		sum += v
	}
	return &MeanRegressor{Constant: sum / float64(len(y)), NFeatures: nFeatures}, nil
}

// Predict returns the constant for every row.
func (m *MeanRegressor) Predict(X [][]float64) ([]float64, error) {
	if err := checkWidth(X, m.NFeatures); err != nil {
		return nil, err
	}
	out := make([]float64, len(X))
	for i := range out {
		out[i] = m.Constant
	}
	return out, nil
}
