package domain

import (
	"fmt"
	"strings"
)

// Feature names, in model input order.
const (
	FeatureFlowRateNorm = "flow_rate_norm"
	FeaturePressureNorm = "pressure_norm"
	FeatureHour         = "hour"
)

// Schema is an ordered list of feature names. Position i of a model input row
// holds the feature named at position i.
type Schema []string

// FeatureSchema is the single feature ordering shared by preprocessing,
// placeholder training and serving.
var FeatureSchema = Schema{FeatureFlowRateNorm, FeaturePressureNorm, FeatureHour}

// Names returns a copy of the feature names.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Len returns the number of features.
func (s Schema) Len() int { return len(s) }

// Validate fails unless names matches the schema exactly, order included.
func (s Schema) Validate(names []string) error {
	if len(names) != len(s) {
		return fmt.Errorf("feature count mismatch: got %d, want %d (%s)", len(names), len(s), s)
	}
	for i, name := range names {
		if name != s[i] {
			return fmt.Errorf("feature %d is %q, want %q (%s)", i, name, s[i], s)
		}
	}
	return nil
}

// Row lays out a feature vector in schema order.
func (s Schema) Row(v FeatureVector) ([]float64, error) {
	row := make([]float64, len(s))
	for i, name := range s {
		val, ok := v.Value(name)
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		row[i] = val
	}
	return row, nil
}

// String renders the schema the way the prediction error payload lists the
// required keys: ['a', 'b', 'c'].
func (s Schema) String() string {
	quoted := make([]string, len(s))
	for i, name := range s {
		quoted[i] = "'" + name + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// FeatureVector is one model input. Hour is carried as a float because
// request values are passed to the models as-is.
type FeatureVector struct {
	FlowRateNorm float64 `json:"flow_rate_norm"`
	PressureNorm float64 `json:"pressure_norm"`
	Hour         float64 `json:"hour"`
}

// Value looks up a feature by schema name.
func (v FeatureVector) Value(name string) (float64, bool) {
	switch name {
	case FeatureFlowRateNorm:
		return v.FlowRateNorm, true
	case FeaturePressureNorm:
		return v.PressureNorm, true
	case FeatureHour:
		return v.Hour, true
	default:
		return 0, false
	}
}

// Set assigns a feature by schema name.
func (v *FeatureVector) Set(name string, val float64) error {
	switch name {
	case FeatureFlowRateNorm:
		v.FlowRateNorm = val
	case FeaturePressureNorm:
		v.PressureNorm = val
	case FeatureHour:
		v.Hour = val
	default:
		return fmt.Errorf("unknown feature %q", name)
	}
	return nil
}
