// Package predict validates prediction requests and runs them through the
// leak classifier and the demand regressor.
package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/couchcryptid/water-leak-service/internal/domain"
)

// LeakClassifier returns the positive-class probability per input row.
type LeakClassifier interface {
	PredictProba(X [][]float64) ([]float64, error)
}

// DemandRegressor returns one forecast per input row.
type DemandRegressor interface {
	Predict(X [][]float64) ([]float64, error)
}

// Service is built once from resolved models and shared read-only by every
// request.
type Service struct {
	leak   LeakClassifier
	demand DemandRegressor
	schema domain.Schema
	logger *slog.Logger
}

// NewService creates a ready Service from already resolved models.
func NewService(leak LeakClassifier, demand DemandRegressor, logger *slog.Logger) *Service {
	return &Service{
		leak:   leak,
		demand: demand,
		schema: domain.FeatureSchema,
		logger: logger,
	}
}

// CheckReadiness returns an error if either model is missing.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.leak == nil || s.demand == nil {
		return errors.New("models are not loaded")
	}
	return nil
}

// Handle validates a JSON request body and predicts with both models. Key
// presence is checked before any model is touched; every later failure,
// including a panic, becomes an internal failure.
func (s *Service) Handle(body []byte) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("prediction panicked", "panic", rec)
			res = internalFailure("predict", fmt.Errorf("%v", rec))
		}
	}()

	if !json.Valid(body) {
		return internalFailure("parse", errors.New("failed to decode JSON object: invalid JSON in request body"))
	}
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return internalFailure("parse", fmt.Errorf("failed to decode JSON object: %w", err))
	}

	missing, err := s.missingKeys(decoded)
	if err != nil {
		return internalFailure("parse", err)
	}
	if len(missing) > 0 {
		return Result{
			Outcome: OutcomeValidationFailure,
			Err:     &domain.ValidationError{Missing: missing, Required: s.schema},
		}
	}

	fields, ok := decoded.(map[string]any)
	if !ok {
		return internalFailure("features", fmt.Errorf("cannot look up features in a JSON %s", jsonType(decoded)))
	}
	features, err := s.assemble(fields)
	if err != nil {
		return internalFailure("features", err)
	}
	return s.predict(features)
}

// Predict runs both models on an already assembled feature vector.
func (s *Service) Predict(features domain.FeatureVector) Result {
	return s.predict(features)
}

// missingKeys reports schema keys absent from the decoded body. Arrays match
// elements and strings match substrings; scalar bodies cannot be searched.
func (s *Service) missingKeys(decoded any) ([]string, error) {
	var has func(string) bool
	switch v := decoded.(type) {
	case map[string]any:
		has = func(name string) bool { _, ok := v[name]; return ok }
	case []any:
		has = func(name string) bool { return slices.Contains(v, any(name)) }
	case string:
		has = func(name string) bool { return strings.Contains(v, name) }
	default:
		return nil, fmt.Errorf("cannot search a JSON %s for required keys", jsonType(decoded))
	}

	var missing []string
	for _, name := range s.schema {
		if !has(name) {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// assemble converts schema values to floats. Booleans count as 1 and 0.
func (s *Service) assemble(fields map[string]any) (domain.FeatureVector, error) {
	var v domain.FeatureVector
	for _, name := range s.schema {
		var num float64
		switch val := fields[name].(type) {
		case float64:
			num = val
		case bool:
			if val {
				num = 1
			}
		default:
			return v, fmt.Errorf("could not convert %s value %s to float", name, describe(fields[name]))
		}
		if err := v.Set(name, num); err != nil {
			return v, err
		}
	}
	return v, nil
}

func (s *Service) predict(features domain.FeatureVector) Result {
	row, err := s.schema.Row(features)
	if err != nil {
		return internalFailure("features", err)
	}
	X := [][]float64{row}

	proba, err := s.leak.PredictProba(X)
	if err != nil {
		return internalFailure("leak_model", err)
	}
	if len(proba) != 1 {
		return internalFailure("leak_model", fmt.Errorf("leak model returned %d probabilities for 1 row", len(proba)))
	}

	demand, err := s.demand.Predict(X)
	if err != nil {
		return internalFailure("demand_model", err)
	}
	if len(demand) != 1 {
		return internalFailure("demand_model", fmt.Errorf("demand model returned %d values for 1 row", len(demand)))
	}

	return Result{
		Outcome:  OutcomeSuccess,
		Features: features,
		Prediction: domain.Prediction{
			LeakProbability: proba[0],
			ForecastDemand:  demand[0],
		},
	}
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	default:
		return "object"
	}
}

func describe(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
