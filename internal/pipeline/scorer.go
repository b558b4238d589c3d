package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/water-leak-service/internal/domain"
	"github.com/couchcryptid/water-leak-service/internal/predict"
)

// Header keys set on scored events. A request_id header on the source
// message is carried over.
const (
	HeaderRequestID       = "request_id"
	HeaderLeakProbability = "leak_probability"
	HeaderScoredAt        = "scored_at"
)

// Predictor handles raw prediction request bodies.
type Predictor interface {
	Handle(body []byte) predict.Result
}

// Scorer implements Transformer by running each message value through the
// prediction service.
type Scorer struct {
	predictor Predictor
	logger    *slog.Logger
}

// NewScorer creates a Scorer backed by the given predictor.
func NewScorer(predictor Predictor, logger *slog.Logger) *Scorer {
	return &Scorer{predictor: predictor, logger: logger}
}

// Transform treats raw.Value as a prediction request body. Validation and
// inference failures are returned as errors so the message is skipped.
func (s *Scorer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	res := s.predictor.Handle(raw.Value)
	if res.Outcome != predict.OutcomeSuccess {
		return domain.OutputEvent{}, fmt.Errorf("score message (%s): %w", res.Outcome, res.Err)
	}

	event := domain.NewScoredEvent(res.Features, res.Prediction)
	data, err := json.Marshal(event)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize scored event: %w", err)
	}

	headers := map[string]string{
		HeaderLeakProbability: strconv.FormatFloat(event.LeakProbability, 'f', -1, 64),
		HeaderScoredAt:        event.ScoredAt.Format(time.RFC3339),
	}
	if id := raw.Headers[HeaderRequestID]; id != "" {
		headers[HeaderRequestID] = id
	}

	return domain.OutputEvent{
		Key:     raw.Key,
		Value:   data,
		Headers: headers,
	}, nil
}
