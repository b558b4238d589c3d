package domain

import (
	"context"
	"time"
)

// UnexpectedErrorMessage accompanies every internal failure payload.
const UnexpectedErrorMessage = "An unexpected error occurred while processing the request."

// Prediction is the combined output of both models for one feature vector.
type Prediction struct {
	LeakProbability float64 `json:"leak_probability"`
	ForecastDemand  float64 `json:"forecast_demand"`
}

// ScoredEvent is a prediction published by the streaming scorer.
type ScoredEvent struct {
	Features        FeatureVector `json:"features"`
	LeakProbability float64       `json:"leak_probability"`
	ForecastDemand  float64       `json:"forecast_demand"`
	ScoredAt        time.Time     `json:"scored_at"`
}

// PredictionRecord is one entry of the recent prediction history.
type PredictionRecord struct {
	RequestID       string        `json:"request_id"`
	Features        FeatureVector `json:"features"`
	LeakProbability float64       `json:"leak_probability"`
	ForecastDemand  float64       `json:"forecast_demand"`
	CreatedAt       time.Time     `json:"created_at"`
}

// NewScoredEvent stamps a prediction with the current scoring time.
func NewScoredEvent(v FeatureVector, p Prediction) ScoredEvent {
	return ScoredEvent{
		Features:        v,
		LeakProbability: p.LeakProbability,
		ForecastDemand:  p.ForecastDemand,
		ScoredAt:        clock.Now().UTC(),
	}
}

// RawEvent is an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
