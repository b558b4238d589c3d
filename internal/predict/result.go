package predict

import (
	"net/http"

	"github.com/couchcryptid/water-leak-service/internal/domain"
)

// Outcome classifies a handled request.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeValidationFailure
	OutcomeInternalFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationFailure:
		return "validation_failure"
	default:
		return "internal_failure"
	}
}

// Result is the typed outcome of Service.Handle. Err is a
// *domain.ValidationError or *domain.InferenceError on failure.
type Result struct {
	Outcome    Outcome
	Features   domain.FeatureVector
	Prediction domain.Prediction
	Err        error
}

type validationPayload struct {
	Error string `json:"error"`
}

type internalPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// StatusCode maps the outcome to an HTTP status.
func (r Result) StatusCode() int {
	switch r.Outcome {
	case OutcomeSuccess:
		return http.StatusOK
	case OutcomeValidationFailure:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Payload is the JSON body for the outcome. Internal failures expose the raw
// error text.
func (r Result) Payload() any {
	switch r.Outcome {
	case OutcomeSuccess:
		return r.Prediction
	case OutcomeValidationFailure:
		return validationPayload{Error: r.Err.Error()}
	default:
		return internalPayload{Error: r.Err.Error(), Message: domain.UnexpectedErrorMessage}
	}
}

func internalFailure(stage string, err error) Result {
	return Result{
		Outcome: OutcomeInternalFailure,
		Err:     &domain.InferenceError{Stage: stage, Err: err},
	}
}
