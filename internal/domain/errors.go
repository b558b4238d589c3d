package domain

import "fmt"

// ValidationError reports a request that lacks required feature keys.
type ValidationError struct {
	Missing  []string
	Required Schema
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Missing keys in input, required keys: %s", e.Required)
}

// InferenceError reports a failure while assembling features or invoking a
// model. Its text is returned to the caller verbatim.
type InferenceError struct {
	Stage string // "parse", "features", "leak_model", "demand_model"
	Err   error
}

func (e *InferenceError) Error() string {
	return e.Err.Error()
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}
