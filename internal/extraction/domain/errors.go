package domain

import (
	"errors"
	"fmt"
)

// Failure reasons of an extraction run. Callers classify with errors.Is.
var (
	ErrEmptyInput           = errors.New("email text is required")
	ErrConfigurationMissing = errors.New("extraction provider is not configured")
	ErrUpstreamUnavailable  = errors.New("extraction provider unavailable")
	ErrEmptyCompletion      = errors.New("extraction provider returned no completion")
	ErrMalformedPayload     = errors.New("completion is not a JSON object")
	ErrIncompleteExtraction = errors.New("could not extract all required fields")
	ErrDateUnparseable      = errors.New("renewal date could not be parsed")
)

// Reason returns the short machine name of a failure, or "internal" for
// errors outside the extraction taxonomy.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrConfigurationMissing):
		return "configuration_missing"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "upstream_unavailable"
	case errors.Is(err, ErrEmptyCompletion):
		return "empty_completion"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrIncompleteExtraction):
		return "incomplete_extraction"
	case errors.Is(err, ErrDateUnparseable):
		return "date_unparseable"
	default:
		return "internal"
	}
}

// StageError is the Failed state of a run. Stage is the last state the run
// reached before failing.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("extraction failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// UpstreamError carries the provider response that caused
// ErrUpstreamUnavailable.
type UpstreamError struct {
	Provider   string
	StatusCode int // 0 for transport failures
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s returned status=%d body=%s", e.Provider, e.StatusCode, e.Body)
}

// Is makes every UpstreamError match ErrUpstreamUnavailable.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
