package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReason(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrEmptyInput, "empty_input"},
		{fmt.Errorf("wrap: %w", ErrIncompleteExtraction), "incomplete_extraction"},
		{&StageError{Stage: StageNormalized, Err: ErrDateUnparseable}, "date_unparseable"},
		{&UpstreamError{Provider: "groq", StatusCode: 503}, "upstream_unavailable"},
		{errors.New("other"), "internal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Reason(tt.err))
	}
}

func TestUpstreamError(t *testing.T) {
	err := &UpstreamError{Provider: "groq", StatusCode: 429, Body: "rate limited"}

	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, "groq returned status=429 body=rate limited", err.Error())

	transport := &UpstreamError{Provider: "gemini", Err: errors.New("dial tcp: refused")}
	assert.Contains(t, transport.Error(), "dial tcp")
	assert.ErrorIs(t, transport, ErrUpstreamUnavailable)
}

func TestStageError(t *testing.T) {
	err := &StageError{Stage: StageDecoded, Err: ErrMalformedPayload}

	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Equal(t, "extraction failed at decoded: completion is not a JSON object", err.Error())

	var se *StageError
	assert.True(t, errors.As(fmt.Errorf("scan: %w", err), &se))
	assert.Equal(t, StageDecoded, se.Stage)
}
