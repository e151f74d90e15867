package adapter

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrUnknownAdapter = errors.New("unknown adapter")

// ParseError reports malformed or missing caller input.
type ParseError struct {
	Field  string
	Reason string
	Err    error
}

func NewParseError(field, format string, args ...interface{}) *ParseError {
	return &ParseError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input %q: %s", e.Field, e.Reason)
	}
	return "invalid input: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a failed upstream call. StatusCode mirrors the
// upstream HTTP status so the gateway can pass it through.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream request failed with status %d: %s", e.StatusCode, e.Message)
}

// VerificationError reports an output that does not line up with its input.
type VerificationError struct {
	Reason string
	Err    error
}

func NewVerificationError(format string, args ...interface{}) *VerificationError {
	return &VerificationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *VerificationError) Error() string {
	return "output verification failed: " + e.Reason
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// StatusCode maps an adapter error to the HTTP status the gateway answers with.
func StatusCode(err error) int {
	var upstreamErr *UpstreamError
	if errors.As(err, &upstreamErr) && upstreamErr.StatusCode >= http.StatusBadRequest {
		return upstreamErr.StatusCode
	}
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
