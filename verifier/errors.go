package verifier

import "fmt"

// Kind classifies a rejected verification. The values are part of the
// public error body.
type Kind string

const (
	KindFailedVerification      Kind = "failed_verification"
	KindUnsupportedDataSourceID Kind = "unsupported_ds_id"
	KindServerError             Kind = "server_error"
)

type VerificationFailedError struct {
	StatusCode int
	Kind       Kind
	Message    string
}

func (e *VerificationFailedError) Error() string {
	return fmt.Sprintf("verification failed with status code %d and error type %s: %s", e.StatusCode, e.Kind, e.Message)
}

// Result converts the error into the verification outcome recorded in reports.
func (e *VerificationFailedError) Result() *Result {
	return &Result{
		ResponseCode: e.StatusCode,
		ErrorType:    e.Kind,
		ErrorMsg:     e.Message,
	}
}
