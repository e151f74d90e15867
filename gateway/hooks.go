package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/omni/pds-gateway/verifier"
)

// State is a terminal state of the pipeline.
type State string

const (
	StateRejected  State = "rejected"
	StateCached    State = "cached"
	StateResponded State = "responded"
	StateFailed    State = "failed"
	// StateCancelled ends a request whose caller went away while it waited
	// on a concurrent request for the same key.
	StateCancelled State = "cancelled"
)

type ProviderResponse struct {
	ResponseCode int
	ErrorMsg     string
}

// Outcome is everything the pipeline established before reaching a terminal
// state. Verify and Provider are nil when the pipeline never got there.
type Outcome struct {
	State    State
	Identity *CallerIdentity
	UserIP   string
	Verify   *verifier.Result
	Provider *ProviderResponse
	Cached   bool
	Err      error
}

func (o *Outcome) StatusCode() int {
	if o.State == StateCancelled {
		return http.StatusServiceUnavailable
	}
	if o.Provider != nil {
		return o.Provider.ResponseCode
	}
	if o.Verify != nil {
		return o.Verify.ResponseCode
	}
	return 0
}

// Hook observes terminal states. Hooks run in registration order on the
// request goroutine and must not block.
type Hook interface {
	OnSuccess(ctx context.Context, outcome *Outcome)
	OnFailure(ctx context.Context, outcome *Outcome)
}

type metricsHook struct{}

func (metricsHook) OnSuccess(_ context.Context, o *Outcome) {
	PipelineResults.WithLabelValues(string(o.State), strconv.Itoa(o.StatusCode())).Inc()
}

func (metricsHook) OnFailure(_ context.Context, o *Outcome) {
	PipelineResults.WithLabelValues(string(o.State), strconv.Itoa(o.StatusCode())).Inc()
}
