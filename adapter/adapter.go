package adapter

import (
	"context"
	"errors"
	"fmt"
)

// Request holds the untyped query parameters of an inbound gateway request.
type Request map[string]string

// Adapter is the four-stage contract every upstream data provider implements.
// The stages always run in order and the first failure aborts the call, so
// a caller never sees a partial response.
type Adapter[In, Out, Resp any] interface {
	// ParseInput converts the raw request into the typed input.
	// It fails with a ParseError when required fields are missing or malformed.
	ParseInput(req Request) (In, error)
	// Call performs the upstream request. Upstream HTTP failures are reported
	// as UpstreamError carrying the upstream status code.
	Call(ctx context.Context, input In) (Out, error)
	// VerifyOutput cross-checks the output against the input, e.g. one price
	// per requested symbol. It fails with a VerificationError.
	VerifyOutput(input In, output Out) error
	// ParseOutput converts the output into the external response shape.
	ParseOutput(output Out) (Resp, error)
}

// Handler is the untyped face of an Adapter used by the request pipeline.
type Handler interface {
	UnifiedCall(ctx context.Context, req Request) (interface{}, error)
}

func UnifiedCall[In, Out, Resp any](ctx context.Context, a Adapter[In, Out, Resp], req Request) (Resp, error) {
	var empty Resp

	input, err := a.ParseInput(req)
	if err != nil {
		return empty, asParseError(err)
	}
	output, err := a.Call(ctx, input)
	if err != nil {
		return empty, err
	}
	if err = a.VerifyOutput(input, output); err != nil {
		return empty, asVerificationError(err)
	}
	resp, err := a.ParseOutput(output)
	if err != nil {
		return empty, fmt.Errorf("can't parse adapter output: %w", err)
	}
	return resp, nil
}

type handler[In, Out, Resp any] struct {
	adapter Adapter[In, Out, Resp]
}

// Wrap lifts a typed adapter into a Handler.
func Wrap[In, Out, Resp any](a Adapter[In, Out, Resp]) Handler {
	return &handler[In, Out, Resp]{adapter: a}
}

func (h *handler[In, Out, Resp]) UnifiedCall(ctx context.Context, req Request) (interface{}, error) {
	return UnifiedCall[In, Out, Resp](ctx, h.adapter, req)
}

func asParseError(err error) error {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return err
	}
	return &ParseError{Reason: err.Error(), Err: err}
}

func asVerificationError(err error) error {
	var verifyErr *VerificationError
	if errors.As(err, &verifyErr) {
		return err
	}
	return &VerificationError{Reason: err.Error(), Err: err}
}
