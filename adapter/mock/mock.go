// Package mock provides a deterministic adapter for development and tests.
package mock

import (
	"context"
	"net/http"

	"github.com/omni/pds-gateway/adapter"
)

const (
	Type = "mock"
	Name = "mock"
)

type Response struct {
	Result string `json:"result"`
}

type Adapter struct{}

func (Adapter) ParseInput(adapter.Request) (string, error) {
	return "mock_input", nil
}

func (Adapter) Call(context.Context, string) (string, error) {
	return "called", nil
}

func (Adapter) VerifyOutput(string, string) error {
	return nil
}

func (Adapter) ParseOutput(string) (*Response, error) {
	return &Response{Result: "mock_output"}, nil
}

func init() {
	adapter.Register(Type, Name, func(adapter.Options, *http.Client) (adapter.Handler, error) {
		return adapter.Wrap[string, string, *Response](Adapter{}), nil
	})
}
