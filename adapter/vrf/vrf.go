// Package vrf proxies verifiable randomness requests to an internal VRF
// service.
package vrf

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/omni/pds-gateway/adapter"
)

const (
	Type = "vrf"
	Name = "vrf"

	ProofLength = 160
	HashLength  = 128
)

type Input struct {
	Seed      string `json:"seed" validate:"required"`
	Timestamp int64  `json:"timestamp" validate:"gt=0"`
}

type Output struct {
	Proof string `json:"proof"`
	Hash  string `json:"hash"`
}

type Adapter struct {
	client *http.Client
	apiURL string
}

func New(apiURL string, client *http.Client) *Adapter {
	return &Adapter{client: client, apiURL: apiURL}
}

func (a *Adapter) ParseInput(req adapter.Request) (*Input, error) {
	input := &Input{Seed: req["seed"]}
	if raw, ok := req["timestamp"]; ok {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, adapter.NewParseError("timestamp", "not an integer: %q", raw)
		}
		input.Timestamp = ts
	}
	if err := adapter.Validate(input); err != nil {
		return nil, err
	}
	return input, nil
}

func (a *Adapter) Call(ctx context.Context, input *Input) (*Output, error) {
	output := new(Output)
	if err := adapter.PostJSON(ctx, a.client, a.apiURL, input, nil, output); err != nil {
		return nil, err
	}
	return output, nil
}

func (a *Adapter) VerifyOutput(_ *Input, output *Output) error {
	if len(output.Proof) != ProofLength {
		return adapter.NewVerificationError("invalid proof length %d", len(output.Proof))
	}
	if len(output.Hash) != HashLength {
		return adapter.NewVerificationError("invalid hash length %d", len(output.Hash))
	}
	if _, err := hexutil.Decode("0x" + output.Proof); err != nil {
		return adapter.NewVerificationError("proof is not hex: %s", err)
	}
	if _, err := hexutil.Decode("0x" + output.Hash); err != nil {
		return adapter.NewVerificationError("hash is not hex: %s", err)
	}
	return nil
}

func (a *Adapter) ParseOutput(output *Output) (*Output, error) {
	return output, nil
}

func init() {
	adapter.Register(Type, Name, func(opts adapter.Options, client *http.Client) (adapter.Handler, error) {
		apiURL, err := opts.Require("api_url")
		if err != nil {
			return nil, err
		}
		return adapter.Wrap[*Input, *Output, *Output](New(apiURL, client)), nil
	})
}
