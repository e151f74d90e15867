// Package standardprice implements the standard_crypto_price and
// standard_forex_price adapter families. Every provider accepts a
// comma-separated symbols list and must answer with exactly one price per
// requested symbol.
package standardprice

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/omni/pds-gateway/adapter"
)

const (
	TypeCrypto = "standard_crypto_price"
	TypeForex  = "standard_forex_price"
)

type Price struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
}

type Input struct {
	Symbols []string `validate:"required,min=1,dive,required"`
	Source  string
}

type Output struct {
	Prices []Price
}

type Response struct {
	Prices []Price `json:"prices"`
}

type provider interface {
	fetch(ctx context.Context, input *Input) ([]Price, error)
}

type priceAdapter struct {
	provider provider
}

func newHandler(p provider) adapter.Handler {
	return adapter.Wrap[*Input, *Output, *Response](&priceAdapter{provider: p})
}

func (a *priceAdapter) ParseInput(req adapter.Request) (*Input, error) {
	raw, ok := req["symbols"]
	if !ok {
		return nil, adapter.NewParseError("symbols", "missing")
	}
	input := &Input{
		Symbols: splitSymbols(raw),
		Source:  req["source"],
	}
	if err := adapter.Validate(input); err != nil {
		return nil, err
	}
	return input, nil
}

func (a *priceAdapter) Call(ctx context.Context, input *Input) (*Output, error) {
	prices, err := a.provider.fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	return &Output{Prices: prices}, nil
}

func (a *priceAdapter) VerifyOutput(input *Input, output *Output) error {
	if len(input.Symbols) != len(output.Prices) {
		return adapter.NewVerificationError("requested %d symbols, got %d prices", len(input.Symbols), len(output.Prices))
	}
	return nil
}

func (a *priceAdapter) ParseOutput(output *Output) (*Response, error) {
	return &Response{Prices: output.Prices}, nil
}

func splitSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, len(parts))
	for i, s := range parts {
		symbols[i] = strings.TrimSpace(s)
	}
	return symbols
}

// orderBySymbols returns prices in request order, skipping symbols the
// provider did not answer for.
func orderBySymbols(symbols []string, bySymbol map[string]Price) []Price {
	prices := make([]Price, 0, len(symbols))
	for _, s := range symbols {
		if p, ok := bySymbol[s]; ok {
			prices = append(prices, p)
		}
	}
	return prices
}

// number accepts both JSON numbers and numeric strings.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("can't parse number %s: %w", data, err)
	}
	*n = number(f)
	return nil
}

var _ json.Unmarshaler = (*number)(nil)
