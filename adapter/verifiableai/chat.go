// Package verifiableai proxies chat completion requests to LLM providers so
// their answers can be attested by the gateway.
package verifiableai

import (
	"context"
	"net/http"
	"strconv"

	"github.com/omni/pds-gateway/adapter"
)

const Type = "verifiable_ai"

type Message struct {
	Role    string `json:"role" validate:"required"`
	Content string `json:"content" validate:"required"`
}

type Output struct {
	Answer string
}

type Response struct {
	Answer string `json:"answer"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// completion posts body to a chat completions endpoint and extracts the
// first choice.
func completion(ctx context.Context, client *http.Client, apiURL, apiKey string, body interface{}) (*Output, error) {
	var res completionResponse
	headers := map[string]string{"Authorization": "Bearer " + apiKey}
	if err := adapter.PostJSON(ctx, client, apiURL, body, headers, &res); err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return &Output{}, nil
	}
	return &Output{Answer: res.Choices[0].Message.Content}, nil
}

func verifyAnswer(output *Output) error {
	if output.Answer == "" {
		return adapter.NewVerificationError("provider returned no answer")
	}
	return nil
}

func parseFloat(req adapter.Request, field string) (*float64, error) {
	raw, ok := req[field]
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, adapter.NewParseError(field, "not a number: %q", raw)
	}
	return &v, nil
}

func parseInt(req adapter.Request, field string) (*int64, error) {
	raw, ok := req[field]
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, adapter.NewParseError(field, "not an integer: %q", raw)
	}
	return &v, nil
}

func parseBool(req adapter.Request, field string) (bool, error) {
	raw, ok := req[field]
	if !ok || raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, adapter.NewParseError(field, "not a boolean: %q", raw)
	}
	return v, nil
}

func init() {
	adapter.Register(Type, "openai", newOpenAI)
	adapter.Register(Type, "mistral", newMistral)
}
