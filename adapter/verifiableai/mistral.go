package verifiableai

import (
	"context"
	"net/http"

	"github.com/omni/pds-gateway/adapter"
)

const defaultMistralURL = "https://api.mistral.ai/v1/chat/completions"

// MistralInput takes a single user prompt in Messages.
type MistralInput struct {
	Model       string   `validate:"required"`
	Messages    string   `validate:"required"`
	Temperature *float64 `validate:"omitempty,gte=0,lte=1"`
	TopP        *float64 `validate:"omitempty,gte=0,lte=1"`
	MaxTokens   *int64   `validate:"omitempty,gt=0"`
	RandomSeed  *int64
	SafePrompt  bool
}

type mistralRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	MaxTokens   *int64    `json:"max_tokens,omitempty"`
	RandomSeed  *int64    `json:"random_seed,omitempty"`
	SafePrompt  bool      `json:"safe_prompt"`
}

type Mistral struct {
	client *http.Client
	apiURL string
	apiKey string
}

func newMistral(opts adapter.Options, client *http.Client) (adapter.Handler, error) {
	apiKey, err := opts.Require("api_key")
	if err != nil {
		return nil, err
	}
	return adapter.Wrap[*MistralInput, *Output, *Response](&Mistral{
		client: client,
		apiURL: opts.Get("api_url", defaultMistralURL),
		apiKey: apiKey,
	}), nil
}

func (a *Mistral) ParseInput(req adapter.Request) (*MistralInput, error) {
	input := &MistralInput{
		Model:    req["model"],
		Messages: req["messages"],
	}

	var err error
	if input.Temperature, err = parseFloat(req, "temperature"); err != nil {
		return nil, err
	}
	if input.TopP, err = parseFloat(req, "top_p"); err != nil {
		return nil, err
	}
	if input.MaxTokens, err = parseInt(req, "max_tokens"); err != nil {
		return nil, err
	}
	if input.RandomSeed, err = parseInt(req, "random_seed"); err != nil {
		return nil, err
	}
	if input.SafePrompt, err = parseBool(req, "safe_prompt"); err != nil {
		return nil, err
	}
	if err = adapter.Validate(input); err != nil {
		return nil, err
	}
	return input, nil
}

func (a *Mistral) Call(ctx context.Context, input *MistralInput) (*Output, error) {
	return completion(ctx, a.client, a.apiURL, a.apiKey, &mistralRequest{
		Model:       input.Model,
		Messages:    []Message{{Role: "user", Content: input.Messages}},
		Temperature: input.Temperature,
		TopP:        input.TopP,
		MaxTokens:   input.MaxTokens,
		RandomSeed:  input.RandomSeed,
		SafePrompt:  input.SafePrompt,
	})
}

func (a *Mistral) VerifyOutput(_ *MistralInput, output *Output) error {
	return verifyAnswer(output)
}

func (a *Mistral) ParseOutput(output *Output) (*Response, error) {
	return &Response{Answer: output.Answer}, nil
}
