package verifiableai

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/omni/pds-gateway/adapter"
)

const defaultOpenAIURL = "https://api.openai.com/v1/chat/completions"

type OpenAIInput struct {
	Model       string    `json:"model" validate:"required"`
	Messages    []Message `json:"messages" validate:"required,min=1,dive"`
	Temperature *float64  `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	TopP        *float64  `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	MaxTokens   *int64    `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	Seed        *int64    `json:"seed,omitempty"`
}

type OpenAI struct {
	client *http.Client
	apiURL string
	apiKey string
}

func newOpenAI(opts adapter.Options, client *http.Client) (adapter.Handler, error) {
	apiKey, err := opts.Require("api_key")
	if err != nil {
		return nil, err
	}
	return adapter.Wrap[*OpenAIInput, *Output, *Response](&OpenAI{
		client: client,
		apiURL: opts.Get("api_url", defaultOpenAIURL),
		apiKey: apiKey,
	}), nil
}

// ParseInput expects messages as a JSON encoded list of {role, content}.
func (a *OpenAI) ParseInput(req adapter.Request) (*OpenAIInput, error) {
	input := &OpenAIInput{Model: req["model"]}
	if raw := req["messages"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &input.Messages); err != nil {
			return nil, adapter.NewParseError("messages", "not a JSON list of messages")
		}
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
	if input.Seed, err = parseInt(req, "seed"); err != nil {
		return nil, err
	}
	if err = adapter.Validate(input); err != nil {
		return nil, err
	}
	return input, nil
}

func (a *OpenAI) Call(ctx context.Context, input *OpenAIInput) (*Output, error) {
	return completion(ctx, a.client, a.apiURL, a.apiKey, input)
}

func (a *OpenAI) VerifyOutput(_ *OpenAIInput, output *Output) error {
	return verifyAnswer(output)
}

func (a *OpenAI) ParseOutput(output *Output) (*Response, error) {
	return &Response{Answer: output.Answer}, nil
}
