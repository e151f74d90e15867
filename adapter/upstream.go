package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxResponseSize = 10 << 20
	maxErrorBody    = 512
)

var validate = validator.New()

// Validate checks the validate tags of a typed input and reports the first
// offending field as a ParseError.
func Validate(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ParseError{Field: fe.Field(), Reason: fmt.Sprintf("failed %q check", fe.Tag()), Err: err}
	}
	return &ParseError{Reason: err.Error(), Err: err}
}

// GetJSON issues a GET request and decodes a 2xx JSON body into out.
func GetJSON(ctx context.Context, client *http.Client, rawURL string, query url.Values, headers map[string]string, out interface{}) error {
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		rawURL += sep + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("can't build upstream request: %w", err)
	}
	return doJSON(client, req, headers, out)
}

// PostJSON sends body as JSON and decodes a 2xx JSON body into out.
func PostJSON(ctx context.Context, client *http.Client, rawURL string, body interface{}, headers map[string]string, out interface{}) error {
	blob, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("can't marshal upstream request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(blob))
	if err != nil {
		return fmt.Errorf("can't build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return doJSON(client, req, headers, out)
}

func doJSON(client *http.Client, req *http.Request, headers map[string]string, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("can't reach upstream: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("can't read upstream response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &UpstreamError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("can't decode upstream response: %w", err)
	}
	return nil
}

func errorKind(err error) string {
	var (
		parseErr    *ParseError
		upstreamErr *UpstreamError
		verifyErr   *VerificationError
	)
	switch {
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &upstreamErr):
		return "upstream"
	case errors.As(err, &verifyErr):
		return "verification"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}
