package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/omni/pds-gateway/config"
	"github.com/omni/pds-gateway/logging"
)

const maxBodySize = 1 << 20

// Result is the verification outcome of a single request.
type Result struct {
	ResponseCode int
	IsDelay      bool
	DataSourceID int64
	ErrorType    Kind
	ErrorMsg     string
}

// Success is the result used when verification is not performed.
func Success() *Result {
	return &Result{ResponseCode: http.StatusOK}
}

type verifyResponse struct {
	DataSourceID json.RawMessage `json:"data_source_id"`
	IsDelay      bool            `json:"is_delay"`
}

// Client consults the external verify endpoint about a caller.
type Client struct {
	logger   logging.Logger
	client   *http.Client
	url      string
	maxDelay int64
	timeout  time.Duration
	cfg      *config.VerifierConfig
}

func NewClient(logger logging.Logger, cfg *config.VerifierConfig, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		logger:   logger,
		client:   client,
		url:      cfg.URL,
		maxDelay: cfg.MaxDelay,
		timeout:  cfg.Timeout,
		cfg:      cfg,
	}
}

// Verify issues exactly one request to the verify endpoint with the caller's
// BAND params and max_delay appended. Every failure is a
// *VerificationFailedError.
func (c *Client) Verify(ctx context.Context, params map[string]string) (*Result, error) {
	defer ObserveDuration()()
	res, err := c.verify(ctx, params)
	ObserveError(err)
	return res, err
}

func (c *Client) verify(ctx context.Context, params map[string]string) (*Result, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(params), nil)
	if err != nil {
		return nil, serverError(fmt.Errorf("can't build verify request: %w", err))
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, serverError(fmt.Errorf("can't reach verify endpoint: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, serverError(fmt.Errorf("can't read verify response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &VerificationFailedError{
			StatusCode: resp.StatusCode,
			Kind:       KindFailedVerification,
			Message:    fmt.Sprintf("verify endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var parsed verifyResponse
	if err = json.Unmarshal(body, &parsed); err != nil {
		return nil, invalidResponse(fmt.Errorf("can't decode verify response: %w", err))
	}
	dsID, err := parseDataSourceID(parsed.DataSourceID)
	if err != nil {
		return nil, invalidResponse(err)
	}
	if !c.cfg.IsAllowedDataSourceID(dsID) {
		return nil, &VerificationFailedError{
			StatusCode: http.StatusUnauthorized,
			Kind:       KindUnsupportedDataSourceID,
			Message:    fmt.Sprintf("wrong data_source_id. expected %v, got %d.", c.allowedIDs(), dsID),
		}
	}
	if parsed.IsDelay {
		c.logger.WithField("data_source_id", dsID).Warn("verify endpoint reports a delayed node")
	}

	return &Result{
		ResponseCode: http.StatusOK,
		IsDelay:      parsed.IsDelay,
		DataSourceID: dsID,
	}, nil
}

func (c *Client) buildURL(params map[string]string) string {
	q := make(url.Values, len(params)+1)
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("max_delay", strconv.FormatInt(c.maxDelay, 10))

	sep := "?"
	if strings.Contains(c.url, "?") {
		sep = "&"
	}
	return c.url + sep + q.Encode()
}

func (c *Client) allowedIDs() []int64 {
	ids := append([]int64(nil), c.cfg.AllowedDataSourceIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func parseDataSourceID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, errors.New("verify response has no data_source_id")
	}
	s := strings.Trim(string(raw), `"`)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	// integral floats such as 1.0 are accepted
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid data_source_id %s: %w", raw, err)
	}
	if f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return 0, fmt.Errorf("invalid data_source_id %s: not an integer", raw)
	}
	return int64(f), nil
}

func serverError(err error) error {
	return &VerificationFailedError{
		StatusCode: http.StatusInternalServerError,
		Kind:       KindServerError,
		Message:    err.Error(),
	}
}

func invalidResponse(err error) error {
	return &VerificationFailedError{
		StatusCode: http.StatusInternalServerError,
		Kind:       KindFailedVerification,
		Message:    err.Error(),
	}
}
