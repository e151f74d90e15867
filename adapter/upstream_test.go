package adapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omni/pds-gateway/adapter"
)

func TestGetJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.Equal(t, "BTC,ETH", r.URL.Query().Get("fsyms"))
			assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
			_, _ = w.Write([]byte(`{"BTC":{"USD":1.5}}`))
		case "/limited":
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("rate limited"))
		case "/garbage":
			_, _ = w.Write([]byte("not json"))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	var out map[string]map[string]float64
	err := adapter.GetJSON(ctx, srv.Client(), srv.URL+"/ok", url.Values{"fsyms": {"BTC,ETH"}}, map[string]string{"X-Api-Key": "secret"}, &out)
	require.NoError(t, err)
	require.Equal(t, 1.5, out["BTC"]["USD"])

	err = adapter.GetJSON(ctx, srv.Client(), srv.URL+"/limited", nil, nil, &out)
	var upstreamErr *adapter.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, http.StatusTooManyRequests, upstreamErr.StatusCode)
	require.Equal(t, "rate limited", upstreamErr.Message)

	err = adapter.GetJSON(ctx, srv.Client(), srv.URL+"/garbage", nil, nil, &out)
	require.Error(t, err)
	require.False(t, errors.As(err, &upstreamErr))

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err = adapter.GetJSON(timeoutCtx, srv.Client(), srv.URL+"/slow", nil, nil, &out)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPostJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": body["q"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := adapter.PostJSON(context.Background(), srv.Client(), srv.URL, map[string]string{"q": "hi"}, nil, &out)
	require.NoError(t, err)
	require.Equal(t, "hi", out["echo"])
}

func TestValidate(t *testing.T) {
	t.Parallel()

	type input struct {
		Symbols []string `validate:"required,min=1,dive,required"`
		Seed    string   `validate:"required,hexadecimal"`
	}

	require.NoError(t, adapter.Validate(&input{Symbols: []string{"BTC"}, Seed: "abcd"}))

	err := adapter.Validate(&input{Seed: "abcd"})
	var parseErr *adapter.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "Symbols", parseErr.Field)

	err = adapter.Validate(&input{Symbols: []string{"BTC"}, Seed: "xyz"})
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "Seed", parseErr.Field)
}
