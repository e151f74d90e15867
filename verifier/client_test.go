package verifier_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/omni/pds-gateway/config"
	"github.com/omni/pds-gateway/logging"
	"github.com/omni/pds-gateway/verifier"
)

type verifyServer struct {
	*httptest.Server
	mu      sync.Mutex
	queries []url.Values
}

func (s *verifyServer) lastQuery() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[len(s.queries)-1]
}

func (s *verifyServer) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

func newVerifyServer(t *testing.T, status int, body string) *verifyServer {
	t.Helper()
	s := &verifyServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.queries = append(s.queries, r.URL.Query())
		s.mu.Unlock()
		if body == "slow" {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func newClient(url string) *verifier.Client {
	return verifier.NewClient(logging.Discard(), &config.VerifierConfig{
		URL:                  url,
		AllowedDataSourceIDs: []int64{1, 2},
		MaxDelay:             3,
		Timeout:              50 * time.Millisecond,
	}, nil)
}

var callerParams = map[string]string{
	"chain_id":       "laozi-mainnet",
	"validator":      "bandvaloper1",
	"request_id":     "10",
	"external_id":    "3",
	"data_source_id": "1",
	"reporter":       "band1reporter",
	"signature":      "sig-A",
}

func TestVerifySuccess(t *testing.T) {
	t.Parallel()

	for _, body := range []string{
		`{"chain_id":"laozi-mainnet","data_source_id":1,"is_delay":false}`,
		`{"data_source_id":"1"}`,
		`{"data_source_id":2,"is_delay":true}`,
		`{"data_source_id":1.0}`,
		`{"data_source_id":"2.0"}`,
		`{"data_source_id":2e0}`,
	} {
		srv := newVerifyServer(t, http.StatusOK, body)
		res, err := newClient(srv.URL).Verify(context.Background(), callerParams)
		require.NoError(t, err, body)
		require.Equal(t, http.StatusOK, res.ResponseCode)
		require.Empty(t, res.ErrorType)
		require.Equal(t, 1, srv.calls(), "exactly one outbound call")

		q := srv.lastQuery()
		require.Equal(t, "3", q.Get("max_delay"))
		require.Equal(t, "sig-A", q.Get("signature"))
		require.Equal(t, "bandvaloper1", q.Get("validator"))
	}

	srv := newVerifyServer(t, http.StatusOK, `{"data_source_id":2,"is_delay":true}`)
	res, err := newClient(srv.URL).Verify(context.Background(), callerParams)
	require.NoError(t, err)
	require.True(t, res.IsDelay)
	require.Equal(t, int64(2), res.DataSourceID)
}

func TestVerifyFailures(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name           string
		Status         int
		Body           string
		ExpectedStatus int
		ExpectedKind   verifier.Kind
	}{
		{"endpoint error", http.StatusInternalServerError, "server error", http.StatusInternalServerError, verifier.KindFailedVerification},
		{"endpoint rejects", http.StatusBadRequest, `{"error":"invalid signature"}`, http.StatusBadRequest, verifier.KindFailedVerification},
		{"unparsable body", http.StatusOK, "not json", http.StatusInternalServerError, verifier.KindFailedVerification},
		{"missing data source", http.StatusOK, `{"is_delay":false}`, http.StatusInternalServerError, verifier.KindFailedVerification},
		{"non numeric data source", http.StatusOK, `{"data_source_id":"abc"}`, http.StatusInternalServerError, verifier.KindFailedVerification},
		{"fractional data source", http.StatusOK, `{"data_source_id":1.5}`, http.StatusInternalServerError, verifier.KindFailedVerification},
		{"disallowed float data source", http.StatusOK, `{"data_source_id":99.0}`, http.StatusUnauthorized, verifier.KindUnsupportedDataSourceID},
		{"disallowed data source", http.StatusOK, `{"data_source_id":99}`, http.StatusUnauthorized, verifier.KindUnsupportedDataSourceID},
		{"disallowed string data source", http.StatusOK, `{"data_source_id":"99"}`, http.StatusUnauthorized, verifier.KindUnsupportedDataSourceID},
		{"timeout", http.StatusOK, "slow", http.StatusInternalServerError, verifier.KindServerError},
	} {
		srv := newVerifyServer(t, test.Status, test.Body)
		_, err := newClient(srv.URL).Verify(context.Background(), callerParams)

		var verifyErr *verifier.VerificationFailedError
		require.ErrorAs(t, err, &verifyErr, "Failed %s", test.Name)
		require.Equal(t, test.ExpectedStatus, verifyErr.StatusCode, "Failed %s", test.Name)
		require.Equal(t, test.ExpectedKind, verifyErr.Kind, "Failed %s", test.Name)
		require.Equal(t, 1, srv.calls(), "Failed %s", test.Name)

		res := verifyErr.Result()
		require.Equal(t, test.ExpectedStatus, res.ResponseCode)
		require.Equal(t, test.ExpectedKind, res.ErrorType)
		require.NotEmpty(t, res.ErrorMsg)
	}
}

func TestVerifyUnreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := newClient(addr).Verify(context.Background(), callerParams)
	var verifyErr *verifier.VerificationFailedError
	require.ErrorAs(t, err, &verifyErr)
	require.Equal(t, verifier.KindServerError, verifyErr.Kind)
	require.Equal(t, http.StatusInternalServerError, verifyErr.StatusCode)
}

func TestSuccessResult(t *testing.T) {
	t.Parallel()

	res := verifier.Success()
	require.Equal(t, http.StatusOK, res.ResponseCode)
	require.False(t, res.IsDelay)
}
