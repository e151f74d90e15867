package gateway_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omni/pds-gateway/gateway"
)

func TestBandParams(t *testing.T) {
	t.Parallel()

	h := http.Header{}
	h.Set("BAND_CHAIN_ID", "laozi-mainnet")
	h.Set("Band_Signature", "sig-A")
	h["band_request_id"] = []string{"7"}
	h.Set("X-Forwarded-For", "1.2.3.4")

	require.Equal(t, map[string]string{
		"chain_id":   "laozi-mainnet",
		"signature":  "sig-A",
		"request_id": "7",
	}, gateway.BandParams(h))
}

func TestParseIdentity(t *testing.T) {
	t.Parallel()

	id, err := gateway.ParseIdentity(map[string]string{
		"chain_id":       "laozi-mainnet",
		"validator":      "bandvaloper1",
		"reporter":       "band1reporter",
		"request_id":     "10",
		"external_id":    "3",
		"data_source_id": "1",
		"signature":      "sig-A",
	}, true)
	require.NoError(t, err)
	require.Equal(t, "bandvaloper1", id.Validator)
	require.Equal(t, "band1reporter", id.Reporter)
	require.Equal(t, int64(10), *id.RequestID)
	require.Equal(t, int64(3), *id.ExternalID)
	require.Equal(t, int64(1), *id.DataSourceID)
	require.Equal(t, "sig-A", id.Signature)

	id, err = gateway.ParseIdentity(map[string]string{}, false)
	require.NoError(t, err)
	require.Nil(t, id.RequestID)
	require.Empty(t, id.Signature)

	for _, test := range []struct {
		Name           string
		Params         map[string]string
		ExpectedStatus int
	}{
		{"missing signature", map[string]string{"request_id": "1"}, http.StatusUnauthorized},
		{"bad request id", map[string]string{"signature": "s", "request_id": "ten"}, http.StatusBadRequest},
		{"bad data source id", map[string]string{"signature": "s", "data_source_id": "1.5"}, http.StatusBadRequest},
	} {
		id, err = gateway.ParseIdentity(test.Params, true)
		var idErr *gateway.IdentityError
		require.ErrorAs(t, err, &idErr, "Failed %s", test.Name)
		require.Equal(t, test.ExpectedStatus, idErr.StatusCode, "Failed %s", test.Name)
		require.NotNil(t, id, "Failed %s", test.Name)
		require.Equal(t, test.ExpectedStatus, idErr.Result().ResponseCode)
	}
}
