package standardprice_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omni/pds-gateway/adapter"
	"github.com/omni/pds-gateway/adapter/standardprice"
)

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCryptoCompare(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Apikey secret", r.Header.Get("Authorization"))
		assert.Equal(t, "BTC,CELOUSD", r.URL.Query().Get("fsyms"))
		assert.Equal(t, "USD", r.URL.Query().Get("tsyms"))
		_, _ = w.Write([]byte(`{"CELOUSD":{"USD":1.01},"BTC":{"USD":30000.5}}`))
	})

	h, err := adapter.New(standardprice.TypeCrypto, "crypto_compare", adapter.Options{
		"api_url": srv.URL,
		"api_key": "secret",
	}, srv.Client())
	require.NoError(t, err)

	resp, err := h.UnifiedCall(context.Background(), adapter.Request{"symbols": "BTC, CUSD"})
	require.NoError(t, err)
	prices := resp.(*standardprice.Response).Prices
	require.Len(t, prices, 2)
	require.Equal(t, "BTC", prices[0].Symbol)
	require.Equal(t, 30000.5, prices[0].Price)
	require.Equal(t, "CUSD", prices[1].Symbol)
	require.Equal(t, 1.01, prices[1].Price)
	require.Positive(t, prices[0].Timestamp)
}

func TestCryptoCompareRequiresKey(t *testing.T) {
	t.Parallel()

	_, err := adapter.New(standardprice.TypeCrypto, "crypto_compare", adapter.Options{}, http.DefaultClient)
	require.ErrorContains(t, err, "api_key")
}

func TestCoinMarketCap(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("X-CMC_PRO_API_KEY"))
		switch r.URL.Query().Get("slug") {
		case "ethereum,bitcoin":
			_, _ = w.Write([]byte(`{
				"status": {"error_code": 0},
				"data": {
					"1": {"symbol": "BTC", "last_updated": "2022-01-02T03:04:05.000Z", "quote": {"USD": {"price": 47000.1}}},
					"1027": {"symbol": "ETH", "last_updated": "2022-01-02T03:04:06.000Z", "quote": {"USD": {"price": 3700.2}}}
				}
			}`))
		default:
			_, _ = w.Write([]byte(`{"status": {"error_code": 400, "error_message": "Invalid value for \"slug\""}}`))
		}
	})

	h, err := adapter.New(standardprice.TypeCrypto, "coin_market_cap", adapter.Options{
		"api_url": srv.URL,
		"api_key": "k",
	}, srv.Client())
	require.NoError(t, err)

	resp, err := h.UnifiedCall(context.Background(), adapter.Request{"symbols": "ETH,BTC"})
	require.NoError(t, err)
	require.Equal(t, []standardprice.Price{
		{Symbol: "ETH", Price: 3700.2, Timestamp: 1641092646},
		{Symbol: "BTC", Price: 47000.1, Timestamp: 1641092645},
	}, resp.(*standardprice.Response).Prices)

	_, err = h.UnifiedCall(context.Background(), adapter.Request{"symbols": "NOPE"})
	require.ErrorContains(t, err, "Invalid value")
}

func TestInternalService(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbols") {
		case "EUR,JPY":
			_, _ = w.Write([]byte(`{"prices":[{"symbol":"EUR","price":"1.08","timestamp":1700000000},{"symbol":"JPY","price":0.0067,"timestamp":"1700000001"}]}`))
		case "EUR,GBP":
			_, _ = w.Write([]byte(`{"prices":[{"symbol":"EUR","price":1.08,"timestamp":1700000000}]}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	for _, typ := range []string{standardprice.TypeCrypto, standardprice.TypeForex} {
		h, err := adapter.New(typ, "internal_service", adapter.Options{"api_url": srv.URL}, srv.Client())
		require.NoError(t, err)

		resp, err := h.UnifiedCall(context.Background(), adapter.Request{"symbols": "EUR,JPY"})
		require.NoError(t, err, typ)
		require.Equal(t, []standardprice.Price{
			{Symbol: "EUR", Price: 1.08, Timestamp: 1700000000},
			{Symbol: "JPY", Price: 0.0067, Timestamp: 1700000001},
		}, resp.(*standardprice.Response).Prices)

		_, err = h.UnifiedCall(context.Background(), adapter.Request{"symbols": "EUR,GBP"})
		var verifyErr *adapter.VerificationError
		require.ErrorAs(t, err, &verifyErr, typ)

		_, err = h.UnifiedCall(context.Background(), adapter.Request{"symbols": "XAU"})
		require.Equal(t, http.StatusServiceUnavailable, adapter.StatusCode(err), typ)
	}
}

func TestPricerSource(t *testing.T) {
	t.Parallel()

	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[{"symbol":"BAND","price":1.5,"timestamp":1,"source":"` + r.URL.Query().Get("source") + `"}]}`))
	})

	h, err := adapter.New(standardprice.TypeCrypto, "pricer", adapter.Options{"api_url": srv.URL, "source": "binance"}, srv.Client())
	require.NoError(t, err)

	resp, err := h.UnifiedCall(context.Background(), adapter.Request{"symbols": "BAND"})
	require.NoError(t, err)
	require.Len(t, resp.(*standardprice.Response).Prices, 1)
}

func TestParseInput(t *testing.T) {
	t.Parallel()

	h, err := adapter.New(standardprice.TypeForex, "internal_service", adapter.Options{"api_url": "http://127.0.0.1:1"}, http.DefaultClient)
	require.NoError(t, err)

	for _, req := range []adapter.Request{
		{},
		{"symbols": ""},
		{"symbols": "EUR,,JPY"},
	} {
		_, err = h.UnifiedCall(context.Background(), req)
		var parseErr *adapter.ParseError
		require.ErrorAs(t, err, &parseErr, req)
		require.Equal(t, http.StatusBadRequest, adapter.StatusCode(err))
	}
}
