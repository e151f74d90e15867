package standardprice

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/omni/pds-gateway/adapter"
)

const defaultPricerURL = "https://px.bandchain.org"

type pricesResponse struct {
	Prices []struct {
		Symbol    string `json:"symbol"`
		Price     number `json:"price"`
		Timestamp number `json:"timestamp"`
	} `json:"prices"`
}

// pricesService queries a service answering {"prices":[...]}. It backs both
// internal_service (reachable from the gateway only) and pricer.
type pricesService struct {
	client        *http.Client
	apiURL        string
	defaultSource string
}

func newInternalService(opts adapter.Options, client *http.Client) (adapter.Handler, error) {
	apiURL, err := opts.Require("api_url")
	if err != nil {
		return nil, err
	}
	return newHandler(&pricesService{client: client, apiURL: apiURL}), nil
}

func newPricer(opts adapter.Options, client *http.Client) (adapter.Handler, error) {
	return newHandler(&pricesService{
		client:        client,
		apiURL:        opts.Get("api_url", defaultPricerURL),
		defaultSource: opts.Get("source", ""),
	}), nil
}

func (p *pricesService) fetch(ctx context.Context, input *Input) ([]Price, error) {
	query := url.Values{"symbols": {strings.Join(input.Symbols, ",")}}
	source := input.Source
	if source == "" {
		source = p.defaultSource
	}
	if source != "" {
		query.Set("source", source)
	}

	var res pricesResponse
	if err := adapter.GetJSON(ctx, p.client, p.apiURL, query, nil, &res); err != nil {
		return nil, err
	}

	prices := make([]Price, len(res.Prices))
	for i, item := range res.Prices {
		prices[i] = Price{
			Symbol:    item.Symbol,
			Price:     float64(item.Price),
			Timestamp: int64(item.Timestamp),
		}
	}
	return prices, nil
}

func init() {
	adapter.Register(TypeCrypto, "crypto_compare", newCryptoCompare)
	adapter.Register(TypeCrypto, "coin_market_cap", newCoinMarketCap)
	adapter.Register(TypeCrypto, "internal_service", newInternalService)
	adapter.Register(TypeCrypto, "pricer", newPricer)
	adapter.Register(TypeForex, "internal_service", newInternalService)
}
