package standardprice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omni/pds-gateway/adapter"
)

const defaultCoinMarketCapURL = "https://pro-api.coinmarketcap.com/v2/cryptocurrency/quotes/latest"

var coinMarketCapSlugs = map[string]string{
	"ADA":   "cardano",
	"ATOM":  "cosmos",
	"AVAX":  "avalanche",
	"BAND":  "band-protocol",
	"BNB":   "binance-coin",
	"BTC":   "bitcoin",
	"CELO":  "celo",
	"CUSD":  "celo-dollar",
	"DAI":   "multi-collateral-dai",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot-new",
	"ETH":   "ethereum",
	"LINK":  "chainlink",
	"LTC":   "litecoin",
	"MATIC": "polygon",
	"NEAR":  "near-protocol",
	"OSMO":  "osmosis",
	"SOL":   "solana",
	"TRX":   "tron",
	"UNI":   "uniswap",
	"USDC":  "usd-coin",
	"USDT":  "tether",
	"XRP":   "xrp",
}

type coinMarketCapResponse struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string]struct {
		Symbol      string    `json:"symbol"`
		LastUpdated time.Time `json:"last_updated"`
		Quote       struct {
			USD struct {
				Price number `json:"price"`
			} `json:"USD"`
		} `json:"quote"`
	} `json:"data"`
}

type coinMarketCap struct {
	client *http.Client
	apiURL string
	apiKey string
}

func newCoinMarketCap(opts adapter.Options, client *http.Client) (adapter.Handler, error) {
	apiKey, err := opts.Require("api_key")
	if err != nil {
		return nil, err
	}
	return newHandler(&coinMarketCap{
		client: client,
		apiURL: opts.Get("api_url", defaultCoinMarketCapURL),
		apiKey: apiKey,
	}), nil
}

func (p *coinMarketCap) fetch(ctx context.Context, input *Input) ([]Price, error) {
	slugs := make([]string, len(input.Symbols))
	for i, s := range input.Symbols {
		slugs[i] = s
		if slug, ok := coinMarketCapSlugs[s]; ok {
			slugs[i] = slug
		}
	}

	var res coinMarketCapResponse
	query := url.Values{"slug": {strings.Join(slugs, ",")}}
	headers := map[string]string{"X-CMC_PRO_API_KEY": p.apiKey}
	if err := adapter.GetJSON(ctx, p.client, p.apiURL, query, headers, &res); err != nil {
		return nil, err
	}
	if res.Status.ErrorCode != 0 {
		return nil, fmt.Errorf("coinmarketcap error %d: %s", res.Status.ErrorCode, res.Status.ErrorMessage)
	}

	bySymbol := make(map[string]Price, len(res.Data))
	for _, item := range res.Data {
		bySymbol[item.Symbol] = Price{
			Symbol:    item.Symbol,
			Price:     float64(item.Quote.USD.Price),
			Timestamp: item.LastUpdated.Unix(),
		}
	}
	return orderBySymbols(input.Symbols, bySymbol), nil
}
