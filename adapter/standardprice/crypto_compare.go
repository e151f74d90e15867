package standardprice

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/omni/pds-gateway/adapter"
)

const defaultCryptoCompareURL = "https://min-api.cryptocompare.com/data/pricemulti"

var cryptoCompareSymbols = map[string]string{
	"CUSD": "CELOUSD",
}

type cryptoCompare struct {
	client *http.Client
	apiURL string
	apiKey string
	now    func() time.Time
}

func newCryptoCompare(opts adapter.Options, client *http.Client) (adapter.Handler, error) {
	apiKey, err := opts.Require("api_key")
	if err != nil {
		return nil, err
	}
	return newHandler(&cryptoCompare{
		client: client,
		apiURL: opts.Get("api_url", defaultCryptoCompareURL),
		apiKey: apiKey,
		now:    time.Now,
	}), nil
}

func (p *cryptoCompare) fetch(ctx context.Context, input *Input) ([]Price, error) {
	back := make(map[string]string, len(input.Symbols))
	fsyms := make([]string, len(input.Symbols))
	for i, s := range input.Symbols {
		fsyms[i] = s
		if mapped, ok := cryptoCompareSymbols[s]; ok {
			fsyms[i] = mapped
		}
		back[fsyms[i]] = s
	}

	var res map[string]map[string]number
	query := url.Values{
		"fsyms": {strings.Join(fsyms, ",")},
		"tsyms": {"USD"},
	}
	headers := map[string]string{"Authorization": "Apikey " + p.apiKey}
	if err := adapter.GetJSON(ctx, p.client, p.apiURL, query, headers, &res); err != nil {
		return nil, err
	}

	ts := p.now().Unix()
	bySymbol := make(map[string]Price, len(res))
	for sym, quote := range res {
		usd, ok := quote["USD"]
		if !ok {
			continue
		}
		if orig, ok := back[sym]; ok {
			sym = orig
		}
		bySymbol[sym] = Price{Symbol: sym, Price: float64(usd), Timestamp: ts}
	}
	return orderBySymbols(input.Symbols, bySymbol), nil
}
