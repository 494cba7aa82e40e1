package market

import (
	"context"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/portfolio"
)

type simplePrice struct {
	USD          float64 `json:"usd"`
	USD24hChange float64 `json:"usd_24h_change"`
	USD24hVol    float64 `json:"usd_24h_vol"`
	USDMarketCap float64 `json:"usd_market_cap"`
}

// CoinGecko fetches USD quotes from the /simple/price endpoint.
type CoinGecko struct {
	client  *Client
	baseURL string
	apiKey  string
	coinIDs map[string]string // symbol -> coin id
	limiter *rate.Limiter
}

// NewCoinGecko builds a quote source. requestsPerMinute <= 0 disables pacing.
func NewCoinGecko(client *Client, baseURL, apiKey string, coinIDs map[string]string, requestsPerMinute int) *CoinGecko {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}

	ids := make(map[string]string, len(coinIDs))
	for sym, id := range coinIDs {
		ids[strings.ToUpper(sym)] = id
	}

	return &CoinGecko{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		coinIDs: ids,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// FetchQuotes returns quotes for the symbols that have a known coin id and
// that the API answered for. Missing symbols are simply absent.
func (g *CoinGecko) FetchQuotes(ctx context.Context, symbols []string) (map[string]portfolio.Quote, error) {
	byID := make(map[string][]string)
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		id, ok := g.coinIDs[sym]
		if !ok {
			continue
		}
		byID[id] = append(byID[id], sym)
	}

	quotes := make(map[string]portfolio.Quote)
	if len(byID) == 0 {
		return quotes, nil
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	q.Set("vs_currencies", "usd")
	q.Set("include_24hr_change", "true")
	q.Set("include_24hr_vol", "true")
	q.Set("include_market_cap", "true")

	var header http.Header
	if g.apiKey != "" {
		header = http.Header{"x-cg-demo-api-key": []string{g.apiKey}}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, apperrors.NewNetworkError("coingecko", err)
	}

	var resp map[string]simplePrice
	if err := g.client.getJSON(ctx, g.baseURL+"/simple/price?"+q.Encode(), header, &resp); err != nil {
		return nil, apperrors.NewNetworkError("coingecko", err)
	}

	for id, p := range resp {
		for _, sym := range byID[id] {
			quotes[sym] = portfolio.Quote{
				Symbol:    sym,
				Price:     p.USD,
				Change24h: p.USD24hChange,
				Volume24h: p.USD24hVol,
				MarketCap: p.USDMarketCap,
			}
		}
	}

	g.client.logger.Debug("fetched quotes", "requested", len(symbols), "received", len(quotes))
	return quotes, nil
}
