package pricing

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/camuig/capital-tracker/internal/logger"
	"github.com/camuig/capital-tracker/internal/portfolio"
)

// DefaultTTL is the freshness window of a cached quote.
const DefaultTTL = 60 * time.Second

var stablecoins = map[string]bool{
	"USDT": true,
	"USDC": true,
	"DAI":  true,
	"BUSD": true,
}

// IsStablecoin reports whether symbol is pegged to exactly one USDT.
func IsStablecoin(symbol string) bool {
	return stablecoins[strings.ToUpper(symbol)]
}

// PriceSource fetches live quotes. Symbols it cannot price are absent from
// the result, which is not an error.
type PriceSource interface {
	FetchQuotes(ctx context.Context, symbols []string) (map[string]portfolio.Quote, error)
}

// Client converts token amounts to USDT and serves quotes through a cache.
// Lookups never fail: on source errors the stale cached price is used, or 0
// when nothing was cached.
type Client struct {
	source PriceSource
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
	now    func() time.Time
}

func NewClient(source PriceSource, cache Cache, ttl time.Duration, log *logger.Logger) *Client {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Client{
		source: source,
		cache:  cache,
		ttl:    ttl,
		logger: log,
		now:    time.Now,
	}
}

func (c *Client) cached(ctx context.Context, symbol string) (Entry, bool) {
	e, ok, err := c.cache.Get(ctx, symbol)
	if err != nil {
		c.logger.Warn("price cache read failed", "symbol", symbol, "error", err)
		return Entry{}, false
	}
	return e, ok
}

func (c *Client) store(ctx context.Context, q portfolio.Quote) {
	if err := c.cache.Set(ctx, q.Symbol, Entry{Quote: q, FetchedAt: c.now()}); err != nil {
		c.logger.Warn("price cache write failed", "symbol", q.Symbol, "error", err)
	}
}

func (c *Client) fresh(e Entry) bool {
	return c.now().Sub(e.FetchedAt) < c.ttl
}

// GetPrice returns the USD price of symbol.
func (c *Client) GetPrice(ctx context.Context, symbol string) float64 {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if stablecoins[symbol] {
		return 1
	}

	entry, hit := c.cached(ctx, symbol)
	if hit && c.fresh(entry) {
		return entry.Quote.Price
	}

	quotes, err := c.source.FetchQuotes(ctx, []string{symbol})
	if err == nil {
		if q, ok := quotes[symbol]; ok {
			q.Symbol = symbol
			c.store(ctx, q)
			return q.Price
		}
		c.logger.Warn("no price for symbol", "symbol", symbol)
	} else {
		c.logger.Error("price fetch failed", "symbol", symbol, "error", err)
	}

	if hit {
		return entry.Quote.Price
	}
	return 0
}

// ConvertToUSDT values amount tokens of symbol in USDT.
func (c *Client) ConvertToUSDT(ctx context.Context, symbol string, amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	return amount * c.GetPrice(ctx, symbol)
}

type Conversion struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
}

type ConversionResult struct {
	Symbol string  `json:"symbol"`
	Amount float64 `json:"amount"`
	USDT   float64 `json:"usdt"`
}

func (c *Client) BatchConvert(ctx context.Context, items []Conversion) []ConversionResult {
	out := make([]ConversionResult, 0, len(items))
	for _, it := range items {
		out = append(out, ConversionResult{
			Symbol: it.Symbol,
			Amount: it.Amount,
			USDT:   c.ConvertToUSDT(ctx, it.Symbol, it.Amount),
		})
	}
	return out
}

func (c *Client) GetBatchPrices(ctx context.Context, symbols []string) map[string]float64 {
	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		out[strings.ToUpper(s)] = c.GetPrice(ctx, s)
	}
	return out
}

// GetQuotes returns quotes for symbols. Only symbols whose cache entry is
// missing or expired are fetched; on a failed fetch the stale entries are
// used. Stablecoins the source does not know are quoted at 1.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) map[string]portfolio.Quote {
	out := make(map[string]portfolio.Quote, len(symbols))
	stale := make(map[string]portfolio.Quote)
	var missing []string

	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true

		entry, hit := c.cached(ctx, sym)
		if hit && c.fresh(entry) {
			out[sym] = entry.Quote
			continue
		}
		if hit {
			stale[sym] = entry.Quote
		}
		missing = append(missing, sym)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		quotes, err := c.source.FetchQuotes(ctx, missing)
		if err != nil {
			c.logger.Error("quote fetch failed", "symbols", missing, "error", err)
		}
		for _, sym := range missing {
			if q, ok := quotes[sym]; ok && err == nil {
				q.Symbol = sym
				c.store(ctx, q)
				out[sym] = q
				continue
			}
			if q, ok := stale[sym]; ok {
				out[sym] = q
				continue
			}
			if stablecoins[sym] {
				out[sym] = portfolio.Quote{Symbol: sym, Price: 1}
			}
		}
	}
	return out
}

func (c *Client) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

type CacheStatus struct {
	Price   float64       `json:"price"`
	Age     time.Duration `json:"age"`
	Expired bool          `json:"expired"`
}

func (c *Client) CacheStatus(ctx context.Context) (map[string]CacheStatus, error) {
	entries, err := c.cache.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]CacheStatus, len(entries))
	for sym, e := range entries {
		age := c.now().Sub(e.FetchedAt)
		out[sym] = CacheStatus{Price: e.Quote.Price, Age: age, Expired: age >= c.ttl}
	}
	return out, nil
}
