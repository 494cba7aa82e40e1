package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
)

// DefaultFXTTL is how long a fetched exchange rate stays fresh.
const DefaultFXTTL = 10 * time.Minute

type fxResponse struct {
	Rates map[string]float64 `json:"rates"`
}

type fxRate struct {
	rate      float64
	fetchedAt time.Time
}

// FX converts between fiat currencies using the first endpoint that answers.
// Endpoint templates may contain {base} and {target} placeholders.
type FX struct {
	client    *Client
	endpoints []string
	ttl       time.Duration
	now       func() time.Time

	mu    sync.RWMutex
	rates map[string]fxRate
}

func NewFX(client *Client, endpoints []string, ttl time.Duration) *FX {
	if ttl <= 0 {
		ttl = DefaultFXTTL
	}
	return &FX{
		client:    client,
		endpoints: endpoints,
		ttl:       ttl,
		now:       time.Now,
		rates:     make(map[string]fxRate),
	}
}

func pairKey(base, target string) string {
	return strings.ToUpper(base) + "/" + strings.ToUpper(target)
}

// FetchRate queries the endpoints in order and caches the first rate found.
// When all fail the previous rate is kept and an error is returned.
func (f *FX) FetchRate(ctx context.Context, base, target string) (float64, error) {
	base, target = strings.ToUpper(base), strings.ToUpper(target)
	if base == target {
		return 1, nil
	}

	var errs []error
	for _, tmpl := range f.endpoints {
		url := strings.NewReplacer("{base}", base, "{target}", target).Replace(tmpl)

		var resp fxResponse
		if err := f.client.getJSON(ctx, url, nil, &resp); err != nil {
			f.client.logger.Warn("fx endpoint failed", "url", url, "error", err)
			errs = append(errs, err)
			continue
		}

		rate, ok := resp.Rates[target]
		if !ok || rate <= 0 {
			errs = append(errs, fmt.Errorf("%s: no rate for %s", url, target))
			continue
		}

		f.mu.Lock()
		f.rates[pairKey(base, target)] = fxRate{rate: rate, fetchedAt: f.now()}
		f.mu.Unlock()
		return rate, nil
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no fx endpoints configured"))
	}
	return 0, apperrors.NewNetworkError("fx", errors.Join(errs...))
}

// Refresh fetches the rate unless the cached one is younger than the TTL.
func (f *FX) Refresh(ctx context.Context, base, target string) error {
	f.mu.RLock()
	cached, ok := f.rates[pairKey(base, target)]
	f.mu.RUnlock()
	if ok && f.now().Sub(cached.fetchedAt) < f.ttl {
		return nil
	}
	_, err := f.FetchRate(ctx, base, target)
	return err
}

// Rate returns the cached rate, or 1 when none was ever fetched.
func (f *FX) Rate(base, target string) float64 {
	if strings.EqualFold(base, target) {
		return 1
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if r, ok := f.rates[pairKey(base, target)]; ok {
		return r.rate
	}
	return 1
}

func (f *FX) Convert(amount float64, base, target string) float64 {
	return amount * f.Rate(base, target)
}

// LastUpdated returns when the pair was last fetched, zero if never.
func (f *FX) LastUpdated(base, target string) time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rates[pairKey(base, target)].fetchedAt
}
