package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/camuig/capital-tracker/internal/portfolio"
)

// Entry is a cached quote with the time it was fetched. Age is always
// measured by the client against FetchedAt.
type Entry struct {
	Quote     portfolio.Quote `json:"quote"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// Cache stores the latest quote per symbol. Entries never expire on their
// own; a later successful fetch overwrites them.
type Cache interface {
	Get(ctx context.Context, symbol string) (Entry, bool, error)
	Set(ctx context.Context, symbol string, e Entry) error
	All(ctx context.Context) (map[string]Entry, error)
	Clear(ctx context.Context) error
}

// MemoryCache is the in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (m *MemoryCache) Get(_ context.Context, symbol string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[symbol]
	return e, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, symbol string, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[symbol] = e
	return nil
}

func (m *MemoryCache) All(_ context.Context) (map[string]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Entry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryCache) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry)
	return nil
}
