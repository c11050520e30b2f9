package source

import (
	"context"
	"sync"
	"time"

	"github.com/zappabad/marketsim/internal/market"
)

// QuoteCache stores recently fetched quotes. Get returns false on a miss
// or an expired entry.
type QuoteCache interface {
	GetQuote(ctx context.Context, symbol string) (market.Quote, bool, error)
	SetQuote(ctx context.Context, symbol string, q market.Quote, ttl time.Duration) error
}

type memEntry struct {
	quote   market.Quote
	expires time.Time
}

// MemoryCache is an in-process QuoteCache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memEntry), now: time.Now}
}

// GetQuote implements QuoteCache.
func (c *MemoryCache) GetQuote(_ context.Context, symbol string) (market.Quote, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[symbol]
	if !ok {
		return market.Quote{}, false, nil
	}
	if c.now().After(e.expires) {
		delete(c.entries, symbol)
		return market.Quote{}, false, nil
	}
	return e.quote, true, nil
}

// SetQuote implements QuoteCache.
func (c *MemoryCache) SetQuote(_ context.Context, symbol string, q market.Quote, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[symbol] = memEntry{quote: q, expires: c.now().Add(ttl)}
	return nil
}
