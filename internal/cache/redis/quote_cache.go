package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/market/source"
)

// QuoteCache stores quotes as JSON strings at "quote:{symbol}" with a TTL.
type QuoteCache struct {
	rdb    *redis.Client
	prefix string
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client) *QuoteCache {
	return &QuoteCache{rdb: c.Underlying(), prefix: "quote:"}
}

type quoteRecord struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Change    float64 `json:"d"`
	ChangePct float64 `json:"dp"`
	Time      int64   `json:"t"`
}

func (qc *QuoteCache) key(symbol string) string {
	return qc.prefix + symbol
}

// SetQuote stores q for ttl.
func (qc *QuoteCache) SetQuote(ctx context.Context, symbol string, q market.Quote, ttl time.Duration) error {
	raw, err := json.Marshal(quoteRecord{
		Open:      q.Open,
		High:      q.High,
		Low:       q.Low,
		Close:     q.Close,
		Change:    q.Change,
		ChangePct: q.ChangePct,
		Time:      q.Time.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("redis: encode quote %s: %w", symbol, err)
	}
	if err := qc.rdb.Set(ctx, qc.key(symbol), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set quote %s: %w", symbol, err)
	}
	return nil
}

// GetQuote returns the cached quote. A missing or expired key is a miss,
// not an error.
func (qc *QuoteCache) GetQuote(ctx context.Context, symbol string) (market.Quote, bool, error) {
	raw, err := qc.rdb.Get(ctx, qc.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return market.Quote{}, false, nil
	}
	if err != nil {
		return market.Quote{}, false, fmt.Errorf("redis: get quote %s: %w", symbol, err)
	}

	var rec quoteRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return market.Quote{}, false, fmt.Errorf("redis: decode quote %s: %w", symbol, err)
	}
	return market.Quote{
		Open:      rec.Open,
		High:      rec.High,
		Low:       rec.Low,
		Close:     rec.Close,
		Change:    rec.Change,
		ChangePct: rec.ChangePct,
		Time:      time.Unix(0, rec.Time),
	}, true, nil
}

// Compile-time interface check.
var _ source.QuoteCache = (*QuoteCache)(nil)
