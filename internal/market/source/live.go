package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/news"
	"github.com/zappabad/marketsim/internal/news/sentiment"
	"github.com/zappabad/marketsim/internal/randsrc"
)

// ErrOffline is returned by Quote when the client has no API key or a
// previous request failed at the transport level.
var ErrOffline = errors.New("live source offline")

// LiveConfig configures the quote API client.
type LiveConfig struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerMinute int
	CacheTTL          time.Duration
	// RetryAfter is how long the client stays offline after a transport
	// failure before trying the network again.
	RetryAfter time.Duration
}

// DefaultLiveConfig returns a LiveConfig with reasonable defaults.
func DefaultLiveConfig() LiveConfig {
	return LiveConfig{
		BaseURL:           "https://finnhub.io/api/v1",
		Timeout:           10 * time.Second,
		RequestsPerMinute: 60,
		CacheTTL:          60 * time.Second,
		RetryAfter:        5 * time.Minute,
	}
}

type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PrevClose     float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

type newsResponse struct {
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
	Related  string `json:"related"`
	URL      string `json:"url"`
}

// Live reads quotes from a Finnhub-compatible HTTP API. Get never fails:
// it falls back to the last known quote and then to a synthetic one.
type Live struct {
	cfg     LiveConfig
	http    *http.Client
	limiter *rate.Limiter
	cache   QuoteCache
	group   singleflight.Group
	log     *slog.Logger

	offlineUntil atomic.Int64

	mu    sync.Mutex
	rng   randsrc.Source
	stale map[string]market.Quote
}

// NewLive creates a Live client. cache may be nil, in which case an
// in-memory cache is used.
func NewLive(cfg LiveConfig, cache QuoteCache, rng randsrc.Source, log *slog.Logger) *Live {
	def := DefaultLiveConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = def.RetryAfter
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	if log == nil {
		log = slog.Default()
	}
	every := time.Minute / time.Duration(cfg.RequestsPerMinute)
	return &Live{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(every), cfg.RequestsPerMinute),
		cache:   cache,
		log:     log,
		rng:     rng,
		stale:   make(map[string]market.Quote),
	}
}

// Offline reports whether network requests are currently skipped.
func (l *Live) Offline() bool {
	if l.cfg.APIKey == "" {
		return true
	}
	return time.Now().UnixNano() < l.offlineUntil.Load()
}

// Get implements Source. The simulated time is ignored; live quotes are
// always current.
func (l *Live) Get(ctx context.Context, symbol string, _ time.Time) (market.Quote, bool) {
	q, err := l.Quote(ctx, symbol)
	if err == nil {
		return q, true
	}
	l.log.Debug("live quote unavailable, using fallback", "symbol", symbol, "err", err)
	return l.fallback(symbol), true
}

// Quote returns a cached or freshly fetched quote. Concurrent calls for the
// same symbol share one request.
func (l *Live) Quote(ctx context.Context, symbol string) (market.Quote, error) {
	if q, ok, err := l.cache.GetQuote(ctx, symbol); err == nil && ok {
		return q, nil
	} else if err != nil {
		l.log.Warn("quote cache read failed", "symbol", symbol, "err", err)
	}
	if l.Offline() {
		return market.Quote{}, ErrOffline
	}

	v, err, _ := l.group.Do(symbol, func() (interface{}, error) {
		return l.fetchQuote(ctx, symbol)
	})
	if err != nil {
		return market.Quote{}, err
	}
	q := v.(market.Quote)

	if err := l.cache.SetQuote(ctx, symbol, q, l.cfg.CacheTTL); err != nil {
		l.log.Warn("quote cache write failed", "symbol", symbol, "err", err)
	}
	l.mu.Lock()
	l.stale[symbol] = q
	l.mu.Unlock()
	return q, nil
}

func (l *Live) fetchQuote(ctx context.Context, symbol string) (market.Quote, error) {
	var resp quoteResponse
	if err := l.getJSON(ctx, "/quote", url.Values{"symbol": {symbol}}, &resp); err != nil {
		return market.Quote{}, err
	}
	if resp.Current <= 0 {
		return market.Quote{}, fmt.Errorf("%w: %s", market.ErrUnknownTicker, symbol)
	}
	q := market.Quote{
		Open:      resp.Open,
		High:      resp.High,
		Low:       resp.Low,
		Close:     resp.Current,
		Change:    resp.Change,
		ChangePct: resp.PercentChange,
		Time:      time.Now(),
	}
	if resp.Timestamp > 0 {
		q.Time = time.Unix(resp.Timestamp, 0)
	}
	return q, nil
}

// FetchNews returns company news between from and to, classified by
// keyword sentiment.
func (l *Live) FetchNews(ctx context.Context, symbol string, from, to time.Time) ([]news.NewsItem, error) {
	if l.Offline() {
		return nil, ErrOffline
	}
	params := url.Values{
		"symbol": {symbol},
		"from":   {from.Format(DateLayout)},
		"to":     {to.Format(DateLayout)},
	}
	var resp []newsResponse
	if err := l.getJSON(ctx, "/company-news", params, &resp); err != nil {
		return nil, err
	}

	items := make([]news.NewsItem, 0, len(resp))
	for _, r := range resp {
		if r.Headline == "" {
			continue
		}
		items = append(items, news.NewsItem{
			Time:      time.Unix(r.Datetime, 0),
			Symbol:    symbol,
			Headline:  r.Headline,
			Summary:   r.Summary,
			Source:    r.Source,
			Sentiment: sentiment.Classify(r.Headline + " " + r.Summary),
		})
	}
	return items, nil
}

func (l *Live) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("source: rate limit: %w", err)
	}

	params.Set("token", l.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.cfg.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("source: build request: %w", err)
	}

	resp, err := l.http.Do(req)
	if err != nil {
		l.offlineUntil.Store(time.Now().Add(l.cfg.RetryAfter).UnixNano())
		l.log.Warn("live source unreachable, switching to offline mode", "path", path, "err", err)
		return fmt.Errorf("source: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("source: %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("source: decode %s: %w", path, err)
	}
	return nil
}

// fallback returns a synthetic quote that drifts up to 5% from the last
// known close, or from a random base when the symbol was never seen.
func (l *Live) fallback(symbol string) market.Quote {
	l.mu.Lock()
	defer l.mu.Unlock()

	base := randsrc.Uniform(l.rng, 100, 500)
	if prev, ok := l.stale[symbol]; ok {
		base = prev.Close
	}

	pct := randsrc.Uniform(l.rng, -5, 5)
	closePrice := base * (1 + pct/100)
	q := market.Quote{
		Open:      base,
		High:      max(base, closePrice),
		Low:       min(base, closePrice),
		Close:     closePrice,
		Change:    closePrice - base,
		ChangePct: pct,
		Time:      time.Now(),
	}
	l.stale[symbol] = q
	return q
}
