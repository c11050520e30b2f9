package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/news"
	"github.com/zappabad/marketsim/internal/randsrc"
)

func newTestLive(t *testing.T, h http.HandlerFunc) (*Live, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultLiveConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test"
	cfg.RequestsPerMinute = 600
	return NewLive(cfg, nil, randsrc.New(1), nil), &hits
}

func TestLiveQuoteAndCache(t *testing.T) {
	l, hits := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" || r.URL.Query().Get("symbol") != "AAPL" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"c":190.5,"d":1.5,"dp":0.79,"h":191,"l":188,"o":189,"pc":189,"t":1704200000}`))
	})
	ctx := context.Background()

	q, err := l.Quote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Close != 190.5 || q.ChangePct != 0.79 || q.Open != 189 {
		t.Errorf("unexpected quote %+v", q)
	}

	if _, err := l.Quote(ctx, "AAPL"); err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected second call to be served from cache, got %d requests", hits.Load())
	}
}

func TestLiveUnknownSymbolFallsBack(t *testing.T) {
	l, _ := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	})

	if _, err := l.Quote(context.Background(), "ZZZZ"); err == nil {
		t.Fatal("expected error for zero price")
	}
	q, ok := l.Get(context.Background(), "ZZZZ", time.Now())
	if !ok || !q.Valid() {
		t.Fatalf("expected synthetic fallback quote, got %+v", q)
	}
	if q.ChangePct < -5 || q.ChangePct > 5 {
		t.Errorf("expected fallback change within 5%%, got %v", q.ChangePct)
	}
}

func TestLiveOfflineWithoutKey(t *testing.T) {
	l := NewLive(LiveConfig{}, nil, randsrc.New(1), nil)
	if !l.Offline() {
		t.Fatal("expected offline without API key")
	}
	if _, err := l.Quote(context.Background(), "AAPL"); !errors.Is(err, ErrOffline) {
		t.Errorf("expected ErrOffline, got %v", err)
	}

	first, _ := l.Get(context.Background(), "AAPL", time.Now())
	second, _ := l.Get(context.Background(), "AAPL", time.Now())
	if first.Close < 95 || first.Close > 525 {
		t.Errorf("expected first fallback near the 100-500 base range, got %v", first.Close)
	}
	if second.Open != first.Close {
		t.Errorf("expected fallback to drift from last close %v, got open %v", first.Close, second.Open)
	}
}

func TestLiveServerErrorIsNotFatal(t *testing.T) {
	l, _ := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	if _, err := l.Quote(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error on 429")
	}
	if l.Offline() {
		t.Error("expected HTTP status errors to keep the client online")
	}
	if _, ok := l.Get(context.Background(), "AAPL", time.Now()); !ok {
		t.Error("expected Get to fall back")
	}
}

func TestLiveFetchNews(t *testing.T) {
	l, _ := newTestLive(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/company-news" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("from") != "2024-01-01" {
			t.Errorf("expected from=2024-01-01, got %q", r.URL.Query().Get("from"))
		}
		w.Write([]byte(`[
			{"datetime":1704200000,"headline":"Apple shares surge on record profit","summary":"","source":"Wire"},
			{"datetime":1704200100,"headline":"Apple faces weak demand concern","summary":"","source":"Wire"},
			{"datetime":1704200200,"headline":"","summary":"empty","source":"Wire"}
		]`))
	})
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	items, err := l.FetchNews(context.Background(), "AAPL", from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("FetchNews: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Sentiment != news.Positive || items[1].Sentiment != news.Negative {
		t.Errorf("expected positive then negative, got %v and %v", items[0].Sentiment, items[1].Sentiment)
	}
	if items[0].Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL, got %q", items[0].Symbol)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	_ = c.SetQuote(ctx, "AAPL", market.Quote{Close: 10}, time.Minute)
	if _, ok, _ := c.GetQuote(ctx, "AAPL"); !ok {
		t.Fatal("expected hit before expiry")
	}
	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.GetQuote(ctx, "AAPL"); ok {
		t.Fatal("expected miss after expiry")
	}
}
