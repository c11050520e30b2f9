// Package refresh keeps advisory reference quotes and company news current
// in the background. Reference quotes are display-only and never move a
// simulated price.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zappabad/marketsim/internal/logger"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/news"
)

// Provider fetches live data.
type Provider interface {
	Quote(ctx context.Context, symbol string) (market.Quote, error)
	FetchNews(ctx context.Context, symbol string, from, to time.Time) ([]news.NewsItem, error)
}

// Sink receives refreshed data. *game.Game implements it.
type Sink interface {
	Symbols() []string
	RefreshQuote(symbol string, q market.Quote) error
	AddNews(item news.NewsItem) news.NewsItem
}

// EventType indicates the type of refresh event.
type EventType int

const (
	EventQuote EventType = iota
	EventNews
	EventError
)

// Event reports one refresh outcome.
type Event struct {
	Time    time.Time
	Type    EventType
	Symbol  string
	Quote   market.Quote
	News    *news.NewsItem
	Message string
}

// maxSeen bounds the per-symbol headline memory used for de-duplication.
const maxSeen = 500

// Runner refreshes every symbol of the sink on a timer.
type Runner struct {
	cfg      Config
	provider Provider
	sink     Sink
	now      func() time.Time

	// newsFrom and seen are only touched by the run goroutine.
	newsFrom map[string]time.Time
	seen     map[string]map[string]struct{}

	events        chan Event
	droppedEvents atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewRunner creates a new Runner. The first round runs immediately.
func NewRunner(cfg Config, provider Provider, sink Sink) *Runner {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.NewsLookback <= 0 {
		cfg.NewsLookback = def.NewsLookback
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = def.EventBuffer
	}

	r := &Runner{
		cfg:      cfg,
		provider: provider,
		sink:     sink,
		now:      time.Now,
		newsFrom: make(map[string]time.Time),
		seen:     make(map[string]map[string]struct{}),
		events:   make(chan Event, cfg.EventBuffer),
		closed:   make(chan struct{}),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

func (r *Runner) run() {
	defer r.wg.Done()
	defer close(r.events)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.tick()
	for {
		select {
		case <-r.closed:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.Timeout)
	defer cancel()

	// Close aborts an in-flight round.
	go func() {
		select {
		case <-r.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	symbols := r.sink.Symbols()
	r.refreshQuotes(ctx, symbols)
	if r.cfg.News {
		r.refreshNews(ctx, symbols)
	}
}

type quoteResult struct {
	q   market.Quote
	err error
}

func (r *Runner) refreshQuotes(ctx context.Context, symbols []string) {
	results := make([]quoteResult, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			q, err := r.provider.Quote(gctx, sym)
			results[i] = quoteResult{q: q, err: err}
			// A failed symbol must not cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	for i, sym := range symbols {
		res := results[i]
		if res.err == nil && !res.q.Valid() {
			continue
		}
		if res.err == nil {
			res.err = r.sink.RefreshQuote(sym, res.q)
		}
		if res.err != nil {
			logger.Debug(ctx, "reference quote refresh failed", "symbol", sym, "error", res.err)
			r.emitEvent(Event{Time: r.now(), Type: EventError, Symbol: sym, Message: res.err.Error()})
			continue
		}
		r.emitEvent(Event{Time: r.now(), Type: EventQuote, Symbol: sym, Quote: res.q})
	}
}

func (r *Runner) refreshNews(ctx context.Context, symbols []string) {
	to := r.now()
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return
		}
		from, ok := r.newsFrom[sym]
		if !ok {
			from = to.Add(-r.cfg.NewsLookback)
		}
		items, err := r.provider.FetchNews(ctx, sym, from, to)
		if err != nil {
			r.emitEvent(Event{Time: to, Type: EventError, Symbol: sym, Message: err.Error()})
			continue
		}
		r.newsFrom[sym] = to

		seen := r.seen[sym]
		if seen == nil || len(seen) > maxSeen {
			seen = make(map[string]struct{})
			r.seen[sym] = seen
		}
		for _, item := range items {
			if _, dup := seen[item.Headline]; dup {
				continue
			}
			seen[item.Headline] = struct{}{}
			published := r.sink.AddNews(item)
			r.emitEvent(Event{Time: to, Type: EventNews, Symbol: sym, News: &published})
		}
	}
}

func (r *Runner) emitEvent(ev Event) {
	if r.cfg.DropEvents {
		select {
		case r.events <- ev:
		default:
			r.droppedEvents.Add(1)
		}
	} else {
		select {
		case r.events <- ev:
		case <-r.closed:
		}
	}
}

// Events returns the refresh events channel. It is closed by Close.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// DroppedEvents returns the count of dropped events.
func (r *Runner) DroppedEvents() int64 {
	return r.droppedEvents.Load()
}

// Close shuts down the runner.
func (r *Runner) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
	r.wg.Wait()
}
