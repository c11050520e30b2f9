// Package game owns one simulation session and serializes every command
// and read against it.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/clock"
	"github.com/zappabad/marketsim/internal/engine"
	"github.com/zappabad/marketsim/internal/instrument"
	"github.com/zappabad/marketsim/internal/logger"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/market/source"
	"github.com/zappabad/marketsim/internal/news"
	newsservice "github.com/zappabad/marketsim/internal/news/service"
	newsview "github.com/zappabad/marketsim/internal/news/view"
	"github.com/zappabad/marketsim/internal/news/sentiment"
	"github.com/zappabad/marketsim/internal/portfolio"
	"github.com/zappabad/marketsim/internal/randsrc"
)

var (
	// ErrGameOver is returned by Trade once the session has ended.
	ErrGameOver = errors.New("game over")
	// ErrNotPriced is returned when trading a symbol that has no price yet.
	ErrNotPriced = errors.New("instrument has no price yet")
)

// QuoteRow is the market table view of one instrument.
type QuoteRow struct {
	Ticker         market.Ticker
	Price          float64
	Prior          float64
	Change         float64
	ChangePct      float64
	Recommendation market.Recommendation
	Reference      market.Quote
	HasReference   bool
}

// Game owns instruments, engine, portfolio, news and clock behind one lock.
type Game struct {
	mu sync.Mutex

	cfg         Config
	engine      *engine.Engine
	portfolio   *portfolio.Portfolio
	news        *newsservice.NewsService
	clock       clock.Clock
	leaderboard *Leaderboard
	outcome     engine.Outcome
}

// New creates a session. src feeds the seeded instruments and may be nil,
// in which case every instrument runs on the synthetic model. clk may be
// nil for a session clock built from cfg.Session.
func New(ctx context.Context, cfg Config, src source.Source, clk clock.Clock) (*Game, error) {
	if len(cfg.Tickers) == 0 {
		return nil, errors.New("game: empty basket")
	}
	if !cfg.InitialCash.IsPositive() {
		return nil, errors.New("game: initial cash must be positive")
	}
	if clk == nil {
		clk = clock.NewSession(cfg.Session)
	}

	rng := randsrc.New(cfg.Seed)
	ns := newsservice.NewNewsService(cfg.News)
	room := sentiment.NewEngine(cfg.Sentiment, rng, ns)
	pf := portfolio.New(cfg.InitialCash)

	insts := make([]*instrument.Instrument, 0, len(cfg.Tickers))
	starts := make(map[string]float64)
	for _, tk := range cfg.Tickers {
		model, start := modelFor(cfg, tk.Symbol, src, rng)
		insts = append(insts, instrument.New(tk, cfg.Instrument, model))
		if start > 0 {
			starts[tk.Symbol] = start
		}
	}

	g := &Game{
		cfg:         cfg,
		engine:      engine.New(cfg.Engine, rng, clk, insts, pf, room, ns),
		portfolio:   pf,
		news:        ns,
		clock:       clk,
		leaderboard: NewLeaderboard(cfg.LeaderboardSize),
	}
	g.prime(ctx, starts)
	return g, nil
}

// modelFor picks the price model of symbol. Synthetic models also return
// their starting price.
func modelFor(cfg Config, symbol string, src source.Source, rng randsrc.Source) (instrument.Model, float64) {
	start, synthetic := cfg.Synthetic[symbol]
	if synthetic || src == nil {
		if start <= 0 {
			start = 100
		}
		return &instrument.SyntheticModel{Params: cfg.PumpDump, Rand: rng, Start: start}, start
	}
	if cfg.LiveFeed {
		return &instrument.LiveModel{Source: src, Rand: rng, NoiseSigma: cfg.Instrument.NoiseSigma}, 0
	}
	return &instrument.SeededModel{Source: src, Rand: rng, NoiseSigma: cfg.Instrument.NoiseSigma}, 0
}

// prime gives every instrument an opening price at the clock's start.
// Seeded instruments without data for that time stay unpriced until their
// first tick.
func (g *Game) prime(ctx context.Context, starts map[string]float64) {
	at := g.clock.Now()
	for _, inst := range g.engine.Instruments() {
		if start, ok := starts[inst.Symbol()]; ok {
			inst.Seed(start, 0)
			continue
		}
		inst.Advance(ctx, at, 0)
	}
}

// Close releases the news subscription channel.
func (g *Game) Close() {
	g.news.Close()
}

// Trade executes shares of symbol at the instrument's current simulated
// price.
func (g *Game) Trade(ctx context.Context, symbol string, side portfolio.Side, shares int64) (portfolio.Trade, error) {
	ctx, span := logger.StartSpan(ctx, "game.Trade")
	t, err := g.trade(ctx, symbol, side, shares)
	logger.EndSpan(span, err)
	return t, err
}

func (g *Game) trade(ctx context.Context, symbol string, side portfolio.Side, shares int64) (portfolio.Trade, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome.Terminal() {
		return portfolio.Trade{}, ErrGameOver
	}
	inst, ok := g.engine.Instrument(symbol)
	if !ok {
		return portfolio.Trade{}, fmt.Errorf("game: %s %s: %w", side, symbol, market.ErrUnknownTicker)
	}
	if !inst.Priced() {
		return portfolio.Trade{}, fmt.Errorf("game: %s %s: %w", side, symbol, ErrNotPriced)
	}

	price := decimal.NewFromFloat(inst.Price())
	at := g.clock.Now()

	var (
		t   portfolio.Trade
		err error
	)
	switch side {
	case portfolio.Buy:
		t, err = g.portfolio.Buy(symbol, shares, price, at)
	case portfolio.Sell:
		t, err = g.portfolio.Sell(symbol, shares, price, at)
	default:
		err = fmt.Errorf("unknown side %q", side)
	}
	if err != nil {
		return portfolio.Trade{}, fmt.Errorf("game: %s %s: %w", side, symbol, err)
	}

	logger.Trade(ctx, symbol, string(side), shares, inst.Price(), t.ID, "cash", g.portfolio.Cash().StringFixed(2))
	return t, nil
}

// Advance runs up to n ticks. Once the session is over it returns the
// terminal outcome again without touching any state.
func (g *Game) Advance(ctx context.Context, n int) (engine.TurnReport, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.outcome.Terminal() {
		return engine.TurnReport{Requested: n, Outcome: g.outcome}, nil
	}

	rep, err := g.engine.Advance(ctx, n)
	g.outcome = rep.Outcome
	if g.outcome.Terminal() {
		g.recordScoreLocked()
		logger.Info(ctx, "session over", "outcome", g.outcome.String(), "tick", g.engine.TickCount())
	}
	return rep, err
}

// RecordScore puts the current profit on the leaderboard.
func (g *Game) RecordScore() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.recordScoreLocked()
}

func (g *Game) recordScoreLocked() bool {
	_, pct := g.portfolio.ProfitLoss(g.engine.Lookup)
	return g.leaderboard.Add(Score{
		Name:      g.cfg.Player,
		ProfitPct: pct.Round(2).InexactFloat64(),
		Outcome:   g.outcome.String(),
		Time:      g.clock.Now(),
	})
}

// RefreshQuote stores an advisory live quote for display. It never moves
// the simulated price.
func (g *Game) RefreshQuote(symbol string, q market.Quote) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	inst, ok := g.engine.Instrument(symbol)
	if !ok {
		return fmt.Errorf("game: refresh %s: %w", symbol, market.ErrUnknownTicker)
	}
	inst.SetReference(q)
	return nil
}

// AddNews publishes an externally sourced item, such as fetched company
// news, into the session's news log. It moves no price directly; the
// sentiment nudge may pick it up on later ticks.
func (g *Game) AddNews(item news.NewsItem) news.NewsItem {
	return g.news.Publish(item)
}

// Symbols returns the basket symbols in display order.
func (g *Game) Symbols() []string {
	out := make([]string, 0, len(g.cfg.Tickers))
	for _, tk := range g.cfg.Tickers {
		out = append(out, tk.Symbol)
	}
	return out
}

// Quotes returns the market table.
func (g *Game) Quotes() []QuoteRow {
	g.mu.Lock()
	defer g.mu.Unlock()

	insts := g.engine.Instruments()
	rows := make([]QuoteRow, 0, len(insts))
	for _, inst := range insts {
		ref, hasRef := inst.Reference()
		rows = append(rows, QuoteRow{
			Ticker:         inst.Ticker(),
			Price:          inst.Price(),
			Prior:          inst.Prior(),
			Change:         inst.Change(),
			ChangePct:      inst.ChangePct(),
			Recommendation: inst.Recommendation(),
			Reference:      ref,
			HasReference:   hasRef,
		})
	}
	return rows
}

// History returns the bars of symbol in chronological order.
func (g *Game) History(symbol string) ([]market.Bar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	inst, ok := g.engine.Instrument(symbol)
	if !ok {
		return nil, fmt.Errorf("game: history %s: %w", symbol, market.ErrUnknownTicker)
	}
	return inst.History(), nil
}

// Summary returns the holdings table.
func (g *Game) Summary() []portfolio.SummaryRow {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.portfolio.Summary(g.engine.Lookup)
}

// Cash returns the cash balance.
func (g *Game) Cash() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.portfolio.Cash()
}

// Trades returns the trade log.
func (g *Game) Trades() []portfolio.Trade {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.portfolio.Trades()
}

// TotalAssets returns cash plus market value.
func (g *Game) TotalAssets() decimal.Decimal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.portfolio.TotalAssets(g.engine.Lookup)
}

// ProfitLoss returns profit against initial cash, absolute and percent.
func (g *Game) ProfitLoss() (decimal.Decimal, decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.portfolio.ProfitLoss(g.engine.Lookup)
}

// News returns the latest n items of the global log, newest first.
func (g *Game) News(n int) []news.NewsItem {
	return g.news.Latest(n)
}

// NewsFor returns the latest n items for symbol, newest first.
func (g *Game) NewsFor(symbol string, n int) []news.NewsItem {
	return g.news.LatestFor(symbol, n)
}

// NewsEvents streams published news for subscribers such as the TUI.
func (g *Game) NewsEvents() <-chan newsview.NewsEvent {
	return g.news.Events()
}

// Now returns the simulated time.
func (g *Game) Now() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.clock.Now()
}

// TickCount returns the number of completed ticks.
func (g *Game) TickCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine.TickCount()
}

// Over reports the terminal outcome, if any.
func (g *Game) Over() (engine.Outcome, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome, g.outcome.Terminal()
}

// Leaderboard returns the stored scores.
func (g *Game) Leaderboard() []Score {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.leaderboard.Scores()
}
