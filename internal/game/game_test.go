package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/clock"
	"github.com/zappabad/marketsim/internal/engine"
	"github.com/zappabad/marketsim/internal/instrument"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/market/source"
	"github.com/zappabad/marketsim/internal/portfolio"
)

func newTestGame(t *testing.T, clk clock.Clock) *Game {
	t.Helper()
	g, err := New(context.Background(), DefaultConfig(), nil, clk)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

func dates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2024, 2, 1+i, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func TestNewPricesEveryInstrument(t *testing.T) {
	g := newTestGame(t, nil)
	for _, q := range g.Quotes() {
		if q.Price <= 0 {
			t.Errorf("%s: expected opening price, got %v", q.Ticker.Symbol, q.Price)
		}
	}
	if !g.TotalAssets().Equal(decimal.NewFromInt(10000)) {
		t.Errorf("expected total assets 10000 at start, got %s", g.TotalAssets())
	}
	if abs, pct := g.ProfitLoss(); !abs.IsZero() || !pct.IsZero() {
		t.Errorf("expected break-even at start, got %s / %s", abs, pct)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tickers = nil
	if _, err := New(context.Background(), cfg, nil, nil); err == nil {
		t.Error("expected error for empty basket")
	}
	cfg = DefaultConfig()
	cfg.InitialCash = decimal.Zero
	if _, err := New(context.Background(), cfg, nil, nil); err == nil {
		t.Error("expected error for zero cash")
	}
}

func TestTradeExecutesAtSimulatedPrice(t *testing.T) {
	g := newTestGame(t, nil)
	var price float64
	for _, q := range g.Quotes() {
		if q.Ticker.Symbol == "AAPL" {
			price = q.Price
		}
	}

	tr, err := g.Trade(context.Background(), "AAPL", portfolio.Buy, 3)
	if err != nil {
		t.Fatalf("Trade: %v", err)
	}
	if !tr.Price.Equal(decimal.NewFromFloat(price)) {
		t.Errorf("expected trade at %v, got %s", price, tr.Price)
	}
	want := decimal.NewFromInt(10000).Sub(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(3)))
	if !g.Cash().Equal(want) {
		t.Errorf("expected cash %s, got %s", want, g.Cash())
	}
	if !tr.Time.Equal(g.Now()) {
		t.Errorf("expected trade stamped with simulated time %v, got %v", g.Now(), tr.Time)
	}
}

func TestTradeErrors(t *testing.T) {
	g := newTestGame(t, nil)
	ctx := context.Background()

	if _, err := g.Trade(ctx, "NOPE", portfolio.Buy, 1); !errors.Is(err, market.ErrUnknownTicker) {
		t.Errorf("expected ErrUnknownTicker, got %v", err)
	}
	if _, err := g.Trade(ctx, "AAPL", portfolio.Buy, 1_000_000); !errors.Is(err, portfolio.ErrInsufficientCash) {
		t.Errorf("expected ErrInsufficientCash, got %v", err)
	}
	if _, err := g.Trade(ctx, "AAPL", portfolio.Sell, 1); !errors.Is(err, portfolio.ErrNoPosition) {
		t.Errorf("expected ErrNoPosition, got %v", err)
	}
	if !g.Cash().Equal(decimal.NewFromInt(10000)) || len(g.Trades()) != 0 {
		t.Error("expected rejected trades to leave state untouched")
	}
}

func TestTerminalStateSticks(t *testing.T) {
	g := newTestGame(t, clock.NewHistorical(dates(3)))
	ctx := context.Background()

	rep, err := g.Advance(ctx, 10)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if rep.Outcome != engine.DataEnd {
		t.Fatalf("expected data_end, got %v", rep.Outcome)
	}
	outcome, over := g.Over()
	if !over || outcome != engine.DataEnd {
		t.Fatalf("expected session over with data_end, got %v %v", outcome, over)
	}

	ticks, now := g.TickCount(), g.Now()
	quotes := g.Quotes()
	rep, err = g.Advance(ctx, 5)
	if err != nil || rep.Outcome != engine.DataEnd || len(rep.Ticks) != 0 {
		t.Errorf("expected repeated data_end without ticks, got %+v %v", rep, err)
	}
	if g.TickCount() != ticks || !g.Now().Equal(now) || g.Quotes()[0].Price != quotes[0].Price {
		t.Error("expected no mutation after the session ended")
	}
	if _, err := g.Trade(ctx, "AAPL", portfolio.Buy, 1); !errors.Is(err, ErrGameOver) {
		t.Errorf("expected ErrGameOver, got %v", err)
	}
	if len(g.Leaderboard()) != 1 {
		t.Errorf("expected score recorded at game end, got %d", len(g.Leaderboard()))
	}
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, nil)
	if _, err := g.Trade(ctx, "MSFT", portfolio.Buy, 5); err != nil {
		t.Fatalf("Trade: %v", err)
	}
	if _, err := g.Advance(ctx, 4); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	snap := g.Snapshot()

	h := newTestGame(t, nil)
	if err := h.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !h.Cash().Equal(g.Cash()) {
		t.Errorf("expected cash %s, got %s", g.Cash(), h.Cash())
	}
	if h.TickCount() != g.TickCount() || !h.Now().Equal(g.Now()) {
		t.Errorf("expected tick %d at %v, got %d at %v", g.TickCount(), g.Now(), h.TickCount(), h.Now())
	}
	if !h.TotalAssets().Equal(g.TotalAssets()) {
		t.Errorf("expected total assets %s, got %s", g.TotalAssets(), h.TotalAssets())
	}
	if len(h.Trades()) != 1 {
		t.Errorf("expected 1 trade, got %d", len(h.Trades()))
	}
}

func TestRestoreReplacesHistory(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, nil)
	if _, err := g.Advance(ctx, 6); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	snap := g.Snapshot()

	cfg := DefaultConfig()
	cfg.Seed = 99
	h, err := New(ctx, cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(h.Close)
	if _, err := h.Advance(ctx, 2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := h.Restore(snap); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	for _, q := range g.Quotes() {
		sym := q.Ticker.Symbol
		want, _ := g.History(sym)
		got, _ := h.History(sym)
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d bars, got %d", sym, len(want), len(got))
		}
		for i := range want {
			if !got[i].Time.Equal(want[i].Time) || got[i].OHLC != want[i].OHLC {
				t.Errorf("%s bar %d: expected %+v, got %+v", sym, i, want[i], got[i])
			}
		}
	}
}

func TestRestoreWithoutBarsClearsHistory(t *testing.T) {
	g := newTestGame(t, nil)
	s := g.Snapshot()
	for sym, p := range s.Prices {
		p.Bars = nil
		s.Prices[sym] = p
	}
	if err := g.Restore(s); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for sym := range s.Prices {
		bars, _ := g.History(sym)
		if len(bars) != 0 {
			t.Errorf("%s: expected empty history, got %d bars", sym, len(bars))
		}
	}
}

func TestRestoreRejectsBadBar(t *testing.T) {
	ctx := context.Background()
	g := newTestGame(t, nil)
	if _, err := g.Advance(ctx, 2); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	before, _ := g.History("MSFT")

	bad := g.Snapshot()
	p := bad.Prices["MSFT"]
	p.Bars = append(p.Bars, BarState{Time: g.Now(), Close: 0})
	bad.Prices["MSFT"] = p
	bad.TickCount = 77
	if err := g.Restore(bad); err == nil {
		t.Fatal("expected error for a zero bar close")
	}

	after, _ := g.History("MSFT")
	if len(after) != len(before) || g.TickCount() == 77 {
		t.Error("expected failed restore to leave history untouched")
	}
}

func TestModelForLiveFeed(t *testing.T) {
	src := source.Func(func(context.Context, string, time.Time) (market.Quote, bool) {
		return market.Quote{Close: 102, Change: 2, ChangePct: 2}, true
	})
	cfg := DefaultConfig()

	m, _ := modelFor(cfg, "MSFT", src, nil)
	if _, ok := m.(*instrument.SeededModel); !ok {
		t.Errorf("expected seeded model without a live feed, got %T", m)
	}

	cfg.LiveFeed = true
	m, _ = modelFor(cfg, "MSFT", src, nil)
	if _, ok := m.(*instrument.LiveModel); !ok {
		t.Errorf("expected live model for a live feed, got %T", m)
	}
}

func TestRestoreIsAllOrNothing(t *testing.T) {
	g := newTestGame(t, nil)
	before := g.Snapshot()

	bad := g.Snapshot()
	bad.Portfolio.Cash = decimal.NewFromInt(-5)
	bad.TickCount = 99
	if err := g.Restore(bad); err == nil {
		t.Fatal("expected error for negative cash")
	}

	badClock := g.Snapshot()
	badClock.Clock = clock.State{Mode: clock.ModeHistorical, Index: 3}
	badClock.TickCount = 42
	if err := g.Restore(badClock); err == nil {
		t.Fatal("expected error for mismatched clock")
	}

	after := g.Snapshot()
	if after.TickCount != before.TickCount || !after.Portfolio.Cash.Equal(before.Portfolio.Cash) {
		t.Error("expected failed restores to leave state untouched")
	}
}

func TestRestoreToleratesUnknownPositions(t *testing.T) {
	g := newTestGame(t, nil)
	s := g.Snapshot()
	s.Portfolio.Cash = decimal.NewFromInt(9000)
	s.Portfolio.Positions = []portfolio.Position{{Symbol: "DELISTED", Shares: 10, AvgCost: decimal.NewFromInt(100)}}
	s.Prices["DELISTED"] = PriceState{Price: 50}

	if err := g.Restore(s); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !g.TotalAssets().Equal(decimal.NewFromInt(9000)) {
		t.Errorf("expected unknown holding to be left out of total assets, got %s", g.TotalAssets())
	}
	if len(g.Summary()) != 0 {
		t.Errorf("expected unknown holding to be skipped in summary")
	}
}

func TestRefreshQuoteIsAdvisory(t *testing.T) {
	g := newTestGame(t, nil)
	before := g.Quotes()[0]
	if err := g.RefreshQuote(before.Ticker.Symbol, market.Quote{Close: 12345}); err != nil {
		t.Fatalf("RefreshQuote: %v", err)
	}
	after := g.Quotes()[0]
	if !after.HasReference || after.Reference.Close != 12345 {
		t.Errorf("expected reference quote stored, got %+v", after.Reference)
	}
	if after.Price != before.Price {
		t.Errorf("expected simulated price unchanged, got %v", after.Price)
	}
	if err := g.RefreshQuote("NOPE", market.Quote{Close: 1}); !errors.Is(err, market.ErrUnknownTicker) {
		t.Errorf("expected ErrUnknownTicker, got %v", err)
	}
}

func TestConcurrentReadsDuringAdvance(t *testing.T) {
	g := newTestGame(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			g.Advance(ctx, 1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_ = g.Quotes()
			_ = g.TotalAssets()
			_ = g.News(5)
		}
	}()
	wg.Wait()

	if g.TickCount() == 0 {
		t.Error("expected ticks to have run")
	}
}

func TestLeaderboardKeepsBest(t *testing.T) {
	lb := NewLeaderboard(3)
	for i, pct := range []float64{5, -2, 12, 7, 1} {
		lb.Add(Score{Name: string(rune('a' + i)), ProfitPct: pct})
	}
	scores := lb.Scores()
	if len(scores) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(scores))
	}
	want := []float64{12, 7, 5}
	for i, s := range scores {
		if s.ProfitPct != want[i] {
			t.Errorf("rank %d: expected %v, got %v", i, want[i], s.ProfitPct)
		}
	}
	if lb.Add(Score{Name: "z", ProfitPct: -10}) {
		t.Error("expected low score to miss the board")
	}
}
