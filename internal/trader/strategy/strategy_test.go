package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/game"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/news"
	"github.com/zappabad/marketsim/internal/portfolio"
)

type fakeMarket struct {
	quotes  []game.QuoteRow
	summary []portfolio.SummaryRow
	cash    decimal.Decimal
}

func (m fakeMarket) Quotes() []game.QuoteRow         { return m.quotes }
func (m fakeMarket) Summary() []portfolio.SummaryRow { return m.summary }
func (m fakeMarket) Cash() decimal.Decimal           { return m.cash }

type fakeNews map[string][]news.NewsItem

func (f fakeNews) NewsFor(symbol string, n int) []news.NewsItem {
	items := f[symbol]
	if len(items) > n {
		items = items[:n]
	}
	return items
}

func row(sym string, price float64, rec market.Recommendation) game.QuoteRow {
	return game.QuoteRow{Ticker: market.Ticker{Symbol: sym}, Price: price, Recommendation: rec}
}

func TestByName(t *testing.T) {
	for _, name := range Names {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
	}
	if _, err := ByName("yolo"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestBuyAndHoldAllocatesOnce(t *testing.T) {
	m := fakeMarket{
		quotes: []game.QuoteRow{row("A", 10, market.RecommendationHold), row("B", 30, market.RecommendationHold), row("C", 0, market.RecommendationNA)},
		cash:   decimal.NewFromInt(1000),
	}
	s := NewBuyAndHold()

	intents := s.Step(context.Background(), time.Time{}, m, nil)
	if len(intents) != 2 {
		t.Fatalf("expected 2 intents, got %d", len(intents))
	}
	if intents[0].Symbol != "A" || intents[0].Shares != 50 {
		t.Errorf("expected 50 A, got %d %s", intents[0].Shares, intents[0].Symbol)
	}
	if intents[1].Symbol != "B" || intents[1].Shares != 16 {
		t.Errorf("expected 16 B, got %d %s", intents[1].Shares, intents[1].Symbol)
	}
	if again := s.Step(context.Background(), time.Time{}, m, nil); len(again) != 0 {
		t.Errorf("expected no intents on second step, got %d", len(again))
	}
}

func TestMomentumSellsThenBuys(t *testing.T) {
	m := fakeMarket{
		quotes: []game.QuoteRow{
			row("UP", 20, market.RecommendationStrongBuy),
			row("DOWN", 50, market.RecommendationSell),
			row("FLAT", 10, market.RecommendationHold),
		},
		summary: []portfolio.SummaryRow{{Symbol: "DOWN", Shares: 4}},
		cash:    decimal.NewFromInt(800),
	}
	intents := NewMomentum(DefaultMomentumConfig()).Step(context.Background(), time.Time{}, m, nil)
	if len(intents) != 2 {
		t.Fatalf("expected 2 intents, got %+v", intents)
	}
	if intents[0].Side != portfolio.Sell || intents[0].Symbol != "DOWN" || intents[0].Shares != 4 {
		t.Errorf("expected sell 4 DOWN first, got %+v", intents[0])
	}
	// (800 + 200) * 0.2 / 20
	if intents[1].Side != portfolio.Buy || intents[1].Symbol != "UP" || intents[1].Shares != 10 {
		t.Errorf("expected buy 10 UP, got %+v", intents[1])
	}
}

func TestMomentumRespectsMaxPositions(t *testing.T) {
	cfg := DefaultMomentumConfig()
	cfg.MaxPositions = 1
	m := fakeMarket{
		quotes:  []game.QuoteRow{row("UP", 20, market.RecommendationStrongBuy)},
		summary: []portfolio.SummaryRow{{Symbol: "HELD", Shares: 1}},
		cash:    decimal.NewFromInt(800),
	}
	if intents := NewMomentum(cfg).Step(context.Background(), time.Time{}, m, nil); len(intents) != 0 {
		t.Errorf("expected no intents at the position cap, got %+v", intents)
	}
}

func TestNewsFollower(t *testing.T) {
	m := fakeMarket{
		quotes:  []game.QuoteRow{row("GOOD", 10, market.RecommendationHold), row("BAD", 10, market.RecommendationHold)},
		summary: []portfolio.SummaryRow{{Symbol: "BAD", Shares: 3}},
		cash:    decimal.NewFromInt(100),
	}
	nr := fakeNews{
		"GOOD": {{Symbol: "GOOD", Sentiment: news.Positive}},
		"BAD":  {{Symbol: "BAD", Sentiment: news.Negative}},
	}
	intents := NewNewsFollower(DefaultMomentumConfig()).Step(context.Background(), time.Time{}, m, nr)
	if len(intents) != 2 {
		t.Fatalf("expected 2 intents, got %+v", intents)
	}
	if intents[0].Symbol != "BAD" || intents[0].Side != portfolio.Sell {
		t.Errorf("expected sell BAD first, got %+v", intents[0])
	}
	// (100 + 30) * 0.2 / 10
	if intents[1].Symbol != "GOOD" || intents[1].Shares != 2 {
		t.Errorf("expected buy 2 GOOD, got %+v", intents[1])
	}
}
