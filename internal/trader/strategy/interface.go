package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/game"
	"github.com/zappabad/marketsim/internal/news"
	"github.com/zappabad/marketsim/internal/portfolio"
	"github.com/zappabad/marketsim/internal/trader"
)

// MarketReader provides read-only access to market and account data.
type MarketReader interface {
	Quotes() []game.QuoteRow
	Summary() []portfolio.SummaryRow
	Cash() decimal.Decimal
}

// NewsReader provides read-only access to news data.
type NewsReader interface {
	NewsFor(symbol string, n int) []news.NewsItem
}

// Strategy is the interface for autopilot strategies.
type Strategy interface {
	// Step is called once per turn and returns the trades to attempt.
	Step(ctx context.Context, now time.Time, mr MarketReader, nr NewsReader) []trader.Intent
}

// Names lists the strategies ByName knows.
var Names = []string{"hold", "momentum", "news"}

// ByName returns a fresh strategy.
func ByName(name string) (Strategy, error) {
	switch name {
	case "hold":
		return NewBuyAndHold(), nil
	case "momentum":
		return NewMomentum(DefaultMomentumConfig()), nil
	case "news":
		return NewNewsFollower(DefaultMomentumConfig()), nil
	default:
		return nil, fmt.Errorf("strategy: unknown %q (valid: %v)", name, Names)
	}
}

// sharesFor is the whole number of shares budget buys at price.
func sharesFor(budget decimal.Decimal, price float64) int64 {
	if price <= 0 || !budget.IsPositive() {
		return 0
	}
	return budget.Div(decimal.NewFromFloat(price)).Floor().IntPart()
}

func holdings(rows []portfolio.SummaryRow) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Symbol] = r.Shares
	}
	return out
}
