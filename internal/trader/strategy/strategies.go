package strategy

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/news"
	"github.com/zappabad/marketsim/internal/portfolio"
	"github.com/zappabad/marketsim/internal/trader"
)

// BuyAndHold splits cash evenly across every priced symbol on its first
// step and never trades again.
type BuyAndHold struct {
	done bool
}

// NewBuyAndHold creates a new BuyAndHold.
func NewBuyAndHold() *BuyAndHold {
	return &BuyAndHold{}
}

// Step implements Strategy.
func (s *BuyAndHold) Step(_ context.Context, _ time.Time, mr MarketReader, _ NewsReader) []trader.Intent {
	if s.done {
		return nil
	}
	var priced []string
	prices := make(map[string]float64)
	for _, q := range mr.Quotes() {
		if q.Price > 0 {
			priced = append(priced, q.Ticker.Symbol)
			prices[q.Ticker.Symbol] = q.Price
		}
	}
	if len(priced) == 0 {
		return nil
	}
	s.done = true

	budget := mr.Cash().Div(decimal.NewFromInt(int64(len(priced))))
	var intents []trader.Intent
	for _, sym := range priced {
		if n := sharesFor(budget, prices[sym]); n > 0 {
			intents = append(intents, trader.Intent{Symbol: sym, Side: portfolio.Buy, Shares: n, Reason: "initial allocation"})
		}
	}
	return intents
}

// MomentumConfig tunes the signal-following strategies.
type MomentumConfig struct {
	// BudgetFraction is the share of remaining cash spent per buy.
	BudgetFraction decimal.Decimal
	// MaxPositions caps the number of open positions.
	MaxPositions int
}

// DefaultMomentumConfig returns a MomentumConfig with reasonable defaults.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{
		BudgetFraction: decimal.RequireFromString("0.2"),
		MaxPositions:   4,
	}
}

// Momentum buys on a strong-buy tag and sells out on a sell tag.
type Momentum struct {
	cfg MomentumConfig
}

// NewMomentum creates a new Momentum.
func NewMomentum(cfg MomentumConfig) *Momentum {
	return &Momentum{cfg: cfg}
}

// Step implements Strategy.
func (s *Momentum) Step(_ context.Context, _ time.Time, mr MarketReader, _ NewsReader) []trader.Intent {
	return signalIntents(s.cfg, mr, func(q rowSignal) int {
		switch q.rec {
		case market.RecommendationStrongBuy:
			return 1
		case market.RecommendationSell:
			return -1
		}
		return 0
	})
}

// NewsFollower buys on a positive latest headline and sells out on a
// negative one.
type NewsFollower struct {
	cfg MomentumConfig
}

// NewNewsFollower creates a new NewsFollower.
func NewNewsFollower(cfg MomentumConfig) *NewsFollower {
	return &NewsFollower{cfg: cfg}
}

// Step implements Strategy.
func (s *NewsFollower) Step(_ context.Context, _ time.Time, mr MarketReader, nr NewsReader) []trader.Intent {
	return signalIntents(s.cfg, mr, func(q rowSignal) int {
		latest := nr.NewsFor(q.symbol, 1)
		if len(latest) == 0 {
			return 0
		}
		switch latest[0].Sentiment {
		case news.Positive:
			return 1
		case news.Negative:
			return -1
		}
		return 0
	})
}

type rowSignal struct {
	symbol string
	price  float64
	rec    market.Recommendation
}

// signalIntents sells whole positions on a negative signal first, then
// spends BudgetFraction of the cash left on each positive signal.
func signalIntents(cfg MomentumConfig, mr MarketReader, signal func(rowSignal) int) []trader.Intent {
	held := holdings(mr.Summary())
	cash := mr.Cash()
	open := len(held)

	var intents []trader.Intent
	var entries []rowSignal
	for _, q := range mr.Quotes() {
		if q.Price <= 0 {
			continue
		}
		row := rowSignal{symbol: q.Ticker.Symbol, price: q.Price, rec: q.Recommendation}
		shares := held[row.symbol]
		switch sig := signal(row); {
		case sig < 0 && shares > 0:
			intents = append(intents, trader.Intent{Symbol: row.symbol, Side: portfolio.Sell, Shares: shares, Reason: "exit signal"})
			cash = cash.Add(decimal.NewFromFloat(row.price).Mul(decimal.NewFromInt(shares)))
			open--
		case sig > 0 && shares == 0:
			entries = append(entries, row)
		}
	}

	for _, row := range entries {
		if open >= cfg.MaxPositions {
			break
		}
		n := sharesFor(cash.Mul(cfg.BudgetFraction), row.price)
		if n <= 0 {
			continue
		}
		intents = append(intents, trader.Intent{Symbol: row.symbol, Side: portfolio.Buy, Shares: n, Reason: "entry signal"})
		cash = cash.Sub(decimal.NewFromFloat(row.price).Mul(decimal.NewFromInt(n)))
		open++
	}
	return intents
}
