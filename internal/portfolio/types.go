package portfolio

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientCash   = errors.New("insufficient cash")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrNoPosition         = errors.New("no position")
	ErrInvalidShares      = errors.New("share count must be positive")
	ErrInvalidPrice       = errors.New("price must be positive")
	ErrInvalidSymbol      = errors.New("symbol must not be empty")
)

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// ParseSide accepts "buy"/"sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", errors.New("side must be buy or sell")
}

// Position is a holding in one symbol. Shares is always positive; a
// position that reaches zero is removed.
type Position struct {
	Symbol  string          `yaml:"symbol"`
	Shares  int64           `yaml:"shares"`
	AvgCost decimal.Decimal `yaml:"avg_cost"`
}

// CostBasis returns shares times average cost.
func (p Position) CostBasis() decimal.Decimal {
	return p.AvgCost.Mul(decimal.NewFromInt(p.Shares))
}

// Trade is an executed order. It is immutable once created.
type Trade struct {
	ID     string          `yaml:"id"`
	Time   time.Time       `yaml:"time"`
	Side   Side            `yaml:"side"`
	Symbol string          `yaml:"symbol"`
	Shares int64           `yaml:"shares"`
	Price  decimal.Decimal `yaml:"price"`
}

// NewTrade validates its inputs and stamps a fresh ID.
func NewTrade(side Side, symbol string, shares int64, price decimal.Decimal, at time.Time) (Trade, error) {
	if side != Buy && side != Sell {
		return Trade{}, errors.New("side must be buy or sell")
	}
	if symbol == "" {
		return Trade{}, ErrInvalidSymbol
	}
	if shares <= 0 {
		return Trade{}, ErrInvalidShares
	}
	if !price.IsPositive() {
		return Trade{}, ErrInvalidPrice
	}
	return Trade{
		ID:     uuid.NewString(),
		Time:   at,
		Side:   side,
		Symbol: symbol,
		Shares: shares,
		Price:  price,
	}, nil
}

// Total returns shares times price.
func (t Trade) Total() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Shares))
}

// PriceLookup returns the current price of a symbol. A false return means
// the symbol is not known and is left out of valuations.
type PriceLookup func(symbol string) (decimal.Decimal, bool)

// SummaryRow is one line of the holdings table.
type SummaryRow struct {
	Symbol      string
	Shares      int64
	AvgCost     decimal.Decimal
	Price       decimal.Decimal
	MarketValue decimal.Decimal
	CostBasis   decimal.Decimal
	ProfitLoss  decimal.Decimal
	// ProfitLossPct is unrealized P/L over cost basis, 0 when the basis is 0.
	ProfitLossPct decimal.Decimal
}

// State is the persisted form of a portfolio.
type State struct {
	Cash        decimal.Decimal `yaml:"cash"`
	InitialCash decimal.Decimal `yaml:"initial_cash"`
	Positions   []Position      `yaml:"positions"`
	Trades      []Trade         `yaml:"trades"`
}
