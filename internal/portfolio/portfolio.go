// Package portfolio implements the player's cash and holdings accounting.
package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Portfolio tracks cash, positions and the trade log. It is not safe for
// concurrent use.
type Portfolio struct {
	cash      decimal.Decimal
	initial   decimal.Decimal
	positions map[string]Position
	trades    []Trade
}

// New creates a portfolio holding only initial cash.
func New(initial decimal.Decimal) *Portfolio {
	return &Portfolio{
		cash:      initial,
		initial:   initial,
		positions: make(map[string]Position),
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() decimal.Decimal { return p.cash }

// InitialCash returns the starting balance.
func (p *Portfolio) InitialCash() decimal.Decimal { return p.initial }

// Position returns the holding for symbol.
func (p *Portfolio) Position(symbol string) (Position, bool) {
	pos, ok := p.positions[symbol]
	return pos, ok
}

// Positions returns all holdings sorted by symbol.
func (p *Portfolio) Positions() []Position {
	out := make([]Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Trades returns a copy of the trade log, oldest first.
func (p *Portfolio) Trades() []Trade {
	out := make([]Trade, len(p.trades))
	copy(out, p.trades)
	return out
}

// Buy purchases shares at price. On error nothing changes.
func (p *Portfolio) Buy(symbol string, shares int64, price decimal.Decimal, at time.Time) (Trade, error) {
	t, err := NewTrade(Buy, symbol, shares, price, at)
	if err != nil {
		return Trade{}, err
	}
	cost := t.Total()
	if cost.GreaterThan(p.cash) {
		return Trade{}, fmt.Errorf("%w: need %s, have %s", ErrInsufficientCash, cost.StringFixed(2), p.cash.StringFixed(2))
	}

	pos, ok := p.positions[symbol]
	if !ok {
		pos = Position{Symbol: symbol, AvgCost: price, Shares: shares}
	} else {
		total := pos.Shares + shares
		pos.AvgCost = pos.CostBasis().Add(cost).Div(decimal.NewFromInt(total))
		pos.Shares = total
	}

	p.cash = p.cash.Sub(cost)
	p.positions[symbol] = pos
	p.trades = append(p.trades, t)
	return t, nil
}

// Sell disposes of shares at price. The average cost of the remaining
// shares is unchanged. On error nothing changes.
func (p *Portfolio) Sell(symbol string, shares int64, price decimal.Decimal, at time.Time) (Trade, error) {
	t, err := NewTrade(Sell, symbol, shares, price, at)
	if err != nil {
		return Trade{}, err
	}
	pos, ok := p.positions[symbol]
	if !ok {
		return Trade{}, fmt.Errorf("%w in %s", ErrNoPosition, symbol)
	}
	if shares > pos.Shares {
		return Trade{}, fmt.Errorf("%w: have %d %s, want to sell %d", ErrInsufficientShares, pos.Shares, symbol, shares)
	}

	pos.Shares -= shares
	if pos.Shares == 0 {
		delete(p.positions, symbol)
	} else {
		p.positions[symbol] = pos
	}
	p.cash = p.cash.Add(t.Total())
	p.trades = append(p.trades, t)
	return t, nil
}

// MarketValue sums the value of holdings known to lookup.
func (p *Portfolio) MarketValue(lookup PriceLookup) decimal.Decimal {
	total := decimal.Zero
	for sym, pos := range p.positions {
		price, ok := lookup(sym)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(pos.Shares)))
	}
	return total
}

// TotalAssets returns cash plus market value.
func (p *Portfolio) TotalAssets(lookup PriceLookup) decimal.Decimal {
	return p.cash.Add(p.MarketValue(lookup))
}

// ProfitLoss returns total assets minus initial cash, absolute and as a
// percent of initial cash.
func (p *Portfolio) ProfitLoss(lookup PriceLookup) (decimal.Decimal, decimal.Decimal) {
	abs := p.TotalAssets(lookup).Sub(p.initial)
	if p.initial.IsZero() {
		return abs, decimal.Zero
	}
	return abs, abs.Div(p.initial).Mul(hundred)
}

// Insolvent reports whether total assets have fallen to ratio times the
// initial cash or below.
func (p *Portfolio) Insolvent(lookup PriceLookup, ratio decimal.Decimal) bool {
	return p.TotalAssets(lookup).LessThanOrEqual(p.initial.Mul(ratio))
}

// Summary returns one row per holding known to lookup, sorted by symbol.
func (p *Portfolio) Summary(lookup PriceLookup) []SummaryRow {
	rows := make([]SummaryRow, 0, len(p.positions))
	for _, pos := range p.Positions() {
		price, ok := lookup(pos.Symbol)
		if !ok {
			continue
		}
		value := price.Mul(decimal.NewFromInt(pos.Shares))
		basis := pos.CostBasis()
		pl := value.Sub(basis)
		pct := decimal.Zero
		if !basis.IsZero() {
			pct = pl.Div(basis).Mul(hundred)
		}
		rows = append(rows, SummaryRow{
			Symbol:        pos.Symbol,
			Shares:        pos.Shares,
			AvgCost:       pos.AvgCost,
			Price:         price,
			MarketValue:   value,
			CostBasis:     basis,
			ProfitLoss:    pl,
			ProfitLossPct: pct,
		})
	}
	return rows
}

// State returns a snapshot for persistence.
func (p *Portfolio) State() State {
	return State{
		Cash:        p.cash,
		InitialCash: p.initial,
		Positions:   p.Positions(),
		Trades:      p.Trades(),
	}
}

// FromState rebuilds a portfolio from a snapshot.
func FromState(s State) (*Portfolio, error) {
	if s.Cash.IsNegative() {
		return nil, errors.New("portfolio: negative cash")
	}
	if !s.InitialCash.IsPositive() {
		return nil, errors.New("portfolio: initial cash must be positive")
	}
	p := New(s.InitialCash)
	p.cash = s.Cash
	for _, pos := range s.Positions {
		if pos.Symbol == "" || pos.Shares <= 0 || pos.AvgCost.IsNegative() {
			return nil, fmt.Errorf("portfolio: invalid position %+v", pos)
		}
		if _, dup := p.positions[pos.Symbol]; dup {
			return nil, fmt.Errorf("portfolio: duplicate position %s", pos.Symbol)
		}
		p.positions[pos.Symbol] = pos
	}
	p.trades = append(p.trades, s.Trades...)
	return p, nil
}
