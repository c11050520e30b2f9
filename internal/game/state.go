package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/zappabad/marketsim/internal/clock"
	"github.com/zappabad/marketsim/internal/engine"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/portfolio"
)

// StateVersion is bumped when State changes incompatibly.
const StateVersion = 1

// PriceState is the saved price and recent bars of one instrument.
type PriceState struct {
	Price float64    `yaml:"price"`
	Prior float64    `yaml:"prior"`
	Bars  []BarState `yaml:"bars,omitempty"`
}

// BarState is one saved history bar.
type BarState struct {
	Time  time.Time `yaml:"time"`
	Open  float64   `yaml:"open"`
	High  float64   `yaml:"high"`
	Low   float64   `yaml:"low"`
	Close float64   `yaml:"close"`
}

func barStates(bars []market.Bar) []BarState {
	out := make([]BarState, len(bars))
	for i, b := range bars {
		out[i] = BarState{Time: b.Time, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}
	}
	return out
}

func (p PriceState) bars() []market.Bar {
	out := make([]market.Bar, len(p.Bars))
	for i, b := range p.Bars {
		out[i] = market.Bar{Time: b.Time, OHLC: market.OHLC{Open: b.Open, High: b.High, Low: b.Low, Close: b.Close}}
	}
	return out
}

// State is everything a save file holds.
type State struct {
	Version     int                   `yaml:"version"`
	Player      string                `yaml:"player"`
	Portfolio   portfolio.State       `yaml:"portfolio"`
	Clock       clock.State           `yaml:"clock"`
	TickCount   int                   `yaml:"tick_count"`
	Outcome     string                `yaml:"outcome"`
	Prices      map[string]PriceState `yaml:"prices"`
	Leaderboard []Score               `yaml:"leaderboard"`
}

// Snapshot captures the session.
func (g *Game) Snapshot() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	prices := make(map[string]PriceState)
	for _, inst := range g.engine.Instruments() {
		if inst.Priced() {
			prices[inst.Symbol()] = PriceState{
				Price: inst.Price(),
				Prior: inst.Prior(),
				Bars:  barStates(inst.History()),
			}
		}
	}
	return State{
		Version:     StateVersion,
		Player:      g.cfg.Player,
		Portfolio:   g.portfolio.State(),
		Clock:       g.clock.State(),
		TickCount:   g.engine.TickCount(),
		Outcome:     g.outcome.String(),
		Prices:      prices,
		Leaderboard: g.leaderboard.Scores(),
	}
}

// Restore replaces the session with s. On error nothing changes. Positions
// in symbols outside the basket are kept but not valued; prices for such
// symbols are ignored. Each restored instrument's history is replaced by
// its saved bars.
func (g *Game) Restore(s State) error {
	if s.Version != StateVersion {
		return fmt.Errorf("game: unsupported state version %d", s.Version)
	}
	if s.TickCount < 0 {
		return errors.New("game: negative tick count")
	}
	outcome, err := parseOutcome(s.Outcome)
	if err != nil {
		return err
	}
	pf, err := portfolio.FromState(s.Portfolio)
	if err != nil {
		return fmt.Errorf("game: %w", err)
	}
	for sym, p := range s.Prices {
		if p.Price <= 0 {
			return fmt.Errorf("game: non-positive price for %s", sym)
		}
		for _, b := range p.Bars {
			if b.Close <= 0 {
				return fmt.Errorf("game: non-positive bar close for %s at %s", sym, b.Time.Format(time.RFC3339))
			}
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// The clock validates before it mutates, so it is the last step that
	// can fail.
	if err := g.clock.Restore(s.Clock); err != nil {
		return fmt.Errorf("game: %w", err)
	}

	*g.portfolio = *pf
	g.engine.SetTickCount(s.TickCount)
	g.outcome = outcome
	if s.Player != "" {
		g.cfg.Player = s.Player
	}
	for sym, p := range s.Prices {
		if inst, ok := g.engine.Instrument(sym); ok {
			inst.Restore(p.Price, p.Prior, p.bars())
		}
	}
	g.leaderboard.load(s.Leaderboard)
	return nil
}

func parseOutcome(s string) (engine.Outcome, error) {
	switch s {
	case "", engine.Continue.String():
		return engine.Continue, nil
	case engine.Bankrupt.String():
		return engine.Bankrupt, nil
	case engine.DataEnd.String():
		return engine.DataEnd, nil
	}
	return engine.Continue, fmt.Errorf("game: unknown outcome %q", s)
}
