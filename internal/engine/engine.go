// Package engine advances the market one tick at a time.
package engine

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/clock"
	"github.com/zappabad/marketsim/internal/instrument"
	"github.com/zappabad/marketsim/internal/logger"
	"github.com/zappabad/marketsim/internal/news"
	"github.com/zappabad/marketsim/internal/portfolio"
	"github.com/zappabad/marketsim/internal/randsrc"
)

// Publisher stores news produced during a tick.
type Publisher interface {
	Publish(item news.NewsItem) news.NewsItem
}

// Newsroom writes news for moves and events and scores cached news.
type Newsroom interface {
	Synthesize(symbol string, changePct float64, at time.Time) news.NewsItem
	MarketWide(bias float64, at time.Time) news.NewsItem
	Event(headline string, shockPct float64, at time.Time) news.NewsItem
	MarketImpact(symbol string) float64
}

// Engine owns the per-tick orchestration. It is not safe for concurrent
// use; callers serialize access.
type Engine struct {
	cfg         Config
	rng         randsrc.Source
	clock       clock.Clock
	instruments []*instrument.Instrument
	bySymbol    map[string]*instrument.Instrument
	portfolio   *portfolio.Portfolio
	newsroom    Newsroom
	publisher   Publisher

	ticks int
}

// New creates an Engine. Instruments are advanced in the order given.
func New(
	cfg Config,
	rng randsrc.Source,
	clk clock.Clock,
	instruments []*instrument.Instrument,
	pf *portfolio.Portfolio,
	newsroom Newsroom,
	publisher Publisher,
) *Engine {
	e := &Engine{
		cfg:         cfg.withDefaults(),
		rng:         rng,
		clock:       clk,
		instruments: instruments,
		bySymbol:    make(map[string]*instrument.Instrument, len(instruments)),
		portfolio:   pf,
		newsroom:    newsroom,
		publisher:   publisher,
	}
	for _, inst := range instruments {
		e.bySymbol[inst.Symbol()] = inst
	}
	return e
}

// TickCount returns the number of ticks that advanced the clock.
func (e *Engine) TickCount() int { return e.ticks }

// SetTickCount restores the tick counter.
func (e *Engine) SetTickCount(n int) { e.ticks = n }

// Clock returns the simulation clock.
func (e *Engine) Clock() clock.Clock { return e.clock }

// Instrument looks up an instrument by symbol.
func (e *Engine) Instrument(symbol string) (*instrument.Instrument, bool) {
	inst, ok := e.bySymbol[symbol]
	return inst, ok
}

// Instruments returns the instruments in basket order.
func (e *Engine) Instruments() []*instrument.Instrument {
	out := make([]*instrument.Instrument, len(e.instruments))
	copy(out, e.instruments)
	return out
}

// Lookup prices portfolio holdings at current simulated prices. Unpriced
// and unknown symbols are skipped.
func (e *Engine) Lookup(symbol string) (decimal.Decimal, bool) {
	inst, ok := e.bySymbol[symbol]
	if !ok || !inst.Priced() {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(inst.Price()), true
}

// Insolvent reports whether the portfolio is at or below the bankruptcy
// threshold.
func (e *Engine) Insolvent() bool {
	if e.portfolio == nil {
		return false
	}
	return e.portfolio.Insolvent(e.Lookup, decimal.NewFromFloat(e.cfg.BankruptcyRatio))
}

// Tick advances the market one step.
func (e *Engine) Tick(ctx context.Context) TickReport {
	at, err := e.clock.Advance()
	if err != nil {
		return TickReport{Tick: e.ticks, Time: e.clock.Now(), Outcome: DataEnd}
	}
	e.ticks++

	regime, bias := SampleBias(e.rng, e.cfg.Regimes)
	rep := TickReport{Tick: e.ticks, Time: at, Regime: regime.Name, Bias: bias}

	for _, inst := range e.instruments {
		ch := inst.Advance(ctx, at, bias)
		rep.Changes = append(rep.Changes, ch)
		if !ch.Skipped && math.Abs(ch.ChangePct) > e.cfg.NewsThresholdPct {
			rep.News = append(rep.News, e.publish(e.newsroom.Synthesize(ch.Symbol, ch.ChangePct, at)))
		}
	}

	if math.Abs(bias) > e.cfg.ExtremeBiasPct {
		rep.News = append(rep.News, e.publish(e.newsroom.MarketWide(bias, at)))
	}

	for _, inst := range e.instruments {
		if !inst.Priced() || !randsrc.Chance(e.rng, e.cfg.NewsImpactProbability) {
			continue
		}
		if impact := e.newsroom.MarketImpact(inst.Symbol()); impact != 0 {
			inst.Shock(at, impact)
		}
	}

	if len(e.cfg.MacroEvents) > 0 && randsrc.Chance(e.rng, e.cfg.MacroEventProbability) {
		ev := randsrc.Pick(e.rng, e.cfg.MacroEvents)
		e.applyEvent(ev, at)
		rep.Event = &ev
		rep.News = append(rep.News, e.publish(e.newsroom.Event(ev.Headline, ev.ShockPct, at)))
	}

	if e.Insolvent() {
		rep.Outcome = Bankrupt
	}
	logger.Tick(ctx, rep.Tick, rep.Outcome.String(), bias, "regime", regime.Name, "news", len(rep.News))
	return rep
}

// Advance runs up to n ticks, stopping at the first terminal outcome or
// when ctx is done. Cancellation is only observed between ticks.
func (e *Engine) Advance(ctx context.Context, n int) (TurnReport, error) {
	ctx, span := logger.StartSpan(ctx, "engine.Advance")
	var spanErr error
	defer func() { logger.EndSpan(span, spanErr) }()

	rep := TurnReport{Requested: n, Outcome: Continue}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			spanErr = err
			return rep, err
		}
		tr := e.Tick(ctx)
		rep.Ticks = append(rep.Ticks, tr)
		rep.Outcome = tr.Outcome
		if tr.Outcome.Terminal() {
			break
		}
	}
	return rep, nil
}

func (e *Engine) applyEvent(ev MacroEvent, at time.Time) {
	for _, inst := range e.instruments {
		if ev.Sector != "" && inst.Ticker().Sector != ev.Sector {
			continue
		}
		inst.Shock(at, ev.ShockPct)
	}
}

func (e *Engine) publish(item news.NewsItem) news.NewsItem {
	if e.publisher == nil {
		return item
	}
	return e.publisher.Publish(item)
}
