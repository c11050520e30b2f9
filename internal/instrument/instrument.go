// Package instrument holds the per-symbol price state and its evolution.
package instrument

import (
	"context"
	"math"
	"time"

	"github.com/zappabad/marketsim/internal/market"
)

// ChangeReport describes one price update.
type ChangeReport struct {
	Symbol    string
	Time      time.Time
	Skipped   bool
	Prior     float64
	Price     float64
	Change    float64
	ChangePct float64
}

// Instrument is one tradable symbol. It is not safe for concurrent use;
// the game serializes access.
type Instrument struct {
	ticker market.Ticker
	cfg    Config
	model  Model

	price     float64
	prior     float64
	change    float64
	changePct float64
	history   *History

	reference    market.Quote
	hasReference bool
}

// New creates an unpriced instrument. The first successful Advance seeds
// its price.
func New(ticker market.Ticker, cfg Config, model Model) *Instrument {
	cfg = cfg.withDefaults()
	return &Instrument{
		ticker:  ticker,
		cfg:     cfg,
		model:   model,
		history: NewHistory(cfg.HistoryCapacity),
	}
}

// Ticker returns the static description of the instrument.
func (i *Instrument) Ticker() market.Ticker { return i.ticker }

// Symbol returns the ticker symbol.
func (i *Instrument) Symbol() string { return i.ticker.Symbol }

// Price returns the current simulated price, or 0 before seeding.
func (i *Instrument) Price() float64 { return i.price }

// Prior returns the price before the latest update.
func (i *Instrument) Prior() float64 { return i.prior }

// Change returns the absolute change of the latest update.
func (i *Instrument) Change() float64 { return i.change }

// ChangePct returns the percent change of the latest update.
func (i *Instrument) ChangePct() float64 { return i.changePct }

// Priced reports whether the instrument has a price yet.
func (i *Instrument) Priced() bool { return i.price > 0 }

// History returns the bars in chronological order.
func (i *Instrument) History() []market.Bar { return i.history.Entries() }

// HistoryLen returns the number of stored bars.
func (i *Instrument) HistoryLen() int { return i.history.Len() }

// Seed sets the price directly, e.g. when restoring a saved game.
func (i *Instrument) Seed(price, prior float64) {
	i.price = i.floor(price)
	i.prior = prior
	if prior > 0 {
		i.change = i.price - prior
		i.changePct = i.change / prior * 100
	}
}

// Restore replaces the bar history with bars, oldest first, and seeds the
// price. Bars beyond the history capacity drop from the front.
func (i *Instrument) Restore(price, prior float64, bars []market.Bar) {
	i.history = NewHistory(i.cfg.HistoryCapacity)
	for _, b := range bars {
		i.history.Append(b)
	}
	i.Seed(price, prior)
}

// Advance moves the instrument one step with the given market bias. When
// the model has no data the instrument is left untouched and the report is
// marked Skipped.
func (i *Instrument) Advance(ctx context.Context, at time.Time, bias float64) ChangeReport {
	bar, ok := i.model.Next(ctx, i.ticker.Symbol, at, i.price, bias)
	if !ok {
		return ChangeReport{Symbol: i.ticker.Symbol, Time: at, Skipped: true, Prior: i.prior, Price: i.price}
	}

	seeding := i.price <= 0
	prev := i.price
	if seeding {
		prev = bar.Open
	}

	bar.Close = i.floor(bar.Close)
	bar.OHLC = contain(bar.OHLC)
	i.history.Append(bar)
	i.set(prev, bar.Close)
	if seeding && prev <= 0 {
		i.prior, i.change, i.changePct = bar.Close, 0, 0
	}
	return i.report(at)
}

// Shock applies a flat percent move on top of the latest update. If the
// latest bar is stamped at, its close is rewritten; otherwise a new bar is
// recorded at at.
func (i *Instrument) Shock(at time.Time, pct float64) ChangeReport {
	if !i.Priced() {
		return ChangeReport{Symbol: i.ticker.Symbol, Time: at, Skipped: true}
	}
	next := i.floor(i.price * (1 + pct/100))

	if last, ok := i.history.Last(); ok && last.Time.Equal(at) {
		last.Close = next
		last.OHLC = contain(last.OHLC)
		i.history.setLast(last)
		i.set(i.prior, next)
		return i.report(at)
	}

	i.history.Append(market.Bar{Time: at, OHLC: contain(market.OHLC{Open: i.price, High: i.price, Low: i.price, Close: next})})
	i.set(i.price, next)
	return i.report(at)
}

// Recommendation derives the analyst-style tag from recent bars.
func (i *Instrument) Recommendation() market.Recommendation {
	return market.Recommend(market.CountsFromBars(i.history.Tail(i.cfg.RecommendationWindow)))
}

// SetReference records the latest live quote for display. It never moves
// the simulated price.
func (i *Instrument) SetReference(q market.Quote) {
	i.reference = q
	i.hasReference = true
}

// Reference returns the last live quote, if any.
func (i *Instrument) Reference() (market.Quote, bool) {
	return i.reference, i.hasReference
}

func (i *Instrument) set(prior, price float64) {
	i.prior = prior
	i.price = price
	i.change = price - prior
	i.changePct = 0
	if prior > 0 {
		i.changePct = i.change / prior * 100
	}
}

func (i *Instrument) report(at time.Time) ChangeReport {
	return ChangeReport{
		Symbol:    i.ticker.Symbol,
		Time:      at,
		Prior:     i.prior,
		Price:     i.price,
		Change:    i.change,
		ChangePct: i.changePct,
	}
}

func (i *Instrument) floor(p float64) float64 {
	if math.IsNaN(p) || p < i.cfg.MinPrice {
		return i.cfg.MinPrice
	}
	return p
}

// contain widens high and low so they include open and close.
func contain(o market.OHLC) market.OHLC {
	o.High = math.Max(o.High, math.Max(o.Open, o.Close))
	lo := math.Min(o.Open, o.Close)
	if o.Low <= 0 || o.Low > lo {
		o.Low = lo
	}
	return o
}
