package instrument

import (
	"context"
	"math"
	"time"

	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/market/source"
	"github.com/zappabad/marketsim/internal/randsrc"
)

// Model produces the next close and bar for an instrument. It returns false
// when it has no data for this step; the instrument is then left unchanged.
// prev is zero when the instrument has not been priced yet.
type Model interface {
	Next(ctx context.Context, symbol string, at time.Time, prev, bias float64) (market.Bar, bool)
}

// SeededModel follows the direction of real quotes while compounding its
// own price: each step applies the quote's percent change plus the market
// bias plus Gaussian noise to the previous simulated close.
type SeededModel struct {
	Source     source.Source
	Rand       randsrc.Source
	NoiseSigma float64
}

// Next implements Model.
func (m *SeededModel) Next(ctx context.Context, symbol string, at time.Time, prev, bias float64) (market.Bar, bool) {
	q, ok := m.Source.Get(ctx, symbol, at)
	if !ok || !q.Valid() {
		return market.Bar{}, false
	}
	if prev <= 0 {
		return market.Bar{Time: at, OHLC: market.OHLC{Open: q.Open, High: q.High, Low: q.Low, Close: q.Close}}, true
	}

	pct := q.ChangePct + bias + randsrc.Gaussian(m.Rand, 0, m.NoiseSigma)
	next := prev * (1 + pct/100)

	// Rescale the real bar to the simulated price level so the chart keeps
	// the real intraday shape around the diverged close.
	scale := 1.0
	if ref := q.Close - q.Change; ref > 0 {
		scale = prev / ref
	}
	bar := market.Bar{Time: at, OHLC: market.OHLC{
		Open:  q.Open * scale,
		High:  q.High * scale,
		Low:   q.Low * scale,
		Close: next,
	}}
	if bar.Open <= 0 {
		bar.Open = prev
	}
	return bar, true
}

// LiveModel follows a live quote feed. A live quote carries the real day's
// change, which stays the same across the many ticks of one trading day,
// so only the move of the real close since the previous quote this model
// saw is applied, plus the market bias and Gaussian noise. An unchanged
// quote contributes nothing. One LiveModel serves one instrument.
type LiveModel struct {
	Source     source.Source
	Rand       randsrc.Source
	NoiseSigma float64

	lastClose float64
}

// Next implements Model.
func (m *LiveModel) Next(ctx context.Context, symbol string, at time.Time, prev, bias float64) (market.Bar, bool) {
	q, ok := m.Source.Get(ctx, symbol, at)
	if !ok || !q.Valid() {
		return market.Bar{}, false
	}
	if prev <= 0 {
		m.lastClose = q.Close
		return market.Bar{Time: at, OHLC: market.OHLC{Open: q.Close, High: q.Close, Low: q.Close, Close: q.Close}}, true
	}

	realPct := 0.0
	if m.lastClose > 0 {
		realPct = (q.Close - m.lastClose) / m.lastClose * 100
	}
	m.lastClose = q.Close

	pct := realPct + bias + randsrc.Gaussian(m.Rand, 0, m.NoiseSigma)
	next := prev * (1 + pct/100)
	return market.Bar{Time: at, OHLC: market.OHLC{Open: prev, High: prev, Low: prev, Close: next}}, true
}

// SyntheticModel is the pump-and-dump walk for symbols with no usable
// quote data. It never reads a source.
type SyntheticModel struct {
	Params source.PumpDump
	Rand   randsrc.Source
	// Start is the price used when the instrument has not been priced yet.
	Start float64
}

// Next implements Model.
func (m *SyntheticModel) Next(_ context.Context, _ string, at time.Time, prev, bias float64) (market.Bar, bool) {
	if prev <= 0 {
		prev = m.Start
	}
	if prev <= 0 {
		return market.Bar{}, false
	}
	pct := m.Params.Step(m.Rand) + bias
	next := prev * (1 + pct/100)
	return m.Params.Candle(m.Rand, at, prev, math.Max(next, 0)), true
}
