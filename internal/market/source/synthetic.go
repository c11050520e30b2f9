package source

import (
	"math"
	"time"

	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/randsrc"
)

// PumpDump parameterises the fully synthetic walk used for symbols that
// have no usable quote data. All values are percentages except the
// probabilities.
type PumpDump struct {
	BaseRange       float64 // base move is U(-BaseRange, +BaseRange)
	PumpProbability float64
	PumpMin         float64
	PumpMax         float64
	DumpProbability float64
	DumpMin         float64
	DumpMax         float64
	MaxWick         float64 // wick extension beyond the body
}

// DefaultPumpDump returns the NUBURU-style parameters.
func DefaultPumpDump() PumpDump {
	return PumpDump{
		BaseRange:       10,
		PumpProbability: 0.01,
		PumpMin:         30,
		PumpMax:         100,
		DumpProbability: 0.01,
		DumpMin:         -50,
		DumpMax:         -30,
		MaxWick:         5,
	}
}

// Step draws one percent move. Pump and dump are sampled independently, so
// both may fire on the same step.
func (p PumpDump) Step(src randsrc.Source) float64 {
	pct := randsrc.Uniform(src, -p.BaseRange, p.BaseRange)
	if randsrc.Chance(src, p.PumpProbability) {
		pct += randsrc.Uniform(src, p.PumpMin, p.PumpMax)
	}
	if randsrc.Chance(src, p.DumpProbability) {
		pct += randsrc.Uniform(src, p.DumpMin, p.DumpMax)
	}
	return pct
}

// Candle builds a bar with open=prev and close=next, and wicks that extend
// up to MaxWick percent beyond the body.
func (p PumpDump) Candle(src randsrc.Source, at time.Time, prev, next float64) market.Bar {
	hi := math.Max(prev, next)
	lo := math.Min(prev, next)
	return market.Bar{
		Time: at,
		OHLC: market.OHLC{
			Open:  prev,
			High:  hi * (1 + randsrc.Uniform(src, 0, p.MaxWick)/100),
			Low:   lo * (1 - randsrc.Uniform(src, 0, p.MaxWick)/100),
			Close: next,
		},
	}
}

// GenerateSeries walks a price from start over the given dates. Prices are
// floored at minPrice.
func GenerateSeries(src randsrc.Source, p PumpDump, start, minPrice float64, dates []time.Time) []market.Bar {
	bars := make([]market.Bar, 0, len(dates))
	price := math.Max(start, minPrice)
	for _, d := range dates {
		next := math.Max(price*(1+p.Step(src)/100), minPrice)
		bars = append(bars, p.Candle(src, d, price, next))
		price = next
	}
	return bars
}

// TradingDays returns n weekdays starting at start (inclusive when start is
// a weekday).
func TradingDays(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := dayStart(start)
	for len(out) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}
