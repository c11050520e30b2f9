package market

import (
	"errors"
	"time"
)

// ErrUnknownTicker is returned when a symbol is not part of the basket.
var ErrUnknownTicker = errors.New("unknown ticker")

// Ticker represents a tradeable instrument.
type Ticker struct {
	Symbol   string
	Name     string
	Sector   string
	Decimals int8
}

// Quote is the uniform price payload every source yields, whether it came
// from a live API, a cached value, or a historical row.
type Quote struct {
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Change    float64
	ChangePct float64
	Time      time.Time
}

// Valid reports whether the quote carries a usable close price.
func (q Quote) Valid() bool {
	return q.Close > 0
}

// OHLC is one bar of price data.
type OHLC struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Bar is an OHLC tuple stamped with the simulated time it was recorded at.
type Bar struct {
	Time time.Time
	OHLC
}

// ChangePct returns the close-to-open percent change of the bar.
func (b Bar) ChangePct() float64 {
	if b.Open == 0 {
		return 0
	}
	return (b.Close - b.Open) / b.Open * 100
}
