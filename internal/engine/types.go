package engine

import (
	"time"

	"github.com/zappabad/marketsim/internal/instrument"
	"github.com/zappabad/marketsim/internal/news"
)

// Outcome is the result of a tick.
type Outcome int

const (
	Continue Outcome = iota
	Bankrupt
	DataEnd
)

func (o Outcome) String() string {
	switch o {
	case Bankrupt:
		return "bankrupt"
	case DataEnd:
		return "data_end"
	default:
		return "continue"
	}
}

// Terminal reports whether the session is over.
func (o Outcome) Terminal() bool { return o != Continue }

// TickReport describes one tick.
type TickReport struct {
	Tick    int
	Time    time.Time
	Outcome Outcome
	Regime  string
	Bias    float64
	Changes []instrument.ChangeReport
	News    []news.NewsItem
	Event   *MacroEvent
}

// TurnReport describes a batch of ticks.
type TurnReport struct {
	Requested int
	Ticks     []TickReport
	Outcome   Outcome
}

// Ran returns the number of ticks that advanced the clock.
func (r TurnReport) Ran() int {
	n := 0
	for _, t := range r.Ticks {
		if t.Outcome != DataEnd {
			n++
		}
	}
	return n
}
