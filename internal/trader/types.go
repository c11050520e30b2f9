// Package trader turns strategy intents into trades for the autopilot.
package trader

import (
	"time"

	"github.com/zappabad/marketsim/internal/portfolio"
)

// Intent represents a strategy's intention to trade.
type Intent struct {
	Symbol string
	Side   portfolio.Side
	Shares int64
	Reason string
}

// EventType indicates the type of trader event.
type EventType int

const (
	EventFilled EventType = iota
	EventRejected
)

func (t EventType) String() string {
	switch t {
	case EventFilled:
		return "filled"
	case EventRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Event reports what happened to one intent.
type Event struct {
	Time    time.Time
	Type    EventType
	Intent  Intent
	Trade   portfolio.Trade // set when filled
	Message string          // set when rejected
}
