package trader

import (
	"context"
	"time"

	"github.com/zappabad/marketsim/internal/logger"
	"github.com/zappabad/marketsim/internal/portfolio"
)

// Executor places trades. *game.Game implements it.
type Executor interface {
	Trade(ctx context.Context, symbol string, side portfolio.Side, shares int64) (portfolio.Trade, error)
}

// Execute submits intents in order. A rejected intent does not stop the
// ones after it.
func Execute(ctx context.Context, ex Executor, at time.Time, intents []Intent) []Event {
	events := make([]Event, 0, len(intents))
	for _, in := range intents {
		if ctx.Err() != nil {
			break
		}
		t, err := ex.Trade(ctx, in.Symbol, in.Side, in.Shares)
		if err != nil {
			logger.Debug(ctx, "intent rejected", "symbol", in.Symbol, "side", string(in.Side), "shares", in.Shares, "error", err)
			events = append(events, Event{Time: at, Type: EventRejected, Intent: in, Message: err.Error()})
			continue
		}
		events = append(events, Event{Time: at, Type: EventFilled, Intent: in, Trade: t})
	}
	return events
}
