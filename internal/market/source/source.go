// Package source provides the price collaborators the simulation reads from:
// pre-fetched historical series, a live quote API, and synthetic generators.
package source

import (
	"context"
	"time"

	"github.com/zappabad/marketsim/internal/market"
)

// Source yields a quote for a symbol at a simulated time. A false second
// return means there is no data for that symbol and time; callers treat it
// as "skip this tick", never as a failure.
type Source interface {
	Get(ctx context.Context, symbol string, at time.Time) (market.Quote, bool)
}

// Func adapts a plain function to Source.
type Func func(ctx context.Context, symbol string, at time.Time) (market.Quote, bool)

// Get implements Source.
func (f Func) Get(ctx context.Context, symbol string, at time.Time) (market.Quote, bool) {
	return f(ctx, symbol, at)
}
