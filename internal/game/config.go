package game

import (
	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/clock"
	"github.com/zappabad/marketsim/internal/engine"
	"github.com/zappabad/marketsim/internal/instrument"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/market/source"
	newsservice "github.com/zappabad/marketsim/internal/news/service"
	"github.com/zappabad/marketsim/internal/news/sentiment"
)

// Config holds configuration for the game.
type Config struct {
	// Player is the name recorded on the leaderboard.
	Player string
	// Tickers is the basket, in display order.
	Tickers []market.Ticker
	// Synthetic maps symbols that run on the pump-and-dump model to their
	// starting price. All other symbols follow the price source.
	Synthetic map[string]float64
	// InitialCash is the starting balance.
	InitialCash decimal.Decimal
	// Seed drives every random draw of the simulation.
	Seed int64
	// LeaderboardSize bounds the stored scores.
	LeaderboardSize int
	// LiveFeed marks the price source as a live quote feed. Its instruments
	// follow the change between successive quotes rather than each quote's
	// day change.
	LiveFeed bool

	Instrument instrument.Config
	Engine     engine.Config
	Sentiment  sentiment.Config
	News       newsservice.Config
	Session    clock.SessionConfig
	PumpDump   source.PumpDump
}

// DefaultTickers returns the default basket.
func DefaultTickers() []market.Ticker {
	return []market.Ticker{
		{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology", Decimals: 2},
		{Symbol: "GOOGL", Name: "Alphabet Inc.", Sector: "Technology", Decimals: 2},
		{Symbol: "MSFT", Name: "Microsoft Corp.", Sector: "Technology", Decimals: 2},
		{Symbol: "AMZN", Name: "Amazon.com Inc.", Sector: "Consumer", Decimals: 2},
		{Symbol: "TSLA", Name: "Tesla Inc.", Sector: "Automotive", Decimals: 2},
		{Symbol: "NVDA", Name: "NVIDIA Corp.", Sector: "Technology", Decimals: 2},
		{Symbol: "META", Name: "Meta Platforms Inc.", Sector: "Technology", Decimals: 2},
		{Symbol: "NFLX", Name: "Netflix Inc.", Sector: "Communication", Decimals: 2},
		{Symbol: "BURU", Name: "NUBURU Inc.", Sector: "Industrials", Decimals: 4},
	}
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Player:          "player",
		Tickers:         DefaultTickers(),
		Synthetic:       map[string]float64{"BURU": 0.35},
		InitialCash:     decimal.NewFromInt(10000),
		Seed:            1,
		LeaderboardSize: 10,
		Instrument:      instrument.DefaultConfig(),
		Engine:          engine.DefaultConfig(),
		Sentiment:       sentiment.DefaultConfig(),
		News:            newsservice.DefaultConfig(),
		Session:         clock.DefaultSessionConfig(),
		PumpDump:        source.DefaultPumpDump(),
	}
}
