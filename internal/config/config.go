// Package config defines the file and environment configuration of the
// market simulator and maps it onto the game packages.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zappabad/marketsim/internal/cache/redis"
	"github.com/zappabad/marketsim/internal/game"
	"github.com/zappabad/marketsim/internal/logger"
	"github.com/zappabad/marketsim/internal/market"
	"github.com/zappabad/marketsim/internal/market/source"
)

// Price source modes.
const (
	ModeAuto       = "auto"
	ModeHistorical = "historical"
	ModeLive       = "live"
	ModeSynthetic  = "synthetic"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MARKETSIM_* environment variables.
type Config struct {
	Game    GameConfig    `toml:"game"`
	Session SessionConfig `toml:"session"`
	Engine  EngineConfig  `toml:"engine"`
	Data    DataConfig    `toml:"data"`
	Live    LiveConfig    `toml:"live"`
	Redis   RedisConfig   `toml:"redis"`
	Refresh RefreshConfig `toml:"refresh"`
	Log     LogConfig     `toml:"log"`
	Save    SaveConfig    `toml:"save"`
}

// GameConfig holds the player-facing session parameters.
type GameConfig struct {
	Player string `toml:"player"`
	// InitialCash is a decimal string so cents survive the round trip.
	InitialCash     string             `toml:"initial_cash"`
	Seed            int64              `toml:"seed"`
	Mode            string             `toml:"mode"`
	LeaderboardSize int                `toml:"leaderboard_size"`
	HistoryCapacity int                `toml:"history_capacity"`
	Tickers         []TickerConfig     `toml:"tickers"`
	Synthetic       map[string]float64 `toml:"synthetic"`
}

// TickerConfig describes one basket entry.
type TickerConfig struct {
	Symbol   string `toml:"symbol"`
	Name     string `toml:"name"`
	Sector   string `toml:"sector"`
	Decimals int8   `toml:"decimals"`
}

// SessionConfig drives the session clock used when no historical dates
// are loaded.
type SessionConfig struct {
	Start        string `toml:"start"`
	HoursPerTick int    `toml:"hours_per_tick"`
	MarketOpen   int    `toml:"market_open"`
	MarketClose  int    `toml:"market_close"`
}

// EngineConfig holds the tunable engine thresholds.
type EngineConfig struct {
	NewsThresholdPct      float64 `toml:"news_threshold_pct"`
	ExtremeBiasPct        float64 `toml:"extreme_bias_pct"`
	NewsImpactProbability float64 `toml:"news_impact_probability"`
	MacroEventProbability float64 `toml:"macro_event_probability"`
	BankruptcyRatio       float64 `toml:"bankruptcy_ratio"`
}

// DataConfig points at the CSV price series.
type DataConfig struct {
	Dir string `toml:"dir"`
	// GenStart and GenDays shape the series written by gen-data.
	GenStart string `toml:"gen_start"`
	GenDays  int    `toml:"gen_days"`
}

// LiveConfig holds quote API parameters.
type LiveConfig struct {
	APIKey            string   `toml:"api_key"`
	BaseURL           string   `toml:"base_url"`
	Timeout           duration `toml:"timeout"`
	RequestsPerMinute int      `toml:"requests_per_minute"`
	CacheTTL          duration `toml:"cache_ttl"`
	RetryAfter        duration `toml:"retry_after"`
}

// RedisConfig holds Redis connection parameters for the quote cache.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

// RefreshConfig controls the background reference-quote refresher.
type RefreshConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval duration `toml:"interval"`
	Timeout  duration `toml:"timeout"`
}

// LogConfig holds logging parameters.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// File receives log output in TUI mode so the terminal stays clean.
	File      string `toml:"file"`
	Tracing   bool   `toml:"tracing"`
	TraceFile string `toml:"trace_file"`
}

// SaveConfig locates the save file.
type SaveConfig struct {
	Path     string `toml:"path"`
	AutoSave bool   `toml:"auto_save"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	gc := game.DefaultConfig()
	ec := gc.Engine
	live := source.DefaultLiveConfig()

	tickers := make([]TickerConfig, 0, len(gc.Tickers))
	for _, tk := range gc.Tickers {
		tickers = append(tickers, TickerConfig{Symbol: tk.Symbol, Name: tk.Name, Sector: tk.Sector, Decimals: tk.Decimals})
	}
	synthetic := make(map[string]float64, len(gc.Synthetic))
	for sym, p := range gc.Synthetic {
		synthetic[sym] = p
	}

	return Config{
		Game: GameConfig{
			Player:          gc.Player,
			InitialCash:     gc.InitialCash.StringFixed(2),
			Seed:            gc.Seed,
			Mode:            ModeAuto,
			LeaderboardSize: gc.LeaderboardSize,
			HistoryCapacity: gc.Instrument.HistoryCapacity,
			Tickers:         tickers,
			Synthetic:       synthetic,
		},
		Session: SessionConfig{
			Start:        gc.Session.Start.Format(time.RFC3339),
			HoursPerTick: gc.Session.HoursPerTick,
			MarketOpen:   gc.Session.MarketOpen,
			MarketClose:  gc.Session.MarketClose,
		},
		Engine: EngineConfig{
			NewsThresholdPct:      ec.NewsThresholdPct,
			ExtremeBiasPct:        ec.ExtremeBiasPct,
			NewsImpactProbability: ec.NewsImpactProbability,
			MacroEventProbability: ec.MacroEventProbability,
			BankruptcyRatio:       ec.BankruptcyRatio,
		},
		Data: DataConfig{
			Dir:      "data",
			GenStart: "2024-01-02",
			GenDays:  365,
		},
		Live: LiveConfig{
			BaseURL:           live.BaseURL,
			Timeout:           duration{live.Timeout},
			RequestsPerMinute: live.RequestsPerMinute,
			CacheTTL:          duration{live.CacheTTL},
			RetryAfter:        duration{live.RetryAfter},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Refresh: RefreshConfig{
			Enabled:  true,
			Interval: duration{time.Minute},
			Timeout:  duration{10 * time.Second},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "marketsim.log",
		},
		Save: SaveConfig{
			Path:     "marketsim-save.yaml",
			AutoSave: true,
		},
	}
}

var validModes = map[string]bool{
	ModeAuto:       true,
	ModeHistorical: true,
	ModeLive:       true,
	ModeSynthetic:  true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// every problem found joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Game.Player) == "" {
		errs = append(errs, errors.New("game: player must not be empty"))
	}
	if cash, err := decimal.NewFromString(c.Game.InitialCash); err != nil {
		errs = append(errs, fmt.Errorf("game: initial_cash %q: %w", c.Game.InitialCash, err))
	} else if !cash.IsPositive() {
		errs = append(errs, fmt.Errorf("game: initial_cash must be > 0, got %s", c.Game.InitialCash))
	}
	if !validModes[strings.ToLower(c.Game.Mode)] {
		errs = append(errs, fmt.Errorf("game: unknown mode %q (valid: auto, historical, live, synthetic)", c.Game.Mode))
	}
	if c.Game.LeaderboardSize < 1 {
		errs = append(errs, errors.New("game: leaderboard_size must be >= 1"))
	}
	if c.Game.HistoryCapacity < 1 {
		errs = append(errs, errors.New("game: history_capacity must be >= 1"))
	}
	if len(c.Game.Tickers) == 0 {
		errs = append(errs, errors.New("game: tickers must not be empty"))
	}
	seen := make(map[string]bool, len(c.Game.Tickers))
	for _, tk := range c.Game.Tickers {
		if tk.Symbol == "" {
			errs = append(errs, errors.New("game: ticker symbol must not be empty"))
			continue
		}
		if seen[tk.Symbol] {
			errs = append(errs, fmt.Errorf("game: duplicate ticker %q", tk.Symbol))
		}
		seen[tk.Symbol] = true
	}
	for sym, p := range c.Game.Synthetic {
		if !seen[sym] {
			errs = append(errs, fmt.Errorf("game: synthetic symbol %q is not in tickers", sym))
		}
		if p <= 0 {
			errs = append(errs, fmt.Errorf("game: synthetic start price for %q must be > 0", sym))
		}
	}

	if _, err := time.Parse(time.RFC3339, c.Session.Start); err != nil {
		errs = append(errs, fmt.Errorf("session: start %q: %w", c.Session.Start, err))
	}
	if c.Session.HoursPerTick < 1 {
		errs = append(errs, errors.New("session: hours_per_tick must be >= 1"))
	}
	if c.Session.MarketOpen < 0 || c.Session.MarketClose > 24 || c.Session.MarketClose <= c.Session.MarketOpen {
		errs = append(errs, fmt.Errorf("session: market hours %d-%d are invalid", c.Session.MarketOpen, c.Session.MarketClose))
	}

	if c.Engine.BankruptcyRatio < 0 || c.Engine.BankruptcyRatio >= 1 {
		errs = append(errs, fmt.Errorf("engine: bankruptcy_ratio must be in [0, 1), got %g", c.Engine.BankruptcyRatio))
	}
	for name, p := range map[string]float64{
		"news_impact_probability": c.Engine.NewsImpactProbability,
		"macro_event_probability": c.Engine.MacroEventProbability,
	} {
		if p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("engine: %s must be in [0, 1], got %g", name, p))
		}
	}

	if c.Data.GenDays < 1 {
		errs = append(errs, errors.New("data: gen_days must be >= 1"))
	}
	if _, err := time.Parse(source.DateLayout, c.Data.GenStart); err != nil {
		errs = append(errs, fmt.Errorf("data: gen_start %q: %w", c.Data.GenStart, err))
	}

	if strings.EqualFold(c.Game.Mode, ModeLive) && c.Live.APIKey == "" {
		errs = append(errs, errors.New("live: api_key is required for live mode"))
	}
	if c.Live.RequestsPerMinute < 1 {
		errs = append(errs, errors.New("live: requests_per_minute must be >= 1"))
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis: addr must not be empty"))
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, errors.New("redis: pool_size must be >= 1"))
		}
	}

	if c.Refresh.Enabled && c.Refresh.Interval.Duration <= 0 {
		errs = append(errs, errors.New("refresh: interval must be > 0 when enabled"))
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Errorf("log: unknown level %q (valid: debug, info, warn, error)", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// ToGame maps the file configuration onto game.Config. It assumes Validate
// passed.
func (c *Config) ToGame() (game.Config, error) {
	gc := game.DefaultConfig()

	cash, err := decimal.NewFromString(c.Game.InitialCash)
	if err != nil {
		return game.Config{}, fmt.Errorf("config: initial_cash: %w", err)
	}
	start, err := time.Parse(time.RFC3339, c.Session.Start)
	if err != nil {
		return game.Config{}, fmt.Errorf("config: session start: %w", err)
	}

	gc.Player = c.Game.Player
	gc.InitialCash = cash
	gc.Seed = c.Game.Seed
	gc.LeaderboardSize = c.Game.LeaderboardSize
	gc.Instrument.HistoryCapacity = c.Game.HistoryCapacity

	gc.Tickers = make([]market.Ticker, 0, len(c.Game.Tickers))
	for _, tk := range c.Game.Tickers {
		name := tk.Name
		if name == "" {
			name = tk.Symbol
		}
		decimals := tk.Decimals
		if decimals <= 0 {
			decimals = 2
		}
		gc.Tickers = append(gc.Tickers, market.Ticker{Symbol: tk.Symbol, Name: name, Sector: tk.Sector, Decimals: decimals})
	}
	gc.Synthetic = make(map[string]float64, len(c.Game.Synthetic))
	for sym, p := range c.Game.Synthetic {
		gc.Synthetic[sym] = p
	}

	gc.Session.Start = start
	gc.Session.HoursPerTick = c.Session.HoursPerTick
	gc.Session.MarketOpen = c.Session.MarketOpen
	gc.Session.MarketClose = c.Session.MarketClose

	gc.Engine.NewsThresholdPct = c.Engine.NewsThresholdPct
	gc.Engine.ExtremeBiasPct = c.Engine.ExtremeBiasPct
	gc.Engine.NewsImpactProbability = c.Engine.NewsImpactProbability
	gc.Engine.MacroEventProbability = c.Engine.MacroEventProbability
	gc.Engine.BankruptcyRatio = c.Engine.BankruptcyRatio

	return gc, nil
}

// ToLive maps the live section onto the quote client configuration.
func (c *Config) ToLive() source.LiveConfig {
	return source.LiveConfig{
		BaseURL:           c.Live.BaseURL,
		APIKey:            c.Live.APIKey,
		Timeout:           c.Live.Timeout.Duration,
		RequestsPerMinute: c.Live.RequestsPerMinute,
		CacheTTL:          c.Live.CacheTTL.Duration,
		RetryAfter:        c.Live.RetryAfter.Duration,
	}
}

// ToRedis maps the redis section onto the client configuration.
func (c *Config) ToRedis() redis.ClientConfig {
	return redis.ClientConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		PoolSize: c.Redis.PoolSize,
	}
}

// ToLog maps the log section onto the logger configuration. Writers are
// left for the caller to open.
func (c *Config) ToLog() logger.LogConfig {
	return logger.LogConfig{
		Level:          strings.ToUpper(c.Log.Level),
		Format:         c.Log.Format,
		TracingEnabled: c.Log.Tracing,
	}
}
