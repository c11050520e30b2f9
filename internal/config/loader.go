package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETSIM_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		// The decoder merges into existing slice elements and map keys, so
		// the basket is only defaulted when the file leaves it out.
		tickers, synthetic := cfg.Game.Tickers, cfg.Game.Synthetic
		cfg.Game.Tickers, cfg.Game.Synthetic = nil, nil

		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
		if !md.IsDefined("game", "tickers") {
			cfg.Game.Tickers = tickers
		}
		if !md.IsDefined("game", "synthetic") {
			cfg.Game.Synthetic = synthetic
			pruneSynthetic(&cfg)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETSIM_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Game ──
	setStr(&cfg.Game.Player, "MARKETSIM_GAME_PLAYER")
	setStr(&cfg.Game.InitialCash, "MARKETSIM_GAME_INITIAL_CASH")
	setInt64(&cfg.Game.Seed, "MARKETSIM_GAME_SEED")
	setStr(&cfg.Game.Mode, "MARKETSIM_GAME_MODE")
	setInt(&cfg.Game.LeaderboardSize, "MARKETSIM_GAME_LEADERBOARD_SIZE")
	setInt(&cfg.Game.HistoryCapacity, "MARKETSIM_GAME_HISTORY_CAPACITY")
	if setSymbols(&cfg.Game.Tickers, "MARKETSIM_GAME_SYMBOLS") {
		pruneSynthetic(cfg)
	}

	// ── Session ──
	setStr(&cfg.Session.Start, "MARKETSIM_SESSION_START")
	setInt(&cfg.Session.HoursPerTick, "MARKETSIM_SESSION_HOURS_PER_TICK")

	// ── Engine ──
	setFloat64(&cfg.Engine.NewsThresholdPct, "MARKETSIM_ENGINE_NEWS_THRESHOLD_PCT")
	setFloat64(&cfg.Engine.ExtremeBiasPct, "MARKETSIM_ENGINE_EXTREME_BIAS_PCT")
	setFloat64(&cfg.Engine.NewsImpactProbability, "MARKETSIM_ENGINE_NEWS_IMPACT_PROBABILITY")
	setFloat64(&cfg.Engine.MacroEventProbability, "MARKETSIM_ENGINE_MACRO_EVENT_PROBABILITY")
	setFloat64(&cfg.Engine.BankruptcyRatio, "MARKETSIM_ENGINE_BANKRUPTCY_RATIO")

	// ── Data ──
	setStr(&cfg.Data.Dir, "MARKETSIM_DATA_DIR")

	// ── Live ──
	setStr(&cfg.Live.APIKey, "MARKETSIM_LIVE_API_KEY")
	setStr(&cfg.Live.APIKey, "FINNHUB_API_KEY") // compatibility alias
	setStr(&cfg.Live.BaseURL, "MARKETSIM_LIVE_BASE_URL")
	setDuration(&cfg.Live.Timeout, "MARKETSIM_LIVE_TIMEOUT")
	setInt(&cfg.Live.RequestsPerMinute, "MARKETSIM_LIVE_REQUESTS_PER_MINUTE")
	setDuration(&cfg.Live.CacheTTL, "MARKETSIM_LIVE_CACHE_TTL")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MARKETSIM_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MARKETSIM_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETSIM_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETSIM_REDIS_DB")

	// ── Refresh ──
	setBool(&cfg.Refresh.Enabled, "MARKETSIM_REFRESH_ENABLED")
	setDuration(&cfg.Refresh.Interval, "MARKETSIM_REFRESH_INTERVAL")

	// ── Log ──
	setStr(&cfg.Log.Level, "MARKETSIM_LOG_LEVEL")
	setStr(&cfg.Log.Format, "MARKETSIM_LOG_FORMAT")
	setStr(&cfg.Log.File, "MARKETSIM_LOG_FILE")
	setBool(&cfg.Log.Tracing, "MARKETSIM_LOG_TRACING")

	// ── Save ──
	setStr(&cfg.Save.Path, "MARKETSIM_SAVE_PATH")
	setBool(&cfg.Save.AutoSave, "MARKETSIM_SAVE_AUTO_SAVE")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

// setSymbols overrides the basket from a comma-separated symbol list,
// keeping the metadata of symbols already configured.
func setSymbols(dst *[]TickerConfig, key string) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	known := make(map[string]TickerConfig, len(*dst))
	for _, tk := range *dst {
		known[tk.Symbol] = tk
	}
	out := make([]TickerConfig, 0)
	for _, p := range strings.Split(v, ",") {
		sym := strings.ToUpper(strings.TrimSpace(p))
		if sym == "" {
			continue
		}
		tk, ok := known[sym]
		if !ok {
			tk = TickerConfig{Symbol: sym, Name: sym, Decimals: 2}
		}
		out = append(out, tk)
	}
	*dst = out
	return true
}

// pruneSynthetic drops synthetic start prices of symbols no longer in the
// basket.
func pruneSynthetic(cfg *Config) {
	in := make(map[string]bool, len(cfg.Game.Tickers))
	for _, tk := range cfg.Game.Tickers {
		in[tk.Symbol] = true
	}
	for sym := range cfg.Game.Synthetic {
		if !in[sym] {
			delete(cfg.Game.Synthetic, sym)
		}
	}
}
