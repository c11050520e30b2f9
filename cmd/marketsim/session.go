package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zappabad/marketsim/internal/cache/redis"
	"github.com/zappabad/marketsim/internal/clock"
	"github.com/zappabad/marketsim/internal/config"
	"github.com/zappabad/marketsim/internal/game"
	"github.com/zappabad/marketsim/internal/logger"
	"github.com/zappabad/marketsim/internal/market/source"
	"github.com/zappabad/marketsim/internal/randsrc"
	"github.com/zappabad/marketsim/internal/store/file"
)

// session bundles everything a command needs to drive one game.
type session struct {
	cfg   *config.Config
	game  *game.Game
	store *file.Store
	live  *source.Live
	mode  string

	closers []func()
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Save writes the current game to the save file.
func (s *session) Save() error {
	return s.store.Save(s.game.Snapshot())
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if savePath != "" {
		cfg.Save.Path = savePath
	}
	if seed != 0 {
		cfg.Game.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogging points the logger at logOut, or at the configured log file
// when logOut is nil.
func initLogging(cfg *config.Config, logOut io.Writer) (func(), error) {
	var closers []func()
	lc := cfg.ToLog()

	if logOut == nil {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		closers = append(closers, func() { f.Close() })
		logOut = f
	}
	lc.Output = logOut

	if cfg.Log.Tracing && cfg.Log.TraceFile != "" {
		f, err := os.OpenFile(cfg.Log.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		closers = append(closers, func() { f.Close() })
		lc.TraceOutput = f
	}

	if err := logger.Init(lc); err != nil {
		return nil, err
	}

	return func() {
		_ = logger.Shutdown(context.Background())
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

// openSession builds the game for cfg and restores the save file unless
// fresh is set.
func openSession(ctx context.Context, cfg *config.Config, fresh bool) (*session, error) {
	gc, err := cfg.ToGame()
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, store: file.New(cfg.Save.Path)}

	src, clk, mode, err := s.pickSource(ctx, gc)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.mode = mode
	gc.LiveFeed = mode == config.ModeLive

	g, err := game.New(ctx, gc, src, clk)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.game = g
	s.closers = append(s.closers, g.Close)

	if !fresh {
		st, err := s.store.Load()
		switch {
		case errors.Is(err, file.ErrNoSave):
		case err != nil:
			s.Close()
			return nil, err
		default:
			if err := g.Restore(st); err != nil {
				s.Close()
				return nil, fmt.Errorf("restore %s: %w", s.store.Path(), err)
			}
			logger.Info(ctx, "session restored", "path", s.store.Path(), "tick", g.TickCount())
		}
	}

	logger.Info(ctx, "session ready", "mode", mode, "symbols", len(gc.Tickers), "seed", gc.Seed)
	return s, nil
}

// pickSource resolves the configured mode into a price source and clock.
// A nil source runs every instrument on the synthetic model.
func (s *session) pickSource(ctx context.Context, gc game.Config) (source.Source, clock.Clock, string, error) {
	symbols := make([]string, 0, len(gc.Tickers))
	for _, tk := range gc.Tickers {
		if _, synthetic := gc.Synthetic[tk.Symbol]; !synthetic {
			symbols = append(symbols, tk.Symbol)
		}
	}

	mode := s.cfg.Game.Mode
	if mode == config.ModeAuto {
		switch {
		case hasCSV(s.cfg.Data.Dir):
			mode = config.ModeHistorical
		case s.cfg.Live.APIKey != "":
			mode = config.ModeLive
		default:
			mode = config.ModeSynthetic
		}
	}

	switch mode {
	case config.ModeHistorical:
		hist, err := source.LoadDir(s.cfg.Data.Dir, symbols)
		if err != nil {
			return nil, nil, "", fmt.Errorf("historical data in %s: %w", s.cfg.Data.Dir, err)
		}
		return hist, clock.NewHistorical(hist.Dates()), mode, nil

	case config.ModeLive:
		var cache source.QuoteCache
		if s.cfg.Redis.Enabled {
			rc, err := redis.New(ctx, s.cfg.ToRedis())
			if err != nil {
				logger.Warn(ctx, "redis unavailable, using in-memory quote cache", "error", err)
			} else {
				s.closers = append(s.closers, func() { rc.Close() })
				cache = redis.NewQuoteCache(rc)
			}
		}
		s.live = source.NewLive(s.cfg.ToLive(), cache, randsrc.New(gc.Seed+1), logger.L())
		return s.live, nil, mode, nil

	default:
		return nil, nil, config.ModeSynthetic, nil
	}
}

func hasCSV(dir string) bool {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	return err == nil && len(matches) > 0
}
