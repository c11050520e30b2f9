package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zappabad/marketsim/internal/logger"
	"github.com/zappabad/marketsim/internal/refresh"
	"github.com/zappabad/marketsim/tui"
)

func playCmd() *cobra.Command {
	var (
		fresh bool
		ticks int
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play interactively in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			// The TUI owns the terminal, so logs go to the log file.
			shutdown, err := initLogging(cfg, nil)
			if err != nil {
				return err
			}
			defer shutdown()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := openSession(ctx, cfg, fresh)
			if err != nil {
				return err
			}
			defer s.Close()

			opts := tui.Options{
				TicksPerTurn: ticks,
				AutoSave:     cfg.Save.AutoSave,
				Save:         s.Save,
			}

			var runner *refresh.Runner
			if s.live != nil && cfg.Refresh.Enabled {
				rc := refresh.DefaultConfig()
				rc.Interval = cfg.Refresh.Interval.Duration
				rc.Timeout = cfg.Refresh.Timeout.Duration
				runner = refresh.NewRunner(rc, s.live, s.game)
				defer runner.Close()
				opts.Refresh = runner.Events()
			}

			p := tea.NewProgram(tui.NewModel(s.game, opts), tea.WithAltScreen())

			g, gctx := errgroup.WithContext(ctx)
			done := make(chan struct{})
			g.Go(func() error {
				defer close(done)
				_, err := p.Run()
				return err
			})
			g.Go(func() error {
				select {
				case <-gctx.Done():
					p.Quit()
				case <-done:
				}
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}

			if err := s.Save(); err != nil {
				logger.Error(ctx, "final save failed", err, "path", s.store.Path())
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fresh, "new", false, "Start a new game instead of resuming the save file")
	cmd.Flags().IntVar(&ticks, "ticks", 1, "Ticks per turn")
	return cmd
}
