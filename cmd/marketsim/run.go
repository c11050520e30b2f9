package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zappabad/marketsim/internal/logger"
	"github.com/zappabad/marketsim/internal/trader"
	"github.com/zappabad/marketsim/internal/trader/strategy"
)

func runCmd() *cobra.Command {
	var (
		turns    int
		ticks    int
		strat    string
		fresh    bool
		saveWhen bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless session driven by an autopilot strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if turns <= 0 || ticks <= 0 {
				return fmt.Errorf("--turns and --ticks must be positive")
			}
			st, err := strategy.ByName(strat)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			shutdown, err := initLogging(cfg, os.Stderr)
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

			out := cmd.OutOrStdout()
			g := s.game
			for turn := 1; turn <= turns; turn++ {
				if ctx.Err() != nil {
					break
				}
				events := trader.Execute(ctx, g, g.Now(), st.Step(ctx, g.Now(), g, g))
				for _, ev := range events {
					if ev.Type == trader.EventFilled {
						fmt.Fprintf(out, "  %s %d %s @ %s\n", ev.Trade.Side, ev.Trade.Shares, ev.Trade.Symbol, ev.Trade.Price.StringFixed(2))
					}
				}

				rep, err := g.Advance(ctx, ticks)
				if err != nil {
					logger.Warn(ctx, "turn interrupted", "turn", turn, "error", err)
					break
				}
				pl, pct := g.ProfitLoss()
				fmt.Fprintf(out, "turn %d  %s  assets %s  P/L %s (%s%%)\n",
					turn, g.Now().Format("2006-01-02 15:04"),
					g.TotalAssets().StringFixed(2), pl.StringFixed(2), pct.StringFixed(2))
				if rep.Outcome.Terminal() {
					fmt.Fprintf(out, "game over: %s\n", rep.Outcome)
					break
				}
			}

			printSummary(cmd, s)

			if saveWhen {
				if err := s.Save(); err != nil {
					return err
				}
				fmt.Fprintf(out, "saved to %s\n", s.store.Path())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&turns, "turns", "n", 10, "Number of turns")
	cmd.Flags().IntVar(&ticks, "ticks", 1, "Ticks per turn")
	cmd.Flags().StringVar(&strat, "strategy", "momentum", fmt.Sprintf("Autopilot strategy %v", strategy.Names))
	cmd.Flags().BoolVar(&fresh, "new", true, "Ignore the save file")
	cmd.Flags().BoolVar(&saveWhen, "save-after", false, "Write the save file when done")
	return cmd
}

func printSummary(cmd *cobra.Command, s *session) {
	out := cmd.OutOrStdout()
	g := s.game

	fmt.Fprintf(out, "\nmode %s, %d ticks\n", s.mode, g.TickCount())
	fmt.Fprintf(out, "%-6s %8s %12s %12s %10s\n", "Symbol", "Shares", "Avg cost", "Value", "P/L")
	for _, row := range g.Summary() {
		fmt.Fprintf(out, "%-6s %8d %12s %12s %10s\n",
			row.Symbol, row.Shares, row.AvgCost.StringFixed(2), row.MarketValue.StringFixed(2), row.ProfitLoss.StringFixed(2))
	}
	pl, pct := g.ProfitLoss()
	fmt.Fprintf(out, "cash %s  assets %s  P/L %s (%s%%)\n",
		g.Cash().StringFixed(2), g.TotalAssets().StringFixed(2), pl.StringFixed(2), pct.StringFixed(2))

	if scores := g.Leaderboard(); len(scores) > 0 {
		fmt.Fprintln(out, "\nleaderboard")
		for i, sc := range scores {
			fmt.Fprintf(out, "%2d. %-12s %8.2f%%  %s\n", i+1, sc.Name, sc.ProfitPct, sc.Outcome)
		}
	}
}
