package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/zappabad/marketsim/internal/market/source"
	"github.com/zappabad/marketsim/internal/randsrc"
)

func genDataCmd() *cobra.Command {
	var (
		start    float64
		minPrice float64
	)

	cmd := &cobra.Command{
		Use:   "gen-data [SYMBOL...]",
		Short: "Write synthetic daily CSV series for historical mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			symbols := args
			if len(symbols) == 0 {
				for _, tk := range cfg.Game.Tickers {
					symbols = append(symbols, tk.Symbol)
				}
			}

			from, err := time.Parse("2006-01-02", cfg.Data.GenStart)
			if err != nil {
				return fmt.Errorf("data.gen_start: %w", err)
			}
			dates := source.TradingDays(from, cfg.Data.GenDays)

			if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
				return err
			}

			rng := randsrc.New(cfg.Game.Seed)
			params := source.DefaultPumpDump()
			for _, sym := range symbols {
				bars := source.GenerateSeries(rng, params, start, minPrice, dates)

				path := filepath.Join(cfg.Data.Dir, sym+".csv")
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := source.WriteCSV(f, bars); err != nil {
					f.Close()
					return fmt.Errorf("write %s: %w", path, err)
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bars)\n", path, len(bars))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&start, "start", 100, "Starting price")
	cmd.Flags().Float64Var(&minPrice, "min-price", 1, "Price floor")
	return cmd
}
