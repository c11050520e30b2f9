// marketsim - a single-player parallel-universe stock market
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	configPath string
	savePath   string
	seed       int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "marketsim",
		Short: "Single-player stock market simulation",
		Long: `marketsim runs a basket of instruments through a simulated market.
Prices follow historical data, live quotes, or a synthetic model, nudged by
a market regime and by news sentiment. Trade with a cash balance and try
not to go bankrupt.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVarP(&savePath, "save", "s", "", "Save file (overrides save.path)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Random seed (overrides game.seed when non-zero)")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(playCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(genDataCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("marketsim version %s\n", version)
		},
	}
}
