package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "dfs",
	Short: "Yahoo Daily Fantasy contest automation",
	Long: `DFS Unified CLI

Automates the daily fantasy contest loop: contest discovery, player
pools, projections, lineup optimization, timed submission and late
swaps.

Usage:
  go run ./cmd/dfs [command]

Examples:
  go run ./cmd/dfs start
  go run ./cmd/dfs scheduler run sync_contests
  go run ./cmd/dfs migrate`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
