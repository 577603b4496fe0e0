package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "Daily equity scanning pipeline",
	Long: `Market analysis scanner CLI.

Runs the six-stage daily scan (universe, prices, fundamentals,
technicals, sentiment, scoring) and serves the results over HTTP.

Usage:
  go run ./cmd/scanner [command]

Examples:
  go run ./cmd/scanner serve
  go run ./cmd/scanner scan
  go run ./cmd/scanner status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
