package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// scanCmd runs one full scan from the command line
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one full scan and exit",
	Long: `Runs the six-stage scan pipeline once in the foreground.

Ctrl+C requests cooperative cancellation: in-flight batches drain,
no new stage begins, and the run ends in a cancelled state.

Example:
  go run ./cmd/scanner scan`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		a.logger.Warn("Cancellation requested, draining in-flight batches")
		cancel()
	}()

	return a.orchestrator.RunFullScan(ctx)
}
