package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd checks connectivity to every dependency
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check database and external service health",
	Long: `Probes the database, the analysis service and the ML service
and prints a per-dependency status line.

Example:
  go run ./cmd/scanner status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	failed := false

	db := a.db.HealthCheck(ctx)
	if db.Healthy {
		fmt.Printf("database: ok (%s)\n", db.ResponseTime)
	} else {
		fmt.Printf("database: FAILED (%s)\n", db.Error)
		failed = true
	}

	if err := a.analysis.HealthCheck(ctx); err != nil {
		fmt.Printf("analysis: FAILED (%v)\n", err)
		failed = true
	} else {
		fmt.Println("analysis: ok")
	}

	if err := a.mlClient.HealthCheck(ctx); err != nil {
		// optional dependency, scans fall back to legacy scoring
		fmt.Printf("ml: unavailable (%v)\n", err)
	} else {
		fmt.Println("ml: ok")
	}

	if failed {
		return fmt.Errorf("one or more required dependencies are unhealthy")
	}
	return nil
}
