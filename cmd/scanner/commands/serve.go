package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdemuth17/market-analysis/internal/api"
	"github.com/jdemuth17/market-analysis/internal/api/handlers"
	"github.com/jdemuth17/market-analysis/internal/scheduler"
	"github.com/jdemuth17/market-analysis/internal/scheduler/jobs"
)

// serveCmd starts the API server and the daily scan scheduler
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and daily scan scheduler",
	Long: `Starts the HTTP API server and schedules the daily scan.

Endpoints:
  GET  /health                  - liveness
  GET  /api/health              - dependency health
  POST /api/scan/run            - trigger a scan
  POST /api/scan/cancel         - cancel the active scan
  GET  /api/scan/progress       - progress snapshot
  GET  /api/reports/{category}  - latest category report
  GET  /ws/progress             - progress push over websocket

Example:
  go run ./cmd/scanner serve
  go run ./cmd/scanner serve --port 8090`,
	RunE: runServe,
}

var (
	servePort    string
	scanSchedule string
	noScheduler  bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default from PORT)")
	serveCmd.Flags().StringVar(&scanSchedule, "schedule", "", "cron expression for the daily scan")
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "disable the daily scan scheduler")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if servePort != "" {
		a.cfg.Port = servePort
	}

	scanHandler := handlers.NewScanHandler(a.orchestrator, a.tracker, a.logger)
	reportHandler := handlers.NewReportHandler(a.reports, a.logger)
	healthHandler := handlers.NewHealthHandler(a.db, a.analysis, a.mlClient, a.logger)
	progressWS := handlers.NewProgressWS(a.tracker, a.logger)

	router := api.NewRouter(scanHandler, reportHandler, healthHandler, progressWS, a.logger)
	server := api.New(a.cfg, a.logger, router)

	var sched *scheduler.Scheduler
	if !noScheduler {
		sched = scheduler.New(a.logger)
		if err := sched.AddJob(jobs.NewDailyScanJob(a.orchestrator, a.logger, scanSchedule)); err != nil {
			return fmt.Errorf("register daily scan job: %w", err)
		}
		sched.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
