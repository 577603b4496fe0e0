package jobs

import (
	"context"

	"github.com/jdemuth17/market-analysis/internal/brain"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// DailyScanJob runs the full scan pipeline after market close
type DailyScanJob struct {
	orchestrator *brain.Orchestrator
	logger       *logger.Logger
	schedule     string
}

// NewDailyScanJob creates the daily scan job. An empty schedule uses
// the default: weekdays at 17:30 Eastern, after close and settlement.
func NewDailyScanJob(orchestrator *brain.Orchestrator, log *logger.Logger, schedule string) *DailyScanJob {
	if schedule == "" {
		schedule = "0 30 17 * * 1-5"
	}
	return &DailyScanJob{
		orchestrator: orchestrator,
		logger:       log,
		schedule:     schedule,
	}
}

// Name returns the job name
func (j *DailyScanJob) Name() string {
	return "daily_scan"
}

// Schedule returns the cron schedule expression
func (j *DailyScanJob) Schedule() string {
	return j.schedule
}

// Run executes the full scan
func (j *DailyScanJob) Run(ctx context.Context) error {
	j.logger.Info("Daily scan job triggered")
	return j.orchestrator.RunFullScan(ctx)
}
