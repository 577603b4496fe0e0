package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/internal/progress"
	"github.com/jdemuth17/market-analysis/internal/scoring"
	"github.com/jdemuth17/market-analysis/internal/selection"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// TotalStages is the fixed stage count of a full scan:
// universe, prices, fundamentals, technicals, sentiment, scoring.
const TotalStages = 6

// UniverseResolver resolves the scan universe
type UniverseResolver interface {
	Resolve(ctx context.Context, cfg *contracts.ScanConfig) ([]string, error)
}

// HealthChecker gates the pipeline on analysis service availability
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Collector runs the four ingestion stages
type Collector interface {
	CollectPrices(ctx context.Context, stageIndex int, tickers []string, now time.Time) ([]string, error)
	CollectFundamentals(ctx context.Context, stageIndex int, tickers []string, now time.Time) error
	CollectTechnicals(ctx context.Context, stageIndex int, tickers []string, cfg *contracts.ScanConfig, now time.Time) error
	CollectSentiment(ctx context.Context, stageIndex int, tickers []string, cfg *contracts.ScanConfig, now time.Time) error
}

// Screener applies hard filters and bulk-loads scoring evidence
type Screener interface {
	Screen(ctx context.Context, tickers []string, cfg *contracts.ScanConfig, now time.Time) (*selection.Evidence, error)
}

// Ranker scores, ranks and persists per-category reports
type Ranker interface {
	RankAndReport(ctx context.Context, ev *selection.Evidence, cfg *contracts.ScanConfig, method contracts.ScoreMethod, universeSize int, now time.Time) ([]*contracts.ScanReport, error)
}

// Orchestrator sequences the six-stage daily scan.
// ⭐ SSOT: run lifecycle (single-flight, cancellation, terminal state)
// is decided here only.
type Orchestrator struct {
	configs   contracts.ScanConfigRepository
	universe  UniverseResolver
	health    HealthChecker
	collector Collector
	screener  Screener
	ranker    Ranker
	engine    *scoring.Engine
	tracker   *progress.Tracker
	logger    *logger.Logger
}

func NewOrchestrator(
	configs contracts.ScanConfigRepository,
	universe UniverseResolver,
	health HealthChecker,
	collector Collector,
	screener Screener,
	ranker Ranker,
	engine *scoring.Engine,
	tracker *progress.Tracker,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		configs:   configs,
		universe:  universe,
		health:    health,
		collector: collector,
		screener:  screener,
		ranker:    ranker,
		engine:    engine,
		tracker:   tracker,
		logger:    log,
	}
}

// RunFullScan executes the full pipeline. A request while a run is
// active is a logged no-op returning ErrScanActive; the active run's
// tracker state is untouched. Cancellation is honored cooperatively at
// stage boundaries: in-flight batches drain, no new stage begins.
func (o *Orchestrator) RunFullScan(ctx context.Context) error {
	if !o.tracker.TryStart() {
		o.logger.Info("Scan requested while another is active, ignoring")
		return contracts.ErrScanActive
	}

	err := o.run(ctx)
	switch {
	case err == nil:
		o.tracker.Complete("scan completed")
	case isCancellation(err):
		o.logger.Warn("Scan cancelled")
		o.tracker.Fail("cancelled")
		return contracts.ErrCancelled
	default:
		o.logger.WithError(err).Error("Scan failed")
		o.tracker.Fail(err.Error())
	}
	return err
}

func (o *Orchestrator) run(ctx context.Context) error {
	started := time.Now()
	now := started

	// pre-flight: no side effects before the dependency gate passes
	if err := o.health.HealthCheck(ctx); err != nil {
		return fmt.Errorf("analysis service unhealthy: %w", err)
	}

	cfg, err := o.configs.GetDefault(ctx)
	if err != nil {
		return fmt.Errorf("load scan configuration: %w", err)
	}

	// scoring path binds once, before any fan-out
	method := o.engine.SelectMethod(ctx, cfg)
	o.tracker.SetScoringMethod(string(method))
	o.logger.WithFields(map[string]interface{}{
		"config":  cfg.Name,
		"version": cfg.Version,
		"method":  method,
	}).Info("Starting full scan")

	// stage 1: universe
	if err := o.stageBoundary(ctx, 0, "universe", 0); err != nil {
		return err
	}
	universe, err := o.universe.Resolve(ctx, cfg)
	if err != nil {
		return fmt.Errorf("resolve universe: %w", err)
	}
	if len(universe) == 0 {
		return fmt.Errorf("scan universe is empty")
	}
	o.tracker.SetUniverseSize(len(universe))
	o.tracker.IncrementTickers(0)

	// stage 2: prices
	if err := o.checkCancelled(ctx); err != nil {
		return err
	}
	tickers, err := o.collector.CollectPrices(ctx, 1, universe, now)
	if err != nil {
		return fmt.Errorf("price ingestion: %w", err)
	}

	// stage 3: fundamentals
	if err := o.checkCancelled(ctx); err != nil {
		return err
	}
	if err := o.collector.CollectFundamentals(ctx, 2, tickers, now); err != nil {
		return fmt.Errorf("fundamental ingestion: %w", err)
	}

	// stage 4: technicals
	if err := o.checkCancelled(ctx); err != nil {
		return err
	}
	if err := o.collector.CollectTechnicals(ctx, 3, tickers, cfg, now); err != nil {
		return fmt.Errorf("technical analysis: %w", err)
	}

	// stage 5: sentiment
	if err := o.checkCancelled(ctx); err != nil {
		return err
	}
	if err := o.collector.CollectSentiment(ctx, 4, tickers, cfg, now); err != nil {
		return fmt.Errorf("sentiment analysis: %w", err)
	}

	// stage 6: scoring and reporting
	if err := o.stageBoundary(ctx, 5, "scoring", len(tickers)); err != nil {
		return err
	}
	ev, err := o.screener.Screen(ctx, tickers, cfg, now)
	if err != nil {
		return fmt.Errorf("screening: %w", err)
	}
	reports, err := o.ranker.RankAndReport(ctx, ev, cfg, method, len(universe), now)
	if err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	o.tracker.IncrementTickers(len(tickers))

	totalMatches := 0
	for _, r := range reports {
		totalMatches += r.TotalMatches
	}
	o.logger.WithFields(map[string]interface{}{
		"universe": len(universe),
		"scored":   len(ev.Tickers),
		"matches":  totalMatches,
		"reports":  len(reports),
		"duration": time.Since(started).String(),
	}).Info("Full scan completed")
	return nil
}

// stageBoundary checks cancellation then enters the named stage
func (o *Orchestrator) stageBoundary(ctx context.Context, index int, name string, total int) error {
	if err := o.checkCancelled(ctx); err != nil {
		return err
	}
	o.tracker.SetStage(index, name, total)
	return nil
}

func (o *Orchestrator) checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, contracts.ErrCancelled)
}
