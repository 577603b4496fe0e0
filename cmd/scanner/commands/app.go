package commands

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jdemuth17/market-analysis/internal/brain"
	"github.com/jdemuth17/market-analysis/internal/data"
	"github.com/jdemuth17/market-analysis/internal/external/analysis"
	"github.com/jdemuth17/market-analysis/internal/external/ml"
	"github.com/jdemuth17/market-analysis/internal/external/wikipedia"
	"github.com/jdemuth17/market-analysis/internal/freshness"
	"github.com/jdemuth17/market-analysis/internal/ingest"
	"github.com/jdemuth17/market-analysis/internal/progress"
	"github.com/jdemuth17/market-analysis/internal/scoring"
	"github.com/jdemuth17/market-analysis/internal/selection"
	"github.com/jdemuth17/market-analysis/internal/universe"
	"github.com/jdemuth17/market-analysis/pkg/config"
	"github.com/jdemuth17/market-analysis/pkg/database"
	"github.com/jdemuth17/market-analysis/pkg/httputil"
	"github.com/jdemuth17/market-analysis/pkg/logger"
	"github.com/jdemuth17/market-analysis/pkg/redis"
)

// app bundles the wired application graph shared by the CLI commands
// ⭐ SSOT: dependency wiring happens here only
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	db       *database.DB
	redis    *redis.Client
	tracker  *progress.Tracker
	analysis *analysis.Client
	mlClient *ml.Client

	reports      *data.ReportRepository
	orchestrator *brain.Orchestrator
}

// newApp loads config and wires the full dependency graph
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Connected to database")

	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, distributed rate limiting disabled")
		rdb = nil
	}

	// HTTP clients: the analysis service gets retry, a breaker and the
	// distributed limiter; the ML service runs a local limiter instead
	analysisHTTP := httputil.NewWithTimeout(cfg, log, cfg.Analysis.Timeout).
		WithRetry(3, time.Second).
		WithBreaker("analysis", 5, 30*time.Second)
	if rdb != nil && rdb.Enabled() {
		limiter := redis.NewRateLimiter(rdb, "ratelimit:analysis")
		analysisHTTP = analysisHTTP.WithRateLimiter(limiter, redis.AnalysisRateLimit)
	}
	mlHTTP := httputil.NewWithTimeout(cfg, log, cfg.ML.Timeout).
		WithRetry(2, time.Second).
		WithBreaker("ml", 5, 30*time.Second)

	analysisClient := analysis.NewClient(analysisHTTP, log, cfg.Analysis.BaseURL)
	mlClient := ml.NewClient(mlHTTP, log, cfg.ML.BaseURL, cfg.ML.RequestsPerSec)
	wikiClient := wikipedia.NewClient(&http.Client{Timeout: cfg.Analysis.Timeout}, log)

	// Repositories
	prices := data.NewPriceRepository(db.Pool)
	fundamentals := data.NewFundamentalRepository(db.Pool)
	technicals := data.NewTechnicalRepository(db.Pool)
	sentiments := data.NewSentimentRepository(db.Pool)
	reports := data.NewReportRepository(db.Pool)
	configs := data.NewScanConfigRepository(db.Pool)
	watchlist := data.NewWatchlistRepository(db.Pool)
	indexes := data.NewIndexRepository(db.Pool)

	// Pipeline components
	tracker := progress.NewTracker(brain.TotalStages)
	resolver := universe.NewResolver(watchlist, indexes, analysisClient, wikiClient, log)
	classifier := freshness.NewClassifier(cfg.Scan.FullLookbackPeriod)
	collector := ingest.NewCollector(prices, fundamentals, technicals, sentiments,
		analysisClient, classifier, tracker, log, cfg.Scan)
	engine := scoring.NewEngine(mlClient, log)
	screener := selection.NewScreener(prices, fundamentals, technicals, sentiments, log)
	ranker := selection.NewRanker(engine, reports, log)

	orchestrator := brain.NewOrchestrator(configs, resolver, analysisClient,
		collector, screener, ranker, engine, tracker, log)

	return &app{
		cfg:          cfg,
		logger:       log,
		db:           db,
		redis:        rdb,
		tracker:      tracker,
		analysis:     analysisClient,
		mlClient:     mlClient,
		reports:      reports,
		orchestrator: orchestrator,
	}, nil
}

// close releases held resources
func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.db.Close()
}
