package brain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/internal/progress"
	"github.com/jdemuth17/market-analysis/internal/scoring"
	"github.com/jdemuth17/market-analysis/internal/selection"
	"github.com/jdemuth17/market-analysis/pkg/config"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

type fakeConfigs struct {
	cfg *contracts.ScanConfig
	err error
}

func (f *fakeConfigs) GetDefault(ctx context.Context) (*contracts.ScanConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cfg, nil
}

type fakeUniverse struct {
	tickers []string
	err     error
}

func (f *fakeUniverse) Resolve(ctx context.Context, cfg *contracts.ScanConfig) ([]string, error) {
	return f.tickers, f.err
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) HealthCheck(ctx context.Context) error {
	return f.err
}

// fakeCollector records stage entry and optionally blocks until release
type fakeCollector struct {
	mu        sync.Mutex
	stagesRun []string
	blockOn   string
	blocked   chan struct{} // closed when the blocking stage is entered
	release   chan struct{}
	pricesErr error
}

func newFakeCollector() *fakeCollector {
	return &fakeCollector{
		blocked: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *fakeCollector) enter(ctx context.Context, stage string) error {
	f.mu.Lock()
	f.stagesRun = append(f.stagesRun, stage)
	f.mu.Unlock()

	if f.blockOn == stage {
		close(f.blocked)
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (f *fakeCollector) ran() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.stagesRun))
	copy(out, f.stagesRun)
	return out
}

func (f *fakeCollector) CollectPrices(ctx context.Context, stageIndex int, tickers []string, now time.Time) ([]string, error) {
	if err := f.enter(ctx, "prices"); err != nil {
		return nil, err
	}
	return tickers, f.pricesErr
}

func (f *fakeCollector) CollectFundamentals(ctx context.Context, stageIndex int, tickers []string, now time.Time) error {
	return f.enter(ctx, "fundamentals")
}

func (f *fakeCollector) CollectTechnicals(ctx context.Context, stageIndex int, tickers []string, cfg *contracts.ScanConfig, now time.Time) error {
	return f.enter(ctx, "technicals")
}

func (f *fakeCollector) CollectSentiment(ctx context.Context, stageIndex int, tickers []string, cfg *contracts.ScanConfig, now time.Time) error {
	return f.enter(ctx, "sentiment")
}

type fakeScreener struct{}

func (f *fakeScreener) Screen(ctx context.Context, tickers []string, cfg *contracts.ScanConfig, now time.Time) (*selection.Evidence, error) {
	return &selection.Evidence{Tickers: tickers, Inputs: map[string]scoring.Inputs{}}, nil
}

type fakeRanker struct {
	calls int
}

func (f *fakeRanker) RankAndReport(ctx context.Context, ev *selection.Evidence, cfg *contracts.ScanConfig, method contracts.ScoreMethod, universeSize int, now time.Time) ([]*contracts.ScanReport, error) {
	f.calls++
	return []*contracts.ScanReport{{Category: contracts.CategoryShortTermHold}}, nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

func newTestOrchestrator(collector *fakeCollector, tracker *progress.Tracker) (*Orchestrator, *fakeRanker) {
	ranker := &fakeRanker{}
	o := NewOrchestrator(
		&fakeConfigs{cfg: &contracts.ScanConfig{Name: "default", Weights: contracts.DefaultWeights()}},
		&fakeUniverse{tickers: []string{"AAPL", "MSFT"}},
		&fakeHealth{},
		collector,
		&fakeScreener{},
		ranker,
		scoring.NewEngine(nil, testLogger()),
		tracker,
		testLogger(),
	)
	return o, ranker
}

func TestRunFullScan_HappyPath(t *testing.T) {
	tracker := progress.NewTracker(TotalStages)
	collector := newFakeCollector()
	o, ranker := newTestOrchestrator(collector, tracker)

	err := o.RunFullScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"prices", "fundamentals", "technicals", "sentiment"}, collector.ran())
	assert.Equal(t, 1, ranker.calls)

	snap := tracker.Snapshot()
	assert.Equal(t, progress.StatusCompleted, snap.Status)
	assert.InDelta(t, 100.0, snap.PercentComplete, 0.01)
	assert.Equal(t, string(contracts.MethodLegacy), snap.ScoringMethod)
	assert.Equal(t, 2, snap.UniverseSize)
}

func TestRunFullScan_SingleFlight(t *testing.T) {
	tracker := progress.NewTracker(TotalStages)
	collector := newFakeCollector()
	collector.blockOn = "prices"
	o, _ := newTestOrchestrator(collector, tracker)

	done := make(chan error, 1)
	go func() {
		done <- o.RunFullScan(context.Background())
	}()
	<-collector.blocked

	// second request while the first run is mid-flight
	err := o.RunFullScan(context.Background())
	assert.ErrorIs(t, err, contracts.ErrScanActive)

	snap := tracker.Snapshot()
	assert.Equal(t, progress.StatusRunning, snap.Status, "active run state untouched by the no-op")

	close(collector.release)
	require.NoError(t, <-done)
}

func TestRunFullScan_CancellationMidRun(t *testing.T) {
	tracker := progress.NewTracker(TotalStages)
	collector := newFakeCollector()
	collector.blockOn = "fundamentals" // stage 3 of 6
	o, ranker := newTestOrchestrator(collector, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- o.RunFullScan(ctx)
	}()
	<-collector.blocked
	cancel()

	err := <-done
	assert.ErrorIs(t, err, contracts.ErrCancelled)

	assert.Equal(t, []string{"prices", "fundamentals"}, collector.ran(),
		"stages after the cancellation point never start")
	assert.Equal(t, 0, ranker.calls)

	snap := tracker.Snapshot()
	assert.Equal(t, progress.StatusFailed, snap.Status)
	assert.Equal(t, "cancelled", snap.Error)
}

func TestRunFullScan_PreFlightGate(t *testing.T) {
	tracker := progress.NewTracker(TotalStages)
	collector := newFakeCollector()
	ranker := &fakeRanker{}
	o := NewOrchestrator(
		&fakeConfigs{cfg: &contracts.ScanConfig{Name: "default"}},
		&fakeUniverse{tickers: []string{"AAPL"}},
		&fakeHealth{err: errors.New("connection refused")},
		collector,
		&fakeScreener{},
		ranker,
		scoring.NewEngine(nil, testLogger()),
		tracker,
		testLogger(),
	)

	err := o.RunFullScan(context.Background())
	require.Error(t, err)
	assert.Empty(t, collector.ran(), "no batch issued when the service is unhealthy")
	assert.Equal(t, progress.StatusFailed, tracker.Snapshot().Status)
}

func TestRunFullScan_MissingConfigIsFatal(t *testing.T) {
	tracker := progress.NewTracker(TotalStages)
	collector := newFakeCollector()
	o := NewOrchestrator(
		&fakeConfigs{err: contracts.ErrNoDefaultConfig},
		&fakeUniverse{tickers: []string{"AAPL"}},
		&fakeHealth{},
		collector,
		&fakeScreener{},
		&fakeRanker{},
		scoring.NewEngine(nil, testLogger()),
		tracker,
		testLogger(),
	)

	err := o.RunFullScan(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, contracts.ErrNoDefaultConfig)
	assert.Empty(t, collector.ran())
}
