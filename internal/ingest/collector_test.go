package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/internal/external/analysis"
	"github.com/jdemuth17/market-analysis/internal/freshness"
	"github.com/jdemuth17/market-analysis/internal/progress"
	"github.com/jdemuth17/market-analysis/pkg/config"
)

type fakePriceRepo struct {
	mu     sync.Mutex
	dates  map[string]time.Time
	stored []contracts.PricePoint
}

func (f *fakePriceRepo) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	return f.dates, nil
}

func (f *fakePriceRepo) LatestByTickers(ctx context.Context, tickers []string) (map[string]contracts.PricePoint, error) {
	return nil, nil
}

func (f *fakePriceRepo) RecentBars(ctx context.Context, ticker string, limit int) ([]contracts.PricePoint, error) {
	return nil, nil
}

func (f *fakePriceRepo) UpsertBatch(ctx context.Context, points []contracts.PricePoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, points...)
	return nil
}

type fakeAnalysis struct {
	mu         sync.Mutex
	failBatch  map[string]bool // fail any batch containing this ticker
	tickerErr  map[string]string
	priceCalls int
}

func (f *fakeAnalysis) FetchPrices(ctx context.Context, tickers []string, period, interval string) (*analysis.FetchPricesResponse, error) {
	f.mu.Lock()
	f.priceCalls++
	f.mu.Unlock()

	resp := &analysis.FetchPricesResponse{}
	for _, ticker := range tickers {
		if f.failBatch[ticker] {
			return nil, errors.New("upstream timeout")
		}
		td := analysis.TickerPriceData{Ticker: ticker}
		if msg, ok := f.tickerErr[ticker]; ok {
			td.Error = msg
		} else {
			td.Bars = []analysis.OHLCVBar{{Date: "2026-08-28", Close: 100, Volume: 500}}
		}
		resp.Data = append(resp.Data, td)
	}
	return resp, nil
}

func (f *fakeAnalysis) FetchFundamentals(ctx context.Context, tickers []string) (*analysis.FetchFundamentalsResponse, error) {
	return &analysis.FetchFundamentalsResponse{}, nil
}

func (f *fakeAnalysis) ScoreFundamentalsBatch(ctx context.Context, items []analysis.FundamentalData) (*analysis.ScoreBatchResponse, error) {
	return &analysis.ScoreBatchResponse{}, nil
}

func (f *fakeAnalysis) RunTechnicalAnalysis(ctx context.Context, req analysis.FullTechnicalRequest) (*analysis.FullTechnicalResponse, error) {
	return &analysis.FullTechnicalResponse{Ticker: req.Ticker}, nil
}

func (f *fakeAnalysis) RunSentimentPipeline(ctx context.Context, tickers []string, sources []contracts.SentimentSource) (*analysis.FullSentimentResponse, error) {
	return &analysis.FullSentimentResponse{}, nil
}

func newTestCollector(prices *fakePriceRepo, client AnalysisClient, tracker *progress.Tracker) *Collector {
	scanCfg := config.ScanConfig{
		PriceBatchSize:   2,
		PriceConcurrency: 2,
	}
	return NewCollector(prices, nil, nil, nil, client, freshness.NewClassifier("6mo"), tracker, testLogger(), scanCfg)
}

func TestCollectPrices_StoresFetchedBars(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	prices := &fakePriceRepo{dates: map[string]time.Time{}}
	client := &fakeAnalysis{}
	tracker := progress.NewTracker(6)
	tracker.TryStart()

	c := newTestCollector(prices, client, tracker)
	remaining, err := c.CollectPrices(context.Background(), 1, []string{"AAPL", "MSFT"}, now)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, remaining)
	assert.Len(t, prices.stored, 2)
	assert.Equal(t, 2, tracker.Snapshot().TickersDone)
}

func TestCollectPrices_BatchFailureConservativePassthrough(t *testing.T) {
	// a failed batch keeps its tickers in the pipeline: their stored
	// history may still be usable downstream
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	prices := &fakePriceRepo{dates: map[string]time.Time{
		"AAPL": now.AddDate(0, 0, -1),
		"MSFT": now.AddDate(0, 0, -1),
	}}
	client := &fakeAnalysis{failBatch: map[string]bool{"AAPL": true}}
	tracker := progress.NewTracker(6)
	tracker.TryStart()

	c := newTestCollector(prices, client, tracker)
	remaining, err := c.CollectPrices(context.Background(), 1, []string{"AAPL", "MSFT"}, now)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, remaining)
	assert.Equal(t, 2, tracker.Snapshot().TickersDone, "progress advances for the failed batch")
}

func TestCollectPrices_StaleTickerWithNoHistoryIsDropped(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	prices := &fakePriceRepo{dates: map[string]time.Time{
		"AAPL": now.AddDate(0, 0, -1),
	}}
	// GHOST has no stored history and the service cannot resolve it
	client := &fakeAnalysis{tickerErr: map[string]string{"GHOST": "no data found"}}
	tracker := progress.NewTracker(6)
	tracker.TryStart()

	c := newTestCollector(prices, client, tracker)
	remaining, err := c.CollectPrices(context.Background(), 1, []string{"AAPL", "GHOST"}, now)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL"}, remaining)
}

func TestCollectPrices_TierGroupsUseDifferentPeriods(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	prices := &fakePriceRepo{dates: map[string]time.Time{
		"FRESH": now.AddDate(0, 0, -1),
		"STALE": now.AddDate(0, -2, 0),
	}}
	client := &fakeAnalysis{}
	tracker := progress.NewTracker(6)
	tracker.TryStart()

	c := newTestCollector(prices, client, tracker)
	_, err := c.CollectPrices(context.Background(), 1, []string{"FRESH", "STALE"}, now)
	require.NoError(t, err)

	// one call per tier group, not one per ticker
	assert.Equal(t, 2, client.priceCalls)
}
