package selection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemuth17/market-analysis/internal/contracts"
)

type fakePrices struct {
	latest map[string]contracts.PricePoint
}

func (f *fakePrices) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	return nil, nil
}

func (f *fakePrices) LatestByTickers(ctx context.Context, tickers []string) (map[string]contracts.PricePoint, error) {
	return f.latest, nil
}

func (f *fakePrices) RecentBars(ctx context.Context, ticker string, limit int) ([]contracts.PricePoint, error) {
	return nil, nil
}

func (f *fakePrices) UpsertBatch(ctx context.Context, points []contracts.PricePoint) error {
	return nil
}

type fakeFundamentals struct {
	latest map[string]contracts.FundamentalSnapshot
}

func (f *fakeFundamentals) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	return nil, nil
}

func (f *fakeFundamentals) LatestByTickers(ctx context.Context, tickers []string) (map[string]contracts.FundamentalSnapshot, error) {
	return f.latest, nil
}

func (f *fakeFundamentals) AppendBatch(ctx context.Context, snapshots []contracts.FundamentalSnapshot) error {
	return nil
}

type fakeTechnicals struct {
	signals map[string][]contracts.TechnicalSignal
}

func (f *fakeTechnicals) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	return nil, nil
}

func (f *fakeTechnicals) RecentSignals(ctx context.Context, tickers []string, since time.Time) (map[string][]contracts.TechnicalSignal, error) {
	return f.signals, nil
}

func (f *fakeTechnicals) AppendBatch(ctx context.Context, signals []contracts.TechnicalSignal) error {
	return nil
}

type fakeSentiments struct {
	latest map[string][]contracts.SentimentScore
}

func (f *fakeSentiments) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	return nil, nil
}

func (f *fakeSentiments) LatestByTickers(ctx context.Context, tickers []string) (map[string][]contracts.SentimentScore, error) {
	return f.latest, nil
}

func (f *fakeSentiments) AppendBatch(ctx context.Context, scores []contracts.SentimentScore) error {
	return nil
}

func newTestScreener(prices *fakePrices, fundamentals *fakeFundamentals) *Screener {
	return NewScreener(prices, fundamentals, &fakeTechnicals{}, &fakeSentiments{}, testLogger())
}

func ptr(v float64) *float64 { return &v }

func TestScreen_PriceFilters(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	prices := &fakePrices{latest: map[string]contracts.PricePoint{
		"CHEAP": {Ticker: "CHEAP", Close: 2, Volume: 1_000_000},
		"THIN":  {Ticker: "THIN", Close: 50, Volume: 10_000},
		"GOOD":  {Ticker: "GOOD", Close: 50, Volume: 1_000_000},
	}}
	s := newTestScreener(prices, &fakeFundamentals{})

	cfg := &contracts.ScanConfig{MinPrice: 5, MinVolume: 100_000}
	ev, err := s.Screen(context.Background(), []string{"CHEAP", "THIN", "GOOD"}, cfg, now)
	require.NoError(t, err)

	assert.Equal(t, []string{"GOOD"}, ev.Tickers)
}

func TestScreen_NoPriceDataExcludes(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	prices := &fakePrices{latest: map[string]contracts.PricePoint{
		"AAPL": {Ticker: "AAPL", Close: 180, Volume: 1_000_000},
	}}
	s := newTestScreener(prices, &fakeFundamentals{})

	ev, err := s.Screen(context.Background(), []string{"AAPL", "GHOST"}, &contracts.ScanConfig{}, now)
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL"}, ev.Tickers)
}

func TestScreen_FundamentalFilters(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	prices := &fakePrices{latest: map[string]contracts.PricePoint{
		"PRICEY":  {Ticker: "PRICEY", Close: 100, Volume: 500_000},
		"LEVERED": {Ticker: "LEVERED", Close: 100, Volume: 500_000},
		"SPARSE":  {Ticker: "SPARSE", Close: 100, Volume: 500_000},
		"SOLID":   {Ticker: "SOLID", Close: 100, Volume: 500_000},
	}}
	fundamentals := &fakeFundamentals{latest: map[string]contracts.FundamentalSnapshot{
		"PRICEY":  {Ticker: "PRICEY", PERatio: ptr(80)},
		"LEVERED": {Ticker: "LEVERED", DebtToEquity: ptr(4.5)},
		"SPARSE":  {Ticker: "SPARSE"}, // no ratios reported
		"SOLID":   {Ticker: "SOLID", PERatio: ptr(18), DebtToEquity: ptr(0.6)},
	}}
	s := newTestScreener(prices, fundamentals)

	cfg := &contracts.ScanConfig{MaxPERatio: 40, MaxDebtToEquity: 2}
	ev, err := s.Screen(context.Background(), []string{"PRICEY", "LEVERED", "SPARSE", "SOLID"}, cfg, now)
	require.NoError(t, err)

	// a missing ratio never disqualifies
	assert.ElementsMatch(t, []string{"SPARSE", "SOLID"}, ev.Tickers)
}

func TestScreen_EvidenceCarriesInputs(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	prices := &fakePrices{latest: map[string]contracts.PricePoint{
		"AAPL": {Ticker: "AAPL", Close: 180, Volume: 1_000_000},
	}}
	fundamentals := &fakeFundamentals{latest: map[string]contracts.FundamentalSnapshot{
		"AAPL": {Ticker: "AAPL", CompositeScore: 72},
	}}
	technicals := &fakeTechnicals{signals: map[string][]contracts.TechnicalSignal{
		"AAPL": {{Ticker: "AAPL", PatternType: "cup_and_handle", Direction: "bullish", Confidence: 80, DetectedDate: now}},
	}}
	sentiments := &fakeSentiments{latest: map[string][]contracts.SentimentScore{
		"AAPL": {{Ticker: "AAPL", Source: contracts.SourceNews, Positive: 0.7, Negative: 0.1, SampleSize: 20}},
	}}
	s := NewScreener(prices, fundamentals, technicals, sentiments, testLogger())

	ev, err := s.Screen(context.Background(), []string{"AAPL"}, &contracts.ScanConfig{}, now)
	require.NoError(t, err)

	in, ok := ev.Inputs["AAPL"]
	require.True(t, ok)
	require.NotNil(t, in.Fundamental)
	assert.Equal(t, 72.0, in.Fundamental.CompositeScore)
	assert.Len(t, in.Signals, 1)
	assert.Len(t, in.Sentiments, 1)
}
