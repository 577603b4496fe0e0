package freshness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemuth17/market-analysis/internal/contracts"
)

type fakePriceRepo struct {
	dates map[string]time.Time
	calls int
}

func (f *fakePriceRepo) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	f.calls++
	return f.dates, nil
}

func (f *fakePriceRepo) LatestByTickers(ctx context.Context, tickers []string) (map[string]contracts.PricePoint, error) {
	return nil, nil
}

func (f *fakePriceRepo) RecentBars(ctx context.Context, ticker string, limit int) ([]contracts.PricePoint, error) {
	return nil, nil
}

func (f *fakePriceRepo) UpsertBatch(ctx context.Context, points []contracts.PricePoint) error {
	return nil
}

type fakeDateLister struct {
	dates map[string]time.Time
	err   error
}

func (f *fakeDateLister) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	return f.dates, f.err
}

func TestClassifier_TierFor(t *testing.T) {
	c := NewClassifier("6mo")
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastDate   time.Time
		wantTier   Tier
		wantPeriod string
	}{
		{"same day", now, TierFresh, "5d"},
		{"two days old", now.AddDate(0, 0, -2), TierFresh, "5d"},
		{"exactly three days", now.AddDate(0, 0, -3), TierFresh, "5d"},
		{"four days old", now.AddDate(0, 0, -4), TierRecent, "1mo"},
		{"two weeks old", now.AddDate(0, 0, -14), TierRecent, "1mo"},
		{"fifteen days old", now.AddDate(0, 0, -15), TierStale, "6mo"},
		{"months old", now.AddDate(0, -3, 0), TierStale, "6mo"},
		{"no history", time.Time{}, TierStale, "6mo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, period := c.TierFor(tt.lastDate, now)
			assert.Equal(t, tt.wantTier, tier)
			assert.Equal(t, tt.wantPeriod, period)
		})
	}
}

func TestClassifier_TierFor_TotalFunction(t *testing.T) {
	// every input maps to exactly one tier
	c := NewClassifier("6mo")
	now := time.Now()

	for days := 0; days < 60; days++ {
		tier, _ := c.TierFor(now.AddDate(0, 0, -days), now)
		assert.Contains(t, []Tier{TierFresh, TierRecent, TierStale}, tier)
	}
}

func TestFilterMissing(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	lister := &fakeDateLister{dates: map[string]time.Time{
		"AAPL": now.Add(-2 * time.Hour),  // current
		"MSFT": now.Add(-48 * time.Hour), // stale
		// NVDA absent: never fetched
	}}

	missing, err := FilterMissing(context.Background(), lister, []string{"AAPL", "MSFT", "NVDA"}, now, 24*time.Hour)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"MSFT", "NVDA"}, missing)
}

func TestClassifyPrices_SingleBulkLookup(t *testing.T) {
	now := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	repo := &fakePriceRepo{dates: map[string]time.Time{
		"AAPL": now.AddDate(0, 0, -1),
		"MSFT": now.AddDate(0, 0, -10),
	}}

	c := NewClassifier("6mo")
	classes, err := c.ClassifyPrices(context.Background(), repo, []string{"AAPL", "MSFT", "NVDA"}, now)
	require.NoError(t, err)
	require.Len(t, classes, 3)
	assert.Equal(t, 1, repo.calls, "classification uses one round trip")

	byTicker := map[string]Classification{}
	for _, cl := range classes {
		byTicker[cl.Ticker] = cl
	}
	assert.Equal(t, TierFresh, byTicker["AAPL"].Tier)
	assert.Equal(t, TierRecent, byTicker["MSFT"].Tier)
	assert.Equal(t, TierStale, byTicker["NVDA"].Tier)
}
