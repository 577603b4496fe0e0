package freshness

import (
	"context"
	"time"

	"github.com/jdemuth17/market-analysis/internal/contracts"
)

// Tier classifies how much price history a ticker needs fetched
type Tier string

const (
	TierFresh  Tier = "fresh"  // last bar within 3 days
	TierRecent Tier = "recent" // last bar within 14 days
	TierStale  Tier = "stale"  // older than 14 days or no history
)

const (
	freshWindow  = 3 * 24 * time.Hour
	recentWindow = 14 * 24 * time.Hour

	// lookback periods by tier, analysis service period syntax
	freshPeriod  = "5d"
	recentPeriod = "1mo"
)

// Classification is one ticker's fetch plan for the price stage
type Classification struct {
	Ticker string
	Tier   Tier
	Period string
}

// Classifier decides per-ticker fetch depth from stored history recency
type Classifier struct {
	fullLookbackPeriod string
}

func NewClassifier(fullLookbackPeriod string) *Classifier {
	if fullLookbackPeriod == "" {
		fullLookbackPeriod = "6mo"
	}
	return &Classifier{fullLookbackPeriod: fullLookbackPeriod}
}

// TierFor classifies a single ticker. A zero lastDate means no stored
// history and always classifies stale.
func (c *Classifier) TierFor(lastDate, now time.Time) (Tier, string) {
	if lastDate.IsZero() {
		return TierStale, c.fullLookbackPeriod
	}
	age := now.Sub(lastDate)
	switch {
	case age <= freshWindow:
		return TierFresh, freshPeriod
	case age <= recentWindow:
		return TierRecent, recentPeriod
	default:
		return TierStale, c.fullLookbackPeriod
	}
}

// ClassifyPrices bulk-classifies the universe for the price stage.
// One repository round trip regardless of universe size.
func (c *Classifier) ClassifyPrices(ctx context.Context, repo contracts.PriceRepository, tickers []string, now time.Time) ([]Classification, error) {
	latest, err := repo.LatestDates(ctx, tickers)
	if err != nil {
		return nil, err
	}

	out := make([]Classification, 0, len(tickers))
	for _, ticker := range tickers {
		tier, period := c.TierFor(latest[ticker], now)
		out = append(out, Classification{Ticker: ticker, Tier: tier, Period: period})
	}
	return out, nil
}

// DateLister is the LatestDates slice of the fact repositories
type DateLister interface {
	LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error)
}

// FilterMissing returns the tickers whose stored fact is older than
// maxAge relative to now. Non-price facts are binary: a ticker is
// either current enough to skip or it gets a full refresh.
func FilterMissing(ctx context.Context, lister DateLister, tickers []string, now time.Time, maxAge time.Duration) ([]string, error) {
	latest, err := lister.LatestDates(ctx, tickers)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, ticker := range tickers {
		last, ok := latest[ticker]
		if !ok || now.Sub(last) > maxAge {
			missing = append(missing, ticker)
		}
	}
	return missing, nil
}
