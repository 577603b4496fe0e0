package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: repository interfaces are defined here only.
// Bulk "latest per ticker" lookups keep the freshness classifier at O(1)
// round trips regardless of universe size.

// PriceRepository manages daily price points
type PriceRepository interface {
	// LatestDates returns the most recent trade date per ticker. Tickers
	// with no stored data are absent from the map.
	LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error)

	// LatestByTickers returns the most recent price point per ticker
	LatestByTickers(ctx context.Context, tickers []string) (map[string]PricePoint, error)

	// RecentBars returns up to limit bars for one ticker, oldest first
	RecentBars(ctx context.Context, ticker string, limit int) ([]PricePoint, error)

	// UpsertBatch writes points keyed by (ticker, trade date)
	UpsertBatch(ctx context.Context, points []PricePoint) error
}

// FundamentalRepository manages fundamental snapshots
type FundamentalRepository interface {
	LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error)
	LatestByTickers(ctx context.Context, tickers []string) (map[string]FundamentalSnapshot, error)
	AppendBatch(ctx context.Context, snapshots []FundamentalSnapshot) error
}

// TechnicalRepository manages detected technical signals
type TechnicalRepository interface {
	LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error)

	// RecentSignals returns signals detected on or after since, per ticker
	RecentSignals(ctx context.Context, tickers []string, since time.Time) (map[string][]TechnicalSignal, error)

	AppendBatch(ctx context.Context, signals []TechnicalSignal) error
}

// SentimentRepository manages sentiment scores
type SentimentRepository interface {
	LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error)

	// LatestByTickers returns the most recent score per (ticker, source)
	LatestByTickers(ctx context.Context, tickers []string) (map[string][]SentimentScore, error)

	AppendBatch(ctx context.Context, scores []SentimentScore) error
}

// ReportRepository persists immutable scan reports
type ReportRepository interface {
	Save(ctx context.Context, report *ScanReport) error
	LatestByCategory(ctx context.Context, category Category) (*ScanReport, error)
}

// ScanConfigRepository provides the scan configuration
type ScanConfigRepository interface {
	// GetDefault returns the single configuration marked default.
	// Returns ErrNoDefaultConfig when none exists.
	GetDefault(ctx context.Context) (*ScanConfig, error)
}

// WatchlistRepository provides user-managed watchlist membership
type WatchlistRepository interface {
	ActiveTickers(ctx context.Context) ([]string, error)
}

// IndexRepository caches index constituent lists
type IndexRepository interface {
	// CachedTickers returns the cached constituents and the refresh
	// timestamp; an empty slice means the cache is cold.
	CachedTickers(ctx context.Context, index string) ([]string, time.Time, error)

	SaveTickers(ctx context.Context, index string, tickers []string) error
}
