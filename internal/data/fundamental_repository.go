package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdemuth17/market-analysis/internal/contracts"
)

// FundamentalRepository implements contracts.FundamentalRepository
type FundamentalRepository struct {
	pool *pgxpool.Pool
}

// NewFundamentalRepository creates a new fundamental repository
func NewFundamentalRepository(pool *pgxpool.Pool) *FundamentalRepository {
	return &FundamentalRepository{pool: pool}
}

// LatestDates returns the most recent snapshot date per ticker
func (r *FundamentalRepository) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	query := `
		SELECT ticker, MAX(snapshot_date)
		FROM data.fundamental_snapshots
		WHERE ticker = ANY($1)
		GROUP BY ticker
	`

	rows, err := r.pool.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query latest fundamental dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]time.Time, len(tickers))
	for rows.Next() {
		var ticker string
		var date time.Time
		if err := rows.Scan(&ticker, &date); err != nil {
			return nil, fmt.Errorf("scan latest fundamental date: %w", err)
		}
		dates[ticker] = date
	}
	return dates, rows.Err()
}

// LatestByTickers returns the most recent snapshot per ticker
func (r *FundamentalRepository) LatestByTickers(ctx context.Context, tickers []string) (map[string]contracts.FundamentalSnapshot, error) {
	query := `
		SELECT DISTINCT ON (ticker)
			ticker, snapshot_date,
			pe_ratio, forward_pe, price_to_book, debt_to_equity, profit_margin,
			return_on_equity, dividend_yield, market_cap, current_price,
			value_score, quality_score, growth_score, safety_score, composite_score
		FROM data.fundamental_snapshots
		WHERE ticker = ANY($1)
		ORDER BY ticker, snapshot_date DESC
	`

	rows, err := r.pool.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query latest fundamentals: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]contracts.FundamentalSnapshot, len(tickers))
	for rows.Next() {
		var s contracts.FundamentalSnapshot
		err := rows.Scan(
			&s.Ticker, &s.SnapshotDate,
			&s.PERatio, &s.ForwardPE, &s.PriceToBook, &s.DebtToEquity, &s.ProfitMargin,
			&s.ReturnOnEquity, &s.DividendYield, &s.MarketCap, &s.CurrentPrice,
			&s.ValueScore, &s.QualityScore, &s.GrowthScore, &s.SafetyScore, &s.CompositeScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan latest fundamental: %w", err)
		}
		latest[s.Ticker] = s
	}
	return latest, rows.Err()
}

// AppendBatch appends snapshots; one snapshot exists per (ticker, date)
func (r *FundamentalRepository) AppendBatch(ctx context.Context, snapshots []contracts.FundamentalSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO data.fundamental_snapshots
			(ticker, snapshot_date,
			 pe_ratio, forward_pe, price_to_book, debt_to_equity, profit_margin,
			 return_on_equity, dividend_yield, market_cap, current_price,
			 value_score, quality_score, growth_score, safety_score, composite_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (ticker, snapshot_date) DO NOTHING
	`

	for _, s := range snapshots {
		batch.Queue(query,
			s.Ticker, s.SnapshotDate,
			s.PERatio, s.ForwardPE, s.PriceToBook, s.DebtToEquity, s.ProfitMargin,
			s.ReturnOnEquity, s.DividendYield, s.MarketCap, s.CurrentPrice,
			s.ValueScore, s.QualityScore, s.GrowthScore, s.SafetyScore, s.CompositeScore,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range snapshots {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("append fundamental snapshot: %w", err)
		}
	}
	return nil
}
