package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdemuth17/market-analysis/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository
// ⭐ SSOT: price point persistence lives here only
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// LatestDates returns the most recent trade date per ticker in one query
func (r *PriceRepository) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	query := `
		SELECT ticker, MAX(trade_date)
		FROM data.price_points
		WHERE ticker = ANY($1)
		GROUP BY ticker
	`

	rows, err := r.pool.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query latest price dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]time.Time, len(tickers))
	for rows.Next() {
		var ticker string
		var date time.Time
		if err := rows.Scan(&ticker, &date); err != nil {
			return nil, fmt.Errorf("scan latest price date: %w", err)
		}
		dates[ticker] = date
	}
	return dates, rows.Err()
}

// LatestByTickers returns the most recent price point per ticker
func (r *PriceRepository) LatestByTickers(ctx context.Context, tickers []string) (map[string]contracts.PricePoint, error) {
	query := `
		SELECT DISTINCT ON (ticker)
			ticker, trade_date, open_price, high_price, low_price, close_price, adj_close, volume
		FROM data.price_points
		WHERE ticker = ANY($1)
		ORDER BY ticker, trade_date DESC
	`

	rows, err := r.pool.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query latest prices: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]contracts.PricePoint, len(tickers))
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Ticker, &p.TradeDate, &p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan latest price: %w", err)
		}
		latest[p.Ticker] = p
	}
	return latest, rows.Err()
}

// RecentBars returns up to limit bars for one ticker, oldest first
func (r *PriceRepository) RecentBars(ctx context.Context, ticker string, limit int) ([]contracts.PricePoint, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price, adj_close, volume
		FROM data.price_points
		WHERE ticker = $1
		ORDER BY trade_date DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent bars: %w", err)
	}
	defer rows.Close()

	var bars []contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Ticker, &p.TradeDate, &p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	// Reverse to oldest-first for indicator computation downstream
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	return bars, nil
}

// UpsertBatch writes points keyed by (ticker, trade_date)
func (r *PriceRepository) UpsertBatch(ctx context.Context, points []contracts.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO data.price_points
			(ticker, trade_date, open_price, high_price, low_price, close_price, adj_close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open_price = EXCLUDED.open_price,
			high_price = EXCLUDED.high_price,
			low_price = EXCLUDED.low_price,
			close_price = EXCLUDED.close_price,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume
	`

	for _, p := range points {
		batch.Queue(query, p.Ticker, p.TradeDate, p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range points {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert price point: %w", err)
		}
	}
	return nil
}
