package data

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdemuth17/market-analysis/internal/contracts"
)

// TechnicalRepository implements contracts.TechnicalRepository
type TechnicalRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicalRepository creates a new technical signal repository
func NewTechnicalRepository(pool *pgxpool.Pool) *TechnicalRepository {
	return &TechnicalRepository{pool: pool}
}

// LatestDates returns the most recent detection date per ticker
func (r *TechnicalRepository) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	query := `
		SELECT ticker, MAX(detected_date)
		FROM data.technical_signals
		WHERE ticker = ANY($1)
		GROUP BY ticker
	`

	rows, err := r.pool.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query latest signal dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]time.Time, len(tickers))
	for rows.Next() {
		var ticker string
		var date time.Time
		if err := rows.Scan(&ticker, &date); err != nil {
			return nil, fmt.Errorf("scan latest signal date: %w", err)
		}
		dates[ticker] = date
	}
	return dates, rows.Err()
}

// RecentSignals returns signals detected on or after since, grouped by ticker
func (r *TechnicalRepository) RecentSignals(ctx context.Context, tickers []string, since time.Time) (map[string][]contracts.TechnicalSignal, error) {
	query := `
		SELECT ticker, detected_date, pattern_type, direction, confidence,
			start_date, end_date, status, key_levels
		FROM data.technical_signals
		WHERE ticker = ANY($1) AND detected_date >= $2
		ORDER BY ticker, detected_date DESC, confidence DESC
	`

	rows, err := r.pool.Query(ctx, query, tickers, since)
	if err != nil {
		return nil, fmt.Errorf("query recent signals: %w", err)
	}
	defer rows.Close()

	signals := make(map[string][]contracts.TechnicalSignal)
	for rows.Next() {
		var s contracts.TechnicalSignal
		var keyLevels []byte
		err := rows.Scan(
			&s.Ticker, &s.DetectedDate, &s.PatternType, &s.Direction, &s.Confidence,
			&s.StartDate, &s.EndDate, &s.Status, &keyLevels,
		)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		if len(keyLevels) > 0 {
			if err := json.Unmarshal(keyLevels, &s.KeyLevels); err != nil {
				return nil, fmt.Errorf("decode key levels: %w", err)
			}
		}
		signals[s.Ticker] = append(signals[s.Ticker], s)
	}
	return signals, rows.Err()
}

// AppendBatch appends detected signals
func (r *TechnicalRepository) AppendBatch(ctx context.Context, signals []contracts.TechnicalSignal) error {
	if len(signals) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO data.technical_signals
			(ticker, detected_date, pattern_type, direction, confidence,
			 start_date, end_date, status, key_levels)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, s := range signals {
		keyLevels, err := json.Marshal(s.KeyLevels)
		if err != nil {
			return fmt.Errorf("encode key levels: %w", err)
		}
		batch.Queue(query,
			s.Ticker, s.DetectedDate, s.PatternType, s.Direction, s.Confidence,
			s.StartDate, s.EndDate, s.Status, keyLevels,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range signals {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("append technical signal: %w", err)
		}
	}
	return nil
}
