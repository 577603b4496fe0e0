package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdemuth17/market-analysis/internal/contracts"
)

// SentimentRepository implements contracts.SentimentRepository
type SentimentRepository struct {
	pool *pgxpool.Pool
}

// NewSentimentRepository creates a new sentiment repository
func NewSentimentRepository(pool *pgxpool.Pool) *SentimentRepository {
	return &SentimentRepository{pool: pool}
}

// LatestDates returns the most recent analysis date per ticker
func (r *SentimentRepository) LatestDates(ctx context.Context, tickers []string) (map[string]time.Time, error) {
	query := `
		SELECT ticker, MAX(analysis_date)
		FROM data.sentiment_scores
		WHERE ticker = ANY($1)
		GROUP BY ticker
	`

	rows, err := r.pool.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query latest sentiment dates: %w", err)
	}
	defer rows.Close()

	dates := make(map[string]time.Time, len(tickers))
	for rows.Next() {
		var ticker string
		var date time.Time
		if err := rows.Scan(&ticker, &date); err != nil {
			return nil, fmt.Errorf("scan latest sentiment date: %w", err)
		}
		dates[ticker] = date
	}
	return dates, rows.Err()
}

// LatestByTickers returns the most recent score per (ticker, source)
func (r *SentimentRepository) LatestByTickers(ctx context.Context, tickers []string) (map[string][]contracts.SentimentScore, error) {
	query := `
		SELECT DISTINCT ON (ticker, source)
			ticker, analysis_date, source, positive, negative, neutral, sample_size
		FROM data.sentiment_scores
		WHERE ticker = ANY($1)
		ORDER BY ticker, source, analysis_date DESC
	`

	rows, err := r.pool.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query latest sentiment: %w", err)
	}
	defer rows.Close()

	latest := make(map[string][]contracts.SentimentScore)
	for rows.Next() {
		var s contracts.SentimentScore
		err := rows.Scan(&s.Ticker, &s.AnalysisDate, &s.Source, &s.Positive, &s.Negative, &s.Neutral, &s.SampleSize)
		if err != nil {
			return nil, fmt.Errorf("scan sentiment score: %w", err)
		}
		latest[s.Ticker] = append(latest[s.Ticker], s)
	}
	return latest, rows.Err()
}

// AppendBatch appends scores; one score exists per (ticker, date, source)
func (r *SentimentRepository) AppendBatch(ctx context.Context, scores []contracts.SentimentScore) error {
	if len(scores) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO data.sentiment_scores
			(ticker, analysis_date, source, positive, negative, neutral, sample_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, analysis_date, source) DO NOTHING
	`

	for _, s := range scores {
		batch.Queue(query, s.Ticker, s.AnalysisDate, s.Source, s.Positive, s.Negative, s.Neutral, s.SampleSize)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range scores {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("append sentiment score: %w", err)
		}
	}
	return nil
}
