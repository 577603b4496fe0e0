package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IndexRepository implements contracts.IndexRepository.
// One row per index holds the constituent list and its refresh timestamp.
type IndexRepository struct {
	pool *pgxpool.Pool
}

// NewIndexRepository creates a new index repository
func NewIndexRepository(pool *pgxpool.Pool) *IndexRepository {
	return &IndexRepository{pool: pool}
}

// CachedTickers returns the cached constituents and refresh timestamp.
// A cold cache returns an empty slice and zero time, not an error.
func (r *IndexRepository) CachedTickers(ctx context.Context, index string) ([]string, time.Time, error) {
	query := `
		SELECT tickers, refreshed_at
		FROM data.index_tickers
		WHERE index_name = $1
	`

	var tickers []string
	var refreshedAt time.Time
	err := r.pool.QueryRow(ctx, query, index).Scan(&tickers, &refreshedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No row yet: cold cache
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("query index tickers: %w", err)
	}
	return tickers, refreshedAt, nil
}

// SaveTickers upserts the constituent list for an index
func (r *IndexRepository) SaveTickers(ctx context.Context, index string, tickers []string) error {
	query := `
		INSERT INTO data.index_tickers (index_name, tickers, refreshed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (index_name) DO UPDATE SET
			tickers = EXCLUDED.tickers,
			refreshed_at = EXCLUDED.refreshed_at
	`

	if _, err := r.pool.Exec(ctx, query, index, tickers, time.Now()); err != nil {
		return fmt.Errorf("save index tickers: %w", err)
	}
	return nil
}
