package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jdemuth17/market-analysis/internal/contracts"
)

// ReportRepository implements contracts.ReportRepository.
// Reports are append-once: a report is written in one transaction and
// never mutated afterward.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Save writes the report and its entries in a single transaction
func (r *ReportRepository) Save(ctx context.Context, report *contracts.ScanReport) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin report tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insertReport := `
		INSERT INTO scan.reports
			(report_date, category, generated_at, scoring_method, config_snapshot,
			 total_stocks_scanned, total_matches)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err = tx.QueryRow(ctx, insertReport,
		report.ReportDate, report.Category, report.GeneratedAt, report.ScoringMethod,
		report.ConfigSnapshot, report.TotalStocksScanned, report.TotalMatches,
	).Scan(&report.ID)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	insertEntry := `
		INSERT INTO scan.report_entries
			(report_id, rank, ticker, composite_score, technical_score,
			 fundamental_score, sentiment_score, top_pattern, top_direction, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, e := range report.Entries {
		reasoning, err := json.Marshal(e.Reasoning)
		if err != nil {
			return fmt.Errorf("encode reasoning: %w", err)
		}
		_, err = tx.Exec(ctx, insertEntry,
			report.ID, e.Rank, e.Ticker, e.CompositeScore, e.TechnicalScore,
			e.FundamentalScore, e.SentimentScore, e.TopPattern, e.TopDirection, reasoning,
		)
		if err != nil {
			return fmt.Errorf("insert report entry: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// LatestByCategory returns the most recent report for a category
func (r *ReportRepository) LatestByCategory(ctx context.Context, category contracts.Category) (*contracts.ScanReport, error) {
	query := `
		SELECT id, report_date, category, generated_at, scoring_method,
			config_snapshot, total_stocks_scanned, total_matches
		FROM scan.reports
		WHERE category = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`

	var report contracts.ScanReport
	err := r.pool.QueryRow(ctx, query, category).Scan(
		&report.ID, &report.ReportDate, &report.Category, &report.GeneratedAt,
		&report.ScoringMethod, &report.ConfigSnapshot,
		&report.TotalStocksScanned, &report.TotalMatches,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query latest report: %w", err)
	}

	entryQuery := `
		SELECT rank, ticker, composite_score, technical_score,
			fundamental_score, sentiment_score, top_pattern, top_direction, reasoning
		FROM scan.report_entries
		WHERE report_id = $1
		ORDER BY rank ASC
	`

	rows, err := r.pool.Query(ctx, entryQuery, report.ID)
	if err != nil {
		return nil, fmt.Errorf("query report entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e contracts.ReportEntry
		var reasoning []byte
		err := rows.Scan(
			&e.Rank, &e.Ticker, &e.CompositeScore, &e.TechnicalScore,
			&e.FundamentalScore, &e.SentimentScore, &e.TopPattern, &e.TopDirection, &reasoning,
		)
		if err != nil {
			return nil, fmt.Errorf("scan report entry: %w", err)
		}
		if len(reasoning) > 0 {
			if err := json.Unmarshal(reasoning, &e.Reasoning); err != nil {
				return nil, fmt.Errorf("decode reasoning: %w", err)
			}
		}
		report.Entries = append(report.Entries, e)
	}
	return &report, rows.Err()
}
