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

// ScanConfigRepository implements contracts.ScanConfigRepository.
// Weights and enabled sets are stored as jsonb; scalar thresholds as columns.
type ScanConfigRepository struct {
	pool *pgxpool.Pool
}

// NewScanConfigRepository creates a new scan config repository
func NewScanConfigRepository(pool *pgxpool.Pool) *ScanConfigRepository {
	return &ScanConfigRepository{pool: pool}
}

// configSets groups the jsonb-encoded collection fields
type configSets struct {
	Weights           map[contracts.Category]contracts.CategoryWeights `json:"weights"`
	EnabledCategories []contracts.Category                             `json:"enabled_categories"`
	EnabledIndexes    []string                                         `json:"enabled_indexes"`
	EnabledSources    []contracts.SentimentSource                      `json:"enabled_sources"`
	EnabledIndicators []string                                         `json:"enabled_indicators"`
	EnabledPatterns   []string                                         `json:"enabled_patterns"`
}

// GetDefault returns the single configuration marked default.
// Exactly one row has is_default = true; its absence is fatal for a run.
func (r *ScanConfigRepository) GetDefault(ctx context.Context) (*contracts.ScanConfig, error) {
	query := `
		SELECT id, name, version, is_default, updated_at,
			min_price, max_price, min_market_cap, max_pe_ratio,
			max_debt_to_equity, min_profit_margin, min_volume,
			min_sentiment_samples, use_ml_scoring, sets
		FROM scan.configs
		WHERE is_default = TRUE
		LIMIT 1
	`

	var cfg contracts.ScanConfig
	var sets []byte
	err := r.pool.QueryRow(ctx, query).Scan(
		&cfg.ID, &cfg.Name, &cfg.Version, &cfg.IsDefault, &cfg.UpdatedAt,
		&cfg.MinPrice, &cfg.MaxPrice, &cfg.MinMarketCap, &cfg.MaxPERatio,
		&cfg.MaxDebtToEquity, &cfg.MinProfitMargin, &cfg.MinVolume,
		&cfg.MinSentimentSamples, &cfg.UseMLScoring, &sets,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrNoDefaultConfig
		}
		return nil, fmt.Errorf("query default config: %w", err)
	}

	if len(sets) > 0 {
		var s configSets
		if err := json.Unmarshal(sets, &s); err != nil {
			return nil, fmt.Errorf("decode config sets: %w", err)
		}
		cfg.Weights = s.Weights
		cfg.EnabledCategories = s.EnabledCategories
		cfg.EnabledIndexes = s.EnabledIndexes
		cfg.EnabledSources = s.EnabledSources
		cfg.EnabledIndicators = s.EnabledIndicators
		cfg.EnabledPatterns = s.EnabledPatterns
	}

	return &cfg, nil
}
