package selection

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/internal/external/ml"
	"github.com/jdemuth17/market-analysis/internal/scoring"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// maxReportEntries caps each category report at the top candidates
const maxReportEntries = 50

// mlPredictBatchSize respects the ML service's per-request ticker cap
const mlPredictBatchSize = 100

// Ranker scores survivors, ranks them and persists one immutable
// report per enabled category.
type Ranker struct {
	engine  *scoring.Engine
	reports contracts.ReportRepository
	logger  *logger.Logger
}

func NewRanker(engine *scoring.Engine, reports contracts.ReportRepository, log *logger.Logger) *Ranker {
	return &Ranker{engine: engine, reports: reports, logger: log}
}

// RankAndReport builds and persists per-category reports from screened
// evidence. The scoring method has already been selected for the run.
func (r *Ranker) RankAndReport(
	ctx context.Context,
	ev *Evidence,
	cfg *contracts.ScanConfig,
	method contracts.ScoreMethod,
	universeSize int,
	now time.Time,
) ([]*contracts.ScanReport, error) {
	categories := enabledCategories(cfg)

	var predictions map[string]map[contracts.Category]ml.StockPrediction
	if method == contracts.MethodMLEnsemble {
		var err error
		predictions, err = r.predictAll(ctx, ev.Tickers, categories)
		if err != nil {
			// whole-run fallback, never mixed-method
			r.logger.WithError(err).Warn("ML prediction failed, falling back to legacy scoring for this run")
			method = contracts.MethodLegacy
		}
	}

	snapshot, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	var reports []*contracts.ScanReport
	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		var results []contracts.ScoreResult
		for _, ticker := range ev.Tickers {
			in := ev.Inputs[ticker]
			var res contracts.ScoreResult
			if method == contracts.MethodMLEnsemble {
				pred, ok := predictions[ticker][cat]
				if !ok {
					continue
				}
				res = r.engine.ScoreML(pred, in, now)
			} else {
				res = r.engine.ScoreLegacy(ticker, cat, cfg, in, now)
			}
			if res.Composite < contracts.MinCompositeScore {
				continue
			}
			results = append(results, res)
		}

		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Composite > results[j].Composite
		})
		if len(results) > maxReportEntries {
			results = results[:maxReportEntries]
		}

		report := &contracts.ScanReport{
			ReportDate:         now,
			Category:           cat,
			GeneratedAt:        time.Now(),
			ScoringMethod:      method,
			ConfigSnapshot:     snapshot,
			TotalStocksScanned: universeSize,
			TotalMatches:       len(results),
		}
		for i, res := range results {
			report.Entries = append(report.Entries, contracts.ReportEntry{
				Ticker:           res.Ticker,
				Rank:             i + 1,
				CompositeScore:   res.Composite,
				TechnicalScore:   res.Technical,
				FundamentalScore: res.Fundamental,
				SentimentScore:   res.Sentiment,
				TopPattern:       res.TopPattern,
				TopDirection:     res.TopDirection,
				Reasoning:        res.Reasoning,
			})
		}

		if err := r.reports.Save(ctx, report); err != nil {
			return reports, err
		}
		reports = append(reports, report)

		r.logger.WithFields(map[string]interface{}{
			"category": cat,
			"matches":  report.TotalMatches,
			"method":   method,
		}).Info("Category report generated")
	}
	return reports, nil
}

// predictAll fetches ensemble predictions in capped batches and indexes
// them by (ticker, category).
func (r *Ranker) predictAll(ctx context.Context, tickers []string, categories []contracts.Category) (map[string]map[contracts.Category]ml.StockPrediction, error) {
	out := make(map[string]map[contracts.Category]ml.StockPrediction)
	for start := 0; start < len(tickers); start += mlPredictBatchSize {
		end := start + mlPredictBatchSize
		if end > len(tickers) {
			end = len(tickers)
		}
		resp, err := r.engine.Predict(ctx, tickers[start:end], categories)
		if err != nil {
			return nil, err
		}
		for _, p := range resp.Predictions {
			if out[p.Ticker] == nil {
				out[p.Ticker] = make(map[contracts.Category]ml.StockPrediction)
			}
			out[p.Ticker][contracts.Category(p.Category)] = p
		}
	}
	return out, nil
}

func enabledCategories(cfg *contracts.ScanConfig) []contracts.Category {
	var cats []contracts.Category
	for _, cat := range contracts.AllCategories {
		if cfg.CategoryEnabled(cat) {
			cats = append(cats, cat)
		}
	}
	return cats
}
