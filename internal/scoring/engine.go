package scoring

import (
	"context"
	"math"
	"time"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/internal/external/ml"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// MLPredictor is the slice of the ML service the engine uses
type MLPredictor interface {
	Predict(ctx context.Context, tickers []string, categories []contracts.Category) (*ml.PredictResponse, error)
	HealthCheck(ctx context.Context) error
}

// Inputs is the per-ticker evidence the legacy path scores from.
// Bulk-loaded by the caller before fan-in; the engine never queries.
type Inputs struct {
	Signals     []contracts.TechnicalSignal
	Fundamental *contracts.FundamentalSnapshot
	Sentiments  []contracts.SentimentScore
}

// Engine produces composite scores for (ticker, category) pairs.
// ⭐ SSOT: method selection happens once per run in SelectMethod, never
// per ticker, so a report is never mixed-method.
type Engine struct {
	predictor MLPredictor
	logger    *logger.Logger
}

func NewEngine(predictor MLPredictor, log *logger.Logger) *Engine {
	return &Engine{predictor: predictor, logger: log}
}

// SelectMethod decides the scoring path for the whole run. ML scoring
// requires both the config toggle and a passing ML health check; any
// failure falls back to legacy with a logged reason.
func (e *Engine) SelectMethod(ctx context.Context, cfg *contracts.ScanConfig) contracts.ScoreMethod {
	if !cfg.UseMLScoring {
		return contracts.MethodLegacy
	}
	if e.predictor == nil {
		e.logger.Warn("ML scoring enabled but no ML service configured, falling back to legacy")
		return contracts.MethodLegacy
	}
	if err := e.predictor.HealthCheck(ctx); err != nil {
		e.logger.WithError(err).Warn("ML service unhealthy, falling back to legacy scoring for this run")
		return contracts.MethodLegacy
	}
	return contracts.MethodMLEnsemble
}

// ScoreLegacy computes the weighted-sum composite for one pair
func (e *Engine) ScoreLegacy(ticker string, cat contracts.Category, cfg *contracts.ScanConfig, in Inputs, now time.Time) contracts.ScoreResult {
	weights := cfg.WeightsFor(cat)
	if sum := weights.Sum(); math.Abs(sum-1.0) > 0.01 {
		e.logger.WithFields(map[string]interface{}{
			"category": cat,
			"sum":      sum,
		}).Warn("Category weights do not sum to 1, scores will be skewed")
	}

	reasons := &contracts.LegacyReasoning{}
	tech := technicalScore(cat, in.Signals, now, reasons)
	fund := fundamentalScore(cat, in.Fundamental, reasons)
	sent := sentimentScore(in.Sentiments, cfg.MinSentimentSamples, reasons)

	composite := clamp(tech*weights.Technical + fund*weights.Fundamental + sent*weights.Sentiment)

	result := contracts.ScoreResult{
		Ticker:      ticker,
		Category:    cat,
		Composite:   composite,
		Technical:   tech,
		Fundamental: fund,
		Sentiment:   sent,
		Reasoning: contracts.ScoreReasoning{
			Method: contracts.MethodLegacy,
			Legacy: reasons,
		},
	}
	if best := bestSignal(in.Signals, now); best != nil {
		result.TopPattern = best.PatternType
		result.TopDirection = best.Direction
	}
	return result
}

// ScoreML maps one ensemble prediction onto the component slots: the
// technical slot holds the cross-sectional score, the fundamental slot
// holds the temporal score (or cross-sectional if absent), the
// sentiment slot holds confidence scaled to 0-100.
func (e *Engine) ScoreML(pred ml.StockPrediction, in Inputs, now time.Time) contracts.ScoreResult {
	temporal := pred.XGBoostScore
	if pred.LSTMScore != nil {
		temporal = *pred.LSTMScore
	}

	result := contracts.ScoreResult{
		Ticker:      pred.Ticker,
		Category:    contracts.Category(pred.Category),
		Composite:   clamp(pred.EnsembleScore),
		Technical:   clamp(pred.XGBoostScore),
		Fundamental: clamp(temporal),
		Sentiment:   clamp(pred.Confidence * 100),
		Reasoning: contracts.ScoreReasoning{
			Method: contracts.MethodMLEnsemble,
			ML: &contracts.MLReasoning{
				EnsembleScore:       pred.EnsembleScore,
				CrossSectionalScore: pred.XGBoostScore,
				TemporalScore:       pred.LSTMScore,
				Confidence:          pred.Confidence,
				TopFeatures:         pred.TopFeatures,
			},
		},
	}
	if best := bestSignal(in.Signals, now); best != nil {
		result.TopPattern = best.PatternType
		result.TopDirection = best.Direction
	}
	return result
}

// Predict fetches ensemble predictions for the ML path
func (e *Engine) Predict(ctx context.Context, tickers []string, categories []contracts.Category) (*ml.PredictResponse, error) {
	return e.predictor.Predict(ctx, tickers, categories)
}

// bestSignal returns the highest-confidence signal in the trailing window
func bestSignal(signals []contracts.TechnicalSignal, now time.Time) *contracts.TechnicalSignal {
	var best *contracts.TechnicalSignal
	for i := range signals {
		s := &signals[i]
		if now.Sub(s.DetectedDate) > signalWindow {
			continue
		}
		if best == nil || s.Confidence > best.Confidence {
			best = s
		}
	}
	return best
}
