package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/internal/external/ml"
	"github.com/jdemuth17/market-analysis/pkg/config"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

type fakePredictor struct {
	healthErr  error
	predictErr error
	resp       *ml.PredictResponse
}

func (f *fakePredictor) HealthCheck(ctx context.Context) error {
	return f.healthErr
}

func (f *fakePredictor) Predict(ctx context.Context, tickers []string, categories []contracts.Category) (*ml.PredictResponse, error) {
	if f.predictErr != nil {
		return nil, f.predictErr
	}
	return f.resp, nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

func testConfig() *contracts.ScanConfig {
	return &contracts.ScanConfig{
		Name:                "default",
		MinSentimentSamples: 5,
		Weights:             contracts.DefaultWeights(),
	}
}

func TestScoreLegacy_NeutralDefaults(t *testing.T) {
	// no signals, no fundamentals, no sentiment under 0.40/0.35/0.25
	// weights: 20*0.40 + 30*0.35 + 50*0.25 = 31.0
	engine := NewEngine(nil, testLogger())
	now := time.Now()

	res := engine.ScoreLegacy("AAPL", contracts.CategoryShortTermHold, testConfig(), Inputs{}, now)

	assert.InDelta(t, 20.0, res.Technical, 0.001)
	assert.InDelta(t, 30.0, res.Fundamental, 0.001)
	assert.InDelta(t, 50.0, res.Sentiment, 0.001)
	assert.InDelta(t, 31.0, res.Composite, 0.001)
	assert.GreaterOrEqual(t, res.Composite, contracts.MinCompositeScore, "neutral defaults clear the threshold")
	assert.Equal(t, contracts.MethodLegacy, res.Reasoning.Method)
	require.NotNil(t, res.Reasoning.Legacy)
	assert.Nil(t, res.Reasoning.ML)
}

func TestScoreLegacy_BoundaryExclusion(t *testing.T) {
	// lowering a sub-score via negative sentiment drops the composite
	// below the inclusion threshold
	engine := NewEngine(nil, testLogger())
	now := time.Now()

	in := Inputs{
		Sentiments: []contracts.SentimentScore{
			{Ticker: "AAPL", Source: contracts.SourceNews, Positive: 0.05, Negative: 0.90, Neutral: 0.05, SampleSize: 40},
		},
	}
	res := engine.ScoreLegacy("AAPL", contracts.CategoryShortTermHold, testConfig(), in, now)

	assert.Less(t, res.Sentiment, 50.0)
	assert.Less(t, res.Composite, contracts.MinCompositeScore)
}

func TestScoreLegacy_AlwaysClamped(t *testing.T) {
	engine := NewEngine(nil, testLogger())
	now := time.Now()
	cfg := testConfig()

	strong := Inputs{
		Signals: []contracts.TechnicalSignal{
			{Ticker: "NVDA", DetectedDate: now, PatternType: "cup_and_handle", Direction: contracts.DirectionBullish, Confidence: 99, Status: contracts.StatusConfirmed},
			{Ticker: "NVDA", DetectedDate: now, PatternType: "breakout", Direction: contracts.DirectionBullish, Confidence: 95, Status: contracts.StatusConfirmed},
			{Ticker: "NVDA", DetectedDate: now, PatternType: "ascending_triangle", Direction: contracts.DirectionBullish, Confidence: 90, Status: contracts.StatusForming},
		},
		Fundamental: &contracts.FundamentalSnapshot{
			Ticker: "NVDA", ValueScore: 100, QualityScore: 100, GrowthScore: 100, SafetyScore: 100, CompositeScore: 100,
		},
		Sentiments: []contracts.SentimentScore{
			{Ticker: "NVDA", Source: contracts.SourceNews, Positive: 1.0, SampleSize: 100},
		},
	}

	for _, cat := range contracts.AllCategories {
		res := engine.ScoreLegacy("NVDA", cat, cfg, strong, now)
		assert.LessOrEqual(t, res.Composite, 100.0, "category %s", cat)
		assert.GreaterOrEqual(t, res.Composite, 0.0, "category %s", cat)
		assert.LessOrEqual(t, res.Technical, 100.0, "category %s", cat)
	}
}

func TestScoreLegacy_SignalsOlderThanWindowIgnored(t *testing.T) {
	engine := NewEngine(nil, testLogger())
	now := time.Now()

	in := Inputs{
		Signals: []contracts.TechnicalSignal{
			{Ticker: "AAPL", DetectedDate: now.AddDate(0, 0, -10), PatternType: "double_bottom", Direction: contracts.DirectionBullish, Confidence: 90},
		},
	}
	res := engine.ScoreLegacy("AAPL", contracts.CategorySwingTrade, testConfig(), in, now)

	assert.InDelta(t, 20.0, res.Technical, 0.001, "signals outside the 7-day window score neutral")
	assert.Empty(t, res.TopPattern)
}

func TestScoreLegacy_FundamentalReweighting(t *testing.T) {
	engine := NewEngine(nil, testLogger())
	now := time.Now()
	cfg := testConfig()

	snap := &contracts.FundamentalSnapshot{
		Ticker:         "KO",
		ValueScore:     80,
		QualityScore:   60,
		GrowthScore:    40,
		SafetyScore:    90,
		CompositeScore: 70,
	}
	in := Inputs{Fundamental: snap}

	day := engine.ScoreLegacy("KO", contracts.CategoryDayTrade, cfg, in, now)
	assert.InDelta(t, 50.0, day.Fundamental, 0.001, "day trade ignores fundamentals")

	swing := engine.ScoreLegacy("KO", contracts.CategorySwingTrade, cfg, in, now)
	assert.InDelta(t, 30+70*0.7, swing.Fundamental, 0.001)

	short := engine.ScoreLegacy("KO", contracts.CategoryShortTermHold, cfg, in, now)
	assert.InDelta(t, 70.0, short.Fundamental, 0.001)

	long := engine.ScoreLegacy("KO", contracts.CategoryLongTermHold, cfg, in, now)
	want := 0.30*80 + 0.25*60 + 0.20*40 + 0.25*90
	assert.InDelta(t, want, long.Fundamental, 0.001)
}

func TestScoreLegacy_SentimentBelowMinSamplesIsNeutral(t *testing.T) {
	engine := NewEngine(nil, testLogger())
	now := time.Now()

	in := Inputs{
		Sentiments: []contracts.SentimentScore{
			{Ticker: "AAPL", Source: contracts.SourceForum, Positive: 0.9, Negative: 0.05, SampleSize: 2},
		},
	}
	res := engine.ScoreLegacy("AAPL", contracts.CategoryShortTermHold, testConfig(), in, now)
	assert.InDelta(t, 50.0, res.Sentiment, 0.001)
}

func TestScoreML_SlotMapping(t *testing.T) {
	engine := NewEngine(nil, testLogger())
	now := time.Now()

	lstm := 72.0
	pred := ml.StockPrediction{
		Ticker:        "AAPL",
		Category:      "swing_trade",
		XGBoostScore:  64.0,
		LSTMScore:     &lstm,
		EnsembleScore: 68.5,
		Confidence:    0.82,
	}
	res := engine.ScoreML(pred, Inputs{}, now)

	assert.Equal(t, contracts.CategorySwingTrade, res.Category)
	assert.InDelta(t, 68.5, res.Composite, 0.001)
	assert.InDelta(t, 64.0, res.Technical, 0.001, "technical slot holds the cross-sectional score")
	assert.InDelta(t, 72.0, res.Fundamental, 0.001, "fundamental slot holds the temporal score")
	assert.InDelta(t, 82.0, res.Sentiment, 0.001, "sentiment slot holds confidence x 100")
	assert.Equal(t, contracts.MethodMLEnsemble, res.Reasoning.Method)
	require.NotNil(t, res.Reasoning.ML)
	assert.Nil(t, res.Reasoning.Legacy)

	// temporal absent: fundamental slot falls back to cross-sectional
	pred.LSTMScore = nil
	res = engine.ScoreML(pred, Inputs{}, now)
	assert.InDelta(t, 64.0, res.Fundamental, 0.001)
}

func TestSelectMethod(t *testing.T) {
	log := testLogger()
	ctx := context.Background()

	cfg := testConfig()
	cfg.UseMLScoring = false
	assert.Equal(t, contracts.MethodLegacy, NewEngine(&fakePredictor{}, log).SelectMethod(ctx, cfg))

	cfg.UseMLScoring = true
	assert.Equal(t, contracts.MethodMLEnsemble, NewEngine(&fakePredictor{}, log).SelectMethod(ctx, cfg))

	unhealthy := &fakePredictor{healthErr: errors.New("models not loaded")}
	assert.Equal(t, contracts.MethodLegacy, NewEngine(unhealthy, log).SelectMethod(ctx, cfg),
		"unhealthy ML service falls back to legacy for the whole run")

	assert.Equal(t, contracts.MethodLegacy, NewEngine(nil, log).SelectMethod(ctx, cfg))
}
