package contracts

// ScoreMethod tags which scoring path produced a result. The method is
// chosen once per run, never per ticker, so reports are never mixed-method.
type ScoreMethod string

const (
	MethodLegacy     ScoreMethod = "legacy"
	MethodMLEnsemble ScoreMethod = "ml_ensemble"
)

// MinCompositeScore is the inclusion threshold: candidates scoring below
// this are excluded from the category report.
const MinCompositeScore = 30.0

// ScoreResult is the composite score and component breakdown for one
// (ticker, category) pair.
type ScoreResult struct {
	Ticker   string   `json:"ticker"`
	Category Category `json:"category"`

	Composite   float64 `json:"composite"`
	Technical   float64 `json:"technical"`
	Fundamental float64 `json:"fundamental"`
	Sentiment   float64 `json:"sentiment"`

	TopPattern   string          `json:"top_pattern,omitempty"`
	TopDirection SignalDirection `json:"top_direction,omitempty"`

	Reasoning ScoreReasoning `json:"reasoning"`
}

// ScoreReasoning is a two-shape variant: exactly one of Legacy or ML is
// set, matching the Method tag.
type ScoreReasoning struct {
	Method ScoreMethod      `json:"method"`
	Legacy *LegacyReasoning `json:"legacy,omitempty"`
	ML     *MLReasoning     `json:"ml,omitempty"`
}

// LegacyReasoning explains a weighted-sum score
type LegacyReasoning struct {
	MatchedCriteria []string `json:"matched_criteria"`
	SignalCount     int      `json:"signal_count"`
	BullishCount    int      `json:"bullish_count"`
	BearishCount    int      `json:"bearish_count"`
	BestConfidence  float64  `json:"best_confidence"`
	SampleSize      int      `json:"sentiment_sample_size"`
}

// MLReasoning explains an ensemble score
type MLReasoning struct {
	EnsembleScore       float64         `json:"ensemble_score"`
	CrossSectionalScore float64         `json:"cross_sectional_score"`
	TemporalScore       *float64        `json:"temporal_score,omitempty"`
	Confidence          float64         `json:"confidence"`
	TopFeatures         []FeatureImpact `json:"top_features"`
}

// FeatureImpact is one ranked feature contribution with signed point impact
type FeatureImpact struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
	Value   float64 `json:"value"`
}
