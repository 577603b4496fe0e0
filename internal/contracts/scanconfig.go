package contracts

import "time"

// CategoryWeights is the weight triple applied to the three component scores.
// The triple need not sum to 1, but the defaults do.
type CategoryWeights struct {
	Technical   float64 `json:"technical"`
	Fundamental float64 `json:"fundamental"`
	Sentiment   float64 `json:"sentiment"`
}

// Sum returns the total of the three weights
func (w CategoryWeights) Sum() float64 {
	return w.Technical + w.Fundamental + w.Sentiment
}

// DefaultWeights returns the conventional weight triples per category
func DefaultWeights() map[Category]CategoryWeights {
	return map[Category]CategoryWeights{
		CategoryDayTrade:      {Technical: 0.60, Fundamental: 0.10, Sentiment: 0.30},
		CategorySwingTrade:    {Technical: 0.50, Fundamental: 0.25, Sentiment: 0.25},
		CategoryShortTermHold: {Technical: 0.40, Fundamental: 0.35, Sentiment: 0.25},
		CategoryLongTermHold:  {Technical: 0.20, Fundamental: 0.60, Sentiment: 0.20},
	}
}

// ScanConfig is the named, versioned parameter set a run binds to at start.
// Exactly one configuration is marked default at any time.
type ScanConfig struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	IsDefault bool      `json:"is_default"`
	UpdatedAt time.Time `json:"updated_at"`

	// Hard filters
	MinPrice        float64 `json:"min_price"`
	MaxPrice        float64 `json:"max_price"`
	MinMarketCap    float64 `json:"min_market_cap"`
	MaxPERatio      float64 `json:"max_pe_ratio"`
	MaxDebtToEquity float64 `json:"max_debt_to_equity"`
	MinProfitMargin float64 `json:"min_profit_margin"`
	MinVolume       int64   `json:"min_volume"`

	// Sentiment
	MinSentimentSamples int `json:"min_sentiment_samples"`

	// Per-category weights
	Weights map[Category]CategoryWeights `json:"weights"`

	// Enabled sets
	EnabledCategories []Category        `json:"enabled_categories"`
	EnabledIndexes    []string          `json:"enabled_indexes"` // e.g. sp500, nasdaq100
	EnabledSources    []SentimentSource `json:"enabled_sources"`
	EnabledIndicators []string          `json:"enabled_indicators"`
	EnabledPatterns   []string          `json:"enabled_patterns"`

	// ML ensemble scoring toggle
	UseMLScoring bool `json:"use_ml_scoring"`
}

// WeightsFor returns the weight triple for a category, falling back to the
// conventional defaults when the config carries none.
func (c *ScanConfig) WeightsFor(cat Category) CategoryWeights {
	if w, ok := c.Weights[cat]; ok {
		return w
	}
	return DefaultWeights()[cat]
}

// CategoryEnabled reports whether the given category is enabled.
// An empty set means all categories are enabled.
func (c *ScanConfig) CategoryEnabled(cat Category) bool {
	if len(c.EnabledCategories) == 0 {
		return true
	}
	for _, e := range c.EnabledCategories {
		if e == cat {
			return true
		}
	}
	return false
}
