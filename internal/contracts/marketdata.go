package contracts

import "time"

// PricePoint represents one daily OHLCV bar for a ticker.
// At most one point exists per (ticker, trade date).
type PricePoint struct {
	Ticker    string    `json:"ticker"`
	TradeDate time.Time `json:"trade_date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	AdjClose  float64   `json:"adj_close"`
	Volume    int64     `json:"volume"`
}

// FundamentalSnapshot represents one day's fundamental picture of a ticker.
// Ratios are sparse: the upstream service omits whatever it could not fetch.
type FundamentalSnapshot struct {
	Ticker       string    `json:"ticker"`
	SnapshotDate time.Time `json:"snapshot_date"`

	// Ratios
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	ForwardPE      *float64 `json:"forward_pe,omitempty"`
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`
	ProfitMargin   *float64 `json:"profit_margin,omitempty"`
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"`
	MarketCap      *float64 `json:"market_cap,omitempty"`
	CurrentPrice   *float64 `json:"current_price,omitempty"`

	// Sub-scores and composite, each 0-100
	ValueScore     float64 `json:"value_score"`
	QualityScore   float64 `json:"quality_score"`
	GrowthScore    float64 `json:"growth_score"`
	SafetyScore    float64 `json:"safety_score"`
	CompositeScore float64 `json:"composite_score"`
}

// SignalDirection is the direction a technical pattern points
type SignalDirection string

const (
	DirectionBullish SignalDirection = "bullish"
	DirectionBearish SignalDirection = "bearish"
	DirectionNeutral SignalDirection = "neutral"
)

// PatternStatus is the lifecycle state of a detected pattern
type PatternStatus string

const (
	StatusForming   PatternStatus = "forming"
	StatusConfirmed PatternStatus = "confirmed"
	StatusFailed    PatternStatus = "failed"
)

// TechnicalSignal represents one detected chart pattern.
// Many signals may exist per (ticker, date).
type TechnicalSignal struct {
	Ticker       string             `json:"ticker"`
	DetectedDate time.Time          `json:"detected_date"`
	PatternType  string             `json:"pattern_type"`
	Direction    SignalDirection    `json:"direction"`
	Confidence   float64            `json:"confidence"` // 0-100
	StartDate    time.Time          `json:"start_date"`
	EndDate      time.Time          `json:"end_date"`
	Status       PatternStatus      `json:"status"`
	KeyLevels    map[string]float64 `json:"key_levels"` // support, resistance, neckline, target
}

// SentimentSource identifies where sentiment texts were collected
type SentimentSource string

const (
	SourceNews   SentimentSource = "news"
	SourceSocial SentimentSource = "social"
	SourceForum  SentimentSource = "forum"
)

// SentimentScore represents aggregated sentiment for one (ticker, date, source).
// Positive, Negative and Neutral are probabilities summing to ~1.
type SentimentScore struct {
	Ticker       string          `json:"ticker"`
	AnalysisDate time.Time       `json:"analysis_date"`
	Source       SentimentSource `json:"source"`
	Positive     float64         `json:"positive"`
	Negative     float64         `json:"negative"`
	Neutral      float64         `json:"neutral"`
	SampleSize   int             `json:"sample_size"`
}
