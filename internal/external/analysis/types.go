package analysis

import "github.com/jdemuth17/market-analysis/internal/contracts"

// Wire types mirror the analysis service's JSON contracts.

// OHLCVBar is one daily bar as returned by /api/market-data/fetch-prices
type OHLCVBar struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adj_close"`
	Volume   int64   `json:"volume"`
}

// FetchPricesRequest requests OHLCV history for a ticker batch
type FetchPricesRequest struct {
	Tickers  []string `json:"tickers"`
	Period   string   `json:"period"`   // 5d, 1mo, 3mo, 6mo, 1y, ...
	Interval string   `json:"interval"` // 1d, 1wk, ...
}

// TickerPriceData holds one ticker's bars; Error is set on per-ticker failure
type TickerPriceData struct {
	Ticker string     `json:"ticker"`
	Bars   []OHLCVBar `json:"bars"`
	Error  string     `json:"error,omitempty"`
}

// FetchPricesResponse is the bulk price fetch result
type FetchPricesResponse struct {
	Data         []TickerPriceData `json:"data"`
	TotalTickers int               `json:"total_tickers"`
	Successful   int               `json:"successful"`
	Failed       int               `json:"failed"`
}

// FetchFundamentalsRequest requests fundamental ratios for a ticker batch
type FetchFundamentalsRequest struct {
	Tickers []string `json:"tickers"`
}

// FundamentalData is one ticker's sparse ratio set
type FundamentalData struct {
	Ticker         string   `json:"ticker"`
	CompanyName    *string  `json:"company_name,omitempty"`
	Sector         *string  `json:"sector,omitempty"`
	PERatio        *float64 `json:"pe_ratio,omitempty"`
	ForwardPE      *float64 `json:"forward_pe,omitempty"`
	PriceToBook    *float64 `json:"price_to_book,omitempty"`
	DebtToEquity   *float64 `json:"debt_to_equity,omitempty"`
	ProfitMargin   *float64 `json:"profit_margin,omitempty"`
	OperatingMargin *float64 `json:"operating_margin,omitempty"`
	ReturnOnEquity *float64 `json:"return_on_equity,omitempty"`
	DividendYield  *float64 `json:"dividend_yield,omitempty"`
	Revenue        *float64 `json:"revenue,omitempty"`
	MarketCap      *float64 `json:"market_cap,omitempty"`
	Beta           *float64 `json:"beta,omitempty"`
	CurrentPrice   *float64 `json:"current_price,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// FetchFundamentalsResponse is the bulk fundamentals fetch result
type FetchFundamentalsResponse struct {
	Data         []FundamentalData `json:"data"`
	TotalTickers int               `json:"total_tickers"`
	Successful   int               `json:"successful"`
	Failed       int               `json:"failed"`
}

// ScoreBatchRequest scores fundamentals across value/quality/growth/safety
type ScoreBatchRequest struct {
	Items []FundamentalData `json:"items"`
}

// FundamentalScore is the four sub-scores plus composite, each 0-100
type FundamentalScore struct {
	Ticker         string  `json:"ticker"`
	ValueScore     float64 `json:"value_score"`
	QualityScore   float64 `json:"quality_score"`
	GrowthScore    float64 `json:"growth_score"`
	SafetyScore    float64 `json:"safety_score"`
	CompositeScore float64 `json:"composite_score"`
	Error          string  `json:"error,omitempty"`
}

// ScoreBatchResponse is the batch scoring result
type ScoreBatchResponse struct {
	Scores []FundamentalScore `json:"scores"`
}

// FullTechnicalRequest runs indicators and pattern detection in one call
type FullTechnicalRequest struct {
	Ticker       string     `json:"ticker"`
	Bars         []OHLCVBar `json:"bars"`
	Indicators   []string   `json:"indicators"`
	Patterns     []string   `json:"patterns"`
	LookbackDays int        `json:"lookback_days"`
}

// DetectedPattern is one chart pattern found by the service
type DetectedPattern struct {
	PatternType string                    `json:"pattern_type"`
	Direction   contracts.SignalDirection `json:"direction"`
	Confidence  float64                   `json:"confidence"` // 0-100
	StartDate   string                    `json:"start_date"`
	EndDate     string                    `json:"end_date"`
	Status      contracts.PatternStatus   `json:"status"`
	KeyLevels   map[string]float64        `json:"key_levels"`
}

// IndicatorValue holds one indicator's date-keyed values
type IndicatorValue struct {
	Name   string              `json:"name"`
	Values map[string]*float64 `json:"values"`
}

// FullTechnicalResponse is the combined technical analysis result
type FullTechnicalResponse struct {
	Ticker           string            `json:"ticker"`
	Indicators       []IndicatorValue  `json:"indicators"`
	DetectedPatterns []DetectedPattern `json:"detected_patterns"`
	Error            string            `json:"error,omitempty"`
}

// FullSentimentRequest runs collection and scoring for a ticker batch
type FullSentimentRequest struct {
	Tickers           []string `json:"tickers"`
	Sources           []string `json:"sources"`
	MaxItemsPerSource int      `json:"max_items_per_source"`
}

// TickerSentiment is one (ticker, source) aggregate
type TickerSentiment struct {
	Ticker        string   `json:"ticker"`
	Source        string   `json:"source"`
	PositiveScore float64  `json:"positive_score"`
	NegativeScore float64  `json:"negative_score"`
	NeutralScore  float64  `json:"neutral_score"`
	SampleSize    int      `json:"sample_size"`
	Headlines     []string `json:"headlines,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// FullSentimentResponse is the sentiment pipeline result
type FullSentimentResponse struct {
	Data               []TickerSentiment `json:"data"`
	TotalTickers       int               `json:"total_tickers"`
	TotalTextsAnalyzed int               `json:"total_texts_analyzed"`
}

// TickerListResponse is the constituent list for one index
type TickerListResponse struct {
	Index   string   `json:"index"`
	Tickers []string `json:"tickers"`
	Count   int      `json:"count"`
}

// HealthResponse is the service health payload
type HealthResponse struct {
	Status string `json:"status"`
}
