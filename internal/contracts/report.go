package contracts

import (
	"encoding/json"
	"time"
)

// ReportEntry is one ranked buy candidate within a report.
// Rank is dense (1..N, no gaps) within a report.
type ReportEntry struct {
	Ticker           string          `json:"ticker"`
	Rank             int             `json:"rank"`
	CompositeScore   float64         `json:"composite_score"`
	TechnicalScore   float64         `json:"technical_score"`
	FundamentalScore float64         `json:"fundamental_score"`
	SentimentScore   float64         `json:"sentiment_score"`
	TopPattern       string          `json:"top_pattern,omitempty"`
	TopDirection     SignalDirection `json:"top_direction,omitempty"`
	Reasoning        ScoreReasoning  `json:"reasoning"`
}

// ScanReport is one immutable per-category result set of a scan run.
// ConfigSnapshot embeds the configuration the run bound to at start time.
type ScanReport struct {
	ID                 int64           `json:"id"`
	ReportDate         time.Time       `json:"report_date"`
	Category           Category        `json:"category"`
	GeneratedAt        time.Time       `json:"generated_at"`
	ScoringMethod      ScoreMethod     `json:"scoring_method"`
	ConfigSnapshot     json.RawMessage `json:"config_snapshot"`
	TotalStocksScanned int             `json:"total_stocks_scanned"`
	TotalMatches       int             `json:"total_matches"`
	Entries            []ReportEntry   `json:"entries"`
}
