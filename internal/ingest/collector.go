package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/internal/external/analysis"
	"github.com/jdemuth17/market-analysis/internal/freshness"
	"github.com/jdemuth17/market-analysis/internal/progress"
	"github.com/jdemuth17/market-analysis/pkg/config"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

const (
	// non-price facts are refreshed when older than one day
	factMaxAge = 24 * time.Hour

	// technical lookback fed to pattern detection
	technicalBarLimit     = 120
	technicalLookbackDays = 90
)

// AnalysisClient is the slice of the analysis service the collector uses
type AnalysisClient interface {
	FetchPrices(ctx context.Context, tickers []string, period, interval string) (*analysis.FetchPricesResponse, error)
	FetchFundamentals(ctx context.Context, tickers []string) (*analysis.FetchFundamentalsResponse, error)
	ScoreFundamentalsBatch(ctx context.Context, items []analysis.FundamentalData) (*analysis.ScoreBatchResponse, error)
	RunTechnicalAnalysis(ctx context.Context, req analysis.FullTechnicalRequest) (*analysis.FullTechnicalResponse, error)
	RunSentimentPipeline(ctx context.Context, tickers []string, sources []contracts.SentimentSource) (*analysis.FullSentimentResponse, error)
}

// Collector runs the four ingestion stages of a scan.
// ⭐ SSOT: all market data writes during a scan flow through here.
type Collector struct {
	prices       contracts.PriceRepository
	fundamentals contracts.FundamentalRepository
	technicals   contracts.TechnicalRepository
	sentiments   contracts.SentimentRepository
	analysis     AnalysisClient
	classifier   *freshness.Classifier
	tracker      *progress.Tracker
	logger       *logger.Logger
	scanCfg      config.ScanConfig
}

func NewCollector(
	prices contracts.PriceRepository,
	fundamentals contracts.FundamentalRepository,
	technicals contracts.TechnicalRepository,
	sentiments contracts.SentimentRepository,
	client AnalysisClient,
	classifier *freshness.Classifier,
	tracker *progress.Tracker,
	log *logger.Logger,
	scanCfg config.ScanConfig,
) *Collector {
	return &Collector{
		prices:       prices,
		fundamentals: fundamentals,
		technicals:   technicals,
		sentiments:   sentiments,
		analysis:     client,
		classifier:   classifier,
		tracker:      tracker,
		logger:       log,
		scanCfg:      scanCfg,
	}
}

// CollectPrices refreshes price history for the universe. Tickers are
// classified by staleness and fetched with per-tier lookback depth.
// Returns the tickers that remain in the pipeline: a batch failure
// keeps its tickers (their stored history may still be usable), only
// per-ticker upstream errors on stale tickers drop them.
func (c *Collector) CollectPrices(ctx context.Context, stageIndex int, tickers []string, now time.Time) ([]string, error) {
	classes, err := c.classifier.ClassifyPrices(ctx, c.prices, tickers, now)
	if err != nil {
		return nil, err
	}

	byPeriod := make(map[string][]string)
	tierOf := make(map[string]freshness.Tier, len(classes))
	for _, cl := range classes {
		byPeriod[cl.Period] = append(byPeriod[cl.Period], cl.Ticker)
		tierOf[cl.Ticker] = cl.Tier
	}

	c.tracker.SetStage(stageIndex, "prices", len(tickers))

	var mu sync.Mutex
	dropped := make(map[string]bool)

	for period, group := range byPeriod {
		period := period
		_, err := FanOut(ctx, c.logger, c.tracker, "prices", group,
			c.scanCfg.PriceBatchSize, c.scanCfg.PriceConcurrency,
			func(ctx context.Context, batch []string) error {
				resp, err := c.analysis.FetchPrices(ctx, batch, period, "1d")
				if err != nil {
					return err
				}
				var points []contracts.PricePoint
				for _, td := range resp.Data {
					if td.Error != "" {
						// no stored history to fall back on for stale tickers
						if tierOf[td.Ticker] == freshness.TierStale {
							mu.Lock()
							dropped[td.Ticker] = true
							mu.Unlock()
						}
						continue
					}
					for _, bar := range td.Bars {
						point, perr := barToPoint(td.Ticker, bar)
						if perr != nil {
							c.logger.WithError(perr).WithField("ticker", td.Ticker).Warn("Skipping malformed bar")
							continue
						}
						points = append(points, point)
					}
				}
				if len(points) == 0 {
					return nil
				}
				return c.prices.UpsertBatch(ctx, points)
			})
		if err != nil {
			return nil, err
		}
	}

	var remaining []string
	for _, t := range tickers {
		if !dropped[t] {
			remaining = append(remaining, t)
		}
	}
	if len(dropped) > 0 {
		c.logger.WithField("dropped", len(dropped)).Warn("Tickers dropped, no price history available")
	}
	return remaining, nil
}

// CollectFundamentals refreshes snapshots for tickers whose stored
// fundamentals are older than a day, fetching ratios and scoring them
// in one pass per batch.
func (c *Collector) CollectFundamentals(ctx context.Context, stageIndex int, tickers []string, now time.Time) error {
	missing, err := freshness.FilterMissing(ctx, c.fundamentals, tickers, now, factMaxAge)
	if err != nil {
		return err
	}
	c.tracker.SetStage(stageIndex, "fundamentals", len(tickers))
	c.tracker.IncrementTickers(len(tickers) - len(missing))
	if len(missing) == 0 {
		return nil
	}

	_, err = FanOut(ctx, c.logger, c.tracker, "fundamentals", missing,
		c.scanCfg.FundamentalBatchSize, c.scanCfg.FundamentalConcurrency,
		func(ctx context.Context, batch []string) error {
			fetched, err := c.analysis.FetchFundamentals(ctx, batch)
			if err != nil {
				return err
			}

			var items []analysis.FundamentalData
			for _, d := range fetched.Data {
				if d.Error == "" {
					items = append(items, d)
				}
			}
			if len(items) == 0 {
				return nil
			}

			scored, err := c.analysis.ScoreFundamentalsBatch(ctx, items)
			if err != nil {
				return err
			}
			scoreOf := make(map[string]analysis.FundamentalScore, len(scored.Scores))
			for _, s := range scored.Scores {
				if s.Error == "" {
					scoreOf[s.Ticker] = s
				}
			}

			snapshots := make([]contracts.FundamentalSnapshot, 0, len(items))
			for _, d := range items {
				snap := contracts.FundamentalSnapshot{
					Ticker:         d.Ticker,
					SnapshotDate:   now,
					PERatio:        d.PERatio,
					ForwardPE:      d.ForwardPE,
					PriceToBook:    d.PriceToBook,
					DebtToEquity:   d.DebtToEquity,
					ProfitMargin:   d.ProfitMargin,
					ReturnOnEquity: d.ReturnOnEquity,
					DividendYield:  d.DividendYield,
					MarketCap:      d.MarketCap,
					CurrentPrice:   d.CurrentPrice,
				}
				if s, ok := scoreOf[d.Ticker]; ok {
					snap.ValueScore = s.ValueScore
					snap.QualityScore = s.QualityScore
					snap.GrowthScore = s.GrowthScore
					snap.SafetyScore = s.SafetyScore
					snap.CompositeScore = s.CompositeScore
				}
				snapshots = append(snapshots, snap)
			}
			return c.fundamentals.AppendBatch(ctx, snapshots)
		})
	return err
}

// CollectTechnicals runs indicator and pattern analysis per ticker from
// stored bars. Fan-out batches are size 1, the service call is already
// per-ticker; concurrency is the lever here.
func (c *Collector) CollectTechnicals(ctx context.Context, stageIndex int, tickers []string, cfg *contracts.ScanConfig, now time.Time) error {
	missing, err := freshness.FilterMissing(ctx, c.technicals, tickers, now, factMaxAge)
	if err != nil {
		return err
	}
	c.tracker.SetStage(stageIndex, "technicals", len(tickers))
	c.tracker.IncrementTickers(len(tickers) - len(missing))
	if len(missing) == 0 {
		return nil
	}

	_, err = FanOut(ctx, c.logger, c.tracker, "technicals", missing,
		1, c.scanCfg.TechnicalConcurrency,
		func(ctx context.Context, batch []string) error {
			ticker := batch[0]
			bars, err := c.prices.RecentBars(ctx, ticker, technicalBarLimit)
			if err != nil {
				return err
			}
			if len(bars) == 0 {
				return nil
			}

			req := analysis.FullTechnicalRequest{
				Ticker:       ticker,
				Bars:         pointsToBars(bars),
				Indicators:   cfg.EnabledIndicators,
				Patterns:     cfg.EnabledPatterns,
				LookbackDays: technicalLookbackDays,
			}
			resp, err := c.analysis.RunTechnicalAnalysis(ctx, req)
			if err != nil {
				return err
			}
			if resp.Error != "" {
				c.logger.WithFields(map[string]interface{}{
					"ticker": ticker,
					"error":  resp.Error,
				}).Warn("Technical analysis failed for ticker")
				return nil
			}

			signals := make([]contracts.TechnicalSignal, 0, len(resp.DetectedPatterns))
			for _, p := range resp.DetectedPatterns {
				sig, perr := patternToSignal(ticker, now, p)
				if perr != nil {
					c.logger.WithError(perr).WithField("ticker", ticker).Warn("Skipping malformed pattern")
					continue
				}
				signals = append(signals, sig)
			}
			if len(signals) == 0 {
				return nil
			}
			return c.technicals.AppendBatch(ctx, signals)
		})
	return err
}

// CollectSentiment runs the sentiment pipeline over small batches; the
// upstream collectors are slow, so batches of 10 keep latency bounded.
func (c *Collector) CollectSentiment(ctx context.Context, stageIndex int, tickers []string, cfg *contracts.ScanConfig, now time.Time) error {
	missing, err := freshness.FilterMissing(ctx, c.sentiments, tickers, now, factMaxAge)
	if err != nil {
		return err
	}
	c.tracker.SetStage(stageIndex, "sentiment", len(tickers))
	c.tracker.IncrementTickers(len(tickers) - len(missing))
	if len(missing) == 0 {
		return nil
	}

	sources := cfg.EnabledSources
	if len(sources) == 0 {
		sources = []contracts.SentimentSource{contracts.SourceNews, contracts.SourceSocial, contracts.SourceForum}
	}

	_, err = FanOut(ctx, c.logger, c.tracker, "sentiment", missing,
		c.scanCfg.SentimentBatchSize, c.scanCfg.SentimentConcurrency,
		func(ctx context.Context, batch []string) error {
			resp, err := c.analysis.RunSentimentPipeline(ctx, batch, sources)
			if err != nil {
				return err
			}

			scores := make([]contracts.SentimentScore, 0, len(resp.Data))
			for _, s := range resp.Data {
				if s.Error != "" || s.SampleSize == 0 {
					continue
				}
				scores = append(scores, contracts.SentimentScore{
					Ticker:       s.Ticker,
					AnalysisDate: now,
					Source:       contracts.SentimentSource(s.Source),
					Positive:     s.PositiveScore,
					Negative:     s.NegativeScore,
					Neutral:      s.NeutralScore,
					SampleSize:   s.SampleSize,
				})
			}
			if len(scores) == 0 {
				return nil
			}
			return c.sentiments.AppendBatch(ctx, scores)
		})
	return err
}

func barToPoint(ticker string, bar analysis.OHLCVBar) (contracts.PricePoint, error) {
	date, err := time.Parse("2006-01-02", bar.Date)
	if err != nil {
		return contracts.PricePoint{}, err
	}
	return contracts.PricePoint{
		Ticker:    ticker,
		TradeDate: date,
		Open:      bar.Open,
		High:      bar.High,
		Low:       bar.Low,
		Close:     bar.Close,
		AdjClose:  bar.AdjClose,
		Volume:    bar.Volume,
	}, nil
}

func pointsToBars(points []contracts.PricePoint) []analysis.OHLCVBar {
	bars := make([]analysis.OHLCVBar, 0, len(points))
	for _, p := range points {
		bars = append(bars, analysis.OHLCVBar{
			Date:     p.TradeDate.Format("2006-01-02"),
			Open:     p.Open,
			High:     p.High,
			Low:      p.Low,
			Close:    p.Close,
			AdjClose: p.AdjClose,
			Volume:   p.Volume,
		})
	}
	return bars
}

func patternToSignal(ticker string, now time.Time, p analysis.DetectedPattern) (contracts.TechnicalSignal, error) {
	start, err := time.Parse("2006-01-02", p.StartDate)
	if err != nil {
		return contracts.TechnicalSignal{}, err
	}
	end, err := time.Parse("2006-01-02", p.EndDate)
	if err != nil {
		return contracts.TechnicalSignal{}, err
	}
	return contracts.TechnicalSignal{
		Ticker:       ticker,
		DetectedDate: now,
		PatternType:  p.PatternType,
		Direction:    p.Direction,
		Confidence:   p.Confidence,
		StartDate:    start,
		EndDate:      end,
		Status:       p.Status,
		KeyLevels:    p.KeyLevels,
	}, nil
}
