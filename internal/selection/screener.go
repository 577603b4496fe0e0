package selection

import (
	"context"
	"time"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/internal/scoring"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// Screener applies hard filters against the latest known data per
// ticker. Everything is bulk-loaded up front, no per-ticker queries.
type Screener struct {
	prices       contracts.PriceRepository
	fundamentals contracts.FundamentalRepository
	technicals   contracts.TechnicalRepository
	sentiments   contracts.SentimentRepository
	logger       *logger.Logger
}

func NewScreener(
	prices contracts.PriceRepository,
	fundamentals contracts.FundamentalRepository,
	technicals contracts.TechnicalRepository,
	sentiments contracts.SentimentRepository,
	log *logger.Logger,
) *Screener {
	return &Screener{
		prices:       prices,
		fundamentals: fundamentals,
		technicals:   technicals,
		sentiments:   sentiments,
		logger:       log,
	}
}

// Evidence is the bulk-loaded scoring inputs for the surviving universe
type Evidence struct {
	Tickers []string
	Inputs  map[string]scoring.Inputs
}

// Screen filters the universe by the config's hard thresholds and
// returns the survivors with their scoring inputs attached.
func (s *Screener) Screen(ctx context.Context, tickers []string, cfg *contracts.ScanConfig, now time.Time) (*Evidence, error) {
	latestPrices, err := s.prices.LatestByTickers(ctx, tickers)
	if err != nil {
		return nil, err
	}
	latestFundamentals, err := s.fundamentals.LatestByTickers(ctx, tickers)
	if err != nil {
		return nil, err
	}
	signals, err := s.technicals.RecentSignals(ctx, tickers, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	latestSentiments, err := s.sentiments.LatestByTickers(ctx, tickers)
	if err != nil {
		return nil, err
	}

	ev := &Evidence{Inputs: make(map[string]scoring.Inputs)}
	for _, ticker := range tickers {
		price, hasPrice := latestPrices[ticker]
		if !hasPrice {
			continue
		}
		if !s.passesPriceFilters(price, cfg) {
			continue
		}

		var snap *contracts.FundamentalSnapshot
		if f, ok := latestFundamentals[ticker]; ok {
			if !s.passesFundamentalFilters(&f, cfg) {
				continue
			}
			snap = &f
		}

		ev.Tickers = append(ev.Tickers, ticker)
		ev.Inputs[ticker] = scoring.Inputs{
			Signals:     signals[ticker],
			Fundamental: snap,
			Sentiments:  latestSentiments[ticker],
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"universe":  len(tickers),
		"survivors": len(ev.Tickers),
	}).Info("Hard filters applied")
	return ev, nil
}

func (s *Screener) passesPriceFilters(p contracts.PricePoint, cfg *contracts.ScanConfig) bool {
	if cfg.MinPrice > 0 && p.Close < cfg.MinPrice {
		return false
	}
	if cfg.MaxPrice > 0 && p.Close > cfg.MaxPrice {
		return false
	}
	if cfg.MinVolume > 0 && p.Volume < cfg.MinVolume {
		return false
	}
	return true
}

// passesFundamentalFilters skips thresholds whose ratio is absent; a
// missing ratio is not evidence against the ticker.
func (s *Screener) passesFundamentalFilters(f *contracts.FundamentalSnapshot, cfg *contracts.ScanConfig) bool {
	if cfg.MaxPERatio > 0 && f.PERatio != nil && *f.PERatio > cfg.MaxPERatio {
		return false
	}
	if cfg.MaxDebtToEquity > 0 && f.DebtToEquity != nil && *f.DebtToEquity > cfg.MaxDebtToEquity {
		return false
	}
	if cfg.MinProfitMargin != 0 && f.ProfitMargin != nil && *f.ProfitMargin < cfg.MinProfitMargin {
		return false
	}
	if cfg.MinMarketCap > 0 && f.MarketCap != nil && *f.MarketCap < cfg.MinMarketCap {
		return false
	}
	return true
}
