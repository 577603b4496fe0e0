package universe

import (
	"context"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/jdemuth17/market-analysis/internal/contracts"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// indexListTTL bounds how long a cached constituent list is trusted.
// Index rebalances are quarterly, a week of staleness is acceptable.
const indexListTTL = 168 * time.Hour

// TickerLister resolves a constituent list from the analysis service
type TickerLister interface {
	GetTickerList(ctx context.Context, index string) ([]string, error)
}

// ConstituentScraper is the fallback source for index constituents
type ConstituentScraper interface {
	FetchConstituents(ctx context.Context, index string) ([]string, error)
}

// Resolver builds the scan universe from watchlist + enabled indexes.
// ⭐ SSOT: universe membership is decided here only.
type Resolver struct {
	watchlist contracts.WatchlistRepository
	indexes   contracts.IndexRepository
	lister    TickerLister
	scraper   ConstituentScraper
	logger    *logger.Logger

	// in-process layer above the DB cache, keyed by index name
	memCache *gocache.Cache
}

func NewResolver(
	watchlist contracts.WatchlistRepository,
	indexes contracts.IndexRepository,
	lister TickerLister,
	scraper ConstituentScraper,
	log *logger.Logger,
) *Resolver {
	return &Resolver{
		watchlist: watchlist,
		indexes:   indexes,
		lister:    lister,
		scraper:   scraper,
		logger:    log,
		memCache:  gocache.New(indexListTTL, time.Hour),
	}
}

// Resolve returns the deduplicated, uppercased scan universe.
// Watchlist membership is mandatory; an index whose constituents cannot
// be resolved from any source is skipped with a warning, it never fails
// the run.
func (r *Resolver) Resolve(ctx context.Context, cfg *contracts.ScanConfig) ([]string, error) {
	seen := make(map[string]bool)
	var universe []string

	add := func(ticker string) {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" || seen[ticker] {
			return
		}
		seen[ticker] = true
		universe = append(universe, ticker)
	}

	watchlist, err := r.watchlist.ActiveTickers(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range watchlist {
		add(t)
	}

	for _, index := range cfg.EnabledIndexes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tickers, err := r.indexTickers(ctx, index)
		if err != nil {
			r.logger.WithError(err).WithField("index", index).
				Warn("Skipping index, constituents unavailable from all sources")
			continue
		}
		for _, t := range tickers {
			add(t)
		}
	}

	sort.Strings(universe)
	r.logger.WithFields(map[string]interface{}{
		"watchlist": len(watchlist),
		"indexes":   len(cfg.EnabledIndexes),
		"universe":  len(universe),
	}).Info("Scan universe resolved")
	return universe, nil
}

// indexTickers resolves one index list through the cache chain:
// memory -> DB -> analysis service -> wikipedia scrape.
func (r *Resolver) indexTickers(ctx context.Context, index string) ([]string, error) {
	if cached, ok := r.memCache.Get(index); ok {
		return cached.([]string), nil
	}

	dbTickers, refreshedAt, err := r.indexes.CachedTickers(ctx, index)
	if err != nil {
		r.logger.WithError(err).WithField("index", index).Warn("Index cache lookup failed")
	} else if len(dbTickers) > 0 && time.Since(refreshedAt) < indexListTTL {
		r.memCache.SetDefault(index, dbTickers)
		return dbTickers, nil
	}

	tickers, fetchErr := r.lister.GetTickerList(ctx, index)
	if fetchErr != nil {
		r.logger.WithError(fetchErr).WithField("index", index).
			Warn("Ticker list service failed, trying wikipedia fallback")
		tickers, fetchErr = r.scraper.FetchConstituents(ctx, index)
	}
	if fetchErr != nil {
		// both live sources down; a stale DB list beats dropping the index
		if len(dbTickers) > 0 {
			r.logger.WithField("index", index).Warn("Using stale index constituent cache")
			return dbTickers, nil
		}
		return nil, fetchErr
	}

	r.memCache.SetDefault(index, tickers)
	if err := r.indexes.SaveTickers(ctx, index, tickers); err != nil {
		r.logger.WithError(err).WithField("index", index).Warn("Failed to persist index constituents")
	}
	return tickers, nil
}
