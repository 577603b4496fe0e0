package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jdemuth17/market-analysis/internal/progress"
	"github.com/jdemuth17/market-analysis/pkg/logger"
)

// BatchFunc processes one ticker batch. A returned error marks the
// batch failed but never aborts the remaining batches.
type BatchFunc func(ctx context.Context, batch []string) error

// FanOut splits tickers into fixed-size batches and runs them through
// fn with bounded concurrency. Batch failures are isolated: the batch
// is logged and counted, the rest of the stage proceeds. Progress is
// advanced per attempted ticker so the stage fraction always completes.
// Only context cancellation stops the fan-out early.
func FanOut(
	ctx context.Context,
	log *logger.Logger,
	tracker *progress.Tracker,
	stage string,
	tickers []string,
	batchSize, concurrency int,
	fn BatchFunc,
) (failedBatches int, err error) {
	if batchSize <= 0 {
		batchSize = 50
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	batches := splitBatches(tickers, batchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	failures := make(chan int, len(batches))
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(gctx, batch); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.WithError(err).WithFields(map[string]interface{}{
					"stage":   stage,
					"batch":   i,
					"tickers": len(batch),
				}).Warn("Batch failed, continuing with remaining batches")
				failures <- 1
			}
			if tracker != nil {
				tracker.IncrementTickers(len(batch))
			}
			return nil
		})
	}

	waitErr := g.Wait()
	close(failures)
	for range failures {
		failedBatches++
	}
	if waitErr != nil {
		return failedBatches, waitErr
	}
	return failedBatches, nil
}

func splitBatches(tickers []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(tickers); start += size {
		end := start + size
		if end > len(tickers) {
			end = len(tickers)
		}
		batches = append(batches, tickers[start:end])
	}
	return batches
}
