package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"Finansle/internal/model"
)

// BatchResult is the outcome for one ticker of a batch run.
type BatchResult struct {
	Ticker string
	Record *model.StockRecord
	Err    error
}

// Batch collects many tickers one after another, waiting a fixed delay
// between requests to stay polite to the provider.
type Batch struct {
	collector *Collector
	limiter   *rate.Limiter
}

// NewBatch creates a batch runner. A non-positive delay disables throttling.
func NewBatch(c *Collector, delay time.Duration) *Batch {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Batch{collector: c, limiter: rate.NewLimiter(limit, 1)}
}

// Run processes tickers sequentially. A failed ticker is recorded and
// skipped; cancellation stops the run and is reported on the remaining
// tickers.
func (b *Batch) Run(ctx context.Context, tickers []string) []BatchResult {
	results := make([]BatchResult, 0, len(tickers))
	for i, t := range tickers {
		if err := b.limiter.Wait(ctx); err != nil {
			for _, rest := range tickers[i:] {
				results = append(results, BatchResult{Ticker: rest, Err: err})
			}
			break
		}
		rec, err := b.collector.Collect(ctx, t)
		if err != nil {
			log.Warn().Err(err).Str("ticker", t).Msg("skipping ticker")
		}
		results = append(results, BatchResult{Ticker: t, Record: rec, Err: err})
	}

	ok := 0
	for _, r := range results {
		if r.Err == nil {
			ok++
		}
	}
	log.Info().Int("total", len(tickers)).Int("ok", ok).Int("failed", len(results)-ok).Msg("batch finished")
	return results
}
