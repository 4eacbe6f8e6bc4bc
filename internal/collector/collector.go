package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"Finansle/internal/calculator"
	"Finansle/internal/model"
	"Finansle/internal/retry"
	"Finansle/internal/strategy"
	"Finansle/internal/valuation"
)

// Options tunes a Collector. Zero values take defaults.
type Options struct {
	TickerSuffix  string
	HistoryPeriod string
	MaxPoints     int
	Smoothing     calculator.SmoothingOptions
	Retry         retry.Policy
}

// DefaultOptions returns the Oslo Børs settings.
func DefaultOptions() Options {
	return Options{
		TickerSuffix:  ".OL",
		HistoryPeriod: "5y",
		MaxPoints:     calculator.DefaultMaxPoints,
		Smoothing:     calculator.DefaultSmoothingOptions(),
		Retry:         retry.DefaultPolicy(),
	}
}

// Collector orchestrates data fetching, valuation and chart processing into
// one merged record per ticker.
type Collector struct {
	Fetcher    Fetcher
	Reconciler *valuation.Reconciler
	opts       Options
	now        func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, reconciler *valuation.Reconciler, opts Options) *Collector {
	def := DefaultOptions()
	if opts.HistoryPeriod == "" {
		opts.HistoryPeriod = def.HistoryPeriod
	}
	if opts.MaxPoints <= 0 {
		opts.MaxPoints = def.MaxPoints
	}
	if opts.Smoothing.ThresholdMultiplier <= 0 {
		opts.Smoothing = def.Smoothing
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = def.Retry
	}
	return &Collector{Fetcher: fetcher, Reconciler: reconciler, opts: opts, now: time.Now}
}

// Collect builds the merged record for ticker. Valuation problems only
// lower the quality score; a missing price or price history is an error and
// the ticker should be skipped.
func (c *Collector) Collect(ctx context.Context, ticker string) (*model.StockRecord, error) {
	t := NormalizeTicker(ticker, c.opts.TickerSuffix)
	if t == "" {
		return nil, errors.New("empty ticker")
	}
	log.Info().Str("ticker", t).Str("fetcher", c.Fetcher.Name()).Msg("collecting stock data")

	info, err := fetch(ctx, c.opts.Retry, "info("+t+")", func(ctx context.Context) (model.RawSnapshot, error) {
		return c.Fetcher.FetchInfo(ctx, t)
	})
	if err != nil {
		log.Warn().Err(err).Str("ticker", t).Msg("failed to get ticker info")
		info = nil
	}

	req := valuation.Request{Ticker: t, Info: info}
	if len(info) > 0 {
		req.Quarterly, req.QuarterlyErr = c.fetchStatements(ctx, t, model.Quarterly)
		req.Annual, req.AnnualErr = c.fetchStatements(ctx, t, model.Annual)
	}
	metrics := c.Reconciler.Reconcile(ctx, req)

	price, err := c.currentPrice(ctx, t, info)
	if err != nil {
		return nil, err
	}

	chart, err := c.chart(ctx, t)
	if err != nil {
		return nil, err
	}
	perf := calculator.ComputePerformance(chart)

	rec := &model.StockRecord{
		CompanyName:        firstNonEmpty(info.String("longName"), info.String("shortName"), t),
		Ticker:             t,
		CurrentPrice:       calculator.Round2(price),
		Sector:             firstNonEmpty(info.String("sector"), strategy.UnknownSector),
		Industry:           firstNonEmpty(info.String("industry"), strategy.UnknownSector),
		Employees:          employees(info),
		Headquarters:       headquarters(info),
		Description:        firstNonEmpty(info.String("longBusinessSummary"), strategy.DefaultDescription),
		PerformanceMetrics: perf,
		ValuationMetrics:   metrics,
		ChartData:          chart,
		LastUpdated:        model.Timestamp(c.now()),
		RunID:              uuid.NewString(),
	}
	rec.Price52wHigh, rec.Price52wLow = fiftyTwoWeekRange(info, chart)

	difficulty := strategy.Evaluate(rec)
	rec.DifficultyRating = difficulty.Label
	rec.HintCategories = strategy.Hints(rec)

	log.Info().Str("ticker", t).Str("company", rec.CompanyName).Float64("price", rec.CurrentPrice).
		Float64("quality_score", rec.DataQualityScore).Int("chart_points", len(chart)).
		Str("difficulty", rec.DifficultyRating).Msg("collected stock data")
	if len(rec.DataQualityIssues) > 0 {
		log.Warn().Str("ticker", t).Strs("issues", rec.DataQualityIssues).Msg("data quality issues")
	}
	return rec, nil
}

func (c *Collector) fetchStatements(ctx context.Context, ticker string, freq model.Frequency) (*model.StatementTable, error) {
	return fetch(ctx, c.opts.Retry, fmt.Sprintf("%s statements(%s)", freq, ticker), func(ctx context.Context) (*model.StatementTable, error) {
		return c.Fetcher.FetchStatements(ctx, ticker, freq)
	})
}

// fetch retries fn under p. ErrNoData is final: the provider has nothing for
// the ticker and asking again will not change that.
func fetch[T any](ctx context.Context, p retry.Policy, what string, fn func(context.Context) (T, error)) (T, error) {
	return retry.Do(ctx, p, what, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if errors.Is(err, ErrNoData) {
			return v, retry.Permanent(err)
		}
		return v, err
	})
}

// currentPrice tries the provider quote, then the last close of a short
// history, then the info snapshot.
func (c *Collector) currentPrice(ctx context.Context, ticker string, info model.RawSnapshot) (float64, error) {
	if p, err := c.Fetcher.FetchCurrentPrice(ctx, ticker); err == nil && p > 0 {
		return p, nil
	} else if err != nil {
		log.Debug().Err(err).Str("ticker", ticker).Msg("quote price failed")
	}

	if bars, err := c.Fetcher.FetchDailyHistory(ctx, ticker, "5d"); err == nil {
		for i := len(bars) - 1; i >= 0; i-- {
			if p := bars[i].Close; p > 0 {
				return p, nil
			}
		}
	} else {
		log.Debug().Err(err).Str("ticker", ticker).Msg("recent history price failed")
	}

	for _, key := range []string{"currentPrice", "regularMarketPrice", "previousClose"} {
		if p, ok := info.Number(key); ok && p > 0 {
			return p, nil
		}
	}
	log.Error().Str("ticker", ticker).Msg("could not determine current price")
	return 0, fmt.Errorf("%s: %w", ticker, ErrNoPrice)
}

func (c *Collector) chart(ctx context.Context, ticker string) (model.ChartSeries, error) {
	bars, err := fetch(ctx, c.opts.Retry, "history("+ticker+")", func(ctx context.Context) ([]model.OHLCV, error) {
		return c.Fetcher.FetchDailyHistory(ctx, ticker, c.opts.HistoryPeriod)
	})
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", ticker, err)
	}
	chart := calculator.BuildChartSeries(bars)
	if len(chart) == 0 {
		return nil, fmt.Errorf("history %s: %w", ticker, ErrNoData)
	}
	chart = calculator.Downsample(chart, c.opts.MaxPoints)
	chart, _ = calculator.SmoothAnomalies(chart, c.opts.Smoothing)
	return chart, nil
}

// fiftyTwoWeekRange prefers the provider's figures and falls back to the
// chart's last year when either is missing.
func fiftyTwoWeekRange(info model.RawSnapshot, chart model.ChartSeries) (high, low float64) {
	high, okHigh := info.Number("fiftyTwoWeekHigh")
	low, okLow := info.Number("fiftyTwoWeekLow")
	if !okHigh || !okLow {
		if h, l, err := calculator.Calculate52WeekRange(chart); err == nil {
			high, low = h, l
		} else {
			log.Warn().Err(err).Msg("52-week range calculation failed")
		}
	}
	return calculator.Round2(high), calculator.Round2(low)
}

func headquarters(info model.RawSnapshot) string {
	var parts []string
	for _, key := range []string{"city", "country"} {
		if v := info.String(key); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return strategy.DefaultHeadquarters
	}
	return strings.Join(parts, ", ")
}

func employees(info model.RawSnapshot) int64 {
	n, ok := info.Number("fullTimeEmployees")
	if !ok || n < 0 {
		return 0
	}
	return int64(n)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
