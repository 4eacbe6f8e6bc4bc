package main

import (
	"github.com/rs/zerolog/log"

	"Finansle/internal/calculator"
	"Finansle/internal/collector"
	"Finansle/internal/config"
	"Finansle/internal/currency"
	"Finansle/internal/financials"
	"Finansle/internal/recorder"
	"Finansle/internal/retry"
	"Finansle/internal/valuation"
)

// newCollector wires the market-data fetcher, currency normalizer and
// valuation reconciler from config.
func newCollector(cfg *config.Config) *collector.Collector {
	fetcher := collector.NewYahooFetcher(cfg.Market.Proxy, cfg.Market.RequestTimeout)
	if cfg.Market.BaseURL != "" {
		fetcher.BaseURL = cfg.Market.BaseURL
	}
	log.Info().Str("source", fetcher.Name()).Msg("data source")

	policy := retry.Policy{
		Attempts:      cfg.Retry.Attempts,
		InitialDelay:  cfg.Retry.InitialDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
	}

	client := currency.NewHTTPClient(cfg.Currency.RequestTimeout, cfg.Market.Proxy)
	normalizer := currency.NewNormalizer(currency.Options{
		Local:             cfg.Currency.Local,
		FallbackRate:      cfg.Currency.FallbackUSDRate,
		CacheTTL:          cfg.Currency.CacheTTL,
		LargeCapThreshold: cfg.Valuation.LargeCapThreshold,
		EmployeeThreshold: cfg.Valuation.LargeEmployeeThreshold,
		Retry:             policy,
	},
		&currency.QuoteSource{BaseURL: cfg.Currency.QuoteURL, Client: client},
		&currency.CentralBankSource{BaseURL: cfg.Currency.CentralBankURL, Client: client},
		&currency.ExchangeAPISource{BaseURL: cfg.Currency.ExchangeAPIURL, Client: client},
	)

	reconciler := valuation.NewReconciler(valuation.DefaultPolicy(), financials.NewAggregator(), normalizer)

	return collector.NewCollector(fetcher, reconciler, collector.Options{
		TickerSuffix:  cfg.Market.TickerSuffix,
		HistoryPeriod: cfg.Market.HistoryPeriod,
		MaxPoints:     cfg.Smoothing.MaxPoints,
		Smoothing: calculator.SmoothingOptions{
			ThresholdMultiplier: cfg.Smoothing.ThresholdMultiplier,
			MinLength:           cfg.Smoothing.MinLength,
			MaxWindow:           calculator.DefaultSmoothingOptions().MaxWindow,
		},
		Retry: policy,
	})
}

// newRecorder returns a JSON recorder for path, or a no-op one on dry runs.
func newRecorder(path string) (recorder.Recorder, error) {
	if dryRun {
		log.Info().Msg("dry run, output will not be written")
		return recorder.NewNoopRecorder(), nil
	}
	return recorder.NewJSONRecorder(path)
}
