// Package currency resolves the USD exchange rate, guesses the currency a
// company reports its statements in, and converts monetary figures into the
// local currency.
package currency

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"Finansle/internal/model"
	"Finansle/internal/quality"
	"Finansle/internal/retry"
)

// Defaults for the reference deployment on Oslo Børs.
const (
	DefaultLocal             = "NOK"
	DefaultFallbackRate      = 10.5
	DefaultCacheTTL          = time.Hour
	DefaultLargeCapThreshold = 50e9
	DefaultEmployeeThreshold = 10000
)

// Options tunes a Normalizer. Zero values take the defaults above.
type Options struct {
	Local             string
	FallbackRate      float64
	CacheTTL          time.Duration
	LargeCapThreshold float64
	EmployeeThreshold int64
	// Retry applies to each source separately.
	Retry             retry.Policy
}

// Normalizer owns the cached USD rate for one run. It is not safe for
// concurrent use.
type Normalizer struct {
	opts      Options
	sources   []RateSource
	rate      float64
	fetchedAt time.Time
	now       func() time.Time
}

// NewNormalizer creates a normalizer that queries sources in order.
func NewNormalizer(opts Options, sources ...RateSource) *Normalizer {
	if opts.Local == "" {
		opts.Local = DefaultLocal
	}
	opts.Local = strings.ToUpper(opts.Local)
	if opts.FallbackRate <= 0 {
		opts.FallbackRate = DefaultFallbackRate
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.LargeCapThreshold <= 0 {
		opts.LargeCapThreshold = DefaultLargeCapThreshold
	}
	if opts.EmployeeThreshold <= 0 {
		opts.EmployeeThreshold = DefaultEmployeeThreshold
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = retry.DefaultPolicy()
	}
	return &Normalizer{opts: opts, sources: sources, now: time.Now}
}

// Local returns the local currency code.
func (n *Normalizer) Local() string { return n.opts.Local }

// USDRate returns the cached rate while it is younger than the cache TTL,
// otherwise asks each source in turn, retrying a failing source under the
// retry policy before moving on. When every source fails the fallback
// constant is returned and the cache is left untouched.
func (n *Normalizer) USDRate(ctx context.Context) float64 {
	now := n.now()
	if n.rate > 0 && now.Sub(n.fetchedAt) < n.opts.CacheTTL {
		return n.rate
	}
	for _, src := range n.sources {
		rate, err := retry.Do(ctx, n.opts.Retry, "usd rate("+src.Name()+")", func(ctx context.Context) (float64, error) {
			return src.FetchUSDRate(ctx, n.opts.Local)
		})
		if err != nil {
			log.Debug().Err(err).Str("source", src.Name()).Msg("USD rate lookup failed")
			continue
		}
		n.rate = rate
		n.fetchedAt = now
		log.Info().Str("source", src.Name()).Float64("rate", rate).Str("pair", "USD/"+n.opts.Local).Msg("updated USD rate")
		return rate
	}
	log.Warn().Float64("rate", n.opts.FallbackRate).Str("pair", "USD/"+n.opts.Local).Msg("using fallback USD rate")
	return n.opts.FallbackRate
}

// DetectStatementCurrency guesses the statement currency. Only the first rule
// reads an authoritative field; the size and sector rules are best-effort
// heuristics for exporters that commonly report in USD.
func (n *Normalizer) DetectStatementCurrency(ticker string, info model.RawSnapshot) string {
	if c := info.String("financialCurrency"); c != "" {
		log.Info().Str("ticker", ticker).Str("currency", c).Msg("financial currency from info")
		return strings.ToUpper(c)
	}
	if c := info.String("currency"); strings.EqualFold(c, "USD") {
		log.Info().Str("ticker", ticker).Msg("trading currency is USD")
		return "USD"
	}

	marketCap, _ := info.Number("marketCap")
	employees, _ := info.Number("fullTimeEmployees")
	if marketCap > n.opts.LargeCapThreshold || employees > float64(n.opts.EmployeeThreshold) {
		log.Info().Str("ticker", ticker).Float64("market_cap", marketCap).Float64("employees", employees).
			Msg("large company, assuming USD financials")
		return "USD"
	}

	sector := strings.ToLower(info.String("sector"))
	if strings.Contains(sector, "energy") || strings.Contains(sector, "oil") {
		log.Info().Str("ticker", ticker).Str("sector", sector).Msg("energy sector, assuming USD financials")
		return "USD"
	}

	log.Info().Str("ticker", ticker).Str("currency", n.opts.Local).Msg("assuming local-currency financials")
	return n.opts.Local
}

// ConvertToLocal converts value from source into the local currency. Nil,
// zero and local-currency values are returned as given. Currencies other
// than USD are returned unchanged and reported.
func (n *Normalizer) ConvertToLocal(ctx context.Context, value *float64, source string, issues *quality.Tracker) *float64 {
	out, _ := n.convert(ctx, value, source, issues)
	return out
}

// convert is ConvertToLocal that also reports whether the value was
// multiplied by a rate.
func (n *Normalizer) convert(ctx context.Context, value *float64, source string, issues *quality.Tracker) (*float64, bool) {
	if value == nil || *value == 0 {
		return value, false
	}
	source = strings.ToUpper(source)
	switch source {
	case n.opts.Local:
		return value, false
	case "USD":
		rate := n.USDRate(ctx)
		converted := *value * rate
		log.Debug().Float64("before", *value).Float64("after", converted).Float64("rate", rate).Msg("converted USD amount")
		return &converted, true
	default:
		log.Warn().Str("currency", source).Msg("unknown currency, returning original value")
		issues.Addf("Unknown currency %s, value left unconverted", source)
		return value, false
	}
}

// Normalize converts the monetary TTM fields into the local currency and
// reports every field that was converted. ConversionApplied is set only when
// at least one field was actually converted.
func (n *Normalizer) Normalize(ctx context.Context, ttm model.TTMFinancials, ticker string, info model.RawSnapshot, issues *quality.Tracker) (model.TTMFinancials, model.CurrencyContext) {
	detected := n.DetectStatementCurrency(ticker, info)
	out := ttm

	fields := []struct {
		name string
		val  **float64
	}{
		{"ebitda_ttm", &out.EBITDATTM},
		{"ebitda_latest", &out.EBITDALatest},
		{"total_revenue_ttm", &out.RevenueTTM},
		{"total_revenue_latest", &out.RevenueLatest},
	}
	applied := false
	for _, f := range fields {
		if *f.val == nil {
			continue
		}
		converted, ok := n.convert(ctx, *f.val, detected, issues)
		*f.val = converted
		if ok {
			applied = true
			issues.Addf("Converted %s from %s to %s", f.name, detected, n.opts.Local)
		}
	}

	return out, model.CurrencyContext{
		DetectedCurrency:  detected,
		ConversionApplied: applied,
	}
}
