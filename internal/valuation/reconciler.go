// Package valuation reconciles provider-reported valuation multiples with
// figures derived from currency-normalized TTM financials.
package valuation

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"Finansle/internal/currency"
	"Finansle/internal/financials"
	"Finansle/internal/model"
	"Finansle/internal/quality"
)

// Range is an inclusive numeric band.
type Range struct {
	Min, Max float64
}

// Contains reports whether v lies within the band.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// MetricRange is one row of the post-hoc validation table.
type MetricRange struct {
	Metric string
	Range  Range
}

// Policy holds the tolerance bands used when cross-checking figures.
type Policy struct {
	EVHighMultiple   float64
	EVLowMultiple    float64
	EVDiscrepancyPct float64
	EVEBITDABand     Range
	PriceToSalesBand Range
	Validation       []MetricRange
}

// DefaultPolicy returns the production tolerance bands. Negative P/E and
// EV/EBITDA are valid signals for loss-making companies.
func DefaultPolicy() Policy {
	return Policy{
		EVHighMultiple:   10,
		EVLowMultiple:    0.5,
		EVDiscrepancyPct: 20,
		EVEBITDABand:     Range{1, 100},
		PriceToSalesBand: Range{0.05, 50},
		Validation: []MetricRange{
			{"trailing_pe", Range{-1000, 1000}},
			{"forward_pe", Range{-1000, 1000}},
			{"peg_ratio", Range{0, 10}},
			{"price_to_book", Range{0, 100}},
			{"price_to_sales", Range{0, 200}},
			{"ev_revenue", Range{0, 500}},
			{"ev_ebitda", Range{-100, 1000}},
		},
	}
}

// Request carries everything known about one ticker. Statement load errors
// are reported as issues, never returned.
type Request struct {
	Ticker       string
	Info         model.RawSnapshot
	Quarterly    *model.StatementTable
	Annual       *model.StatementTable
	QuarterlyErr error
	AnnualErr    error
}

// Reconciler builds the valuation bundle for one ticker at a time.
type Reconciler struct {
	policy     Policy
	aggregator *financials.Aggregator
	normalizer *currency.Normalizer
}

// NewReconciler wires a reconciler. The normalizer carries the run's rate
// cache and must not be shared across runs.
func NewReconciler(policy Policy, aggregator *financials.Aggregator, normalizer *currency.Normalizer) *Reconciler {
	if aggregator == nil {
		aggregator = financials.NewAggregator()
	}
	return &Reconciler{policy: policy, aggregator: aggregator, normalizer: normalizer}
}

// Reconcile returns a best-effort bundle. It never fails: missing data ends
// up as nil fields plus issues.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) model.ValuationMetrics {
	if len(req.Info) == 0 {
		log.Error().Str("ticker", req.Ticker).Msg("no info data available")
		return FallbackMetrics(req.Ticker)
	}
	local := r.normalizer.Local()

	issues := quality.NewTracker()
	in := ExtractInputs(req.Info, issues)

	ttm := r.aggregator.Aggregate(financials.Input{
		Ticker:    req.Ticker,
		Quarterly: req.Quarterly,
		Annual:    req.Annual,
		Info:      req.Info,
		Extract:   SafeExtract,
	}, req.QuarterlyErr, req.AnnualErr)

	finIssues := quality.NewTracker()
	finIssues.Merge(ttm.Issues)
	norm, cc := r.normalizer.Normalize(ctx, ttm, req.Ticker, req.Info, finIssues)

	ev := r.EnterpriseValue(req.Ticker, in, issues)
	evEBITDA := r.EVToEBITDA(req.Ticker, ev, norm, in, issues)
	ps := r.PriceToSales(req.Ticker, in, norm, issues)
	pe := TrailingPE(req.Ticker, in)

	m := model.ValuationMetrics{
		Ticker: req.Ticker,

		MarketCap:                in.MarketCap,
		MarketCapFormatted:       FormatMagnitude(in.MarketCap, local),
		EnterpriseValue:          ev,
		EnterpriseValueFormatted: FormatMagnitude(ev, local),

		TrailingPE:   pe,
		ForwardPE:    in.ForwardPE,
		PEGRatio:     in.PEGRatio,
		PriceToBook:  in.PriceToBook,
		PriceToSales: ps,
		EVRevenue:    in.EVRevenue,
		EVEBITDA:     evEBITDA,

		TotalRevenue:     norm.RevenueTTM,
		RevenueFormatted: FormatAmount(norm.RevenueTTM, local),
		RevenueLatest:    norm.RevenueLatest,
		RevenueSource:    norm.RevenueSource,
		RevenuePeriod:    norm.RevenuePeriod,
		EBITDA:           norm.EBITDATTM,
		EBITDAFormatted:  FormatAmount(norm.EBITDATTM, local),
		EBITDALatest:     norm.EBITDALatest,
		EBITDASource:     norm.EBITDASource,
		EBITDAPeriod:     norm.EBITDAPeriod,
		EBITDATimestamp:  norm.DataTimestamp,

		FinancialCurrencyDetected: cc.DetectedCurrency,
		CurrencyConversionApplied: cc.ConversionApplied,

		NetIncome:          in.NetIncome,
		NetIncomeFormatted: FormatAmount(in.NetIncome, local),
		TotalCash:          in.TotalCash,
		TotalDebt:          in.TotalDebt,

		EVEBITDAFormatted:     FormatRatio(evEBITDA),
		PriceToSalesFormatted: FormatRatio(ps),
		TrailingPEFormatted:   FormatRatio(pe),
		ForwardPEFormatted:    FormatRatio(in.ForwardPE),
		PEGRatioFormatted:     FormatRatio(in.PEGRatio),
		PriceToBookFormatted:  FormatRatio(in.PriceToBook),
		EVRevenueFormatted:    FormatRatio(in.EVRevenue),
	}

	issues.Merge(finIssues.Issues())
	m.DataQualityScore = CompletenessScore(m)
	r.Validate(m, issues)
	m.DataQualityIssues = issues.Issues()
	return m
}

// EnterpriseValue prefers the reported figure. It is cross-checked against
// market cap and against marketCap + debt - cash; disagreements become
// issues but never replace the reported value. Without a reported figure the
// computed one is used when positive.
func (r *Reconciler) EnterpriseValue(ticker string, in Inputs, issues *quality.Tracker) *float64 {
	var computed *float64
	if in.MarketCap != nil {
		if v := *in.MarketCap + deref(in.TotalDebt) - deref(in.TotalCash); v > 0 {
			computed = ptr(v)
		}
	}

	reported := in.EnterpriseValue
	if reported == nil {
		if computed != nil {
			log.Info().Str("ticker", ticker).Float64("enterprise_value", *computed).Msg("calculated enterprise value")
		}
		return computed
	}

	if mc := in.MarketCap; mc != nil {
		switch {
		case *reported > *mc*r.policy.EVHighMultiple:
			issues.Addf("Enterprise Value seems too high: %s vs Market Cap: %s", formatUnits(*reported), formatUnits(*mc))
		case *reported < *mc*r.policy.EVLowMultiple:
			issues.Addf("Enterprise Value seems too low: %s vs Market Cap: %s", formatUnits(*reported), formatUnits(*mc))
		}
	}
	if computed != nil {
		diff := math.Abs(*computed-*reported) / *reported * 100
		if diff > r.policy.EVDiscrepancyPct {
			issues.Addf("EV calculation discrepancy: %.1f%% difference", diff)
		}
	}
	return reported
}

// EVToEBITDA divides enterprise value by the normalized TTM EBITDA. When that
// is not possible the reported multiple is used and the fallback noted.
func (r *Reconciler) EVToEBITDA(ticker string, ev *float64, ttm model.TTMFinancials, in Inputs, issues *quality.Tracker) *float64 {
	if ev != nil && ttm.EBITDATTM != nil && *ttm.EBITDATTM > 0 {
		ratio := *ev / *ttm.EBITDATTM
		log.Info().Str("ticker", ticker).Float64("ev_ebitda", ratio).Float64("enterprise_value", *ev).
			Float64("ebitda_ttm", *ttm.EBITDATTM).Str("source", ttm.EBITDASource).Msg("calculated EV/EBITDA")
		if !r.policy.EVEBITDABand.Contains(ratio) {
			issues.Addf("EV/EBITDA ratio seems unusual: %.2f", ratio)
		}
		return &ratio
	}
	if in.EVEBITDA != nil {
		issues.Add("Using reported EV/EBITDA (currency-normalized calculation failed)")
	}
	return in.EVEBITDA
}

// PriceToSales divides market cap by the normalized TTM revenue, falling back
// to the reported ratio.
func (r *Reconciler) PriceToSales(ticker string, in Inputs, ttm model.TTMFinancials, issues *quality.Tracker) *float64 {
	if in.MarketCap != nil && ttm.RevenueTTM != nil && *ttm.RevenueTTM > 0 {
		ratio := *in.MarketCap / *ttm.RevenueTTM
		log.Info().Str("ticker", ticker).Float64("price_to_sales", ratio).Float64("market_cap", *in.MarketCap).
			Float64("revenue_ttm", *ttm.RevenueTTM).Str("source", ttm.RevenueSource).Msg("calculated P/S")
		if !r.policy.PriceToSalesBand.Contains(ratio) {
			issues.Addf("P/S ratio seems unusual: %.2f", ratio)
		}
		return &ratio
	}
	return in.PriceToSales
}

// TrailingPE prefers the reported P/E, else price over trailing EPS. A
// negative result is kept: it means losses, not missing data.
func TrailingPE(ticker string, in Inputs) *float64 {
	if in.TrailingPE != nil {
		return in.TrailingPE
	}
	price := in.CurrentPrice
	if price == nil {
		price = in.RegularMarketPrice
	}
	if price == nil || in.TrailingEPS == nil {
		return nil
	}
	pe := *price / *in.TrailingEPS
	log.Info().Str("ticker", ticker).Float64("trailing_pe", pe).Msg("calculated trailing P/E")
	return &pe
}

// Validate reports every metric outside its band. Values are left in place.
func (r *Reconciler) Validate(m model.ValuationMetrics, issues *quality.Tracker) {
	for _, rule := range r.policy.Validation {
		v := metricValue(m, rule.Metric)
		if v != nil && !rule.Range.Contains(*v) {
			issues.Addf("%s outside normal range: %v", rule.Metric, *v)
		}
	}
}

func metricValue(m model.ValuationMetrics, name string) *float64 {
	switch name {
	case "market_cap":
		return m.MarketCap
	case "enterprise_value":
		return m.EnterpriseValue
	case "trailing_pe":
		return m.TrailingPE
	case "forward_pe":
		return m.ForwardPE
	case "peg_ratio":
		return m.PEGRatio
	case "price_to_book":
		return m.PriceToBook
	case "price_to_sales":
		return m.PriceToSales
	case "ev_revenue":
		return m.EVRevenue
	case "ev_ebitda":
		return m.EVEBITDA
	}
	return nil
}

// KeyMetrics is the subset counted by CompletenessScore.
var KeyMetrics = []string{"market_cap", "trailing_pe", "price_to_book", "price_to_sales", "enterprise_value"}

// CompletenessScore is the fraction of KeyMetrics that resolved.
func CompletenessScore(m model.ValuationMetrics) float64 {
	present := 0
	for _, name := range KeyMetrics {
		if metricValue(m, name) != nil {
			present++
		}
	}
	return quality.Score(present, len(KeyMetrics))
}

// FallbackMetrics is the minimal bundle used when the info mapping is
// unavailable.
func FallbackMetrics(ticker string) model.ValuationMetrics {
	return model.ValuationMetrics{
		Ticker:                   ticker,
		MarketCapFormatted:       Unavailable,
		EnterpriseValueFormatted: Unavailable,
		RevenueFormatted:         Unavailable,
		EBITDAFormatted:          Unavailable,
		NetIncomeFormatted:       Unavailable,
		EVEBITDAFormatted:        Unavailable,
		PriceToSalesFormatted:    Unavailable,
		TrailingPEFormatted:      Unavailable,
		ForwardPEFormatted:       Unavailable,
		PEGRatioFormatted:        Unavailable,
		PriceToBookFormatted:     Unavailable,
		EVRevenueFormatted:       Unavailable,
		DataQualityScore:         0,
		DataQualityIssues:        []string{"Failed to extract ticker info"},
	}
}
