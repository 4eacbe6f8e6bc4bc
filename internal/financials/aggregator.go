// Package financials derives trailing-twelve-month EBITDA and revenue from
// statement tables through an ordered cascade of fallback tiers.
package financials

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"Finansle/internal/model"
)

// Aggregator runs the tier cascade independently for each metric.
type Aggregator struct {
	tiers []Tier
}

// NewAggregator builds an aggregator over tiers, or DefaultTiers when none
// are given.
func NewAggregator(tiers ...Tier) *Aggregator {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &Aggregator{tiers: tiers}
}

// Resolve returns the first successful tier result for m along with every
// issue raised on the way.
func (a *Aggregator) Resolve(in Input, m Metric) (Resolution, []string, bool) {
	var issues []string
	for _, tier := range a.tiers {
		res, tierIssues, ok := attempt(tier, in, m)
		issues = append(issues, tierIssues...)
		if ok {
			log.Info().Str("ticker", in.Ticker).Str("metric", m.Name).
				Str("source", res.Source).Float64("ttm", res.TTM).Msg("resolved TTM figure")
			return res, issues, true
		}
	}
	return Resolution{}, issues, false
}

func attempt(tier Tier, in Input, m Metric) (res Resolution, issues []string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Str("ticker", in.Ticker).Str("tier", tier.Name()).Interface("panic", r).Msg("tier failed")
			res, ok = Resolution{}, false
			issues = append(issues, fmt.Sprintf("%s tier failed for %s: %v", tier.Name(), m.Name, r))
		}
	}()
	return tier.Attempt(in, m)
}

// Aggregate resolves EBITDA and revenue. Statement load errors are passed in
// so they surface as issues rather than aborting the extraction.
func (a *Aggregator) Aggregate(in Input, quarterlyErr, annualErr error) model.TTMFinancials {
	var out model.TTMFinancials
	if quarterlyErr != nil {
		out.Issues = append(out.Issues, fmt.Sprintf("Quarterly TTM calculation failed: %v", quarterlyErr))
	}
	if annualErr != nil {
		out.Issues = append(out.Issues, fmt.Sprintf("Annual financials failed: %v", annualErr))
	}

	if res, issues, ok := a.Resolve(in, EBITDA); ok {
		out.EBITDATTM = ptr(res.TTM)
		out.EBITDALatest = ptr(res.Latest)
		out.EBITDASource = res.Source
		out.EBITDAPeriod = res.Period
		out.DataTimestamp = timestamp(res.AsOf)
		out.Issues = append(out.Issues, issues...)
		warnLowConfidence(in.Ticker, EBITDA, res)
	} else {
		out.Issues = append(out.Issues, issues...)
	}

	if res, issues, ok := a.Resolve(in, Revenue); ok {
		out.RevenueTTM = ptr(res.TTM)
		out.RevenueLatest = ptr(res.Latest)
		out.RevenueSource = res.Source
		out.RevenuePeriod = res.Period
		if out.DataTimestamp == nil {
			out.DataTimestamp = timestamp(res.AsOf)
		}
		out.Issues = append(out.Issues, issues...)
		warnLowConfidence(in.Ticker, Revenue, res)
	} else {
		out.Issues = append(out.Issues, issues...)
	}
	return out
}

func warnLowConfidence(ticker string, m Metric, res Resolution) {
	if res.Source == model.SourceInfoDict || strings.HasPrefix(res.Source, model.SourceQuarterlyEstimated) {
		log.Warn().Str("ticker", ticker).Str("metric", m.Name).Str("source", res.Source).
			Float64("ttm", res.TTM).Msg("low-confidence TTM figure")
	}
}

func ptr(v float64) *float64 { return &v }

func timestamp(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
