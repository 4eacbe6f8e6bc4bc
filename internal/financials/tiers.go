package financials

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"Finansle/internal/model"
	"Finansle/internal/quality"
)

// Metric names a statement figure and the ordered aliases it may appear under.
type Metric struct {
	Name             string
	QuarterlyAliases []string
	AnnualAliases    []string
	InfoKey          string
}

var (
	// EBITDA falls back to EBIT and operating income on annual statements only.
	EBITDA = Metric{
		Name:             "EBITDA",
		QuarterlyAliases: []string{"EBITDA", "Normalized EBITDA"},
		AnnualAliases:    []string{"EBITDA", "Normalized EBITDA", "EBIT", "Operating Income"},
		InfoKey:          "ebitda",
	}
	Revenue = Metric{
		Name:             "Revenue",
		QuarterlyAliases: []string{"Total Revenue", "Revenue", "Net Sales"},
		AnnualAliases:    []string{"Total Revenue", "Revenue", "Net Sales"},
		InfoKey:          "totalRevenue",
	}
)

// Extractor reads one numeric field from the info snapshot. It returns nil
// for absent or unusable values and records why on issues.
type Extractor func(info model.RawSnapshot, key string, issues *quality.Tracker) *float64

// Input is everything the tiers may draw on. A nil table means the
// statement could not be loaded. A nil Extract falls back to a plain numeric
// read without issues.
type Input struct {
	Ticker    string
	Quarterly *model.StatementTable
	Annual    *model.StatementTable
	Info      model.RawSnapshot
	Extract   Extractor
}

// Resolution is a successful tier result.
type Resolution struct {
	TTM    float64
	Latest float64
	Source string
	Period string
	AsOf   time.Time
}

// Tier is one step of the fallback cascade.
type Tier interface {
	Name() string
	Attempt(in Input, m Metric) (Resolution, []string, bool)
}

// DefaultTiers returns the cascade in trust order.
func DefaultTiers() []Tier {
	return []Tier{QuarterlyTTM{}, QuarterlyEstimate{}, AnnualStatement{}, InfoDict{}}
}

const quartersPerYear = 4

// QuarterlyTTM sums the four most recent quarters.
type QuarterlyTTM struct{}

func (QuarterlyTTM) Name() string { return model.SourceQuarterlyTTM }

func (QuarterlyTTM) Attempt(in Input, m Metric) (Resolution, []string, bool) {
	if in.Quarterly.Empty() || in.Quarterly.Columns() < quartersPerYear {
		return Resolution{}, nil, false
	}
	alias, vals, _, ok := recentRow(in.Quarterly, m.QuarterlyAliases, quartersPerYear)
	if !ok || len(vals) < quartersPerYear {
		return Resolution{}, nil, false
	}
	asOf := in.Quarterly.Periods[0]
	return Resolution{
		TTM:    sum(vals),
		Latest: vals[0],
		Source: model.SourceQuarterlyTTM + "." + alias,
		Period: "TTM_ending_" + quarterLabel(asOf),
		AsOf:   asOf,
	}, nil, true
}

// QuarterlyEstimate annualizes two or three populated cells among the four
// most recent quarters. Tables with fewer than four quarters are left to the
// annual tier. The result is always reported as an issue.
type QuarterlyEstimate struct{}

func (QuarterlyEstimate) Name() string { return model.SourceQuarterlyEstimated }

func (QuarterlyEstimate) Attempt(in Input, m Metric) (Resolution, []string, bool) {
	if in.Quarterly.Empty() || in.Quarterly.Columns() < quartersPerYear {
		return Resolution{}, nil, false
	}
	alias, vals, first, ok := recentRow(in.Quarterly, m.QuarterlyAliases, quartersPerYear)
	if !ok || len(vals) >= quartersPerYear {
		return Resolution{}, nil, false
	}
	n := len(vals)
	estimate := sum(vals) / float64(n) * quartersPerYear
	return Resolution{
			TTM:    estimate,
			Latest: vals[0],
			Source: model.SourceQuarterlyEstimated + "." + alias,
			Period: fmt.Sprintf("TTM_estimated_%dQ", n),
			AsOf:   in.Quarterly.Periods[first],
		}, []string{
			fmt.Sprintf("TTM %s estimated from %d quarters", m.Name, n),
		}, true
}

// AnnualStatement uses the most recent fiscal year as a TTM proxy.
type AnnualStatement struct{}

func (AnnualStatement) Name() string { return model.SourceAnnualFinancials }

func (AnnualStatement) Attempt(in Input, m Metric) (Resolution, []string, bool) {
	if in.Annual.Empty() {
		return Resolution{}, nil, false
	}
	latest := in.Annual.Periods[0]
	for _, alias := range m.AnnualAliases {
		row, ok := in.Annual.Row(alias)
		if !ok || len(row) == 0 {
			continue
		}
		v := row[0]
		if math.IsNaN(v) || v == 0 {
			continue
		}
		return Resolution{
			TTM:    v,
			Latest: v,
			Source: model.SourceAnnualFinancials + "." + alias,
			Period: strconv.Itoa(latest.Year()),
			AsOf:   latest,
		}, nil, true
	}
	return Resolution{}, nil, false
}

// InfoDict takes the provider's scalar figure whose TTM status is unknown.
type InfoDict struct{}

func (InfoDict) Name() string { return model.SourceInfoDict }

func (InfoDict) Attempt(in Input, m Metric) (Resolution, []string, bool) {
	extract := in.Extract
	if extract == nil {
		extract = numberOf
	}
	issues := quality.NewTracker()
	v := extract(in.Info, m.InfoKey, issues)
	if v == nil || *v == 0 {
		return Resolution{}, issues.Issues(), false
	}
	issues.Addf("Using info dict %s (TTM status uncertain)", m.Name)
	return Resolution{
		TTM:    *v,
		Latest: *v,
		Source: model.SourceInfoDict,
		Period: "TTM_estimated",
	}, issues.Issues(), true
}

func numberOf(info model.RawSnapshot, key string, _ *quality.Tracker) *float64 {
	if v, ok := info.Number(key); ok {
		return &v
	}
	return nil
}

// recentRow finds the first alias with at least two populated cells among the
// most recent window columns. vals holds those cells, most recent first, and
// first is the column index of vals[0].
func recentRow(t *model.StatementTable, aliases []string, window int) (alias string, vals []float64, first int, ok bool) {
	for _, a := range aliases {
		row, found := t.Row(a)
		if !found {
			continue
		}
		var picked []float64
		firstCol := -1
		for col := 0; col < window && col < len(row); col++ {
			if math.IsNaN(row[col]) {
				continue
			}
			if firstCol < 0 {
				firstCol = col
			}
			picked = append(picked, row[col])
		}
		if len(picked) >= 2 {
			return a, picked, firstCol, true
		}
	}
	return "", nil, 0, false
}

func sum(vals []float64) float64 {
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total
}

func quarterLabel(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}
