package notifier

import (
	"fmt"
	"sort"
	"strings"

	"Finansle/internal/calculator"
	"Finansle/internal/model"
	"Finansle/internal/quality"
	"Finansle/internal/valuation"
)

// Thresholds below which a published record deserves a second look.
const (
	MinChartPoints  = 100
	MinQualityScore = 0.5
	IssueLimit      = 5
)

// FormatSummary formats a merged record for the console. Prices are shown in
// the local currency.
func FormatSummary(rec *model.StockRecord, currency string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 %s (%s)\n\n", rec.CompanyName, rec.Ticker))
	b.WriteString(fmt.Sprintf("Current Price: %.2f %s\n", rec.CurrentPrice, currency))
	b.WriteString(fmt.Sprintf("Market Cap: %s\n", orUnavailable(rec.MarketCapFormatted)))
	b.WriteString(fmt.Sprintf("Sector: %s | Industry: %s\n", rec.Sector, rec.Industry))

	b.WriteString(fmt.Sprintf("52W Range: %.2f - %.2f %s", rec.Price52wLow, rec.Price52wHigh, currency))
	if pos, err := calculator.Calculate52WeekPosition(rec.CurrentPrice, rec.Price52wHigh, rec.Price52wLow); err == nil && rec.Price52wHigh > 0 {
		b.WriteString(fmt.Sprintf(" (at %.0f%%)", pos*100))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Performance 1Y: %+.1f%% | 5Y: %+.1f%%\n", rec.Performance1y, rec.Performance5y))
	b.WriteString(fmt.Sprintf("Volatility: %.1f%%\n\n", rec.Volatility))

	b.WriteString(fmt.Sprintf("P/E: %s\n", orUnavailable(rec.TrailingPEFormatted)))
	b.WriteString(fmt.Sprintf("P/S: %s\n", orUnavailable(rec.PriceToSalesFormatted)))
	b.WriteString(fmt.Sprintf("EV/EBITDA: %s\n", orUnavailable(rec.EVEBITDAFormatted)))
	b.WriteString(fmt.Sprintf("Revenue: %s\n", orUnavailable(rec.RevenueFormatted)))
	b.WriteString(fmt.Sprintf("Data Quality Score: %.2f/1.0\n", rec.DataQualityScore))
	if rec.DifficultyRating != "" {
		b.WriteString(fmt.Sprintf("Difficulty: %s\n", rec.DifficultyRating))
	}
	b.WriteString(fmt.Sprintf("Chart Points: %d\n", len(rec.ChartData)))

	if len(rec.DataQualityIssues) > 0 {
		b.WriteString("\n⚠️ Data Quality Issues:\n")
		for _, issue := range quality.Display(rec.DataQualityIssues, IssueLimit) {
			b.WriteString(fmt.Sprintf("  - %s\n", issue))
		}
	}

	return b.String()
}

// Warnings returns the post-run checks that failed for rec.
func Warnings(rec *model.StockRecord) []string {
	var out []string
	if n := len(rec.ChartData); n < MinChartPoints {
		out = append(out, fmt.Sprintf("Only %d chart points available", n))
	}
	if rec.DataQualityScore < MinQualityScore {
		out = append(out, fmt.Sprintf("Low data quality score: %.2f", rec.DataQualityScore))
	}
	return out
}

// FormatBatchReport summarizes a batch run, one line per ticker.
func FormatBatchReport(recs []*model.StockRecord, failed map[string]error) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 Batch: %d ok, %d failed\n\n", len(recs), len(failed)))
	for _, rec := range recs {
		b.WriteString(fmt.Sprintf("  %-10s %10.2f  quality %.2f  %s\n",
			rec.Ticker, rec.CurrentPrice, rec.DataQualityScore, rec.DifficultyRating))
	}
	tickers := make([]string, 0, len(failed))
	for t := range failed {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	for _, t := range tickers {
		b.WriteString(fmt.Sprintf("  %-10s failed: %v\n", t, failed[t]))
	}
	return b.String()
}

func orUnavailable(s string) string {
	if s == "" {
		return valuation.Unavailable
	}
	return s
}
