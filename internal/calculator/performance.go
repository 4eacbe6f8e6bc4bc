package calculator

import (
	"math"
	"time"

	"Finansle/internal/model"
)

// TradingDaysPerYear is the annualization factor for daily volatility.
const TradingDaysPerYear = 252

// ComputePerformance derives percentage performance over the full series
// (the 5y horizon), two years and one year, plus annualized volatility from
// the most recent year of daily returns. Fewer than two points yield zeros.
func ComputePerformance(series model.ChartSeries) model.PerformanceMetrics {
	if len(series) < 2 {
		return model.PerformanceMetrics{}
	}
	first := series[0].Price
	last := series[len(series)-1]

	return model.PerformanceMetrics{
		Performance5y: Round2(pctChange(first, last.Price)),
		Performance2y: Round2(pctChange(priceOnOrAfter(series, last.Date.AddDate(-2, 0, 0)), last.Price)),
		Performance1y: Round2(pctChange(priceOnOrAfter(series, last.Date.AddDate(-1, 0, 0)), last.Price)),
		Volatility:    Round2(AnnualizedVolatility(series)),
	}
}

// AnnualizedVolatility is the population standard deviation of simple daily
// returns over the last TradingDaysPerYear points, scaled by sqrt(252) and
// expressed in percent. Fewer than two returns yield zero.
func AnnualizedVolatility(series model.ChartSeries) float64 {
	sample := series
	if len(sample) > TradingDaysPerYear {
		sample = sample[len(sample)-TradingDaysPerYear:]
	}

	returns := make([]float64, 0, len(sample))
	for i := 1; i < len(sample); i++ {
		prev := sample[i-1].Price
		if prev > 0 {
			returns = append(returns, (sample[i].Price-prev)/prev)
		}
	}
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear) * 100
}

func pctChange(from, to float64) float64 {
	if from <= 0 {
		return 0
	}
	return (to - from) / from * 100
}

// priceOnOrAfter returns the first price dated on or after target, or the
// first price of the series when none qualifies.
func priceOnOrAfter(series model.ChartSeries, target time.Time) float64 {
	for _, p := range series {
		if !p.Date.Before(target) {
			return p.Price
		}
	}
	return series[0].Price
}
