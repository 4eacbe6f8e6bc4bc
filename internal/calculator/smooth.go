package calculator

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"Finansle/internal/model"
)

// SmoothingOptions tunes anomaly detection.
type SmoothingOptions struct {
	// ThresholdMultiplier flags prices above median*m or below median/m.
	ThresholdMultiplier float64
	// MinLength is the shortest series that is inspected at all.
	MinLength int
	// MaxWindow caps the rolling window; the window is otherwise len/4.
	MaxWindow int
}

// DefaultSmoothingOptions returns the production settings.
func DefaultSmoothingOptions() SmoothingOptions {
	return SmoothingOptions{ThresholdMultiplier: 3.0, MinLength: 10, MaxWindow: 10}
}

// Correction records one replaced price.
type Correction struct {
	Date   time.Time
	Before float64
	After  float64
	Median float64
}

// SmoothAnomalies replaces prices that stray too far from the rolling median
// of their neighbourhood. It makes one left-to-right pass, so medians and
// interpolations see already-corrected points to the left. Endpoints take the
// window median; interior points take the mean of their two neighbours.
// The input is not modified.
func SmoothAnomalies(series model.ChartSeries, opts SmoothingOptions) (model.ChartSeries, []Correction) {
	out := make(model.ChartSeries, len(series))
	copy(out, series)
	if len(out) < opts.MinLength || len(out) == 0 || opts.ThresholdMultiplier <= 0 {
		return out, nil
	}

	n := len(out)
	window := min(opts.MaxWindow, n/4)
	half := window / 2

	var corrections []Correction
	for i := range out {
		start := max(0, i-half)
		end := min(n, i+half+1)
		median := medianPrice(out[start:end])

		price := out[i].Price
		if price <= median*opts.ThresholdMultiplier && price >= median/opts.ThresholdMultiplier {
			continue
		}

		var replaced float64
		if i == 0 || i == n-1 {
			replaced = Round2(median)
		} else {
			replaced = Round2((out[i-1].Price + out[i+1].Price) / 2)
		}
		out[i].Price = replaced
		out[i].High = Round2(max(replaced*1.02, out[i].High))
		out[i].Low = Round2(min(replaced*0.98, out[i].Low))

		log.Warn().Str("date", out[i].Date.Format(model.DateLayout)).Float64("before", price).
			Float64("after", replaced).Float64("median", median).Msg("smoothed price anomaly")
		corrections = append(corrections, Correction{Date: out[i].Date, Before: price, After: replaced, Median: median})
	}
	return out, corrections
}

func medianPrice(points []model.PricePoint) float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	sort.Float64s(prices)
	n := len(prices)
	if n%2 == 1 {
		return prices[n/2]
	}
	return (prices[n/2-1] + prices[n/2]) / 2
}
