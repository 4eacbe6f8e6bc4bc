package calculator

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"Finansle/internal/model"
)

// DefaultMaxPoints bounds the published chart length.
const DefaultMaxPoints = 800

// BuildChartSeries turns provider bars into chart points. Bars without a
// close are dropped; a missing high or low falls back to the close, and a
// missing volume to zero. The result is sorted by day with one point per
// day (the last bar wins).
func BuildChartSeries(bars []model.OHLCV) model.ChartSeries {
	byDay := make(map[time.Time]model.PricePoint, len(bars))
	for _, b := range bars {
		if !finite(b.Close) {
			continue
		}
		price := Round2(b.Close)
		high, low := price, price
		if finite(b.High) && b.High > 0 {
			high = math.Max(Round2(b.High), price)
		}
		if finite(b.Low) && b.Low > 0 {
			low = math.Min(Round2(b.Low), price)
		}
		var volume int64
		if finite(b.Volume) && b.Volume > 0 {
			volume = int64(b.Volume)
		}
		day := truncateDay(b.Time)
		byDay[day] = model.PricePoint{Date: day, Price: price, High: high, Low: low, Volume: volume}
	}

	out := make(model.ChartSeries, 0, len(byDay))
	for _, p := range byDay {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Downsample keeps every second point, counted back from the most recent,
// when the series is longer than maxPoints.
func Downsample(series model.ChartSeries, maxPoints int) model.ChartSeries {
	if maxPoints <= 0 || len(series) <= maxPoints {
		return series
	}
	out := make(model.ChartSeries, 0, len(series)/2+1)
	for i := (len(series) - 1) % 2; i < len(series); i += 2 {
		out = append(out, series[i])
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Round2 rounds half away from zero to two decimals. NaN and infinities
// pass through.
func Round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
