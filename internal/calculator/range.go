package calculator

import (
	"errors"
	"math"

	"Finansle/internal/model"
)

// Calculate52WeekRange returns the highest and lowest chart price within one
// calendar year of the most recent point.
func Calculate52WeekRange(series model.ChartSeries) (high, low float64, err error) {
	if len(series) == 0 {
		return 0, 0, errors.New("no chart points provided")
	}
	since := series[len(series)-1].Date.AddDate(-1, 0, 0)
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range series {
		if p.Date.Before(since) {
			continue
		}
		high = math.Max(high, p.Price)
		low = math.Min(low, p.Price)
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
