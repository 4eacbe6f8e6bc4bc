package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for chart points.
const DateLayout = "2006-01-02"

// OHLCV represents a single daily bar as delivered by the provider.
// A missing close is represented as NaN.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PricePoint is one cleaned chart point. High >= Price >= Low holds for
// every point leaving the calculator package.
type PricePoint struct {
	Date   time.Time
	Price  float64
	High   float64
	Low    float64
	Volume int64
}

type pricePointJSON struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume int64   `json:"volume"`
}

// MarshalJSON writes the date as YYYY-MM-DD.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(pricePointJSON{
		Date:   p.Date.Format(DateLayout),
		Price:  p.Price,
		High:   p.High,
		Low:    p.Low,
		Volume: p.Volume,
	})
}

// UnmarshalJSON reads a chart point written by MarshalJSON.
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw pricePointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("parse chart date %q: %w", raw.Date, err)
	}
	*p = PricePoint{Date: d, Price: raw.Price, High: raw.High, Low: raw.Low, Volume: raw.Volume}
	return nil
}

// ChartSeries is strictly increasing by date with no duplicate dates.
type ChartSeries []PricePoint

// Prices returns the price column.
func (s ChartSeries) Prices() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Price
	}
	return out
}
