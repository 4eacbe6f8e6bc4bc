package model

import "time"

// Listing is one entry of the exchange listings file.
type Listing struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// StockRecord is the merged per-ticker record handed to the recorder.
type StockRecord struct {
	CompanyName  string  `json:"company_name"`
	Ticker       string  `json:"ticker"`
	CurrentPrice float64 `json:"current_price"`
	Sector       string  `json:"sector"`
	Industry     string  `json:"industry"`
	Employees    int64   `json:"employees"`
	Headquarters string  `json:"headquarters"`
	Description  string  `json:"description"`

	Price52wHigh float64 `json:"price_52w_high"`
	Price52wLow  float64 `json:"price_52w_low"`

	PerformanceMetrics
	ValuationMetrics

	ChartData   ChartSeries `json:"chart_data"`
	LastUpdated string      `json:"last_updated"`
	RunID       string      `json:"run_id"`

	DifficultyRating string   `json:"difficulty_rating,omitempty"`
	HintCategories   []string `json:"hint_categories,omitempty"`
}

// Timestamp formats t the way last_updated is published.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}
