package model

// PerformanceMetrics holds percentage performance over several horizons and
// the annualized volatility, all derived from the chart series.
type PerformanceMetrics struct {
	Performance5y float64 `json:"performance_5y"`
	Performance2y float64 `json:"performance_2y"`
	Performance1y float64 `json:"performance_1y"`
	Volatility    float64 `json:"volatility"`
}
