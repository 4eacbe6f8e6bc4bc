package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Finansle/internal/model"
)

var day0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func seriesOf(prices ...float64) model.ChartSeries {
	out := make(model.ChartSeries, len(prices))
	for i, p := range prices {
		out[i] = model.PricePoint{Date: day0.AddDate(0, 0, i), Price: p, High: p, Low: p}
	}
	return out
}

func TestBuildChartSeries(t *testing.T) {
	nan := math.NaN()
	bars := []model.OHLCV{
		{Time: day0.AddDate(0, 0, 2).Add(9 * time.Hour), Open: 11, High: 12.345, Low: 10.004, Close: 11.116, Volume: 1500},
		{Time: day0, Close: 10, High: nan, Low: nan, Volume: nan},
		{Time: day0.AddDate(0, 0, 1), Close: nan, High: 9, Low: 8},
		{Time: day0.AddDate(0, 0, 3), Close: 12, High: 11.5, Low: 12.5, Volume: 10},
	}

	got := BuildChartSeries(bars)
	require.Len(t, got, 3)

	assert.Equal(t, day0, got[0].Date)
	assert.Equal(t, model.PricePoint{Date: day0, Price: 10, High: 10, Low: 10}, got[0])

	assert.Equal(t, day0.AddDate(0, 0, 2), got[1].Date)
	assert.Equal(t, 11.12, got[1].Price)
	assert.Equal(t, 12.35, got[1].High)
	assert.Equal(t, 10.0, got[1].Low)
	assert.Equal(t, int64(1500), got[1].Volume)

	// inconsistent provider high/low are widened around the close
	assert.Equal(t, 12.0, got[2].High)
	assert.Equal(t, 12.0, got[2].Low)
}

func TestBuildChartSeries_DedupesDays(t *testing.T) {
	got := BuildChartSeries([]model.OHLCV{
		{Time: day0.Add(10 * time.Hour), Close: 10},
		{Time: day0.Add(16 * time.Hour), Close: 11},
	})
	require.Len(t, got, 1)
	assert.Equal(t, 11.0, got[0].Price)
}

func TestDownsample(t *testing.T) {
	s := seriesOf(1, 2, 3, 4, 5)
	assert.Equal(t, s, Downsample(s, 5))

	got := Downsample(s, 4)
	assert.Equal(t, []float64{1, 3, 5}, got.Prices())

	got = Downsample(seriesOf(1, 2, 3, 4, 5, 6), 4)
	assert.Equal(t, []float64{2, 4, 6}, got.Prices())
}

func TestSmoothAnomalies_SpikeReplaced(t *testing.T) {
	in := seriesOf(100, 100, 100, 100, 100, 100, 100, 100, 100, 1000, 100, 100)

	out, corrections := SmoothAnomalies(in, DefaultSmoothingOptions())

	require.Len(t, corrections, 1)
	assert.Equal(t, 1000.0, corrections[0].Before)
	assert.Equal(t, 100.0, corrections[0].After)
	assert.Equal(t, 100.0, out[9].Price)
	assert.GreaterOrEqual(t, out[9].High, 100*1.02)
	assert.LessOrEqual(t, out[9].Low, 100*0.98)
	assert.GreaterOrEqual(t, out[9].High, out[9].Price)
	assert.LessOrEqual(t, out[9].Low, out[9].Price)

	// input untouched
	assert.Equal(t, 1000.0, in[9].Price)
}

func TestSmoothAnomalies_NoOpWithoutAnomalies(t *testing.T) {
	in := seriesOf(100, 101, 99, 102, 98, 100, 103, 97, 100, 101, 99, 100)
	out, corrections := SmoothAnomalies(in, DefaultSmoothingOptions())
	assert.Empty(t, corrections)
	assert.Equal(t, in, out)

	again, _ := SmoothAnomalies(out, DefaultSmoothingOptions())
	assert.Equal(t, out, again)
}

func TestSmoothAnomalies_ShortSeriesUntouched(t *testing.T) {
	in := seriesOf(100, 100, 100, 1000, 100, 100, 100, 100, 100)
	out, corrections := SmoothAnomalies(in, DefaultSmoothingOptions())
	assert.Empty(t, corrections)
	assert.Equal(t, in, out)
}

func TestSmoothAnomalies_EndpointUsesMedian(t *testing.T) {
	in := seriesOf(100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 5)
	out, corrections := SmoothAnomalies(in, DefaultSmoothingOptions())
	require.Len(t, corrections, 1)
	// window of 3 clipped at the edge: [100, 5] -> median 52.5, 5 < 52.5/3
	assert.Equal(t, 52.5, out[11].Price)
	assert.GreaterOrEqual(t, out[11].High, out[11].Price)
	assert.LessOrEqual(t, out[11].Low, out[11].Price)
}

func TestSmoothAnomalies_ConfigurableThreshold(t *testing.T) {
	in := seriesOf(100, 100, 100, 100, 100, 100, 100, 100, 100, 1000, 100, 100)
	opts := DefaultSmoothingOptions()
	opts.ThresholdMultiplier = 20
	_, corrections := SmoothAnomalies(in, opts)
	assert.Empty(t, corrections)
}

func TestComputePerformance(t *testing.T) {
	t.Run("single point", func(t *testing.T) {
		assert.Equal(t, model.PerformanceMetrics{}, ComputePerformance(seriesOf(42)))
	})

	t.Run("two points", func(t *testing.T) {
		s := model.ChartSeries{
			{Date: day0, Price: 50},
			{Date: day0.AddDate(0, 0, 1), Price: 100},
		}
		got := ComputePerformance(s)
		assert.Equal(t, 100.0, got.Performance5y)
		assert.Equal(t, 100.0, got.Performance2y)
		assert.Equal(t, 100.0, got.Performance1y)
		assert.Equal(t, 0.0, got.Volatility)
	})

	t.Run("horizons pick first point on or after target", func(t *testing.T) {
		end := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
		s := model.ChartSeries{
			{Date: end.AddDate(-5, 0, 0), Price: 10},
			{Date: end.AddDate(-2, 0, -3), Price: 15},
			{Date: end.AddDate(-2, 0, 2), Price: 20},
			{Date: end.AddDate(-1, 0, 0), Price: 25},
			{Date: end, Price: 50},
		}
		got := ComputePerformance(s)
		assert.Equal(t, 400.0, got.Performance5y)
		assert.Equal(t, 150.0, got.Performance2y)
		assert.Equal(t, 100.0, got.Performance1y)
	})

	t.Run("non-positive reference price", func(t *testing.T) {
		s := seriesOf(0, 10)
		assert.Equal(t, 0.0, ComputePerformance(s).Performance5y)
	})
}

func TestAnnualizedVolatility(t *testing.T) {
	// alternating +10% / -10% style returns: 100, 110, 99, 108.9
	s := seriesOf(100, 110, 99, 108.9)
	got := AnnualizedVolatility(s)
	// returns 0.1, -0.1, 0.1 -> mean 1/30, population std = sqrt(2/225)
	want := math.Sqrt(2.0/225.0) * math.Sqrt(252) * 100
	assert.InDelta(t, want, got, 1e-9)

	assert.Equal(t, 0.0, AnnualizedVolatility(seriesOf(100, 110)))
	assert.Equal(t, 0.0, AnnualizedVolatility(seriesOf(100, 100, 100)))
}

func TestAnnualizedVolatility_UsesLastYear(t *testing.T) {
	prices := make([]float64, 0, 300)
	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			prices = append(prices, 50)
		} else {
			prices = append(prices, 150)
		}
	}
	for i := 0; i < 252; i++ {
		prices = append(prices, 100)
	}
	assert.Equal(t, 0.0, AnnualizedVolatility(seriesOf(prices...)))
}

func TestCalculate52WeekRange(t *testing.T) {
	_, _, err := Calculate52WeekRange(nil)
	assert.Error(t, err)

	end := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	s := model.ChartSeries{
		{Date: end.AddDate(-2, 0, 0), Price: 500},
		{Date: end.AddDate(-1, 0, 0), Price: 80},
		{Date: end.AddDate(0, -6, 0), Price: 140},
		{Date: end, Price: 120},
	}
	high, low, err := Calculate52WeekRange(s)
	require.NoError(t, err)
	assert.Equal(t, 140.0, high)
	assert.Equal(t, 80.0, low)
}

func TestCalculate52WeekPosition(t *testing.T) {
	tests := []struct {
		current, high, low float64
		want               float64
		wantErr            bool
	}{
		{100, 150, 50, 0.5, false},
		{200, 150, 50, 1, false},
		{10, 150, 50, 0, false},
		{100, 100, 100, 0.5, false},
		{100, 50, 150, 0, true},
	}
	for _, tt := range tests {
		got, err := Calculate52WeekPosition(tt.current, tt.high, tt.low)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9)
	}
}
