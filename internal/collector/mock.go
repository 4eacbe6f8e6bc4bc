package collector

import (
	"context"
	"strconv"
	"strings"
	"time"

	"Finansle/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	Info      model.RawSnapshot
	Quarterly *model.StatementTable
	Annual    *model.StatementTable
	DailyData []model.OHLCV

	InfoErr      error
	StatementErr error
	HistoryErr   error
	PriceErr     error

	Calls map[string]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) count(op string) {
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[op]++
}

func (m *MockFetcher) FetchInfo(_ context.Context, _ string) (model.RawSnapshot, error) {
	m.count("info")
	return m.Info, m.InfoErr
}

func (m *MockFetcher) FetchStatements(_ context.Context, _ string, freq model.Frequency) (*model.StatementTable, error) {
	m.count(string(freq))
	if m.StatementErr != nil {
		return nil, m.StatementErr
	}
	if freq == model.Quarterly {
		return m.Quarterly, nil
	}
	return m.Annual, nil
}

func (m *MockFetcher) FetchDailyHistory(_ context.Context, _ string, period string) ([]model.OHLCV, error) {
	m.count("history:" + period)
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	days := periodDays(period)
	if m.DailyData != nil {
		if len(m.DailyData) > days {
			return m.DailyData[len(m.DailyData)-days:], nil
		}
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days), nil
}

func (m *MockFetcher) FetchCurrentPrice(_ context.Context, _ string) (float64, error) {
	m.count("price")
	if m.PriceErr != nil {
		return 0, m.PriceErr
	}
	return m.Price, nil
}

// periodDays converts a provider period such as "5d", "6mo" or "5y" into
// trading days.
func periodDays(period string) int {
	p := strings.ToLower(strings.TrimSpace(period))
	for _, unit := range []struct {
		suffix string
		days   int
	}{{"mo", 21}, {"y", 252}, {"d", 1}} {
		if n, err := strconv.Atoi(strings.TrimSuffix(p, unit.suffix)); err == nil && strings.HasSuffix(p, unit.suffix) {
			return n * unit.days
		}
	}
	return 252
}

func generateMockBars(basePrice float64, count int) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   today.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
