package collector

import (
	"context"
	"errors"
	"strings"

	"Finansle/internal/model"
)

var (
	// ErrNoData means the provider answered but had nothing for the ticker.
	ErrNoData = errors.New("no data returned")
	// ErrNoPrice means every current-price source came up empty.
	ErrNoPrice = errors.New("could not determine current price")
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	FetchInfo(ctx context.Context, ticker string) (model.RawSnapshot, error)
	FetchStatements(ctx context.Context, ticker string, freq model.Frequency) (*model.StatementTable, error)
	FetchDailyHistory(ctx context.Context, ticker, period string) ([]model.OHLCV, error)
	FetchCurrentPrice(ctx context.Context, ticker string) (float64, error)
	Name() string
}

// NormalizeTicker upper-cases and trims ticker and appends the exchange
// suffix when it is missing.
func NormalizeTicker(ticker, suffix string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" || suffix == "" {
		return t
	}
	suffix = strings.ToUpper(suffix)
	if strings.HasSuffix(t, suffix) {
		return t
	}
	return t + suffix
}
