package currency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Finansle/internal/model"
	"Finansle/internal/quality"
	"Finansle/internal/retry"
)

var fastRetry = retry.Policy{Attempts: 2, InitialDelay: time.Millisecond, BackoffFactor: 1}

type stubSource struct {
	name  string
	rate  float64
	err   error
	calls int
	// flaky fails this many calls before answering with rate.
	flaky int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchUSDRate(_ context.Context, _ string) (float64, error) {
	s.calls++
	if s.calls <= s.flaky {
		return 0, errors.New("temporarily unavailable")
	}
	return s.rate, s.err
}

func ptr(v float64) *float64 { return &v }

func TestUSDRate_FirstSuccessWins(t *testing.T) {
	failing := &stubSource{name: "a", err: errors.New("down")}
	ok := &stubSource{name: "b", rate: 11.2}
	unused := &stubSource{name: "c", rate: 9.9}

	n := NewNormalizer(Options{Retry: fastRetry}, failing, ok, unused)
	assert.Equal(t, 11.2, n.USDRate(context.Background()))
	assert.Equal(t, 2, failing.calls)
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 0, unused.calls)
}

func TestUSDRate_RetriesFlakySource(t *testing.T) {
	flaky := &stubSource{name: "a", rate: 11.0, flaky: 1}
	backup := &stubSource{name: "b", rate: 9.9}

	n := NewNormalizer(Options{Retry: fastRetry}, flaky, backup)
	assert.Equal(t, 11.0, n.USDRate(context.Background()))
	assert.Equal(t, 2, flaky.calls)
	assert.Equal(t, 0, backup.calls)
}

func TestUSDRate_CachedUntilExpiry(t *testing.T) {
	src := &stubSource{name: "a", rate: 10.8}
	n := NewNormalizer(Options{CacheTTL: time.Hour}, src)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return clock }

	n.USDRate(context.Background())
	clock = clock.Add(59 * time.Minute)
	n.USDRate(context.Background())
	assert.Equal(t, 1, src.calls)

	clock = clock.Add(2 * time.Minute)
	src.rate = 11.0
	assert.Equal(t, 11.0, n.USDRate(context.Background()))
	assert.Equal(t, 2, src.calls)
}

func TestUSDRate_FallbackWhenAllFail(t *testing.T) {
	n := NewNormalizer(Options{Retry: fastRetry},
		&stubSource{name: "a", err: errors.New("x")},
		&stubSource{name: "b", err: errors.New("y")},
		&stubSource{name: "c", err: errors.New("z")},
	)
	assert.Equal(t, DefaultFallbackRate, n.USDRate(context.Background()))

	custom := NewNormalizer(Options{FallbackRate: 9.75})
	assert.Equal(t, 9.75, custom.USDRate(context.Background()))
}

func TestDetectStatementCurrency(t *testing.T) {
	n := NewNormalizer(Options{})
	tests := []struct {
		name string
		info model.RawSnapshot
		want string
	}{
		{"financial currency field", model.RawSnapshot{"financialCurrency": "eur", "currency": "USD"}, "EUR"},
		{"trading currency USD", model.RawSnapshot{"currency": "USD"}, "USD"},
		{"trading currency NOK ignored", model.RawSnapshot{"currency": "NOK"}, "NOK"},
		{"large market cap", model.RawSnapshot{"marketCap": 60e9}, "USD"},
		{"many employees", model.RawSnapshot{"fullTimeEmployees": 12000}, "USD"},
		{"energy sector", model.RawSnapshot{"sector": "Energy"}, "USD"},
		{"oil in sector", model.RawSnapshot{"sector": "Oil & Gas"}, "USD"},
		{"default local", model.RawSnapshot{"sector": "Technology", "marketCap": 5e9}, "NOK"},
		{"empty info", nil, "NOK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.DetectStatementCurrency("TEST.OL", tt.info))
		})
	}
}

func TestConvertToLocal(t *testing.T) {
	src := &stubSource{name: "a", rate: 10}
	n := NewNormalizer(Options{}, src)
	ctx := context.Background()

	t.Run("local currency is a no-op", func(t *testing.T) {
		in := ptr(123.45)
		out := n.ConvertToLocal(ctx, in, "NOK", nil)
		assert.Same(t, in, out)
		assert.Equal(t, 0, src.calls)
	})

	t.Run("nil and zero pass through", func(t *testing.T) {
		assert.Nil(t, n.ConvertToLocal(ctx, nil, "USD", nil))
		zero := ptr(0)
		assert.Same(t, zero, n.ConvertToLocal(ctx, zero, "USD", nil))
	})

	t.Run("USD multiplies by rate", func(t *testing.T) {
		out := n.ConvertToLocal(ctx, ptr(2.5), "usd", nil)
		require.NotNil(t, out)
		assert.InDelta(t, 25.0, *out, 1e-9)
	})

	t.Run("unknown currency is reported", func(t *testing.T) {
		issues := quality.NewTracker()
		in := ptr(7)
		out := n.ConvertToLocal(ctx, in, "SEK", issues)
		assert.Same(t, in, out)
		require.Equal(t, 1, issues.Len())
		assert.Contains(t, issues.Issues()[0], "Unknown currency SEK")
	})
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(Options{}, &stubSource{name: "a", rate: 10})
	ttm := model.TTMFinancials{
		EBITDATTM:     ptr(100),
		EBITDALatest:  ptr(30),
		RevenueTTM:    ptr(400),
		EBITDASource:  "quarterly_ttm.EBITDA",
		RevenueSource: "quarterly_ttm.Total Revenue",
	}

	t.Run("USD statements are converted", func(t *testing.T) {
		issues := quality.NewTracker()
		out, cc := n.Normalize(context.Background(), ttm, "EQNR.OL", model.RawSnapshot{"financialCurrency": "USD"}, issues)

		assert.Equal(t, "USD", cc.DetectedCurrency)
		assert.True(t, cc.ConversionApplied)
		assert.InDelta(t, 1000.0, *out.EBITDATTM, 1e-9)
		assert.InDelta(t, 300.0, *out.EBITDALatest, 1e-9)
		assert.InDelta(t, 4000.0, *out.RevenueTTM, 1e-9)
		assert.Nil(t, out.RevenueLatest)
		assert.Equal(t, "quarterly_ttm.EBITDA", out.EBITDASource)
		assert.Equal(t, []string{
			"Converted ebitda_ttm from USD to NOK",
			"Converted ebitda_latest from USD to NOK",
			"Converted total_revenue_ttm from USD to NOK",
		}, issues.Issues())

		// input left untouched
		assert.Equal(t, 100.0, *ttm.EBITDATTM)
	})

	t.Run("unknown currency is not reported as converted", func(t *testing.T) {
		issues := quality.NewTracker()
		out, cc := n.Normalize(context.Background(), ttm, "NHY.OL", model.RawSnapshot{"financialCurrency": "EUR"}, issues)

		assert.Equal(t, "EUR", cc.DetectedCurrency)
		assert.False(t, cc.ConversionApplied)
		assert.Same(t, ttm.EBITDATTM, out.EBITDATTM)
		for _, issue := range issues.Issues() {
			assert.NotContains(t, issue, "Converted")
		}
		assert.Contains(t, issues.Issues(), "Unknown currency EUR, value left unconverted")
	})

	t.Run("local statements unchanged", func(t *testing.T) {
		issues := quality.NewTracker()
		out, cc := n.Normalize(context.Background(), ttm, "DNB.OL", model.RawSnapshot{"financialCurrency": "NOK"}, issues)
		assert.Equal(t, "NOK", cc.DetectedCurrency)
		assert.False(t, cc.ConversionApplied)
		assert.Same(t, ttm.EBITDATTM, out.EBITDATTM)
		assert.Equal(t, 0, issues.Len())
	})
}
