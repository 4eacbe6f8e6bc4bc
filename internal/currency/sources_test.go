package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestQuoteSource(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    float64
		wantErr bool
	}{
		{"regular market price", `{"quoteResponse":{"result":[{"symbol":"USDNOK=X","regularMarketPrice":10.61,"ask":10.7}]}}`, 10.61, false},
		{"falls back to ask", `{"quoteResponse":{"result":[{"regularMarketPrice":0,"ask":10.7,"bid":10.5}]}}`, 10.7, false},
		{"falls back to bid", `{"quoteResponse":{"result":[{"bid":10.5}]}}`, 10.5, false},
		{"empty result", `{"quoteResponse":{"result":[]}}`, 0, true},
		{"malformed", `{"quoteResponse":`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, tt.body)
			src := &QuoteSource{BaseURL: srv.URL, Client: srv.Client()}
			got, err := src.FetchUSDRate(context.Background(), "NOK")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCentralBankSource(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    float64
		wantErr bool
	}{
		{"flat observations", `{"observations":[{"value":"10.4321"}]}`, 10.4321, false},
		{"sdmx series", `{"data":{"dataSets":[{"series":{"0:0:0:0":{"observations":{"0":["10.55"]}}}}]}}`, 10.55, false},
		{"numeric value", `{"observations":[{"value":10.2}]}`, 10.2, false},
		{"no observations", `{"data":{"dataSets":[]}}`, 0, true},
		{"garbage value", `{"observations":[{"value":"n/a"}]}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, tt.body)
			src := &CentralBankSource{BaseURL: srv.URL, Client: srv.Client()}
			got, err := src.FetchUSDRate(context.Background(), "NOK")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExchangeAPISource(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"base":"USD","rates":{"NOK":10.9,"SEK":10.4}}`)
	src := &ExchangeAPISource{BaseURL: srv.URL, Client: srv.Client()}

	got, err := src.FetchUSDRate(context.Background(), "nok")
	require.NoError(t, err)
	assert.Equal(t, 10.9, got)

	_, err = src.FetchUSDRate(context.Background(), "DKK")
	assert.Error(t, err)
}

func TestSourcesRejectBadStatus(t *testing.T) {
	srv := serve(t, http.StatusServiceUnavailable, `{}`)
	for _, src := range []RateSource{
		&QuoteSource{BaseURL: srv.URL, Client: srv.Client()},
		&CentralBankSource{BaseURL: srv.URL, Client: srv.Client()},
		&ExchangeAPISource{BaseURL: srv.URL, Client: srv.Client()},
	} {
		_, err := src.FetchUSDRate(context.Background(), "NOK")
		assert.Error(t, err, src.Name())
	}
}

func TestNormalizerOverHTTPSources(t *testing.T) {
	down := serve(t, http.StatusInternalServerError, "")
	bank := serve(t, http.StatusOK, `{"observations":[{"value":"10.25"}]}`)

	n := NewNormalizer(Options{Retry: fastRetry},
		&QuoteSource{BaseURL: down.URL, Client: down.Client()},
		&CentralBankSource{BaseURL: bank.URL, Client: bank.Client()},
	)
	assert.Equal(t, 10.25, n.USDRate(context.Background()))
}
