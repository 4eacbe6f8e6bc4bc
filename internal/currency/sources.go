package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultRequestTimeout bounds every rate lookup.
const DefaultRequestTimeout = 5 * time.Second

// Default endpoints. Each is overridable for tests and mirrors.
const (
	DefaultQuoteURL       = "https://query1.finance.yahoo.com/v7/finance/quote"
	DefaultCentralBankURL = "https://data.norges-bank.no/api/data/EXR"
	DefaultExchangeAPIURL = "https://api.exchangerate-api.com/v4/latest"
)

var errNoRate = errors.New("no usable rate in response")

// RateSource looks up how many units of the local currency one USD buys.
type RateSource interface {
	Name() string
	FetchUSDRate(ctx context.Context, local string) (float64, error)
}

// NewHTTPClient creates the client shared by the rate sources.
func NewHTTPClient(timeout time.Duration, proxyURL string) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// DefaultSources returns the market quote, central bank and conversion API
// sources in lookup order.
func DefaultSources(client *http.Client) []RateSource {
	return []RateSource{
		&QuoteSource{BaseURL: DefaultQuoteURL, Client: client},
		&CentralBankSource{BaseURL: DefaultCentralBankURL, Client: client},
		&ExchangeAPISource{BaseURL: DefaultExchangeAPIURL, Client: client},
	}
}

// QuoteSource reads the USD/local pair from a market quote endpoint.
type QuoteSource struct {
	BaseURL string
	Client  *http.Client
}

func (s *QuoteSource) Name() string { return "market_quote" }

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			Ask                float64 `json:"ask"`
			Bid                float64 `json:"bid"`
		} `json:"result"`
	} `json:"quoteResponse"`
}

func (s *QuoteSource) FetchUSDRate(ctx context.Context, local string) (float64, error) {
	pair := "USD" + strings.ToUpper(local) + "=X"
	endpoint := fmt.Sprintf("%s?symbols=%s", s.BaseURL, url.QueryEscape(pair))
	var resp quoteResponse
	if err := getJSON(ctx, s.Client, endpoint, &resp); err != nil {
		return 0, err
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return 0, errNoRate
	}
	q := resp.QuoteResponse.Result[0]
	for _, v := range []float64{q.RegularMarketPrice, q.Ask, q.Bid} {
		if validRate(v) {
			return v, nil
		}
	}
	return 0, errNoRate
}

// CentralBankSource reads the latest observation of the central bank's
// USD series. Both the SDMX-JSON layout and a flat observation array are
// understood.
type CentralBankSource struct {
	BaseURL string
	Client  *http.Client
}

func (s *CentralBankSource) Name() string { return "central_bank" }

type sdmxResponse struct {
	Observations []struct {
		Value json.RawMessage `json:"value"`
	} `json:"observations"`
	Data struct {
		DataSets []struct {
			Series map[string]struct {
				Observations map[string][]json.RawMessage `json:"observations"`
			} `json:"series"`
		} `json:"dataSets"`
	} `json:"data"`
}

func (s *CentralBankSource) FetchUSDRate(ctx context.Context, local string) (float64, error) {
	endpoint := fmt.Sprintf("%s/B.USD.%s.SP?format=sdmx-json&lastNObservations=1", s.BaseURL, strings.ToUpper(local))
	var resp sdmxResponse
	if err := getJSON(ctx, s.Client, endpoint, &resp); err != nil {
		return 0, err
	}
	if len(resp.Observations) > 0 {
		return parseRate(resp.Observations[0].Value)
	}
	for _, ds := range resp.Data.DataSets {
		for _, series := range ds.Series {
			for _, obs := range series.Observations {
				if len(obs) > 0 {
					return parseRate(obs[0])
				}
			}
		}
	}
	return 0, errNoRate
}

// ExchangeAPISource reads a USD-based rate table.
type ExchangeAPISource struct {
	BaseURL string
	Client  *http.Client
}

func (s *ExchangeAPISource) Name() string { return "exchange_api" }

func (s *ExchangeAPISource) FetchUSDRate(ctx context.Context, local string) (float64, error) {
	var resp struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := getJSON(ctx, s.Client, s.BaseURL+"/USD", &resp); err != nil {
		return 0, err
	}
	v, ok := resp.Rates[strings.ToUpper(local)]
	if !ok || !validRate(v) {
		return 0, errNoRate
	}
	return v, nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, v any) error {
	if client == nil {
		client = NewHTTPClient(DefaultRequestTimeout, "")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch rate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read rate body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch rate: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode rate: %w", err)
	}
	return nil
}

// parseRate accepts a JSON number or a numeric string.
func parseRate(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, fmt.Errorf("decode observation: %w", err)
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return 0, fmt.Errorf("parse observation %q: %w", str, err)
		}
	}
	if !validRate(f) {
		return 0, errNoRate
	}
	return f, nil
}

func validRate(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
