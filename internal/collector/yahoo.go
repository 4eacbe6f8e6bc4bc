package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"Finansle/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// quoteSummary modules merged into the info snapshot.
var summaryModules = []string{"price", "summaryDetail", "defaultKeyStatistics", "financialData", "assetProfile"}

// Fundamentals time-series types mapped to the statement line items the
// TTM tiers look for.
var statementItems = map[string]string{
	"EBITDA":           "EBITDA",
	"NormalizedEBITDA": "Normalized EBITDA",
	"EBIT":             "EBIT",
	"OperatingIncome":  "Operating Income",
	"TotalRevenue":     "Total Revenue",
	"OperatingRevenue": "Revenue",
}

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	BaseURL string
	Client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher. All calls share one
// circuit breaker so a dead upstream is not hammered during batch runs.
func NewYahooFetcher(proxyURL string, timeout time.Duration) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YahooFetcher{
		BaseURL: DefaultYahooBaseURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		breaker: newBreaker("yahoo"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: time.Minute,
		Timeout:  time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// An unknown ticker is a healthy upstream.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoData)
		},
	})
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) getJSON(ctx context.Context, endpoint string, v any) error {
	_, err := f.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := f.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("yahoo fetch: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("yahoo read body: %w", err)
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNoData
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode, truncate(string(body), 200))
		}
		if err := json.Unmarshal(body, v); err != nil {
			return nil, fmt.Errorf("yahoo decode: %w", err)
		}
		return nil, nil
	})
	return err
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// toFloat returns NaN for nulls and anything non-numeric.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return math.NaN()
	}
}

func at(vals []interface{}, i int) interface{} {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, ticker, interval, rng string) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		f.BaseURL, url.PathEscape(ticker), interval, rng)

	var chart yahooChart
	if err := f.getJSON(ctx, u, &chart); err != nil {
		return nil, err
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, ErrNoData
	}
	return &chart, nil
}

// FetchDailyHistory returns daily bars for period (e.g. "5y", "5d"). Bars
// with a null close are kept with a NaN close.
func (f *YahooFetcher) FetchDailyHistory(ctx context.Context, ticker, period string) ([]model.OHLCV, error) {
	chart, err := f.fetchChart(ctx, ticker, "1d", period)
	if err != nil {
		return nil, err
	}
	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, ErrNoData
	}
	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))

	for i, ts := range result.Timestamp {
		o := toFloat(at(quote.Open, i))
		h := toFloat(at(quote.High, i))
		l := toFloat(at(quote.Low, i))
		c := toFloat(at(quote.Close, i))
		if math.IsNaN(o) && math.IsNaN(h) && math.IsNaN(l) && math.IsNaN(c) {
			continue // skip null bars (holidays etc.)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: toFloat(at(quote.Volume, i)),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchCurrentPrice reads the regular market price from the chart metadata.
func (f *YahooFetcher) FetchCurrentPrice(ctx context.Context, ticker string) (float64, error) {
	chart, err := f.fetchChart(ctx, ticker, "1d", "1d")
	if err != nil {
		return 0, err
	}
	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("yahoo: %w", ErrNoPrice)
	}
	return price, nil
}

type quoteSummary struct {
	QuoteSummary struct {
		Result []map[string]map[string]json.RawMessage `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// FetchInfo merges the quoteSummary modules into one flat snapshot. Values
// wrapped as {"raw": ..., "fmt": ...} are unwrapped to raw; nested objects
// and lists are dropped.
func (f *YahooFetcher) FetchInfo(ctx context.Context, ticker string) (model.RawSnapshot, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		f.BaseURL, url.PathEscape(ticker), strings.Join(summaryModules, ","))

	var qs quoteSummary
	if err := f.getJSON(ctx, u, &qs); err != nil {
		return nil, err
	}
	if qs.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", qs.QuoteSummary.Error.Description)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, ErrNoData
	}

	info := model.RawSnapshot{}
	for _, module := range summaryModules {
		fields, ok := qs.QuoteSummary.Result[0][module]
		if !ok {
			continue
		}
		for key, raw := range fields {
			if v, ok := flattenValue(raw); ok {
				if _, seen := info[key]; !seen {
					info[key] = v
				}
			}
		}
	}
	return info, nil
}

func flattenValue(raw json.RawMessage) (any, bool) {
	var wrapped struct {
		Raw *json.Number `json:"raw"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if wrapped.Raw == nil {
			return nil, false
		}
		return *wrapped.Raw, true
	}
	var v any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	switch v.(type) {
	case string, json.Number, bool, nil:
		return v, true
	default:
		return nil, false
	}
}

type timeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
	} `json:"timeseries"`
}

type timeseriesMeta struct {
	Type []string `json:"type"`
}

type timeseriesPoint struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue *struct {
		Raw float64 `json:"raw"`
	} `json:"reportedValue"`
}

// FetchStatements loads quarterly or annual statement line items from the
// fundamentals time-series API.
func (f *YahooFetcher) FetchStatements(ctx context.Context, ticker string, freq model.Frequency) (*model.StatementTable, error) {
	types := make([]string, 0, len(statementItems))
	for name := range statementItems {
		types = append(types, string(freq)+name)
	}
	sort.Strings(types)
	now := time.Now().UTC()
	u := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?type=%s&period1=%d&period2=%d",
		f.BaseURL, url.PathEscape(ticker), strings.Join(types, ","),
		now.AddDate(-6, 0, 0).Unix(), now.Unix())

	var resp timeseriesResponse
	if err := f.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return buildStatementTable(resp, freq)
}

func buildStatementTable(resp timeseriesResponse, freq model.Frequency) (*model.StatementTable, error) {
	series := make(map[string][]timeseriesPoint)
	dates := make(map[time.Time]struct{})

	for _, result := range resp.Timeseries.Result {
		var meta timeseriesMeta
		if err := json.Unmarshal(result["meta"], &meta); err != nil || len(meta.Type) == 0 {
			continue
		}
		typ := meta.Type[0]
		item, ok := statementItems[strings.TrimPrefix(typ, string(freq))]
		if !ok {
			continue
		}
		var points []timeseriesPoint
		if err := json.Unmarshal(result[typ], &points); err != nil {
			continue
		}
		for _, p := range points {
			d, err := time.Parse(model.DateLayout, p.AsOfDate)
			if err != nil {
				continue
			}
			dates[d] = struct{}{}
		}
		series[item] = points
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%s statements: %w", freq, ErrNoData)
	}

	periods := make([]time.Time, 0, len(dates))
	for d := range dates {
		periods = append(periods, d)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].After(periods[j]) })
	col := make(map[time.Time]int, len(periods))
	for i, d := range periods {
		col[d] = i
	}

	table := model.NewStatementTable(periods)
	for item, points := range series {
		for _, p := range points {
			d, err := time.Parse(model.DateLayout, p.AsOfDate)
			if err != nil || p.ReportedValue == nil {
				continue
			}
			table.Set(item, col[d], p.ReportedValue.Raw)
		}
	}
	if table.Empty() {
		return nil, fmt.Errorf("%s statements have no values: %w", freq, ErrNoData)
	}
	return table, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
