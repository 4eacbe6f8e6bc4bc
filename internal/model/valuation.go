package model

import "time"

// Trust-ordered provenance tags for TTM figures (earlier is more trusted).
const (
	SourceQuarterlyTTM       = "quarterly_ttm"
	SourceQuarterlyEstimated = "quarterly_estimated"
	SourceAnnualFinancials   = "annual_financials"
	SourceInfoDict           = "info_dict"
)

// TTMFinancials is the trailing-twelve-month extraction result.
type TTMFinancials struct {
	EBITDATTM     *float64
	EBITDALatest  *float64
	EBITDASource  string
	EBITDAPeriod  string
	RevenueTTM    *float64
	RevenueLatest *float64
	RevenueSource string
	RevenuePeriod string
	DataTimestamp *time.Time
	Issues        []string
}

// CurrencyContext describes the statement currency found for a ticker.
type CurrencyContext struct {
	DetectedCurrency  string
	ConversionApplied bool
}

// ValuationMetrics is the reconciled, currency-normalized valuation bundle.
type ValuationMetrics struct {
	Ticker string `json:"ticker"`

	MarketCap                *float64 `json:"market_cap"`
	MarketCapFormatted       string   `json:"market_cap_formatted"`
	EnterpriseValue          *float64 `json:"enterprise_value"`
	EnterpriseValueFormatted string   `json:"enterprise_value_formatted"`

	TrailingPE   *float64 `json:"trailing_pe"`
	ForwardPE    *float64 `json:"forward_pe"`
	PEGRatio     *float64 `json:"peg_ratio"`
	PriceToBook  *float64 `json:"price_to_book"`
	PriceToSales *float64 `json:"price_to_sales"`
	EVRevenue    *float64 `json:"ev_revenue"`
	EVEBITDA     *float64 `json:"ev_ebitda"`

	TotalRevenue     *float64   `json:"total_revenue"`
	RevenueFormatted string     `json:"revenue_formatted"`
	RevenueLatest    *float64   `json:"revenue_latest"`
	RevenueSource    string     `json:"revenue_source,omitempty"`
	RevenuePeriod    string     `json:"revenue_period,omitempty"`
	EBITDA           *float64   `json:"ebitda"`
	EBITDAFormatted  string     `json:"ebitda_formatted"`
	EBITDALatest     *float64   `json:"ebitda_latest"`
	EBITDASource     string     `json:"ebitda_source,omitempty"`
	EBITDAPeriod     string     `json:"ebitda_period,omitempty"`
	EBITDATimestamp  *time.Time `json:"ebitda_timestamp"`

	FinancialCurrencyDetected string `json:"financial_currency_detected,omitempty"`
	CurrencyConversionApplied bool   `json:"currency_conversion_applied"`

	NetIncome          *float64 `json:"net_income"`
	NetIncomeFormatted string   `json:"net_income_formatted"`
	TotalCash          *float64 `json:"total_cash"`
	TotalDebt          *float64 `json:"total_debt"`

	EVEBITDAFormatted     string `json:"ev_ebitda_formatted"`
	PriceToSalesFormatted string `json:"price_to_sales_formatted"`
	TrailingPEFormatted   string `json:"trailing_pe_formatted"`
	ForwardPEFormatted    string `json:"forward_pe_formatted"`
	PEGRatioFormatted     string `json:"peg_ratio_formatted"`
	PriceToBookFormatted  string `json:"price_to_book_formatted"`
	EVRevenueFormatted    string `json:"ev_revenue_formatted"`

	DataQualityScore  float64  `json:"data_quality_score"`
	DataQualityIssues []string `json:"data_quality_issues"`
}
