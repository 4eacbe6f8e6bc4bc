package valuation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"Finansle/internal/model"
	"Finansle/internal/quality"
)

// Fields that are structurally non-negative. A negative value is reported
// and treated as absent.
var nonNegative = map[string]bool{
	"marketCap":       true,
	"enterpriseValue": true,
	"totalRevenue":    true,
	"totalCash":       true,
	"totalDebt":       true,
}

var absentStrings = map[string]bool{
	"":     true,
	"N/A":  true,
	"None": true,
	"null": true,
}

// SafeExtract reads key from info as a number. Missing values, the absent
// sentinels, zero and infinities yield nil. Unparsable values and negative
// values of non-negative fields yield nil plus an issue.
func SafeExtract(info model.RawSnapshot, key string, issues *quality.Tracker) *float64 {
	raw, ok := info.Value(key)
	if !ok || raw == nil {
		return nil
	}

	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			issues.Addf("Could not parse %s: %s (%v)", key, v, err)
			return nil
		}
		f = parsed
	case string:
		if absentStrings[strings.TrimSpace(v)] {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			issues.Addf("Could not parse %s: %s (%v)", key, v, err)
			return nil
		}
		f = parsed
	default:
		issues.Addf("Could not parse %s: %v (unsupported type %T)", key, v, v)
		return nil
	}

	if f == 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	if f < 0 && nonNegative[key] {
		issues.Addf("Negative value for %s: %v", key, f)
		return nil
	}
	return &f
}

// Inputs holds every provider field the reconciler reads, extracted once per
// run through SafeExtract.
type Inputs struct {
	MarketCap          *float64
	EnterpriseValue    *float64
	TotalDebt          *float64
	TotalCash          *float64
	TrailingPE         *float64
	ForwardPE          *float64
	PEGRatio           *float64
	PriceToBook        *float64
	PriceToSales       *float64
	EVRevenue          *float64
	EVEBITDA           *float64
	CurrentPrice       *float64
	RegularMarketPrice *float64
	TrailingEPS        *float64
	NetIncome          *float64
}

// ExtractInputs reads the valuation fields from info.
func ExtractInputs(info model.RawSnapshot, issues *quality.Tracker) Inputs {
	get := func(key string) *float64 { return SafeExtract(info, key, issues) }
	return Inputs{
		MarketCap:          get("marketCap"),
		EnterpriseValue:    get("enterpriseValue"),
		TotalDebt:          get("totalDebt"),
		TotalCash:          get("totalCash"),
		TrailingPE:         get("trailingPE"),
		ForwardPE:          get("forwardPE"),
		PEGRatio:           get("pegRatio"),
		PriceToBook:        get("priceToBook"),
		PriceToSales:       get("priceToSalesTrailing12Months"),
		EVRevenue:          get("enterpriseToRevenue"),
		EVEBITDA:           get("enterpriseToEbitda"),
		CurrentPrice:       get("currentPrice"),
		RegularMarketPrice: get("regularMarketPrice"),
		TrailingEPS:        get("trailingEps"),
		NetIncome:          get("netIncomeToCommon"),
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func ptr(v float64) *float64 { return &v }
