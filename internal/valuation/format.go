package valuation

import (
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Unavailable is shown wherever a figure is missing or not meaningful.
const Unavailable = "Ikke tilgjengelig"

const (
	trillion = 1e12
	billion  = 1e9
	million  = 1e6
)

// FormatMagnitude renders a market-cap style figure. The tier boundaries
// are inclusive: exactly 1e9 is shown in "mrd".
func FormatMagnitude(v *float64, currency string) string {
	if v == nil || *v <= 0 {
		return Unavailable
	}
	switch x := *v; {
	case x >= trillion:
		return fmt.Sprintf("%.1f bill %s", x/trillion, currency)
	case x >= billion:
		return fmt.Sprintf("%.1f mrd %s", x/billion, currency)
	default:
		return fmt.Sprintf("%.0f mill %s", x/million, currency)
	}
}

// FormatAmount renders a signed statement figure such as revenue or net
// income. Amounts below a million are written in full with thousands
// separators.
func FormatAmount(v *float64, currency string) string {
	if v == nil || *v == 0 {
		return Unavailable
	}
	x := *v
	switch abs := math.Abs(x); {
	case abs >= trillion:
		return fmt.Sprintf("%.1f bill %s", x/trillion, currency)
	case abs >= billion:
		return fmt.Sprintf("%.0f mrd %s", x/billion, currency)
	case abs >= million:
		return fmt.Sprintf("%.0f mill %s", x/million, currency)
	default:
		return fmt.Sprintf("%s %s", formatUnits(x), currency)
	}
}

// FormatRatio renders a multiple with two decimals. Non-positive ratios are
// suppressed for display only.
func FormatRatio(v *float64) string {
	if v == nil || *v <= 0 {
		return Unavailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatUnits(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
