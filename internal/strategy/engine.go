// Package strategy rates how hard the stock of the day is to guess and
// decides which hint categories the game can offer.
package strategy

import "Finansle/internal/model"

// Tiers maps a total difficulty score to a rating, checked in order.
var Tiers = []model.DifficultyTier{
	{MaxScore: 4, Label: "Lett"},
	{MaxScore: 7, Label: "Middels"},
}

// DefaultLabel is the rating for scores above every tier.
const DefaultLabel = "Vanskelig"

func mapTier(total int) string {
	for _, t := range Tiers {
		if total <= t.MaxScore {
			return t.Label
		}
	}
	return DefaultLabel
}

// Evaluate scores rec on every difficulty factor.
func Evaluate(rec *model.StockRecord) model.Difficulty {
	factors := []model.FactorScore{
		scoreMarketCap(rec),
		scoreVolatility(rec),
		scorePerformanceSwing(rec),
		scoreSectorFamiliarity(rec),
	}
	total := 0
	for _, f := range factors {
		total += f.Score
	}
	return model.Difficulty{Factors: factors, TotalScore: total, Label: mapTier(total)}
}

// Hints lists the hint categories the record has data for.
func Hints(rec *model.StockRecord) []string {
	var out []string
	if rec.Sector != "" && rec.Sector != UnknownSector {
		out = append(out, "Sektor")
	}
	if rec.Employees > 0 {
		out = append(out, "Antall ansatte")
	}
	if rec.MarketCap != nil && *rec.MarketCap > 0 {
		out = append(out, "Markedsverdi")
	}
	if rec.TrailingPE != nil && *rec.TrailingPE != 0 {
		out = append(out, "P/E-tall")
	}
	if rec.Headquarters != "" && rec.Headquarters != DefaultHeadquarters {
		out = append(out, "Hovedkontor")
	}
	if rec.Performance1y != 0 || rec.Performance5y != 0 || rec.Volatility != 0 {
		out = append(out, "Aksjeutvikling")
	}
	if len([]rune(rec.Description)) > 50 {
		out = append(out, "Forretningsområde")
	}
	return out
}

// Placeholders the collector writes when the provider has nothing.
const (
	UnknownSector       = "Ukjent"
	DefaultHeadquarters = "Norge"
	DefaultDescription  = "Norsk børsnotert selskap"
)
