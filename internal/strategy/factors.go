package strategy

import (
	"fmt"
	"math"
	"strings"

	"Finansle/internal/model"
)

// scoreMarketCap: smaller companies are harder to place.
func scoreMarketCap(rec *model.StockRecord) model.FactorScore {
	mc := 0.0
	if rec.MarketCap != nil {
		mc = *rec.MarketCap
	}
	var score int
	switch {
	case mc < 1e9:
		score = 3
	case mc < 10e9:
		score = 2
	default:
		score = 1
	}
	return model.FactorScore{
		Name:       "Markedsverdi",
		Score:      score,
		Commentary: fmt.Sprintf("%.1f mrd", mc/1e9),
	}
}

// scoreVolatility: more volatile charts are harder to recognise.
func scoreVolatility(rec *model.StockRecord) model.FactorScore {
	var score int
	switch v := rec.Volatility; {
	case v > 50:
		score = 3
	case v > 30:
		score = 2
	default:
		score = 1
	}
	return model.FactorScore{
		Name:       "Volatilitet",
		Score:      score,
		Commentary: fmt.Sprintf("%.1f%%", rec.Volatility),
	}
}

// scorePerformanceSwing adds 2 for extreme one- or five-year moves.
func scorePerformanceSwing(rec *model.StockRecord) model.FactorScore {
	p1, p5 := math.Abs(rec.Performance1y), math.Abs(rec.Performance5y)
	score := 0
	if p1 > 100 || p5 > 500 {
		score = 2
	}
	return model.FactorScore{
		Name:       "Kurssvingninger",
		Score:      score,
		Commentary: fmt.Sprintf("1år %+.0f%%, 5år %+.0f%%", rec.Performance1y, rec.Performance5y),
	}
}

var (
	familiarSectors = map[string]bool{"technology": true, "consumer": true, "healthcare": true}
	mediumSectors   = map[string]bool{"utilities": true, "real estate": true}
)

// scoreSectorFamiliarity: well-known sectors are easier.
func scoreSectorFamiliarity(rec *model.StockRecord) model.FactorScore {
	sector := strings.ToLower(strings.TrimSpace(rec.Sector))
	score := 2
	switch {
	case familiarSectors[sector]:
		score = 0
	case mediumSectors[sector]:
		score = 1
	}
	return model.FactorScore{Name: "Sektorkjennskap", Score: score, Commentary: rec.Sector}
}
