package model

// FactorScore is one contribution to a stock's difficulty score.
type FactorScore struct {
	Name       string
	Score      int
	Commentary string
}

// DifficultyTier maps a maximum total score to a rating label.
type DifficultyTier struct {
	MaxScore int
	Label    string
}

// Difficulty is the strategy package's verdict on how hard a stock is to guess.
type Difficulty struct {
	Factors    []FactorScore
	TotalScore int
	Label      string
}
