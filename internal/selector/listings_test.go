package selector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Finansle/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeListings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "obx.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadListings_Array(t *testing.T) {
	path := writeListings(t, `[
		{"name": "Equinor", "ticker": "EQNR"},
		{"company_name": "DNB Bank", "symbol": "DNB"},
		{"symbol": "MOWI"},
		{"name": "No ticker"}
	]`)

	got, err := LoadListings(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Listing{
		{Name: "Equinor", Ticker: "EQNR"},
		{Name: "DNB Bank", Ticker: "DNB"},
		{Name: "MOWI", Ticker: "MOWI"},
	}, got)
}

func TestLoadListings_Wrapped(t *testing.T) {
	path := writeListings(t, `{"stocks": [{"name": "Telenor", "ticker": "TEL"}]}`)

	got, err := LoadListings(path)
	require.NoError(t, err)
	assert.Equal(t, []model.Listing{{Name: "Telenor", Ticker: "TEL"}}, got)
}

func TestLoadListings_Errors(t *testing.T) {
	_, err := LoadListings(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadListings(writeListings(t, `[]`))
	assert.True(t, errors.Is(err, ErrNoListings))

	_, err = LoadListings(writeListings(t, `{"stocks": []}`))
	assert.True(t, errors.Is(err, ErrNoListings))

	_, err = LoadListings(writeListings(t, `not json`))
	assert.Error(t, err)
}

func TestPick_Deterministic(t *testing.T) {
	listings := []model.Listing{
		{Name: "A", Ticker: "A"}, {Name: "B", Ticker: "B"}, {Name: "C", Ticker: "C"},
		{Name: "D", Ticker: "D"}, {Name: "E", Ticker: "E"},
	}
	day := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)

	first, err := Pick(day, listings)
	require.NoError(t, err)
	again, err := Pick(day.Add(10*time.Hour), listings)
	require.NoError(t, err)
	assert.Equal(t, first, again, "same calendar day must give the same pick")

	seen := map[string]bool{}
	for i := 0; i < 60; i++ {
		p, err := Pick(day.AddDate(0, 0, i), listings)
		require.NoError(t, err)
		seen[p.Ticker] = true
	}
	assert.Greater(t, len(seen), 1, "picks should vary across days")
}

func TestPick_Empty(t *testing.T) {
	_, err := Pick(time.Now(), nil)
	assert.ErrorIs(t, err, ErrNoListings)
}

func TestTickers(t *testing.T) {
	assert.Equal(t, []string{"EQNR", "DNB"}, Tickers([]model.Listing{{Ticker: "EQNR"}, {Ticker: "DNB"}}))
}
