// Package selector loads the exchange listings file and picks the stock of
// the day.
package selector

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"time"

	"Finansle/internal/model"
)

// ErrNoListings is returned when the listings file yields no usable entry.
var ErrNoListings = errors.New("no listings found")

type rawListing struct {
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
	Symbol      string `json:"symbol"`
	Ticker      string `json:"ticker"`
}

// LoadListings reads a JSON array of listings, or an object wrapping the
// array under "stocks".
func LoadListings(path string) ([]model.Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}

	var raw []rawListing
	if err := json.Unmarshal(data, &raw); err != nil {
		var wrapped struct {
			Stocks []rawListing `json:"stocks"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("parse listings %s: %w", path, err)
		}
		raw = wrapped.Stocks
	}

	listings := make([]model.Listing, 0, len(raw))
	for _, r := range raw {
		ticker := firstNonEmpty(r.Ticker, r.Symbol)
		if ticker == "" {
			continue
		}
		listings = append(listings, model.Listing{
			Name:   firstNonEmpty(r.Name, r.CompanyName, r.Symbol, r.Ticker),
			Ticker: ticker,
		})
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoListings)
	}
	return listings, nil
}

// Pick returns the stock of the day. The same date and listings always
// give the same pick.
func Pick(date time.Time, listings []model.Listing) (model.Listing, error) {
	if len(listings) == 0 {
		return model.Listing{}, ErrNoListings
	}
	h := fnv.New64a()
	h.Write([]byte(date.Format(model.DateLayout)))
	return listings[h.Sum64()%uint64(len(listings))], nil
}

// Tickers returns the ticker of every listing, in file order.
func Tickers(listings []model.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Ticker
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
