package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawSnapshot is the provider's per-ticker info mapping. Values are strings,
// numbers or nil. It is read-only for every consumer.
type RawSnapshot map[string]any

// Value returns the raw value stored under key.
func (s RawSnapshot) Value(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s[key]
	return v, ok
}

// String returns the value under key when it is a non-empty string.
func (s RawSnapshot) String(key string) string {
	v, ok := s.Value(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return strings.TrimSpace(str)
}

// Number returns the value under key as a float64 when it is numeric or a
// numeric string. NaN and infinities are reported as absent.
func (s RawSnapshot) Number(key string) (float64, bool) {
	v, ok := s.Value(key)
	if !ok || v == nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Frequency selects quarterly or annual statements.
type Frequency string

const (
	Quarterly Frequency = "quarterly"
	Annual    Frequency = "annual"
)

// StatementTable holds statement line items (rows) by reporting period
// (columns, most recent first). Missing cells are NaN.
type StatementTable struct {
	Periods []time.Time
	Rows    map[string][]float64
}

// NewStatementTable creates an empty table over the given periods.
func NewStatementTable(periods []time.Time) *StatementTable {
	return &StatementTable{Periods: periods, Rows: make(map[string][]float64)}
}

// Set stores a value, creating the row on first use.
func (t *StatementTable) Set(item string, col int, v float64) {
	row, ok := t.Rows[item]
	if !ok {
		row = make([]float64, len(t.Periods))
		for i := range row {
			row[i] = math.NaN()
		}
		t.Rows[item] = row
	}
	if col >= 0 && col < len(row) {
		row[col] = v
	}
}

// Empty reports whether the table has no periods or no rows.
func (t *StatementTable) Empty() bool {
	return t == nil || len(t.Periods) == 0 || len(t.Rows) == 0
}

// Columns returns the number of reporting periods.
func (t *StatementTable) Columns() int {
	if t == nil {
		return 0
	}
	return len(t.Periods)
}

// Row returns the values for a line item.
func (t *StatementTable) Row(item string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	row, ok := t.Rows[item]
	return row, ok
}
