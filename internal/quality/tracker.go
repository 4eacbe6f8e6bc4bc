// Package quality accumulates human-readable data-quality issues.
package quality

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Tracker is an append-only, ordered list of issues. Identical issues raised
// from different call sites are kept as separate entries.
//
// A Tracker is owned by a single extraction run and passed explicitly to the
// functions that may report issues.
type Tracker struct {
	issues []string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add appends an issue. A nil tracker discards it.
func (t *Tracker) Add(issue string) {
	if t == nil {
		return
	}
	t.issues = append(t.issues, issue)
}

// Addf appends a formatted issue.
func (t *Tracker) Addf(format string, args ...any) {
	t.Add(fmt.Sprintf(format, args...))
}

// Merge appends issues produced elsewhere, preserving their order.
func (t *Tracker) Merge(issues []string) {
	for _, issue := range issues {
		t.Add(issue)
	}
}

// Len returns the number of recorded issues.
func (t *Tracker) Len() int {
	if t == nil {
		return 0
	}
	return len(t.issues)
}

// Issues returns a copy of the recorded issues. It is never nil so that the
// published record always carries a JSON array.
func (t *Tracker) Issues() []string {
	out := make([]string, t.Len())
	if t != nil {
		copy(out, t.issues)
	}
	return out
}

// Display returns at most limit issues followed by a "... and N more" line
// when some were left out.
func Display(issues []string, limit int) []string {
	if limit < 0 || len(issues) <= limit {
		return issues
	}
	out := make([]string, 0, limit+1)
	out = append(out, issues[:limit]...)
	return append(out, fmt.Sprintf("... and %d more issues", len(issues)-limit))
}

// Score returns present/total rounded to two decimals, or 0 when total is 0.
func Score(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(present)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}
