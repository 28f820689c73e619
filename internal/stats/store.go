// Package stats counts search terms: how often each was searched and when
// it was searched last.
package stats

import (
	"cmp"
	"context"
	"strings"
	"time"
)

type TermCount struct {
	Term         string    `json:"term"`
	Count        int64     `json:"count"`
	LastSearched time.Time `json:"last_searched"`
}

type Store interface {
	Record(ctx context.Context, term string, at time.Time) error
	Counts(ctx context.Context) (map[string]int64, error)
	Top(ctx context.Context, limit int) ([]TermCount, error)
	Ping(ctx context.Context) error
}

// NormalizeTerm lowercases term and collapses its whitespace. Blank terms
// come back as "".
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.Join(strings.Fields(term), " "))
}

// byPopularity orders by count descending, then term.
func byPopularity(a, b TermCount) int {
	if c := cmp.Compare(b.Count, a.Count); c != 0 {
		return c
	}
	return strings.Compare(a.Term, b.Term)
}
