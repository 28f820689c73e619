package product

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type SortKey string

const (
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
	SortStore     SortKey = "store"

	DefaultSortKey = SortPriceAsc
)

var ErrUnknownSortKey = errors.New("unknown sort key")

type compareFunc func(s *Sorter, a, b Record) int

var comparators = map[SortKey]compareFunc{
	SortPriceAsc: func(_ *Sorter, a, b Record) int {
		return cmp.Compare(ParsePrice(a.Price), ParsePrice(b.Price))
	},
	SortPriceDesc: func(_ *Sorter, a, b Record) int {
		return cmp.Compare(ParsePrice(b.Price), ParsePrice(a.Price))
	},
	SortRating: func(_ *Sorter, a, b Record) int {
		return cmp.Compare(b.RatingOrZero(), a.RatingOrZero())
	},
	SortStore: (*Sorter).compareStore,
}

// SortKeys lists the supported keys in presentation order.
func SortKeys() []SortKey {
	return []SortKey{SortPriceAsc, SortPriceDesc, SortRating, SortStore}
}

func (k SortKey) Valid() bool {
	_, ok := comparators[k]
	return ok
}

func (k SortKey) String() string { return string(k) }

// ParseSortKey is the boundary check for user supplied sort tokens.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
	return k, nil
}

// Sorter is the comparator registry. Store names are ordered with a
// locale-aware collator; collate.Collator is not safe for concurrent use, so
// every comparison runs under mu.
type Sorter struct {
	mu   sync.Mutex
	coll *collate.Collator
}

func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{coll: collate.New(tag, collate.IgnoreCase)}
}

// Compare returns -1, 0 or 1. Unknown keys compare everything as equal.
func (s *Sorter) Compare(key SortKey, a, b Record) int {
	fn, ok := comparators[key]
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s, a, b)
}

// Sort returns a new slice ordered by key. The sort is stable, so equal
// records keep the order they had in records; records itself is untouched.
func (s *Sorter) Sort(key SortKey, records []Record) []Record {
	out := slices.Clone(records)
	if out == nil {
		out = []Record{}
	}

	fn, ok := comparators[key]
	if !ok {
		return out
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	slices.SortStableFunc(out, func(a, b Record) int { return fn(s, a, b) })
	return out
}

func (s *Sorter) compareStore(a, b Record) int {
	as, bs := strings.TrimSpace(a.StoreName), strings.TrimSpace(b.StoreName)
	switch {
	case as == "" && bs == "":
		return 0
	case as == "":
		return 1
	case bs == "":
		return -1
	}
	return s.coll.CompareString(as, bs)
}
