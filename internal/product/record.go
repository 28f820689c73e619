// Package product holds the catalog search result model, the price parser,
// the sort-key comparator registry and the decoder for search API payloads.
package product

import "time"

// Record is one search result as returned by the catalog API. Records are
// treated as immutable once decoded.
type Record struct {
	Name       string   `json:"name"`
	StoreName  string   `json:"storeName"`
	Price      Price    `json:"price"`
	ProductURL string   `json:"productUrl,omitempty"`
	ImageURL   string   `json:"imageUrl,omitempty"`
	Available  *bool    `json:"available,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	UpdatedAt  string   `json:"updatedAt,omitempty"`
}

// RatingOrZero is the rating used for ordering: absent sorts as 0.
func (r Record) RatingOrZero() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

func (r Record) IsAvailable() bool {
	return r.Available != nil && *r.Available
}

var updatedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UpdatedTime parses UpdatedAt. Timestamps without a zone are read as UTC.
func (r Record) UpdatedTime() (time.Time, bool) {
	if r.UpdatedAt == "" {
		return time.Time{}, false
	}
	for _, layout := range updatedAtLayouts {
		if t, err := time.Parse(layout, r.UpdatedAt); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
