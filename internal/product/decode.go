package product

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedResponse marks a search payload that is not a JSON array.
var ErrMalformedResponse = errors.New("malformed search response")

type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedResponse, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedResponse, e.Reason)
}

func (e *DecodeError) Is(target error) bool { return target == ErrMalformedResponse }

func (e *DecodeError) Unwrap() error { return e.Err }

// Accepted spellings per field, first match wins.
var (
	nameKeys      = []string{"name"}
	storeKeys     = []string{"storeName", "store"}
	priceKeys     = []string{"price", "currentPrice"}
	productURLKey = []string{"productUrl", "url"}
	imageURLKeys  = []string{"imageUrl"}
	availableKeys = []string{"available"}
	ratingKeys    = []string{"rating"}
	updatedKeys   = []string{"updatedAt", "lastUpdated"}
)

// DecodeRecords reads a search API payload. Anything but a JSON array is a
// *DecodeError. Array elements that do not look like a product are skipped
// and counted; they never fail the batch.
func DecodeRecords(body []byte) ([]Record, int, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, 0, &DecodeError{Reason: "empty body"}
	}
	if body[0] != '[' {
		return nil, 0, &DecodeError{Reason: "payload is not an array"}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(body, &elems); err != nil {
		return nil, 0, &DecodeError{Reason: "invalid json", Err: err}
	}

	out := make([]Record, 0, len(elems))
	skipped := 0
	for _, raw := range elems {
		rec, err := decodeRecord(raw)
		if err != nil {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, skipped, nil
}

func decodeRecord(raw json.RawMessage) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Record{}, errors.New("element is not an object")
	}

	var (
		rec Record
		err error
	)

	if rec.Name, err = stringField(fields, nameKeys); err != nil {
		return Record{}, err
	}
	if strings.TrimSpace(rec.Name) == "" {
		return Record{}, errors.New("name is required")
	}
	if rec.StoreName, err = stringField(fields, storeKeys); err != nil {
		return Record{}, err
	}
	if raw, ok := lookup(fields, priceKeys); ok {
		if err := json.Unmarshal(raw, &rec.Price); err != nil {
			return Record{}, fmt.Errorf("price: %w", err)
		}
	}
	if rec.ProductURL, err = stringField(fields, productURLKey); err != nil {
		return Record{}, err
	}
	if rec.ImageURL, err = stringField(fields, imageURLKeys); err != nil {
		return Record{}, err
	}
	if rec.UpdatedAt, err = stringField(fields, updatedKeys); err != nil {
		return Record{}, err
	}
	if raw, ok := lookup(fields, availableKeys); ok {
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return Record{}, fmt.Errorf("available: %w", err)
		}
		rec.Available = &b
	}
	if raw, ok := lookup(fields, ratingKeys); ok {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return Record{}, fmt.Errorf("rating: %w", err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return Record{}, errors.New("rating: not finite")
		}
		rec.Rating = &f
	}

	return rec, nil
}

// lookup returns the first non-null value stored under any of keys.
func lookup(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		raw, ok := fields[k]
		if !ok {
			continue
		}
		if t := bytes.TrimSpace(raw); len(t) == 0 || bytes.Equal(t, []byte("null")) {
			continue
		}
		return raw, true
	}
	return nil, false
}

func stringField(fields map[string]json.RawMessage, keys []string) (string, error) {
	raw, ok := lookup(fields, keys)
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%s: %w", keys[0], err)
	}
	return s, nil
}
