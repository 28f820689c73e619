package product

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

type PriceKind uint8

const (
	PriceAbsent PriceKind = iota
	PriceNumber
	PriceText
)

// Price is the raw price as the catalog sent it: a number, a formatted
// string like "$1,200.00", or nothing.
type Price struct {
	Kind   PriceKind
	Number float64
	Text   string
}

func NumberPrice(v float64) Price { return Price{Kind: PriceNumber, Number: v} }
func TextPrice(s string) Price    { return Price{Kind: PriceText, Text: s} }

func (p Price) IsZero() bool { return p.Kind == PriceAbsent }

func (p Price) String() string {
	switch p.Kind {
	case PriceNumber:
		return strconv.FormatFloat(p.Number, 'f', -1, 64)
	case PriceText:
		return p.Text
	default:
		return ""
	}
}

func (p Price) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PriceNumber:
		if math.IsNaN(p.Number) || math.IsInf(p.Number, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(p.Number)
	case PriceText:
		return json.Marshal(p.Text)
	default:
		return []byte("null"), nil
	}
}

var errPriceType = errors.New("price must be a string or a number")

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = Price{}
		return nil
	}

	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = TextPrice(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var f float64
		if err := json.Unmarshal(b, &f); err != nil {
			// Out of float64 range.
			*p = NumberPrice(0)
			return nil
		}
		*p = NumberPrice(f)
		return nil
	default:
		return errPriceType
	}
}

// ParsePrice normalizes any price representation into a comparable value.
// It never fails: whatever cannot be read as a price is 0.
func ParsePrice(p Price) float64 {
	switch p.Kind {
	case PriceNumber:
		if math.IsNaN(p.Number) || math.IsInf(p.Number, 0) {
			return 0
		}
		return p.Number
	case PriceText:
		return ParsePriceText(p.Text)
	default:
		return 0
	}
}

// ParsePriceText drops everything except digits and separators, then reads
// the rest as a decimal number. Grouping vs decimal separators are told
// apart by position: the last of '.' and ',' is the decimal mark when both
// appear.
func ParsePriceText(s string) float64 {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}

	num := normalizeSeparators(b.String())
	if num == "" {
		return 0
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func normalizeSeparators(s string) string {
	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)

	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			if frac := len(s) - lastComma - 1; frac == 1 || frac == 2 {
				return strings.Replace(s, ",", ".", 1)
			}
		}
		return strings.ReplaceAll(s, ",", "")

	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			return strings.ReplaceAll(s, ".", "")
		}
		return s
	}
	return s
}
