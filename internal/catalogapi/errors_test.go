package catalogapi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"PriceScout/internal/product"
)

func TestErrorLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{&StatusError{Status: 503, Message: "x"}, "status_5xx"},
		{fmt.Errorf("wrapped: %w", &StatusError{Status: 404}), "status_4xx"},
		{&product.DecodeError{Reason: "not an array"}, "malformed"},
		{fmt.Errorf("%w: %w", ErrUnavailable, errors.New("dial tcp")), "unavailable"},
		{context.Canceled, "other"},
	}
	for _, tt := range tests {
		if got := ErrorLabel(tt.err); got != tt.want {
			t.Fatalf("ErrorLabel(%v)=%q want %q", tt.err, got, tt.want)
		}
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	got := truncate("añb", 2)
	if got != "a" {
		t.Fatalf("truncate=%q", got)
	}
}
