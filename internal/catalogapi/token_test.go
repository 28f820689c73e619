package catalogapi

import (
	"context"
	"testing"
	"time"
)

func TestTokenMaker_RoundTrip(t *testing.T) {
	m := NewTokenMaker("s3cret", "storefront")

	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	c, err := m.Parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Service != "storefront" || c.Subject != "storefront" || c.Issuer != defaultIssuer {
		t.Fatalf("claims=%+v", c)
	}
}

func TestTokenMaker_RejectsWrongSecret(t *testing.T) {
	tok, err := NewTokenMaker("one", "storefront").Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if _, err := NewTokenMaker("two", "storefront").Parse(tok); err == nil {
		t.Fatalf("expected error for foreign secret")
	}
}

func TestTokenMaker_RejectsExpired(t *testing.T) {
	m := NewTokenMaker("s3cret", "storefront")
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tok, err := m.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if _, err := NewTokenMaker("s3cret", "storefront").Parse(tok); err == nil {
		t.Fatalf("expected error for expired token")
	}
}
