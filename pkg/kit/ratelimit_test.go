package kit

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func (l *IPRateLimiter) tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func TestIPRateLimiter_TokenBucket(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow("1.2.3.4"); !ok {
			t.Fatalf("hit %d should pass", i)
		}
	}

	ok, retry := l.Allow("1.2.3.4")
	if ok {
		t.Fatalf("third hit should be limited")
	}
	if retry < 29*time.Second || retry > 31*time.Second {
		t.Fatalf("retryAfter=%v, want about 30s", retry)
	}

	if ok, _ := l.Allow("5.6.7.8"); !ok {
		t.Fatalf("other ip should pass")
	}

	// A refused hit does not spend the token that is refilling.
	now = now.Add(31 * time.Second)
	if ok, _ := l.Allow("1.2.3.4"); !ok {
		t.Fatalf("one token should have refilled")
	}
	if ok, _ := l.Allow("1.2.3.4"); ok {
		t.Fatalf("only one token should have refilled")
	}
}

func TestIPRateLimiter_SweepsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	for i := 0; i < sweepThreshold; i++ {
		l.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	if got := l.tracked(); got != sweepThreshold {
		t.Fatalf("tracked=%d", got)
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow("192.168.0.1"); !ok {
		t.Fatalf("new visitor should pass")
	}
	if got := l.tracked(); got != 1 {
		t.Fatalf("idle visitors not swept, tracked=%d", got)
	}
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	l := NewIPRateLimiter(1, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(xff string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("10.0.0.1, 172.16.0.1"); rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
	rec := do("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}
	if rec := do("10.0.0.2"); rec.Code != http.StatusNoContent {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestIPRateLimiter_ZeroLimitDisables(t *testing.T) {
	l := NewIPRateLimiter(0, time.Minute)
	for i := 0; i < 10; i++ {
		if ok, _ := l.Allow("x"); !ok {
			t.Fatalf("limit 0 must not block")
		}
	}
}
