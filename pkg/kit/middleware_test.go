package kit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecoverer_WritesJSON500(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(Recoverer(zap.New(core)))
	r.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "server error" || body.RequestID == "" {
		t.Fatalf("body=%+v", body)
	}
	if logs.FilterMessage("handler panic").Len() != 1 {
		t.Fatalf("panic not logged")
	}
}

func TestLogging_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(Logging(zap.New(core)))
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d", len(entries))
	}
	e := entries[0]
	if e.Level != zap.WarnLevel {
		t.Fatalf("level=%v", e.Level)
	}
	if got := e.ContextMap()["route"]; got != "/items/{id}" {
		t.Fatalf("route=%v", got)
	}
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware("test", RouteLabel))
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("test", "GET", "/items/{id}", "202")); got != 3 {
		t.Fatalf("requests=%v", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("test", "GET", unmatchedRoute, "404")); got != 1 {
		t.Fatalf("unmatched=%v", got)
	}
	if got := testutil.ToFloat64(m.InFlight.WithLabelValues("test")); got != 0 {
		t.Fatalf("in flight=%v", got)
	}
}

func TestMetricsAuth(t *testing.T) {
	h := MetricsAuth("s3cret")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		authz string
		want  int
	}{
		{"", http.StatusForbidden},
		{"Basic s3cret", http.StatusForbidden},
		{"Bearer wrong", http.StatusForbidden},
		{"Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if tt.authz != "" {
			req.Header.Set("Authorization", tt.authz)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Fatalf("authz=%q status=%d want %d", tt.authz, rec.Code, tt.want)
		}
	}

	locked := MetricsAuth("")(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	locked.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("empty token status=%d", rec.Code)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Query string `json:"query"`
	}
	tests := []struct {
		body    string
		wantErr bool
	}{
		{`{"query":"laptop"}`, false},
		{``, true},
		{`{"query":"laptop","extra":1}`, true},
		{`{"query":"a"}{"query":"b"}`, true},
		{`[1,2]`, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		var p payload
		err := DecodeJSON(req, &p)
		if (err != nil) != tt.wantErr {
			t.Fatalf("body=%q err=%v", tt.body, err)
		}
	}
}

func TestNewLogger_RejectsBadLevel(t *testing.T) {
	if _, err := NewLogger("svc", "loud"); err == nil {
		t.Fatalf("expected error")
	}
	l, err := NewLogger("svc", "debug")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if !l.Core().Enabled(zap.DebugLevel) {
		t.Fatalf("debug not enabled")
	}
}
