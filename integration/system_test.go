//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"
)

var (
	baseURL     = getenv("E2E_BASE_URL", "http://localhost:8080")
	searchQuery = getenv("E2E_QUERY", "laptop")
)

type sessionView struct {
	ID      string `json:"id"`
	Phase   string `json:"phase"`
	Message string `json:"message"`
	SortKey string `json:"sort_key"`
	Count   int    `json:"count"`
	Results []struct {
		Name       string  `json:"name"`
		StoreName  string  `json:"storeName"`
		PriceValue float64 `json:"priceValue"`
	} `json:"results"`
}

func TestSystem_E2E_SearchAndSort(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var sess sessionView
	doJSON(t, http.MethodPost, baseURL+"/api/sessions", nil, &sess, 201)
	if sess.ID == "" {
		t.Fatalf("empty session id")
	}
	sessURL := baseURL + "/api/sessions/" + sess.ID

	var got sessionView
	doJSON(t, http.MethodPost, sessURL+"/search?wait=20s", map[string]any{"query": searchQuery}, &got, 200)
	if got.Phase != "success" {
		t.Fatalf("phase=%s message=%q", got.Phase, got.Message)
	}
	for i := 1; i < len(got.Results); i++ {
		if got.Results[i-1].PriceValue > got.Results[i].PriceValue {
			t.Fatalf("results not cheapest first at %d: %+v", i, got.Results)
		}
	}

	doJSON(t, http.MethodPut, sessURL+"/sort", map[string]any{"key": "price-desc"}, &got, 200)
	if got.SortKey != "price-desc" {
		t.Fatalf("sort_key=%s", got.SortKey)
	}
	for i := 1; i < len(got.Results); i++ {
		if got.Results[i-1].PriceValue < got.Results[i].PriceValue {
			t.Fatalf("results not dearest first at %d: %+v", i, got.Results)
		}
	}

	doJSON(t, http.MethodPut, sessURL+"/sort", map[string]any{"key": "nope"}, nil, 400)
	doJSON(t, http.MethodDelete, sessURL, nil, nil, 204)
	doJSON(t, http.MethodGet, sessURL, nil, nil, 404)
}

func TestSystem_E2E_StatsSurviveRestart(t *testing.T) {
	if os.Getenv("E2E_RESTART_STOREFRONT") != "1" {
		t.Skip("set E2E_RESTART_STOREFRONT=1 to restart the storefront container")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	term := fmt.Sprintf("e2e term %d %d", time.Now().Unix(), rand.Intn(100000))

	var sess sessionView
	doJSON(t, http.MethodPost, baseURL+"/api/sessions", nil, &sess, 201)
	doJSON(t, http.MethodPost, baseURL+"/api/sessions/"+sess.ID+"/search?wait=20s", map[string]any{"query": term}, nil, 200)

	restartStorefrontContainer(t, ctx)
	waitReady(t, ctx, baseURL+"/readyz")

	var counts map[string]int64
	doJSON(t, http.MethodGet, baseURL+"/api/stats/searches", nil, &counts, 200)
	if counts[term] != 1 {
		t.Fatalf("count for %q=%d after restart", term, counts[term])
	}

	// Sessions are in memory; the old one is gone.
	doJSON(t, http.MethodGet, baseURL+"/api/sessions/"+sess.ID, nil, nil, 404)
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
