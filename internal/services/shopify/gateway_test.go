package shopify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testGateway(srv *httptest.Server) (*Gateway, *[]time.Duration) {
	var sleeps []time.Duration
	g := &Gateway{
		httpClient:      srv.Client(),
		baseURLOverride: srv.URL,
		sleep:           func(d time.Duration) { sleeps = append(sleeps, d) },
	}
	return g, &sleeps
}

func TestGatewayRetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"orders":[]}`))
	}))
	defer srv.Close()

	g, sleeps := testGateway(srv)
	body, err := g.Request(context.Background(), "test.myshopify.com", "tok", http.MethodGet, "orders.json", nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if string(body) != `{"orders":[]}` {
		t.Fatalf("unexpected body %q", body)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	// Retry-After scales with the attempt number.
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(*sleeps))
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Fatalf("sleep %d: expected %s, got %s", i, d, (*sleeps)[i])
		}
	}
}

func TestGatewayRateLimitExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g, _ := testGateway(srv)
	_, err := g.Request(context.Background(), "test.myshopify.com", "tok", http.MethodGet, "orders.json", nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestGatewaySurfacesLastError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g, sleeps := testGateway(srv)
	_, err := g.Request(context.Background(), "test.myshopify.com", "tok", http.MethodGet, "orders.json", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", apiErr.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Fatalf("expected 4 attempts (1 + 3 retries), got %d", got)
	}
	// Transient backoff is linear in the attempt number.
	want := []time.Duration{500 * time.Millisecond, time.Second, 1500 * time.Millisecond, 2 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(*sleeps))
	}
	for i, d := range want {
		if (*sleeps)[i] != d {
			t.Fatalf("sleep %d: expected %s, got %s", i, d, (*sleeps)[i])
		}
	}
}

func TestGatewaySendsAccessToken(t *testing.T) {
	var gotToken, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Shopify-Access-Token")
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g, _ := testGateway(srv)
	if _, err := g.Request(context.Background(), "test.myshopify.com", "tok-123", http.MethodGet, "orders.json", nil); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if gotToken != "tok-123" {
		t.Fatalf("expected access token header, got %q", gotToken)
	}
	if gotPath != "/admin/api/"+apiVersion+"/orders.json" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}
