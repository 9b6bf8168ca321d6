package shopify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestNormalizeShopDomain(t *testing.T) {
	cases := map[string]string{
		"acme":                          "acme.myshopify.com",
		"acme.myshopify.com":            "acme.myshopify.com",
		"https://acme.myshopify.com":    "acme.myshopify.com",
		"https://acme.myshopify.com/":   "acme.myshopify.com",
		"  ACME.MYSHOPIFY.COM  ":        "acme.myshopify.com",
		"http://acme.myshopify.com/x/y": "acme.myshopify.com",
		"":                              "",
	}
	for in, want := range cases {
		if got := NormalizeShopDomain(in); got != want {
			t.Fatalf("NormalizeShopDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildAuthURL(t *testing.T) {
	svc := NewOAuthService("key-1", "secret-1", "read_orders,read_products", "https://app.example.com/callback")

	authURL, state, err := svc.BuildAuthURL("acme.myshopify.com")
	if err != nil {
		t.Fatalf("BuildAuthURL failed: %v", err)
	}
	if state == "" || len(state) != 32 {
		t.Fatalf("expected 32-char hex state, got %q", state)
	}

	parsed, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("invalid auth URL: %v", err)
	}
	if parsed.Host != "acme.myshopify.com" || parsed.Path != "/admin/oauth/authorize" {
		t.Fatalf("unexpected auth URL %q", authURL)
	}
	q := parsed.Query()
	if q.Get("client_id") != "key-1" {
		t.Fatalf("missing client_id in %q", authURL)
	}
	if q.Get("scope") != "read_orders,read_products" {
		t.Fatalf("missing scope in %q", authURL)
	}
	if q.Get("redirect_uri") != "https://app.example.com/callback" {
		t.Fatalf("missing redirect_uri in %q", authURL)
	}
	if q.Get("state") != state {
		t.Fatalf("state in URL %q does not match returned state %q", q.Get("state"), state)
	}
	if q.Get("access_mode") != "offline" {
		t.Fatalf("access_mode = %q, want \"offline\" (url: %s)", q.Get("access_mode"), authURL)
	}
}

func TestBuildAuthURLStatesAreUnique(t *testing.T) {
	svc := NewOAuthService("key", "secret", "read_orders", "https://app.example.com/callback")
	_, s1, _ := svc.BuildAuthURL("acme.myshopify.com")
	_, s2, _ := svc.BuildAuthURL("acme.myshopify.com")
	if s1 == s2 {
		t.Fatalf("expected distinct states, got %q twice", s1)
	}
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		w.Write([]byte(`{"access_token":"tok-abc","scope":"read_orders"}`))
	}))
	defer srv.Close()

	svc := NewOAuthService("key", "secret", "read_orders", "https://app.example.com/callback")
	svc.httpClient = srv.Client()
	svc.tokenURLOverride = srv.URL

	token, err := svc.ExchangeCode(context.Background(), "acme.myshopify.com", "code-1")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}
	if token.AccessToken != "tok-abc" || token.Scope != "read_orders" {
		t.Fatalf("unexpected token %+v", token)
	}
}

func TestExchangeCodeRejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"scope":"read_orders"}`))
	}))
	defer srv.Close()

	svc := NewOAuthService("key", "secret", "read_orders", "https://app.example.com/callback")
	svc.httpClient = srv.Client()
	svc.tokenURLOverride = srv.URL

	if _, err := svc.ExchangeCode(context.Background(), "acme.myshopify.com", "code-1"); err == nil {
		t.Fatalf("expected error when response has no access_token")
	}
}
