package shopify

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OAuthService drives the Shopify app install flow: authorize redirect with a
// random state, then code-for-token exchange.
type OAuthService struct {
	apiKey      string
	apiSecret   string
	scopes      string
	redirectURL string

	httpClient *http.Client

	// tokenURLOverride replaces https://{shop}/admin/oauth/access_token in tests.
	tokenURLOverride string
}

func NewOAuthService(apiKey, apiSecret, scopes, redirectURL string) *OAuthService {
	return &OAuthService{
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		scopes:      scopes,
		redirectURL: redirectURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// NormalizeShopDomain accepts "acme", "acme.myshopify.com", or a full URL and
// returns the bare myshopify domain.
func NormalizeShopDomain(shop string) string {
	shop = strings.TrimSpace(strings.ToLower(shop))
	shop = strings.TrimPrefix(shop, "https://")
	shop = strings.TrimPrefix(shop, "http://")
	if i := strings.IndexByte(shop, '/'); i >= 0 {
		shop = shop[:i]
	}
	if shop == "" {
		return ""
	}
	if !strings.HasSuffix(shop, ".myshopify.com") {
		shop = shop + ".myshopify.com"
	}
	return shop
}

// BuildAuthURL returns the authorize URL and the state nonce embedded in it.
func (o *OAuthService) BuildAuthURL(shop string) (string, string, error) {
	state, err := randomState()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate oauth state: %w", err)
	}

	q := url.Values{}
	q.Set("client_id", o.apiKey)
	q.Set("scope", o.scopes)
	q.Set("redirect_uri", o.redirectURL)
	q.Set("state", state)
	q.Set("access_mode", "offline")

	authURL := fmt.Sprintf("https://%s/admin/oauth/authorize?%s", shop, q.Encode())
	return authURL, state, nil
}

// ExchangeCode trades the authorization code for an offline access token.
func (o *OAuthService) ExchangeCode(ctx context.Context, shop, code string) (*TokenResponse, error) {
	tokenURL := o.tokenURLOverride
	if tokenURL == "" {
		tokenURL = fmt.Sprintf("https://%s/admin/oauth/access_token", shop)
	}

	payload, err := json.Marshal(map[string]string{
		"client_id":     o.apiKey,
		"client_secret": o.apiSecret,
		"code":          code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	var token TokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token exchange for %s returned no access_token", shop)
	}
	return &token, nil
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
