package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sierre/internal/logger"
)

const (
	// Admin API version every REST call is pinned to.
	apiVersion = "2024-10"

	maxRetries        = 3
	transientBackoff  = 500 * time.Millisecond
	defaultRetryAfter = 1 * time.Second
)

// ErrRateLimited marks a 429 that survived all retries.
var ErrRateLimited = errors.New("shopify: rate limited")

// APIError is a non-2xx response from the Admin API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopify: api error %d: %s", e.StatusCode, e.Body)
}

// Gateway is the REST wrapper around the Shopify Admin API. It owns retry
// behavior: 429 responses honor Retry-After, anything else transient gets a
// linear backoff, and the last error is surfaced after the retry ceiling.
type Gateway struct {
	httpClient *http.Client
	logger     *logger.Logger

	// baseURLOverride replaces https://{shop} in tests.
	baseURLOverride string

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

func NewGateway(log *logger.Logger) *Gateway {
	return &Gateway{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log,
		sleep:      time.Sleep,
	}
}

func (g *Gateway) baseURL(shop string) string {
	if g.baseURLOverride != "" {
		return g.baseURLOverride
	}
	return "https://" + shop
}

// Request performs one Admin API call with retries. path is relative to the
// versioned API root, e.g. "orders.json?status=any&limit=250".
func (g *Gateway) Request(ctx context.Context, shop, token, method, path string, body interface{}) ([]byte, error) {
	url := fmt.Sprintf("%s/admin/api/%s/%s", g.baseURL(shop), apiVersion, strings.TrimPrefix(path, "/"))

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("X-Shopify-Access-Token", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("shopify: request failed: %w", err)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			g.sleep(time.Duration(attempt+1) * transientBackoff)
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp.Header.Get("Retry-After"))
			lastErr = fmt.Errorf("%w (shop %s)", ErrRateLimited, shop)
			if g.logger != nil {
				g.logger.Warn("Rate limited by %s, waiting %s (attempt %d)", shop, wait, attempt+1)
			}
			g.sleep(time.Duration(attempt+1) * wait)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastErr = &APIError{StatusCode: resp.StatusCode, Body: truncate(string(respBody), 512)}
			g.sleep(time.Duration(attempt+1) * transientBackoff)
			continue
		}

		if readErr != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", readErr)
			g.sleep(time.Duration(attempt+1) * transientBackoff)
			continue
		}

		return respBody, nil
	}

	return nil, lastErr
}

// Get decodes a JSON GET response into out.
func (g *Gateway) Get(ctx context.Context, shop, token, path string, out interface{}) error {
	body, err := g.Request(ctx, shop, token, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// Post sends body as JSON and decodes the response into out when non-nil.
func (g *Gateway) Post(ctx context.Context, shop, token, path string, body, out interface{}) error {
	respBody, err := g.Request(ctx, shop, token, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

var defaultWebhookTopics = []string{
	"orders/create",
	"orders/updated",
	"products/update",
	"inventory_levels/update",
	"refunds/create",
}

// RegisterDefaultWebhooks subscribes the shop to the topics the ingestor
// handles. Each registration is best-effort: a topic that is already
// registered (or otherwise fails) is logged and skipped.
func (g *Gateway) RegisterDefaultWebhooks(ctx context.Context, shop, token, callbackURL string) {
	for _, topic := range defaultWebhookTopics {
		payload := map[string]interface{}{
			"webhook": map[string]string{
				"topic":   topic,
				"address": callbackURL,
				"format":  "json",
			},
		}
		if err := g.Post(ctx, shop, token, "webhooks.json", payload, nil); err != nil {
			if g.logger != nil {
				g.logger.Warn("Webhook registration for %s on %s failed: %v", topic, shop, err)
			}
		}
	}
}

func retryAfter(header string) time.Duration {
	if header == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.ParseFloat(header, 64); err == nil && secs > 0 {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultRetryAfter
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
