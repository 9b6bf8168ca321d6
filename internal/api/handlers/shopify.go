package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"sierre/internal/config"
	"sierre/internal/logger"
	"sierre/internal/models"
	"sierre/internal/services/shopify"
	"sierre/internal/store"
)

const oauthStateTTL = 10 * time.Minute

// ShopifyHandler owns the connect/callback/disconnect/status lifecycle.
type ShopifyHandler struct {
	oauth   *shopify.OAuthService
	gateway *shopify.Gateway
	store   *store.Store
	redis   *redis.Client
	config  *config.Config
	logger  *logger.Logger
}

func NewShopifyHandler(oauth *shopify.OAuthService, gateway *shopify.Gateway, st *store.Store, rdb *redis.Client, cfg *config.Config, log *logger.Logger) *ShopifyHandler {
	return &ShopifyHandler{
		oauth:   oauth,
		gateway: gateway,
		store:   st,
		redis:   rdb,
		config:  cfg,
		logger:  log,
	}
}

// Connect redirects the merchant to Shopify's authorize page.
func (h *ShopifyHandler) Connect(c *gin.Context) {
	shop := shopify.NormalizeShopDomain(c.Query("shop"))
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop parameter is required"})
		return
	}

	authURL, state, err := h.oauth.BuildAuthURL(shop)
	if err != nil {
		h.logger.Error("Failed to build auth URL for %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate install URL"})
		return
	}

	// State survives the round trip in Redis when available. Without Redis
	// the callback skips state verification.
	if h.redis != nil {
		if err := h.redis.Set(c.Request.Context(), "oauth:state:"+state, shop, oauthStateTTL).Err(); err != nil {
			h.logger.Warn("Failed to store oauth state for %s: %v", shop, err)
		}
	}

	c.Redirect(http.StatusFound, authURL)
}

// Callback completes the install: token exchange, credential upsert, webhook
// registration, then redirect to the dashboard.
func (h *ShopifyHandler) Callback(c *gin.Context) {
	shop := shopify.NormalizeShopDomain(c.Query("shop"))
	code := c.Query("code")
	state := c.Query("state")

	if shop == "" || code == "" {
		h.redirectError(c, "missing_params", "shop and code are required")
		return
	}

	if h.redis != nil && state != "" {
		stored, err := h.redis.Get(c.Request.Context(), "oauth:state:"+state).Result()
		if err != nil || stored != shop {
			h.redirectError(c, "invalid_state", "oauth state mismatch")
			return
		}
		h.redis.Del(c.Request.Context(), "oauth:state:"+state)
	}

	token, err := h.oauth.ExchangeCode(c.Request.Context(), shop, code)
	if err != nil {
		h.logger.Error("Token exchange failed for %s: %v", shop, err)
		h.redirectError(c, "token_exchange_failed", err.Error())
		return
	}

	cred := &models.ShopCredential{
		Shop:        shop,
		AccessToken: token.AccessToken,
		Scopes:      token.Scope,
	}
	if err := h.store.SaveCredential(cred); err != nil {
		h.logger.Error("Failed to save credential for %s: %v", shop, err)
		h.redirectError(c, "persist_failed", "could not store credentials")
		return
	}

	// Registration failures are logged per topic, never fatal to the install.
	h.gateway.RegisterDefaultWebhooks(c.Request.Context(), shop, token.AccessToken, h.config.AppBaseURL+"/webhooks")

	h.logger.Info("Shop %s connected", shop)
	c.Redirect(http.StatusFound, h.config.DashboardURL+"?connected=shopify")
}

// Disconnect removes the credential and sync state for a shop.
func (h *ShopifyHandler) Disconnect(c *gin.Context) {
	var req struct {
		Shop string `json:"shop"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop is required"})
		return
	}
	shop := shopify.NormalizeShopDomain(req.Shop)

	if err := h.store.DeleteCredential(shop); err != nil {
		h.logger.Error("Failed to delete credential for %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to disconnect"})
		return
	}
	if err := h.store.DeleteSyncStatus(shop); err != nil {
		h.logger.Error("Failed to delete sync status for %s: %v", shop, err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "shop": shop})
}

// Status reports whether the shop is connected and its sync checkpoints.
func (h *ShopifyHandler) Status(c *gin.Context) {
	shop := shopify.NormalizeShopDomain(c.Query("shop"))
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop parameter is required"})
		return
	}

	cred, err := h.store.GetCredential(shop)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load connection status"})
		return
	}
	if cred == nil {
		c.JSON(http.StatusOK, gin.H{"connected": false, "shop": shop})
		return
	}

	resp := gin.H{
		"connected":    true,
		"shop":         shop,
		"scopes":       cred.Scopes,
		"connected_at": cred.ConnectedAt,
	}
	if status, err := h.store.GetSyncStatus(shop); err == nil && status != nil {
		resp["orders_last_sync_at"] = status.OrdersLastSyncAt
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShopifyHandler) redirectError(c *gin.Context, code, details string) {
	target := fmt.Sprintf("%s?error=%s&details=%s", h.config.DashboardURL, url.QueryEscape(code), url.QueryEscape(details))
	c.Redirect(http.StatusFound, target)
}
