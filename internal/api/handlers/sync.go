package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sierre/internal/events"
	"sierre/internal/logger"
	"sierre/internal/services/shopify"
	syncsvc "sierre/internal/services/sync"
)

// SyncHandler triggers order pulls.
type SyncHandler struct {
	engine    *syncsvc.Engine
	publisher *events.Publisher
	logger    *logger.Logger
}

func NewSyncHandler(engine *syncsvc.Engine, publisher *events.Publisher, log *logger.Logger) *SyncHandler {
	return &SyncHandler{engine: engine, publisher: publisher, logger: log}
}

// Sync runs an incremental order sync for the shop.
func (h *SyncHandler) Sync(c *gin.Context) {
	shop, ok := h.bindShop(c)
	if !ok {
		return
	}

	count, dates, err := h.engine.SyncOrders(c.Request.Context(), shop)
	if err != nil {
		h.respondError(c, shop, err)
		return
	}

	h.publishCompleted(c, shop, dates)
	c.JSON(http.StatusOK, gin.H{"ok": true, "count": count})
}

// Backfill pulls the full order history for the shop.
func (h *SyncHandler) Backfill(c *gin.Context) {
	shop, ok := h.bindShop(c)
	if !ok {
		return
	}

	fetched, dates, err := h.engine.BackfillOrders(c.Request.Context(), shop)
	if err != nil {
		h.respondError(c, shop, err)
		return
	}

	h.publishCompleted(c, shop, dates)
	c.JSON(http.StatusOK, gin.H{"ok": true, "fetched": fetched})
}

func (h *SyncHandler) bindShop(c *gin.Context) (string, bool) {
	var req struct {
		Shop string `json:"shop"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop is required"})
		return "", false
	}
	return shopify.NormalizeShopDomain(req.Shop), true
}

func (h *SyncHandler) respondError(c *gin.Context, shop string, err error) {
	h.logger.Error("Sync failed for %s: %v", shop, err)
	switch {
	case errors.Is(err, syncsvc.ErrNotConnected):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shopify not connected"})
	case errors.Is(err, shopify.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited by Shopify"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// publishCompleted announces which rollup days the worker should refresh.
// Dates come from the synced orders so a backfill also refreshes history;
// an empty sync still refreshes today.
func (h *SyncHandler) publishCompleted(c *gin.Context, shop string, dates []string) {
	if len(dates) == 0 {
		dates = []string{time.Now().UTC().Format("2006-01-02")}
	}
	err := h.publisher.Publish(c.Request.Context(), events.Event{
		Type:  events.TypeSyncCompleted,
		Shop:  shop,
		Dates: dates,
	})
	if err != nil {
		h.logger.Warn("Failed to publish sync event for %s: %v", shop, err)
	}
}
