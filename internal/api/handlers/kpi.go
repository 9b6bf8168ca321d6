package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sierre/internal/logger"
	"sierre/internal/services/kpi"
	"sierre/internal/services/shopify"
)

// KpiHandler serves the KPI read models.
type KpiHandler struct {
	aggregator *kpi.Aggregator
	logger     *logger.Logger
}

func NewKpiHandler(aggregator *kpi.Aggregator, log *logger.Logger) *KpiHandler {
	return &KpiHandler{aggregator: aggregator, logger: log}
}

func (h *KpiHandler) Summary(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	summary, err := h.aggregator.GetSummary(c.Request.Context(), shop, c.Query("range"))
	if err != nil {
		h.logger.Error("KPI summary failed for %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *KpiHandler) SalesDaily(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	series, err := h.aggregator.GetSalesDaily(c.Request.Context(), shop, c.Query("range"))
	if err != nil {
		h.logger.Error("Sales daily failed for %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute daily series"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": series})
}

func (h *KpiHandler) TopProducts(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	products, err := h.aggregator.GetTopProducts(c.Request.Context(), shop, c.Query("range"))
	if err != nil {
		h.logger.Error("Top products failed for %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute top products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *KpiHandler) AggregateDaily(c *gin.Context) {
	var req struct {
		Shop string `json:"shop"`
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop is required"})
		return
	}
	shop := shopify.NormalizeShopDomain(req.Shop)

	row, err := h.aggregator.AggregateDaily(c.Request.Context(), shop, req.Date)
	if err != nil {
		h.logger.Error("Daily aggregation failed for %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "kpi": row})
}

func requireShop(c *gin.Context) (string, bool) {
	shop := shopify.NormalizeShopDomain(c.Query("shop"))
	if shop == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shop parameter is required"})
		return "", false
	}
	return shop, true
}
