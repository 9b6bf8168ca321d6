package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sierre/internal/logger"
	"sierre/internal/services/analytics"
	"sierre/internal/services/insights"
)

// InsightsHandler builds the analytics snapshot and runs the rule engine.
type InsightsHandler struct {
	builder *analytics.Builder
	logger  *logger.Logger
}

func NewInsightsHandler(builder *analytics.Builder, log *logger.Logger) *InsightsHandler {
	return &InsightsHandler{builder: builder, logger: log}
}

func (h *InsightsHandler) Get(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	days := 30
	switch c.Query("range") {
	case "7d":
		days = 7
	case "90d":
		days = 90
	}

	data, err := h.builder.Build(c.Request.Context(), shop, days)
	if err != nil {
		h.logger.Error("Analytics snapshot failed for %s: %v", shop, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build analytics"})
		return
	}

	analysis := insights.Analyze(data, shop)
	c.JSON(http.StatusOK, gin.H{
		"shop":     shop,
		"data":     data,
		"analysis": analysis,
	})
}
