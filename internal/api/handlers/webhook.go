package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sierre/internal/events"
	"sierre/internal/logger"
	"sierre/internal/models"
	"sierre/internal/services/shopify"
	"sierre/internal/store"
)

var webhooksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "sierre_webhooks_received_total",
	Help: "Verified webhook deliveries by topic.",
}, []string{"topic"})

// WebhookHandler ingests Shopify webhooks. After the signature verifies,
// every downstream step is best-effort: a failing topic handler must not
// cause Shopify to retry the delivery, so the response is 200 regardless.
type WebhookHandler struct {
	store     *store.Store
	secret    string
	publisher *events.Publisher
	logger    *logger.Logger
}

func NewWebhookHandler(st *store.Store, secret string, publisher *events.Publisher, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		store:     st,
		secret:    secret,
		publisher: publisher,
		logger:    log,
	}
}

func (h *WebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	hmacHeader := c.GetHeader("X-Shopify-Hmac-Sha256")
	if !shopify.VerifyWebhook(h.secret, hmacHeader, body) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid hmac"})
		return
	}

	topic := c.GetHeader("X-Shopify-Topic")
	shop := c.GetHeader("X-Shopify-Shop-Domain")
	webhooksReceived.WithLabelValues(topic).Inc()

	if err := h.store.LogWebhook(&models.WebhookLog{
		Shop:    shop,
		Topic:   topic,
		Payload: string(body),
	}); err != nil {
		h.logger.Warn("Failed to log webhook %s from %s: %v", topic, shop, err)
	}

	h.dispatch(topic, shop, body)

	if err := h.publisher.Publish(c.Request.Context(), events.Event{
		Type:  events.TypeWebhookReceived,
		Shop:  shop,
		Dates: []string{time.Now().UTC().Format("2006-01-02")},
	}); err != nil {
		h.logger.Warn("Failed to publish webhook event for %s: %v", shop, err)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "topic": topic, "shop": shop})
}

func (h *WebhookHandler) dispatch(topic, shop string, body []byte) {
	var err error
	switch topic {
	case "orders/create", "orders/updated":
		err = h.handleOrder(shop, body)
	case "products/update":
		err = h.handleProduct(shop, body)
	case "inventory_levels/update":
		err = h.handleInventory(shop, body)
	case "refunds/create":
		err = h.handleRefund(body)
	default:
		h.logger.Debug("Unhandled webhook topic %s from %s", topic, shop)
		return
	}
	if err != nil {
		h.logger.Error("Webhook handler for %s from %s failed: %v", topic, shop, err)
	}
}

func (h *WebhookHandler) handleOrder(shop string, body []byte) error {
	var payload shopify.Order
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	// Some deliveries wrap the order as {"order": {...}}.
	if payload.ID == "" {
		var wrapped struct {
			Order *shopify.Order `json:"order"`
		}
		if err := json.Unmarshal(body, &wrapped); err != nil {
			return err
		}
		if wrapped.Order != nil {
			payload = *wrapped.Order
		}
	}
	row, items := shopify.TransformOrder(shop, payload)
	if row.ID == "" {
		return nil
	}
	if err := h.store.UpsertOrders([]models.Order{row}); err != nil {
		return err
	}
	return h.store.UpsertOrderItems(items)
}

func (h *WebhookHandler) handleProduct(shop string, body []byte) error {
	var payload shopify.Product
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	row, variants := shopify.TransformProduct(shop, payload)
	if row.ID == "" {
		return nil
	}
	return h.store.UpsertProduct(&row, variants)
}

func (h *WebhookHandler) handleInventory(shop string, body []byte) error {
	var payload shopify.InventoryLevel
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	return h.store.InsertInventorySnapshot(&models.InventorySnapshot{
		Shop:      shop,
		VariantID: payload.InventoryItemID.String(),
		Quantity:  payload.Available,
	})
}

func (h *WebhookHandler) handleRefund(body []byte) error {
	var payload shopify.Refund
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	row := shopify.TransformRefund(payload)
	if row.ID == "" {
		return nil
	}
	return h.store.UpsertRefund(&row)
}
