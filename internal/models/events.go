package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventorySnapshot is an append-only record of an inventory level update.
type InventorySnapshot struct {
	ID         string    `json:"id" gorm:"primaryKey;column:id"`
	Shop       string    `json:"shop" gorm:"column:shop;not null"`
	ProductID  string    `json:"product_id" gorm:"column:product_id"`
	VariantID  string    `json:"variant_id" gorm:"column:variant_id"`
	Quantity   int       `json:"quantity" gorm:"column:quantity"`
	CapturedAt time.Time `json:"captured_at" gorm:"column:captured_at"`
}

func (InventorySnapshot) TableName() string {
	return "inventory_snapshots"
}

func (s *InventorySnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// WebhookLog is the audit trail for every verified webhook delivery.
type WebhookLog struct {
	ID         string    `json:"id" gorm:"primaryKey;column:id"`
	Shop       string    `json:"shop" gorm:"column:shop;not null"`
	Topic      string    `json:"topic" gorm:"column:topic;not null"`
	Payload    string    `json:"payload" gorm:"column:payload"`
	ReceivedAt time.Time `json:"received_at" gorm:"column:received_at"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}

func (w *WebhookLog) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}
