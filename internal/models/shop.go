package models

import "time"

// ShopCredential holds the offline access token for a connected store.
type ShopCredential struct {
	Shop        string     `json:"shop" gorm:"primaryKey;column:shop"`
	AccessToken string     `json:"-" gorm:"column:access_token;not null"`
	Scopes      string     `json:"scopes" gorm:"column:scopes"`
	ConnectedAt *time.Time `json:"connected_at" gorm:"column:connected_at"`
}

func (ShopCredential) TableName() string {
	return "shopify_stores"
}

// SyncStatus tracks per-resource incremental sync checkpoints for a shop.
type SyncStatus struct {
	Shop                string     `json:"shop" gorm:"primaryKey;column:shop"`
	OrdersLastSyncAt    *time.Time `json:"orders_last_sync_at" gorm:"column:orders_last_sync_at"`
	ProductsLastSyncAt  *time.Time `json:"products_last_sync_at" gorm:"column:products_last_sync_at"`
	InventoryLastSyncAt *time.Time `json:"inventory_last_sync_at" gorm:"column:inventory_last_sync_at"`
	UpdatedAt           time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (SyncStatus) TableName() string {
	return "sync_status"
}
