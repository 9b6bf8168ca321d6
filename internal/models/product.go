package models

import "time"

// Product mirrors a Shopify product.
type Product struct {
	ID          string     `json:"id" gorm:"primaryKey;column:id"`
	Shop        string     `json:"shop" gorm:"column:shop;not null"`
	Title       string     `json:"title" gorm:"column:title"`
	ProductType string     `json:"product_type" gorm:"column:product_type"`
	Vendor      string     `json:"vendor" gorm:"column:vendor"`
	Status      string     `json:"status" gorm:"column:status"`
	CreatedAt   *time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime:false"`
	UpdatedAt   *time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:false"`
}

func (Product) TableName() string {
	return "products"
}

// ProductVariant is a purchasable variant of a product.
type ProductVariant struct {
	ID                string  `json:"id" gorm:"primaryKey;column:id"`
	ProductID         string  `json:"product_id" gorm:"column:product_id;not null"`
	Title             string  `json:"title" gorm:"column:title"`
	SKU               string  `json:"sku" gorm:"column:sku"`
	Price             float64 `json:"price" gorm:"column:price"`
	InventoryQuantity int     `json:"inventory_quantity" gorm:"column:inventory_quantity"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}
