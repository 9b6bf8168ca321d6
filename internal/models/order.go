package models

import "time"

// Order mirrors a Shopify order. The id is Shopify's numeric order id
// rendered as text, so rows written by sync and by webhooks converge.
type Order struct {
	ID                string     `json:"id" gorm:"primaryKey;column:id"`
	Shop              string     `json:"shop" gorm:"column:shop;not null"`
	CreatedAt         *time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime:false"`
	ClosedAt          *time.Time `json:"closed_at" gorm:"column:closed_at"`
	Currency          string     `json:"currency" gorm:"column:currency"`
	SubtotalPrice     float64    `json:"subtotal_price" gorm:"column:subtotal_price"`
	TotalPrice        float64    `json:"total_price" gorm:"column:total_price"`
	TotalTax          float64    `json:"total_tax" gorm:"column:total_tax"`
	TotalDiscounts    float64    `json:"total_discounts" gorm:"column:total_discounts"`
	FinancialStatus   string     `json:"financial_status" gorm:"column:financial_status"`
	FulfillmentStatus string     `json:"fulfillment_status" gorm:"column:fulfillment_status"`
	CustomerID        string     `json:"customer_id" gorm:"column:customer_id"`
	CustomerEmail     string     `json:"customer_email" gorm:"column:customer_email"`
	UpdatedAt         *time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:false"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a single line item belonging to an order.
type OrderItem struct {
	ID        string  `json:"id" gorm:"primaryKey;column:id"`
	OrderID   string  `json:"order_id" gorm:"column:order_id;not null"`
	ProductID string  `json:"product_id" gorm:"column:product_id"`
	VariantID string  `json:"variant_id" gorm:"column:variant_id"`
	Title     string  `json:"title" gorm:"column:title"`
	SKU       string  `json:"sku" gorm:"column:sku"`
	Quantity  int     `json:"quantity" gorm:"column:quantity"`
	Price     float64 `json:"price" gorm:"column:price"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Refund records money returned against an order.
type Refund struct {
	ID        string     `json:"id" gorm:"primaryKey;column:id"`
	OrderID   string     `json:"order_id" gorm:"column:order_id;not null"`
	Amount    float64    `json:"amount" gorm:"column:amount"`
	Currency  string     `json:"currency" gorm:"column:currency"`
	Reason    string     `json:"reason" gorm:"column:reason"`
	CreatedAt *time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime:false"`
}

func (Refund) TableName() string {
	return "refunds"
}
