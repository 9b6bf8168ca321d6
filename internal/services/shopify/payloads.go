package shopify

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Money tolerates Shopify's habit of shipping amounts as strings ("12.34"),
// numbers, or null. Anything unparseable decodes to zero.
type Money float64

func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*m = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*m = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*m = 0
			return nil
		}
		*m = Money(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*m = 0
		return nil
	}
	*m = Money(f)
	return nil
}

// ID tolerates numeric or string ids and normalizes them to text.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

type Customer struct {
	ID    ID     `json:"id"`
	Email string `json:"email"`
}

type LineItem struct {
	ID        ID     `json:"id"`
	ProductID ID     `json:"product_id"`
	VariantID ID     `json:"variant_id"`
	Title     string `json:"title"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Price     Money  `json:"price"`
}

type Order struct {
	ID                ID         `json:"id"`
	CreatedAt         *time.Time `json:"created_at"`
	ClosedAt          *time.Time `json:"closed_at"`
	UpdatedAt         *time.Time `json:"updated_at"`
	Currency          string     `json:"currency"`
	SubtotalPrice     Money      `json:"subtotal_price"`
	TotalPrice        Money      `json:"total_price"`
	TotalTax          Money      `json:"total_tax"`
	TotalDiscounts    Money      `json:"total_discounts"`
	FinancialStatus   string     `json:"financial_status"`
	FulfillmentStatus string     `json:"fulfillment_status"`
	Customer          *Customer  `json:"customer"`
	LineItems         []LineItem `json:"line_items"`
}

type OrdersEnvelope struct {
	Orders []Order `json:"orders"`
}

type Variant struct {
	ID                ID     `json:"id"`
	Title             string `json:"title"`
	SKU               string `json:"sku"`
	Price             Money  `json:"price"`
	InventoryQuantity int    `json:"inventory_quantity"`
}

type Product struct {
	ID          ID         `json:"id"`
	Title       string     `json:"title"`
	ProductType string     `json:"product_type"`
	Vendor      string     `json:"vendor"`
	Status      string     `json:"status"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	Variants    []Variant  `json:"variants"`
}

type InventoryLevel struct {
	InventoryItemID ID  `json:"inventory_item_id"`
	LocationID      ID  `json:"location_id"`
	Available       int `json:"available"`
}

type RefundLineItem struct {
	Subtotal Money `json:"subtotal"`
}

type Transaction struct {
	Kind   string `json:"kind"`
	Amount Money  `json:"amount"`
}

type Refund struct {
	ID              ID               `json:"id"`
	OrderID         ID               `json:"order_id"`
	Note            string           `json:"note"`
	CreatedAt       *time.Time       `json:"created_at"`
	Currency        string           `json:"currency"`
	RefundLineItems []RefundLineItem `json:"refund_line_items"`
	Transactions    []Transaction    `json:"transactions"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}
