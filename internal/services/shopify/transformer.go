package shopify

import "sierre/internal/models"

// TransformOrder converts an API order payload into a row plus its line items.
func TransformOrder(shop string, o Order) (models.Order, []models.OrderItem) {
	row := models.Order{
		ID:                o.ID.String(),
		Shop:              shop,
		CreatedAt:         o.CreatedAt,
		ClosedAt:          o.ClosedAt,
		UpdatedAt:         o.UpdatedAt,
		Currency:          o.Currency,
		SubtotalPrice:     float64(o.SubtotalPrice),
		TotalPrice:        float64(o.TotalPrice),
		TotalTax:          float64(o.TotalTax),
		TotalDiscounts:    float64(o.TotalDiscounts),
		FinancialStatus:   o.FinancialStatus,
		FulfillmentStatus: o.FulfillmentStatus,
	}
	if o.Customer != nil {
		row.CustomerID = o.Customer.ID.String()
		row.CustomerEmail = o.Customer.Email
	}

	items := make([]models.OrderItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		if li.ID == "" {
			continue
		}
		items = append(items, models.OrderItem{
			ID:        li.ID.String(),
			OrderID:   row.ID,
			ProductID: li.ProductID.String(),
			VariantID: li.VariantID.String(),
			Title:     li.Title,
			SKU:       li.SKU,
			Quantity:  li.Quantity,
			Price:     float64(li.Price),
		})
	}
	return row, items
}

// TransformProduct converts an API product payload into a row plus variants.
func TransformProduct(shop string, p Product) (models.Product, []models.ProductVariant) {
	row := models.Product{
		ID:          p.ID.String(),
		Shop:        shop,
		Title:       p.Title,
		ProductType: p.ProductType,
		Vendor:      p.Vendor,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}

	variants := make([]models.ProductVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		if v.ID == "" {
			continue
		}
		variants = append(variants, models.ProductVariant{
			ID:                v.ID.String(),
			ProductID:         row.ID,
			Title:             v.Title,
			SKU:               v.SKU,
			Price:             float64(v.Price),
			InventoryQuantity: v.InventoryQuantity,
		})
	}
	return row, variants
}

// TransformRefund converts a refund payload into a row. The amount comes from
// the refund transaction when it carries one, otherwise from summing
// line-item subtotals.
func TransformRefund(r Refund) models.Refund {
	var amount float64
	for _, tx := range r.Transactions {
		if tx.Kind == "refund" {
			amount = float64(tx.Amount)
			break
		}
	}
	if amount == 0 {
		for _, li := range r.RefundLineItems {
			amount += float64(li.Subtotal)
		}
	}
	return models.Refund{
		ID:        r.ID.String(),
		OrderID:   r.OrderID.String(),
		Amount:    amount,
		Currency:  r.Currency,
		Reason:    r.Note,
		CreatedAt: r.CreatedAt,
	}
}
