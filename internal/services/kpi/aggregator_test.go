package kpi

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"sierre/internal/database"
	"sierre/internal/models"
	"sierre/internal/store"
)

func newTestAggregator(t *testing.T) (*Aggregator, *store.Store) {
	t.Helper()
	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	st := store.New(db.DB)
	return NewAggregator(st, nil, nil), st
}

func seedOrder(t *testing.T, st *store.Store, id, shop string, total float64, at time.Time) {
	t.Helper()
	err := st.UpsertOrders([]models.Order{{ID: id, Shop: shop, TotalPrice: total, CreatedAt: &at}})
	if err != nil {
		t.Fatalf("seed order failed: %v", err)
	}
}

func TestRangeToDates(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in         string
		days       int
		normalized string
	}{
		{"7d", 7, "7d"},
		{"30d", 30, "30d"},
		{"90d", 90, "90d"},
		{"", 30, "30d"},
		{"bogus", 30, "30d"},
	}
	for _, c := range cases {
		from, to, normalized := RangeToDates(c.in, now)
		if normalized != c.normalized {
			t.Fatalf("range %q normalized to %q, want %q", c.in, normalized, c.normalized)
		}
		if got := int(to.Sub(from).Hours() / 24); got != c.days {
			t.Fatalf("range %q spans %d days, want %d", c.in, got, c.days)
		}
	}
}

func TestSummaryComputesRevenueAndAOV(t *testing.T) {
	agg, st := newTestAggregator(t)
	shop := "acme.myshopify.com"
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }

	seedOrder(t, st, "1", shop, 100, now.AddDate(0, 0, -1))
	seedOrder(t, st, "2", shop, 50, now.AddDate(0, 0, -2))
	// Outside the 30d window.
	seedOrder(t, st, "3", shop, 999, now.AddDate(0, 0, -45))
	// Different shop.
	seedOrder(t, st, "4", "other.myshopify.com", 500, now.AddDate(0, 0, -1))

	summary, err := agg.GetSummary(context.Background(), shop, "30d")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Revenue != 150 {
		t.Fatalf("revenue = %v, want 150", summary.Revenue)
	}
	if summary.Orders != 2 {
		t.Fatalf("orders = %d, want 2", summary.Orders)
	}
	if summary.AOV != 75 {
		t.Fatalf("aov = %v, want 75", summary.AOV)
	}
}

func TestSummaryEmptyRangeIsZero(t *testing.T) {
	agg, _ := newTestAggregator(t)

	summary, err := agg.GetSummary(context.Background(), "empty.myshopify.com", "7d")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Revenue != 0 || summary.Orders != 0 || summary.AOV != 0 {
		t.Fatalf("expected zeros for empty range, got %+v", summary)
	}
}

func TestSalesDailyZeroFillsSeries(t *testing.T) {
	agg, st := newTestAggregator(t)
	shop := "acme.myshopify.com"
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }

	seedOrder(t, st, "1", shop, 30, now.AddDate(0, 0, -1))
	seedOrder(t, st, "2", shop, 20, now.AddDate(0, 0, -1))

	series, err := agg.GetSalesDaily(context.Background(), shop, "7d")
	if err != nil {
		t.Fatalf("sales daily failed: %v", err)
	}
	if len(series) != 7 {
		t.Fatalf("expected 7 points, got %d", len(series))
	}

	var nonZero int
	for _, p := range series {
		if p.Orders > 0 {
			nonZero++
			if p.Date != now.AddDate(0, 0, -1).Format("2006-01-02") {
				t.Fatalf("orders bucketed on wrong day: %+v", p)
			}
			if p.Revenue != 50 || p.Orders != 2 {
				t.Fatalf("unexpected bucket %+v", p)
			}
		}
	}
	if nonZero != 1 {
		t.Fatalf("expected exactly 1 non-empty day, got %d", nonZero)
	}
}

func TestTopProductsRanksByRevenue(t *testing.T) {
	agg, st := newTestAggregator(t)
	shop := "acme.myshopify.com"
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	agg.now = func() time.Time { return now }

	at := now.AddDate(0, 0, -1)
	seedOrder(t, st, "o1", shop, 300, at)
	err := st.UpsertOrderItems([]models.OrderItem{
		{ID: "i1", OrderID: "o1", ProductID: "p1", Title: "Widget", Quantity: 2, Price: 100},
		{ID: "i2", OrderID: "o1", ProductID: "p2", Title: "Gadget", Quantity: 1, Price: 50},
		{ID: "i3", OrderID: "o1", Title: "", Quantity: 1, Price: 25},
	})
	if err != nil {
		t.Fatalf("seed items failed: %v", err)
	}

	products, err := agg.GetTopProducts(context.Background(), shop, "30d")
	if err != nil {
		t.Fatalf("top products failed: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products, got %d", len(products))
	}
	if products[0].ProductID != "p1" || products[0].Revenue != 200 {
		t.Fatalf("expected Widget first with 200, got %+v", products[0])
	}
	if products[1].ProductID != "p2" || products[1].Revenue != 50 {
		t.Fatalf("expected Gadget second, got %+v", products[1])
	}
	if products[2].Title != "unknown" {
		t.Fatalf("item without product id or title should group as unknown, got %+v", products[2])
	}
}

func TestAggregateDailyRecomputesRollup(t *testing.T) {
	agg, st := newTestAggregator(t)
	shop := "acme.myshopify.com"
	day := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	seedOrder(t, st, "o1", shop, 100, day)
	seedOrder(t, st, "o2", shop, 50, day.Add(2*time.Hour))
	refundAt := day.Add(3 * time.Hour)
	err := st.UpsertRefund(&models.Refund{ID: "r1", OrderID: "o1", Amount: 25, CreatedAt: &refundAt})
	if err != nil {
		t.Fatalf("seed refund failed: %v", err)
	}

	row, err := agg.AggregateDaily(context.Background(), shop, "2026-08-27")
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if row.Revenue != 150 || row.Orders != 2 || row.AOV != 75 || row.Refunds != 25 {
		t.Fatalf("unexpected rollup %+v", row)
	}

	// Recompute converges to the same single row.
	seedOrder(t, st, "o3", shop, 30, day.Add(4*time.Hour))
	row, err = agg.AggregateDaily(context.Background(), shop, "2026-08-27")
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if row.Revenue != 180 || row.Orders != 3 {
		t.Fatalf("expected recomputed rollup, got %+v", row)
	}

	var rows []models.KpiDaily
	if err := st.DB().Find(&rows).Error; err != nil {
		t.Fatalf("load rollups failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 rollup row, got %d", len(rows))
	}
}

func TestAggregateDailyRejectsBadDate(t *testing.T) {
	agg, _ := newTestAggregator(t)
	if _, err := agg.AggregateDaily(context.Background(), "acme.myshopify.com", "27/08/2026"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}
