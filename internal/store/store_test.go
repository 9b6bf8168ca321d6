package store

import (
	"path/filepath"
	"testing"
	"time"

	"sierre/internal/database"
	"sierre/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db.DB)
}

func TestUpsertOrdersIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	order := models.Order{ID: "1001", Shop: "acme.myshopify.com", TotalPrice: 50, CreatedAt: &now}
	if err := st.UpsertOrders([]models.Order{order}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := st.UpsertOrders([]models.Order{order}); err != nil {
		t.Fatalf("replayed upsert failed: %v", err)
	}

	var count int64
	if err := st.DB().Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row after replay, got %d", count)
	}
}

func TestUpsertOrdersLastWriteWins(t *testing.T) {
	st := newTestStore(t)
	now := time.Now().UTC()

	order := models.Order{ID: "1001", Shop: "acme.myshopify.com", TotalPrice: 50, FinancialStatus: "pending", CreatedAt: &now}
	if err := st.UpsertOrders([]models.Order{order}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	order.TotalPrice = 75
	order.FinancialStatus = "paid"
	if err := st.UpsertOrders([]models.Order{order}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	var got models.Order
	if err := st.DB().First(&got, "id = ?", "1001").Error; err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.TotalPrice != 75 || got.FinancialStatus != "paid" {
		t.Fatalf("expected updated values, got %+v", got)
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetCredential("acme.myshopify.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for unknown shop, got %+v", got)
	}

	cred := &models.ShopCredential{Shop: "acme.myshopify.com", AccessToken: "tok-1", Scopes: "read_orders"}
	if err := st.SaveCredential(cred); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Reconnecting overwrites the token.
	cred2 := &models.ShopCredential{Shop: "acme.myshopify.com", AccessToken: "tok-2", Scopes: "read_orders"}
	if err := st.SaveCredential(cred2); err != nil {
		t.Fatalf("re-save failed: %v", err)
	}

	got, err = st.GetCredential("acme.myshopify.com")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil || got.AccessToken != "tok-2" {
		t.Fatalf("expected latest token, got %+v", got)
	}
	if got.ConnectedAt == nil {
		t.Fatalf("expected connected_at to be set")
	}

	if err := st.DeleteCredential("acme.myshopify.com"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, _ = st.GetCredential("acme.myshopify.com")
	if got != nil {
		t.Fatalf("expected nil after delete, got %+v", got)
	}
}

func TestOrdersCheckpointIsMonotonic(t *testing.T) {
	st := newTestStore(t)
	shop := "acme.myshopify.com"

	later := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	earlier := later.Add(-time.Hour)

	if err := st.SetOrdersCheckpoint(shop, later); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := st.SetOrdersCheckpoint(shop, earlier); err != nil {
		t.Fatalf("stale set failed: %v", err)
	}

	status, err := st.GetSyncStatus(shop)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if status == nil || status.OrdersLastSyncAt == nil {
		t.Fatalf("expected checkpoint, got %+v", status)
	}
	if !status.OrdersLastSyncAt.Equal(later) {
		t.Fatalf("checkpoint moved backwards: got %s, want %s", status.OrdersLastSyncAt, later)
	}
}

func TestUpsertKpiDaily(t *testing.T) {
	st := newTestStore(t)

	row := &models.KpiDaily{Shop: "acme.myshopify.com", Date: "2026-08-27", Revenue: 100, Orders: 2, AOV: 50}
	if err := st.UpsertKpiDaily(row); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	row.Revenue = 150
	row.Orders = 3
	row.AOV = 50
	if err := st.UpsertKpiDaily(row); err != nil {
		t.Fatalf("recompute upsert failed: %v", err)
	}

	var rows []models.KpiDaily
	if err := st.DB().Find(&rows).Error; err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 rollup row, got %d", len(rows))
	}
	if rows[0].Revenue != 150 || rows[0].Orders != 3 {
		t.Fatalf("expected recomputed values, got %+v", rows[0])
	}
}

func TestWebhookLogGetsGeneratedID(t *testing.T) {
	st := newTestStore(t)

	log := &models.WebhookLog{Shop: "acme.myshopify.com", Topic: "orders/create", Payload: "{}"}
	if err := st.LogWebhook(log); err != nil {
		t.Fatalf("log failed: %v", err)
	}
	if log.ID == "" {
		t.Fatalf("expected generated id")
	}
	if log.ReceivedAt.IsZero() {
		t.Fatalf("expected received_at to be set")
	}
}
