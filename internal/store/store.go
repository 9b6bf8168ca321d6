package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sierre/internal/models"
)

// Store is the persistence layer. Every write keyed on an external id is an
// idempotent upsert: replaying the same payload converges to one row with the
// latest values.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for read-model queries that do not fit the
// repository methods.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Credentials

func (s *Store) SaveCredential(cred *models.ShopCredential) error {
	if cred.ConnectedAt == nil {
		now := time.Now().UTC()
		cred.ConnectedAt = &now
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop"}},
		UpdateAll: true,
	}).Create(cred).Error
	if err != nil {
		return fmt.Errorf("failed to save credential for %s: %w", cred.Shop, err)
	}
	return nil
}

// GetCredential returns (nil, nil) when the shop has never connected.
func (s *Store) GetCredential(shop string) (*models.ShopCredential, error) {
	var cred models.ShopCredential
	err := s.db.Where("shop = ?", shop).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential for %s: %w", shop, err)
	}
	return &cred, nil
}

func (s *Store) DeleteCredential(shop string) error {
	if err := s.db.Where("shop = ?", shop).Delete(&models.ShopCredential{}).Error; err != nil {
		return fmt.Errorf("failed to delete credential for %s: %w", shop, err)
	}
	return nil
}

// Orders

func (s *Store) UpsertOrders(orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&orders).Error
	if err != nil {
		return fmt.Errorf("failed to upsert orders: %w", err)
	}
	return nil
}

func (s *Store) UpsertOrderItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&items).Error
	if err != nil {
		return fmt.Errorf("failed to upsert order items: %w", err)
	}
	return nil
}

func (s *Store) UpsertRefund(refund *models.Refund) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(refund).Error
	if err != nil {
		return fmt.Errorf("failed to upsert refund %s: %w", refund.ID, err)
	}
	return nil
}

// Products

func (s *Store) UpsertProduct(product *models.Product, variants []models.ProductVariant) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(product).Error
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", product.ID, err)
	}
	if len(variants) == 0 {
		return nil
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&variants).Error
	if err != nil {
		return fmt.Errorf("failed to upsert variants for product %s: %w", product.ID, err)
	}
	return nil
}

// Inventory / audit

func (s *Store) InsertInventorySnapshot(snap *models.InventorySnapshot) error {
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = time.Now().UTC()
	}
	if err := s.db.Create(snap).Error; err != nil {
		return fmt.Errorf("failed to insert inventory snapshot: %w", err)
	}
	return nil
}

func (s *Store) LogWebhook(log *models.WebhookLog) error {
	if log.ReceivedAt.IsZero() {
		log.ReceivedAt = time.Now().UTC()
	}
	if err := s.db.Create(log).Error; err != nil {
		return fmt.Errorf("failed to log webhook: %w", err)
	}
	return nil
}

// Sync checkpoints

// GetSyncStatus returns (nil, nil) when no sync has run for the shop.
func (s *Store) GetSyncStatus(shop string) (*models.SyncStatus, error) {
	var status models.SyncStatus
	err := s.db.Where("shop = ?", shop).First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load sync status for %s: %w", shop, err)
	}
	return &status, nil
}

// SetOrdersCheckpoint advances the orders checkpoint. An older timestamp than
// the stored one is ignored so concurrent syncs never move the cursor back.
func (s *Store) SetOrdersCheckpoint(shop string, at time.Time) error {
	existing, err := s.GetSyncStatus(shop)
	if err != nil {
		return err
	}
	if existing != nil && existing.OrdersLastSyncAt != nil && existing.OrdersLastSyncAt.After(at) {
		return nil
	}
	status := models.SyncStatus{
		Shop:             shop,
		OrdersLastSyncAt: &at,
		UpdatedAt:        time.Now().UTC(),
	}
	if existing != nil {
		status.ProductsLastSyncAt = existing.ProductsLastSyncAt
		status.InventoryLastSyncAt = existing.InventoryLastSyncAt
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop"}},
		UpdateAll: true,
	}).Create(&status).Error
	if err != nil {
		return fmt.Errorf("failed to set orders checkpoint for %s: %w", shop, err)
	}
	return nil
}

func (s *Store) DeleteSyncStatus(shop string) error {
	if err := s.db.Where("shop = ?", shop).Delete(&models.SyncStatus{}).Error; err != nil {
		return fmt.Errorf("failed to delete sync status for %s: %w", shop, err)
	}
	return nil
}

// Read models

func (s *Store) OrdersInRange(shop string, from, to time.Time) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.
		Where("shop = ? AND created_at >= ? AND created_at < ?", shop, from, to).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query orders for %s: %w", shop, err)
	}
	return orders, nil
}

// ItemsForOrders loads the line items for a set of orders in one query.
func (s *Store) ItemsForOrders(orderIDs []string) ([]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var items []models.OrderItem
	err := s.db.Where("order_id IN ?", orderIDs).Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	return items, nil
}

func (s *Store) RefundsForOrders(orderIDs []string) ([]models.Refund, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var refunds []models.Refund
	err := s.db.Where("order_id IN ?", orderIDs).Find(&refunds).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query refunds: %w", err)
	}
	return refunds, nil
}

// KPI rollups

func (s *Store) UpsertKpiDaily(row *models.KpiDaily) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop"}, {Name: "date"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert kpi_daily %s/%s: %w", row.Shop, row.Date, err)
	}
	return nil
}
