package database

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Database struct {
	DB *gorm.DB
}

func New(databaseURL string) (*Database, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(databaseURL, "sqlite://") {
		// SQLite for development and tests
		dbPath := strings.TrimPrefix(databaseURL, "sqlite://")
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	} else {
		// PostgreSQL for production
		db, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Database{DB: db}, nil
}

// All identifiers are Shopify-assigned external ids, so the schema uses plain
// TEXT primary keys instead of generated surrogates. Statements are kept
// portable between PostgreSQL and SQLite.
func createTables(db *gorm.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS shopify_stores (
			shop TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			scopes TEXT,
			connected_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			shop TEXT NOT NULL,
			created_at TIMESTAMPTZ,
			closed_at TIMESTAMPTZ,
			currency TEXT,
			subtotal_price DECIMAL(12,2),
			total_price DECIMAL(12,2),
			total_tax DECIMAL(12,2),
			total_discounts DECIMAL(12,2),
			financial_status TEXT,
			fulfillment_status TEXT,
			customer_id TEXT,
			customer_email TEXT,
			updated_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS order_items (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			product_id TEXT,
			variant_id TEXT,
			title TEXT,
			sku TEXT,
			quantity INTEGER,
			price DECIMAL(12,2)
		)`,

		`CREATE TABLE IF NOT EXISTS refunds (
			id TEXT PRIMARY KEY,
			order_id TEXT NOT NULL,
			amount DECIMAL(12,2),
			currency TEXT,
			reason TEXT,
			created_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			shop TEXT NOT NULL,
			title TEXT,
			product_type TEXT,
			vendor TEXT,
			status TEXT,
			created_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS product_variants (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			title TEXT,
			sku TEXT,
			price DECIMAL(12,2),
			inventory_quantity INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS inventory_snapshots (
			id TEXT PRIMARY KEY,
			shop TEXT NOT NULL,
			product_id TEXT,
			variant_id TEXT,
			quantity INTEGER,
			captured_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS webhook_logs (
			id TEXT PRIMARY KEY,
			shop TEXT NOT NULL,
			topic TEXT NOT NULL,
			payload TEXT,
			received_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS sync_status (
			shop TEXT PRIMARY KEY,
			orders_last_sync_at TIMESTAMPTZ,
			products_last_sync_at TIMESTAMPTZ,
			inventory_last_sync_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ
		)`,

		`CREATE TABLE IF NOT EXISTS kpi_daily (
			shop TEXT NOT NULL,
			date TEXT NOT NULL,
			revenue DECIMAL(14,2),
			orders INTEGER,
			aov DECIMAL(12,2),
			refunds DECIMAL(12,2),
			sessions INTEGER,
			conversions INTEGER,
			conversion_rate DECIMAL(6,3),
			ad_spend DECIMAL(12,2),
			roas DECIMAL(8,2),
			cac DECIMAL(10,2),
			PRIMARY KEY (shop, date)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_orders_shop_created_at ON orders (shop, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_logs_shop_topic ON webhook_logs (shop, topic)`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
