package sqlstore

import (
	"context"
	"fmt"
)

func schemaStatements(d dialect) []string {
	ts := d.timestamp
	return []string{
		`CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			email VARCHAR(191) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS clients (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(120) NOT NULL,
			surname VARCHAR(120) NOT NULL DEFAULT '',
			phone VARCHAR(32) NOT NULL DEFAULT '',
			address VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(191) NOT NULL DEFAULT '',
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS suppliers (
			id VARCHAR(64) PRIMARY KEY,
			company_name VARCHAR(160) NOT NULL,
			contact VARCHAR(120) NOT NULL DEFAULT '',
			phone VARCHAR(32) NOT NULL DEFAULT '',
			email VARCHAR(191) NOT NULL DEFAULT '',
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(160) NOT NULL,
			description VARCHAR(1000) NOT NULL DEFAULT '',
			purchase_price_cents BIGINT NOT NULL DEFAULT 0,
			sale_price_cents BIGINT NOT NULL,
			stock INT NOT NULL DEFAULT 0,
			category VARCHAR(80) NOT NULL DEFAULT '',
			supplier_id VARCHAR(64) NULL REFERENCES suppliers(id),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL REFERENCES users(id),
			client_id VARCHAR(64) NULL REFERENCES clients(id),
			total_cents BIGINT NOT NULL,
			created_at ` + ts + ` NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sale_items (
			sale_id VARCHAR(64) NOT NULL REFERENCES sales(id),
			line_no INT NOT NULL,
			product_id VARCHAR(64) NOT NULL REFERENCES products(id),
			product_name VARCHAR(160) NOT NULL,
			qty INT NOT NULL,
			unit_price_cents BIGINT NOT NULL,
			subtotal_cents BIGINT NOT NULL,
			PRIMARY KEY (sale_id, line_no)
		)`,
		`CREATE TABLE IF NOT EXISTS purchase_orders (
			id VARCHAR(64) PRIMARY KEY,
			supplier_id VARCHAR(64) NOT NULL REFERENCES suppliers(id),
			order_date ` + ts + ` NOT NULL,
			estimated_delivery DATE NULL,
			total_cents BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS purchase_order_items (
			purchase_order_id VARCHAR(64) NOT NULL REFERENCES purchase_orders(id),
			line_no INT NOT NULL,
			product_id VARCHAR(64) NOT NULL REFERENCES products(id),
			qty INT NOT NULL,
			unit_cost_cents BIGINT NOT NULL,
			subtotal_cents BIGINT NOT NULL,
			PRIMARY KEY (purchase_order_id, line_no)
		)`,
		`CREATE TABLE IF NOT EXISTS client_orders (
			id VARCHAR(64) PRIMARY KEY,
			client_id VARCHAR(64) NOT NULL REFERENCES clients(id),
			user_id VARCHAR(64) NOT NULL REFERENCES users(id),
			order_date ` + ts + ` NOT NULL,
			estimated_delivery DATE NULL,
			total_cents BIGINT NOT NULL,
			paid_cents BIGINT NOT NULL DEFAULT 0,
			description VARCHAR(500) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS client_order_items (
			client_order_id VARCHAR(64) NOT NULL REFERENCES client_orders(id),
			line_no INT NOT NULL,
			product_id VARCHAR(64) NULL REFERENCES products(id),
			description VARCHAR(255) NOT NULL DEFAULT '',
			qty INT NOT NULL,
			unit_price_cents BIGINT NOT NULL,
			subtotal_cents BIGINT NOT NULL,
			PRIMARY KEY (client_order_id, line_no)
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id VARCHAR(64) PRIMARY KEY,
			client_order_id VARCHAR(64) NOT NULL REFERENCES client_orders(id),
			amount_cents BIGINT NOT NULL,
			paid_at ` + ts + ` NOT NULL,
			method VARCHAR(32) NOT NULL DEFAULT '',
			user_id VARCHAR(64) NULL REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			actor_id VARCHAR(64) NOT NULL DEFAULT '',
			actor_role VARCHAR(16) NOT NULL DEFAULT '',
			action VARCHAR(64) NOT NULL,
			entity VARCHAR(64) NOT NULL DEFAULT '',
			entity_id VARCHAR(64) NOT NULL DEFAULT '',
			detail VARCHAR(1000) NOT NULL DEFAULT '',
			created_at ` + ts + ` NOT NULL
		)`,
	}
}

// Migrate creates any missing tables. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
