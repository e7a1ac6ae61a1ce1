package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
	"papeleria/backend/internal/xid"
)

const clientColumns = `id, name, surname, phone, address, email, created_at`

func (s *Store) CreateClient(ctx context.Context, client domain.Client) (*domain.Client, error) {
	if client.Name == "" {
		return nil, store.ErrInvalid
	}
	if client.ID == "" {
		client.ID = xid.New("cli")
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = nowUTC()
	}

	_, err := exec(ctx, s.db, `
		INSERT INTO clients (id, name, surname, phone, address, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, client.ID, client.Name, client.Surname, client.Phone, client.Address, client.Email, client.CreatedAt)
	if err != nil {
		return nil, err
	}
	saved := client
	return &saved, nil
}

func (s *Store) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	var client domain.Client
	if err := get(ctx, s.db, &client, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *Store) ListClients(ctx context.Context, search string) ([]domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	args := []any{}
	if search != "" {
		pattern := likePattern(search)
		query += ` WHERE LOWER(name) LIKE ? OR LOWER(surname) LIKE ? OR phone LIKE ? OR LOWER(email) LIKE ?`
		args = append(args, pattern, pattern, pattern, pattern)
	}
	query += ` ORDER BY name ASC, surname ASC`

	clients := make([]domain.Client, 0, 64)
	if err := selectAll(ctx, s.db, &clients, query, args...); err != nil {
		return nil, err
	}
	return clients, nil
}

func (s *Store) UpdateClient(ctx context.Context, client domain.Client) (*domain.Client, error) {
	affected, err := exec(ctx, s.db, `
		UPDATE clients SET name = ?, surname = ?, phone = ?, address = ?, email = ?
		WHERE id = ?
	`, client.Name, client.Surname, client.Phone, client.Address, client.Email, client.ID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetClient(ctx, client.ID)
}

func (s *Store) DeleteClient(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		n, err := count(ctx, tx, `SELECT COUNT(*) FROM clients WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		orders, err := count(ctx, tx, `SELECT COUNT(*) FROM client_orders WHERE client_id = ?`, id)
		if err != nil {
			return err
		}
		if orders > 0 {
			return fmt.Errorf("%w: client has registered orders", store.ErrConflict)
		}
		_, err = exec(ctx, tx, `DELETE FROM clients WHERE id = ?`, id)
		return err
	})
}

const supplierColumns = `id, company_name, contact, phone, email, created_at`

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.CompanyName == "" {
		return nil, store.ErrInvalid
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = nowUTC()
	}

	_, err := exec(ctx, s.db, `
		INSERT INTO suppliers (id, company_name, contact, phone, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, supplier.ID, supplier.CompanyName, supplier.Contact, supplier.Phone, supplier.Email, supplier.CreatedAt)
	if err != nil {
		return nil, err
	}
	saved := supplier
	return &saved, nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	var supplier domain.Supplier
	if err := get(ctx, s.db, &supplier, `SELECT `+supplierColumns+` FROM suppliers WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers := make([]domain.Supplier, 0, 32)
	if err := selectAll(ctx, s.db, &suppliers, `SELECT `+supplierColumns+` FROM suppliers ORDER BY company_name ASC`); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	affected, err := exec(ctx, s.db, `
		UPDATE suppliers SET company_name = ?, contact = ?, phone = ?, email = ?
		WHERE id = ?
	`, supplier.CompanyName, supplier.Contact, supplier.Phone, supplier.Email, supplier.ID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetSupplier(ctx, supplier.ID)
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		n, err := count(ctx, tx, `SELECT COUNT(*) FROM suppliers WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		products, err := count(ctx, tx, `SELECT COUNT(*) FROM products WHERE supplier_id = ?`, id)
		if err != nil {
			return err
		}
		if products > 0 {
			return fmt.Errorf("%w: supplier is referenced by products", store.ErrConflict)
		}
		_, err = exec(ctx, tx, `DELETE FROM suppliers WHERE id = ?`, id)
		return err
	})
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.purchase_price_cents, p.sale_price_cents, p.stock,
		p.category, p.supplier_id, COALESCE(s.company_name, '') AS supplier_name, p.active, p.created_at
	FROM products p
	LEFT JOIN suppliers s ON s.id = p.supplier_id`

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SalePriceCents < 1 || product.PurchasePriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalid
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = nowUTC()
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := supplierMustExist(ctx, tx, product.SupplierID); err != nil {
			return err
		}
		_, err := exec(ctx, tx, `
			INSERT INTO products (id, name, description, purchase_price_cents, sale_price_cents, stock, category, supplier_id, active, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, TRUE, ?)
		`, product.ID, product.Name, product.Description, product.PurchasePriceCents, product.SalePriceCents,
			product.Stock, product.Category, product.SupplierID, product.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, product.ID)
}

func supplierMustExist(ctx context.Context, q queryer, supplierID *string) error {
	if supplierID == nil {
		return nil
	}
	n, err := count(ctx, q, `SELECT COUNT(*) FROM suppliers WHERE id = ?`, *supplierID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: supplier not found", store.ErrInvalid)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var product domain.Product
	if err := get(ctx, s.db, &product, productSelect+` WHERE p.id = ?`, id); err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.listProducts(ctx, productSelect+` WHERE p.active = TRUE ORDER BY p.name ASC`)
}

func (s *Store) ListSellableProducts(ctx context.Context) ([]domain.Product, error) {
	return s.listProducts(ctx, productSelect+` WHERE p.active = TRUE AND p.stock > 0 ORDER BY p.name ASC`)
}

func (s *Store) ListLowStockProducts(ctx context.Context, threshold int) ([]domain.Product, error) {
	return s.listProducts(ctx, productSelect+` WHERE p.active = TRUE AND p.stock <= ? ORDER BY p.stock ASC, p.name ASC`, threshold)
}

func (s *Store) listProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	products := make([]domain.Product, 0, 128)
	if err := selectAll(ctx, s.db, &products, query, args...); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SalePriceCents < 1 || product.PurchasePriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalid
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := supplierMustExist(ctx, tx, product.SupplierID); err != nil {
			return err
		}
		affected, err := exec(ctx, tx, `
			UPDATE products
			SET name = ?, description = ?, purchase_price_cents = ?, sale_price_cents = ?, stock = ?, category = ?, supplier_id = ?
			WHERE id = ? AND active = TRUE
		`, product.Name, product.Description, product.PurchasePriceCents, product.SalePriceCents,
			product.Stock, product.Category, product.SupplierID, product.ID)
		if err != nil {
			return err
		}
		if affected == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *Store) DeactivateProduct(ctx context.Context, id string) error {
	affected, err := exec(ctx, s.db, `UPDATE products SET active = FALSE WHERE id = ? AND active = TRUE`, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
