package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
	"papeleria/backend/internal/xid"
)

type productRow struct {
	ID             string `db:"id"`
	Name           string `db:"name"`
	SalePriceCents int64  `db:"sale_price_cents"`
	Stock          int    `db:"stock"`
	Active         bool   `db:"active"`
}

// lockProducts loads the given products, locking their rows where the
// database supports it.
func (s *Store) lockProducts(ctx context.Context, tx *sqlx.Tx, ids []string) (map[string]productRow, error) {
	query, args, err := sqlx.In(`SELECT id, name, sale_price_cents, stock, active FROM products WHERE id IN (?)`+s.dialect.forUpdate, ids)
	if err != nil {
		return nil, err
	}
	rows := make([]productRow, 0, len(ids))
	if err := selectAll(ctx, tx, &rows, query, args...); err != nil {
		return nil, err
	}
	byID := make(map[string]productRow, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.UserID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalid
	}
	if sale.ID == "" {
		sale.ID = xid.New("vta")
	}
	sale.CreatedAt = nowUTC()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		n, err := count(ctx, tx, `SELECT COUNT(*) FROM users WHERE id = ?`, sale.UserID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: user not found", store.ErrInvalid)
		}
		if sale.ClientID != nil {
			n, err := count(ctx, tx, `SELECT COUNT(*) FROM clients WHERE id = ?`, *sale.ClientID)
			if err != nil {
				return err
			}
			if n == 0 {
				return fmt.Errorf("%w: client not found", store.ErrInvalid)
			}
		}

		ids := make([]string, 0, len(sale.Items))
		for _, item := range sale.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := s.lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}

		var total int64
		requested := make(map[string]int, len(sale.Items))
		for i := range sale.Items {
			item := &sale.Items[i]
			if item.Qty < 1 {
				return store.ErrInvalid
			}
			product, ok := products[item.ProductID]
			if !ok || !product.Active {
				return fmt.Errorf("%w: product %s is not available", store.ErrInvalid, item.ProductID)
			}
			requested[product.ID] += item.Qty
			if product.Stock < requested[product.ID] {
				return fmt.Errorf("%w: %s has %d left", store.ErrInsufficientStock, product.Name, product.Stock)
			}
			item.SaleID = sale.ID
			item.LineNo = i + 1
			item.ProductName = product.Name
			item.UnitPriceCents = product.SalePriceCents
			item.SubtotalCents = product.SalePriceCents * int64(item.Qty)
			total += item.SubtotalCents
		}
		sale.TotalCents = total

		if _, err := exec(ctx, tx, `
			INSERT INTO sales (id, user_id, client_id, total_cents, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, sale.ID, sale.UserID, sale.ClientID, sale.TotalCents, sale.CreatedAt); err != nil {
			return err
		}

		for _, item := range sale.Items {
			if _, err := exec(ctx, tx, `
				INSERT INTO sale_items (sale_id, line_no, product_id, product_name, qty, unit_price_cents, subtotal_cents)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, item.SaleID, item.LineNo, item.ProductID, item.ProductName, item.Qty, item.UnitPriceCents, item.SubtotalCents); err != nil {
				return err
			}

			affected, err := exec(ctx, tx, `
				UPDATE products SET stock = stock - ?
				WHERE id = ? AND stock >= ?
			`, item.Qty, item.ProductID, item.Qty)
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("%w: %s", store.ErrInsufficientStock, item.ProductName)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, sale.ID)
}

type saleRow struct {
	domain.Sale
	ClientFirst sql.NullString `db:"client_first"`
	ClientLast  sql.NullString `db:"client_last"`
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var row saleRow
	err := get(ctx, s.db, &row, `
		SELECT s.id, s.user_id, COALESCE(u.name, '') AS user_name, s.client_id,
			c.name AS client_first, c.surname AS client_last, s.total_cents, s.created_at
		FROM sales s
		LEFT JOIN users u ON u.id = s.user_id
		LEFT JOIN clients c ON c.id = s.client_id
		WHERE s.id = ?
	`, id)
	if err != nil {
		return nil, err
	}
	sale := row.Sale
	sale.ClientName = clientLabel(row.ClientFirst, row.ClientLast)

	sale.Items = make([]domain.SaleItem, 0, 8)
	if err := selectAll(ctx, s.db, &sale.Items, `
		SELECT sale_id, line_no, product_id, product_name, qty, unit_price_cents, subtotal_cents
		FROM sale_items
		WHERE sale_id = ?
		ORDER BY line_no ASC
	`, id); err != nil {
		return nil, err
	}
	return &sale, nil
}

func clientLabel(first sql.NullString, last sql.NullString) string {
	if !first.Valid {
		return domain.WalkInClientName
	}
	return fullName(first, last)
}

type historyRow struct {
	domain.SalesHistoryRow
	ClientFirst sql.NullString `db:"client_first"`
	ClientLast  sql.NullString `db:"client_last"`
}

func (s *Store) ListSalesHistory(ctx context.Context, filter domain.SalesHistoryFilter) ([]domain.SalesHistoryRow, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if !filter.From.IsZero() {
		conditions = append(conditions, "s.created_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "s.created_at <= ?")
		args = append(args, filter.To.UTC())
	}

	query := `
		SELECT s.id AS sale_id, s.created_at, si.product_name, si.qty, si.unit_price_cents, si.subtotal_cents,
			s.total_cents AS sale_total_cents, c.name AS client_first, c.surname AS client_last,
			COALESCE(u.name, '') AS user_name
		FROM sales s
		JOIN sale_items si ON si.sale_id = s.id
		LEFT JOIN clients c ON c.id = s.client_id
		LEFT JOIN users u ON u.id = s.user_id`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY s.created_at DESC, s.id DESC, si.line_no ASC`

	limit := filter.Limit
	if limit < 1 {
		limit = 1000
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(filter.Offset, 0))

	rows := make([]historyRow, 0, 64)
	if err := selectAll(ctx, s.db, &rows, query, args...); err != nil {
		return nil, err
	}

	history := make([]domain.SalesHistoryRow, 0, len(rows))
	for _, row := range rows {
		entry := row.SalesHistoryRow
		entry.ClientName = clientLabel(row.ClientFirst, row.ClientLast)
		history = append(history, entry)
	}
	return history, nil
}
