package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
	"papeleria/backend/internal/xid"
)

const clientOrderSelect = `
	SELECT o.id, o.client_id, c.name AS client_first, c.surname AS client_last, o.user_id,
		COALESCE(u.name, '') AS user_name, o.order_date, o.estimated_delivery, o.total_cents,
		o.paid_cents, o.description, o.status
	FROM client_orders o
	LEFT JOIN clients c ON c.id = o.client_id
	LEFT JOIN users u ON u.id = o.user_id`

type clientOrderRow struct {
	domain.ClientOrder
	ClientFirst sql.NullString `db:"client_first"`
	ClientLast  sql.NullString `db:"client_last"`
}

func (r clientOrderRow) order() domain.ClientOrder {
	order := r.ClientOrder
	order.ClientName = fullName(r.ClientFirst, r.ClientLast)
	order.PendingCents = domain.PendingCents(order.TotalCents, order.PaidCents)
	return order
}

func (s *Store) CreateClientOrder(ctx context.Context, order domain.ClientOrder, initial *domain.Payment) (*domain.ClientOrder, error) {
	if order.ClientID == "" || order.UserID == "" || order.TotalCents < 1 {
		return nil, store.ErrInvalid
	}
	var paid int64
	if initial != nil {
		if initial.AmountCents < 1 {
			return nil, store.ErrInvalid
		}
		paid = initial.AmountCents
	}
	if domain.ExceedsTotal(order.TotalCents, paid) {
		return nil, fmt.Errorf("%w: initial payment is larger than the total", store.ErrOverpayment)
	}

	if order.ID == "" {
		order.ID = xid.New("pcl")
	}
	now := nowUTC()
	order.OrderDate = now
	order.PaidCents = paid
	order.Status = domain.ClientOrderStatusFor(order.TotalCents, paid)

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		n, err := count(ctx, tx, `SELECT COUNT(*) FROM clients WHERE id = ?`, order.ClientID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: client not found", store.ErrInvalid)
		}
		n, err = count(ctx, tx, `SELECT COUNT(*) FROM users WHERE id = ?`, order.UserID)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: user not found", store.ErrInvalid)
		}

		if _, err := exec(ctx, tx, `
			INSERT INTO client_orders (id, client_id, user_id, order_date, estimated_delivery, total_cents, paid_cents, description, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, order.ID, order.ClientID, order.UserID, order.OrderDate, order.EstimatedDelivery,
			order.TotalCents, order.PaidCents, order.Description, order.Status); err != nil {
			return err
		}

		for i, item := range order.Items {
			if _, err := exec(ctx, tx, `
				INSERT INTO client_order_items (client_order_id, line_no, product_id, description, qty, unit_price_cents, subtotal_cents)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, order.ID, i+1, item.ProductID, item.Description, item.Qty, item.UnitPriceCents, item.SubtotalCents); err != nil {
				return err
			}
		}

		if initial != nil {
			if _, err := exec(ctx, tx, `
				INSERT INTO payments (id, client_order_id, amount_cents, paid_at, method, user_id)
				VALUES (?, ?, ?, ?, ?, ?)
			`, xid.New("abn"), order.ID, initial.AmountCents, now, initial.Method, initial.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetClientOrder(ctx, order.ID)
}

func (s *Store) GetClientOrder(ctx context.Context, id string) (*domain.ClientOrder, error) {
	var row clientOrderRow
	if err := get(ctx, s.db, &row, clientOrderSelect+` WHERE o.id = ?`, id); err != nil {
		return nil, err
	}
	order := row.order()

	order.Items = make([]domain.ClientOrderItem, 0, 4)
	if err := selectAll(ctx, s.db, &order.Items, `
		SELECT client_order_id, line_no, product_id, description, qty, unit_price_cents, subtotal_cents
		FROM client_order_items
		WHERE client_order_id = ?
		ORDER BY line_no ASC
	`, id); err != nil {
		return nil, err
	}

	payments, err := s.listPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Payments = payments
	return &order, nil
}

func (s *Store) ListClientOrders(ctx context.Context, filter domain.ClientOrderFilter) ([]domain.ClientOrder, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.Status != "" {
		conditions = append(conditions, "o.status = ?")
		args = append(args, filter.Status)
	}
	if filter.ClientID != "" {
		conditions = append(conditions, "o.client_id = ?")
		args = append(args, filter.ClientID)
	}
	query := clientOrderSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY o.order_date DESC, o.id DESC`
	return s.selectClientOrders(ctx, query, args...)
}

func (s *Store) ListOverdueClientOrders(ctx context.Context, asOf time.Time) ([]domain.ClientOrder, error) {
	return s.selectClientOrders(ctx, clientOrderSelect+`
		WHERE o.status NOT IN (?, ?)
			AND o.estimated_delivery IS NOT NULL
			AND o.estimated_delivery < ?
		ORDER BY o.estimated_delivery ASC, o.id ASC
	`, domain.ClientOrderCompleted, domain.ClientOrderCancelled, domain.DateOnly(asOf))
}

func (s *Store) selectClientOrders(ctx context.Context, query string, args ...any) ([]domain.ClientOrder, error) {
	rows := make([]clientOrderRow, 0, 32)
	if err := selectAll(ctx, s.db, &rows, query, args...); err != nil {
		return nil, err
	}
	orders := make([]domain.ClientOrder, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, row.order())
	}
	return orders, nil
}

func (s *Store) RegisterPayment(ctx context.Context, payment domain.Payment) (*domain.PaymentReceipt, error) {
	if payment.ClientOrderID == "" || payment.AmountCents < 1 {
		return nil, store.ErrInvalid
	}
	payment.ID = xid.New("abn")
	payment.PaidAt = nowUTC()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var current struct {
			TotalCents int64  `db:"total_cents"`
			PaidCents  int64  `db:"paid_cents"`
			Status     string `db:"status"`
		}
		if err := get(ctx, tx, &current, `
			SELECT total_cents, paid_cents, status
			FROM client_orders
			WHERE id = ?`+s.dialect.forUpdate, payment.ClientOrderID); err != nil {
			return err
		}
		if current.Status == domain.ClientOrderCancelled {
			return fmt.Errorf("%w: order is cancelled", store.ErrOrderClosed)
		}

		newPaid := current.PaidCents + payment.AmountCents
		if domain.ExceedsTotal(current.TotalCents, newPaid) {
			pending := domain.PendingCents(current.TotalCents, current.PaidCents)
			return fmt.Errorf("%w: pending balance is %s", store.ErrOverpayment, domain.FormatCents(pending))
		}

		if _, err := exec(ctx, tx, `
			INSERT INTO payments (id, client_order_id, amount_cents, paid_at, method, user_id)
			VALUES (?, ?, ?, ?, ?, ?)
		`, payment.ID, payment.ClientOrderID, payment.AmountCents, payment.PaidAt, payment.Method, payment.UserID); err != nil {
			return err
		}

		_, err := exec(ctx, tx, `
			UPDATE client_orders SET paid_cents = ?, status = ?
			WHERE id = ?
		`, newPaid, domain.ClientOrderStatusFor(current.TotalCents, newPaid), payment.ClientOrderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	order, err := s.GetClientOrder(ctx, payment.ClientOrderID)
	if err != nil {
		return nil, err
	}
	for _, p := range order.Payments {
		if p.ID == payment.ID {
			payment = p
			break
		}
	}
	return &domain.PaymentReceipt{Payment: payment, Order: *order}, nil
}

func (s *Store) ListPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	n, err := count(ctx, s.db, `SELECT COUNT(*) FROM client_orders WHERE id = ?`, orderID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return s.listPayments(ctx, orderID)
}

func (s *Store) listPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	payments := make([]domain.Payment, 0, 8)
	err := selectAll(ctx, s.db, &payments, `
		SELECT a.id, a.client_order_id, a.amount_cents, a.paid_at, a.method, a.user_id,
			COALESCE(u.name, '') AS user_name
		FROM payments a
		LEFT JOIN users u ON u.id = a.user_id
		WHERE a.client_order_id = ?
		ORDER BY a.paid_at ASC, a.id ASC
	`, orderID)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Store) CancelClientOrder(ctx context.Context, id string) (*domain.ClientOrder, bool, error) {
	changed := false
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var current string
		if err := get(ctx, tx, &current, `SELECT status FROM client_orders WHERE id = ?`+s.dialect.forUpdate, id); err != nil {
			return err
		}
		switch current {
		case domain.ClientOrderCancelled:
			return nil
		case domain.ClientOrderCompleted:
			return fmt.Errorf("%w: completed orders cannot be cancelled", store.ErrConflict)
		}
		if _, err := exec(ctx, tx, `UPDATE client_orders SET status = ? WHERE id = ?`, domain.ClientOrderCancelled, id); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	order, err := s.GetClientOrder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return order, changed, nil
}

func (s *Store) DeleteClientOrder(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		n, err := count(ctx, tx, `SELECT COUNT(*) FROM client_orders WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		for _, stmt := range []string{
			`DELETE FROM payments WHERE client_order_id = ?`,
			`DELETE FROM client_order_items WHERE client_order_id = ?`,
			`DELETE FROM client_orders WHERE id = ?`,
		} {
			if _, err := exec(ctx, tx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
}
