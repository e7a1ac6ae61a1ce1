package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
	"papeleria/backend/internal/xid"
)

const purchaseOrderSelect = `
	SELECT po.id, po.supplier_id, COALESCE(s.company_name, '') AS supplier_name, po.order_date,
		po.estimated_delivery, po.total_cents, po.status
	FROM purchase_orders po
	LEFT JOIN suppliers s ON s.id = po.supplier_id`

func (s *Store) CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	if po.SupplierID == "" || len(po.Items) == 0 {
		return nil, store.ErrInvalid
	}
	if po.ID == "" {
		po.ID = xid.New("ped")
	}
	po.OrderDate = nowUTC()
	po.Status = domain.PurchaseOrderPending

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := supplierMustExist(ctx, tx, &po.SupplierID); err != nil {
			return err
		}

		ids := make([]string, 0, len(po.Items))
		for _, item := range po.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := s.lockProducts(ctx, tx, ids)
		if err != nil {
			return err
		}

		var total int64
		for i := range po.Items {
			item := &po.Items[i]
			if item.Qty < 1 || item.UnitCostCents < 1 {
				return store.ErrInvalid
			}
			product, ok := products[item.ProductID]
			if !ok || !product.Active {
				return fmt.Errorf("%w: product %s is not available", store.ErrInvalid, item.ProductID)
			}
			item.PurchaseOrderID = po.ID
			item.LineNo = i + 1
			item.ProductName = product.Name
			item.SubtotalCents = item.UnitCostCents * int64(item.Qty)
			total += item.SubtotalCents
		}
		if total < 1 {
			return store.ErrInvalid
		}
		po.TotalCents = total

		if _, err := exec(ctx, tx, `
			INSERT INTO purchase_orders (id, supplier_id, order_date, estimated_delivery, total_cents, status)
			VALUES (?, ?, ?, ?, ?, ?)
		`, po.ID, po.SupplierID, po.OrderDate, po.EstimatedDelivery, po.TotalCents, po.Status); err != nil {
			return err
		}
		for _, item := range po.Items {
			if _, err := exec(ctx, tx, `
				INSERT INTO purchase_order_items (purchase_order_id, line_no, product_id, qty, unit_cost_cents, subtotal_cents)
				VALUES (?, ?, ?, ?, ?, ?)
			`, item.PurchaseOrderID, item.LineNo, item.ProductID, item.Qty, item.UnitCostCents, item.SubtotalCents); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPurchaseOrder(ctx, po.ID)
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	return s.getPurchaseOrder(ctx, s.db, id)
}

func (s *Store) getPurchaseOrder(ctx context.Context, q queryer, id string) (*domain.PurchaseOrder, error) {
	var po domain.PurchaseOrder
	if err := get(ctx, q, &po, purchaseOrderSelect+` WHERE po.id = ?`, id); err != nil {
		return nil, err
	}
	items, err := purchaseOrderItems(ctx, q, id)
	if err != nil {
		return nil, err
	}
	po.Items = items
	return &po, nil
}

func purchaseOrderItems(ctx context.Context, q queryer, id string) ([]domain.PurchaseOrderItem, error) {
	items := make([]domain.PurchaseOrderItem, 0, 8)
	err := selectAll(ctx, q, &items, `
		SELECT i.purchase_order_id, i.line_no, i.product_id, COALESCE(p.name, '') AS product_name,
			i.qty, i.unit_cost_cents, i.subtotal_cents
		FROM purchase_order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.purchase_order_id = ?
		ORDER BY i.line_no ASC
	`, id)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListPurchaseOrders(ctx context.Context, status string) ([]domain.PurchaseOrder, error) {
	query := purchaseOrderSelect
	args := []any{}
	if status != "" {
		query += ` WHERE po.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY po.order_date DESC, po.id DESC`

	orders := make([]domain.PurchaseOrder, 0, 32)
	if err := selectAll(ctx, s.db, &orders, query, args...); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) UpdatePurchaseOrderStatus(ctx context.Context, id string, status string) (*domain.PurchaseOrder, bool, error) {
	if !domain.ValidPurchaseOrderStatus(status) {
		return nil, false, fmt.Errorf("%w: unknown status %q", store.ErrInvalid, status)
	}

	changed := false
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var current string
		if err := get(ctx, tx, &current, `SELECT status FROM purchase_orders WHERE id = ?`+s.dialect.forUpdate, id); err != nil {
			return err
		}
		if current == status {
			return nil
		}
		if current != domain.PurchaseOrderPending {
			return fmt.Errorf("%w: purchase order is already %s", store.ErrConflict, current)
		}

		if status == domain.PurchaseOrderReceived {
			items, err := purchaseOrderItems(ctx, tx, id)
			if err != nil {
				return err
			}
			for _, item := range items {
				affected, err := exec(ctx, tx, `UPDATE products SET stock = stock + ? WHERE id = ?`, item.Qty, item.ProductID)
				if err != nil {
					return err
				}
				if affected == 0 {
					return fmt.Errorf("%w: product %s no longer exists", store.ErrConflict, item.ProductID)
				}
			}
		}

		if _, err := exec(ctx, tx, `UPDATE purchase_orders SET status = ? WHERE id = ?`, status, id); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	po, err := s.GetPurchaseOrder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return po, changed, nil
}

func (s *Store) DeletePurchaseOrder(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var current string
		if err := get(ctx, tx, &current, `SELECT status FROM purchase_orders WHERE id = ?`+s.dialect.forUpdate, id); err != nil {
			return err
		}
		if current != domain.PurchaseOrderPending && current != domain.PurchaseOrderCancelled {
			return fmt.Errorf("%w: only pending or cancelled purchase orders can be deleted", store.ErrConflict)
		}
		if _, err := exec(ctx, tx, `DELETE FROM purchase_order_items WHERE purchase_order_id = ?`, id); err != nil {
			return err
		}
		_, err := exec(ctx, tx, `DELETE FROM purchase_orders WHERE id = ?`, id)
		return err
	})
}
