package service

import (
	"context"
	"fmt"
	"strings"

	"papeleria/backend/internal/domain"
)

func (s *Service) ListPurchaseOrders(ctx context.Context, status string) ([]domain.PurchaseOrder, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	if status != "" && !domain.ValidPurchaseOrderStatus(status) {
		return nil, invalid(fmt.Errorf("unknown status %q", status))
	}
	return s.repo.ListPurchaseOrders(ctx, status)
}

func (s *Service) GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.GetPurchaseOrder(ctx, id)
}

func (s *Service) CreatePurchaseOrder(ctx context.Context, req domain.PurchaseOrderRequest) (*domain.PurchaseOrder, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	req.SupplierID = strings.TrimSpace(req.SupplierID)
	if err := s.check(req); err != nil {
		return nil, err
	}
	delivery, err := domain.ParseDate(req.EstimatedDelivery)
	if err != nil {
		return nil, invalid(err)
	}

	items := make([]domain.PurchaseOrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, domain.PurchaseOrderItem{
			ProductID:     strings.TrimSpace(line.ProductID),
			Qty:           line.Qty,
			UnitCostCents: line.UnitCostCents,
		})
	}

	po, err := s.repo.CreatePurchaseOrder(ctx, domain.PurchaseOrder{
		SupplierID:        req.SupplierID,
		EstimatedDelivery: delivery,
		Items:             items,
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "purchase_order_create", "purchase_order", po.ID, fmt.Sprintf("supplier=%s,total=%s", po.SupplierID, domain.FormatCents(po.TotalCents)))
	return po, nil
}

func (s *Service) UpdatePurchaseOrderStatus(ctx context.Context, id string, req domain.PurchaseOrderStatusRequest) (domain.PurchaseOrderStatusResponse, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return domain.PurchaseOrderStatusResponse{}, err
	}
	req.Status = strings.TrimSpace(req.Status)
	if err := s.check(req); err != nil {
		return domain.PurchaseOrderStatusResponse{}, err
	}

	po, changed, err := s.repo.UpdatePurchaseOrderStatus(ctx, id, req.Status)
	if err != nil {
		return domain.PurchaseOrderStatusResponse{}, err
	}
	if changed {
		if po.Status == domain.PurchaseOrderReceived {
			s.invalidateCatalog(ctx)
		}
		s.logAudit(ctx, "purchase_order_status", "purchase_order", po.ID, "status="+po.Status)
	}
	return domain.PurchaseOrderStatusResponse{Order: *po, Changed: changed}, nil
}

func (s *Service) DeletePurchaseOrder(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeletePurchaseOrder(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "purchase_order_delete", "purchase_order", id, "")
	return nil
}
