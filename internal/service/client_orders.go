package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
)

const maxOrderDescription = 500

func (s *Service) ListClientOrders(ctx context.Context, filter domain.ClientOrderFilter) ([]domain.ClientOrder, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	filter.ClientID = strings.TrimSpace(filter.ClientID)
	switch filter.Status {
	case "", domain.ClientOrderPending, domain.ClientOrderPartial, domain.ClientOrderCompleted, domain.ClientOrderCancelled:
	default:
		return nil, invalid(fmt.Errorf("unknown status %q", filter.Status))
	}
	return s.repo.ListClientOrders(ctx, filter)
}

func (s *Service) GetClientOrder(ctx context.Context, id string) (*domain.ClientOrder, error) {
	return s.repo.GetClientOrder(ctx, id)
}

func (s *Service) CreateClientOrder(ctx context.Context, req domain.ClientOrderRequest) (*domain.ClientOrder, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if err := s.check(req); err != nil {
		return nil, err
	}
	delivery, err := domain.ParseDate(req.EstimatedDelivery)
	if err != nil {
		return nil, invalid(err)
	}

	items, err := s.clientOrderItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	total := req.TotalCents
	if len(items) > 0 {
		var sum int64
		for _, item := range items {
			sum += item.SubtotalCents
			if sum > domain.MaxAmountCents {
				return nil, invalid(fmt.Errorf("order total exceeds %s", domain.FormatCents(domain.MaxAmountCents)))
			}
		}
		if total > 0 && abs(total-sum) > domain.PaymentToleranceCents {
			return nil, invalid(fmt.Errorf("total %s does not match the items (%s)", domain.FormatCents(total), domain.FormatCents(sum)))
		}
		total = sum
	}
	if total < 1 {
		return nil, invalid(errors.New("total must be greater than zero"))
	}

	var initial *domain.Payment
	if req.InitialPaymentCents > 0 {
		initial = &domain.Payment{
			AmountCents: req.InitialPaymentCents,
			Method:      defaultMethod(req.PaymentMethod),
			UserID:      &actor.UserID,
		}
	}

	order, err := s.repo.CreateClientOrder(ctx, domain.ClientOrder{
		ClientID:          req.ClientID,
		UserID:            actor.UserID,
		EstimatedDelivery: delivery,
		TotalCents:        total,
		Description:       truncate(clean(req.Description), maxOrderDescription),
		Items:             items,
	}, initial)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "client_order_create", "client_order", order.ID, fmt.Sprintf("client=%s,total=%s,paid=%s", order.ClientID, domain.FormatCents(order.TotalCents), domain.FormatCents(order.PaidCents)))
	return order, nil
}

func (s *Service) clientOrderItems(ctx context.Context, lines []domain.ClientOrderLineRequest) ([]domain.ClientOrderItem, error) {
	items := make([]domain.ClientOrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Qty < 1 || line.Qty > domain.MaxLineQty || line.UnitPriceCents < 1 || line.UnitPriceCents > domain.MaxAmountCents {
			return nil, invalid(errors.New("item quantity or unit price out of range"))
		}
		item := domain.ClientOrderItem{
			ProductID:      optionalID(line.ProductID),
			Description:    clean(line.Description),
			Qty:            line.Qty,
			UnitPriceCents: line.UnitPriceCents,
			SubtotalCents:  line.UnitPriceCents * int64(line.Qty),
		}
		if item.ProductID != nil {
			product, err := s.repo.GetProduct(ctx, *item.ProductID)
			if errors.Is(err, store.ErrNotFound) {
				return nil, invalid(fmt.Errorf("product %s not found", *item.ProductID))
			}
			if err != nil {
				return nil, err
			}
			if !product.Active {
				return nil, invalid(fmt.Errorf("product %s is not available", product.ID))
			}
			if item.Description == "" {
				item.Description = product.Name
			}
		}
		if item.Description == "" {
			return nil, invalid(errors.New("each item needs a product or a description"))
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) RegisterPayment(ctx context.Context, orderID string, req domain.PaymentRequest) (*domain.PaymentReceipt, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	req.Method = strings.TrimSpace(req.Method)
	if err := s.check(req); err != nil {
		return nil, err
	}
	amount := req.AmountCents
	if strings.TrimSpace(req.Amount) != "" {
		amount, err = domain.ParseAmount(req.Amount)
		if err != nil {
			return nil, invalid(err)
		}
	}
	if amount < 1 {
		return nil, invalid(errors.New("amount must be greater than zero"))
	}

	receipt, err := s.repo.RegisterPayment(ctx, domain.Payment{
		ClientOrderID: orderID,
		AmountCents:   amount,
		Method:        defaultMethod(req.Method),
		UserID:        &actor.UserID,
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "payment_register", "client_order", orderID, fmt.Sprintf("amount=%s,method=%s,status=%s", domain.FormatCents(amount), receipt.Payment.Method, receipt.Order.Status))
	return receipt, nil
}

func (s *Service) ListPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	return s.repo.ListPayments(ctx, orderID)
}

func (s *Service) CancelClientOrder(ctx context.Context, id string) (*domain.ClientOrder, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}
	order, changed, err := s.repo.CancelClientOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		s.logAudit(ctx, "client_order_cancel", "client_order", id, "")
	}
	return order, nil
}

func (s *Service) DeleteClientOrder(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteClientOrder(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "client_order_delete", "client_order", id, "")
	return nil
}

// OverdueClientOrders lists open orders whose estimated delivery is before asOf.
func (s *Service) OverdueClientOrders(ctx context.Context, asOf time.Time) ([]domain.ClientOrder, error) {
	return s.repo.ListOverdueClientOrders(ctx, asOf)
}

func defaultMethod(method string) string {
	if method == "" {
		return domain.PaymentCash
	}
	return method
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
