package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"papeleria/backend/internal/domain"
)

const (
	defaultHistoryDays  = 30
	defaultHistoryLimit = 1000
)

func (s *Service) CreateSale(ctx context.Context, req domain.SaleRequest) (*domain.Sale, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	for i := range req.Items {
		req.Items[i].ProductID = strings.TrimSpace(req.Items[i].ProductID)
	}
	if err := s.check(req); err != nil {
		return nil, err
	}

	sale, err := s.repo.CreateSale(ctx, domain.Sale{
		UserID:   actor.UserID,
		ClientID: optionalID(req.ClientID),
		Items:    mergeSaleLines(req.Items),
	})
	if err != nil {
		return nil, err
	}

	s.invalidateCatalog(ctx)
	s.logAudit(ctx, "sale_create", "sale", sale.ID, fmt.Sprintf("lines=%d,total=%s", len(sale.Items), domain.FormatCents(sale.TotalCents)))
	return sale, nil
}

// mergeSaleLines folds repeated products into one line, keeping first-seen order.
func mergeSaleLines(lines []domain.SaleLineRequest) []domain.SaleItem {
	items := make([]domain.SaleItem, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			items[i].Qty += line.Qty
			continue
		}
		index[line.ProductID] = len(items)
		items = append(items, domain.SaleItem{ProductID: line.ProductID, Qty: line.Qty})
	}
	return items
}

func (s *Service) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.repo.GetSale(ctx, id)
}

// ListSalesHistory defaults to the last 30 days and 1000 rows.
func (s *Service) ListSalesHistory(ctx context.Context, filter domain.SalesHistoryFilter) ([]domain.SalesHistoryRow, error) {
	return s.repo.ListSalesHistory(ctx, s.historyWindow(filter))
}

func (s *Service) historyWindow(filter domain.SalesHistoryFilter) domain.SalesHistoryFilter {
	current := s.now()
	if filter.To.IsZero() {
		filter.To = current
	}
	if filter.From.IsZero() {
		filter.From = now.With(current.AddDate(0, 0, -defaultHistoryDays)).BeginningOfDay()
	}
	if filter.Limit < 1 {
		filter.Limit = defaultHistoryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter
}

// DateRange turns optional YYYY-MM-DD bounds into an inclusive time range.
func DateRange(from string, to string) (time.Time, time.Time, error) {
	var start, end time.Time
	parsedFrom, err := domain.ParseDate(from)
	if err != nil {
		return start, end, invalid(err)
	}
	parsedTo, err := domain.ParseDate(to)
	if err != nil {
		return start, end, invalid(err)
	}
	if parsedFrom != nil {
		start = now.With(*parsedFrom).BeginningOfDay()
	}
	if parsedTo != nil {
		end = now.With(*parsedTo).EndOfDay()
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, invalid(fmt.Errorf("from must not be after to"))
	}
	return start, end, nil
}
