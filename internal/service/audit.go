package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"papeleria/backend/internal/domain"
)

func (s *Service) ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if limit < 1 || limit > 1000 {
		limit = 200
	}
	return s.repo.ListAuditLogs(ctx, from, to, limit)
}

// LowStockSweep reports active products at or under the threshold and drops
// the cached sellable catalog so counts changed outside the API show up.
func (s *Service) LowStockSweep(ctx context.Context, threshold int) ([]domain.Product, error) {
	products, err := s.repo.ListLowStockProducts(ctx, threshold)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	if len(products) > 0 {
		log.Debug().Int("count", len(products)).Int("threshold", threshold).Msg("low stock sweep")
	}
	return products, nil
}
