package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"papeleria/backend/internal/cache"
	"papeleria/backend/internal/domain"
)

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// ListSellableProducts serves the point-of-sale picker and is cached.
func (s *Service) ListSellableProducts(ctx context.Context) ([]domain.Product, error) {
	if products, ok, err := s.catalog.GetProducts(ctx, cache.SellableKey); err != nil {
		log.Warn().Err(err).Msg("catalog cache read failed")
	} else if ok {
		return products, nil
	}

	products, err := s.repo.ListSellableProducts(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.SetProducts(ctx, cache.SellableKey, products, s.catalogTTL); err != nil {
		log.Warn().Err(err).Msg("catalog cache write failed")
	}
	return products, nil
}

func (s *Service) ListLowStockProducts(ctx context.Context, threshold int) ([]domain.Product, error) {
	if threshold < 0 {
		threshold = 0
	}
	return s.repo.ListLowStockProducts(ctx, threshold)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductRequest) (*domain.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	product, err := s.productFromRequest(req)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	s.logAudit(ctx, "product_create", "product", created.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", created.Name, created.SalePriceCents, created.Stock))
	return created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductRequest) (*domain.Product, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	product, err := s.productFromRequest(req)
	if err != nil {
		return nil, err
	}
	product.ID = id
	saved, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return nil, err
	}
	s.invalidateCatalog(ctx)
	s.logAudit(ctx, "product_update", "product", saved.ID, fmt.Sprintf("name=%s,price=%d,stock=%d", saved.Name, saved.SalePriceCents, saved.Stock))
	return saved, nil
}

// DeleteProduct deactivates the product; sales history keeps pointing at it.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if _, err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateCatalog(ctx)
	s.logAudit(ctx, "product_deactivate", "product", id, "")
	return nil
}

func (s *Service) productFromRequest(req domain.ProductRequest) (domain.Product, error) {
	req.Name = clean(req.Name)
	req.Description = clean(req.Description)
	req.Category = clean(req.Category)
	if err := s.check(req); err != nil {
		return domain.Product{}, err
	}
	return domain.Product{
		Name:               req.Name,
		Description:        req.Description,
		PurchasePriceCents: req.PurchasePriceCents,
		SalePriceCents:     req.SalePriceCents,
		Stock:              req.Stock,
		Category:           req.Category,
		SupplierID:         optionalID(req.SupplierID),
	}, nil
}
