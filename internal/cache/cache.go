package cache

import (
	"context"
	"time"

	"papeleria/backend/internal/domain"
)

// SellableKey holds the list of active products with stock.
const SellableKey = "papeleria:catalog:sellable"

type CatalogCache interface {
	GetProducts(ctx context.Context, key string) ([]domain.Product, bool, error)
	SetProducts(ctx context.Context, key string, products []domain.Product, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type NoopCatalogCache struct{}

func (NoopCatalogCache) GetProducts(_ context.Context, _ string) ([]domain.Product, bool, error) {
	return nil, false, nil
}

func (NoopCatalogCache) SetProducts(_ context.Context, _ string, _ []domain.Product, _ time.Duration) error {
	return nil
}

func (NoopCatalogCache) Delete(_ context.Context, _ ...string) error {
	return nil
}
