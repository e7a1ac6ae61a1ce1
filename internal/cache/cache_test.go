package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papeleria/backend/internal/domain"
)

func TestNoopCatalogCacheAlwaysMisses(t *testing.T) {
	var c CatalogCache = NoopCatalogCache{}
	ctx := context.Background()

	require.NoError(t, c.SetProducts(ctx, SellableKey, []domain.Product{{ID: "prd-1"}}, time.Minute))
	products, ok, err := c.GetProducts(ctx, SellableKey)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, products)
	assert.NoError(t, c.Delete(ctx, SellableKey))
}

func TestRedisCatalogCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("PAPELERIA_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set PAPELERIA_TEST_REDIS_ADDR to run redis integration test")
	}
	ctx := context.Background()
	c := NewRedisCatalogCache(addr, os.Getenv("PAPELERIA_TEST_REDIS_PASSWORD"), 0)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Ping(ctx))

	key := "papeleria:test:" + time.Now().Format("150405.000000")
	t.Cleanup(func() { _ = c.Delete(ctx, key) })

	_, ok, err := c.GetProducts(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetProducts(ctx, key, []domain.Product{{ID: "prd-1", Name: "Lápiz", Stock: 4}}, time.Minute))
	products, ok, err := c.GetProducts(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, products, 1)
	assert.Equal(t, "Lápiz", products[0].Name)

	require.NoError(t, c.Delete(ctx, key))
	_, ok, err = c.GetProducts(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}
