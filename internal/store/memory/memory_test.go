package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
)

var _ store.Repository = (*Store)(nil)

func TestNewSeededHasUsableAccounts(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	admin, err := s.GetUserByEmail(ctx, "ADMIN@papeleria.local")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")))

	sellable, err := s.ListSellableProducts(ctx)
	require.NoError(t, err)
	for _, p := range sellable {
		assert.Positive(t, p.Stock, p.ID)
	}

	low, err := s.ListLowStockProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "prd-pegamento", low[0].ID)
	assert.Equal(t, "prd-tijeras", low[1].ID)
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		sold int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateSale(ctx, domain.Sale{UserID: "usr-cajero", Items: []domain.SaleItem{{ProductID: "prd-tijeras", Qty: 1}}})
			if err == nil {
				mu.Lock()
				sold++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, store.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, sold)
	p, err := s.GetProduct(ctx, "prd-tijeras")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestSaleLinesForSameProductAccumulate(t *testing.T) {
	s := NewSeeded()
	_, err := s.CreateSale(context.Background(), domain.Sale{UserID: "usr-cajero", Items: []domain.SaleItem{
		{ProductID: "prd-tijeras", Qty: 2},
		{ProductID: "prd-tijeras", Qty: 2},
	}})
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	p, err := s.GetProduct(context.Background(), "prd-tijeras")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
}

func TestSalesHistoryNewestFirst(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	client := "cli-demo"

	_, err := s.CreateSale(ctx, domain.Sale{UserID: "usr-cajero", Items: []domain.SaleItem{{ProductID: "prd-lapiz-hb", Qty: 1}}})
	require.NoError(t, err)
	second, err := s.CreateSale(ctx, domain.Sale{UserID: "usr-cajero", ClientID: &client, Items: []domain.SaleItem{{ProductID: "prd-boligrafo-azul", Qty: 2}}})
	require.NoError(t, err)

	history, err := s.ListSalesHistory(ctx, domain.SalesHistoryFilter{})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].SaleID)
	assert.Equal(t, "María González", history[0].ClientName)
	assert.Equal(t, domain.WalkInClientName, history[1].ClientName)

	page, err := s.ListSalesHistory(ctx, domain.SalesHistoryFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Lápiz HB", page[0].ProductName)
}

func TestPurchaseOrderLifecycle(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	po, err := s.CreatePurchaseOrder(ctx, domain.PurchaseOrder{
		SupplierID: "sup-norma",
		Items:      []domain.PurchaseOrderItem{{ProductID: "prd-pegamento", Qty: 24, UnitCostCents: 900}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21600), po.TotalCents)
	assert.Equal(t, "Papelera Norma", po.SupplierName)

	_, changed, err := s.UpdatePurchaseOrderStatus(ctx, po.ID, domain.PurchaseOrderReceived)
	require.NoError(t, err)
	assert.True(t, changed)

	p, err := s.GetProduct(ctx, "prd-pegamento")
	require.NoError(t, err)
	assert.Equal(t, 24, p.Stock)

	_, _, err = s.UpdatePurchaseOrderStatus(ctx, po.ID, domain.PurchaseOrderPending)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.ErrorIs(t, s.DeletePurchaseOrder(ctx, po.ID), store.ErrConflict)
}

func TestClientOrderAbonos(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()
	cashier := "usr-cajero"

	order, err := s.CreateClientOrder(ctx, domain.ClientOrder{ClientID: "cli-demo", UserID: cashier, TotalCents: 15000}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ClientOrderPending, order.Status)

	receipt, err := s.RegisterPayment(ctx, domain.Payment{ClientOrderID: order.ID, AmountCents: 5000, Method: domain.PaymentCash, UserID: &cashier})
	require.NoError(t, err)
	assert.Equal(t, domain.ClientOrderPartial, receipt.Order.Status)
	assert.Equal(t, "Caja Principal", receipt.Payment.UserName)
	assert.Equal(t, int64(10000), receipt.Order.PendingCents)

	_, err = s.RegisterPayment(ctx, domain.Payment{ClientOrderID: order.ID, AmountCents: 10002, Method: domain.PaymentCash})
	assert.ErrorIs(t, err, store.ErrOverpayment)

	receipt, err = s.RegisterPayment(ctx, domain.Payment{ClientOrderID: order.ID, AmountCents: 10001, Method: domain.PaymentTransfer})
	require.NoError(t, err)
	assert.Equal(t, domain.ClientOrderCompleted, receipt.Order.Status)
	assert.Zero(t, receipt.Order.PendingCents)

	payments, err := s.ListPayments(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	_, err = s.RegisterPayment(ctx, domain.Payment{ClientOrderID: "pcl-missing", AmountCents: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestOverdueClientOrders(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	late := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, d := range []*time.Time{&later, &late, &future, nil} {
		_, err := s.CreateClientOrder(ctx, domain.ClientOrder{ClientID: "cli-demo", UserID: "usr-cajero", TotalCents: 1000, EstimatedDelivery: d}, nil)
		require.NoError(t, err)
	}

	overdue, err := s.ListOverdueClientOrders(ctx, time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.True(t, overdue[0].EstimatedDelivery.Equal(late))
}

func TestDeleteGuards(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	assert.ErrorIs(t, s.DeleteSupplier(ctx, "sup-norma"), store.ErrConflict)

	order, err := s.CreateClientOrder(ctx, domain.ClientOrder{ClientID: "cli-demo", UserID: "usr-cajero", TotalCents: 1000}, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, s.DeleteClient(ctx, "cli-demo"), store.ErrConflict)
	assert.ErrorIs(t, s.DeleteUser(ctx, "usr-cajero"), store.ErrConflict)

	require.NoError(t, s.DeleteClientOrder(ctx, order.ID))
	require.NoError(t, s.DeleteClient(ctx, "cli-demo"))
	require.NoError(t, s.DeleteUser(ctx, "usr-cajero"))
}
