package sqlstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	return s
}

type fixture struct {
	admin    *domain.User
	client   *domain.Client
	supplier *domain.Supplier
	notebook *domain.Product
	pen      *domain.Product
}

func seedFixture(t *testing.T, s *Store) fixture {
	t.Helper()
	ctx := context.Background()

	admin, err := s.CreateUser(ctx, domain.User{Name: "Admin", Email: "Admin@Papeleria.local", PasswordHash: "hash", Role: domain.RoleAdmin})
	require.NoError(t, err)
	client, err := s.CreateClient(ctx, domain.Client{Name: "María", Surname: "González", Phone: "5511122233"})
	require.NoError(t, err)
	supplier, err := s.CreateSupplier(ctx, domain.Supplier{CompanyName: "Papelera Norma"})
	require.NoError(t, err)
	notebook, err := s.CreateProduct(ctx, domain.Product{Name: "Cuaderno", SalePriceCents: 4500, PurchasePriceCents: 2800, Stock: 10, SupplierID: &supplier.ID})
	require.NoError(t, err)
	pen, err := s.CreateProduct(ctx, domain.Product{Name: "Bolígrafo", SalePriceCents: 900, Stock: 5})
	require.NoError(t, err)

	return fixture{admin: admin, client: client, supplier: supplier, notebook: notebook, pen: pen}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "whatever")
	require.Error(t, err)
	assert.False(t, SupportedDriver("oracle"))
	assert.True(t, SupportedDriver("mysql"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	assert.Equal(t, "sqlite", s.Driver())
}

func TestUsersLowercaseEmailAndRejectDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	assert.Equal(t, "admin@papeleria.local", fx.admin.Email)
	got, err := s.GetUserByEmail(ctx, "  ADMIN@papeleria.local ")
	require.NoError(t, err)
	assert.Equal(t, fx.admin.ID, got.ID)

	_, err = s.CreateUser(ctx, domain.User{Name: "Otro", Email: "admin@papeleria.local", PasswordHash: "x", Role: domain.RoleCashier})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.GetUserByID(ctx, "usr-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.UpdateUserPassword(ctx, fx.admin.ID, "new-hash"))
	got, err = s.GetUserByID(ctx, fx.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)
}

func TestDeleteUserBlockedBySales(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	_, err := s.CreateSale(ctx, domain.Sale{UserID: fx.admin.ID, Items: []domain.SaleItem{{ProductID: fx.pen.ID, Qty: 1}}})
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteUser(ctx, fx.admin.ID), store.ErrConflict)
	assert.ErrorIs(t, s.DeleteUser(ctx, "usr-missing"), store.ErrNotFound)
}

func TestListClientsSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedFixture(t, s)
	_, err := s.CreateClient(ctx, domain.Client{Name: "Jorge", Surname: "Ramírez", Phone: "5599988877"})
	require.NoError(t, err)

	all, err := s.ListClients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := s.ListClients(ctx, "jorge")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Jorge", found[0].Name)

	found, err = s.ListClients(ctx, "551112")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestDeleteSupplierBlockedByProducts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	assert.ErrorIs(t, s.DeleteSupplier(ctx, fx.supplier.ID), store.ErrConflict)

	other, err := s.CreateSupplier(ctx, domain.Supplier{CompanyName: "Sin productos"})
	require.NoError(t, err)
	require.NoError(t, s.DeleteSupplier(ctx, other.ID))
	_, err = s.GetSupplier(ctx, other.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestProductSoftDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	assert.Equal(t, "Papelera Norma", fx.notebook.SupplierName)
	assert.True(t, fx.notebook.Active)

	require.NoError(t, s.DeactivateProduct(ctx, fx.pen.ID))
	assert.ErrorIs(t, s.DeactivateProduct(ctx, fx.pen.ID), store.ErrNotFound)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, fx.notebook.ID, products[0].ID)

	inactive, err := s.GetProduct(ctx, fx.pen.ID)
	require.NoError(t, err)
	assert.False(t, inactive.Active)

	_, err = s.UpdateProduct(ctx, *inactive)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.CreateSale(ctx, domain.Sale{UserID: fx.admin.ID, Items: []domain.SaleItem{{ProductID: fx.pen.ID, Qty: 1}}})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestCreateProductRejectsUnknownSupplier(t *testing.T) {
	s := newTestStore(t)
	missing := "sup-missing"
	_, err := s.CreateProduct(context.Background(), domain.Product{Name: "Regla", SalePriceCents: 1200, SupplierID: &missing})
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestCreateSaleDecrementsStockAndPricesFromCatalog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	sale, err := s.CreateSale(ctx, domain.Sale{
		UserID:   fx.admin.ID,
		ClientID: &fx.client.ID,
		Items: []domain.SaleItem{
			{ProductID: fx.notebook.ID, Qty: 2, UnitPriceCents: 1},
			{ProductID: fx.pen.ID, Qty: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2*4500+3*900), sale.TotalCents)
	assert.Equal(t, "María González", sale.ClientName)
	assert.Equal(t, "Admin", sale.UserName)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, int64(4500), sale.Items[0].UnitPriceCents)

	notebook, err := s.GetProduct(ctx, fx.notebook.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, notebook.Stock)
	pen, err := s.GetProduct(ctx, fx.pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, pen.Stock)
}

func TestCreateSaleInsufficientStockLeavesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	_, err := s.CreateSale(ctx, domain.Sale{
		UserID: fx.admin.ID,
		Items: []domain.SaleItem{
			{ProductID: fx.notebook.ID, Qty: 1},
			{ProductID: fx.pen.ID, Qty: 3},
			{ProductID: fx.pen.ID, Qty: 3},
		},
	})
	require.ErrorIs(t, err, store.ErrInsufficientStock)

	notebook, err := s.GetProduct(ctx, fx.notebook.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, notebook.Stock)

	history, err := s.ListSalesHistory(ctx, domain.SalesHistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSalesHistoryWalkInAndRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	_, err := s.CreateSale(ctx, domain.Sale{UserID: fx.admin.ID, Items: []domain.SaleItem{
		{ProductID: fx.notebook.ID, Qty: 1},
		{ProductID: fx.pen.ID, Qty: 1},
	}})
	require.NoError(t, err)

	history, err := s.ListSalesHistory(ctx, domain.SalesHistoryFilter{From: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.WalkInClientName, history[0].ClientName)
	assert.Equal(t, int64(5400), history[0].SaleTotalCents)
	assert.Equal(t, "Cuaderno", history[0].ProductName)

	history, err = s.ListSalesHistory(ctx, domain.SalesHistoryFilter{To: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = s.ListSalesHistory(ctx, domain.SalesHistoryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPurchaseOrderReceiveIncrementsStockOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	delivery := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	po, err := s.CreatePurchaseOrder(ctx, domain.PurchaseOrder{
		SupplierID:        fx.supplier.ID,
		EstimatedDelivery: &delivery,
		Items: []domain.PurchaseOrderItem{
			{ProductID: fx.notebook.ID, Qty: 20, UnitCostCents: 2800},
			{ProductID: fx.pen.ID, Qty: 10, UnitCostCents: 450},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseOrderPending, po.Status)
	assert.Equal(t, int64(20*2800+10*450), po.TotalCents)
	assert.Equal(t, "Papelera Norma", po.SupplierName)
	require.NotNil(t, po.EstimatedDelivery)
	assert.True(t, delivery.Equal(*po.EstimatedDelivery))

	received, changed, err := s.UpdatePurchaseOrderStatus(ctx, po.ID, domain.PurchaseOrderReceived)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.PurchaseOrderReceived, received.Status)

	_, changed, err = s.UpdatePurchaseOrderStatus(ctx, po.ID, domain.PurchaseOrderReceived)
	require.NoError(t, err)
	assert.False(t, changed)

	notebook, err := s.GetProduct(ctx, fx.notebook.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, notebook.Stock)

	_, _, err = s.UpdatePurchaseOrderStatus(ctx, po.ID, domain.PurchaseOrderCancelled)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.ErrorIs(t, s.DeletePurchaseOrder(ctx, po.ID), store.ErrConflict)
}

func TestPurchaseOrderCancelAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	po, err := s.CreatePurchaseOrder(ctx, domain.PurchaseOrder{
		SupplierID: fx.supplier.ID,
		Items:      []domain.PurchaseOrderItem{{ProductID: fx.pen.ID, Qty: 4, UnitCostCents: 450}},
	})
	require.NoError(t, err)

	_, _, err = s.UpdatePurchaseOrderStatus(ctx, po.ID, "Perdido")
	assert.ErrorIs(t, err, store.ErrInvalid)

	_, changed, err := s.UpdatePurchaseOrderStatus(ctx, po.ID, domain.PurchaseOrderCancelled)
	require.NoError(t, err)
	assert.True(t, changed)

	pending, err := s.ListPurchaseOrders(ctx, domain.PurchaseOrderPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.DeletePurchaseOrder(ctx, po.ID))
	_, err = s.GetPurchaseOrder(ctx, po.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	pen, err := s.GetProduct(ctx, fx.pen.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, pen.Stock)
}

func TestClientOrderPaymentsDriveStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	order, err := s.CreateClientOrder(ctx, domain.ClientOrder{
		ClientID:    fx.client.ID,
		UserID:      fx.admin.ID,
		TotalCents:  10000,
		Description: "Engargolado de tesis",
		Items:       []domain.ClientOrderItem{{Description: "Engargolado", Qty: 2, UnitPriceCents: 5000, SubtotalCents: 10000}},
	}, &domain.Payment{AmountCents: 3000, Method: domain.PaymentCash, UserID: &fx.admin.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.ClientOrderPartial, order.Status)
	assert.Equal(t, int64(7000), order.PendingCents)
	assert.Equal(t, "María González", order.ClientName)
	require.Len(t, order.Items, 1)
	require.Len(t, order.Payments, 1)
	assert.Equal(t, "Admin", order.Payments[0].UserName)

	_, err = s.RegisterPayment(ctx, domain.Payment{ClientOrderID: order.ID, AmountCents: 7002, Method: domain.PaymentCash})
	require.ErrorIs(t, err, store.ErrOverpayment)
	assert.Contains(t, err.Error(), "70.00")

	receipt, err := s.RegisterPayment(ctx, domain.Payment{ClientOrderID: order.ID, AmountCents: 6999, Method: domain.PaymentCard})
	require.NoError(t, err)
	assert.Equal(t, domain.ClientOrderCompleted, receipt.Order.Status)
	assert.Equal(t, int64(6999), receipt.Payment.AmountCents)
	assert.NotEmpty(t, receipt.Payment.ID)

	payments, err := s.ListPayments(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)

	_, _, err = s.CancelClientOrder(ctx, order.ID)
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.ListPayments(ctx, "pcl-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClientOrderWithoutInitialPaymentIsPending(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	order, err := s.CreateClientOrder(ctx, domain.ClientOrder{ClientID: fx.client.ID, UserID: fx.admin.ID, TotalCents: 2500}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ClientOrderPending, order.Status)
	assert.Empty(t, order.Payments)

	_, err = s.CreateClientOrder(ctx, domain.ClientOrder{ClientID: fx.client.ID, UserID: fx.admin.ID, TotalCents: 2500},
		&domain.Payment{AmountCents: 2600, Method: domain.PaymentCash})
	assert.ErrorIs(t, err, store.ErrOverpayment)

	_, err = s.CreateClientOrder(ctx, domain.ClientOrder{ClientID: "cli-missing", UserID: fx.admin.ID, TotalCents: 2500}, nil)
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestCancelledClientOrderRejectsPayments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	order, err := s.CreateClientOrder(ctx, domain.ClientOrder{ClientID: fx.client.ID, UserID: fx.admin.ID, TotalCents: 5000}, nil)
	require.NoError(t, err)

	cancelled, changed, err := s.CancelClientOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.ClientOrderCancelled, cancelled.Status)

	_, changed, err = s.CancelClientOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	_, err = s.RegisterPayment(ctx, domain.Payment{ClientOrderID: order.ID, AmountCents: 100, Method: domain.PaymentCash})
	assert.ErrorIs(t, err, store.ErrOrderClosed)

	assert.ErrorIs(t, s.DeleteClient(ctx, fx.client.ID), store.ErrConflict)
	require.NoError(t, s.DeleteClientOrder(ctx, order.ID))
	require.NoError(t, s.DeleteClient(ctx, fx.client.ID))
}

func TestListClientOrdersFiltersAndOverdue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	fx := seedFixture(t, s)

	past := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	future := time.Date(2026, 12, 24, 0, 0, 0, 0, time.UTC)
	late, err := s.CreateClientOrder(ctx, domain.ClientOrder{ClientID: fx.client.ID, UserID: fx.admin.ID, TotalCents: 5000, EstimatedDelivery: &past}, nil)
	require.NoError(t, err)
	_, err = s.CreateClientOrder(ctx, domain.ClientOrder{ClientID: fx.client.ID, UserID: fx.admin.ID, TotalCents: 5000, EstimatedDelivery: &future},
		&domain.Payment{AmountCents: 1000, Method: domain.PaymentCash})
	require.NoError(t, err)

	partial, err := s.ListClientOrders(ctx, domain.ClientOrderFilter{Status: domain.ClientOrderPartial})
	require.NoError(t, err)
	assert.Len(t, partial, 1)

	byClient, err := s.ListClientOrders(ctx, domain.ClientOrderFilter{ClientID: fx.client.ID})
	require.NoError(t, err)
	assert.Len(t, byClient, 2)

	overdue, err := s.ListOverdueClientOrders(ctx, time.Date(2026, 6, 1, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, late.ID, overdue[0].ID)
}

func TestAuditLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.CreateAuditLog(ctx, domain.AuditLog{}), store.ErrInvalid)
	require.NoError(t, s.CreateAuditLog(ctx, domain.AuditLog{ActorID: "usr-1", ActorRole: domain.RoleAdmin, Action: "product.create", Entity: "product", EntityID: "prd-1"}))
	require.NoError(t, s.CreateAuditLog(ctx, domain.AuditLog{ActorID: "usr-1", ActorRole: domain.RoleAdmin, Action: "product.deactivate", Entity: "product", EntityID: "prd-1"}))

	logs, err := s.ListAuditLogs(ctx, time.Time{}, time.Time{}, 1)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	logs, err = s.ListAuditLogs(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

// Runs the same flow against a real server when PAPELERIA_TEST_POSTGRES_URL
// or PAPELERIA_TEST_MYSQL_DSN is set.
func TestExternalDatabases(t *testing.T) {
	targets := map[string]string{
		"postgres": os.Getenv("PAPELERIA_TEST_POSTGRES_URL"),
		"mysql":    os.Getenv("PAPELERIA_TEST_MYSQL_DSN"),
	}
	for driver, dsn := range targets {
		t.Run(driver, func(t *testing.T) {
			if dsn == "" {
				t.Skipf("set the %s DSN to run this integration test", driver)
			}
			ctx := context.Background()
			s, err := Open(ctx, driver, dsn)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			require.NoError(t, s.Migrate(ctx))

			user, err := s.CreateUser(ctx, domain.User{Name: "IT", Email: "it-" + time.Now().Format("150405.000000") + "@papeleria.local", PasswordHash: "x", Role: domain.RoleCashier})
			require.NoError(t, err)
			product, err := s.CreateProduct(ctx, domain.Product{Name: "Producto IT", SalePriceCents: 1000, Stock: 2})
			require.NoError(t, err)

			_, err = s.CreateSale(ctx, domain.Sale{UserID: user.ID, Items: []domain.SaleItem{{ProductID: product.ID, Qty: 3}}})
			require.ErrorIs(t, err, store.ErrInsufficientStock)

			sale, err := s.CreateSale(ctx, domain.Sale{UserID: user.ID, Items: []domain.SaleItem{{ProductID: product.ID, Qty: 2}}})
			require.NoError(t, err)
			assert.Equal(t, int64(2000), sale.TotalCents)

			got, err := s.GetProduct(ctx, product.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Stock)
		})
	}
}
