package store

import (
	"context"
	"errors"
	"time"

	"papeleria/backend/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalid           = errors.New("invalid request")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOverpayment       = errors.New("payment exceeds order total")
	ErrOrderClosed       = errors.New("order is closed")
)

type Repository interface {
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateUserPassword(ctx context.Context, id string, passwordHash string) error
	// DeleteUser fails with ErrConflict while sales, orders or payments reference the user.
	DeleteUser(ctx context.Context, id string) error

	CreateClient(ctx context.Context, client domain.Client) (*domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	ListClients(ctx context.Context, search string) ([]domain.Client, error)
	UpdateClient(ctx context.Context, client domain.Client) (*domain.Client, error)
	// DeleteClient fails with ErrConflict while the client has client orders.
	DeleteClient(ctx context.Context, id string) error

	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	GetSupplier(ctx context.Context, id string) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	// DeleteSupplier fails with ErrConflict while any product references the supplier.
	DeleteSupplier(ctx context.Context, id string) error

	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListSellableProducts(ctx context.Context) ([]domain.Product, error)
	ListLowStockProducts(ctx context.Context, threshold int) ([]domain.Product, error)
	// UpdateProduct only touches active products.
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	// DeactivateProduct is the only way to remove a product. Missing or
	// already inactive products yield ErrNotFound.
	DeactivateProduct(ctx context.Context, id string) error

	// CreateSale prices each line from the product row, inserts the sale and
	// decrements stock in one transaction.
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSalesHistory(ctx context.Context, filter domain.SalesHistoryFilter) ([]domain.SalesHistoryRow, error)

	CreatePurchaseOrder(ctx context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, id string) (*domain.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, status string) ([]domain.PurchaseOrder, error)
	// UpdatePurchaseOrderStatus reports changed=false when the order already
	// had the requested status. Receiving increments stock.
	UpdatePurchaseOrderStatus(ctx context.Context, id string, status string) (*domain.PurchaseOrder, bool, error)
	DeletePurchaseOrder(ctx context.Context, id string) error

	// CreateClientOrder stores the order, its items and, when non-nil, the
	// initial payment atomically.
	CreateClientOrder(ctx context.Context, order domain.ClientOrder, initial *domain.Payment) (*domain.ClientOrder, error)
	GetClientOrder(ctx context.Context, id string) (*domain.ClientOrder, error)
	ListClientOrders(ctx context.Context, filter domain.ClientOrderFilter) ([]domain.ClientOrder, error)
	ListOverdueClientOrders(ctx context.Context, asOf time.Time) ([]domain.ClientOrder, error)
	RegisterPayment(ctx context.Context, payment domain.Payment) (*domain.PaymentReceipt, error)
	ListPayments(ctx context.Context, orderID string) ([]domain.Payment, error)
	CancelClientOrder(ctx context.Context, id string) (*domain.ClientOrder, bool, error)
	DeleteClientOrder(ctx context.Context, id string) error

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)
}
