package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const (
	PurchaseOrderPending   = "Pendiente"
	PurchaseOrderReceived  = "Recibido"
	PurchaseOrderCancelled = "Cancelado"
)

const (
	ClientOrderPending   = "Pendiente"
	ClientOrderPartial   = "Abonado"
	ClientOrderCompleted = "Completado"
	ClientOrderCancelled = "Cancelado"
)

const (
	PaymentCash     = "Efectivo"
	PaymentCard     = "Tarjeta"
	PaymentTransfer = "Transferencia"
	PaymentOther    = "Otro"
)

// WalkInClientName labels sales recorded without a client.
const WalkInClientName = "Público General"

type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type Client struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Surname   string    `json:"surname" db:"surname"`
	Phone     string    `json:"phone" db:"phone"`
	Address   string    `json:"address" db:"address"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (c Client) FullName() string {
	return strings.TrimSpace(c.Name + " " + c.Surname)
}

type Supplier struct {
	ID          string    `json:"id" db:"id"`
	CompanyName string    `json:"company_name" db:"company_name"`
	Contact     string    `json:"contact" db:"contact"`
	Phone       string    `json:"phone" db:"phone"`
	Email       string    `json:"email" db:"email"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Product struct {
	ID                 string    `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	Description        string    `json:"description" db:"description"`
	PurchasePriceCents int64     `json:"purchase_price_cents" db:"purchase_price_cents"`
	SalePriceCents     int64     `json:"sale_price_cents" db:"sale_price_cents"`
	Stock              int       `json:"stock" db:"stock"`
	Category           string    `json:"category" db:"category"`
	SupplierID         *string   `json:"supplier_id,omitempty" db:"supplier_id"`
	SupplierName       string    `json:"supplier_name,omitempty" db:"supplier_name"`
	Active             bool      `json:"active" db:"active"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

type Sale struct {
	ID         string     `json:"id" db:"id"`
	UserID     string     `json:"user_id" db:"user_id"`
	UserName   string     `json:"user_name" db:"user_name"`
	ClientID   *string    `json:"client_id,omitempty" db:"client_id"`
	ClientName string     `json:"client_name" db:"client_name"`
	TotalCents int64      `json:"total_cents" db:"total_cents"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	Items      []SaleItem `json:"items" db:"-"`
}

type SaleItem struct {
	SaleID         string `json:"-" db:"sale_id"`
	LineNo         int    `json:"line_no" db:"line_no"`
	ProductID      string `json:"product_id" db:"product_id"`
	ProductName    string `json:"product_name" db:"product_name"`
	Qty            int    `json:"qty" db:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents" db:"unit_price_cents"`
	SubtotalCents  int64  `json:"subtotal_cents" db:"subtotal_cents"`
}

type SalesHistoryRow struct {
	SaleID         string    `json:"sale_id" db:"sale_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	ProductName    string    `json:"product_name" db:"product_name"`
	Qty            int       `json:"qty" db:"qty"`
	UnitPriceCents int64     `json:"unit_price_cents" db:"unit_price_cents"`
	SubtotalCents  int64     `json:"subtotal_cents" db:"subtotal_cents"`
	SaleTotalCents int64     `json:"sale_total_cents" db:"sale_total_cents"`
	ClientName     string    `json:"client_name" db:"client_name"`
	UserName       string    `json:"user_name" db:"user_name"`
}

type SalesHistoryFilter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

type PurchaseOrder struct {
	ID                string              `json:"id" db:"id"`
	SupplierID        string              `json:"supplier_id" db:"supplier_id"`
	SupplierName      string              `json:"supplier_name" db:"supplier_name"`
	OrderDate         time.Time           `json:"order_date" db:"order_date"`
	EstimatedDelivery *time.Time          `json:"estimated_delivery,omitempty" db:"estimated_delivery"`
	TotalCents        int64               `json:"total_cents" db:"total_cents"`
	Status            string              `json:"status" db:"status"`
	Items             []PurchaseOrderItem `json:"items,omitempty" db:"-"`
}

type PurchaseOrderItem struct {
	PurchaseOrderID string `json:"-" db:"purchase_order_id"`
	LineNo          int    `json:"line_no" db:"line_no"`
	ProductID       string `json:"product_id" db:"product_id"`
	ProductName     string `json:"product_name" db:"product_name"`
	Qty             int    `json:"qty" db:"qty"`
	UnitCostCents   int64  `json:"unit_cost_cents" db:"unit_cost_cents"`
	SubtotalCents   int64  `json:"subtotal_cents" db:"subtotal_cents"`
}

type ClientOrder struct {
	ID                string            `json:"id" db:"id"`
	ClientID          string            `json:"client_id" db:"client_id"`
	ClientName        string            `json:"client_name" db:"client_name"`
	UserID            string            `json:"user_id" db:"user_id"`
	UserName          string            `json:"user_name" db:"user_name"`
	OrderDate         time.Time         `json:"order_date" db:"order_date"`
	EstimatedDelivery *time.Time        `json:"estimated_delivery,omitempty" db:"estimated_delivery"`
	TotalCents        int64             `json:"total_cents" db:"total_cents"`
	PaidCents         int64             `json:"paid_cents" db:"paid_cents"`
	PendingCents      int64             `json:"pending_cents" db:"-"`
	Description       string            `json:"description" db:"description"`
	Status            string            `json:"status" db:"status"`
	Items             []ClientOrderItem `json:"items,omitempty" db:"-"`
	Payments          []Payment         `json:"payments,omitempty" db:"-"`
}

type ClientOrderItem struct {
	ClientOrderID  string  `json:"-" db:"client_order_id"`
	LineNo         int     `json:"line_no" db:"line_no"`
	ProductID      *string `json:"product_id,omitempty" db:"product_id"`
	Description    string  `json:"description" db:"description"`
	Qty            int     `json:"qty" db:"qty"`
	UnitPriceCents int64   `json:"unit_price_cents" db:"unit_price_cents"`
	SubtotalCents  int64   `json:"subtotal_cents" db:"subtotal_cents"`
}

// Payment is an installment (abono) toward a client order.
type Payment struct {
	ID            string    `json:"id" db:"id"`
	ClientOrderID string    `json:"client_order_id" db:"client_order_id"`
	AmountCents   int64     `json:"amount_cents" db:"amount_cents"`
	PaidAt        time.Time `json:"paid_at" db:"paid_at"`
	Method        string    `json:"method" db:"method"`
	UserID        *string   `json:"user_id,omitempty" db:"user_id"`
	UserName      string    `json:"user_name,omitempty" db:"user_name"`
}

type ClientOrderFilter struct {
	Status   string
	ClientID string
}

type PaymentReceipt struct {
	Payment Payment     `json:"payment"`
	Order   ClientOrder `json:"order"`
}

type AuditLog struct {
	ID        string    `json:"id" db:"id"`
	ActorID   string    `json:"actor_id" db:"actor_id"`
	ActorRole string    `json:"actor_role" db:"actor_role"`
	Action    string    `json:"action" db:"action"`
	Entity    string    `json:"entity" db:"entity"`
	EntityID  string    `json:"entity_id" db:"entity_id"`
	Detail    string    `json:"detail" db:"detail"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
