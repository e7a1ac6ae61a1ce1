package domain

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type UserCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"required,email,max=191"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=admin cashier"`
}

type UserUpdateRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=191"`
	Role  *string `json:"role,omitempty" validate:"omitempty,oneof=admin cashier"`
}

type PasswordChangeRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type ClientRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=120"`
	Surname string `json:"surname" validate:"max=120"`
	Phone   string `json:"phone" validate:"required,phone"`
	Address string `json:"address" validate:"max=255"`
	Email   string `json:"email" validate:"omitempty,email,max=191"`
}

type SupplierRequest struct {
	CompanyName string `json:"company_name" validate:"required,min=2,max=160"`
	Contact     string `json:"contact" validate:"max=120"`
	Phone       string `json:"phone" validate:"omitempty,phone"`
	Email       string `json:"email" validate:"omitempty,email,max=191"`
}

type ProductRequest struct {
	Name               string `json:"name" validate:"required,max=160"`
	Description        string `json:"description" validate:"max=1000"`
	PurchasePriceCents int64  `json:"purchase_price_cents" validate:"gte=0,lte=100000000000"`
	SalePriceCents     int64  `json:"sale_price_cents" validate:"gt=0,lte=100000000000"`
	Stock              int    `json:"stock" validate:"gte=0,lte=1000000"`
	Category           string `json:"category" validate:"max=80"`
	SupplierID         string `json:"supplier_id"`
}

type SaleLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Qty       int    `json:"qty" validate:"gt=0,lte=100000"`
}

type SaleRequest struct {
	ClientID string            `json:"client_id"`
	Items    []SaleLineRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

type PurchaseOrderLineRequest struct {
	ProductID     string `json:"product_id" validate:"required"`
	Qty           int    `json:"qty" validate:"gt=0,lte=100000"`
	UnitCostCents int64  `json:"unit_cost_cents" validate:"gt=0,lte=100000000000"`
}

type PurchaseOrderRequest struct {
	SupplierID        string                     `json:"supplier_id" validate:"required"`
	EstimatedDelivery string                     `json:"estimated_delivery"`
	Items             []PurchaseOrderLineRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

type PurchaseOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pendiente Recibido Cancelado"`
}

type ClientOrderLineRequest struct {
	ProductID      string `json:"product_id"`
	Description    string `json:"description" validate:"max=255"`
	Qty            int    `json:"qty" validate:"gt=0,lte=100000"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gt=0,lte=100000000000"`
}

type ClientOrderRequest struct {
	ClientID            string                   `json:"client_id" validate:"required"`
	TotalCents          int64                    `json:"total_cents" validate:"gte=0,lte=100000000000"`
	Items               []ClientOrderLineRequest `json:"items" validate:"max=200,dive"`
	InitialPaymentCents int64                    `json:"initial_payment_cents" validate:"gte=0,lte=100000000000"`
	PaymentMethod       string                   `json:"payment_method" validate:"omitempty,oneof=Efectivo Tarjeta Transferencia Otro"`
	Description         string                   `json:"description"`
	EstimatedDelivery   string                   `json:"estimated_delivery"`
}

type PaymentRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"gte=0,lte=100000000000"`
	// Amount is a decimal alternative to AmountCents, e.g. "150.50".
	Amount string `json:"amount,omitempty"`
	Method string `json:"method" validate:"omitempty,oneof=Efectivo Tarjeta Transferencia Otro"`
}

type PurchaseOrderStatusResponse struct {
	Order   PurchaseOrder `json:"order"`
	Changed bool          `json:"changed"`
}
