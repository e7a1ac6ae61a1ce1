package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
	"papeleria/backend/internal/xid"
)

type Store struct {
	mu             sync.RWMutex
	users          map[string]domain.User
	clients        map[string]domain.Client
	suppliers      map[string]domain.Supplier
	products       map[string]domain.Product
	sales          map[string]domain.Sale
	saleIDs        []string
	purchaseOrders map[string]domain.PurchaseOrder
	purchaseIDs    []string
	clientOrders   map[string]domain.ClientOrder
	clientOrderIDs []string
	payments       map[string][]domain.Payment
	auditLogs      []domain.AuditLog
}

func New() *Store {
	return &Store{
		users:          make(map[string]domain.User),
		clients:        make(map[string]domain.Client),
		suppliers:      make(map[string]domain.Supplier),
		products:       make(map[string]domain.Product),
		sales:          make(map[string]domain.Sale),
		purchaseOrders: make(map[string]domain.PurchaseOrder),
		clientOrders:   make(map[string]domain.ClientOrder),
		payments:       make(map[string][]domain.Payment),
	}
}

// NewSeeded returns a store with demo users, suppliers, products and a client.
// Seed passwords come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD and
// fall back to dev defaults with a warning.
func NewSeeded() *Store {
	s := New()
	now := nowUTC()

	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cajero123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Warn().Str("component", "memory-store").Msg("using default dev credentials; set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override")
	}
	for _, u := range []struct {
		id, name, email, password, role string
	}{
		{"usr-admin", "Ángel Administrador", "admin@papeleria.local", adminPwd, domain.RoleAdmin},
		{"usr-cajero", "Caja Principal", "cajero@papeleria.local", cashierPwd, domain.RoleCashier},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Str("user", u.email).Msg("failed to hash seed password")
		}
		s.users[u.id] = domain.User{ID: u.id, Name: u.name, Email: u.email, PasswordHash: string(hash), Role: u.role, CreatedAt: now}
	}

	s.suppliers["sup-norma"] = domain.Supplier{ID: "sup-norma", CompanyName: "Papelera Norma", Contact: "Luis Pérez", Phone: "5512345678", Email: "ventas@norma.example", CreatedAt: now}
	s.suppliers["sup-bic"] = domain.Supplier{ID: "sup-bic", CompanyName: "Distribuidora BIC", Contact: "Marta Ruiz", Phone: "5587654321", Email: "pedidos@bic.example", CreatedAt: now}

	norma, bic := "sup-norma", "sup-bic"
	for _, p := range []domain.Product{
		{ID: "prd-cuaderno-100", Name: "Cuaderno profesional 100 hojas", Category: "cuadernos", PurchasePriceCents: 2800, SalePriceCents: 4500, Stock: 40, SupplierID: &norma},
		{ID: "prd-cuaderno-200", Name: "Cuaderno profesional 200 hojas", Category: "cuadernos", PurchasePriceCents: 4600, SalePriceCents: 7200, Stock: 25, SupplierID: &norma},
		{ID: "prd-boligrafo-azul", Name: "Bolígrafo azul", Category: "escritura", PurchasePriceCents: 450, SalePriceCents: 900, Stock: 200, SupplierID: &bic},
		{ID: "prd-boligrafo-negro", Name: "Bolígrafo negro", Category: "escritura", PurchasePriceCents: 450, SalePriceCents: 900, Stock: 150, SupplierID: &bic},
		{ID: "prd-lapiz-hb", Name: "Lápiz HB", Category: "escritura", PurchasePriceCents: 250, SalePriceCents: 600, Stock: 300, SupplierID: &bic},
		{ID: "prd-resma-carta", Name: "Resma papel carta 500 hojas", Category: "papel", PurchasePriceCents: 7800, SalePriceCents: 11500, Stock: 12, SupplierID: &norma},
		{ID: "prd-tijeras", Name: "Tijeras escolares", Category: "escolar", PurchasePriceCents: 1500, SalePriceCents: 3200, Stock: 3},
		{ID: "prd-pegamento", Name: "Pegamento en barra", Category: "escolar", PurchasePriceCents: 900, SalePriceCents: 1800, Stock: 0},
	} {
		p.Active = true
		p.CreatedAt = now
		s.products[p.ID] = p
	}

	s.clients["cli-demo"] = domain.Client{ID: "cli-demo", Name: "María", Surname: "González", Phone: "5511122233", Address: "av. juárez 10", Email: "maria@example.com", CreatedAt: now}
	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func (s *Store) CreateUser(_ context.Context, user domain.User) (*domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Name == "" || user.Email == "" || user.PasswordHash == "" {
		return nil, store.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(user.Email, "") {
		return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
	}
	if user.ID == "" {
		user.ID = xid.New("usr")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = nowUTC()
	}
	s.users[user.ID] = user
	saved := user
	return &saved, nil
}

func (s *Store) emailTaken(email string, exceptID string) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (s *Store) UpdateUser(_ context.Context, user domain.User) (*domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if s.emailTaken(user.Email, user.ID) {
		return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.Role = user.Role
	s.users[user.ID] = existing
	return &existing, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id string, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.users[id] = user
	return nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return store.ErrNotFound
	}
	for _, sale := range s.sales {
		if sale.UserID == id {
			return fmt.Errorf("%w: user has registered sales", store.ErrConflict)
		}
	}
	for _, order := range s.clientOrders {
		if order.UserID == id {
			return fmt.Errorf("%w: user has registered client orders", store.ErrConflict)
		}
	}
	for _, list := range s.payments {
		for _, p := range list {
			if p.UserID != nil && *p.UserID == id {
				return fmt.Errorf("%w: user has registered payments", store.ErrConflict)
			}
		}
	}
	delete(s.users, id)
	return nil
}

func (s *Store) CreateClient(_ context.Context, client domain.Client) (*domain.Client, error) {
	if client.Name == "" {
		return nil, store.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if client.ID == "" {
		client.ID = xid.New("cli")
	}
	if client.CreatedAt.IsZero() {
		client.CreatedAt = nowUTC()
	}
	s.clients[client.ID] = client
	saved := client
	return &saved, nil
}

func (s *Store) GetClient(_ context.Context, id string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &client, nil
}

func (s *Store) ListClients(_ context.Context, search string) ([]domain.Client, error) {
	needle := strings.ToLower(strings.TrimSpace(search))
	s.mu.RLock()
	defer s.mu.RUnlock()
	clients := make([]domain.Client, 0, len(s.clients))
	for _, c := range s.clients {
		if needle != "" && !clientMatches(c, needle) {
			continue
		}
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		if clients[i].Name != clients[j].Name {
			return clients[i].Name < clients[j].Name
		}
		return clients[i].Surname < clients[j].Surname
	})
	return clients, nil
}

func clientMatches(c domain.Client, needle string) bool {
	for _, field := range []string{c.Name, c.Surname, c.Phone, c.Email} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *Store) UpdateClient(_ context.Context, client domain.Client) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.clients[client.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	client.CreatedAt = existing.CreatedAt
	s.clients[client.ID] = client
	saved := client
	return &saved, nil
}

func (s *Store) DeleteClient(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[id]; !ok {
		return store.ErrNotFound
	}
	for _, order := range s.clientOrders {
		if order.ClientID == id {
			return fmt.Errorf("%w: client has registered orders", store.ErrConflict)
		}
	}
	delete(s.clients, id)
	return nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.CompanyName == "" {
		return nil, store.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if supplier.ID == "" {
		supplier.ID = xid.New("sup")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = nowUTC()
	}
	s.suppliers[supplier.ID] = supplier
	saved := supplier
	return &saved, nil
}

func (s *Store) GetSupplier(_ context.Context, id string) (*domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	supplier, ok := s.suppliers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &supplier, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	suppliers := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		suppliers = append(suppliers, sup)
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].CompanyName < suppliers[j].CompanyName })
	return suppliers, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.suppliers[supplier.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	supplier.CreatedAt = existing.CreatedAt
	s.suppliers[supplier.ID] = supplier
	saved := supplier
	return &saved, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.suppliers[id]; !ok {
		return store.ErrNotFound
	}
	for _, p := range s.products {
		if p.SupplierID != nil && *p.SupplierID == id {
			return fmt.Errorf("%w: supplier is referenced by products", store.ErrConflict)
		}
	}
	delete(s.suppliers, id)
	return nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SalePriceCents < 1 || product.PurchasePriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.SupplierID != nil {
		if _, ok := s.suppliers[*product.SupplierID]; !ok {
			return nil, fmt.Errorf("%w: supplier not found", store.ErrInvalid)
		}
	}
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = nowUTC()
	}
	product.Active = true
	product.SupplierName = ""
	s.products[product.ID] = product
	return s.productView(product), nil
}

func (s *Store) productView(p domain.Product) *domain.Product {
	view := p
	view.SupplierName = ""
	if p.SupplierID != nil {
		view.SupplierName = s.suppliers[*p.SupplierID].CompanyName
	}
	return &view
}

func (s *Store) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.productView(product), nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	return s.filterProducts(func(p domain.Product) bool { return p.Active }), nil
}

func (s *Store) ListSellableProducts(_ context.Context) ([]domain.Product, error) {
	return s.filterProducts(func(p domain.Product) bool { return p.Active && p.Stock > 0 }), nil
}

func (s *Store) ListLowStockProducts(_ context.Context, threshold int) ([]domain.Product, error) {
	products := s.filterProducts(func(p domain.Product) bool { return p.Active && p.Stock <= threshold })
	sort.SliceStable(products, func(i, j int) bool { return products[i].Stock < products[j].Stock })
	return products, nil
}

func (s *Store) filterProducts(keep func(domain.Product) bool) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			products = append(products, *s.productView(p))
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Name < products[j].Name })
	return products
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	if product.Name == "" || product.SalePriceCents < 1 || product.PurchasePriceCents < 0 || product.Stock < 0 {
		return nil, store.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[product.ID]
	if !ok || !existing.Active {
		return nil, store.ErrNotFound
	}
	if product.SupplierID != nil {
		if _, ok := s.suppliers[*product.SupplierID]; !ok {
			return nil, fmt.Errorf("%w: supplier not found", store.ErrInvalid)
		}
	}
	product.Active = true
	product.CreatedAt = existing.CreatedAt
	s.products[product.ID] = product
	return s.productView(product), nil
}

func (s *Store) DeactivateProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[id]
	if !ok || !product.Active {
		return store.ErrNotFound
	}
	product.Active = false
	s.products[id] = product
	return nil
}

func (s *Store) CreateSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if sale.UserID == "" || len(sale.Items) == 0 {
		return nil, store.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[sale.UserID]; !ok {
		return nil, fmt.Errorf("%w: user not found", store.ErrInvalid)
	}
	if sale.ClientID != nil {
		if _, ok := s.clients[*sale.ClientID]; !ok {
			return nil, fmt.Errorf("%w: client not found", store.ErrInvalid)
		}
	}

	// Validate every line before touching stock so a failure leaves nothing applied.
	var total int64
	items := make([]domain.SaleItem, 0, len(sale.Items))
	requested := make(map[string]int, len(sale.Items))
	for i, item := range sale.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalid
		}
		product, ok := s.products[item.ProductID]
		if !ok || !product.Active {
			return nil, fmt.Errorf("%w: product %s is not available", store.ErrInvalid, item.ProductID)
		}
		requested[product.ID] += item.Qty
		if product.Stock < requested[product.ID] {
			return nil, fmt.Errorf("%w: %s has %d left", store.ErrInsufficientStock, product.Name, product.Stock)
		}
		line := domain.SaleItem{
			LineNo:         i + 1,
			ProductID:      product.ID,
			ProductName:    product.Name,
			Qty:            item.Qty,
			UnitPriceCents: product.SalePriceCents,
			SubtotalCents:  product.SalePriceCents * int64(item.Qty),
		}
		total += line.SubtotalCents
		items = append(items, line)
	}
	for _, line := range items {
		product := s.products[line.ProductID]
		product.Stock -= line.Qty
		s.products[line.ProductID] = product
	}

	if sale.ID == "" {
		sale.ID = xid.New("vta")
	}
	sale.CreatedAt = nowUTC()
	sale.TotalCents = total
	for i := range items {
		items[i].SaleID = sale.ID
	}
	sale.Items = items
	s.sales[sale.ID] = sale
	s.saleIDs = append(s.saleIDs, sale.ID)
	return s.saleView(sale), nil
}

func (s *Store) saleView(sale domain.Sale) *domain.Sale {
	view := sale
	view.Items = slices.Clone(sale.Items)
	view.UserName = s.users[sale.UserID].Name
	view.ClientName = domain.WalkInClientName
	if sale.ClientID != nil {
		if client, ok := s.clients[*sale.ClientID]; ok {
			view.ClientName = client.FullName()
		}
	}
	return &view
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.saleView(sale), nil
}

func (s *Store) ListSalesHistory(_ context.Context, filter domain.SalesHistoryFilter) ([]domain.SalesHistoryRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.SalesHistoryRow, 0, 64)
	for i := len(s.saleIDs) - 1; i >= 0; i-- {
		sale := s.saleView(s.sales[s.saleIDs[i]])
		if !filter.From.IsZero() && sale.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && sale.CreatedAt.After(filter.To) {
			continue
		}
		for _, item := range sale.Items {
			rows = append(rows, domain.SalesHistoryRow{
				SaleID:         sale.ID,
				CreatedAt:      sale.CreatedAt,
				ProductName:    item.ProductName,
				Qty:            item.Qty,
				UnitPriceCents: item.UnitPriceCents,
				SubtotalCents:  item.SubtotalCents,
				SaleTotalCents: sale.TotalCents,
				ClientName:     sale.ClientName,
				UserName:       sale.UserName,
			})
		}
	}
	return paginate(rows, filter.Offset, filter.Limit), nil
}

func paginate[T any](rows []T, offset int, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	if offset > 0 {
		rows = rows[offset:]
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func (s *Store) CreatePurchaseOrder(_ context.Context, po domain.PurchaseOrder) (*domain.PurchaseOrder, error) {
	if po.SupplierID == "" || len(po.Items) == 0 {
		return nil, store.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.suppliers[po.SupplierID]; !ok {
		return nil, fmt.Errorf("%w: supplier not found", store.ErrInvalid)
	}
	var total int64
	for i := range po.Items {
		item := &po.Items[i]
		if item.Qty < 1 || item.UnitCostCents < 1 {
			return nil, store.ErrInvalid
		}
		product, ok := s.products[item.ProductID]
		if !ok || !product.Active {
			return nil, fmt.Errorf("%w: product %s is not available", store.ErrInvalid, item.ProductID)
		}
		item.LineNo = i + 1
		item.ProductName = product.Name
		item.SubtotalCents = item.UnitCostCents * int64(item.Qty)
		total += item.SubtotalCents
	}
	if total < 1 {
		return nil, store.ErrInvalid
	}

	if po.ID == "" {
		po.ID = xid.New("ped")
	}
	for i := range po.Items {
		po.Items[i].PurchaseOrderID = po.ID
	}
	po.OrderDate = nowUTC()
	po.TotalCents = total
	po.Status = domain.PurchaseOrderPending
	s.purchaseOrders[po.ID] = po
	s.purchaseIDs = append(s.purchaseIDs, po.ID)
	return s.purchaseOrderView(po), nil
}

func (s *Store) purchaseOrderView(po domain.PurchaseOrder) *domain.PurchaseOrder {
	view := po
	view.Items = slices.Clone(po.Items)
	view.SupplierName = s.suppliers[po.SupplierID].CompanyName
	return &view
}

func (s *Store) GetPurchaseOrder(_ context.Context, id string) (*domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	po, ok := s.purchaseOrders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.purchaseOrderView(po), nil
}

func (s *Store) ListPurchaseOrders(_ context.Context, status string) ([]domain.PurchaseOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]domain.PurchaseOrder, 0, len(s.purchaseIDs))
	for i := len(s.purchaseIDs) - 1; i >= 0; i-- {
		po := s.purchaseOrders[s.purchaseIDs[i]]
		if status != "" && po.Status != status {
			continue
		}
		view := s.purchaseOrderView(po)
		view.Items = nil
		orders = append(orders, *view)
	}
	return orders, nil
}

func (s *Store) UpdatePurchaseOrderStatus(_ context.Context, id string, status string) (*domain.PurchaseOrder, bool, error) {
	if !domain.ValidPurchaseOrderStatus(status) {
		return nil, false, fmt.Errorf("%w: unknown status %q", store.ErrInvalid, status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	po, ok := s.purchaseOrders[id]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	if po.Status == status {
		return s.purchaseOrderView(po), false, nil
	}
	if po.Status != domain.PurchaseOrderPending {
		return nil, false, fmt.Errorf("%w: purchase order is already %s", store.ErrConflict, po.Status)
	}
	if status == domain.PurchaseOrderReceived {
		for _, item := range po.Items {
			product, ok := s.products[item.ProductID]
			if !ok {
				return nil, false, fmt.Errorf("%w: product %s no longer exists", store.ErrConflict, item.ProductID)
			}
			product.Stock += item.Qty
			s.products[item.ProductID] = product
		}
	}
	po.Status = status
	s.purchaseOrders[id] = po
	return s.purchaseOrderView(po), true, nil
}

func (s *Store) DeletePurchaseOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	po, ok := s.purchaseOrders[id]
	if !ok {
		return store.ErrNotFound
	}
	if po.Status != domain.PurchaseOrderPending && po.Status != domain.PurchaseOrderCancelled {
		return fmt.Errorf("%w: only pending or cancelled purchase orders can be deleted", store.ErrConflict)
	}
	delete(s.purchaseOrders, id)
	s.purchaseIDs = slices.DeleteFunc(s.purchaseIDs, func(v string) bool { return v == id })
	return nil
}

func (s *Store) CreateClientOrder(_ context.Context, order domain.ClientOrder, initial *domain.Payment) (*domain.ClientOrder, error) {
	if order.ClientID == "" || order.UserID == "" || order.TotalCents < 1 {
		return nil, store.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[order.ClientID]; !ok {
		return nil, fmt.Errorf("%w: client not found", store.ErrInvalid)
	}
	if _, ok := s.users[order.UserID]; !ok {
		return nil, fmt.Errorf("%w: user not found", store.ErrInvalid)
	}
	var paid int64
	if initial != nil {
		if initial.AmountCents < 1 {
			return nil, store.ErrInvalid
		}
		paid = initial.AmountCents
	}
	if domain.ExceedsTotal(order.TotalCents, paid) {
		return nil, fmt.Errorf("%w: initial payment is larger than the total", store.ErrOverpayment)
	}

	if order.ID == "" {
		order.ID = xid.New("pcl")
	}
	now := nowUTC()
	order.OrderDate = now
	order.PaidCents = paid
	order.Status = domain.ClientOrderStatusFor(order.TotalCents, paid)
	for i := range order.Items {
		order.Items[i].ClientOrderID = order.ID
		order.Items[i].LineNo = i + 1
	}
	order.Payments = nil
	s.clientOrders[order.ID] = order
	s.clientOrderIDs = append(s.clientOrderIDs, order.ID)

	if initial != nil {
		payment := *initial
		payment.ID = xid.New("abn")
		payment.ClientOrderID = order.ID
		payment.PaidAt = now
		s.payments[order.ID] = append(s.payments[order.ID], payment)
	}
	return s.clientOrderView(order, true), nil
}

func (s *Store) clientOrderView(order domain.ClientOrder, withDetail bool) *domain.ClientOrder {
	view := order
	if client, ok := s.clients[order.ClientID]; ok {
		view.ClientName = client.FullName()
	}
	view.UserName = s.users[order.UserID].Name
	view.PendingCents = domain.PendingCents(order.TotalCents, order.PaidCents)
	view.Items = nil
	view.Payments = nil
	if withDetail {
		view.Items = slices.Clone(order.Items)
		view.Payments = s.paymentViews(order.ID)
	}
	return &view
}

func (s *Store) paymentViews(orderID string) []domain.Payment {
	payments := slices.Clone(s.payments[orderID])
	for i := range payments {
		if payments[i].UserID != nil {
			payments[i].UserName = s.users[*payments[i].UserID].Name
		}
	}
	return payments
}

func (s *Store) GetClientOrder(_ context.Context, id string) (*domain.ClientOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.clientOrders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.clientOrderView(order, true), nil
}

func (s *Store) ListClientOrders(_ context.Context, filter domain.ClientOrderFilter) ([]domain.ClientOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]domain.ClientOrder, 0, len(s.clientOrderIDs))
	for i := len(s.clientOrderIDs) - 1; i >= 0; i-- {
		order := s.clientOrders[s.clientOrderIDs[i]]
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.ClientID != "" && order.ClientID != filter.ClientID {
			continue
		}
		orders = append(orders, *s.clientOrderView(order, false))
	}
	return orders, nil
}

func (s *Store) ListOverdueClientOrders(_ context.Context, asOf time.Time) ([]domain.ClientOrder, error) {
	cutoff := domain.DateOnly(asOf)
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]domain.ClientOrder, 0, 16)
	for _, id := range s.clientOrderIDs {
		order := s.clientOrders[id]
		if order.Status == domain.ClientOrderCompleted || order.Status == domain.ClientOrderCancelled {
			continue
		}
		if order.EstimatedDelivery == nil || !order.EstimatedDelivery.Before(cutoff) {
			continue
		}
		orders = append(orders, *s.clientOrderView(order, false))
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].EstimatedDelivery.Before(*orders[j].EstimatedDelivery)
	})
	return orders, nil
}

func (s *Store) RegisterPayment(_ context.Context, payment domain.Payment) (*domain.PaymentReceipt, error) {
	if payment.ClientOrderID == "" || payment.AmountCents < 1 {
		return nil, store.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.clientOrders[payment.ClientOrderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if order.Status == domain.ClientOrderCancelled {
		return nil, fmt.Errorf("%w: order is cancelled", store.ErrOrderClosed)
	}
	newPaid := order.PaidCents + payment.AmountCents
	if domain.ExceedsTotal(order.TotalCents, newPaid) {
		return nil, fmt.Errorf("%w: pending balance is %s", store.ErrOverpayment, domain.FormatCents(domain.PendingCents(order.TotalCents, order.PaidCents)))
	}

	payment.ID = xid.New("abn")
	payment.PaidAt = nowUTC()
	s.payments[order.ID] = append(s.payments[order.ID], payment)

	order.PaidCents = newPaid
	order.Status = domain.ClientOrderStatusFor(order.TotalCents, newPaid)
	s.clientOrders[order.ID] = order

	if payment.UserID != nil {
		payment.UserName = s.users[*payment.UserID].Name
	}
	return &domain.PaymentReceipt{Payment: payment, Order: *s.clientOrderView(order, true)}, nil
}

func (s *Store) ListPayments(_ context.Context, orderID string) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.clientOrders[orderID]; !ok {
		return nil, store.ErrNotFound
	}
	return s.paymentViews(orderID), nil
}

func (s *Store) CancelClientOrder(_ context.Context, id string) (*domain.ClientOrder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.clientOrders[id]
	if !ok {
		return nil, false, store.ErrNotFound
	}
	switch order.Status {
	case domain.ClientOrderCancelled:
		return s.clientOrderView(order, true), false, nil
	case domain.ClientOrderCompleted:
		return nil, false, fmt.Errorf("%w: completed orders cannot be cancelled", store.ErrConflict)
	}
	order.Status = domain.ClientOrderCancelled
	s.clientOrders[id] = order
	return s.clientOrderView(order, true), true, nil
}

func (s *Store) DeleteClientOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clientOrders[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.payments, id)
	delete(s.clientOrders, id)
	s.clientOrderIDs = slices.DeleteFunc(s.clientOrderIDs, func(v string) bool { return v == id })
	return nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	if entry.Action == "" {
		return store.ErrInvalid
	}
	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = nowUTC()
	}
	s.mu.Lock()
	s.auditLogs = append(s.auditLogs, entry)
	s.mu.Unlock()
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logs := make([]domain.AuditLog, 0, 64)
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		entry := s.auditLogs[i]
		if (!from.IsZero() && entry.CreatedAt.Before(from)) || (!to.IsZero() && entry.CreatedAt.After(to)) {
			continue
		}
		logs = append(logs, entry)
		if limit > 0 && len(logs) >= limit {
			break
		}
	}
	return logs, nil
}
