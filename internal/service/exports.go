package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/export"
)

const exportRowLimit = 100000

// Reports lists the report names accepted by ExportReport.
var Reports = []string{"sales", "clients", "products", "suppliers", "client-orders", "purchase-orders"}

// ExportReport builds the table for a named report. from and to only apply
// to dated reports; zero values leave the range open.
func (s *Service) ExportReport(ctx context.Context, report string, from time.Time, to time.Time) (export.Table, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return export.Table{}, err
	}

	var (
		table export.Table
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(report)) {
	case "sales":
		table, err = s.salesReport(ctx, from, to)
	case "clients":
		table, err = s.clientsReport(ctx)
	case "products":
		table, err = s.productsReport(ctx)
	case "suppliers":
		table, err = s.suppliersReport(ctx)
	case "client-orders":
		table, err = s.clientOrdersReport(ctx, from, to)
	case "purchase-orders":
		table, err = s.purchaseOrdersReport(ctx, from, to)
	default:
		return export.Table{}, invalid(fmt.Errorf("unknown report %q", report))
	}
	if err != nil {
		return export.Table{}, err
	}
	if table.Empty() {
		return export.Table{}, invalid(export.ErrNoData)
	}
	s.logAudit(ctx, "export", "report", report, fmt.Sprintf("rows=%d", len(table.Rows)))
	return table, nil
}

func (s *Service) salesReport(ctx context.Context, from time.Time, to time.Time) (export.Table, error) {
	rows, err := s.repo.ListSalesHistory(ctx, domain.SalesHistoryFilter{From: from, To: to, Limit: exportRowLimit})
	if err != nil {
		return export.Table{}, err
	}
	table := export.Table{
		Name:    "ventas",
		Headers: []string{"ID Venta", "Fecha", "Producto", "Cantidad", "Precio Unitario", "Subtotal", "Total Venta", "Cliente", "Usuario"},
		Rows:    make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		table.Rows = append(table.Rows, []any{
			r.SaleID, r.CreatedAt, r.ProductName, r.Qty, export.Money(r.UnitPriceCents),
			export.Money(r.SubtotalCents), export.Money(r.SaleTotalCents), r.ClientName, r.UserName,
		})
	}
	return table, nil
}

func (s *Service) clientsReport(ctx context.Context) (export.Table, error) {
	clients, err := s.repo.ListClients(ctx, "")
	if err != nil {
		return export.Table{}, err
	}
	table := export.Table{
		Name:    "clientes",
		Headers: []string{"ID", "Nombre", "Apellido", "Teléfono", "Dirección", "Email", "Fecha Registro"},
		Rows:    make([][]any, 0, len(clients)),
	}
	for _, c := range clients {
		table.Rows = append(table.Rows, []any{c.ID, c.Name, c.Surname, c.Phone, c.Address, c.Email, c.CreatedAt})
	}
	return table, nil
}

func (s *Service) productsReport(ctx context.Context) (export.Table, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return export.Table{}, err
	}
	table := export.Table{
		Name:    "productos",
		Headers: []string{"ID", "Nombre", "Descripción", "Precio Compra", "Precio Venta", "Stock", "Categoría", "Proveedor"},
		Rows:    make([][]any, 0, len(products)),
	}
	for _, p := range products {
		table.Rows = append(table.Rows, []any{
			p.ID, p.Name, p.Description, export.Money(p.PurchasePriceCents), export.Money(p.SalePriceCents),
			p.Stock, p.Category, p.SupplierName,
		})
	}
	return table, nil
}

func (s *Service) suppliersReport(ctx context.Context) (export.Table, error) {
	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return export.Table{}, err
	}
	table := export.Table{
		Name:    "proveedores",
		Headers: []string{"ID", "Empresa", "Contacto", "Teléfono", "Email", "Fecha Registro"},
		Rows:    make([][]any, 0, len(suppliers)),
	}
	for _, sup := range suppliers {
		table.Rows = append(table.Rows, []any{sup.ID, sup.CompanyName, sup.Contact, sup.Phone, sup.Email, sup.CreatedAt})
	}
	return table, nil
}

func (s *Service) clientOrdersReport(ctx context.Context, from time.Time, to time.Time) (export.Table, error) {
	orders, err := s.repo.ListClientOrders(ctx, domain.ClientOrderFilter{})
	if err != nil {
		return export.Table{}, err
	}
	table := export.Table{
		Name:    "pedidos_cliente",
		Headers: []string{"ID", "Cliente", "Fecha", "Entrega Estimada", "Total", "Pagado", "Pendiente", "Estado", "Descripción", "Usuario"},
		Rows:    make([][]any, 0, len(orders)),
	}
	for _, o := range orders {
		if !inRange(o.OrderDate, from, to) {
			continue
		}
		table.Rows = append(table.Rows, []any{
			o.ID, o.ClientName, o.OrderDate, o.EstimatedDelivery, export.Money(o.TotalCents),
			export.Money(o.PaidCents), export.Money(o.PendingCents), o.Status, o.Description, o.UserName,
		})
	}
	return table, nil
}

func (s *Service) purchaseOrdersReport(ctx context.Context, from time.Time, to time.Time) (export.Table, error) {
	orders, err := s.repo.ListPurchaseOrders(ctx, "")
	if err != nil {
		return export.Table{}, err
	}
	table := export.Table{
		Name:    "pedidos_proveedor",
		Headers: []string{"ID", "Proveedor", "Fecha", "Entrega Estimada", "Total", "Estado"},
		Rows:    make([][]any, 0, len(orders)),
	}
	for _, po := range orders {
		if !inRange(po.OrderDate, from, to) {
			continue
		}
		table.Rows = append(table.Rows, []any{po.ID, po.SupplierName, po.OrderDate, po.EstimatedDelivery, export.Money(po.TotalCents), po.Status})
	}
	return table, nil
}

func inRange(at time.Time, from time.Time, to time.Time) bool {
	if !from.IsZero() && at.Before(from) {
		return false
	}
	if !to.IsZero() && at.After(to) {
		return false
	}
	return true
}
