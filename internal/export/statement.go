package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"

	"papeleria/backend/internal/domain"
)

const businessName = "Papelería Ángel"

// WriteOrderStatementPDF renders the account statement of a client order:
// header, items, payments and the pending balance.
func WriteOrderStatementPDF(w io.Writer, order domain.ClientOrder, at time.Time) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 8, tr(businessName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentW, 6, tr("Estado de cuenta de pedido"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 9)
	info := [][2]string{
		{"Pedido", order.ID},
		{"Cliente", order.ClientName},
		{"Fecha", order.OrderDate.Format("02/01/2006 15:04")},
		{"Entrega estimada", cellText(order.EstimatedDelivery)},
		{"Estado", order.Status},
		{"Atendió", order.UserName},
	}
	for _, kv := range info {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(40, 5, tr(kv[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW-40, 5, tr(kv[1]), "", 1, "L", false, 0, "")
	}
	if order.Description != "" {
		pdf.Ln(1)
		pdf.MultiCell(contentW, 5, tr(order.Description), "", "L", false)
	}
	pdf.Ln(3)

	if len(order.Items) > 0 {
		col := []float64{contentW * 0.52, contentW * 0.12, contentW * 0.18, contentW * 0.18}
		pdf.SetFont("Helvetica", "B", 9)
		for i, h := range []string{"Descripción", "Cant", "Precio", "Subtotal"} {
			pdf.CellFormat(col[i], 6, tr(h), "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		for _, item := range order.Items {
			pdf.CellFormat(col[0], 5, tr(item.Description), "", 0, "L", false, 0, "")
			pdf.CellFormat(col[1], 5, fmt.Sprintf("%d", item.Qty), "", 0, "L", false, 0, "")
			pdf.CellFormat(col[2], 5, "$"+domain.FormatCents(item.UnitPriceCents), "", 0, "L", false, 0, "")
			pdf.CellFormat(col[3], 5, "$"+domain.FormatCents(item.SubtotalCents), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentW, 6, tr("Abonos"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if len(order.Payments) == 0 {
		pdf.CellFormat(contentW, 5, tr("Sin abonos registrados"), "", 1, "L", false, 0, "")
	}
	for _, p := range order.Payments {
		line := fmt.Sprintf("%s  %s  $%s  %s", p.PaidAt.Format("02/01/2006 15:04"), p.Method, domain.FormatCents(p.AmountCents), p.UserName)
		pdf.CellFormat(contentW, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(2)
	totals := []struct {
		label string
		cents int64
	}{
		{"Total", order.TotalCents},
		{"Pagado", order.PaidCents},
		{"Saldo pendiente", domain.PendingCents(order.TotalCents, order.PaidCents)},
	}
	pdf.SetFont("Helvetica", "B", 10)
	for _, t := range totals {
		pdf.CellFormat(contentW*0.7, 6, tr(t.label+":"), "", 0, "R", false, 0, "")
		pdf.CellFormat(contentW*0.3, 6, "$"+domain.FormatCents(t.cents), "", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(contentW, 4, tr("Generado el "+at.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write statement: %w", err)
	}
	return nil
}
