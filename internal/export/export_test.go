package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"papeleria/backend/internal/domain"
)

func sampleTable() Table {
	at := time.Date(2026, 10, 18, 9, 30, 5, 0, time.UTC)
	return Table{
		Name:    "Ventas",
		Headers: []string{"ID", "Fecha", "Cliente", "Total", "Notas"},
		Rows: [][]any{
			{"vta-1", at, "María González", Money(12550), nil},
			{"vta-2", at, domain.WalkInClientName, Money(900), "pago, con \"cambio\""},
		},
	}
}

func TestWriteCSVStartsWithBOMAndFormatsCells(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"ID", "Fecha", "Cliente", "Total", "Notas"}, records[0])
	assert.Equal(t, []string{"vta-1", "2026-10-18 09:30:05", "María González", "125.50", ""}, records[1])
	assert.Equal(t, "pago, con \"cambio\"", records[2][4])
	assert.Equal(t, "9.00", records[2][3])
}

func TestWritersRejectEmptyTables(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, Table{Headers: []string{"A"}}), ErrNoData)
	assert.ErrorIs(t, WriteXLSX(&buf, Table{Headers: []string{"A"}}), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, "Ventas", f.GetSheetName(0))
	header, err := f.GetCellValue("Ventas", "C1")
	require.NoError(t, err)
	assert.Equal(t, "Cliente", header)
	total, err := f.GetCellValue("Ventas", "D2")
	require.NoError(t, err)
	assert.Equal(t, "125.5", total)
	date, err := f.GetCellValue("Ventas", "B3")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-18 09:30:05", date)
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "ventas_20260102_030405.csv", FileName("ventas", "csv", at))
	assert.Equal(t, "pedidos_cliente_20260102_030405.xlsx", FileName("pedidos cliente", "xlsx", at))
	assert.Equal(t, "reporte_20260102_030405.csv", FileName("", "csv", at))
}

func TestWriteOrderStatementPDF(t *testing.T) {
	delivery := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	order := domain.ClientOrder{
		ID:                "pcl-1",
		ClientName:        "María González",
		UserName:          "Caja Principal",
		OrderDate:         time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC),
		EstimatedDelivery: &delivery,
		TotalCents:        15000,
		PaidCents:         5000,
		Status:            domain.ClientOrderPartial,
		Description:       "Engargolado y copias a color",
		Items:             []domain.ClientOrderItem{{Description: "Engargolado", Qty: 3, UnitPriceCents: 5000, SubtotalCents: 15000}},
		Payments:          []domain.Payment{{AmountCents: 5000, Method: domain.PaymentCash, PaidAt: time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOrderStatementPDF(&buf, order, time.Now()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}
