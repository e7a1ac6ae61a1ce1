package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"papeleria/backend/internal/export"
	"papeleria/backend/internal/service"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// handleExport renders a report as csv (default) or xlsx.
func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	report := chi.URLParam(r, "report")
	query := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unsupported format %q", format))
		return
	}

	from, to, err := service.DateRange(query.Get("from"), query.Get("to"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	table, err := a.service.ExportReport(r.Context(), report, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	contentType := contentTypeCSV
	if format == "xlsx" {
		contentType = contentTypeXLSX
		err = export.WriteXLSX(&buf, table)
	} else {
		err = export.WriteCSV(&buf, table)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeAttachment(w, contentType, export.FileName(table.Name, format, a.now()), buf.Bytes())
}

func (a *API) handleOrderStatement(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetClientOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if order == nil {
		writeServiceError(w, errors.New("client order missing"))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteOrderStatementPDF(&buf, *order, a.now()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeAttachment(w, contentTypePDF, export.FileName("estado_cuenta_"+order.ID, "pdf", a.now()), buf.Bytes())
}

func writeAttachment(w http.ResponseWriter, contentType string, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
