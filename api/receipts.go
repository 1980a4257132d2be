package api

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pwdtools/calc-engine/batch"
	"github.com/pwdtools/calc-engine/billing"
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/factory"
	"github.com/pwdtools/calc-engine/generic"
)

const sampleRows = 5

// =============================================================================
// UPLOADS
// =============================================================================

// readUpload parses the multipart "file" field as CSV or XLSX by extension.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*batch.Table, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field", err)
		return nil, false
	}
	defer file.Close()

	var table *batch.Table
	switch ext := strings.ToLower(filepath.Ext(header.Filename)); ext {
	case ".csv", ".txt":
		table, err = batch.ReadCSV(file)
	case ".xlsx":
		table, err = batch.ReadXLSX(file)
	default:
		writeError(w, http.StatusBadRequest, "Unsupported file type", fmt.Errorf("extension %q, want .csv or .xlsx", ext))
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cannot read upload", err)
		return nil, false
	}
	if h.MaxBatchRows > 0 && len(table.Rows) > h.MaxBatchRows {
		writeError(w, http.StatusBadRequest, "Too many rows",
			fmt.Errorf("%d rows, limit is %d", len(table.Rows), h.MaxBatchRows))
		return nil, false
	}
	return table, true
}

func mappingDTO(m batch.Mapping) MappingDTO {
	return MappingDTO{Payee: m.Payee, Amount: m.Amount, Work: m.Work}
}

// ReceiptColumns handles POST /api/receipts/columns: it returns the
// headers, the detected mapping and a few sample rows for confirmation.
func (h *Handler) ReceiptColumns(w http.ResponseWriter, r *http.Request) {
	table, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	m := batch.DetectColumns(table.Headers)
	resp := ColumnsResponse{
		Headers:  table.Headers,
		Mapping:  mappingDTO(m),
		Complete: m.Validate(table.Headers) == nil,
		Rows:     len(table.Rows),
	}
	for i := 0; i < len(table.Rows) && i < sampleRows; i++ {
		resp.Sample = append(resp.Sample, RowDTO(table.Rows[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ReceiptBatch handles POST /api/receipts/batch. Form fields payee_column,
// amount_column and work_column override the detected mapping;
// receipt_date is printed on every receipt; persist=false skips the audit rows.
func (h *Handler) ReceiptBatch(w http.ResponseWriter, r *http.Request) {
	format, err := document.ParseFormat(r.URL.Query().Get("format"))
	if err != nil || (format != document.FormatJSON && format != document.FormatZIP) {
		writeError(w, http.StatusBadRequest, "Unsupported format", err)
		return
	}
	table, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	m := batch.DetectColumns(table.Headers).Override(batch.Mapping{
		Payee:  r.FormValue("payee_column"),
		Amount: r.FormValue("amount_column"),
		Work:   r.FormValue("work_column"),
	})
	if err := m.Validate(table.Headers); err != nil {
		h.fail(w, err)
		return
	}

	gen := *h.Batch
	if v := r.FormValue("receipt_date"); v != "" {
		d, err := generic.ParseDate("receipt_date", v)
		if err != nil {
			h.fail(w, err)
			return
		}
		gen.Date = d
	}
	if persist, err := strconv.ParseBool(r.FormValue("persist")); err == nil && !persist {
		gen.Ledger = nil
	}

	b, err := gen.GenerateTable(r.Context(), table, m)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Metrics.ObserveBatchRows(string(batch.StatusRendered), b.Rendered())
	h.Metrics.ObserveBatchRows(string(batch.StatusInvalid), b.Invalid())
	h.calculations.Add(int64(b.Rendered()))

	if format == document.FormatZIP {
		var buf bytes.Buffer
		if err := b.Archive(&buf); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to build archive", err)
			return
		}
		w.Header().Set("X-Batch-Rendered", strconv.Itoa(b.Rendered()))
		w.Header().Set("X-Batch-Invalid", strconv.Itoa(b.Invalid()))
		writeFile(w, format.ContentType(), "receipts_"+b.ID+".zip", buf.Bytes())
		return
	}
	writeJSON(w, http.StatusOK, toBatchResponse(b))
}

func toBatchResponse(b *batch.Batch) BatchResponse {
	resp := BatchResponse{
		BatchID:  b.ID,
		Mapping:  mappingDTO(b.Mapping),
		Total:    len(b.Results),
		Rendered: b.Rendered(),
		Invalid:  b.Invalid(),
		Rows:     make([]BatchRowDTO, len(b.Results)),
	}
	for i, res := range b.Results {
		row := BatchRowDTO{
			Row:      res.Row,
			Status:   string(res.Status),
			Payee:    res.Payee,
			Filename: res.Filename,
			Reason:   res.Reason,
		}
		if res.Status == batch.StatusRendered {
			row.Amount = generic.AmountText(res.Amount)
		}
		if res.Record != nil {
			row.Reference = res.Record.Reference
		}
		if res.PersistErr != nil {
			row.PersistError = res.PersistErr.Error()
		}
		resp.Rows[i] = row
	}
	return resp
}

// =============================================================================
// SCHEDULES
// =============================================================================

// Schedules handles GET /api/schedules: the built-in rate schedules.
func (h *Handler) Schedules(w http.ResponseWriter, r *http.Request) {
	sf := factory.NewScheduleFactory()
	presets := billing.Presets()
	out := make(map[string]factory.ScheduleJSON, len(presets))
	for id, raw := range presets {
		s, err := sf.ParseSchedule(raw)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Invalid preset "+id, err)
			return
		}
		out[id] = sf.ToJSON(s)
	}
	writeJSON(w, http.StatusOK, out)
}
