/*
handlers.go - HTTP API handlers for the calculators

PURPOSE:
  Exposes the calculators via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the calculator packages.

ENDPOINTS:
  Calculators (each accepts ?format=json|text|csv|xlsx|html|pdf):
    POST /api/bills/note            Simple bill note
    POST /api/bills/professional    Professional bill note sheet
    POST /api/deductions            Deductions table
    POST /api/delays                Project delay analysis
    POST /api/emd-refunds           EMD refund order (RPWA 28)
    POST /api/security-refunds      Security deposit refund
    POST /api/stamp-duty            Stamp duty
    POST /api/bill-deviations       Bill deviation
    POST /api/financial-progress    Project portfolio financial progress

  Bulk receipts:
    POST /api/receipts/columns      Detect column mapping of an upload
    POST /api/receipts/batch        Generate receipts (?format=json|zip)

  Read-only:
    GET  /api/dashboard             Count and total per audit table
    GET  /api/schedules             Built-in rate schedules
    GET  /healthz                   Store liveness
    GET  /metrics                   Prometheus

REQUEST FLOW:
  1. Decode and validate the request body
  2. Parse amounts and dates
  3. Run the calculator
  4. Build the record and encode it in the requested format
  5. Insert the audit row, then write the response

ERROR HANDLING:
  - 400: Validation and parse errors, unknown format
  - 422: Amount cannot be written in words under the strict policy
  - 503: PDF requested but no converter configured
  - 500: Internal errors
  A failed audit insert does not fail the request: JSON responses carry
  persistence.error, document responses the X-Persistence-Error header.

SECURITY NOTE:
  No authentication. Deploy behind the department's gateway.

SEE ALSO:
  - dto.go: Request/response data structures
  - calculations.go: Per-endpoint handlers
  - receipts.go: Bulk receipt handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pwdtools/calc-engine/batch"
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/pwdtools/calc-engine/observability"
)

const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger   *generic.Ledger
	Builder  *document.Builder
	Renderer *document.Renderer
	Batch    *batch.Generator

	// PDF is nil when no converter is configured.
	PDF document.PDFConverter

	Metrics *observability.Metrics
	Logger  *slog.Logger

	// Ping checks the store for /healthz; nil always reports healthy.
	Ping func(ctx context.Context) error

	MaxUploadBytes int64
	MaxBatchRows   int

	validate     *validator.Validate
	calculations atomic.Int64
}

// NewHandler creates a handler around ledger with the given words policy.
func NewHandler(ledger *generic.Ledger, policy generic.WordsPolicy, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	builder := document.NewBuilder(policy)
	return &Handler{
		Ledger:         ledger,
		Builder:        builder,
		Renderer:       document.NewRenderer(),
		Batch:          batch.NewGenerator(builder, ledger, logger),
		Logger:         logger.With("component", "api"),
		MaxUploadBytes: 10 << 20,
		MaxBatchRows:   5000,
		validate:       newValidator(),
	}
}

// calculation is what every calculator endpoint hands to respond.
type calculation interface {
	document.Calculation
	generic.Auditable
}

// =============================================================================
// RESPONSE PIPELINE
// =============================================================================

// decode reads a JSON body into dst and runs struct validation.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validator().Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
			return false
		}
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

func (h *Handler) validator() *validator.Validate {
	if h.validate == nil {
		h.validate = newValidator()
	}
	return h.validate
}

// respond builds the record for c, encodes it in the requested format
// and persists it once encoding succeeded.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, c calculation) {
	ctx := r.Context()
	kind := string(c.Kind())

	format, err := document.ParseFormat(r.URL.Query().Get("format"))
	if err != nil || format == document.FormatZIP {
		writeError(w, http.StatusBadRequest, "Unsupported format", err)
		return
	}
	if format == document.FormatPDF && h.PDF == nil {
		writeError(w, http.StatusServiceUnavailable, "PDF output is not configured", document.ErrPDFUnavailable)
		return
	}

	rec, err := h.Builder.Build(c)
	if err != nil {
		h.Metrics.ObserveCalculation(kind, observability.OutcomeInvalid)
		h.fail(w, err)
		return
	}
	h.calculations.Add(1)

	if format == document.FormatJSON {
		persist := h.persist(ctx, c, rec)
		tmpl, _ := document.Lookup(c.Kind())
		writeJSON(w, http.StatusOK, toCalculationResponse(rec, tmpl.Title, persist))
		return
	}

	// No audit row until the document is fully encoded.
	doc, err := h.Renderer.Render(rec, c.Kind())
	if err != nil {
		h.Metrics.ObserveCalculation(kind, observability.OutcomeRenderFailed)
		writeError(w, http.StatusInternalServerError, "Failed to render document", err)
		return
	}
	var buf bytes.Buffer
	if err := document.Write(ctx, &buf, doc, format, h.PDF); err != nil {
		h.Metrics.ObserveCalculation(kind, observability.OutcomeRenderFailed)
		status := http.StatusInternalServerError
		if format == document.FormatPDF {
			status = http.StatusBadGateway
		}
		writeError(w, status, "Failed to encode document", err)
		return
	}

	persist := h.persist(ctx, c, rec)
	if persist.Error != "" {
		w.Header().Set("X-Persistence-Error", persist.Error)
	}
	writeFile(w, format.ContentType(), format.Filename(doc), buf.Bytes())
}

// persist inserts the audit row. Failure is logged and reported, never fatal.
func (h *Handler) persist(ctx context.Context, c calculation, rec generic.CalculationRecord) PersistenceDTO {
	table, _ := c.AuditRow(rec)
	out := PersistenceDTO{Table: string(table)}
	kind := string(c.Kind())
	if h.Ledger == nil {
		h.Metrics.ObserveCalculation(kind, observability.OutcomeOK)
		return out
	}

	id, err := h.Ledger.RecordCalculation(ctx, c, rec)
	if err != nil {
		out.Error = err.Error()
		h.Metrics.ObserveCalculation(kind, observability.OutcomePersistFailed)
		h.Logger.WarnContext(ctx, "audit row not persisted",
			"kind", kind, "reference", rec.Reference, "error", err)
		return out
	}
	out.ID = id
	h.Metrics.ObserveCalculation(kind, observability.OutcomeOK)
	h.Logger.InfoContext(ctx, "calculation recorded",
		"kind", kind, "reference", rec.Reference, "table", table, "id", id)
	return out
}

// fail maps a calculator error to its status.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case generic.IsClientError(err):
		resp := ErrorResponse{Error: "Invalid input", Details: err.Error()}
		var verr *generic.ValidationError
		var perr *generic.ParseError
		if errors.As(err, &verr) {
			resp.Field = verr.Field
		} else if errors.As(err, &perr) {
			resp.Field = perr.Field
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, generic.ErrFormatting):
		writeError(w, http.StatusUnprocessableEntity, "Amount cannot be written in words", err)
	default:
		h.Logger.Error("calculation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Calculation failed", err)
	}
}

func toCalculationResponse(rec generic.CalculationRecord, title string, p PersistenceDTO) CalculationResponse {
	inputs := make(map[string]any, len(rec.Inputs))
	for k, v := range rec.Inputs {
		if v.IsSet() {
			inputs[k] = v.Raw()
		}
	}
	lines := make([]LineDTO, len(rec.Breakdown))
	for i, l := range rec.Breakdown {
		lines[i] = LineDTO{Name: l.Name, Label: l.Label, Amount: generic.AmountText(l.Amount), Effect: string(l.Effect)}
	}
	return CalculationResponse{
		Reference:     rec.Reference,
		Kind:          rec.Kind,
		Title:         title,
		Inputs:        inputs,
		Breakdown:     lines,
		Net:           generic.AmountText(rec.Net),
		NetFormatted:  generic.FormatINR(rec.Net),
		NetInWords:    rec.NetInWords,
		WordsFallback: rec.WordsFallback,
		Negative:      rec.Net.IsNegative(),
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
		Persistence:   p,
	}
}

// =============================================================================
// READ-ONLY HANDLERS
// =============================================================================

// Dashboard returns count and total for every audit table.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if h.Ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "No store configured", nil)
		return
	}
	summary, err := h.Ledger.Summary(r.Context())
	if err != nil {
		h.Logger.ErrorContext(r.Context(), "dashboard summary failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load dashboard", err)
		return
	}
	resp := DashboardResponse{Tables: make([]TableSummaryDTO, len(summary))}
	for i, s := range summary {
		resp.Tables[i] = TableSummaryDTO{Table: string(s.Table), Count: s.Count, Total: generic.AmountText(s.Total)}
		resp.Calculations += s.Count
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health reports whether the store answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "calculations": h.calculations.Load()})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
