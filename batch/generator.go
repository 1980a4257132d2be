/*
generator.go - Bulk hand receipt generation

PURPOSE:
  Turns every row of an uploaded table into a hand receipt document and
  reports, per row, whether it rendered or why it was rejected.

ROW LIFECYCLE:
  Pending -> Valid -> Rendered
  Pending -> Invalid(reason)

  A row is Invalid when payee, work or amount is missing, when the amount
  does not parse (the reason quotes the raw cell) or is not positive, or
  when building or rendering fails.

CRITICAL INVARIANTS:
  1. NO EARLY ABORT: One bad row never stops the others
  2. ORDER: Results are in source order; Row is the 1-based data row
     counted in the source file, blank rows included
  3. UNIQUE FILENAMES: <sanitized payee>_row<k>.txt, unique by row
  4. INDEPENDENT PERSISTENCE: With a Ledger set, every rendered row is
     inserted on its own; a failed insert is recorded on that row only

CONCURRENCY:
  Rows run on an errgroup limited to Workers goroutines. Each goroutine
  writes only its own slot of the result slice.

SEE ALSO:
  - columns.go: Mapping detection and override
  - receipt.go: The per-row calculation
  - document/export.go: WriteArchive
*/
package batch

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds row concurrency when Generator.Workers is unset.
const DefaultWorkers = 4

// =============================================================================
// RESULTS
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusValid    Status = "valid"
	StatusRendered Status = "rendered"
	StatusInvalid  Status = "invalid"
)

// Result is the outcome of one input row.
type Result struct {
	Row      int
	Status   Status
	Payee    string
	Work     string
	Amount   decimal.Decimal
	Filename string
	Document *document.Document
	Record   *generic.CalculationRecord

	// Reason explains an Invalid row; Err is the underlying error.
	Reason string
	Err    error

	// PersistErr is set when a rendered row could not be stored.
	PersistErr error
}

type Batch struct {
	ID      string
	Mapping Mapping
	Results []Result
}

// Rendered counts rows that produced a document.
func (b *Batch) Rendered() int { return b.count(StatusRendered) }

// Invalid counts rejected rows.
func (b *Batch) Invalid() int { return b.count(StatusInvalid) }

func (b *Batch) count(s Status) int {
	n := 0
	for _, r := range b.Results {
		if r.Status == s {
			n++
		}
	}
	return n
}

// Failures returns the invalid rows, in source order.
func (b *Batch) Failures() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Status == StatusInvalid {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// GENERATOR
// =============================================================================

type Generator struct {
	Builder  *document.Builder
	Renderer *document.Renderer

	// Ledger, when set, receives one hand_receipts row per rendered row.
	Ledger *generic.Ledger

	Workers    int
	NewBatchID func() string
	Logger     *slog.Logger

	// Date is printed on every receipt when set.
	Date generic.Date
}

func NewGenerator(builder *document.Builder, ledger *generic.Ledger, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		Builder:    builder,
		Renderer:   document.NewRenderer(),
		Ledger:     ledger,
		Workers:    DefaultWorkers,
		NewBatchID: uuid.NewString,
		Logger:     logger.With("component", "batch"),
	}
}

// Generate processes rows with mapping m, numbering them 1..len(rows).
// Only an unusable mapping or a cancelled context returns an error; row
// problems are reported per row.
func (g *Generator) Generate(ctx context.Context, rows []RawRow, m Mapping) (*Batch, error) {
	return g.generate(ctx, rows, func(i int) int { return i + 1 }, m)
}

// GenerateTable is Generate over a parsed file. Rows keep their source
// data-row numbers, so a cited row k is the k-th row under the header even
// when blank rows were skipped above it.
func (g *Generator) GenerateTable(ctx context.Context, t *Table, m Mapping) (*Batch, error) {
	return g.generate(ctx, t.Rows, t.Line, m)
}

func (g *Generator) generate(ctx context.Context, rows []RawRow, line func(int) int, m Mapping) (*Batch, error) {
	if err := m.Validate(nil); err != nil {
		return nil, err
	}
	newID := g.NewBatchID
	if newID == nil {
		newID = uuid.NewString
	}
	id := newID()
	b := &Batch{ID: id, Mapping: m, Results: make([]Result, len(rows))}

	workers := g.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range rows {
		index := line(i)
		b.Results[i] = Result{Row: index, Status: StatusPending}
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			b.Results[i] = g.row(ectx, id, index, rows[i], m)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	g.logger().Info("batch generated",
		"batch_id", id, "rows", len(rows), "rendered", b.Rendered(), "invalid", b.Invalid())
	return b, nil
}

func (g *Generator) row(ctx context.Context, batchID string, index int, raw RawRow, m Mapping) Result {
	res := Result{
		Row:    index,
		Status: StatusPending,
		Payee:  strings.TrimSpace(raw[m.Payee]),
		Work:   strings.TrimSpace(raw[m.Work]),
	}
	invalid := func(err error) Result {
		res.Status = StatusInvalid
		res.Err = err
		res.Reason = "row " + strconv.Itoa(index) + ": " + err.Error()
		return res
	}

	if res.Payee == "" {
		return invalid(&generic.ValidationError{Field: "payee", Message: "is required"})
	}
	if res.Work == "" {
		return invalid(&generic.ValidationError{Field: "work", Message: "is required"})
	}
	amount, err := generic.ParseAmount("amount", raw[m.Amount])
	if err != nil {
		return invalid(err)
	}
	if !amount.IsPositive() {
		return invalid(&generic.ValidationError{
			Field:   "amount",
			Message: "must be greater than zero, got " + strconv.Quote(raw[m.Amount]),
		})
	}
	res.Amount = amount
	res.Status = StatusValid
	res.Filename = Filename(res.Payee, index)

	receipt := &HandReceipt{
		BatchID:  batchID,
		Row:      index,
		Filename: res.Filename,
		Payee:    res.Payee,
		Work:     res.Work,
		Amount:   amount,
		Date:     g.Date,
	}
	rec, err := g.builder().Build(receipt)
	if err != nil {
		return invalid(err)
	}
	doc, err := g.renderer().Render(rec, document.KindHandReceipt)
	if err != nil {
		return invalid(err)
	}
	res.Record = &rec
	res.Document = &doc
	res.Status = StatusRendered

	if g.Ledger != nil {
		if _, err := g.Ledger.RecordCalculation(ctx, receipt, rec); err != nil {
			res.PersistErr = err
			g.logger().Warn("receipt not persisted", "batch_id", batchID, "row", index, "error", err)
		}
	}
	return res
}

func (g *Generator) builder() *document.Builder {
	if g.Builder == nil {
		return document.NewBuilder(generic.WordsNumericFallback)
	}
	return g.Builder
}

func (g *Generator) renderer() *document.Renderer {
	if g.Renderer == nil {
		return document.NewRenderer()
	}
	return g.Renderer
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// =============================================================================
// FILENAMES & ARCHIVE
// =============================================================================

// Filename is the receipt file name for payee at the 1-based row.
func Filename(payee string, row int) string {
	return sanitize(payee) + "_row" + strconv.Itoa(row) + ".txt"
}

// sanitize keeps letters and digits, folding every other run to one underscore.
func sanitize(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "receipt"
	}
	return b.String()
}

// SummaryCSV writes one line per row: row, status, payee, amount, filename, reason.
func (b *Batch) SummaryCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"row", "status", "payee", "amount", "filename", "reason"}); err != nil {
		return err
	}
	for _, r := range b.Results {
		amount := ""
		if r.Status == StatusRendered {
			amount = generic.AmountText(r.Amount)
		}
		if err := cw.Write([]string{strconv.Itoa(r.Row), string(r.Status), r.Payee, amount, r.Filename, r.Reason}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Archive zips every rendered receipt under its filename plus summary.csv.
func (b *Batch) Archive(w io.Writer) error {
	entries := make([]document.ArchiveEntry, 0, b.Rendered()+1)
	for _, r := range b.Results {
		if r.Status != StatusRendered || r.Document == nil {
			continue
		}
		entries = append(entries, document.ArchiveEntry{Name: r.Filename, Body: []byte(r.Document.Text)})
	}
	var summary bytes.Buffer
	if err := b.SummaryCSV(&summary); err != nil {
		return err
	}
	entries = append(entries, document.ArchiveEntry{Name: "summary.csv", Body: summary.Bytes()})
	if err := document.WriteArchive(w, entries); err != nil {
		return fmt.Errorf("write batch archive: %w", err)
	}
	return nil
}
