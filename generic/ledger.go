/*
ledger.go - Append-only audit log of completed calculations

PURPOSE:
  The Ledger is the one place calculators go to persist a result. Each
  calculation that passed validation becomes exactly one row in the
  table of its kind; results that failed validation never reach it.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete.
  2. ONE ROW PER CALCULATION: Record is called at most once per result
  3. CHECKED COLUMNS: Rows are checked against the declared TableSchema
     before the store is called
  4. TYPED FAILURE: Every store error comes back as *PersistenceError

STAMPING:
  Record fills created_at when the caller did not, using Ledger.Now so
  tests can pin the clock.

SUMMARY:
  Summary reads count and total for every declared table. It backs the
  dashboard; a failing table aborts the summary with a PersistenceError.

SEE ALSO:
  - store.go: Low-level persistence interface and table schemas
  - store/sqlite/sqlite.go: Production store
*/
package generic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	Store RecordStore
	Now   func() time.Time
}

func NewLedger(store RecordStore) *Ledger {
	return &Ledger{Store: store, Now: time.Now}
}

// Record persists one audit row for table and returns its id.
func (l *Ledger) Record(ctx context.Context, table TableName, fields map[string]any) (int64, error) {
	schema, err := LookupTable(table)
	if err != nil {
		return 0, &PersistenceError{Table: table, Err: err}
	}

	row := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		row[k] = v
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = l.now().UTC().Format(time.RFC3339)
	}
	if err := schema.CheckRow(row); err != nil {
		return 0, &PersistenceError{Table: table, Err: err}
	}

	id, err := l.Store.Insert(ctx, table, row)
	if err != nil {
		return 0, &PersistenceError{Table: table, Err: err}
	}
	return id, nil
}

// Auditable is implemented by calculation results that own an audit table.
type Auditable interface {
	AuditRow(rec CalculationRecord) (TableName, map[string]any)
}

// RecordCalculation persists the audit row of a built record. The
// record's reference, words form and timestamp are added to the row.
func (l *Ledger) RecordCalculation(ctx context.Context, a Auditable, rec CalculationRecord) (int64, error) {
	table, row := a.AuditRow(rec)
	if row == nil {
		row = make(map[string]any)
	}
	if _, ok := row["reference"]; !ok && rec.Reference != "" {
		row["reference"] = rec.Reference
	}
	if !rec.CreatedAt.IsZero() {
		row["created_at"] = rec.CreatedAt.UTC().Format(time.RFC3339)
	}
	if schema, err := LookupTable(table); err == nil {
		if _, ok := schema.Column("amount_in_words"); ok {
			row["amount_in_words"] = rec.NetInWords
		}
	}
	return l.Record(ctx, table, row)
}

func (l *Ledger) now() time.Time {
	if l.Now == nil {
		return time.Now()
	}
	return l.Now()
}

// =============================================================================
// SUMMARY
// =============================================================================

// TableSummary is the dashboard line for one table.
type TableSummary struct {
	Table TableName
	Count int64
	Total decimal.Decimal
}

// Summary returns count and total per declared table, in Tables order.
func (l *Ledger) Summary(ctx context.Context) ([]TableSummary, error) {
	out := make([]TableSummary, 0, len(Tables))
	for _, t := range Tables {
		n, err := l.Store.Count(ctx, t.Name)
		if err != nil {
			return nil, &PersistenceError{Table: t.Name, Err: err}
		}
		total, err := l.Store.Sum(ctx, t.Name, t.Total)
		if err != nil {
			return nil, &PersistenceError{Table: t.Name, Err: err}
		}
		out = append(out, TableSummary{Table: t.Name, Count: n, Total: total})
	}
	return out, nil
}
