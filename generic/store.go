/*
store.go - Persistence interface for calculation audit rows

PURPOSE:
  Defines the interface between the calculators and the database. Every
  completed calculation is written as exactly one row in the table owned
  by its record kind. Different implementations can use SQLite or
  in-memory storage.

KEY INTERFACE:
  RecordStore: Insert (one row, returns the auto id), Count, Sum

APPEND-ONLY CONTRACT:
  - Insert(): Single row write
  - NO Update() or Delete() methods exist
  A wrong refund order is corrected by issuing a new one, never by editing
  the stored row.

SCHEMAS:
  Tables below declares every table and its columns. Stores reject a
  table that is not declared (ErrUnknownTable) and a column the table
  does not declare (ErrUnknownColumn) before touching storage, so a
  caller can never reach the database with an arbitrary identifier.

AMOUNTS:
  Amount columns hold decimal strings. Sum adds them with decimal
  arithmetic so dashboard totals are exact; the sum of an empty table
  is zero.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite with embedded migrations
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level audit recorder using RecordStore
*/
package generic

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TABLES
// =============================================================================

type TableName string

const (
	TableBillNotes           TableName = "bill_notes"
	TableEMDRefunds          TableName = "emd_refunds"
	TableProjectDelays       TableName = "project_delays"
	TableProfessionalBills   TableName = "professional_bills"
	TableDeductionStatements TableName = "deduction_statements"
	TableSecurityRefunds     TableName = "security_refunds"
	TableStampDuties         TableName = "stamp_duties"
	TableBillDeviations      TableName = "bill_deviations"
	TableHandReceipts        TableName = "hand_receipts"
	TableFinancialProgress   TableName = "financial_progress"
)

type ColumnKind string

const (
	ColText    ColumnKind = "text"
	ColAmount  ColumnKind = "amount"
	ColInteger ColumnKind = "integer"
)

type Column struct {
	Name string
	Kind ColumnKind
}

// TableSchema declares one audit table. Total names the amount column
// the dashboard sums for the table.
type TableSchema struct {
	Name    TableName
	Total   string
	Columns []Column
}

// Column returns the named column.
func (s TableSchema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// CheckRow verifies every key of fields is a declared column.
func (s TableSchema) CheckRow(fields map[string]any) error {
	for k := range fields {
		if _, ok := s.Column(k); !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, s.Name, k)
		}
	}
	return nil
}

// CheckSum verifies column exists and holds amounts.
func (s TableSchema) CheckSum(column string) error {
	c, ok := s.Column(column)
	if !ok || c.Kind != ColAmount {
		return fmt.Errorf("%w: %s.%s is not an amount column", ErrUnknownColumn, s.Name, column)
	}
	return nil
}

func text(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Kind: ColText}
	}
	return cols
}

func amounts(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Kind: ColAmount}
	}
	return cols
}

func integers(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Kind: ColInteger}
	}
	return cols
}

func columns(groups ...[]Column) []Column {
	var out []Column
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Tables declares every audit table, in dashboard order.
var Tables = []TableSchema{
	{
		Name:  TableBillNotes,
		Total: "amount",
		Columns: columns(
			text("reference", "payee", "work", "amount_in_words", "created_at"),
			amounts("amount"),
		),
	},
	{
		Name:  TableEMDRefunds,
		Total: "amount",
		Columns: columns(
			text("reference", "payee", "work", "tender_no", "submission_date", "refund_date",
				"pan", "bank_details", "address", "office", "file_no", "receipt_no",
				"project_code", "sanctioned_by", "remarks", "amount_in_words", "created_at"),
			amounts("amount"),
		),
	},
	{
		Name:  TableProjectDelays,
		Total: "penalty_amount",
		Columns: columns(
			text("reference", "project_name", "contractor", "planned_date", "actual_date",
				"delay_category", "delay_reason", "mitigation", "impact", "status", "created_at"),
			integers("delay_days"),
			amounts("project_value", "penalty_rate", "penalty_amount"),
		),
	},
	{
		Name:  TableProfessionalBills,
		Total: "net_amount",
		Columns: columns(
			text("reference", "bill_number", "contractor", "work", "amount_in_words", "created_at"),
			amounts("current_claim", "previous_payments", "gst_rate", "gst_amount", "tds_rate",
				"tds_amount", "retention_rate", "retention_amount", "labour_cess_rate",
				"labour_cess_amount", "other_deductions", "gross_amount", "total_deductions",
				"net_amount", "cumulative_payment"),
		),
	},
	{
		Name:  TableDeductionStatements,
		Total: "total_deductions",
		Columns: columns(
			text("reference", "contractor", "work", "breakdown_json", "amount_in_words", "created_at"),
			amounts("base_amount", "total_deductions", "net_amount", "deduction_percent"),
		),
	},
	{
		Name:  TableSecurityRefunds,
		Total: "final_refund",
		Columns: columns(
			text("reference", "contractor", "work", "agreement_number", "completion_date", "as_of_date",
				"performance_rating", "amount_in_words", "created_at"),
			integers("interest_days"),
			amounts("security_amount", "pending_claims", "damage_recovery", "interest_rate",
				"interest_amount", "refundable_amount", "final_refund"),
		),
	},
	{
		Name:  TableStampDuties,
		Total: "stamp_duty",
		Columns: columns(
			text("reference", "payee", "work", "document_title", "created_at"),
			amounts("amount", "rate", "stamp_duty"),
		),
	},
	{
		Name:  TableBillDeviations,
		Total: "revised_amount",
		Columns: columns(
			text("reference", "payee", "work", "created_at"),
			amounts("amount", "deviation_rate", "deviation_amount", "revised_amount"),
		),
	},
	{
		Name:  TableHandReceipts,
		Total: "amount",
		Columns: columns(
			text("reference", "batch_id", "payee", "work", "filename", "amount_in_words", "created_at"),
			integers("row_index"),
			amounts("amount"),
		),
	},
	{
		Name:  TableFinancialProgress,
		Total: "total_budget",
		Columns: columns(
			text("reference", "portfolio", "projects_json", "amount_in_words", "created_at"),
			integers("project_count"),
			amounts("total_budget", "total_spent", "total_remaining", "budget_utilization",
				"average_progress", "average_efficiency"),
		),
	},
}

// LookupTable returns the declared schema for name.
func LookupTable(name TableName) (TableSchema, error) {
	for _, t := range Tables {
		if t.Name == name {
			return t, nil
		}
	}
	return TableSchema{}, fmt.Errorf("%w: %s", ErrUnknownTable, name)
}

// =============================================================================
// RECORD STORE - Interface for audit persistence (append-only)
// =============================================================================

// RecordStore persists audit rows.
// IMPORTANT: RecordStore is APPEND-ONLY. No Update, No Delete.
type RecordStore interface {
	// Insert writes one row and returns its auto-assigned id.
	Insert(ctx context.Context, table TableName, fields map[string]any) (int64, error)

	// Count returns the number of rows in table.
	Count(ctx context.Context, table TableName) (int64, error)

	// Sum adds an amount column across table; zero when table is empty.
	Sum(ctx context.Context, table TableName, column string) (decimal.Decimal, error)
}
