/*
kinds.go - Template kinds and their declared field schemas

PURPOSE:
  Every document the engine produces belongs to a template kind. A kind
  declares the title, the audit table its records land in, and an
  ordered, typed list of input fields. Records are checked against this
  schema when they are built and again when they are rendered, so a
  document can never silently drop or invent a field.

HOW IT WORKS:
  1. The built-in kinds are registered on init()
  2. Calculators name their kind; NewRecord looks the schema up
  3. The renderer walks Fields in declared order

ADDING A KIND:
  document.Register(document.Template{
      Kind:  "work_order",
      Title: "Work Order",
      Table: generic.TableBillNotes,
      Fields: []document.FieldSpec{
          {Key: "payee", Label: "Payee", Type: generic.FieldText, Required: true},
      },
  })

SEE ALSO:
  - record.go: Builds CalculationRecords against these schemas
  - render.go: Lays out records of a kind
*/
package document

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pwdtools/calc-engine/generic"
)

// =============================================================================
// KINDS
// =============================================================================

type Kind string

const (
	KindHandReceipt        Kind = "hand_receipt"
	KindBillNote           Kind = "bill_note"
	KindEMDRefund          Kind = "emd_refund"
	KindProfessionalBill   Kind = "professional_bill"
	KindDeductionStatement Kind = "deduction_statement"
	KindDelayReport        Kind = "delay_report"
	KindSecurityRefund     Kind = "security_refund"
	KindStampDuty          Kind = "stamp_duty"
	KindBillDeviation      Kind = "bill_deviation"
	KindFinancialProgress  Kind = "financial_progress"
)

// FieldSpec is one declared input field of a template.
type FieldSpec struct {
	Key      string
	Label    string
	Type     generic.FieldType
	Required bool
}

type Template struct {
	Kind   Kind
	Title  string
	Table  generic.TableName
	Fields []FieldSpec
}

// Field returns the declared spec for key.
func (t Template) Field(key string) (FieldSpec, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// =============================================================================
// REGISTRY
// =============================================================================

var (
	templates  = make(map[Kind]Template)
	templateMu sync.RWMutex
)

// Register adds or replaces a template.
func Register(t Template) {
	templateMu.Lock()
	defer templateMu.Unlock()
	templates[t.Kind] = t
}

// Lookup finds the template for kind.
func Lookup(kind Kind) (Template, error) {
	templateMu.RLock()
	defer templateMu.RUnlock()
	t, ok := templates[kind]
	if !ok {
		return Template{}, &generic.ValidationError{Field: "kind", Message: fmt.Sprintf("has unknown value %q", kind)}
	}
	return t, nil
}

// Kinds lists registered kinds, sorted.
func Kinds() []Kind {
	templateMu.RLock()
	defer templateMu.RUnlock()
	out := make([]Kind, 0, len(templates))
	for k := range templates {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// =============================================================================
// BUILT-IN TEMPLATES
// =============================================================================

func text(key, label string, required bool) FieldSpec {
	return FieldSpec{Key: key, Label: label, Type: generic.FieldText, Required: required}
}

func money(key, label string, required bool) FieldSpec {
	return FieldSpec{Key: key, Label: label, Type: generic.FieldMoney, Required: required}
}

func percent(key, label string, required bool) FieldSpec {
	return FieldSpec{Key: key, Label: label, Type: generic.FieldPercent, Required: required}
}

func date(key, label string, required bool) FieldSpec {
	return FieldSpec{Key: key, Label: label, Type: generic.FieldDate, Required: required}
}

func integer(key, label string, required bool) FieldSpec {
	return FieldSpec{Key: key, Label: label, Type: generic.FieldInteger, Required: required}
}

func init() {
	Register(Template{
		Kind:  KindHandReceipt,
		Title: "Hand Receipt",
		Table: generic.TableHandReceipts,
		Fields: []FieldSpec{
			text("payee", "Payee Name", true),
			text("work", "Name of Work", true),
			money("amount", "Amount", true),
			date("receipt_date", "Receipt Date", false),
			integer("row_index", "Source Row", false),
		},
	})
	Register(Template{
		Kind:  KindBillNote,
		Title: "Bill Note",
		Table: generic.TableBillNotes,
		Fields: []FieldSpec{
			text("payee", "Payee Name", true),
			text("work", "Name of Work", true),
			money("amount", "Amount", true),
			date("bill_date", "Bill Date", false),
			text("remarks", "Remarks", false),
		},
	})
	Register(Template{
		Kind:  KindEMDRefund,
		Title: "EMD Refund (RPWA 28)",
		Table: generic.TableEMDRefunds,
		Fields: []FieldSpec{
			text("payee", "Payee Name", true),
			money("amount", "EMD Amount", true),
			text("work", "Name of Work", true),
			text("tender_no", "Tender No.", false),
			date("submission_date", "EMD Submission Date", false),
			date("refund_date", "Refund Date", false),
			text("pan", "PAN", false),
			text("bank_details", "Bank Details", false),
			text("address", "Address", false),
			text("office", "Office", false),
			text("file_no", "File No.", false),
			text("receipt_no", "Receipt No.", false),
			text("project_code", "Project Code", false),
			text("sanctioned_by", "Sanctioned By", false),
			text("remarks", "Remarks", false),
		},
	})
	Register(Template{
		Kind:  KindProfessionalBill,
		Title: "Bill Note Sheet",
		Table: generic.TableProfessionalBills,
		Fields: []FieldSpec{
			text("bill_number", "Bill No.", true),
			text("contractor", "Contractor", true),
			text("work", "Name of Work", true),
			money("current_claim", "Current Claim", true),
			money("previous_payments", "Previous Payments", false),
			percent("gst_rate", "GST Rate", true),
			percent("tds_rate", "TDS Rate", true),
			percent("retention_rate", "Retention Rate", true),
			percent("labour_cess_rate", "Labour Cess Rate", true),
			money("other_deductions", "Other Deductions", false),
		},
	})
	Register(Template{
		Kind:  KindDeductionStatement,
		Title: "Statement of Deductions",
		Table: generic.TableDeductionStatements,
		Fields: []FieldSpec{
			text("contractor", "Contractor", false),
			text("work", "Name of Work", false),
			money("base_amount", "Bill Amount", true),
			percent("deduction_percent", "Deduction Percentage", false),
		},
	})
	Register(Template{
		Kind:  KindDelayReport,
		Title: "Project Delay Analysis",
		Table: generic.TableProjectDelays,
		Fields: []FieldSpec{
			text("project_name", "Project", true),
			text("contractor", "Contractor", false),
			date("planned_date", "Planned Completion", true),
			date("actual_date", "Actual Completion", true),
			integer("delay_days", "Delay (days)", true),
			text("status", "Status", true),
			text("delay_category", "Delay Category", true),
			text("delay_reason", "Reason", false),
			text("mitigation", "Mitigation Measures", false),
			money("project_value", "Project Value", true),
			percent("penalty_rate", "Penalty Rate per Day", true),
			percent("delay_percent_of_year", "Delay as % of Year", false),
			text("impact", "Impact Level", true),
			text("recommendations", "Recommendations", false),
		},
	})
	Register(Template{
		Kind:  KindSecurityRefund,
		Title: "Security Deposit Refund",
		Table: generic.TableSecurityRefunds,
		Fields: []FieldSpec{
			text("contractor", "Contractor", true),
			text("work", "Name of Work", true),
			text("agreement_number", "Agreement No.", false),
			money("security_amount", "Security Deposit", true),
			money("pending_claims", "Pending Claims", false),
			money("damage_recovery", "Damage Recovery", false),
			date("completion_date", "Completion Date", false),
			date("as_of_date", "Refund Date", false),
			percent("interest_rate", "Interest Rate p.a.", false),
			integer("interest_days", "Interest Days", false),
			text("performance_rating", "Performance", false),
		},
	})
	Register(Template{
		Kind:  KindStampDuty,
		Title: "Stamp Duty",
		Table: generic.TableStampDuties,
		Fields: []FieldSpec{
			text("payee", "Payee Name", false),
			text("work", "Name of Work", false),
			text("document_title", "Instrument", false),
			money("amount", "Consideration", true),
			percent("rate", "Duty Rate", true),
		},
	})
	Register(Template{
		Kind:  KindBillDeviation,
		Title: "Bill Deviation",
		Table: generic.TableBillDeviations,
		Fields: []FieldSpec{
			text("payee", "Payee Name", false),
			text("work", "Name of Work", false),
			money("amount", "Original Amount", true),
			percent("deviation_rate", "Deviation", true),
		},
	})
	Register(Template{
		Kind:  KindFinancialProgress,
		Title: "Financial Progress Report",
		Table: generic.TableFinancialProgress,
		Fields: []FieldSpec{
			text("portfolio", "Portfolio", false),
			integer("project_count", "Projects", true),
			money("total_budget", "Total Budget", true),
			money("total_spent", "Total Spent", true),
			percent("budget_utilization", "Budget Utilization", true),
			percent("average_progress", "Average Progress", true),
			text("average_efficiency", "Average Efficiency", true),
		},
	})
}
