package billing

import (
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// BILL NOTE
// =============================================================================

type BillNoteInput struct {
	Payee    string
	Work     string
	Amount   decimal.Decimal
	BillDate generic.Date
	Remarks  string
}

// BillNote is the simple payable note: net equals the amount.
type BillNote struct {
	In BillNoteInput
}

func CalculateBillNote(in BillNoteInput) (*BillNote, error) {
	if err := requireTexts("payee", in.Payee, "work", in.Work); err != nil {
		return nil, err
	}
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	return &BillNote{In: in}, nil
}

func (n *BillNote) Kind() document.Kind { return document.KindBillNote }

func (n *BillNote) Inputs() generic.Fields {
	f := generic.Fields{
		"payee":  generic.Text(n.In.Payee),
		"work":   generic.Text(n.In.Work),
		"amount": generic.Money(n.In.Amount),
	}
	optionalDate(f, "bill_date", n.In.BillDate)
	optionalText(f, "remarks", n.In.Remarks)
	return f
}

func (n *BillNote) Breakdown() []generic.Line {
	return []generic.Line{info("payable", "Amount Payable", n.In.Amount)}
}

func (n *BillNote) Net() decimal.Decimal { return n.In.Amount }

func (n *BillNote) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	return generic.TableBillNotes, map[string]any{
		"payee":  n.In.Payee,
		"work":   n.In.Work,
		"amount": generic.AmountText(n.In.Amount),
	}
}
