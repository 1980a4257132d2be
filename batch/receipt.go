package batch

import (
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

var (
	_ document.Calculation = (*HandReceipt)(nil)
	_ generic.Auditable    = (*HandReceipt)(nil)
)

// HandReceipt is the calculation behind one batch row. Net is the amount.
type HandReceipt struct {
	BatchID  string
	Row      int
	Filename string
	Payee    string
	Work     string
	Amount   decimal.Decimal
	Date     generic.Date
}

func (h *HandReceipt) Kind() document.Kind { return document.KindHandReceipt }

func (h *HandReceipt) Inputs() generic.Fields {
	f := generic.Fields{
		"payee":     generic.Text(h.Payee),
		"work":      generic.Text(h.Work),
		"amount":    generic.Money(h.Amount),
		"row_index": generic.Integer(int64(h.Row)),
	}
	if !h.Date.IsZero() {
		f["receipt_date"] = generic.DateValue(h.Date)
	}
	return f
}

func (h *HandReceipt) Breakdown() []generic.Line {
	return []generic.Line{{Name: "received", Label: "Amount Received", Amount: h.Amount, Effect: generic.EffectInfo}}
}

func (h *HandReceipt) Net() decimal.Decimal { return h.Amount }

func (h *HandReceipt) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	return generic.TableHandReceipts, map[string]any{
		"batch_id":  h.BatchID,
		"row_index": int64(h.Row),
		"payee":     h.Payee,
		"work":      h.Work,
		"filename":  h.Filename,
		"amount":    generic.AmountText(h.Amount),
	}
}
