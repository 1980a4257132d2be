/*
emd.go - Earnest money deposit refund order (RPWA 28)

PURPOSE:
  Refunds the EMD a bidder lodged with a tender. The refunded amount is
  the deposit itself; everything else on the order is reference data
  copied onto the printed form and the audit row.

VALIDATION:
  - payee, work and a positive amount are required
  - refund date must not precede the submission date
  - PAN, when given, must look like AAAAA9999A (upper-cased first)

SEE ALSO:
  - security.go: Security deposit refund with interest
  - document/kinds.go: Field schema of the printed order
*/
package refunds

import (
	"regexp"
	"strings"

	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

var panPattern = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)

// =============================================================================
// EMD REFUND
// =============================================================================

type EMDRefundInput struct {
	Payee          string
	Amount         decimal.Decimal
	Work           string
	TenderNo       string
	SubmissionDate generic.Date
	RefundDate     generic.Date
	PAN            string
	BankDetails    string
	Address        string
	Office         string
	FileNo         string
	ReceiptNo      string
	ProjectCode    string
	SanctionedBy   string
	Remarks        string
}

type EMDRefund struct {
	In EMDRefundInput
}

// CalculateEMDRefund validates the order. The refund equals the deposit.
func CalculateEMDRefund(in EMDRefundInput) (*EMDRefund, error) {
	if err := requireTexts("payee", in.Payee, "work", in.Work); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, &generic.ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	if !in.SubmissionDate.IsZero() && !in.RefundDate.IsZero() && in.RefundDate.Before(in.SubmissionDate) {
		return nil, &generic.ValidationError{Field: "refund_date", Message: "must not be before the submission date"}
	}
	in.PAN = strings.ToUpper(strings.TrimSpace(in.PAN))
	if in.PAN != "" && !panPattern.MatchString(in.PAN) {
		return nil, &generic.ValidationError{Field: "pan", Message: "must have the form AAAAA9999A"}
	}
	return &EMDRefund{In: in}, nil
}

func (r *EMDRefund) Kind() document.Kind { return document.KindEMDRefund }

func (r *EMDRefund) Inputs() generic.Fields {
	f := generic.Fields{
		"payee":  generic.Text(r.In.Payee),
		"amount": generic.Money(r.In.Amount),
		"work":   generic.Text(r.In.Work),
	}
	optionalText(f, "tender_no", r.In.TenderNo)
	optionalDate(f, "submission_date", r.In.SubmissionDate)
	optionalDate(f, "refund_date", r.In.RefundDate)
	optionalText(f, "pan", r.In.PAN)
	optionalText(f, "bank_details", r.In.BankDetails)
	optionalText(f, "address", r.In.Address)
	optionalText(f, "office", r.In.Office)
	optionalText(f, "file_no", r.In.FileNo)
	optionalText(f, "receipt_no", r.In.ReceiptNo)
	optionalText(f, "project_code", r.In.ProjectCode)
	optionalText(f, "sanctioned_by", r.In.SanctionedBy)
	optionalText(f, "remarks", r.In.Remarks)
	return f
}

func (r *EMDRefund) Breakdown() []generic.Line {
	return []generic.Line{{Name: "refund", Label: "EMD Refundable", Amount: r.In.Amount, Effect: generic.EffectInfo}}
}

func (r *EMDRefund) Net() decimal.Decimal { return r.In.Amount }

func (r *EMDRefund) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	return generic.TableEMDRefunds, map[string]any{
		"payee":           r.In.Payee,
		"work":            r.In.Work,
		"amount":          generic.AmountText(r.In.Amount),
		"tender_no":       r.In.TenderNo,
		"submission_date": dateText(r.In.SubmissionDate),
		"refund_date":     dateText(r.In.RefundDate),
		"pan":             r.In.PAN,
		"bank_details":    r.In.BankDetails,
		"address":         r.In.Address,
		"office":          r.In.Office,
		"file_no":         r.In.FileNo,
		"receipt_no":      r.In.ReceiptNo,
		"project_code":    r.In.ProjectCode,
		"sanctioned_by":   r.In.SanctionedBy,
		"remarks":         r.In.Remarks,
	}
}
