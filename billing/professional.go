package billing

import (
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PROFESSIONAL BILL NOTE SHEET
// =============================================================================

type ProfessionalBillInput struct {
	BillNumber       string
	Contractor       string
	Work             string
	CurrentClaim     decimal.Decimal
	PreviousPayments decimal.Decimal
	OtherDeductions  decimal.Decimal

	// Rates overrides gst, tds, retention and labour_cess percentages.
	Rates Rates

	// TDSBase overrides where TDS applies; empty keeps the GST-inclusive gross.
	TDSBase generic.BaseSelector
}

type ProfessionalBill struct {
	In                ProfessionalBillInput
	Schedule          []generic.RateSpec
	Result            generic.DeductionResult
	CumulativePayment decimal.Decimal
}

// CalculateProfessionalBill runs the professional bill schedule on the claim.
func CalculateProfessionalBill(in ProfessionalBillInput) (*ProfessionalBill, error) {
	if err := requireTexts("bill_number", in.BillNumber, "contractor", in.Contractor, "work", in.Work); err != nil {
		return nil, err
	}
	if err := requirePositive("current_claim", in.CurrentClaim); err != nil {
		return nil, err
	}
	if err := requireNonNegative("previous_payments", in.PreviousPayments); err != nil {
		return nil, err
	}
	if err := requireNonNegative("other_deductions", in.OtherDeductions); err != nil {
		return nil, err
	}

	schedule, err := applyOverrides(ProfessionalBillSchedule(), in.Rates)
	if err != nil {
		return nil, err
	}
	if schedule, err = schedule.Override("other", in.OtherDeductions); err != nil {
		return nil, err
	}
	if in.TDSBase != "" {
		if schedule, err = schedule.WithBase("tds", in.TDSBase); err != nil {
			return nil, err
		}
	}

	result, err := schedule.Apply(in.CurrentClaim)
	if err != nil {
		return nil, err
	}
	return &ProfessionalBill{
		In:                in,
		Schedule:          schedule.Rates,
		Result:            result,
		CumulativePayment: in.PreviousPayments.Add(result.NetAmount),
	}, nil
}

func (b *ProfessionalBill) rate(name string) decimal.Decimal {
	for _, r := range b.Schedule {
		if r.Name == name {
			return r.Rate
		}
	}
	return decimal.Zero
}

func (b *ProfessionalBill) Kind() document.Kind { return document.KindProfessionalBill }

func (b *ProfessionalBill) Inputs() generic.Fields {
	return generic.Fields{
		"bill_number":       generic.Text(b.In.BillNumber),
		"contractor":        generic.Text(b.In.Contractor),
		"work":              generic.Text(b.In.Work),
		"current_claim":     generic.Money(b.In.CurrentClaim),
		"previous_payments": generic.Money(b.In.PreviousPayments),
		"gst_rate":          generic.Percent(b.rate("gst")),
		"tds_rate":          generic.Percent(b.rate("tds")),
		"retention_rate":    generic.Percent(b.rate("retention")),
		"labour_cess_rate":  generic.Percent(b.rate("labour_cess")),
		"other_deductions":  generic.Money(b.In.OtherDeductions),
	}
}

// Breakdown lists GST, the gross, each deduction, then the running totals.
func (b *ProfessionalBill) Breakdown() []generic.Line {
	lines := make([]generic.Line, 0, len(b.Result.Breakdown)+4)
	for _, l := range b.Result.Breakdown {
		lines = append(lines, l)
		if l.Name == "gst" {
			lines = append(lines, info("gross", "Gross Amount (incl. GST)", b.Result.GrossWithAdditions))
		}
	}
	return append(lines,
		info("total_deductions", "Total Deductions", b.Result.TotalDeductions),
		info("previous_payments", "Previous Payments", b.In.PreviousPayments),
		info("cumulative_payment", "Cumulative Payment", b.CumulativePayment),
	)
}

func (b *ProfessionalBill) Net() decimal.Decimal { return b.Result.NetAmount }

func (b *ProfessionalBill) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	r := b.Result
	return generic.TableProfessionalBills, map[string]any{
		"bill_number":        b.In.BillNumber,
		"contractor":         b.In.Contractor,
		"work":               b.In.Work,
		"current_claim":      generic.AmountText(b.In.CurrentClaim),
		"previous_payments":  generic.AmountText(b.In.PreviousPayments),
		"gst_rate":           rateText(b.rate("gst")),
		"gst_amount":         generic.AmountText(r.Amount("gst")),
		"tds_rate":           rateText(b.rate("tds")),
		"tds_amount":         generic.AmountText(r.Amount("tds")),
		"retention_rate":     rateText(b.rate("retention")),
		"retention_amount":   generic.AmountText(r.Amount("retention")),
		"labour_cess_rate":   rateText(b.rate("labour_cess")),
		"labour_cess_amount": generic.AmountText(r.Amount("labour_cess")),
		"other_deductions":   generic.AmountText(b.In.OtherDeductions),
		"gross_amount":       generic.AmountText(r.GrossWithAdditions),
		"total_deductions":   generic.AmountText(r.TotalDeductions),
		"net_amount":         generic.AmountText(r.NetAmount),
		"cumulative_payment": generic.AmountText(b.CumulativePayment),
	}
}
