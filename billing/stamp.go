package billing

import (
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

var (
	// DefaultStampDutyRate is the duty percentage on the consideration.
	DefaultStampDutyRate = decimal.RequireFromString("0.5")
	maxStampDutyRate     = decimal.NewFromInt(10)

	// DefaultDeviationRate is the permitted bill deviation percentage.
	DefaultDeviationRate = decimal.NewFromInt(5)
)

// =============================================================================
// STAMP DUTY
// =============================================================================

type StampDutyInput struct {
	Payee         string
	Work          string
	DocumentTitle string
	Amount        decimal.Decimal
	Rate          *decimal.Decimal // nil means DefaultStampDutyRate
}

type StampDuty struct {
	In     StampDutyInput
	Rate   decimal.Decimal
	Result generic.DeductionResult
}

// CalculateStampDuty computes amount x rate/100. The duty is the net.
func CalculateStampDuty(in StampDutyInput) (*StampDuty, error) {
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	rate := DefaultStampDutyRate
	if in.Rate != nil {
		rate = *in.Rate
	}
	result, err := generic.ComputeDeductions(in.Amount, []generic.RateSpec{
		generic.PercentAddition("stamp_duty", "Stamp Duty", rate, generic.BaseOriginal).WithMax(maxStampDutyRate),
	})
	if err != nil {
		return nil, err
	}
	return &StampDuty{In: in, Rate: rate, Result: result}, nil
}

// Duty is the stamp duty payable.
func (s *StampDuty) Duty() decimal.Decimal { return s.Result.Amount("stamp_duty") }

func (s *StampDuty) Kind() document.Kind { return document.KindStampDuty }

func (s *StampDuty) Inputs() generic.Fields {
	f := generic.Fields{
		"amount": generic.Money(s.In.Amount),
		"rate":   generic.Percent(s.Rate),
	}
	optionalText(f, "payee", s.In.Payee)
	optionalText(f, "work", s.In.Work)
	optionalText(f, "document_title", s.In.DocumentTitle)
	return f
}

func (s *StampDuty) Breakdown() []generic.Line {
	return append(append([]generic.Line(nil), s.Result.Breakdown...),
		info("total", "Consideration plus Duty", s.Result.GrossWithAdditions))
}

func (s *StampDuty) Net() decimal.Decimal { return s.Duty() }

func (s *StampDuty) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	return generic.TableStampDuties, map[string]any{
		"payee":          s.In.Payee,
		"work":           s.In.Work,
		"document_title": s.In.DocumentTitle,
		"amount":         generic.AmountText(s.In.Amount),
		"rate":           rateText(s.Rate),
		"stamp_duty":     generic.AmountText(s.Duty()),
	}
}

// =============================================================================
// BILL DEVIATION
// =============================================================================

type BillDeviationInput struct {
	Payee  string
	Work   string
	Amount decimal.Decimal
	Rate   *decimal.Decimal // nil means DefaultDeviationRate
}

type BillDeviation struct {
	In     BillDeviationInput
	Rate   decimal.Decimal
	Result generic.DeductionResult
}

// CalculateBillDeviation computes revised = amount x (1 + rate/100).
func CalculateBillDeviation(in BillDeviationInput) (*BillDeviation, error) {
	if err := requirePositive("amount", in.Amount); err != nil {
		return nil, err
	}
	rate := DefaultDeviationRate
	if in.Rate != nil {
		rate = *in.Rate
	}
	result, err := generic.ComputeDeductions(in.Amount, []generic.RateSpec{
		generic.PercentAddition("deviation", "Deviation", rate, generic.BaseOriginal),
	})
	if err != nil {
		return nil, err
	}
	return &BillDeviation{In: in, Rate: rate, Result: result}, nil
}

func (b *BillDeviation) Kind() document.Kind { return document.KindBillDeviation }

func (b *BillDeviation) Inputs() generic.Fields {
	f := generic.Fields{
		"amount":         generic.Money(b.In.Amount),
		"deviation_rate": generic.Percent(b.Rate),
	}
	optionalText(f, "payee", b.In.Payee)
	optionalText(f, "work", b.In.Work)
	return f
}

func (b *BillDeviation) Breakdown() []generic.Line { return b.Result.Breakdown }

func (b *BillDeviation) Net() decimal.Decimal { return b.Result.NetAmount }

func (b *BillDeviation) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	return generic.TableBillDeviations, map[string]any{
		"payee":            b.In.Payee,
		"work":             b.In.Work,
		"amount":           generic.AmountText(b.In.Amount),
		"deviation_rate":   rateText(b.Rate),
		"deviation_amount": generic.AmountText(b.Result.Amount("deviation")),
		"revised_amount":   generic.AmountText(b.Result.NetAmount),
	}
}
