package billing

import (
	"encoding/json"

	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// DEDUCTIONS TABLE
// =============================================================================

type DeductionsInput struct {
	Contractor string
	Work       string
	BaseAmount decimal.Decimal

	// Rates overrides any rate of the deductions table by name: the
	// percentages (tds, gst, labour_cess, performance_guarantee, retention)
	// and the fixed recoveries (security_deposit, mobilization_advance,
	// material_advance, penalty, other).
	Rates Rates
}

// DeductionGroup is a subtotal of related deductions.
type DeductionGroup struct {
	Name  string
	Label string
	Rates []string
	Total decimal.Decimal
}

var deductionGroups = []DeductionGroup{
	{Name: "statutory", Label: "Statutory Deductions", Rates: []string{"tds", "gst", "labour_cess"}},
	{Name: "security", Label: "Security & Guarantees", Rates: []string{"performance_guarantee", "retention", "security_deposit"}},
	{Name: "advances", Label: "Advance Recoveries", Rates: []string{"mobilization_advance", "material_advance"}},
	{Name: "penalties", Label: "Penalties & Others", Rates: []string{"penalty", "other"}},
}

type DeductionStatement struct {
	In       DeductionsInput
	Schedule []generic.RateSpec
	Result   generic.DeductionResult
	Groups   []DeductionGroup
}

// CalculateDeductions runs the deductions table on the bill amount.
func CalculateDeductions(in DeductionsInput) (*DeductionStatement, error) {
	if err := requirePositive("base_amount", in.BaseAmount); err != nil {
		return nil, err
	}
	schedule, err := applyOverrides(DeductionsTableSchedule(), in.Rates)
	if err != nil {
		return nil, err
	}
	result, err := schedule.Apply(in.BaseAmount)
	if err != nil {
		return nil, err
	}

	groups := make([]DeductionGroup, len(deductionGroups))
	for i, g := range deductionGroups {
		g.Total = result.SumOf(g.Rates...)
		groups[i] = g
	}
	return &DeductionStatement{In: in, Schedule: schedule.Rates, Result: result, Groups: groups}, nil
}

func (s *DeductionStatement) Kind() document.Kind { return document.KindDeductionStatement }

func (s *DeductionStatement) Inputs() generic.Fields {
	f := generic.Fields{
		"base_amount":       generic.Money(s.In.BaseAmount),
		"deduction_percent": generic.Percent(generic.Round2(s.Result.DeductionPercent())),
	}
	optionalText(f, "contractor", s.In.Contractor)
	optionalText(f, "work", s.In.Work)
	return f
}

// Breakdown lists every deduction, the group subtotals, then the total.
func (s *DeductionStatement) Breakdown() []generic.Line {
	lines := append([]generic.Line(nil), s.Result.Breakdown...)
	for _, g := range s.Groups {
		lines = append(lines, info("subtotal_"+g.Name, "Subtotal: "+g.Label, g.Total))
	}
	return append(lines, info("total_deductions", "Total Deductions", s.Result.TotalDeductions))
}

func (s *DeductionStatement) Net() decimal.Decimal { return s.Result.NetAmount }

type breakdownJSON struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

func (s *DeductionStatement) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	items := make([]breakdownJSON, len(s.Result.Breakdown))
	for i, l := range s.Result.Breakdown {
		items[i] = breakdownJSON{Name: l.Name, Label: l.Label, Amount: generic.AmountText(l.Amount)}
	}
	// Marshalling a slice of plain string structs cannot fail.
	raw, _ := json.Marshal(items)

	return generic.TableDeductionStatements, map[string]any{
		"contractor":        s.In.Contractor,
		"work":              s.In.Work,
		"base_amount":       generic.AmountText(s.In.BaseAmount),
		"total_deductions":  generic.AmountText(s.Result.TotalDeductions),
		"net_amount":        generic.AmountText(s.Result.NetAmount),
		"deduction_percent": generic.AmountText(s.Result.DeductionPercent()),
		"breakdown_json":    string(raw),
	}
}
