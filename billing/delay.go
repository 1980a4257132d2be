package billing

import (
	"fmt"
	"strings"

	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PROJECT DELAY
// =============================================================================

type ProjectDelayInput struct {
	ProjectName  string
	Contractor   string
	Planned      generic.Date
	Actual       generic.Date
	ProjectValue decimal.Decimal
	PenaltyRate  decimal.Decimal // percent of project value per day
	Category     string
	Reason       string
	Mitigation   string
}

type ProjectDelay struct {
	In       ProjectDelayInput
	Analysis generic.DelayAnalysis
}

// AnalyzeProjectDelay validates the project details and runs the delay analyzer.
func AnalyzeProjectDelay(in ProjectDelayInput) (*ProjectDelay, error) {
	if err := requireText("project_name", in.ProjectName); err != nil {
		return nil, err
	}
	category, err := generic.ParseDelayCategory(in.Category)
	if err != nil {
		return nil, err
	}
	analysis, err := generic.AnalyzeDelay(generic.DelayInput{
		Planned:          in.Planned,
		Actual:           in.Actual,
		ProjectValue:     in.ProjectValue,
		DailyPenaltyRate: in.PenaltyRate,
		Category:         category,
	})
	if err != nil {
		return nil, err
	}
	return &ProjectDelay{In: in, Analysis: analysis}, nil
}

func (p *ProjectDelay) Kind() document.Kind { return document.KindDelayReport }

func (p *ProjectDelay) Inputs() generic.Fields {
	a := p.Analysis
	f := generic.Fields{
		"project_name":          generic.Text(p.In.ProjectName),
		"planned_date":          generic.DateValue(p.In.Planned),
		"actual_date":           generic.DateValue(p.In.Actual),
		"delay_days":            generic.Integer(int64(a.DelayDays)),
		"status":                generic.Text(a.Message()),
		"delay_category":        generic.Text(string(a.Category)),
		"project_value":         generic.Money(p.In.ProjectValue),
		"penalty_rate":          generic.Percent(p.In.PenaltyRate),
		"delay_percent_of_year": generic.Percent(generic.Round2(a.DelayPercentOfYear)),
		"impact":                generic.Text(string(a.Impact)),
		"recommendations":       generic.Text(strings.Join(a.Recommendations(), "; ")),
	}
	optionalText(f, "contractor", p.In.Contractor)
	optionalText(f, "delay_reason", p.In.Reason)
	optionalText(f, "mitigation", p.In.Mitigation)
	return f
}

func (p *ProjectDelay) Breakdown() []generic.Line {
	days := p.Analysis.DelayDays
	if days < 0 {
		days = 0
	}
	return []generic.Line{{
		Name:   "penalty",
		Label:  fmt.Sprintf("Penalty @ %s%% per day x %d days", p.In.PenaltyRate.String(), days),
		Amount: p.Analysis.PenaltyAmount,
		Effect: generic.EffectDeduction,
	}}
}

func (p *ProjectDelay) Net() decimal.Decimal { return p.Analysis.PenaltyAmount }

func (p *ProjectDelay) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	a := p.Analysis
	return generic.TableProjectDelays, map[string]any{
		"project_name":   p.In.ProjectName,
		"contractor":     p.In.Contractor,
		"planned_date":   p.In.Planned.String(),
		"actual_date":    p.In.Actual.String(),
		"delay_days":     int64(a.DelayDays),
		"delay_category": string(a.Category),
		"delay_reason":   p.In.Reason,
		"mitigation":     p.In.Mitigation,
		"project_value":  generic.AmountText(p.In.ProjectValue),
		"penalty_rate":   rateText(p.In.PenaltyRate),
		"penalty_amount": generic.AmountText(a.PenaltyAmount),
		"impact":         string(a.Impact),
		"status":         string(a.Status),
	}
}
