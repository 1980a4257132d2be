package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// FINANCIAL PROGRESS
// =============================================================================

// Project statuses. An empty status on input is derived from progress.
const (
	StatusNotStarted     = "Not Started"
	StatusInProgress     = "In Progress"
	StatusNearCompletion = "Near Completion"
	StatusCompleted      = "Completed"
)

var nearCompletion = decimal.NewFromInt(80)

type ProjectBudget struct {
	Name     string
	Budget   decimal.Decimal
	Spent    decimal.Decimal
	Progress decimal.Decimal // physical progress, percent
	Status   string
}

type FinancialProgressInput struct {
	Portfolio string
	Projects  []ProjectBudget
}

// ProjectProgress is one project with its derived figures.
type ProjectProgress struct {
	ProjectBudget
	Remaining   decimal.Decimal
	Utilization decimal.Decimal // spent / budget x 100
	Efficiency  decimal.Decimal // progress / utilization, 0 before any spend
}

type FinancialProgress struct {
	In       FinancialProgressInput
	Projects []ProjectProgress

	TotalBudget       decimal.Decimal
	TotalSpent        decimal.Decimal
	TotalRemaining    decimal.Decimal
	Utilization       decimal.Decimal
	AverageProgress   decimal.Decimal
	AverageEfficiency decimal.Decimal
}

// CalculateFinancialProgress derives utilization and efficiency for every
// project and the portfolio totals. Spending over budget is allowed and
// shows as negative remaining.
func CalculateFinancialProgress(in FinancialProgressInput) (*FinancialProgress, error) {
	if len(in.Projects) == 0 {
		return nil, &generic.ValidationError{Field: "projects", Message: "at least one project is required"}
	}
	p := &FinancialProgress{In: in, Projects: make([]ProjectProgress, len(in.Projects))}
	var progress, efficiency decimal.Decimal
	for i, pb := range in.Projects {
		field := func(name string) string { return fmt.Sprintf("projects[%d].%s", i, name) }
		if err := requireText(field("name"), pb.Name); err != nil {
			return nil, err
		}
		if err := requirePositive(field("budget"), pb.Budget); err != nil {
			return nil, err
		}
		if err := requireNonNegative(field("spent"), pb.Spent); err != nil {
			return nil, err
		}
		if pb.Progress.IsNegative() || pb.Progress.GreaterThan(generic.Hundred) {
			return nil, &generic.ValidationError{Field: field("progress"), Message: "must be between 0 and 100"}
		}
		pb.Name = strings.TrimSpace(pb.Name)
		if strings.TrimSpace(pb.Status) == "" {
			pb.Status = progressStatus(pb.Progress)
		}

		pp := ProjectProgress{
			ProjectBudget: pb,
			Remaining:     pb.Budget.Sub(pb.Spent),
			Utilization:   pb.Spent.Div(pb.Budget).Mul(generic.Hundred),
		}
		if !pp.Utilization.IsZero() {
			pp.Efficiency = pb.Progress.Div(pp.Utilization)
		}
		p.Projects[i] = pp

		p.TotalBudget = p.TotalBudget.Add(pb.Budget)
		p.TotalSpent = p.TotalSpent.Add(pb.Spent)
		progress = progress.Add(pb.Progress)
		efficiency = efficiency.Add(pp.Efficiency)
	}
	n := decimal.NewFromInt(int64(len(p.Projects)))
	p.TotalRemaining = p.TotalBudget.Sub(p.TotalSpent)
	p.Utilization = p.TotalSpent.Div(p.TotalBudget).Mul(generic.Hundred)
	p.AverageProgress = progress.Div(n)
	p.AverageEfficiency = efficiency.Div(n)
	return p, nil
}

func progressStatus(progress decimal.Decimal) string {
	switch {
	case progress.GreaterThanOrEqual(generic.Hundred):
		return StatusCompleted
	case progress.GreaterThanOrEqual(nearCompletion):
		return StatusNearCompletion
	case progress.IsPositive():
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

func (p *FinancialProgress) Kind() document.Kind { return document.KindFinancialProgress }

func (p *FinancialProgress) Inputs() generic.Fields {
	f := generic.Fields{
		"project_count":      generic.Integer(int64(len(p.Projects))),
		"total_budget":       generic.Money(p.TotalBudget),
		"total_spent":        generic.Money(p.TotalSpent),
		"budget_utilization": generic.Percent(generic.Round2(p.Utilization)),
		"average_progress":   generic.Percent(generic.Round2(p.AverageProgress)),
		"average_efficiency": generic.Text(generic.AmountText(p.AverageEfficiency)),
	}
	optionalText(f, "portfolio", p.In.Portfolio)
	return f
}

// Breakdown lists each project's spend, then the portfolio totals.
func (p *FinancialProgress) Breakdown() []generic.Line {
	lines := make([]generic.Line, 0, len(p.Projects)+3)
	for i, pp := range p.Projects {
		label := fmt.Sprintf("%s (%s): %s%% utilized, %s%% progress, efficiency %s",
			pp.Name, pp.Status,
			generic.AmountText(pp.Utilization), pp.Progress.String(), generic.AmountText(pp.Efficiency))
		lines = append(lines, info(fmt.Sprintf("project_%d", i+1), label, pp.Spent))
	}
	return append(lines,
		info("total_spent", "Total Spent", p.TotalSpent),
		info("total_remaining", "Total Remaining", p.TotalRemaining),
		info("total_budget", "Total Budget", p.TotalBudget),
	)
}

func (p *FinancialProgress) Net() decimal.Decimal { return p.TotalBudget }

type projectItem struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	Budget      string `json:"budget"`
	Spent       string `json:"spent"`
	Remaining   string `json:"remaining"`
	Progress    string `json:"progress"`
	Utilization string `json:"utilization"`
	Efficiency  string `json:"efficiency"`
}

func (p *FinancialProgress) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	items := make([]projectItem, len(p.Projects))
	for i, pp := range p.Projects {
		items[i] = projectItem{
			Name:        pp.Name,
			Status:      pp.Status,
			Budget:      generic.AmountText(pp.Budget),
			Spent:       generic.AmountText(pp.Spent),
			Remaining:   generic.AmountText(pp.Remaining),
			Progress:    rateText(pp.Progress),
			Utilization: generic.AmountText(pp.Utilization),
			Efficiency:  generic.AmountText(pp.Efficiency),
		}
	}
	raw, _ := json.Marshal(items)
	return generic.TableFinancialProgress, map[string]any{
		"portfolio":          p.In.Portfolio,
		"projects_json":      string(raw),
		"project_count":      int64(len(p.Projects)),
		"total_budget":       generic.AmountText(p.TotalBudget),
		"total_spent":        generic.AmountText(p.TotalSpent),
		"total_remaining":    generic.AmountText(p.TotalRemaining),
		"budget_utilization": generic.AmountText(p.Utilization),
		"average_progress":   generic.AmountText(p.AverageProgress),
		"average_efficiency": generic.AmountText(p.AverageEfficiency),
	}
}
