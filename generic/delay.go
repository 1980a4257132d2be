/*
delay.go - Project delay analysis and time-proportional penalty

PURPOSE:
  Compares planned and actual completion dates, classifies the delay and
  derives the liquidated-damages style penalty:

    delayDays = actual - planned                 (signed, whole days)
    penalty   = projectValue * rate/100 * delayDays   when delayDays > 0
              = 0                                     otherwise

STATUS vs SIGN:
  Zero and negative delays both carry zero penalty but mean different
  things on the analysis report ("on time" vs "ahead of schedule by N
  days"), so the analysis exposes a Timeliness value instead of leaving
  callers to re-derive it from the sign.

IMPACT:
  High    delayDays > 90
  Medium  30 < delayDays <= 90
  Low     everything else, including early and on-time completion
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORIES & LEVELS
// =============================================================================

type DelayCategory string

const (
	DelayWeather        DelayCategory = "Weather Related"
	DelayMaterial       DelayCategory = "Material Shortage"
	DelayLabor          DelayCategory = "Labor Issues"
	DelayTechnical      DelayCategory = "Technical Problems"
	DelayAdministrative DelayCategory = "Administrative Delays"
	DelayForceMajeure   DelayCategory = "Force Majeure"
	DelayOther          DelayCategory = "Other"
)

var delayCategories = []DelayCategory{
	DelayWeather, DelayMaterial, DelayLabor, DelayTechnical,
	DelayAdministrative, DelayForceMajeure, DelayOther,
}

// DelayCategories lists the accepted categories in display order.
func DelayCategories() []DelayCategory {
	return append([]DelayCategory(nil), delayCategories...)
}

// ParseDelayCategory matches a category name case-sensitively; empty means Other.
func ParseDelayCategory(s string) (DelayCategory, error) {
	if s == "" {
		return DelayOther, nil
	}
	for _, c := range delayCategories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &ValidationError{Field: "delay_category", Message: fmt.Sprintf("has unknown value %q", s)}
}

type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "Low"
	ImpactMedium ImpactLevel = "Medium"
	ImpactHigh   ImpactLevel = "High"
)

type Timeliness string

const (
	AheadOfSchedule Timeliness = "ahead_of_schedule"
	OnTime          Timeliness = "on_time"
	Delayed         Timeliness = "delayed"
)

// DefaultMaxDailyPenaltyRate caps the per-day penalty percentage.
var DefaultMaxDailyPenaltyRate = decimal.NewFromInt(1)

var daysPerYear = decimal.NewFromInt(365)

// =============================================================================
// ANALYZER
// =============================================================================

type DelayInput struct {
	Planned      Date
	Actual       Date
	ProjectValue decimal.Decimal

	// DailyPenaltyRate is a percentage of ProjectValue per day of delay.
	DailyPenaltyRate decimal.Decimal
	Category         DelayCategory

	// MaxDailyPenaltyRate overrides DefaultMaxDailyPenaltyRate when set.
	MaxDailyPenaltyRate *decimal.Decimal
}

type DelayAnalysis struct {
	DelayDays          int
	Status             Timeliness
	PenaltyAmount      decimal.Decimal
	Impact             ImpactLevel
	DelayPercentOfYear decimal.Decimal
	Category           DelayCategory
}

// AnalyzeDelay validates in and computes the delay analysis.
func AnalyzeDelay(in DelayInput) (DelayAnalysis, error) {
	if in.Planned.IsZero() {
		return DelayAnalysis{}, &ValidationError{Field: "planned_date", Message: "is required"}
	}
	if in.Actual.IsZero() {
		return DelayAnalysis{}, &ValidationError{Field: "actual_date", Message: "is required"}
	}
	if in.ProjectValue.IsNegative() {
		return DelayAnalysis{}, &ValidationError{Field: "project_value", Message: "must not be negative"}
	}
	maxRate := DefaultMaxDailyPenaltyRate
	if in.MaxDailyPenaltyRate != nil {
		maxRate = *in.MaxDailyPenaltyRate
	}
	if in.DailyPenaltyRate.IsNegative() || in.DailyPenaltyRate.GreaterThan(maxRate) {
		return DelayAnalysis{}, &ValidationError{
			Field:   "penalty_rate",
			Message: fmt.Sprintf("must be between 0 and %s%% per day", maxRate.String()),
		}
	}
	category := in.Category
	if category == "" {
		category = DelayOther
	}

	days := DaysBetween(in.Planned, in.Actual)
	analysis := DelayAnalysis{
		DelayDays:          days,
		Status:             timeliness(days),
		PenaltyAmount:      decimal.Zero,
		Impact:             impactFor(days),
		DelayPercentOfYear: decimal.Zero,
		Category:           category,
	}
	if days > 0 {
		d := decimal.NewFromInt(int64(days))
		analysis.PenaltyAmount = PercentOf(in.ProjectValue, in.DailyPenaltyRate).Mul(d)
		analysis.DelayPercentOfYear = d.Div(daysPerYear).Mul(Hundred)
	}
	return analysis, nil
}

func timeliness(days int) Timeliness {
	switch {
	case days < 0:
		return AheadOfSchedule
	case days == 0:
		return OnTime
	default:
		return Delayed
	}
}

func impactFor(days int) ImpactLevel {
	switch {
	case days > 90:
		return ImpactHigh
	case days > 30:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// Message is the user-facing status line.
func (a DelayAnalysis) Message() string {
	switch a.Status {
	case AheadOfSchedule:
		return fmt.Sprintf("Project completed ahead of schedule by %d days!", -a.DelayDays)
	case OnTime:
		return "Project completed on time!"
	default:
		return fmt.Sprintf("Project delayed by %d days", a.DelayDays)
	}
}

// Recommendations returns the follow-up actions for the impact level.
func (a DelayAnalysis) Recommendations() []string {
	switch a.Impact {
	case ImpactHigh:
		return []string{
			"Implement strict project monitoring",
			"Consider contractor performance review",
			"Enhance risk management protocols",
		}
	case ImpactMedium:
		return []string{
			"Monitor progress more closely",
			"Review project management practices",
			"Implement corrective measures",
		}
	default:
		return []string{
			"Continue current monitoring",
			"Document lessons learned",
			"Maintain quality standards",
		}
	}
}
