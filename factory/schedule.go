/*
Package factory provides JSON to Go rate schedule conversion.

PURPOSE:
  Converts JSON rate schedule definitions into validated
  []generic.RateSpec. This lets an office change a statutory rate or the
  base a deduction applies to without a code change: the billing presets
  are themselves JSON documents run through this factory.

JSON SCHEMA:
  {
    "id": "professional-bill",
    "name": "Professional Bill Note Sheet",
    "rates": [
      {"name": "gst", "label": "GST", "effect": "addition",
       "kind": "percent", "rate": 18, "base": "original", "max_rate": 28},
      {"name": "tds", "label": "TDS", "effect": "deduction",
       "kind": "percent", "rate": 2, "base": "gross", "max_rate": 10},
      {"name": "other", "label": "Other Deductions", "effect": "deduction",
       "kind": "fixed", "amount": 0}
    ]
  }

DEFAULTS:
  kind   "percent" when rate is present, otherwise "fixed"
  effect "deduction"
  base   "original"

KEY FEATURES:
  - Numbers may be JSON numbers or strings ("2.5"); both parse exactly
  - Every rate is validated with RateSpec.Validate before it is returned
  - Override replaces a rate by name, so a caller-supplied TDS of 1%
    keeps the preset's label, base and cap

USAGE:
  f := factory.NewScheduleFactory()
  schedule, err := f.ParseSchedule(billing.ProfessionalBillJSON)
  schedule, err = schedule.Override("tds", decimal.NewFromInt(1))
  result, err := schedule.Apply(claim)

SEE ALSO:
  - generic/deduction.go: RateSpec and the engine
  - billing/schedules.go: Preset schedules
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ScheduleJSON is the JSON representation of a rate schedule.
type ScheduleJSON struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Rates []RateJSON `json:"rates"`
}

// RateJSON represents one rate of a schedule.
type RateJSON struct {
	Name    string           `json:"name"`
	Label   string           `json:"label,omitempty"`
	Kind    string           `json:"kind,omitempty"`   // percent, fixed
	Effect  string           `json:"effect,omitempty"` // addition, deduction
	Rate    *decimal.Decimal `json:"rate,omitempty"`
	Amount  *decimal.Decimal `json:"amount,omitempty"`
	Base    string           `json:"base,omitempty"` // original, gross, net
	MaxRate *decimal.Decimal `json:"max_rate,omitempty"`
}

// =============================================================================
// SCHEDULE
// =============================================================================

// Schedule is a validated, ordered set of rates.
type Schedule struct {
	ID    string
	Name  string
	Rates []generic.RateSpec
}

// Rate returns the named rate.
func (s *Schedule) Rate(name string) (generic.RateSpec, bool) {
	for _, r := range s.Rates {
		if r.Name == name {
			return r, true
		}
	}
	return generic.RateSpec{}, false
}

// Override returns a copy of s with the named rate's value replaced: the
// percentage for percent rates, the amount for fixed ones.
func (s *Schedule) Override(name string, value decimal.Decimal) (*Schedule, error) {
	out := s.clone()
	for i, r := range out.Rates {
		if r.Name != name {
			continue
		}
		if r.Kind == generic.RatePercent {
			r.Rate = value
		} else {
			r.Amount = value
		}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		out.Rates[i] = r
		return out, nil
	}
	return nil, &generic.ValidationError{Field: name, Message: fmt.Sprintf("is not a rate of schedule %s", s.ID)}
}

// WithBase returns a copy of s with the named rate applied against base.
func (s *Schedule) WithBase(name string, base generic.BaseSelector) (*Schedule, error) {
	out := s.clone()
	for i, r := range out.Rates {
		if r.Name == name {
			r = r.WithBase(base)
			if err := r.Validate(); err != nil {
				return nil, err
			}
			out.Rates[i] = r
			return out, nil
		}
	}
	return nil, &generic.ValidationError{Field: name, Message: fmt.Sprintf("is not a rate of schedule %s", s.ID)}
}

// Apply runs the schedule against base.
func (s *Schedule) Apply(base decimal.Decimal) (generic.DeductionResult, error) {
	return generic.ComputeDeductions(base, s.Rates)
}

func (s *Schedule) clone() *Schedule {
	return &Schedule{ID: s.ID, Name: s.Name, Rates: append([]generic.RateSpec(nil), s.Rates...)}
}

// =============================================================================
// SCHEDULE FACTORY
// =============================================================================

// ScheduleFactory converts JSON schedules to Go structs.
type ScheduleFactory struct{}

// NewScheduleFactory creates a new schedule factory.
func NewScheduleFactory() *ScheduleFactory {
	return &ScheduleFactory{}
}

// ParseSchedule parses a JSON string into a Schedule.
func (f *ScheduleFactory) ParseSchedule(jsonStr string) (*Schedule, error) {
	var sj ScheduleJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return nil, fmt.Errorf("failed to parse schedule JSON: %w", err)
	}
	return f.FromJSON(sj)
}

// MustParseSchedule parses a schedule or panics. Use for built-in presets.
func (f *ScheduleFactory) MustParseSchedule(jsonStr string) *Schedule {
	s, err := f.ParseSchedule(jsonStr)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in schedule: %v", err))
	}
	return s
}

// FromJSON converts ScheduleJSON to a validated Schedule.
func (f *ScheduleFactory) FromJSON(sj ScheduleJSON) (*Schedule, error) {
	if sj.ID == "" {
		return nil, &generic.ValidationError{Field: "schedule.id", Message: "is required"}
	}
	schedule := &Schedule{ID: sj.ID, Name: sj.Name}
	seen := make(map[string]bool, len(sj.Rates))

	for i, rj := range sj.Rates {
		spec, err := parseRate(rj)
		if err != nil {
			return nil, fmt.Errorf("rate %d: %w", i, err)
		}
		if seen[spec.Name] {
			return nil, &generic.ValidationError{Field: spec.Name, Message: "appears twice in schedule"}
		}
		seen[spec.Name] = true
		schedule.Rates = append(schedule.Rates, spec)
	}
	return schedule, nil
}

// ToJSON converts a Schedule to ScheduleJSON.
func (f *ScheduleFactory) ToJSON(s *Schedule) ScheduleJSON {
	sj := ScheduleJSON{ID: s.ID, Name: s.Name}
	for _, r := range s.Rates {
		rj := RateJSON{
			Name:    r.Name,
			Label:   r.Label,
			Kind:    string(r.Kind),
			Effect:  string(r.Effect),
			MaxRate: r.MaxRate,
		}
		if r.Kind == generic.RatePercent {
			rate := r.Rate
			rj.Rate = &rate
			rj.Base = string(r.Base)
		} else {
			amount := r.Amount
			rj.Amount = &amount
		}
		sj.Rates = append(sj.Rates, rj)
	}
	return sj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseRate(rj RateJSON) (generic.RateSpec, error) {
	spec := generic.RateSpec{
		Name:    rj.Name,
		Label:   rj.Label,
		Kind:    parseKind(rj),
		Effect:  parseEffect(rj.Effect),
		Base:    parseBase(rj.Base),
		MaxRate: rj.MaxRate,
	}
	switch spec.Kind {
	case generic.RatePercent:
		if rj.Rate == nil {
			return generic.RateSpec{}, &generic.ValidationError{Field: rj.Name, Message: "percent rate requires rate"}
		}
		spec.Rate = *rj.Rate
	case generic.RateFixed:
		if rj.Amount != nil {
			spec.Amount = *rj.Amount
		}
	}
	if err := spec.Validate(); err != nil {
		return generic.RateSpec{}, err
	}
	return spec, nil
}

func parseKind(rj RateJSON) generic.RateKind {
	switch rj.Kind {
	case "percent":
		return generic.RatePercent
	case "fixed":
		return generic.RateFixed
	case "":
		if rj.Rate != nil {
			return generic.RatePercent
		}
		return generic.RateFixed
	default:
		return generic.RateKind(rj.Kind)
	}
}

func parseEffect(s string) generic.Effect {
	switch s {
	case "", "deduction":
		return generic.EffectDeduction
	case "addition":
		return generic.EffectAddition
	default:
		return generic.Effect(s)
	}
}

func parseBase(s string) generic.BaseSelector {
	switch s {
	case "", "original", "base":
		return generic.BaseOriginal
	case "gross", "running_gross":
		return generic.BaseRunningGross
	case "net", "running_net":
		return generic.BaseRunningNet
	default:
		return generic.BaseSelector(s)
	}
}
