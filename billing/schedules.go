/*
schedules.go - Pre-built billing rate schedules

PURPOSE:
  The professional bill note sheet and the deductions table are rate
  schedules like any other. They are kept here as JSON so they can be
  served to clients and edited without touching the calculators.

AVAILABLE SCHEDULES:
  ProfessionalBillJSON:  GST added on the claim, TDS on the GST-inclusive
                         gross, retention and labour cess on the claim
  DeductionsTableJSON:   Every percentage on the bill amount, then the
                         fixed recoveries

CAPS:
  GST 28, TDS 10, retention 10, labour cess 2, performance guarantee 10.

SEE ALSO:
  - factory/schedule.go: JSON parsing and overrides
  - professional.go, deductions.go: Calculators using these
*/
package billing

import (
	"github.com/pwdtools/calc-engine/factory"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

const ProfessionalBillJSON = `{
  "id": "professional-bill",
  "name": "Professional Bill Note Sheet",
  "rates": [
    {"name": "gst", "label": "GST", "effect": "addition", "kind": "percent", "rate": 18, "base": "original", "max_rate": 28},
    {"name": "tds", "label": "TDS", "effect": "deduction", "kind": "percent", "rate": 2, "base": "gross", "max_rate": 10},
    {"name": "retention", "label": "Retention", "effect": "deduction", "kind": "percent", "rate": 5, "base": "original", "max_rate": 10},
    {"name": "labour_cess", "label": "Labour Cess", "effect": "deduction", "kind": "percent", "rate": 1, "base": "original", "max_rate": 2},
    {"name": "other", "label": "Other Deductions", "effect": "deduction", "kind": "fixed", "amount": 0}
  ]
}`

const DeductionsTableJSON = `{
  "id": "deductions-table",
  "name": "Deductions Table",
  "rates": [
    {"name": "tds", "label": "TDS", "kind": "percent", "rate": 2, "base": "original", "max_rate": 10},
    {"name": "gst", "label": "GST", "kind": "percent", "rate": 18, "base": "original", "max_rate": 28},
    {"name": "labour_cess", "label": "Labour Cess", "kind": "percent", "rate": 1, "base": "original", "max_rate": 2},
    {"name": "performance_guarantee", "label": "Performance Guarantee", "kind": "percent", "rate": 3, "base": "original", "max_rate": 10},
    {"name": "retention", "label": "Retention", "kind": "percent", "rate": 5, "base": "original", "max_rate": 10},
    {"name": "security_deposit", "label": "Security Deposit", "kind": "fixed", "amount": 0},
    {"name": "mobilization_advance", "label": "Mobilization Advance Recovery", "kind": "fixed", "amount": 0},
    {"name": "material_advance", "label": "Material Advance Recovery", "kind": "fixed", "amount": 0},
    {"name": "penalty", "label": "Penalty", "kind": "fixed", "amount": 0},
    {"name": "other", "label": "Other Deductions", "kind": "fixed", "amount": 0}
  ]
}`

var (
	professionalBill = factory.NewScheduleFactory().MustParseSchedule(ProfessionalBillJSON)
	deductionsTable  = factory.NewScheduleFactory().MustParseSchedule(DeductionsTableJSON)
)

// ProfessionalBillSchedule returns the built-in professional bill schedule.
func ProfessionalBillSchedule() *factory.Schedule { return professionalBill }

// DeductionsTableSchedule returns the built-in deductions table schedule.
func DeductionsTableSchedule() *factory.Schedule { return deductionsTable }

// Presets lists every built-in schedule by id.
func Presets() map[string]string {
	return map[string]string{
		professionalBill.ID: ProfessionalBillJSON,
		deductionsTable.ID:  DeductionsTableJSON,
	}
}

// Rates holds caller overrides keyed by rate name.
type Rates map[string]decimal.Decimal

// applyOverrides returns s with every override applied, in schedule order.
func applyOverrides(s *factory.Schedule, rates Rates) (*factory.Schedule, error) {
	out := s
	for _, r := range s.Rates {
		v, ok := rates[r.Name]
		if !ok {
			continue
		}
		next, err := out.Override(r.Name, v)
		if err != nil {
			return nil, err
		}
		out = next
	}
	for name := range rates {
		if _, ok := s.Rate(name); !ok {
			return nil, &generic.ValidationError{Field: name, Message: "is not a rate of schedule " + s.ID}
		}
	}
	return out, nil
}
