/*
deduction.go - Ordered rate schedule engine

PURPOSE:
  Applies an ordered set of percentage or fixed-amount rates to a base
  amount, producing a breakdown and net total. Every calculator that
  deducts or adds something (professional bill, deductions table,
  security refund, stamp duty, bill deviation) runs through here.

BASE SELECTION:
  Each RateSpec names the amount its percentage applies to:

    BaseOriginal      the base passed in
    BaseRunningGross  base + additions processed so far
    BaseRunningNet    gross - deductions processed so far

  Both conventions found in practice are expressible without special
  cases. The professional bill adds GST on the claim and takes TDS on the
  GST-inclusive gross:

    [GST +18% of original] [TDS -2% of running gross] [Retention -5% of original]

  while the deductions table takes every percentage on the plain base.

TOTALS:
  Gross = base + additions
  Net   = gross - deductions     (never clamped; may be negative)

ROUNDING:
  None. Amounts are kept at full precision; presentation rounds with Round2.
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE SPEC
// =============================================================================

type BaseSelector string

const (
	BaseOriginal     BaseSelector = "original"
	BaseRunningGross BaseSelector = "gross"
	BaseRunningNet   BaseSelector = "net"
)

type RateKind string

const (
	RatePercent RateKind = "percent"
	RateFixed   RateKind = "fixed"
)

// RateSpec is a named addition or deduction.
type RateSpec struct {
	Name   string
	Label  string
	Kind   RateKind
	Rate   decimal.Decimal // percent, when Kind == RatePercent
	Amount decimal.Decimal // literal, when Kind == RateFixed
	Base   BaseSelector
	Effect Effect

	// MaxRate caps Rate for statutory percentages (GST 28, TDS 10, ...).
	MaxRate *decimal.Decimal
}

func PercentDeduction(name, label string, rate decimal.Decimal, base BaseSelector) RateSpec {
	return RateSpec{Name: name, Label: label, Kind: RatePercent, Rate: rate, Base: base, Effect: EffectDeduction}
}

func PercentAddition(name, label string, rate decimal.Decimal, base BaseSelector) RateSpec {
	return RateSpec{Name: name, Label: label, Kind: RatePercent, Rate: rate, Base: base, Effect: EffectAddition}
}

func FixedDeduction(name, label string, amount decimal.Decimal) RateSpec {
	return RateSpec{Name: name, Label: label, Kind: RateFixed, Amount: amount, Effect: EffectDeduction}
}

func FixedAddition(name, label string, amount decimal.Decimal) RateSpec {
	return RateSpec{Name: name, Label: label, Kind: RateFixed, Amount: amount, Effect: EffectAddition}
}

// WithMax returns a copy of r capped at limit percent.
func (r RateSpec) WithMax(limit decimal.Decimal) RateSpec {
	r.MaxRate = &limit
	return r
}

// WithBase returns a copy of r applied against base.
func (r RateSpec) WithBase(base BaseSelector) RateSpec {
	r.Base = base
	return r
}

// Validate checks the spec before it is accepted into a schedule.
func (r RateSpec) Validate() error {
	if r.Name == "" {
		return &ValidationError{Field: "rate.name", Message: "is required"}
	}
	if r.Effect != EffectAddition && r.Effect != EffectDeduction {
		return &ValidationError{Field: r.Name, Message: fmt.Sprintf("has unknown effect %q", r.Effect)}
	}
	switch r.Kind {
	case RatePercent:
		if r.Rate.IsNegative() || r.Rate.GreaterThan(Hundred) {
			return &ValidationError{Field: r.Name, Message: "rate must be between 0 and 100"}
		}
		if r.MaxRate != nil && r.Rate.GreaterThan(*r.MaxRate) {
			return &ValidationError{Field: r.Name, Message: fmt.Sprintf("rate must not exceed %s%%", r.MaxRate.String())}
		}
		switch r.Base {
		case BaseOriginal, BaseRunningGross, BaseRunningNet:
		default:
			return &ValidationError{Field: r.Name, Message: fmt.Sprintf("has unknown base %q", r.Base)}
		}
	case RateFixed:
		if r.Amount.IsNegative() {
			return &ValidationError{Field: r.Name, Message: "amount must not be negative"}
		}
	default:
		return &ValidationError{Field: r.Name, Message: fmt.Sprintf("has unknown kind %q", r.Kind)}
	}
	return nil
}

// DisplayLabel is the breakdown label, "TDS @ 2%" for percentages.
func (r RateSpec) DisplayLabel() string {
	label := r.Label
	if label == "" {
		label = r.Name
	}
	if r.Kind == RatePercent {
		return fmt.Sprintf("%s @ %s%%", label, r.Rate.String())
	}
	return label
}

// =============================================================================
// RESULT
// =============================================================================

type DeductionResult struct {
	Base               decimal.Decimal
	GrossWithAdditions decimal.Decimal
	TotalAdditions     decimal.Decimal
	TotalDeductions    decimal.Decimal
	NetAmount          decimal.Decimal
	Breakdown          []Line
}

// Line returns the breakdown line for the named rate.
func (d DeductionResult) Line(name string) (Line, bool) {
	for _, l := range d.Breakdown {
		if l.Name == name {
			return l, true
		}
	}
	return Line{}, false
}

// Amount returns the computed amount for the named rate, or zero.
func (d DeductionResult) Amount(name string) decimal.Decimal {
	l, _ := d.Line(name)
	return l.Amount
}

// SumOf totals the computed amounts of the named rates.
func (d DeductionResult) SumOf(names ...string) decimal.Decimal {
	total := decimal.Zero
	for _, n := range names {
		total = total.Add(d.Amount(n))
	}
	return total
}

// DeductionPercent is TotalDeductions as a percentage of Base; zero for a zero base.
func (d DeductionResult) DeductionPercent() decimal.Decimal {
	if d.Base.IsZero() {
		return decimal.Zero
	}
	return d.TotalDeductions.Div(d.Base).Mul(Hundred)
}

// IsNegative reports a net below zero so presentation can flag it.
func (d DeductionResult) IsNegative() bool { return d.NetAmount.IsNegative() }

// =============================================================================
// ENGINE
// =============================================================================

// ComputeDeductions applies rates to base in order.
func ComputeDeductions(base decimal.Decimal, rates []RateSpec) (DeductionResult, error) {
	if base.IsNegative() {
		return DeductionResult{}, &ValidationError{Field: "base", Message: "must not be negative"}
	}
	seen := make(map[string]bool, len(rates))
	for _, r := range rates {
		if err := r.Validate(); err != nil {
			return DeductionResult{}, err
		}
		if seen[r.Name] {
			return DeductionResult{}, &ValidationError{Field: r.Name, Message: "appears twice in schedule"}
		}
		seen[r.Name] = true
	}

	additions := decimal.Zero
	deductions := decimal.Zero
	breakdown := make([]Line, 0, len(rates))

	for _, r := range rates {
		amount := r.Amount
		if r.Kind == RatePercent {
			var on decimal.Decimal
			switch r.Base {
			case BaseRunningGross:
				on = base.Add(additions)
			case BaseRunningNet:
				on = base.Add(additions).Sub(deductions)
			default:
				on = base
			}
			amount = PercentOf(on, r.Rate)
		}

		if r.Effect == EffectAddition {
			additions = additions.Add(amount)
		} else {
			deductions = deductions.Add(amount)
		}
		breakdown = append(breakdown, Line{
			Name:   r.Name,
			Label:  r.DisplayLabel(),
			Amount: amount,
			Effect: r.Effect,
		})
	}

	gross := base.Add(additions)
	return DeductionResult{
		Base:               base,
		GrossWithAdditions: gross,
		TotalAdditions:     additions,
		TotalDeductions:    deductions,
		NetAmount:          gross.Sub(deductions),
		Breakdown:          breakdown,
	}, nil
}
