/*
security.go - Security deposit refund with interest

PURPOSE:
  Releases a contractor's security deposit after completion, less pending
  claims and damage recovery, plus simple interest when the contract
  grants it.

CALCULATION:
  refundable = security - pending_claims - damage_recovery
  interest   = refundable * rate * days / (365 * 100)
               only when interest applies, refundable > 0 and days > 0
  refund     = refundable + interest

  days runs from the completion date to the as-of date (today when unset).
  A refundable amount at or below zero carries no interest and the
  negative figure is kept on the order.

SEE ALSO:
  - generic/deduction.go: Both passes run through ComputeDeductions
*/
package refunds

import (
	"fmt"

	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

var (
	// DefaultInterestRate is the annual interest percentage on security.
	DefaultInterestRate = decimal.NewFromInt(6)
	MaxInterestRate     = decimal.NewFromInt(15)

	daysPerYear = decimal.NewFromInt(365)
)

// =============================================================================
// PERFORMANCE RATING
// =============================================================================

type PerformanceRating string

const (
	RatingExcellent        PerformanceRating = "Excellent"
	RatingGood             PerformanceRating = "Good"
	RatingSatisfactory     PerformanceRating = "Satisfactory"
	RatingNeedsImprovement PerformanceRating = "Needs Improvement"
)

var ratings = []PerformanceRating{RatingExcellent, RatingGood, RatingSatisfactory, RatingNeedsImprovement}

// PerformanceRatings lists the accepted ratings, best first.
func PerformanceRatings() []PerformanceRating {
	return append([]PerformanceRating(nil), ratings...)
}

// ParsePerformanceRating accepts an exact rating name; empty means Satisfactory.
func ParsePerformanceRating(s string) (PerformanceRating, error) {
	if s == "" {
		return RatingSatisfactory, nil
	}
	for _, r := range ratings {
		if string(r) == s {
			return r, nil
		}
	}
	return "", &generic.ValidationError{Field: "performance_rating", Message: fmt.Sprintf("has unknown value %q", s)}
}

// =============================================================================
// SECURITY REFUND
// =============================================================================

type SecurityRefundInput struct {
	Contractor      string
	Work            string
	AgreementNumber string
	SecurityAmount  decimal.Decimal
	PendingClaims   decimal.Decimal
	DamageRecovery  decimal.Decimal
	CompletionDate  generic.Date
	AsOf            generic.Date // zero means today

	InterestApplicable bool
	InterestRate       *decimal.Decimal // nil means DefaultInterestRate

	Rating string
}

type SecurityRefund struct {
	In           SecurityRefundInput
	Rating       PerformanceRating
	AsOf         generic.Date
	InterestRate decimal.Decimal
	InterestDays int
	Result       generic.DeductionResult
}

// CalculateSecurityRefund validates in and computes the refund order.
func CalculateSecurityRefund(in SecurityRefundInput) (*SecurityRefund, error) {
	if err := requireTexts("contractor", in.Contractor, "work", in.Work); err != nil {
		return nil, err
	}
	if !in.SecurityAmount.IsPositive() {
		return nil, &generic.ValidationError{Field: "security_amount", Message: "must be greater than zero"}
	}
	rating, err := ParsePerformanceRating(in.Rating)
	if err != nil {
		return nil, err
	}

	rate := DefaultInterestRate
	if in.InterestRate != nil {
		rate = *in.InterestRate
	}
	if rate.IsNegative() || rate.GreaterThan(MaxInterestRate) {
		return nil, &generic.ValidationError{
			Field:   "interest_rate",
			Message: fmt.Sprintf("must be between 0 and %s%% per annum", MaxInterestRate.String()),
		}
	}

	asOf := in.AsOf
	if asOf.IsZero() {
		asOf = generic.Today()
	}
	if in.InterestApplicable && in.CompletionDate.IsZero() {
		return nil, &generic.ValidationError{Field: "completion_date", Message: "is required when interest applies"}
	}

	rates := []generic.RateSpec{
		generic.FixedDeduction("pending_claims", "Pending Claims", in.PendingClaims),
		generic.FixedDeduction("damage_recovery", "Damage Recovery", in.DamageRecovery),
	}
	result, err := generic.ComputeDeductions(in.SecurityAmount, rates)
	if err != nil {
		return nil, err
	}

	refund := &SecurityRefund{In: in, Rating: rating, AsOf: asOf, Result: result}
	if !in.InterestApplicable {
		return refund, nil
	}
	refund.InterestRate = rate

	days := generic.DaysBetween(in.CompletionDate, asOf)
	if days <= 0 || !result.NetAmount.IsPositive() || rate.IsZero() {
		return refund, nil
	}
	refund.InterestDays = days

	interest := generic.PercentOf(result.NetAmount, rate).
		Mul(decimal.NewFromInt(int64(days))).
		Div(daysPerYear)
	label := fmt.Sprintf("Interest @ %s%% p.a. for %d days", rate.String(), days)
	if refund.Result, err = generic.ComputeDeductions(in.SecurityAmount,
		append(rates, generic.FixedAddition("interest", label, interest))); err != nil {
		return nil, err
	}
	return refund, nil
}

// Refundable is the deposit less deductions, before interest.
func (r *SecurityRefund) Refundable() decimal.Decimal {
	return r.In.SecurityAmount.Sub(r.Result.TotalDeductions)
}

func (r *SecurityRefund) Interest() decimal.Decimal { return r.Result.Amount("interest") }

func (r *SecurityRefund) Kind() document.Kind { return document.KindSecurityRefund }

func (r *SecurityRefund) Inputs() generic.Fields {
	f := generic.Fields{
		"contractor":         generic.Text(r.In.Contractor),
		"work":               generic.Text(r.In.Work),
		"security_amount":    generic.Money(r.In.SecurityAmount),
		"pending_claims":     generic.Money(r.In.PendingClaims),
		"damage_recovery":    generic.Money(r.In.DamageRecovery),
		"as_of_date":         generic.DateValue(r.AsOf),
		"performance_rating": generic.Text(string(r.Rating)),
	}
	optionalText(f, "agreement_number", r.In.AgreementNumber)
	optionalDate(f, "completion_date", r.In.CompletionDate)
	if r.In.InterestApplicable {
		f["interest_rate"] = generic.Percent(r.InterestRate)
		f["interest_days"] = generic.Integer(int64(r.InterestDays))
	}
	return f
}

// Breakdown lists the deductions, the refundable amount, then any interest.
func (r *SecurityRefund) Breakdown() []generic.Line {
	var lines, additions []generic.Line
	for _, l := range r.Result.Breakdown {
		if l.Effect == generic.EffectAddition {
			additions = append(additions, l)
			continue
		}
		lines = append(lines, l)
	}
	lines = append(lines, generic.Line{
		Name: "refundable", Label: "Refundable Amount", Amount: r.Refundable(), Effect: generic.EffectInfo,
	})
	return append(lines, additions...)
}

func (r *SecurityRefund) Net() decimal.Decimal { return r.Result.NetAmount }

func (r *SecurityRefund) AuditRow(generic.CalculationRecord) (generic.TableName, map[string]any) {
	return generic.TableSecurityRefunds, map[string]any{
		"contractor":         r.In.Contractor,
		"work":               r.In.Work,
		"agreement_number":   r.In.AgreementNumber,
		"completion_date":    dateText(r.In.CompletionDate),
		"as_of_date":         r.AsOf.String(),
		"performance_rating": string(r.Rating),
		"interest_days":      int64(r.InterestDays),
		"security_amount":    generic.AmountText(r.In.SecurityAmount),
		"pending_claims":     generic.AmountText(r.In.PendingClaims),
		"damage_recovery":    generic.AmountText(r.In.DamageRecovery),
		"interest_rate":      r.InterestRate.String(),
		"interest_amount":    generic.AmountText(r.Interest()),
		"refundable_amount":  generic.AmountText(r.Refundable()),
		"final_refund":       generic.AmountText(r.Result.NetAmount),
	}
}
