// Package billing implements the contractor-bill calculators.
// Each calculator validates its inputs, runs the generic engine with a
// billing schedule and returns a result that the document builder turns
// into a record and the ledger turns into one audit row.
package billing

import (
	"strings"

	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

// Compile-time checks that every result is buildable and auditable.
var (
	_ document.Calculation = (*BillNote)(nil)
	_ document.Calculation = (*ProfessionalBill)(nil)
	_ document.Calculation = (*DeductionStatement)(nil)
	_ document.Calculation = (*StampDuty)(nil)
	_ document.Calculation = (*BillDeviation)(nil)
	_ document.Calculation = (*ProjectDelay)(nil)
	_ document.Calculation = (*FinancialProgress)(nil)

	_ generic.Auditable = (*BillNote)(nil)
	_ generic.Auditable = (*ProfessionalBill)(nil)
	_ generic.Auditable = (*DeductionStatement)(nil)
	_ generic.Auditable = (*StampDuty)(nil)
	_ generic.Auditable = (*BillDeviation)(nil)
	_ generic.Auditable = (*ProjectDelay)(nil)
	_ generic.Auditable = (*FinancialProgress)(nil)
)

func requireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &generic.ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// requireTexts checks field/value pairs in order.
func requireTexts(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := requireText(pairs[i], pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func requirePositive(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return &generic.ValidationError{Field: field, Message: "must be greater than zero"}
	}
	return nil
}

func requireNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return &generic.ValidationError{Field: field, Message: "must not be negative"}
	}
	return nil
}

// optionalText drops blank strings so they render as unset.
func optionalText(fields generic.Fields, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		fields[key] = generic.Text(v)
	}
}

func optionalDate(fields generic.Fields, key string, d generic.Date) {
	if !d.IsZero() {
		fields[key] = generic.DateValue(d)
	}
}

func info(name, label string, amount decimal.Decimal) generic.Line {
	return generic.Line{Name: name, Label: label, Amount: amount, Effect: generic.EffectInfo}
}

func rateText(d decimal.Decimal) string { return d.String() }
