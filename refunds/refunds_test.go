package refunds_test

import (
	"context"
	"testing"
	"time"

	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/pwdtools/calc-engine/generic/store"
	"github.com/pwdtools/calc-engine/refunds"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func build(t *testing.T, c document.Calculation) generic.CalculationRecord {
	b := document.NewBuilder(generic.WordsNumericFallback)
	b.Now = func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	rec, err := b.Build(c)
	require.NoError(t, err)
	return rec
}

// =============================================================================
// EMD REFUND
// =============================================================================

func emdInput() refunds.EMDRefundInput {
	return refunds.EMDRefundInput{
		Payee:          "Raj Infra Pvt Ltd",
		Amount:         d("25000"),
		Work:           "Repair of culvert at km 14",
		TenderNo:       "PWD/T/2024/118",
		SubmissionDate: generic.NewDate(2024, time.November, 2),
		RefundDate:     generic.NewDate(2025, time.February, 20),
		PAN:            "abcde1234f",
	}
}

func TestEMDRefund_NetIsDeposit(t *testing.T) {
	// GIVEN: A complete EMD refund order
	// WHEN: Building the record
	// THEN: The refund equals the deposit and the PAN is normalised

	emd, err := refunds.CalculateEMDRefund(emdInput())
	require.NoError(t, err)
	assert.True(t, d("25000").Equal(emd.Net()))

	rec := build(t, emd)
	assert.Equal(t, "Twenty Five Thousand Rupees Only", rec.NetInWords)
	assert.Equal(t, "ABCDE1234F", rec.Input("pan").Text())
	assert.Equal(t, "2025-02-20", rec.Input("refund_date").String())
	assert.False(t, rec.Input("remarks").IsSet())
}

func TestEMDRefund_Validation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*refunds.EMDRefundInput)
		field  string
	}{
		"missing payee":    {func(in *refunds.EMDRefundInput) { in.Payee = "" }, "payee"},
		"missing work":     {func(in *refunds.EMDRefundInput) { in.Work = "  " }, "work"},
		"zero amount":      {func(in *refunds.EMDRefundInput) { in.Amount = decimal.Zero }, "amount"},
		"negative amount":  {func(in *refunds.EMDRefundInput) { in.Amount = d("-5") }, "amount"},
		"refund too early": {func(in *refunds.EMDRefundInput) { in.RefundDate = generic.NewDate(2024, time.October, 1) }, "refund_date"},
		"bad pan":          {func(in *refunds.EMDRefundInput) { in.PAN = "ABCD1234F" }, "pan"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := emdInput()
			tc.mutate(&in)
			_, err := refunds.CalculateEMDRefund(in)

			var verr *generic.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.True(t, generic.IsClientError(err))
		})
	}
}

func TestEMDRefund_AuditRow(t *testing.T) {
	emd, err := refunds.CalculateEMDRefund(emdInput())
	require.NoError(t, err)
	rec := build(t, emd)

	mem := store.NewMemory()
	ledger := generic.NewLedger(mem)
	_, err = ledger.RecordCalculation(context.Background(), emd, rec)
	require.NoError(t, err)

	rows := mem.Rows(generic.TableEMDRefunds)
	require.Len(t, rows, 1)
	assert.Equal(t, "25000.00", rows[0]["amount"])
	assert.Equal(t, "2024-11-02", rows[0]["submission_date"])
	assert.Equal(t, "Twenty Five Thousand Rupees Only", rows[0]["amount_in_words"])

	total, err := mem.Sum(context.Background(), generic.TableEMDRefunds, "amount")
	require.NoError(t, err)
	assert.True(t, d("25000").Equal(total))
}

// =============================================================================
// SECURITY REFUND
// =============================================================================

func securityInput() refunds.SecurityRefundInput {
	return refunds.SecurityRefundInput{
		Contractor:     "Om Builders",
		Work:           "Community hall, Sector 4",
		SecurityAmount: d("100000"),
		PendingClaims:  d("5000"),
		DamageRecovery: d("2000"),
		CompletionDate: generic.NewDate(2024, time.January, 1),
		AsOf:           generic.NewDate(2025, time.January, 1),
	}
}

func TestSecurityRefund_WithoutInterest(t *testing.T) {
	r, err := refunds.CalculateSecurityRefund(securityInput())
	require.NoError(t, err)

	assert.True(t, d("93000").Equal(r.Refundable()))
	assert.True(t, d("93000").Equal(r.Net()))
	assert.True(t, r.Interest().IsZero())
	assert.Equal(t, refunds.RatingSatisfactory, r.Rating)

	rec := build(t, r)
	assert.False(t, rec.Input("interest_rate").IsSet())
}

func TestSecurityRefund_InterestOnRefundable(t *testing.T) {
	// GIVEN: 93000 refundable, 6% p.a., 366 days (2024 is a leap year)
	// THEN: interest = 93000 * 6 * 366 / 36500 = 5595.29 (rounded)

	in := securityInput()
	in.InterestApplicable = true
	in.Rating = "Excellent"

	r, err := refunds.CalculateSecurityRefund(in)
	require.NoError(t, err)
	assert.Equal(t, 366, r.InterestDays)
	assert.Equal(t, "5595.29", generic.AmountText(r.Interest()))
	assert.Equal(t, "98595.29", generic.AmountText(r.Net()))

	rec := build(t, r)
	assert.Equal(t, "6%", rec.Input("interest_rate").String())
	assert.Equal(t, "366", rec.Input("interest_days").String())

	lines := r.Breakdown()
	require.Len(t, lines, 4)
	assert.Equal(t, "refundable", lines[2].Name)
	assert.Equal(t, "interest", lines[3].Name)
}

func TestSecurityRefund_NoInterestWhenNothingRefundable(t *testing.T) {
	in := securityInput()
	in.InterestApplicable = true
	in.DamageRecovery = d("120000")

	r, err := refunds.CalculateSecurityRefund(in)
	require.NoError(t, err)
	assert.True(t, r.Interest().IsZero())
	assert.True(t, r.Net().IsNegative())
	assert.True(t, build(t, r).WordsFallback)
}

func TestSecurityRefund_NoInterestBeforeCompletion(t *testing.T) {
	in := securityInput()
	in.InterestApplicable = true
	in.AsOf = generic.NewDate(2023, time.December, 1)

	r, err := refunds.CalculateSecurityRefund(in)
	require.NoError(t, err)
	assert.Equal(t, 0, r.InterestDays)
	assert.True(t, d("93000").Equal(r.Net()))
}

func TestSecurityRefund_Validation(t *testing.T) {
	high := d("16")
	cases := map[string]func(*refunds.SecurityRefundInput){
		"missing contractor": func(in *refunds.SecurityRefundInput) { in.Contractor = "" },
		"zero security":      func(in *refunds.SecurityRefundInput) { in.SecurityAmount = decimal.Zero },
		"negative claims":    func(in *refunds.SecurityRefundInput) { in.PendingClaims = d("-1") },
		"rate above cap":     func(in *refunds.SecurityRefundInput) { in.InterestRate = &high },
		"unknown rating":     func(in *refunds.SecurityRefundInput) { in.Rating = "Poor" },
		"interest without completion": func(in *refunds.SecurityRefundInput) {
			in.InterestApplicable = true
			in.CompletionDate = generic.Date{}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := securityInput()
			mutate(&in)
			_, err := refunds.CalculateSecurityRefund(in)
			assert.ErrorIs(t, err, generic.ErrValidation)
		})
	}
}

func TestSecurityRefund_AuditRow(t *testing.T) {
	in := securityInput()
	in.InterestApplicable = true
	r, err := refunds.CalculateSecurityRefund(in)
	require.NoError(t, err)

	table, row := r.AuditRow(build(t, r))
	assert.Equal(t, generic.TableSecurityRefunds, table)
	assert.Equal(t, int64(366), row["interest_days"])
	assert.Equal(t, "93000.00", row["refundable_amount"], "before interest")
	assert.Equal(t, "98595.29", row["final_refund"], "with interest")
	assert.Equal(t, "Satisfactory", row["performance_rating"])

	schema, err := generic.LookupTable(table)
	require.NoError(t, err)
	assert.NoError(t, schema.CheckRow(row))
}
