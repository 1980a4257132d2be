package billing_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pwdtools/calc-engine/billing"
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/pwdtools/calc-engine/generic/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func build(t *testing.T, c document.Calculation) generic.CalculationRecord {
	b := document.NewBuilder(generic.WordsNumericFallback)
	b.Now = func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) }
	rec, err := b.Build(c)
	require.NoError(t, err)
	return rec
}

func professionalInput() billing.ProfessionalBillInput {
	return billing.ProfessionalBillInput{
		BillNumber:       "RA-07",
		Contractor:       "Shree Constructions",
		Work:             "Construction of CC road, Ward 12",
		CurrentClaim:     d("100000"),
		PreviousPayments: d("250000"),
	}
}

// =============================================================================
// PROFESSIONAL BILL
// =============================================================================

func TestProfessionalBill_DefaultSchedule(t *testing.T) {
	// GIVEN: A claim of 100000 with the preset GST/TDS/retention/cess
	// WHEN: Calculating the bill
	// THEN: Net payment is 109640 and cumulative adds previous payments

	bill, err := billing.CalculateProfessionalBill(professionalInput())
	require.NoError(t, err)

	r := bill.Result
	assert.True(t, d("18000").Equal(r.Amount("gst")))
	assert.True(t, d("118000").Equal(r.GrossWithAdditions))
	assert.True(t, d("2360").Equal(r.Amount("tds")))
	assert.True(t, d("5000").Equal(r.Amount("retention")))
	assert.True(t, d("1000").Equal(r.Amount("labour_cess")))
	assert.True(t, d("8360").Equal(r.TotalDeductions))
	assert.True(t, d("109640").Equal(bill.Net()))
	assert.True(t, d("359640").Equal(bill.CumulativePayment))

	rec := build(t, bill)
	assert.Equal(t, "One Lakh Nine Thousand Six Hundred and Forty Rupees Only", rec.NetInWords)
	assert.Equal(t, "18%", rec.Input("gst_rate").String())
	assert.Equal(t, "gross", bill.Breakdown()[1].Name)
}

func TestProfessionalBill_TDSOnBase(t *testing.T) {
	in := professionalInput()
	in.TDSBase = generic.BaseOriginal

	bill, err := billing.CalculateProfessionalBill(in)
	require.NoError(t, err)
	assert.True(t, d("2000").Equal(bill.Result.Amount("tds")))
	assert.True(t, d("110000").Equal(bill.Net()))
}

func TestProfessionalBill_RateOverridesAndCaps(t *testing.T) {
	in := professionalInput()
	in.Rates = billing.Rates{"gst": d("12"), "tds": d("1")}
	in.OtherDeductions = d("640")

	bill, err := billing.CalculateProfessionalBill(in)
	require.NoError(t, err)
	assert.True(t, d("12000").Equal(bill.Result.Amount("gst")))
	assert.True(t, d("1120").Equal(bill.Result.Amount("tds")))
	assert.True(t, d("640").Equal(bill.Result.Amount("other")))

	in.Rates = billing.Rates{"gst": d("30")}
	_, err = billing.CalculateProfessionalBill(in)
	assert.ErrorIs(t, err, generic.ErrValidation)

	in.Rates = billing.Rates{"cess": d("1")}
	_, err = billing.CalculateProfessionalBill(in)
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestProfessionalBill_Validation(t *testing.T) {
	cases := map[string]func(*billing.ProfessionalBillInput){
		"missing bill number": func(in *billing.ProfessionalBillInput) { in.BillNumber = " " },
		"zero claim":          func(in *billing.ProfessionalBillInput) { in.CurrentClaim = decimal.Zero },
		"negative previous":   func(in *billing.ProfessionalBillInput) { in.PreviousPayments = d("-1") },
		"negative other":      func(in *billing.ProfessionalBillInput) { in.OtherDeductions = d("-1") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := professionalInput()
			mutate(&in)
			_, err := billing.CalculateProfessionalBill(in)
			assert.ErrorIs(t, err, generic.ErrValidation)
		})
	}
}

func TestProfessionalBill_AuditRow(t *testing.T) {
	bill, err := billing.CalculateProfessionalBill(professionalInput())
	require.NoError(t, err)
	rec := build(t, bill)

	mem := store.NewMemory()
	_, err = generic.NewLedger(mem).RecordCalculation(context.Background(), bill, rec)
	require.NoError(t, err)

	rows := mem.Rows(generic.TableProfessionalBills)
	require.Len(t, rows, 1)
	assert.Equal(t, "109640.00", rows[0]["net_amount"])
	assert.Equal(t, "2360.00", rows[0]["tds_amount"])
	assert.Equal(t, rec.Reference, rows[0]["reference"])
	assert.Equal(t, rec.NetInWords, rows[0]["amount_in_words"])
	assert.Equal(t, "2025-01-15T10:00:00Z", rows[0]["created_at"])
}

// =============================================================================
// DEDUCTIONS TABLE
// =============================================================================

func TestDeductions_DefaultRatesOnBase(t *testing.T) {
	// GIVEN: A bill of 100000 and the preset percentages (2+18+1+3+5)
	// THEN: 29% is deducted and the groups add up to the total

	st, err := billing.CalculateDeductions(billing.DeductionsInput{
		Contractor: "Om Builders",
		BaseAmount: d("100000"),
		Rates:      billing.Rates{"security_deposit": d("2500"), "penalty": d("500")},
	})
	require.NoError(t, err)

	assert.True(t, d("2000").Equal(st.Result.Amount("tds")))
	assert.True(t, d("18000").Equal(st.Result.Amount("gst")))
	assert.True(t, d("32000").Equal(st.Result.TotalDeductions))
	assert.True(t, d("68000").Equal(st.Net()))
	assert.True(t, d("32").Equal(st.Result.DeductionPercent()))

	total := decimal.Zero
	for _, g := range st.Groups {
		total = total.Add(g.Total)
	}
	assert.True(t, st.Result.TotalDeductions.Equal(total))
	assert.Equal(t, "statutory", st.Groups[0].Name)
	assert.True(t, d("21000").Equal(st.Groups[0].Total))
	assert.True(t, d("10500").Equal(st.Groups[1].Total))
}

func TestDeductions_NegativeNetIsKept(t *testing.T) {
	st, err := billing.CalculateDeductions(billing.DeductionsInput{
		BaseAmount: d("1000"),
		Rates:      billing.Rates{"mobilization_advance": d("5000")},
	})
	require.NoError(t, err)
	assert.True(t, st.Result.IsNegative())

	rec := build(t, st)
	assert.True(t, rec.WordsFallback)
}

func TestDeductions_AuditBreakdownJSON(t *testing.T) {
	st, err := billing.CalculateDeductions(billing.DeductionsInput{BaseAmount: d("1000")})
	require.NoError(t, err)

	table, row := st.AuditRow(build(t, st))
	assert.Equal(t, generic.TableDeductionStatements, table)

	var items []map[string]string
	require.NoError(t, json.Unmarshal([]byte(row["breakdown_json"].(string)), &items))
	require.Len(t, items, 10)
	assert.Equal(t, "tds", items[0]["name"])
	assert.Equal(t, "20.00", items[0]["amount"])
}

// =============================================================================
// BILL NOTE, STAMP DUTY, DEVIATION
// =============================================================================

func TestBillNote(t *testing.T) {
	note, err := billing.CalculateBillNote(billing.BillNoteInput{Payee: "R. Sharma", Work: "Painting", Amount: d("1234.56")})
	require.NoError(t, err)
	rec := build(t, note)
	assert.Equal(t, "One Thousand Two Hundred and Thirty Four Rupees and Fifty Six Paise Only", rec.NetInWords)

	_, err = billing.CalculateBillNote(billing.BillNoteInput{Payee: "R. Sharma", Amount: d("10")})
	var verr *generic.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "work", verr.Field)
}

func TestStampDuty(t *testing.T) {
	duty, err := billing.CalculateStampDuty(billing.StampDutyInput{Amount: d("250000")})
	require.NoError(t, err)
	assert.True(t, d("1250").Equal(duty.Net()))
	assert.True(t, d("251250").Equal(duty.Result.GrossWithAdditions))

	duty, err = billing.CalculateStampDuty(billing.StampDutyInput{Amount: d("1000"), Rate: ptr("2")})
	require.NoError(t, err)
	assert.True(t, d("20").Equal(duty.Net()))

	_, err = billing.CalculateStampDuty(billing.StampDutyInput{Amount: d("1000"), Rate: ptr("11")})
	assert.ErrorIs(t, err, generic.ErrValidation)
	_, err = billing.CalculateStampDuty(billing.StampDutyInput{Amount: d("0")})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

func TestBillDeviation(t *testing.T) {
	dev, err := billing.CalculateBillDeviation(billing.BillDeviationInput{Amount: d("200000")})
	require.NoError(t, err)
	assert.True(t, d("210000").Equal(dev.Net()))

	dev, err = billing.CalculateBillDeviation(billing.BillDeviationInput{Amount: d("200000"), Rate: ptr("0")})
	require.NoError(t, err)
	assert.True(t, d("200000").Equal(dev.Net()))

	_, row := dev.AuditRow(build(t, dev))
	assert.Equal(t, "0.00", row["deviation_amount"])
}

// =============================================================================
// PROJECT DELAY
// =============================================================================

func TestProjectDelay_Report(t *testing.T) {
	p, err := billing.AnalyzeProjectDelay(billing.ProjectDelayInput{
		ProjectName:  "Bridge over Mahi",
		Planned:      generic.NewDate(2024, time.January, 1),
		Actual:       generic.NewDate(2024, time.April, 10),
		ProjectValue: d("1000000"),
		PenaltyRate:  d("0.05"),
		Category:     "Material Shortage",
	})
	require.NoError(t, err)

	assert.True(t, d("50000").Equal(p.Net()))
	rec := build(t, p)
	assert.Equal(t, "100", rec.Input("delay_days").String())
	assert.Equal(t, "High", rec.Input("impact").Text())
	assert.Equal(t, "Penalty @ 0.05% per day x 100 days", rec.Breakdown[0].Label)
	assert.Equal(t, "Fifty Thousand Rupees Only", rec.NetInWords)
}

func TestProjectDelay_Early(t *testing.T) {
	p, err := billing.AnalyzeProjectDelay(billing.ProjectDelayInput{
		ProjectName:  "School building",
		Planned:      generic.NewDate(2024, time.May, 20),
		Actual:       generic.NewDate(2024, time.May, 10),
		ProjectValue: d("500000"),
		PenaltyRate:  d("0.1"),
	})
	require.NoError(t, err)

	rec := build(t, p)
	assert.Equal(t, "Project completed ahead of schedule by 10 days!", rec.Input("status").Text())
	assert.Equal(t, "Zero Rupees Only", rec.NetInWords)
	assert.Equal(t, "Other", rec.Input("delay_category").Text())
}

func TestProjectDelay_UnknownCategory(t *testing.T) {
	_, err := billing.AnalyzeProjectDelay(billing.ProjectDelayInput{
		ProjectName: "X",
		Planned:     generic.NewDate(2024, 1, 1),
		Actual:      generic.NewDate(2024, 1, 2),
		Category:    "Monsoon",
	})
	assert.ErrorIs(t, err, generic.ErrValidation)
}

// =============================================================================
// FINANCIAL PROGRESS
// =============================================================================

func portfolioInput() billing.FinancialProgressInput {
	return billing.FinancialProgressInput{
		Portfolio: "District roads 2024-25",
		Projects: []billing.ProjectBudget{
			{Name: "Highway Construction Phase-I", Budget: d("50000000"), Spent: d("35000000"), Progress: d("70"), Status: "In Progress"},
			{Name: "Bridge Construction", Budget: d("25000000"), Spent: d("15000000"), Progress: d("60"), Status: "In Progress"},
			{Name: "Road Widening Project", Budget: d("30000000"), Spent: d("18000000"), Progress: d("60"), Status: "In Progress"},
			{Name: "Drainage System", Budget: d("15000000"), Spent: d("12000000"), Progress: d("80"), Status: "Near Completion"},
		},
	}
}

func TestFinancialProgress_Portfolio(t *testing.T) {
	// GIVEN: Four projects whose progress matches their spend
	// WHEN: Calculating financial progress
	// THEN: Every efficiency is 1 and the totals cover the portfolio

	p, err := billing.CalculateFinancialProgress(portfolioInput())
	require.NoError(t, err)

	for _, pp := range p.Projects {
		assert.True(t, d("1").Equal(pp.Efficiency), pp.Name)
	}
	assert.True(t, d("15000000").Equal(p.Projects[0].Remaining))
	assert.True(t, d("120000000").Equal(p.TotalBudget))
	assert.True(t, d("80000000").Equal(p.TotalSpent))
	assert.True(t, d("40000000").Equal(p.TotalRemaining))
	assert.True(t, d("67.5").Equal(p.AverageProgress))

	rec := build(t, p)
	assert.Equal(t, "66.67%", rec.Input("budget_utilization").String())
	assert.Equal(t, "67.5%", rec.Input("average_progress").String())
	assert.Equal(t, "1.00", rec.Input("average_efficiency").Text())
	assert.Equal(t, "4", rec.Input("project_count").String())
	assert.Equal(t, "Twelve Crore Rupees Only", rec.NetInWords)
	require.Len(t, rec.Breakdown, 7)
	assert.Equal(t, "Drainage System (Near Completion): 80.00% utilized, 80% progress, efficiency 1.00", rec.Breakdown[3].Label)
	assert.Equal(t, "total_remaining", rec.Breakdown[5].Name)
}

func TestFinancialProgress_EfficiencyAndStatus(t *testing.T) {
	// GIVEN: One project half done on a quarter of its budget, one untouched
	// WHEN: Calculating without statuses
	// THEN: Efficiency is 2 and 0, and statuses follow progress

	p, err := billing.CalculateFinancialProgress(billing.FinancialProgressInput{
		Projects: []billing.ProjectBudget{
			{Name: "Culvert", Budget: d("1000"), Spent: d("250"), Progress: d("50")},
			{Name: "Compound wall", Budget: d("500"), Spent: d("0"), Progress: d("0")},
		},
	})
	require.NoError(t, err)

	assert.True(t, d("25").Equal(p.Projects[0].Utilization))
	assert.True(t, d("2").Equal(p.Projects[0].Efficiency))
	assert.Equal(t, billing.StatusInProgress, p.Projects[0].Status)
	assert.True(t, p.Projects[1].Efficiency.IsZero())
	assert.Equal(t, billing.StatusNotStarted, p.Projects[1].Status)
	assert.True(t, d("1").Equal(p.AverageEfficiency))

	table, row := p.AuditRow(build(t, p))
	assert.Equal(t, generic.TableFinancialProgress, table)
	assert.Equal(t, "16.67", row["budget_utilization"])
	assert.Equal(t, "1250.00", row["total_remaining"])
	assert.Equal(t, int64(2), row["project_count"])

	var items []map[string]string
	require.NoError(t, json.Unmarshal([]byte(row["projects_json"].(string)), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "2.00", items[0]["efficiency"])

	schema, err := generic.LookupTable(table)
	require.NoError(t, err)
	assert.NoError(t, schema.CheckRow(row))
}

func TestFinancialProgress_DerivedStatuses(t *testing.T) {
	for progress, want := range map[string]string{
		"0":   billing.StatusNotStarted,
		"0.5": billing.StatusInProgress,
		"79":  billing.StatusInProgress,
		"80":  billing.StatusNearCompletion,
		"100": billing.StatusCompleted,
	} {
		p, err := billing.CalculateFinancialProgress(billing.FinancialProgressInput{
			Projects: []billing.ProjectBudget{{Name: "P", Budget: d("100"), Spent: d("10"), Progress: d(progress)}},
		})
		require.NoError(t, err)
		assert.Equal(t, want, p.Projects[0].Status, progress)
	}
}

func TestFinancialProgress_Overspend(t *testing.T) {
	p, err := billing.CalculateFinancialProgress(billing.FinancialProgressInput{
		Projects: []billing.ProjectBudget{{Name: "Retaining wall", Budget: d("1000"), Spent: d("1200"), Progress: d("90")}},
	})
	require.NoError(t, err)

	assert.True(t, d("-200").Equal(p.TotalRemaining))
	assert.True(t, d("120").Equal(p.Utilization))
	assert.Equal(t, "0.75", generic.AmountText(p.AverageEfficiency))
}

func TestFinancialProgress_Validation(t *testing.T) {
	cases := map[string]func(*billing.FinancialProgressInput){
		"no projects":       func(in *billing.FinancialProgressInput) { in.Projects = nil },
		"blank name":        func(in *billing.FinancialProgressInput) { in.Projects[1].Name = " " },
		"zero budget":       func(in *billing.FinancialProgressInput) { in.Projects[0].Budget = d("0") },
		"negative spent":    func(in *billing.FinancialProgressInput) { in.Projects[2].Spent = d("-1") },
		"progress over 100": func(in *billing.FinancialProgressInput) { in.Projects[3].Progress = d("100.5") },
		"negative progress": func(in *billing.FinancialProgressInput) { in.Projects[0].Progress = d("-1") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := portfolioInput()
			mutate(&in)
			_, err := billing.CalculateFinancialProgress(in)
			assert.ErrorIs(t, err, generic.ErrValidation)
		})
	}

	in := portfolioInput()
	in.Projects[2].Spent = d("-1")
	_, err := billing.CalculateFinancialProgress(in)
	var verr *generic.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "projects[2].spent", verr.Field)
}

func TestPresets_Parse(t *testing.T) {
	presets := billing.Presets()
	assert.Contains(t, presets, "professional-bill")
	assert.Contains(t, presets, "deductions-table")
	assert.Len(t, billing.DeductionsTableSchedule().Rates, 10)
}
