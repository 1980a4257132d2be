package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pwdtools/calc-engine/billing"
	"github.com/pwdtools/calc-engine/document"
	"github.com/pwdtools/calc-engine/generic"
	"github.com/pwdtools/calc-engine/observability"
	"github.com/pwdtools/calc-engine/refunds"
	"github.com/shopspring/decimal"
)

// =============================================================================
// FIELD PARSING
// =============================================================================

// fields parses request strings, keeping the first error.
type fields struct {
	err error
}

func (p *fields) amount(field, raw string) decimal.Decimal {
	if p.err != nil {
		return decimal.Zero
	}
	d, err := generic.ParseAmount(field, raw)
	p.err = err
	return d
}

// optionalAmount is zero when raw is blank.
func (p *fields) optionalAmount(field, raw string) decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero
	}
	return p.amount(field, raw)
}

// optionalRate is nil when raw is blank, so the calculator default applies.
func (p *fields) optionalRate(field, raw string) *decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	d := p.amount(field, raw)
	return &d
}

func (p *fields) date(field, raw string) generic.Date {
	if p.err != nil {
		return generic.Date{}
	}
	d, err := generic.ParseDate(field, raw)
	p.err = err
	return d
}

func (p *fields) optionalDate(field, raw string) generic.Date {
	if strings.TrimSpace(raw) == "" {
		return generic.Date{}
	}
	return p.date(field, raw)
}

func (p *fields) rates(raw map[string]string) billing.Rates {
	if len(raw) == 0 {
		return nil
	}
	out := make(billing.Rates, len(raw))
	for name, v := range raw {
		out[name] = p.amount("rates."+name, v)
	}
	return out
}

// run finishes a calculator call: parse or calculator errors become a
// client response, a result goes through respond.
func run[T calculation](h *Handler, w http.ResponseWriter, r *http.Request, kind document.Kind, p *fields, calc func() (T, error)) {
	if p.err != nil {
		h.Metrics.ObserveCalculation(string(kind), observability.OutcomeInvalid)
		h.fail(w, p.err)
		return
	}
	c, err := calc()
	if err != nil {
		h.Metrics.ObserveCalculation(string(kind), observability.OutcomeInvalid)
		h.fail(w, err)
		return
	}
	h.respond(w, r, c)
}

// =============================================================================
// BILLS
// =============================================================================

// BillNote handles POST /api/bills/note.
func (h *Handler) BillNote(w http.ResponseWriter, r *http.Request) {
	var req BillNoteRequest
	if !h.decode(w, r, &req) {
		return
	}
	p := &fields{}
	in := billing.BillNoteInput{
		Payee:    req.Payee,
		Work:     req.Work,
		Amount:   p.amount("amount", req.Amount),
		BillDate: p.optionalDate("bill_date", req.BillDate),
		Remarks:  req.Remarks,
	}
	run(h, w, r, document.KindBillNote, p, func() (*billing.BillNote, error) {
		return billing.CalculateBillNote(in)
	})
}

// ProfessionalBill handles POST /api/bills/professional.
func (h *Handler) ProfessionalBill(w http.ResponseWriter, r *http.Request) {
	var req ProfessionalBillRequest
	if !h.decode(w, r, &req) {
		return
	}
	p := &fields{}
	in := billing.ProfessionalBillInput{
		BillNumber:       req.BillNumber,
		Contractor:       req.Contractor,
		Work:             req.Work,
		CurrentClaim:     p.amount("current_claim", req.CurrentClaim),
		PreviousPayments: p.optionalAmount("previous_payments", req.PreviousPayments),
		OtherDeductions:  p.optionalAmount("other_deductions", req.OtherDeductions),
		Rates:            p.rates(req.Rates),
		TDSBase:          generic.BaseSelector(req.TDSBase),
	}
	run(h, w, r, document.KindProfessionalBill, p, func() (*billing.ProfessionalBill, error) {
		return billing.CalculateProfessionalBill(in)
	})
}

// Deductions handles POST /api/deductions.
func (h *Handler) Deductions(w http.ResponseWriter, r *http.Request) {
	var req DeductionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	p := &fields{}
	in := billing.DeductionsInput{
		Contractor: req.Contractor,
		Work:       req.Work,
		BaseAmount: p.amount("base_amount", req.BaseAmount),
		Rates:      p.rates(req.Rates),
	}
	run(h, w, r, document.KindDeductionStatement, p, func() (*billing.DeductionStatement, error) {
		return billing.CalculateDeductions(in)
	})
}

// Delay handles POST /api/delays.
func (h *Handler) Delay(w http.ResponseWriter, r *http.Request) {
	var req DelayRequest
	if !h.decode(w, r, &req) {
		return
	}
	p := &fields{}
	in := billing.ProjectDelayInput{
		ProjectName:  req.ProjectName,
		Contractor:   req.Contractor,
		Planned:      p.date("planned_date", req.PlannedDate),
		Actual:       p.date("actual_date", req.ActualDate),
		ProjectValue: p.amount("project_value", req.ProjectValue),
		PenaltyRate:  p.amount("penalty_rate", req.PenaltyRate),
		Category:     req.Category,
		Reason:       req.Reason,
		Mitigation:   req.Mitigation,
	}
	run(h, w, r, document.KindDelayReport, p, func() (*billing.ProjectDelay, error) {
		return billing.AnalyzeProjectDelay(in)
	})
}

// StampDuty handles POST /api/stamp-duty.
func (h *Handler) StampDuty(w http.ResponseWriter, r *http.Request) {
	var req StampDutyRequest
	if !h.decode(w, r, &req) {
		return
	}
	p := &fields{}
	in := billing.StampDutyInput{
		Payee:         req.Payee,
		Work:          req.Work,
		DocumentTitle: req.DocumentTitle,
		Amount:        p.amount("amount", req.Amount),
		Rate:          p.optionalRate("rate", req.Rate),
	}
	run(h, w, r, document.KindStampDuty, p, func() (*billing.StampDuty, error) {
		return billing.CalculateStampDuty(in)
	})
}

// BillDeviation handles POST /api/bill-deviations.
func (h *Handler) BillDeviation(w http.ResponseWriter, r *http.Request) {
	var req BillDeviationRequest
	if !h.decode(w, r, &req) {
		return
	}
	p := &fields{}
	in := billing.BillDeviationInput{
		Payee:  req.Payee,
		Work:   req.Work,
		Amount: p.amount("amount", req.Amount),
		Rate:   p.optionalRate("deviation_rate", req.DeviationRate),
	}
	run(h, w, r, document.KindBillDeviation, p, func() (*billing.BillDeviation, error) {
		return billing.CalculateBillDeviation(in)
	})
}

// FinancialProgress handles POST /api/financial-progress.
func (h *Handler) FinancialProgress(w http.ResponseWriter, r *http.Request) {
	var req FinancialProgressRequest
	if !h.decode(w, r, &req) {
		return
	}
	p := &fields{}
	in := billing.FinancialProgressInput{
		Portfolio: req.Portfolio,
		Projects:  make([]billing.ProjectBudget, len(req.Projects)),
	}
	for i, pr := range req.Projects {
		prefix := "projects[" + strconv.Itoa(i) + "]."
		in.Projects[i] = billing.ProjectBudget{
			Name:     pr.Name,
			Budget:   p.amount(prefix+"budget", pr.Budget),
			Spent:    p.amount(prefix+"spent", pr.Spent),
			Progress: p.amount(prefix+"progress", strings.TrimSuffix(strings.TrimSpace(pr.Progress), "%")),
			Status:   pr.Status,
		}
	}
	run(h, w, r, document.KindFinancialProgress, p, func() (*billing.FinancialProgress, error) {
		return billing.CalculateFinancialProgress(in)
	})
}

// =============================================================================
// REFUNDS
// =============================================================================

// EMDRefund handles POST /api/emd-refunds.
func (h *Handler) EMDRefund(w http.ResponseWriter, r *http.Request) {
	var req EMDRefundRequest
	if !h.decode(w, r, &req) {
		return
	}
	p := &fields{}
	in := refunds.EMDRefundInput{
		Payee:          req.Payee,
		Amount:         p.amount("amount", req.Amount),
		Work:           req.Work,
		TenderNo:       req.TenderNo,
		SubmissionDate: p.optionalDate("submission_date", req.SubmissionDate),
		RefundDate:     p.optionalDate("refund_date", req.RefundDate),
		PAN:            req.PAN,
		BankDetails:    req.BankDetails,
		Address:        req.Address,
		Office:         req.Office,
		FileNo:         req.FileNo,
		ReceiptNo:      req.ReceiptNo,
		ProjectCode:    req.ProjectCode,
		SanctionedBy:   req.SanctionedBy,
		Remarks:        req.Remarks,
	}
	run(h, w, r, document.KindEMDRefund, p, func() (*refunds.EMDRefund, error) {
		return refunds.CalculateEMDRefund(in)
	})
}

// SecurityRefund handles POST /api/security-refunds.
func (h *Handler) SecurityRefund(w http.ResponseWriter, r *http.Request) {
	var req SecurityRefundRequest
	if !h.decode(w, r, &req) {
		return
	}
	p := &fields{}
	in := refunds.SecurityRefundInput{
		Contractor:         req.Contractor,
		Work:               req.Work,
		AgreementNumber:    req.AgreementNumber,
		SecurityAmount:     p.amount("security_amount", req.SecurityAmount),
		PendingClaims:      p.optionalAmount("pending_claims", req.PendingClaims),
		DamageRecovery:     p.optionalAmount("damage_recovery", req.DamageRecovery),
		CompletionDate:     p.optionalDate("completion_date", req.CompletionDate),
		AsOf:               p.optionalDate("as_of_date", req.AsOfDate),
		InterestApplicable: req.InterestApplicable,
		InterestRate:       p.optionalRate("interest_rate", req.InterestRate),
		Rating:             req.PerformanceRating,
	}
	run(h, w, r, document.KindSecurityRefund, p, func() (*refunds.SecurityRefund, error) {
		return refunds.CalculateSecurityRefund(in)
	})
}
