/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the calculators from the external API contract.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types returned to clients
  - *Response: Response wrappers

AMOUNTS & DATES:
  Amounts travel as strings so "1,25,000.50" and "Rs. 500" are accepted
  and no float ever touches a rupee value. Responses carry amounts as
  2-place decimal strings. Dates accept ISO and day-first forms
  (see generic.ParseDate).

VALIDATION:
  Presence and enum checks are struct tags (go-playground/validator).
  Range and cross-field checks stay in the calculators.

SEE ALSO:
  - handlers.go: Uses these types
  - calculations.go: Converts requests to calculator inputs
*/
package api

// =============================================================================
// CALCULATOR REQUESTS
// =============================================================================

type BillNoteRequest struct {
	Payee    string `json:"payee" validate:"required"`
	Work     string `json:"work" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
	BillDate string `json:"bill_date,omitempty"`
	Remarks  string `json:"remarks,omitempty"`
}

type ProfessionalBillRequest struct {
	BillNumber       string            `json:"bill_number" validate:"required"`
	Contractor       string            `json:"contractor" validate:"required"`
	Work             string            `json:"work" validate:"required"`
	CurrentClaim     string            `json:"current_claim" validate:"required"`
	PreviousPayments string            `json:"previous_payments,omitempty"`
	OtherDeductions  string            `json:"other_deductions,omitempty"`
	Rates            map[string]string `json:"rates,omitempty"`
	TDSBase          string            `json:"tds_base,omitempty" validate:"omitempty,oneof=original gross net"`
}

type DeductionsRequest struct {
	Contractor string            `json:"contractor,omitempty"`
	Work       string            `json:"work,omitempty"`
	BaseAmount string            `json:"base_amount" validate:"required"`
	Rates      map[string]string `json:"rates,omitempty"`
}

type DelayRequest struct {
	ProjectName  string `json:"project_name" validate:"required"`
	Contractor   string `json:"contractor,omitempty"`
	PlannedDate  string `json:"planned_date" validate:"required"`
	ActualDate   string `json:"actual_date" validate:"required"`
	ProjectValue string `json:"project_value" validate:"required"`
	PenaltyRate  string `json:"penalty_rate" validate:"required"`
	Category     string `json:"delay_category,omitempty"`
	Reason       string `json:"delay_reason,omitempty"`
	Mitigation   string `json:"mitigation,omitempty"`
}

type EMDRefundRequest struct {
	Payee          string `json:"payee" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Work           string `json:"work" validate:"required"`
	TenderNo       string `json:"tender_no,omitempty"`
	SubmissionDate string `json:"submission_date,omitempty"`
	RefundDate     string `json:"refund_date,omitempty"`
	PAN            string `json:"pan,omitempty"`
	BankDetails    string `json:"bank_details,omitempty"`
	Address        string `json:"address,omitempty"`
	Office         string `json:"office,omitempty"`
	FileNo         string `json:"file_no,omitempty"`
	ReceiptNo      string `json:"receipt_no,omitempty"`
	ProjectCode    string `json:"project_code,omitempty"`
	SanctionedBy   string `json:"sanctioned_by,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
}

type SecurityRefundRequest struct {
	Contractor         string `json:"contractor" validate:"required"`
	Work               string `json:"work" validate:"required"`
	AgreementNumber    string `json:"agreement_number,omitempty"`
	SecurityAmount     string `json:"security_amount" validate:"required"`
	PendingClaims      string `json:"pending_claims,omitempty"`
	DamageRecovery     string `json:"damage_recovery,omitempty"`
	CompletionDate     string `json:"completion_date,omitempty"`
	AsOfDate           string `json:"as_of_date,omitempty"`
	InterestApplicable bool   `json:"interest_applicable,omitempty"`
	InterestRate       string `json:"interest_rate,omitempty"`
	PerformanceRating  string `json:"performance_rating,omitempty" validate:"omitempty,oneof=Excellent Good Satisfactory 'Needs Improvement'"`
}

type StampDutyRequest struct {
	Payee         string `json:"payee,omitempty"`
	Work          string `json:"work,omitempty"`
	DocumentTitle string `json:"document_title,omitempty"`
	Amount        string `json:"amount" validate:"required"`
	Rate          string `json:"rate,omitempty"`
}

type BillDeviationRequest struct {
	Payee         string `json:"payee,omitempty"`
	Work          string `json:"work,omitempty"`
	Amount        string `json:"amount" validate:"required"`
	DeviationRate string `json:"deviation_rate,omitempty"`
}

type ProjectBudgetRequest struct {
	Name     string `json:"name" validate:"required"`
	Budget   string `json:"budget" validate:"required"`
	Spent    string `json:"spent" validate:"required"`
	Progress string `json:"progress" validate:"required"`
	Status   string `json:"status,omitempty"`
}

type FinancialProgressRequest struct {
	Portfolio string                 `json:"portfolio,omitempty"`
	Projects  []ProjectBudgetRequest `json:"projects" validate:"required,min=1,dive"`
}

// =============================================================================
// CALCULATION RESPONSE
// =============================================================================

// LineDTO is one breakdown line.
type LineDTO struct {
	Name   string `json:"name"`
	Label  string `json:"label"`
	Amount string `json:"amount"`
	Effect string `json:"effect"`
}

// PersistenceDTO reports the audit insert. Error is set when the insert
// failed; the calculation result is still valid.
type PersistenceDTO struct {
	Table string `json:"table"`
	ID    int64  `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

type CalculationResponse struct {
	Reference     string         `json:"reference"`
	Kind          string         `json:"kind"`
	Title         string         `json:"title"`
	Inputs        map[string]any `json:"inputs"`
	Breakdown     []LineDTO      `json:"breakdown"`
	Net           string         `json:"net"`
	NetFormatted  string         `json:"net_formatted"`
	NetInWords    string         `json:"net_in_words"`
	WordsFallback bool           `json:"words_fallback,omitempty"`
	Negative      bool           `json:"negative,omitempty"`
	CreatedAt     string         `json:"created_at"`
	Persistence   PersistenceDTO `json:"persistence"`
}

// =============================================================================
// BATCH
// =============================================================================

// ColumnsResponse is the detected mapping for an uploaded table.
type ColumnsResponse struct {
	Headers  []string   `json:"headers"`
	Mapping  MappingDTO `json:"mapping"`
	Complete bool       `json:"complete"`
	Rows     int        `json:"rows"`
	Sample   []RowDTO   `json:"sample,omitempty"`
}

type MappingDTO struct {
	Payee  string `json:"payee"`
	Amount string `json:"amount"`
	Work   string `json:"work"`
}

type RowDTO map[string]string

type BatchRowDTO struct {
	Row          int    `json:"row"`
	Status       string `json:"status"`
	Payee        string `json:"payee,omitempty"`
	Amount       string `json:"amount,omitempty"`
	Filename     string `json:"filename,omitempty"`
	Reference    string `json:"reference,omitempty"`
	Reason       string `json:"reason,omitempty"`
	PersistError string `json:"persist_error,omitempty"`
}

type BatchResponse struct {
	BatchID  string        `json:"batch_id"`
	Mapping  MappingDTO    `json:"mapping"`
	Total    int           `json:"total"`
	Rendered int           `json:"rendered"`
	Invalid  int           `json:"invalid"`
	Rows     []BatchRowDTO `json:"rows"`
}

// =============================================================================
// DASHBOARD, SCHEDULES, ERRORS
// =============================================================================

type TableSummaryDTO struct {
	Table string `json:"table"`
	Count int64  `json:"count"`
	Total string `json:"total"`
}

type DashboardResponse struct {
	Tables       []TableSummaryDTO `json:"tables"`
	Calculations int64             `json:"calculations"`
}

// ErrorResponse is returned for all errors.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Field   string            `json:"field,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
