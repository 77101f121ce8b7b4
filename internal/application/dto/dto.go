package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// SubmitLoanRequest carries the data needed to open a loan application.
type SubmitLoanRequest struct {
	TenantID        string          `json:"tenant_id"`
	ClientID        string          `json:"client_id"`
	ProductID       string          `json:"product_id"`
	Principal       decimal.Decimal `json:"principal"`
	LinkedSavingsID string          `json:"linked_savings_id,omitempty"`
	SubmittedOn     time.Time       `json:"submitted_on"`
}

// LoanCommandRequest identifies a loan for a parameterless lifecycle command.
type LoanCommandRequest struct {
	TenantID string `json:"tenant_id"`
	LoanID   string `json:"loan_id"`
}

// DisburseLoanRequest carries the data to pay out a tranche. A zero Amount
// disburses the approved principal.
type DisburseLoanRequest struct {
	TenantID         string          `json:"tenant_id"`
	LoanID           string          `json:"loan_id"`
	Amount           decimal.Decimal `json:"amount,omitempty"`
	DisbursementDate time.Time       `json:"disbursement_date"`
}

// RepaymentRequest carries the data for a repayment.
type RepaymentRequest struct {
	TenantID  string          `json:"tenant_id"`
	LoanID    string          `json:"loan_id"`
	Amount    decimal.Decimal `json:"amount"`
	ValueDate time.Time       `json:"value_date"`
}

// WaiveInterestRequest carries the amount of interest to waive.
type WaiveInterestRequest struct {
	TenantID string          `json:"tenant_id"`
	LoanID   string          `json:"loan_id"`
	Amount   decimal.Decimal `json:"amount"`
}

// AddChargeRequest attaches a fee or penalty to a loan.
type AddChargeRequest struct {
	TenantID           string          `json:"tenant_id"`
	LoanID             string          `json:"loan_id"`
	ChargeType         string          `json:"charge_type"`
	CalcType           string          `json:"calc_type"`
	AmountOrPercentage decimal.Decimal `json:"amount_or_percentage"`
	DueDate            time.Time       `json:"due_date,omitempty"`
	IsPenalty          bool            `json:"is_penalty"`
}

// UpdateChargeRequest changes an unpaid charge's amount or due date.
type UpdateChargeRequest struct {
	TenantID           string          `json:"tenant_id"`
	LoanID             string          `json:"loan_id"`
	ChargeID           string          `json:"charge_id"`
	AmountOrPercentage decimal.Decimal `json:"amount_or_percentage"`
	DueDate            time.Time       `json:"due_date,omitempty"`
}

// ChargeCommandRequest identifies a charge for delete, waive and pay.
type ChargeCommandRequest struct {
	TenantID string `json:"tenant_id"`
	LoanID   string `json:"loan_id"`
	ChargeID string `json:"charge_id"`
}

// RefundRequest returns previously paid money to the client.
type RefundRequest struct {
	TenantID  string          `json:"tenant_id"`
	LoanID    string          `json:"loan_id"`
	Amount    decimal.Decimal `json:"amount"`
	ValueDate time.Time       `json:"value_date"`
}

// ForecloseRequest settles a loan early in full on the given date.
type ForecloseRequest struct {
	TenantID       string    `json:"tenant_id"`
	LoanID         string    `json:"loan_id"`
	SettlementDate time.Time `json:"settlement_date"`
}

// BatchRunRequest drives the portfolio-wide jobs (accrual, overdue charges).
type BatchRunRequest struct {
	TenantID string    `json:"tenant_id"`
	AsOf     time.Time `json:"as_of"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// PortionResponse is one monetary component of an installment.
type PortionResponse struct {
	Due         decimal.Decimal `json:"due"`
	Paid        decimal.Decimal `json:"paid"`
	Waived      decimal.Decimal `json:"waived"`
	WrittenOff  decimal.Decimal `json:"written_off"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// InstallmentResponse is one repayment period of the schedule.
type InstallmentResponse struct {
	Period           int             `json:"period"`
	DueDate          time.Time       `json:"due_date"`
	Principal        PortionResponse `json:"principal"`
	Interest         PortionResponse `json:"interest"`
	Fee              PortionResponse `json:"fee"`
	Penalty          PortionResponse `json:"penalty"`
	TotalDue         decimal.Decimal `json:"total_due"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}

// ChargeResponse is the external representation of a loan charge.
type ChargeResponse struct {
	ID                 string          `json:"id"`
	ChargeType         string          `json:"charge_type"`
	CalcType           string          `json:"calc_type"`
	AmountOrPercentage decimal.Decimal `json:"amount_or_percentage"`
	DueDate            time.Time       `json:"due_date,omitempty"`
	IsPenalty          bool            `json:"is_penalty"`
	Amount             decimal.Decimal `json:"amount"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	AmountWaived       decimal.Decimal `json:"amount_waived"`
	AmountOutstanding  decimal.Decimal `json:"amount_outstanding"`
}

// TransactionResponse is the external representation of a loan transaction.
type TransactionResponse struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Date             time.Time       `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	PrincipalPortion decimal.Decimal `json:"principal_portion"`
	InterestPortion  decimal.Decimal `json:"interest_portion"`
	FeePortion       decimal.Decimal `json:"fee_portion"`
	PenaltyPortion   decimal.Decimal `json:"penalty_portion"`
	Overpayment      decimal.Decimal `json:"overpayment"`
	Reversed         bool            `json:"reversed"`
}

// LoanResponse is the external representation of a loan account.
type LoanResponse struct {
	ID                 string                `json:"id"`
	TenantID           string                `json:"tenant_id"`
	ClientID           string                `json:"client_id"`
	ProductID          string                `json:"product_id"`
	LinkedSavingsID    string                `json:"linked_savings_id,omitempty"`
	Status             string                `json:"status"`
	Currency           string                `json:"currency"`
	ApprovedPrincipal  decimal.Decimal       `json:"approved_principal"`
	PrincipalDisbursed decimal.Decimal       `json:"principal_disbursed"`
	TotalOutstanding   decimal.Decimal       `json:"total_outstanding"`
	TotalOverpaid      decimal.Decimal       `json:"total_overpaid"`
	OverdueSince       *time.Time            `json:"overdue_since,omitempty"`
	AccruedThrough     time.Time             `json:"accrued_through,omitempty"`
	Schedule           []InstallmentResponse `json:"schedule,omitempty"`
	Charges            []ChargeResponse      `json:"charges,omitempty"`
	Transactions       []TransactionResponse `json:"transactions,omitempty"`
	SubmittedAt        time.Time             `json:"submitted_at"`
	DisbursedAt        time.Time             `json:"disbursed_at,omitempty"`
	ClosedAt           time.Time             `json:"closed_at,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// TransactionResult pairs the mutated loan with the transaction it recorded.
type TransactionResult struct {
	Loan        LoanResponse        `json:"loan"`
	Transaction TransactionResponse `json:"transaction"`
}

// BatchRunResponse summarises a portfolio-wide job run.
type BatchRunResponse struct {
	LoansProcessed int      `json:"loans_processed"`
	LoansSkipped   int      `json:"loans_skipped"`
	Failures       []string `json:"failures,omitempty"`
}
