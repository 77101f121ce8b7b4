package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const aggregateLoan = "Loan"

// LoanApproved is raised when a pending application is approved.
type LoanApproved struct {
	events.BaseEvent
	ApprovedPrincipal decimal.Decimal `json:"approved_principal"`
	Currency          string          `json:"currency"`
}

func NewLoanApproved(loanID, tenantID string, principal decimal.Decimal, currency string) LoanApproved {
	return LoanApproved{
		BaseEvent:         events.NewBaseEvent("loan.approved", loanID, aggregateLoan, tenantID),
		ApprovedPrincipal: principal,
		Currency:          currency,
	}
}

// LoanApprovalUndone is raised when an approval is rolled back.
type LoanApprovalUndone struct {
	events.BaseEvent
}

func NewLoanApprovalUndone(loanID, tenantID string) LoanApprovalUndone {
	return LoanApprovalUndone{
		BaseEvent: events.NewBaseEvent("loan.approval_undone", loanID, aggregateLoan, tenantID),
	}
}

// LoanDisbursed is raised when a tranche is paid out (to cash or a linked
// savings account).
type LoanDisbursed struct {
	events.BaseEvent
	Amount           decimal.Decimal `json:"amount"`
	DisbursementDate time.Time       `json:"disbursement_date"`
	ToSavingsAccount string          `json:"to_savings_account,omitempty"`
}

func NewLoanDisbursed(loanID, tenantID string, amount decimal.Decimal, date time.Time, savingsID string) LoanDisbursed {
	return LoanDisbursed{
		BaseEvent:        events.NewBaseEvent("loan.disbursed", loanID, aggregateLoan, tenantID),
		Amount:           amount,
		DisbursementDate: date,
		ToSavingsAccount: savingsID,
	}
}

// LoanDisbursalUndone is raised when a disbursal is rolled back.
type LoanDisbursalUndone struct {
	events.BaseEvent
	Amount decimal.Decimal `json:"amount"`
}

func NewLoanDisbursalUndone(loanID, tenantID string, amount decimal.Decimal) LoanDisbursalUndone {
	return LoanDisbursalUndone{
		BaseEvent: events.NewBaseEvent("loan.disbursal_undone", loanID, aggregateLoan, tenantID),
		Amount:    amount,
	}
}

// RepaymentReceived is raised for every repayment, with the component split
// the allocation strategy produced.
type RepaymentReceived struct {
	events.BaseEvent
	Amount      decimal.Decimal `json:"amount"`
	Principal   decimal.Decimal `json:"principal_portion"`
	Interest    decimal.Decimal `json:"interest_portion"`
	Fee         decimal.Decimal `json:"fee_portion"`
	Penalty     decimal.Decimal `json:"penalty_portion"`
	Overpayment decimal.Decimal `json:"overpayment"`
	ValueDate   time.Time       `json:"value_date"`
}

func NewRepaymentReceived(
	loanID, tenantID string,
	amount, principal, interest, fee, penalty, overpayment decimal.Decimal,
	valueDate time.Time,
) RepaymentReceived {
	return RepaymentReceived{
		BaseEvent:   events.NewBaseEvent("loan.repayment_received", loanID, aggregateLoan, tenantID),
		Amount:      amount,
		Principal:   principal,
		Interest:    interest,
		Fee:         fee,
		Penalty:     penalty,
		Overpayment: overpayment,
		ValueDate:   valueDate,
	}
}

// InterestWaived is raised when interest is waived without a cash movement.
type InterestWaived struct {
	events.BaseEvent
	Amount decimal.Decimal `json:"amount"`
}

func NewInterestWaived(loanID, tenantID string, amount decimal.Decimal) InterestWaived {
	return InterestWaived{
		BaseEvent: events.NewBaseEvent("loan.interest_waived", loanID, aggregateLoan, tenantID),
		Amount:    amount,
	}
}

// ChargeUpdated is raised on any charge mutation (attach, update, delete,
// waive, pay).
type ChargeUpdated struct {
	events.BaseEvent
	ChargeID string `json:"charge_id"`
	Action   string `json:"action"`
}

func NewChargeUpdated(loanID, tenantID, chargeID, action string) ChargeUpdated {
	return ChargeUpdated{
		BaseEvent: events.NewBaseEvent("loan.charge_updated", loanID, aggregateLoan, tenantID),
		ChargeID:  chargeID,
		Action:    action,
	}
}

// LoanRefunded is raised when a repayment is (partially) returned.
type LoanRefunded struct {
	events.BaseEvent
	Amount decimal.Decimal `json:"amount"`
}

func NewLoanRefunded(loanID, tenantID string, amount decimal.Decimal) LoanRefunded {
	return LoanRefunded{
		BaseEvent: events.NewBaseEvent("loan.refunded", loanID, aggregateLoan, tenantID),
		Amount:    amount,
	}
}

// LoanForeclosed is raised when a loan is settled early in full.
type LoanForeclosed struct {
	events.BaseEvent
	SettlementAmount decimal.Decimal `json:"settlement_amount"`
	ForeclosureDate  time.Time       `json:"foreclosure_date"`
}

func NewLoanForeclosed(loanID, tenantID string, amount decimal.Decimal, date time.Time) LoanForeclosed {
	return LoanForeclosed{
		BaseEvent:        events.NewBaseEvent("loan.foreclosed", loanID, aggregateLoan, tenantID),
		SettlementAmount: amount,
		ForeclosureDate:  date,
	}
}

// LoanWrittenOff is raised when the remaining outstanding is written off.
type LoanWrittenOff struct {
	events.BaseEvent
	Amount decimal.Decimal `json:"amount"`
}

func NewLoanWrittenOff(loanID, tenantID string, amount decimal.Decimal) LoanWrittenOff {
	return LoanWrittenOff{
		BaseEvent: events.NewBaseEvent("loan.written_off", loanID, aggregateLoan, tenantID),
		Amount:    amount,
	}
}

// LoanClosed is raised when every component outstanding reaches exactly zero.
type LoanClosed struct {
	events.BaseEvent
}

func NewLoanClosed(loanID, tenantID string) LoanClosed {
	return LoanClosed{
		BaseEvent: events.NewBaseEvent("loan.closed", loanID, aggregateLoan, tenantID),
	}
}

// LoanOverpaid is raised when cash beyond the total outstanding is retained.
type LoanOverpaid struct {
	events.BaseEvent
	Overpayment decimal.Decimal `json:"overpayment"`
}

func NewLoanOverpaid(loanID, tenantID string, overpayment decimal.Decimal) LoanOverpaid {
	return LoanOverpaid{
		BaseEvent:   events.NewBaseEvent("loan.overpaid", loanID, aggregateLoan, tenantID),
		Overpayment: overpayment,
	}
}

// AccrualPosted is raised when the periodic accrual job recognises income.
type AccrualPosted struct {
	events.BaseEvent
	Interest decimal.Decimal `json:"interest"`
	Fee      decimal.Decimal `json:"fee"`
	Penalty  decimal.Decimal `json:"penalty"`
	Through  time.Time       `json:"accrued_through"`
}

func NewAccrualPosted(loanID, tenantID string, interest, fee, penalty decimal.Decimal, through time.Time) AccrualPosted {
	return AccrualPosted{
		BaseEvent: events.NewBaseEvent("loan.accrual_posted", loanID, aggregateLoan, tenantID),
		Interest:  interest,
		Fee:       fee,
		Penalty:   penalty,
		Through:   through,
	}
}
