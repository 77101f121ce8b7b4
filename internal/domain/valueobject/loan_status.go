package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// LoanStatus – immutable value object
// ---------------------------------------------------------------------------

// LoanStatus represents the lifecycle stage of a loan account.
type LoanStatus struct {
	value string
}

const (
	loanStatusSubmitted  = "SUBMITTED_AND_PENDING_APPROVAL"
	loanStatusApproved   = "APPROVED"
	loanStatusActive     = "ACTIVE"
	loanStatusClosedMet  = "CLOSED_OBLIGATIONS_MET"
	loanStatusWrittenOff = "CLOSED_WRITTEN_OFF"
	loanStatusOverpaid   = "OVERPAID"
	loanStatusForeclosed = "FORECLOSED"
)

var (
	LoanStatusSubmitted            = LoanStatus{value: loanStatusSubmitted}
	LoanStatusApproved             = LoanStatus{value: loanStatusApproved}
	LoanStatusActive               = LoanStatus{value: loanStatusActive}
	LoanStatusClosedObligationsMet = LoanStatus{value: loanStatusClosedMet}
	LoanStatusClosedWrittenOff     = LoanStatus{value: loanStatusWrittenOff}
	LoanStatusOverpaid             = LoanStatus{value: loanStatusOverpaid}
	LoanStatusForeclosed           = LoanStatus{value: loanStatusForeclosed}
)

var validLoanStatuses = map[string]LoanStatus{
	loanStatusSubmitted:  LoanStatusSubmitted,
	loanStatusApproved:   LoanStatusApproved,
	loanStatusActive:     LoanStatusActive,
	loanStatusClosedMet:  LoanStatusClosedObligationsMet,
	loanStatusWrittenOff: LoanStatusClosedWrittenOff,
	loanStatusOverpaid:   LoanStatusOverpaid,
	loanStatusForeclosed: LoanStatusForeclosed,
}

// NewLoanStatus creates a LoanStatus from a raw string.
func NewLoanStatus(s string) (LoanStatus, error) {
	v, ok := validLoanStatuses[s]
	if !ok {
		return LoanStatus{}, fmt.Errorf("invalid loan status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LoanStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LoanStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanStatus) Equal(other LoanStatus) bool { return s.value == other.value }

// IsClosed reports whether the loan can accept no further repayments.
func (s LoanStatus) IsClosed() bool {
	switch s.value {
	case loanStatusClosedMet, loanStatusWrittenOff, loanStatusForeclosed:
		return true
	}
	return false
}

// IsRepayable reports whether money movements may be applied to the loan.
func (s LoanStatus) IsRepayable() bool {
	return s.value == loanStatusActive || s.value == loanStatusOverpaid
}

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
