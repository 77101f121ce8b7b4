package model

import (
	"errors"
	"fmt"
)

// Domain errors are surfaced with stable machine-readable codes so callers
// can branch without string matching.

// ValidationError rejects an input before any state is touched.
type ValidationError struct {
	Code string
	Msg  string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewValidationError builds a ValidationError with a formatted message.
func NewValidationError(code, format string, args ...any) ValidationError {
	return ValidationError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// StateError rejects an operation invalid for the loan's current lifecycle
// state; the loan is left unchanged.
type StateError struct {
	Code string
	Msg  string
}

func (e StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// NewStateError builds a StateError with a formatted message.
func NewStateError(code, format string, args ...any) StateError {
	return StateError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Validation and state codes.
const (
	CodePaymentBeforeActivation = "error.loan.transaction.before.activation.date"
	CodeFutureDatedTransaction  = "error.loan.transaction.in.the.future"
	CodeAmountNotPositive       = "error.loan.transaction.amount.not.positive"
	CodeInvalidStateTransition  = "error.loan.invalid.state.transition"
	CodeChargeNotFound          = "error.loan.charge.not.found"
	CodeChargeAlreadyWaived     = "error.loan.charge.already.waived"
	CodeChargeImmutable         = "error.loan.charge.not.modifiable"
	CodeRefundExceedsPaid       = "error.loan.refund.exceeds.amount.paid"
	CodePrincipalOutOfRange     = "error.loan.principal.out.of.product.range"
)

// ErrScheduleInconsistent indicates a FATAL internal inconsistency (e.g. the
// sum of installment principal diverging from disbursed principal). Mutating
// operations must abort and leave prior persisted state intact.
var ErrScheduleInconsistent = errors.New("schedule state inconsistent with disbursed principal")
