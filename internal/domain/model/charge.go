package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/valueobject"
)

// LoanCharge is a fee or penalty attached to a loan. The invariant
// Amount == AmountPaid + AmountWaived + AmountOutstanding holds at all times;
// every mutator re-derives AmountOutstanding.
type LoanCharge struct {
	ID                 string
	Type               valueobject.ChargeType
	CalcType           valueobject.ChargeCalcType
	AmountOrPercentage decimal.Decimal
	DueDate            time.Time // used by SPECIFIED_DUE_DATE and OVERDUE_FEE charges
	IsPenalty          bool

	Amount            decimal.Decimal
	AmountPaid        decimal.Decimal
	AmountWaived      decimal.Decimal
	AmountOutstanding decimal.Decimal
}

// NewLoanCharge creates a charge with a generated ID. The monetary Amount is
// computed later by the charge engine against the schedule.
func NewLoanCharge(
	chargeType valueobject.ChargeType,
	calcType valueobject.ChargeCalcType,
	amountOrPercentage decimal.Decimal,
	dueDate time.Time,
	isPenalty bool,
) (LoanCharge, error) {
	if chargeType.IsZero() {
		return LoanCharge{}, fmt.Errorf("charge type is required")
	}
	if calcType.IsZero() {
		return LoanCharge{}, fmt.Errorf("charge calculation type is required")
	}
	if !amountOrPercentage.IsPositive() {
		return LoanCharge{}, fmt.Errorf("charge amount or percentage must be positive")
	}
	if chargeType.Equal(valueobject.ChargeSpecifiedDueDate) && dueDate.IsZero() {
		return LoanCharge{}, fmt.Errorf("a due date is required for specified-due-date charges")
	}
	return LoanCharge{
		ID:                 uuid.New().String(),
		Type:               chargeType,
		CalcType:           calcType,
		AmountOrPercentage: amountOrPercentage,
		DueDate:            dueDate,
		IsPenalty:          isPenalty,
	}, nil
}

// SetAmount fixes the computed monetary amount, preserving any paid or waived
// history. The unapplied balance becomes outstanding.
func (c *LoanCharge) SetAmount(amount decimal.Decimal) {
	c.Amount = amount
	c.AmountOutstanding = amount.Sub(c.AmountPaid).Sub(c.AmountWaived)
	if c.AmountOutstanding.IsNegative() {
		c.AmountOutstanding = decimal.Zero
	}
}

// Pay settles up to the outstanding balance and returns the amount applied.
func (c *LoanCharge) Pay(amount decimal.Decimal) decimal.Decimal {
	applied := decimal.Min(amount, c.AmountOutstanding)
	if applied.IsNegative() {
		applied = decimal.Zero
	}
	c.AmountPaid = c.AmountPaid.Add(applied)
	c.AmountOutstanding = c.AmountOutstanding.Sub(applied)
	return applied
}

// Waive removes the unapplied balance only; paid history is preserved.
// Returns the amount waived. Waiving is one-way.
func (c *LoanCharge) Waive() decimal.Decimal {
	waived := c.AmountOutstanding
	c.AmountWaived = c.AmountWaived.Add(waived)
	c.AmountOutstanding = decimal.Zero
	return waived
}

// Refund reverses up to the previously paid amount, restoring it to
// outstanding, and returns the amount reversed.
func (c *LoanCharge) Refund(amount decimal.Decimal) decimal.Decimal {
	reversed := decimal.Min(amount, c.AmountPaid)
	if reversed.IsNegative() {
		reversed = decimal.Zero
	}
	c.AmountPaid = c.AmountPaid.Sub(reversed)
	c.AmountOutstanding = c.AmountOutstanding.Add(reversed)
	return reversed
}

// IsFullyPaid reports whether nothing remains outstanding or waivable.
func (c LoanCharge) IsFullyPaid() bool {
	return c.AmountOutstanding.IsZero()
}

// CopyCharges returns a deep copy of a charge slice.
func CopyCharges(in []LoanCharge) []LoanCharge {
	if in == nil {
		return nil
	}
	out := make([]LoanCharge, len(in))
	copy(out, in)
	return out
}
