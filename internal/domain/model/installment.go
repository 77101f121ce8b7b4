package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Component identifies one of the four monetary components of an installment,
// in the order the default allocation strategy consumes them.
type Component string

const (
	ComponentPenalty   Component = "PENALTY"
	ComponentFee       Component = "FEE"
	ComponentInterest  Component = "INTEREST"
	ComponentPrincipal Component = "PRINCIPAL"
)

// Portion tracks one monetary component of an installment across its
// lifecycle. The invariant Due == Paid + Waived + WrittenOff + Outstanding()
// holds at all times.
type Portion struct {
	Due        decimal.Decimal
	Paid       decimal.Decimal
	Waived     decimal.Decimal
	WrittenOff decimal.Decimal
}

// Outstanding returns the amount still owed on this portion.
func (p Portion) Outstanding() decimal.Decimal {
	return p.Due.Sub(p.Paid).Sub(p.Waived).Sub(p.WrittenOff)
}

// ApplyPayment pays up to the outstanding amount and returns how much was applied.
func (p *Portion) ApplyPayment(amount decimal.Decimal) decimal.Decimal {
	applied := decimal.Min(amount, p.Outstanding())
	if applied.IsNegative() {
		applied = decimal.Zero
	}
	p.Paid = p.Paid.Add(applied)
	return applied
}

// ApplyWaiver waives up to the outstanding amount and returns how much was waived.
func (p *Portion) ApplyWaiver(amount decimal.Decimal) decimal.Decimal {
	waived := decimal.Min(amount, p.Outstanding())
	if waived.IsNegative() {
		waived = decimal.Zero
	}
	p.Waived = p.Waived.Add(waived)
	return waived
}

// UndoPayment reverses up to the previously paid amount (refund walk-back)
// and returns how much was reversed.
func (p *Portion) UndoPayment(amount decimal.Decimal) decimal.Decimal {
	reversed := decimal.Min(amount, p.Paid)
	if reversed.IsNegative() {
		reversed = decimal.Zero
	}
	p.Paid = p.Paid.Sub(reversed)
	return reversed
}

// WriteOff writes off the outstanding amount and returns it.
func (p *Portion) WriteOff() decimal.Decimal {
	amount := p.Outstanding()
	if amount.IsNegative() {
		return decimal.Zero
	}
	p.WrittenOff = p.WrittenOff.Add(amount)
	return amount
}

// Installment is one scheduled due-date bucket of the repayment plan.
// Period 0 is the conventional disbursement pseudo-period carrying
// disbursement-time charge totals.
type Installment struct {
	Period    int
	DueDate   time.Time
	Principal Portion
	Interest  Portion
	Fee       Portion
	Penalty   Portion
}

// Portion returns a pointer to the named component of the installment.
func (i *Installment) Portion(c Component) *Portion {
	switch c {
	case ComponentPrincipal:
		return &i.Principal
	case ComponentInterest:
		return &i.Interest
	case ComponentFee:
		return &i.Fee
	default:
		return &i.Penalty
	}
}

// TotalDue returns the sum of all component dues for the period.
func (i Installment) TotalDue() decimal.Decimal {
	return i.Principal.Due.Add(i.Interest.Due).Add(i.Fee.Due).Add(i.Penalty.Due)
}

// TotalOutstanding returns the sum of all component outstandings for the period.
func (i Installment) TotalOutstanding() decimal.Decimal {
	return i.Principal.Outstanding().
		Add(i.Interest.Outstanding()).
		Add(i.Fee.Outstanding()).
		Add(i.Penalty.Outstanding())
}

// IsSettled reports whether nothing remains outstanding on the period.
func (i Installment) IsSettled() bool {
	return i.TotalOutstanding().IsZero()
}

// IsOverdue reports whether the period is unpaid past its due date.
func (i Installment) IsOverdue(asOf time.Time) bool {
	return i.Period > 0 && i.DueDate.Before(asOf) && !i.IsSettled()
}

// CopyInstallments returns a deep copy of an installment slice. Portions are
// value types, so a shallow element copy is sufficient.
func CopyInstallments(in []Installment) []Installment {
	if in == nil {
		return nil
	}
	out := make([]Installment, len(in))
	copy(out, in)
	return out
}
