package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/valueobject"
	"github.com/corebank/loanengine/pkg/money"
)

// ChargeEngine computes charge amounts and distributes them across the
// repayment schedule. All methods are pure: they take the current charge and
// installment state and return updated copies.
type ChargeEngine struct{}

// NewChargeEngine creates a ChargeEngine.
func NewChargeEngine() *ChargeEngine {
	return &ChargeEngine{}
}

// Recalculate recomputes every charge's monetary amount against the current
// schedule and redistributes fee and penalty dues across the installments.
// Paid and waived history on both charges and installment portions is
// preserved; only the Due sides are re-derived.
func (e *ChargeEngine) Recalculate(
	charges []model.LoanCharge,
	installments []model.Installment,
	currency money.Currency,
) ([]model.LoanCharge, []model.Installment, error) {
	outCharges := model.CopyCharges(charges)
	outInstallments := model.CopyInstallments(installments)

	principalBase := decimal.Zero
	interestBase := decimal.Zero
	for _, inst := range outInstallments {
		principalBase = principalBase.Add(inst.Principal.Due)
		interestBase = interestBase.Add(inst.Interest.Due)
	}

	for i := range outInstallments {
		outInstallments[i].Fee.Due = decimal.Zero
		outInstallments[i].Penalty.Due = decimal.Zero
	}

	for ci := range outCharges {
		c := &outCharges[ci]
		shares, total := e.distribute(*c, outInstallments, principalBase, interestBase, currency)
		c.SetAmount(total)
		component := model.ComponentFee
		if c.IsPenalty {
			component = model.ComponentPenalty
		}
		for idx, share := range shares {
			p := outInstallments[idx].Portion(component)
			p.Due = p.Due.Add(share)
		}
	}

	return outCharges, outInstallments, nil
}

// distribute returns the per-installment shares (keyed by installment index)
// and the charge's total amount.
func (e *ChargeEngine) distribute(
	c model.LoanCharge,
	installments []model.Installment,
	principalBase, interestBase decimal.Decimal,
	currency money.Currency,
) (map[int]decimal.Decimal, decimal.Decimal) {
	shares := make(map[int]decimal.Decimal)
	if len(installments) == 0 {
		return shares, decimal.Zero
	}

	switch {
	case c.Type.Equal(valueobject.ChargeInstallmentFee):
		// One share per repayment period. Percentage charges are computed
		// against each period's own base, flat charges repeat per period.
		total := decimal.Zero
		for i := 1; i < len(installments); i++ {
			var share decimal.Decimal
			if c.CalcType.IsPercentage() {
				base := e.periodBase(c.CalcType, installments[i].Principal.Due, installments[i].Interest.Due)
				share = currency.Round(base.Mul(c.AmountOrPercentage))
			} else {
				share = currency.Round(c.AmountOrPercentage)
			}
			if share.IsPositive() {
				shares[i] = share
				total = total.Add(share)
			}
		}
		return shares, total

	case c.Type.Equal(valueobject.ChargeDisbursement):
		amount := e.singleAmount(c, principalBase, interestBase, currency)
		shares[0] = amount
		return shares, amount

	default:
		// SPECIFIED_DUE_DATE and OVERDUE_FEE fall into the first repayment
		// period whose due date is not before the charge's due date. A due
		// date past the final installment lands in the last period.
		idx := len(installments) - 1
		for i := 1; i < len(installments); i++ {
			if !installments[i].DueDate.Before(c.DueDate) {
				idx = i
				break
			}
		}
		// Overdue penalties are computed against the overdue period itself,
		// not the whole schedule.
		if c.Type.Equal(valueobject.ChargeOverdueFee) {
			principalBase = installments[idx].Principal.Due
			interestBase = installments[idx].Interest.Due
		}
		amount := e.singleAmount(c, principalBase, interestBase, currency)
		shares[idx] = amount
		return shares, amount
	}
}

func (e *ChargeEngine) singleAmount(
	c model.LoanCharge,
	principalBase, interestBase decimal.Decimal,
	currency money.Currency,
) decimal.Decimal {
	if !c.CalcType.IsPercentage() {
		return currency.Round(c.AmountOrPercentage)
	}
	base := e.periodBase(c.CalcType, principalBase, interestBase)
	return currency.Round(base.Mul(c.AmountOrPercentage))
}

func (e *ChargeEngine) periodBase(
	calc valueobject.ChargeCalcType,
	principal, interest decimal.Decimal,
) decimal.Decimal {
	switch {
	case calc.Equal(valueobject.ChargeCalcPctOfInterest):
		return interest
	case calc.Equal(valueobject.ChargeCalcPctOfAmountAndInterest):
		return principal.Add(interest)
	default:
		return principal
	}
}

// Waive removes a charge's unapplied balance, mirrors the waiver on the
// schedule's fee or penalty portions, and returns the non-cash transaction
// recording it. Waiving is one-way; an already settled charge is rejected.
func (e *ChargeEngine) Waive(
	charges []model.LoanCharge,
	installments []model.Installment,
	chargeID string,
	date time.Time,
) ([]model.LoanCharge, []model.Installment, model.LoanTransaction, error) {
	outCharges := model.CopyCharges(charges)
	outInstallments := model.CopyInstallments(installments)

	c := findCharge(outCharges, chargeID)
	if c == nil {
		return nil, nil, model.LoanTransaction{},
			model.NewValidationError(model.CodeChargeNotFound, "charge %s not found", chargeID)
	}
	if c.AmountOutstanding.IsZero() {
		return nil, nil, model.LoanTransaction{},
			model.NewValidationError(model.CodeChargeAlreadyWaived,
				"charge %s has no outstanding balance to waive", chargeID)
	}

	waived := c.Waive()
	component := model.ComponentFee
	if c.IsPenalty {
		component = model.ComponentPenalty
	}
	applyToSchedule(outInstallments, component, waived, func(p *model.Portion, amt decimal.Decimal) decimal.Decimal {
		return p.ApplyWaiver(amt)
	})

	txn := model.NewLoanTransaction(valueobject.TxnWaiveCharge, date, waived)
	if c.IsPenalty {
		txn.PenaltyPortion = waived
	} else {
		txn.FeePortion = waived
	}
	return outCharges, outInstallments, txn, nil
}

// Pay settles a charge's outstanding balance in full, mirrors the payment on
// the schedule, and returns the repayment transaction recording it.
func (e *ChargeEngine) Pay(
	charges []model.LoanCharge,
	installments []model.Installment,
	chargeID string,
	date time.Time,
) ([]model.LoanCharge, []model.Installment, model.LoanTransaction, error) {
	outCharges := model.CopyCharges(charges)
	outInstallments := model.CopyInstallments(installments)

	c := findCharge(outCharges, chargeID)
	if c == nil {
		return nil, nil, model.LoanTransaction{},
			model.NewValidationError(model.CodeChargeNotFound, "charge %s not found", chargeID)
	}
	if c.AmountOutstanding.IsZero() {
		return nil, nil, model.LoanTransaction{},
			model.NewValidationError(model.CodeChargeAlreadyWaived,
				"charge %s has no outstanding balance to pay", chargeID)
	}

	paid := c.Pay(c.AmountOutstanding)
	component := model.ComponentFee
	if c.IsPenalty {
		component = model.ComponentPenalty
	}
	applyToSchedule(outInstallments, component, paid, func(p *model.Portion, amt decimal.Decimal) decimal.Decimal {
		return p.ApplyPayment(amt)
	})

	txn := model.NewLoanTransaction(valueobject.TxnRepayment, date, paid)
	if c.IsPenalty {
		txn.PenaltyPortion = paid
	} else {
		txn.FeePortion = paid
	}
	return outCharges, outInstallments, txn, nil
}

// AssessOverdue attaches one overdue penalty per installment that is past due
// beyond the grace window and not yet assessed. It is idempotent: an existing
// overdue charge with a matching due date blocks reassessment, so the job can
// rerun safely.
func (e *ChargeEngine) AssessOverdue(
	charges []model.LoanCharge,
	installments []model.Installment,
	cfg model.OverdueChargeConfig,
	asOf time.Time,
) ([]model.LoanCharge, int, error) {
	outCharges := model.CopyCharges(charges)
	added := 0

	for i := 1; i < len(installments); i++ {
		inst := installments[i]
		cutoff := inst.DueDate.AddDate(0, 0, cfg.GraceDays)
		if !cutoff.Before(asOf) || inst.IsSettled() {
			continue
		}
		if hasOverdueCharge(outCharges, inst.DueDate) {
			continue
		}
		c, err := model.NewLoanCharge(
			valueobject.ChargeOverdueFee, cfg.CalcType, cfg.AmountOrPercentage, inst.DueDate, true)
		if err != nil {
			return nil, 0, err
		}
		outCharges = append(outCharges, c)
		added++
	}
	return outCharges, added, nil
}

func findCharge(charges []model.LoanCharge, id string) *model.LoanCharge {
	for i := range charges {
		if charges[i].ID == id {
			return &charges[i]
		}
	}
	return nil
}

func hasOverdueCharge(charges []model.LoanCharge, dueDate time.Time) bool {
	for _, c := range charges {
		if c.Type.Equal(valueobject.ChargeOverdueFee) && c.DueDate.Equal(dueDate) {
			return true
		}
	}
	return false
}

// applyToSchedule walks the schedule earliest-first applying amount to the
// named component until exhausted.
func applyToSchedule(
	installments []model.Installment,
	component model.Component,
	amount decimal.Decimal,
	apply func(*model.Portion, decimal.Decimal) decimal.Decimal,
) {
	remaining := amount
	for i := range installments {
		if !remaining.IsPositive() {
			return
		}
		applied := apply(installments[i].Portion(component), remaining)
		remaining = remaining.Sub(applied)
	}
}
