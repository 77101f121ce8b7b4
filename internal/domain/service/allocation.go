package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/valueobject"
)

// AllocationResult carries the outcome of running a payment, refund or
// settlement through an allocation strategy: the updated schedule and charge
// state plus the transaction with its component split.
type AllocationResult struct {
	Installments []model.Installment
	Charges      []model.LoanCharge
	Transaction  model.LoanTransaction
}

// PaymentAllocator distributes a repayment across the schedule's component
// portions. Implementations differ only in component ordering.
type PaymentAllocator interface {
	Name() string
	Allocate(
		installments []model.Installment,
		charges []model.LoanCharge,
		amount decimal.Decimal,
		date time.Time,
	) (AllocationResult, error)
}

// DefaultAllocator walks installments earliest-due-first and within each
// period consumes penalty, then fee, then interest, then principal. Cash
// beyond total outstanding is retained as overpayment.
type DefaultAllocator struct{}

func (DefaultAllocator) Name() string { return "penalties-fees-interest-principal" }

func (DefaultAllocator) Allocate(
	installments []model.Installment,
	charges []model.LoanCharge,
	amount decimal.Decimal,
	date time.Time,
) (AllocationResult, error) {
	order := []model.Component{
		model.ComponentPenalty,
		model.ComponentFee,
		model.ComponentInterest,
		model.ComponentPrincipal,
	}
	return allocateInOrder(installments, charges, amount, date, order)
}

// RBIAllocator follows the Reserve Bank of India ordering: within each
// period interest is cleared before principal, and charges come last.
type RBIAllocator struct{}

func (RBIAllocator) Name() string { return "rbi-india" }

func (RBIAllocator) Allocate(
	installments []model.Installment,
	charges []model.LoanCharge,
	amount decimal.Decimal,
	date time.Time,
) (AllocationResult, error) {
	order := []model.Component{
		model.ComponentInterest,
		model.ComponentPrincipal,
		model.ComponentPenalty,
		model.ComponentFee,
	}
	return allocateInOrder(installments, charges, amount, date, order)
}

// AllocatorByName resolves a strategy name to its implementation; unknown
// names fall back to the default strategy.
func AllocatorByName(name string) PaymentAllocator {
	if name == (RBIAllocator{}).Name() {
		return RBIAllocator{}
	}
	return DefaultAllocator{}
}

func allocateInOrder(
	installments []model.Installment,
	charges []model.LoanCharge,
	amount decimal.Decimal,
	date time.Time,
	order []model.Component,
) (AllocationResult, error) {
	outInstallments := model.CopyInstallments(installments)
	outCharges := model.CopyCharges(charges)

	txn := model.NewLoanTransaction(valueobject.TxnRepayment, date, amount)
	remaining := amount

	for i := range outInstallments {
		if !remaining.IsPositive() {
			break
		}
		for _, component := range order {
			if !remaining.IsPositive() {
				break
			}
			applied := outInstallments[i].Portion(component).ApplyPayment(remaining)
			if !applied.IsPositive() {
				continue
			}
			remaining = remaining.Sub(applied)
			switch component {
			case model.ComponentPrincipal:
				txn.PrincipalPortion = txn.PrincipalPortion.Add(applied)
			case model.ComponentInterest:
				txn.InterestPortion = txn.InterestPortion.Add(applied)
			case model.ComponentFee:
				txn.FeePortion = txn.FeePortion.Add(applied)
				payCharges(outCharges, false, applied)
			case model.ComponentPenalty:
				txn.PenaltyPortion = txn.PenaltyPortion.Add(applied)
				payCharges(outCharges, true, applied)
			}
		}
	}

	txn.Overpayment = remaining
	return AllocationResult{
		Installments: outInstallments,
		Charges:      outCharges,
		Transaction:  txn,
	}, nil
}

// Refund reverses previously applied payments. The overpayment pool is drawn
// down first; the rest walks the schedule from the latest period backwards,
// undoing principal, then interest, then fee, then penalty. Refunding more
// than was ever paid is rejected.
func Refund(
	installments []model.Installment,
	charges []model.LoanCharge,
	amount, totalOverpaid decimal.Decimal,
	date time.Time,
) (AllocationResult, error) {
	outInstallments := model.CopyInstallments(installments)
	outCharges := model.CopyCharges(charges)

	txn := model.NewLoanTransaction(valueobject.TxnRefund, date, amount)
	remaining := amount

	fromOverpayment := decimal.Min(remaining, totalOverpaid)
	if fromOverpayment.IsNegative() {
		fromOverpayment = decimal.Zero
	}
	txn.Overpayment = fromOverpayment
	remaining = remaining.Sub(fromOverpayment)

	order := []model.Component{
		model.ComponentPrincipal,
		model.ComponentInterest,
		model.ComponentFee,
		model.ComponentPenalty,
	}
	for i := len(outInstallments) - 1; i >= 0 && remaining.IsPositive(); i-- {
		for _, component := range order {
			if !remaining.IsPositive() {
				break
			}
			undone := outInstallments[i].Portion(component).UndoPayment(remaining)
			if !undone.IsPositive() {
				continue
			}
			remaining = remaining.Sub(undone)
			switch component {
			case model.ComponentPrincipal:
				txn.PrincipalPortion = txn.PrincipalPortion.Add(undone)
			case model.ComponentInterest:
				txn.InterestPortion = txn.InterestPortion.Add(undone)
			case model.ComponentFee:
				txn.FeePortion = txn.FeePortion.Add(undone)
				refundCharges(outCharges, false, undone)
			case model.ComponentPenalty:
				txn.PenaltyPortion = txn.PenaltyPortion.Add(undone)
				refundCharges(outCharges, true, undone)
			}
		}
	}

	if remaining.IsPositive() {
		return AllocationResult{}, model.NewValidationError(model.CodeRefundExceedsPaid,
			"refund of %s exceeds refundable amount by %s", amount, remaining)
	}

	return AllocationResult{
		Installments: outInstallments,
		Charges:      outCharges,
		Transaction:  txn,
	}, nil
}

// SettleAll pays every outstanding component across the schedule in one
// transaction, used for foreclosure after the schedule has been trimmed to
// the settlement date.
func SettleAll(
	installments []model.Installment,
	charges []model.LoanCharge,
	date time.Time,
) AllocationResult {
	outInstallments := model.CopyInstallments(installments)
	outCharges := model.CopyCharges(charges)

	txn := model.NewLoanTransaction(valueobject.TxnRepayment, date, decimal.Zero)
	for i := range outInstallments {
		txn.PenaltyPortion = txn.PenaltyPortion.Add(payPortion(&outInstallments[i].Penalty))
		txn.FeePortion = txn.FeePortion.Add(payPortion(&outInstallments[i].Fee))
		txn.InterestPortion = txn.InterestPortion.Add(payPortion(&outInstallments[i].Interest))
		txn.PrincipalPortion = txn.PrincipalPortion.Add(payPortion(&outInstallments[i].Principal))
	}
	payCharges(outCharges, false, txn.FeePortion)
	payCharges(outCharges, true, txn.PenaltyPortion)
	txn.Amount = txn.PortionTotal()

	return AllocationResult{
		Installments: outInstallments,
		Charges:      outCharges,
		Transaction:  txn,
	}
}

// WriteOffAll writes off every outstanding component across the schedule.
func WriteOffAll(
	installments []model.Installment,
	charges []model.LoanCharge,
	date time.Time,
) AllocationResult {
	outInstallments := model.CopyInstallments(installments)
	outCharges := model.CopyCharges(charges)

	txn := model.NewLoanTransaction(valueobject.TxnWriteOff, date, decimal.Zero)
	for i := range outInstallments {
		txn.PenaltyPortion = txn.PenaltyPortion.Add(outInstallments[i].Penalty.WriteOff())
		txn.FeePortion = txn.FeePortion.Add(outInstallments[i].Fee.WriteOff())
		txn.InterestPortion = txn.InterestPortion.Add(outInstallments[i].Interest.WriteOff())
		txn.PrincipalPortion = txn.PrincipalPortion.Add(outInstallments[i].Principal.WriteOff())
	}
	for i := range outCharges {
		outCharges[i].Waive()
	}
	txn.Amount = txn.PortionTotal()

	return AllocationResult{
		Installments: outInstallments,
		Charges:      outCharges,
		Transaction:  txn,
	}
}

// WaiveInterest waives up to amount of outstanding interest, earliest period
// first, and returns the non-cash transaction recording it.
func WaiveInterest(
	installments []model.Installment,
	amount decimal.Decimal,
	date time.Time,
) (AllocationResult, error) {
	if !amount.IsPositive() {
		return AllocationResult{}, model.NewValidationError(model.CodeAmountNotPositive,
			"waiver amount must be positive, got %s", amount)
	}
	outInstallments := model.CopyInstallments(installments)

	txn := model.NewLoanTransaction(valueobject.TxnWaiveInterest, date, amount)
	remaining := amount
	for i := range outInstallments {
		if !remaining.IsPositive() {
			break
		}
		waived := outInstallments[i].Interest.ApplyWaiver(remaining)
		remaining = remaining.Sub(waived)
		txn.InterestPortion = txn.InterestPortion.Add(waived)
	}
	txn.Amount = txn.InterestPortion

	return AllocationResult{Installments: outInstallments, Transaction: txn}, nil
}

func payPortion(p *model.Portion) decimal.Decimal {
	return p.ApplyPayment(p.Outstanding())
}

// payCharges settles charge balances earliest-attached-first to keep the
// charge ledger in step with the fee and penalty portions.
func payCharges(charges []model.LoanCharge, penalty bool, amount decimal.Decimal) {
	remaining := amount
	for i := range charges {
		if !remaining.IsPositive() {
			return
		}
		if charges[i].IsPenalty != penalty {
			continue
		}
		remaining = remaining.Sub(charges[i].Pay(remaining))
	}
}

func refundCharges(charges []model.LoanCharge, penalty bool, amount decimal.Decimal) {
	remaining := amount
	for i := len(charges) - 1; i >= 0 && remaining.IsPositive(); i-- {
		if charges[i].IsPenalty != penalty {
			continue
		}
		remaining = remaining.Sub(charges[i].Refund(remaining))
	}
}
