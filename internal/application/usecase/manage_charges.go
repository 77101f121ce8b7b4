package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/application/job"
	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/port"
	"github.com/corebank/loanengine/internal/domain/service"
	"github.com/corebank/loanengine/internal/domain/valueobject"
)

// AddChargeUseCase attaches a fee or penalty to a loan and redistributes the
// charge dues across the schedule. Back-dated charges landing on settled
// periods are accepted; the affected period simply becomes unsettled again.
type AddChargeUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	locks     *job.LockRegistry

	chargeEngine *service.ChargeEngine
}

// NewAddChargeUseCase wires dependencies.
func NewAddChargeUseCase(loanRepo port.LoanRepository, publisher port.EventPublisher, locks *job.LockRegistry) *AddChargeUseCase {
	return &AddChargeUseCase{loanRepo: loanRepo, publisher: publisher, locks: locks, chargeEngine: service.NewChargeEngine()}
}

// Execute attaches a new charge.
func (uc *AddChargeUseCase) Execute(
	ctx context.Context,
	req dto.AddChargeRequest,
) (dto.LoanResponse, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}

	chargeType, err := valueobject.NewChargeType(req.ChargeType)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("parse charge type: %w", err)
	}
	calcType, err := valueobject.NewChargeCalcType(req.CalcType)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("parse calculation type: %w", err)
	}

	charge, err := model.NewLoanCharge(chargeType, calcType, req.AmountOrPercentage, req.DueDate, req.IsPenalty)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("create charge: %w", err)
	}

	charges := append(loan.Charges(), charge)
	charges, installments, err := uc.chargeEngine.Recalculate(charges, loan.Schedule(), loan.Currency())
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("recalculate charges: %w", err)
	}

	loan = loan.ReplaceCharges(charges, installments, charge.ID, "added", now)

	loan, err = finalize(ctx, uc.loanRepo, nil, uc.publisher, loan)
	if err != nil {
		return dto.LoanResponse{}, err
	}
	return toLoanResponse(loan), nil
}

// UpdateChargeUseCase changes an untouched charge's amount or due date.
type UpdateChargeUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	locks     *job.LockRegistry

	chargeEngine *service.ChargeEngine
}

// NewUpdateChargeUseCase wires dependencies.
func NewUpdateChargeUseCase(loanRepo port.LoanRepository, publisher port.EventPublisher, locks *job.LockRegistry) *UpdateChargeUseCase {
	return &UpdateChargeUseCase{loanRepo: loanRepo, publisher: publisher, locks: locks, chargeEngine: service.NewChargeEngine()}
}

// Execute updates a charge that has no payments or waivers against it.
func (uc *UpdateChargeUseCase) Execute(
	ctx context.Context,
	req dto.UpdateChargeRequest,
) (dto.LoanResponse, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}

	charges := loan.Charges()
	idx, err := mutableChargeIndex(charges, req.ChargeID)
	if err != nil {
		return dto.LoanResponse{}, err
	}
	if req.AmountOrPercentage.IsPositive() {
		charges[idx].AmountOrPercentage = req.AmountOrPercentage
	}
	if !req.DueDate.IsZero() {
		charges[idx].DueDate = req.DueDate
	}

	charges, installments, err := uc.chargeEngine.Recalculate(charges, loan.Schedule(), loan.Currency())
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("recalculate charges: %w", err)
	}
	loan = loan.ReplaceCharges(charges, installments, req.ChargeID, "updated", now)

	loan, err = finalize(ctx, uc.loanRepo, nil, uc.publisher, loan)
	if err != nil {
		return dto.LoanResponse{}, err
	}
	return toLoanResponse(loan), nil
}

// DeleteChargeUseCase removes an untouched charge from the loan.
type DeleteChargeUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	locks     *job.LockRegistry

	chargeEngine *service.ChargeEngine
}

// NewDeleteChargeUseCase wires dependencies.
func NewDeleteChargeUseCase(loanRepo port.LoanRepository, publisher port.EventPublisher, locks *job.LockRegistry) *DeleteChargeUseCase {
	return &DeleteChargeUseCase{loanRepo: loanRepo, publisher: publisher, locks: locks, chargeEngine: service.NewChargeEngine()}
}

// Execute deletes a charge that has no payments or waivers against it.
func (uc *DeleteChargeUseCase) Execute(
	ctx context.Context,
	req dto.ChargeCommandRequest,
) (dto.LoanResponse, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}

	charges := loan.Charges()
	idx, err := mutableChargeIndex(charges, req.ChargeID)
	if err != nil {
		return dto.LoanResponse{}, err
	}
	charges = append(charges[:idx], charges[idx+1:]...)

	charges, installments, err := uc.chargeEngine.Recalculate(charges, loan.Schedule(), loan.Currency())
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("recalculate charges: %w", err)
	}
	loan = loan.ReplaceCharges(charges, installments, req.ChargeID, "deleted", now)

	loan, err = finalize(ctx, uc.loanRepo, nil, uc.publisher, loan)
	if err != nil {
		return dto.LoanResponse{}, err
	}
	return toLoanResponse(loan), nil
}

// WaiveChargeUseCase forgives a charge's unapplied balance.
type WaiveChargeUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	locks       *job.LockRegistry

	chargeEngine *service.ChargeEngine
	accounting   *service.AccountingEventGenerator
}

// NewWaiveChargeUseCase wires dependencies.
func NewWaiveChargeUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	locks *job.LockRegistry,
) *WaiveChargeUseCase {
	return &WaiveChargeUseCase{
		loanRepo:     loanRepo,
		journalRepo:  journalRepo,
		publisher:    publisher,
		locks:        locks,
		chargeEngine: service.NewChargeEngine(),
		accounting:   service.NewAccountingEventGenerator(),
	}
}

// Execute waives the outstanding balance of a charge.
func (uc *WaiveChargeUseCase) Execute(
	ctx context.Context,
	req dto.ChargeCommandRequest,
) (dto.TransactionResult, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("find loan: %w", err)
	}

	charges, installments, txn, err := uc.chargeEngine.Waive(loan.Charges(), loan.Schedule(), req.ChargeID, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("waive charge: %w", err)
	}

	loan, err = loan.ApplyChargeWaiver(txn, charges, installments, req.ChargeID, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("apply charge waiver: %w", err)
	}

	terms := loan.Terms()
	entry, err := uc.accounting.EntryFor(loan.ID(), loan.TenantID(), terms.AccountingRule, terms.GLAccounts, txn)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("build journal entry: %w", err)
	}

	loan, err = finalize(ctx, uc.loanRepo, uc.journalRepo, uc.publisher, loan, entry)
	if err != nil {
		return dto.TransactionResult{}, err
	}
	return dto.TransactionResult{
		Loan:        toLoanResponse(loan),
		Transaction: toTransactionResponse(txn),
	}, nil
}

// PayChargeUseCase settles a charge by withdrawing from the loan's linked
// savings account.
type PayChargeUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	locks       *job.LockRegistry
	savings     port.SavingsService

	chargeEngine *service.ChargeEngine
	accounting   *service.AccountingEventGenerator
}

// NewPayChargeUseCase wires dependencies.
func NewPayChargeUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	locks *job.LockRegistry,
	savings port.SavingsService,
) *PayChargeUseCase {
	return &PayChargeUseCase{
		loanRepo:     loanRepo,
		journalRepo:  journalRepo,
		publisher:    publisher,
		locks:        locks,
		savings:      savings,
		chargeEngine: service.NewChargeEngine(),
		accounting:   service.NewAccountingEventGenerator(),
	}
}

// Execute pays a charge's outstanding balance from the linked savings account.
func (uc *PayChargeUseCase) Execute(
	ctx context.Context,
	req dto.ChargeCommandRequest,
) (dto.TransactionResult, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("find loan: %w", err)
	}
	if loan.LinkedSavingsID() == "" {
		return dto.TransactionResult{}, fmt.Errorf("loan %s has no linked savings account", req.LoanID)
	}

	charges, installments, txn, err := uc.chargeEngine.Pay(loan.Charges(), loan.Schedule(), req.ChargeID, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("pay charge: %w", err)
	}

	if err := uc.savings.Withdraw(ctx, loan.TenantID(), loan.LinkedSavingsID(), txn.Amount, now); err != nil {
		return dto.TransactionResult{}, fmt.Errorf("withdraw from linked savings: %w", err)
	}

	loan, err = loan.ApplyRepayment(txn, installments, charges, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("apply charge payment: %w", err)
	}

	terms := loan.Terms()
	entry, err := uc.accounting.EntryFor(loan.ID(), loan.TenantID(), terms.AccountingRule, terms.GLAccounts, txn)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("build journal entry: %w", err)
	}

	loan, err = finalize(ctx, uc.loanRepo, uc.journalRepo, uc.publisher, loan, entry)
	if err != nil {
		return dto.TransactionResult{}, err
	}
	return dto.TransactionResult{
		Loan:        toLoanResponse(loan),
		Transaction: toTransactionResponse(txn),
	}, nil
}

// mutableChargeIndex finds a charge that can still be changed or removed.
func mutableChargeIndex(charges []model.LoanCharge, chargeID string) (int, error) {
	for i := range charges {
		if charges[i].ID != chargeID {
			continue
		}
		if charges[i].AmountPaid.IsPositive() || charges[i].AmountWaived.IsPositive() {
			return 0, model.NewValidationError(model.CodeChargeImmutable,
				"charge %s has payments or waivers and cannot be changed", chargeID)
		}
		return i, nil
	}
	return 0, model.NewValidationError(model.CodeChargeNotFound, "charge %s not found", chargeID)
}
