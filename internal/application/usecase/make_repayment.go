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
)

// MakeRepaymentUseCase runs a repayment through the allocation strategy,
// recalculates the forward schedule where the product enables it, and posts
// the journal entry.
type MakeRepaymentUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	locks       *job.LockRegistry
	allocator   service.PaymentAllocator

	recalcEngine *service.RecalculationEngine
	chargeEngine *service.ChargeEngine
	accounting   *service.AccountingEventGenerator
}

// NewMakeRepaymentUseCase wires dependencies.
func NewMakeRepaymentUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	locks *job.LockRegistry,
	allocator service.PaymentAllocator,
) *MakeRepaymentUseCase {
	return &MakeRepaymentUseCase{
		loanRepo:     loanRepo,
		journalRepo:  journalRepo,
		publisher:    publisher,
		locks:        locks,
		allocator:    allocator,
		recalcEngine: service.NewRecalculationEngine(),
		chargeEngine: service.NewChargeEngine(),
		accounting:   service.NewAccountingEventGenerator(),
	}
}

// Execute applies a repayment to the loan.
func (uc *MakeRepaymentUseCase) Execute(
	ctx context.Context,
	req dto.RepaymentRequest,
) (dto.TransactionResult, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("find loan: %w", err)
	}
	if err := loan.ValidateMoneyMovement(req.Amount, req.ValueDate, now); err != nil {
		return dto.TransactionResult{}, fmt.Errorf("validate repayment: %w", err)
	}

	result, err := uc.allocator.Allocate(loan.Schedule(), loan.Charges(), req.Amount, req.ValueDate)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("allocate repayment: %w", err)
	}

	loan, err = loan.ApplyRepayment(result.Transaction, result.Installments, result.Charges, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("apply repayment: %w", err)
	}

	loan, err = uc.recalculateIfEnabled(loan, now)
	if err != nil {
		return dto.TransactionResult{}, err
	}
	loan = loan.RefreshOverdue(now)

	terms := loan.Terms()
	entry, err := uc.accounting.EntryFor(loan.ID(), loan.TenantID(), terms.AccountingRule, terms.GLAccounts, result.Transaction)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("build journal entry: %w", err)
	}

	loan, err = finalize(ctx, uc.loanRepo, uc.journalRepo, uc.publisher, loan, entry)
	if err != nil {
		return dto.TransactionResult{}, err
	}
	return dto.TransactionResult{
		Loan:        toLoanResponse(loan),
		Transaction: toTransactionResponse(result.Transaction),
	}, nil
}

func (uc *MakeRepaymentUseCase) recalculateIfEnabled(loan model.Loan, now time.Time) (model.Loan, error) {
	terms := loan.Terms()
	if !terms.Recalculation.Enabled {
		return loan, nil
	}

	installments, err := uc.recalcEngine.Recalculate(
		terms, loan.Tranches(), loan.Schedule(), loan.Transactions(), now)
	if err != nil {
		return model.Loan{}, fmt.Errorf("recalculate schedule: %w", err)
	}
	charges, installments, err := uc.chargeEngine.Recalculate(loan.Charges(), installments, terms.Currency)
	if err != nil {
		return model.Loan{}, fmt.Errorf("redistribute charges: %w", err)
	}
	loan, err = loan.ApplyRecalculation(installments, charges, now)
	if err != nil {
		return model.Loan{}, fmt.Errorf("apply recalculation: %w", err)
	}
	return loan, nil
}
