package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/application/job"
	"github.com/corebank/loanengine/internal/domain/port"
	"github.com/corebank/loanengine/internal/domain/service"
)

// WaiveInterestUseCase forgives outstanding interest without moving cash.
type WaiveInterestUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	locks       *job.LockRegistry

	accounting *service.AccountingEventGenerator
}

// NewWaiveInterestUseCase wires dependencies.
func NewWaiveInterestUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	locks *job.LockRegistry,
) *WaiveInterestUseCase {
	return &WaiveInterestUseCase{
		loanRepo:    loanRepo,
		journalRepo: journalRepo,
		publisher:   publisher,
		locks:       locks,
		accounting:  service.NewAccountingEventGenerator(),
	}
}

// Execute waives up to the requested amount of outstanding interest,
// earliest period first.
func (uc *WaiveInterestUseCase) Execute(
	ctx context.Context,
	req dto.WaiveInterestRequest,
) (dto.TransactionResult, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("find loan: %w", err)
	}

	result, err := service.WaiveInterest(loan.Schedule(), req.Amount, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("waive interest: %w", err)
	}

	loan, err = loan.ApplyWaiveInterest(result.Transaction, result.Installments, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("apply waiver: %w", err)
	}

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
