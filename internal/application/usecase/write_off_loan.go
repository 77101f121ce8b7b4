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

// WriteOffLoanUseCase removes the remaining outstanding as a credit loss and
// freezes the loan in CLOSED_WRITTEN_OFF.
type WriteOffLoanUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	locks       *job.LockRegistry

	accounting *service.AccountingEventGenerator
}

// NewWriteOffLoanUseCase wires dependencies.
func NewWriteOffLoanUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	locks *job.LockRegistry,
) *WriteOffLoanUseCase {
	return &WriteOffLoanUseCase{
		loanRepo:    loanRepo,
		journalRepo: journalRepo,
		publisher:   publisher,
		locks:       locks,
		accounting:  service.NewAccountingEventGenerator(),
	}
}

// Execute writes the loan off.
func (uc *WriteOffLoanUseCase) Execute(
	ctx context.Context,
	req dto.LoanCommandRequest,
) (dto.TransactionResult, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("find loan: %w", err)
	}

	result := service.WriteOffAll(loan.Schedule(), loan.Charges(), now)

	loan, err = loan.WriteOff(result.Transaction, result.Installments, result.Charges, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("write off loan: %w", err)
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
