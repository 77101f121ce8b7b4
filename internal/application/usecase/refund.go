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

// RefundUseCase returns previously paid money to the client: the overpayment
// pool drains first, then payments are walked back latest-first.
type RefundUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	locks       *job.LockRegistry

	accounting *service.AccountingEventGenerator
}

// NewRefundUseCase wires dependencies.
func NewRefundUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	locks *job.LockRegistry,
) *RefundUseCase {
	return &RefundUseCase{
		loanRepo:    loanRepo,
		journalRepo: journalRepo,
		publisher:   publisher,
		locks:       locks,
		accounting:  service.NewAccountingEventGenerator(),
	}
}

// Execute refunds the requested amount.
func (uc *RefundUseCase) Execute(
	ctx context.Context,
	req dto.RefundRequest,
) (dto.TransactionResult, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("find loan: %w", err)
	}

	result, err := service.Refund(
		loan.Schedule(), loan.Charges(), req.Amount, loan.TotalOverpaid(), req.ValueDate)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("compute refund: %w", err)
	}

	loan, err = loan.ApplyRefund(result.Transaction, result.Installments, result.Charges, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("apply refund: %w", err)
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
