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

// ForecloseLoanUseCase settles a loan early in full: the schedule is trimmed
// to the settlement date with interest accrued per the product's pre-close
// strategy, everything outstanding is collected in one movement, and the loan
// freezes in FORECLOSED.
type ForecloseLoanUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	locks       *job.LockRegistry

	recalcEngine *service.RecalculationEngine
	accounting   *service.AccountingEventGenerator
}

// NewForecloseLoanUseCase wires dependencies.
func NewForecloseLoanUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	locks *job.LockRegistry,
) *ForecloseLoanUseCase {
	return &ForecloseLoanUseCase{
		loanRepo:     loanRepo,
		journalRepo:  journalRepo,
		publisher:    publisher,
		locks:        locks,
		recalcEngine: service.NewRecalculationEngine(),
		accounting:   service.NewAccountingEventGenerator(),
	}
}

// Execute forecloses the loan on the settlement date.
func (uc *ForecloseLoanUseCase) Execute(
	ctx context.Context,
	req dto.ForecloseRequest,
) (dto.TransactionResult, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("find loan: %w", err)
	}

	terms := loan.Terms()
	trimmed, err := uc.recalcEngine.ForeclosureSchedule(terms, loan.Schedule(), req.SettlementDate)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("trim schedule: %w", err)
	}

	result := service.SettleAll(trimmed, loan.Charges(), req.SettlementDate)

	loan, err = loan.Foreclose(result.Transaction, result.Installments, result.Charges, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("foreclose loan: %w", err)
	}

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
