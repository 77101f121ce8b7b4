package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/application/job"
	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/port"
	"github.com/corebank/loanengine/internal/domain/service"
	"github.com/corebank/loanengine/internal/domain/valueobject"
)

// RunAccrualUseCase recognises interest and fee income for every active
// ACCRUAL_PERIODIC loan up to a cut-off date. The per-loan accrual
// high-water mark makes reruns idempotent.
type RunAccrualUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	runner      *job.Runner

	accounting *service.AccountingEventGenerator
}

// NewRunAccrualUseCase wires dependencies.
func NewRunAccrualUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	runner *job.Runner,
) *RunAccrualUseCase {
	return &RunAccrualUseCase{
		loanRepo:    loanRepo,
		journalRepo: journalRepo,
		publisher:   publisher,
		runner:      runner,
		accounting:  service.NewAccountingEventGenerator(),
	}
}

// Execute runs the accrual job across the active portfolio.
func (uc *RunAccrualUseCase) Execute(
	ctx context.Context,
	req dto.BatchRunRequest,
) (dto.BatchRunResponse, error) {
	ids, err := uc.loanRepo.ListActiveIDs(ctx, req.TenantID)
	if err != nil {
		return dto.BatchRunResponse{}, fmt.Errorf("list active loans: %w", err)
	}

	var skipped atomic.Int64
	stats := uc.runner.Run(ctx, ids, func(ctx context.Context, loanID string) error {
		did, err := uc.accrueOne(ctx, req.TenantID, loanID, req)
		if err != nil {
			return err
		}
		if !did {
			skipped.Add(1)
		}
		return nil
	})

	return dto.BatchRunResponse{
		LoansProcessed: stats.Processed - int(skipped.Load()),
		LoansSkipped:   stats.Skipped + int(skipped.Load()),
		Failures:       stats.Failures,
	}, nil
}

// accrueOne reports whether the loan actually accrued anything.
func (uc *RunAccrualUseCase) accrueOne(
	ctx context.Context,
	tenantID, loanID string,
	req dto.BatchRunRequest,
) (bool, error) {
	loan, err := uc.loanRepo.FindByID(ctx, tenantID, loanID)
	if err != nil {
		return false, fmt.Errorf("find loan: %w", err)
	}

	terms := loan.Terms()
	if !terms.AccountingRule.Equal(valueobject.AccountingAccrualPeriodic) {
		return false, nil
	}

	interest, fee, penalty, through := service.AccruableAmounts(
		loan.Schedule(), loan.AccruedThrough(), req.AsOf)
	total := interest.Add(fee).Add(penalty)
	if through.IsZero() || !total.IsPositive() {
		return false, nil
	}

	txn := model.NewLoanTransaction(valueobject.TxnAccrual, req.AsOf, total)
	txn.InterestPortion = interest
	txn.FeePortion = fee
	txn.PenaltyPortion = penalty

	loan, err = loan.ApplyAccrual(txn, through, req.AsOf)
	if err != nil {
		return false, fmt.Errorf("apply accrual: %w", err)
	}

	entry, err := uc.accounting.EntryFor(loan.ID(), loan.TenantID(), terms.AccountingRule, terms.GLAccounts, txn)
	if err != nil {
		return false, fmt.Errorf("build journal entry: %w", err)
	}

	if _, err := finalize(ctx, uc.loanRepo, uc.journalRepo, uc.publisher, loan, entry); err != nil {
		return false, err
	}
	return true, nil
}
