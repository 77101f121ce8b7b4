package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/application/job"
	"github.com/corebank/loanengine/internal/domain/port"
	"github.com/corebank/loanengine/internal/domain/service"
)

// ApplyOverdueChargesUseCase assesses the product's overdue penalty on every
// installment past due beyond the grace window and refreshes the overdue
// markers. Reruns are idempotent: an installment is penalised at most once.
type ApplyOverdueChargesUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	runner    *job.Runner

	chargeEngine *service.ChargeEngine
}

// NewApplyOverdueChargesUseCase wires dependencies.
func NewApplyOverdueChargesUseCase(
	loanRepo port.LoanRepository,
	publisher port.EventPublisher,
	runner *job.Runner,
) *ApplyOverdueChargesUseCase {
	return &ApplyOverdueChargesUseCase{
		loanRepo:     loanRepo,
		publisher:    publisher,
		runner:       runner,
		chargeEngine: service.NewChargeEngine(),
	}
}

// Execute runs the overdue job across candidate loans.
func (uc *ApplyOverdueChargesUseCase) Execute(
	ctx context.Context,
	req dto.BatchRunRequest,
) (dto.BatchRunResponse, error) {
	ids, err := uc.loanRepo.ListOverdueCandidateIDs(ctx, req.TenantID, req.AsOf)
	if err != nil {
		return dto.BatchRunResponse{}, fmt.Errorf("list overdue candidates: %w", err)
	}

	var skipped atomic.Int64
	stats := uc.runner.Run(ctx, ids, func(ctx context.Context, loanID string) error {
		did, err := uc.assessOne(ctx, req.TenantID, loanID, req)
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

func (uc *ApplyOverdueChargesUseCase) assessOne(
	ctx context.Context,
	tenantID, loanID string,
	req dto.BatchRunRequest,
) (bool, error) {
	loan, err := uc.loanRepo.FindByID(ctx, tenantID, loanID)
	if err != nil {
		return false, fmt.Errorf("find loan: %w", err)
	}

	terms := loan.Terms()
	changed := false

	if terms.OverdueCharge != nil {
		charges, added, err := uc.chargeEngine.AssessOverdue(
			loan.Charges(), loan.Schedule(), *terms.OverdueCharge, req.AsOf)
		if err != nil {
			return false, fmt.Errorf("assess overdue charges: %w", err)
		}
		if added > 0 {
			charges, installments, err := uc.chargeEngine.Recalculate(charges, loan.Schedule(), terms.Currency)
			if err != nil {
				return false, fmt.Errorf("recalculate charges: %w", err)
			}
			loan = loan.ReplaceCharges(charges, installments, "", "overdue-assessed", req.AsOf)
			changed = true
		}
	}

	refreshed := loan.RefreshOverdue(req.AsOf)
	before, after := loan.OverdueSince(), refreshed.OverdueSince()
	if (before == nil) != (after == nil) || (before != nil && after != nil && !before.Equal(*after)) {
		changed = true
	}
	loan = refreshed

	if !changed {
		return false, nil
	}
	if _, err := finalize(ctx, uc.loanRepo, nil, uc.publisher, loan); err != nil {
		return false, err
	}
	return true, nil
}
