package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/application/job"
	"github.com/corebank/loanengine/internal/domain/port"
)

// ApproveLoanUseCase moves a pending application to APPROVED.
type ApproveLoanUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	locks     *job.LockRegistry
}

// NewApproveLoanUseCase wires dependencies.
func NewApproveLoanUseCase(loanRepo port.LoanRepository, publisher port.EventPublisher, locks *job.LockRegistry) *ApproveLoanUseCase {
	return &ApproveLoanUseCase{loanRepo: loanRepo, publisher: publisher, locks: locks}
}

// Execute approves a pending loan application.
func (uc *ApproveLoanUseCase) Execute(
	ctx context.Context,
	req dto.LoanCommandRequest,
) (dto.LoanResponse, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}

	loan, err = loan.Approve(now)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("approve loan: %w", err)
	}

	loan, err = finalize(ctx, uc.loanRepo, nil, uc.publisher, loan)
	if err != nil {
		return dto.LoanResponse{}, err
	}
	return toLoanResponse(loan), nil
}

// UndoApprovalUseCase rolls an approved loan back to pending.
type UndoApprovalUseCase struct {
	loanRepo  port.LoanRepository
	publisher port.EventPublisher
	locks     *job.LockRegistry
}

// NewUndoApprovalUseCase wires dependencies.
func NewUndoApprovalUseCase(loanRepo port.LoanRepository, publisher port.EventPublisher, locks *job.LockRegistry) *UndoApprovalUseCase {
	return &UndoApprovalUseCase{loanRepo: loanRepo, publisher: publisher, locks: locks}
}

// Execute rolls back an approval that has not been disbursed.
func (uc *UndoApprovalUseCase) Execute(
	ctx context.Context,
	req dto.LoanCommandRequest,
) (dto.LoanResponse, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}

	loan, err = loan.UndoApproval(now)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("undo approval: %w", err)
	}

	loan, err = finalize(ctx, uc.loanRepo, nil, uc.publisher, loan)
	if err != nil {
		return dto.LoanResponse{}, err
	}
	return toLoanResponse(loan), nil
}
