package usecase

import (
	"context"
	"fmt"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/domain/port"
)

// GetLoanUseCase retrieves one loan with its schedule, charges and history.
type GetLoanUseCase struct {
	loanRepo port.LoanRepository
}

// NewGetLoanUseCase wires dependencies.
func NewGetLoanUseCase(loanRepo port.LoanRepository) *GetLoanUseCase {
	return &GetLoanUseCase{loanRepo: loanRepo}
}

// Execute retrieves a loan by ID.
func (uc *GetLoanUseCase) Execute(
	ctx context.Context,
	req dto.LoanCommandRequest,
) (dto.LoanResponse, error) {
	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find loan: %w", err)
	}
	return toLoanResponse(loan), nil
}

// ListClientLoansUseCase retrieves all loans of one client.
type ListClientLoansUseCase struct {
	loanRepo port.LoanRepository
}

// NewListClientLoansUseCase wires dependencies.
func NewListClientLoansUseCase(loanRepo port.LoanRepository) *ListClientLoansUseCase {
	return &ListClientLoansUseCase{loanRepo: loanRepo}
}

// Execute retrieves the client's loans.
func (uc *ListClientLoansUseCase) Execute(
	ctx context.Context,
	tenantID, clientID string,
) ([]dto.LoanResponse, error) {
	loans, err := uc.loanRepo.FindByClientID(ctx, tenantID, clientID)
	if err != nil {
		return nil, fmt.Errorf("find loans: %w", err)
	}
	out := make([]dto.LoanResponse, len(loans))
	for i, loan := range loans {
		out[i] = toLoanResponse(loan)
	}
	return out, nil
}
