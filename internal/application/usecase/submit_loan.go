package usecase

import (
	"context"
	"fmt"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/port"
)

// SubmitLoanUseCase opens a loan application against a product, freezing the
// product terms on the new loan.
type SubmitLoanUseCase struct {
	loanRepo    port.LoanRepository
	productRepo port.ProductRepository
	publisher   port.EventPublisher
}

// NewSubmitLoanUseCase wires dependencies.
func NewSubmitLoanUseCase(
	loanRepo port.LoanRepository,
	productRepo port.ProductRepository,
	publisher port.EventPublisher,
) *SubmitLoanUseCase {
	return &SubmitLoanUseCase{
		loanRepo:    loanRepo,
		productRepo: productRepo,
		publisher:   publisher,
	}
}

// Execute validates the requested principal against the product range and
// persists the application in SUBMITTED_AND_PENDING_APPROVAL state.
func (uc *SubmitLoanUseCase) Execute(
	ctx context.Context,
	req dto.SubmitLoanRequest,
) (dto.LoanResponse, error) {
	product, err := uc.productRepo.FindByID(ctx, req.TenantID, req.ProductID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find product: %w", err)
	}

	loan, err := model.NewLoan(
		req.TenantID, req.ClientID, product,
		req.Principal, req.LinkedSavingsID, req.SubmittedOn,
	)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("create loan: %w", err)
	}

	if err := uc.loanRepo.Save(ctx, loan); err != nil {
		return dto.LoanResponse{}, fmt.Errorf("save loan: %w", err)
	}
	return toLoanResponse(loan), nil
}
