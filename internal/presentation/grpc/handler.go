package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/application/usecase"
	"github.com/corebank/loanengine/internal/domain/model"
	pgRepo "github.com/corebank/loanengine/internal/infrastructure/postgres"
)

// UseCases bundles every application use case the handler dispatches to.
type UseCases struct {
	Submit        *usecase.SubmitLoanUseCase
	Approve       *usecase.ApproveLoanUseCase
	UndoApproval  *usecase.UndoApprovalUseCase
	Disburse      *usecase.DisburseLoanUseCase
	UndoDisbursal *usecase.UndoDisbursalUseCase
	Repay         *usecase.MakeRepaymentUseCase
	WaiveInterest *usecase.WaiveInterestUseCase
	AddCharge     *usecase.AddChargeUseCase
	UpdateCharge  *usecase.UpdateChargeUseCase
	DeleteCharge  *usecase.DeleteChargeUseCase
	WaiveCharge   *usecase.WaiveChargeUseCase
	PayCharge     *usecase.PayChargeUseCase
	Refund        *usecase.RefundUseCase
	Foreclose     *usecase.ForecloseLoanUseCase
	WriteOff      *usecase.WriteOffLoanUseCase
	GetLoan       *usecase.GetLoanUseCase
	ListLoans     *usecase.ListClientLoansUseCase
	Accrual       *usecase.RunAccrualUseCase
	Overdue       *usecase.ApplyOverdueChargesUseCase
}

// LoanHandler implements LoanServiceServer on top of the application layer.
type LoanHandler struct {
	uc     UseCases
	logger *slog.Logger
}

// NewLoanHandler creates a new handler with all use-case dependencies.
func NewLoanHandler(uc UseCases, logger *slog.Logger) *LoanHandler {
	return &LoanHandler{uc: uc, logger: logger}
}

var _ LoanServiceServer = (*LoanHandler)(nil)

// SubmitLoan opens a new loan application against a product.
func (h *LoanHandler) SubmitLoan(ctx context.Context, req *dto.SubmitLoanRequest) (*dto.LoanResponse, error) {
	resp, err := h.uc.Submit.Execute(ctx, *req)
	return reply(h.logger, "SubmitLoan", &resp, err)
}

// ApproveLoan approves a pending application.
func (h *LoanHandler) ApproveLoan(ctx context.Context, req *dto.LoanCommandRequest) (*dto.LoanResponse, error) {
	resp, err := h.uc.Approve.Execute(ctx, *req)
	return reply(h.logger, "ApproveLoan", &resp, err)
}

// UndoApproval returns an approved loan to pending.
func (h *LoanHandler) UndoApproval(ctx context.Context, req *dto.LoanCommandRequest) (*dto.LoanResponse, error) {
	resp, err := h.uc.UndoApproval.Execute(ctx, *req)
	return reply(h.logger, "UndoApproval", &resp, err)
}

// DisburseLoan pays out a tranche and activates the loan.
func (h *LoanHandler) DisburseLoan(ctx context.Context, req *dto.DisburseLoanRequest) (*dto.TransactionResult, error) {
	resp, err := h.uc.Disburse.Execute(ctx, *req)
	return reply(h.logger, "DisburseLoan", &resp, err)
}

// UndoDisbursal reverses all disbursements and returns the loan to APPROVED.
func (h *LoanHandler) UndoDisbursal(ctx context.Context, req *dto.LoanCommandRequest) (*dto.LoanResponse, error) {
	resp, err := h.uc.UndoDisbursal.Execute(ctx, *req)
	return reply(h.logger, "UndoDisbursal", &resp, err)
}

// MakeRepayment applies a repayment to the loan.
func (h *LoanHandler) MakeRepayment(ctx context.Context, req *dto.RepaymentRequest) (*dto.TransactionResult, error) {
	resp, err := h.uc.Repay.Execute(ctx, *req)
	return reply(h.logger, "MakeRepayment", &resp, err)
}

// WaiveInterest forgives part of the outstanding interest.
func (h *LoanHandler) WaiveInterest(ctx context.Context, req *dto.WaiveInterestRequest) (*dto.TransactionResult, error) {
	resp, err := h.uc.WaiveInterest.Execute(ctx, *req)
	return reply(h.logger, "WaiveInterest", &resp, err)
}

// AddCharge attaches a fee or penalty to the loan.
func (h *LoanHandler) AddCharge(ctx context.Context, req *dto.AddChargeRequest) (*dto.LoanResponse, error) {
	resp, err := h.uc.AddCharge.Execute(ctx, *req)
	return reply(h.logger, "AddCharge", &resp, err)
}

// UpdateCharge changes an unpaid charge.
func (h *LoanHandler) UpdateCharge(ctx context.Context, req *dto.UpdateChargeRequest) (*dto.LoanResponse, error) {
	resp, err := h.uc.UpdateCharge.Execute(ctx, *req)
	return reply(h.logger, "UpdateCharge", &resp, err)
}

// DeleteCharge removes an unpaid charge.
func (h *LoanHandler) DeleteCharge(ctx context.Context, req *dto.ChargeCommandRequest) (*dto.LoanResponse, error) {
	resp, err := h.uc.DeleteCharge.Execute(ctx, *req)
	return reply(h.logger, "DeleteCharge", &resp, err)
}

// WaiveCharge forgives a charge's outstanding balance.
func (h *LoanHandler) WaiveCharge(ctx context.Context, req *dto.ChargeCommandRequest) (*dto.TransactionResult, error) {
	resp, err := h.uc.WaiveCharge.Execute(ctx, *req)
	return reply(h.logger, "WaiveCharge", &resp, err)
}

// PayChargeFromSavings settles a charge from the linked savings account.
func (h *LoanHandler) PayChargeFromSavings(ctx context.Context, req *dto.ChargeCommandRequest) (*dto.TransactionResult, error) {
	resp, err := h.uc.PayCharge.Execute(ctx, *req)
	return reply(h.logger, "PayChargeFromSavings", &resp, err)
}

// Refund returns previously paid money to the client.
func (h *LoanHandler) Refund(ctx context.Context, req *dto.RefundRequest) (*dto.TransactionResult, error) {
	resp, err := h.uc.Refund.Execute(ctx, *req)
	return reply(h.logger, "Refund", &resp, err)
}

// ForecloseLoan settles the loan early in full.
func (h *LoanHandler) ForecloseLoan(ctx context.Context, req *dto.ForecloseRequest) (*dto.TransactionResult, error) {
	resp, err := h.uc.Foreclose.Execute(ctx, *req)
	return reply(h.logger, "ForecloseLoan", &resp, err)
}

// WriteOffLoan books the remaining outstanding as a credit loss.
func (h *LoanHandler) WriteOffLoan(ctx context.Context, req *dto.LoanCommandRequest) (*dto.TransactionResult, error) {
	resp, err := h.uc.WriteOff.Execute(ctx, *req)
	return reply(h.logger, "WriteOffLoan", &resp, err)
}

// GetLoan retrieves one loan with schedule, charges and history.
func (h *LoanHandler) GetLoan(ctx context.Context, req *dto.LoanCommandRequest) (*dto.LoanResponse, error) {
	resp, err := h.uc.GetLoan.Execute(ctx, *req)
	return reply(h.logger, "GetLoan", &resp, err)
}

// ListClientLoans retrieves all loans of one client.
func (h *LoanHandler) ListClientLoans(ctx context.Context, req *ListClientLoansRequest) (*ListClientLoansResponse, error) {
	loans, err := h.uc.ListLoans.Execute(ctx, req.TenantID, req.ClientID)
	return reply(h.logger, "ListClientLoans", &ListClientLoansResponse{Loans: loans}, err)
}

// RunAccrual runs the periodic income accrual job across the portfolio.
func (h *LoanHandler) RunAccrual(ctx context.Context, req *dto.BatchRunRequest) (*dto.BatchRunResponse, error) {
	resp, err := h.uc.Accrual.Execute(ctx, *req)
	return reply(h.logger, "RunAccrual", &resp, err)
}

// RunOverdueCharges runs the overdue penalty job across the portfolio.
func (h *LoanHandler) RunOverdueCharges(ctx context.Context, req *dto.BatchRunRequest) (*dto.BatchRunResponse, error) {
	resp, err := h.uc.Overdue.Execute(ctx, *req)
	return reply(h.logger, "RunOverdueCharges", &resp, err)
}

// reply converts a use-case result into the gRPC response, translating domain
// errors to status codes.
func reply[T any](logger *slog.Logger, method string, resp *T, err error) (*T, error) {
	if err == nil {
		return resp, nil
	}
	code := errCode(err)
	if code == codes.Internal {
		logger.Error("request failed", "method", method, "error", err)
	} else {
		logger.Debug("request rejected", "method", method, "code", code.String(), "error", err)
	}
	return nil, status.Error(code, err.Error())
}

func errCode(err error) codes.Code {
	var validationErr model.ValidationError
	var stateErr model.StateError
	switch {
	case errors.As(err, &validationErr):
		return codes.InvalidArgument
	case errors.As(err, &stateErr):
		return codes.FailedPrecondition
	case errors.Is(err, pgx.ErrNoRows):
		return codes.NotFound
	case errors.Is(err, pgRepo.ErrVersionConflict):
		return codes.Aborted
	default:
		return codes.Internal
	}
}
