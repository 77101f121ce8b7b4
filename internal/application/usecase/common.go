package usecase

import (
	"context"
	"fmt"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/port"
)

// finalize persists the mutated loan, stores any journal entries and
// publishes the buffered domain events. It returns the loan with its event
// buffer cleared.
func finalize(
	ctx context.Context,
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	loan model.Loan,
	entries ...*model.JournalEntry,
) (model.Loan, error) {
	if err := loanRepo.Save(ctx, loan); err != nil {
		return model.Loan{}, fmt.Errorf("save loan: %w", err)
	}

	var toSave []model.JournalEntry
	for _, e := range entries {
		if e != nil {
			toSave = append(toSave, *e)
		}
	}
	if len(toSave) > 0 {
		if err := journalRepo.Save(ctx, toSave...); err != nil {
			return model.Loan{}, fmt.Errorf("save journal entries: %w", err)
		}
	}

	if err := publisher.Publish(ctx, loan.DomainEvents()...); err != nil {
		return model.Loan{}, fmt.Errorf("publish events: %w", err)
	}
	return loan.ClearEvents(), nil
}

func toPortionResponse(p model.Portion) dto.PortionResponse {
	return dto.PortionResponse{
		Due:         p.Due,
		Paid:        p.Paid,
		Waived:      p.Waived,
		WrittenOff:  p.WrittenOff,
		Outstanding: p.Outstanding(),
	}
}

func toInstallmentResponse(inst model.Installment) dto.InstallmentResponse {
	return dto.InstallmentResponse{
		Period:           inst.Period,
		DueDate:          inst.DueDate,
		Principal:        toPortionResponse(inst.Principal),
		Interest:         toPortionResponse(inst.Interest),
		Fee:              toPortionResponse(inst.Fee),
		Penalty:          toPortionResponse(inst.Penalty),
		TotalDue:         inst.TotalDue(),
		TotalOutstanding: inst.TotalOutstanding(),
	}
}

func toChargeResponse(c model.LoanCharge) dto.ChargeResponse {
	return dto.ChargeResponse{
		ID:                 c.ID,
		ChargeType:         c.Type.String(),
		CalcType:           c.CalcType.String(),
		AmountOrPercentage: c.AmountOrPercentage,
		DueDate:            c.DueDate,
		IsPenalty:          c.IsPenalty,
		Amount:             c.Amount,
		AmountPaid:         c.AmountPaid,
		AmountWaived:       c.AmountWaived,
		AmountOutstanding:  c.AmountOutstanding,
	}
}

func toTransactionResponse(t model.LoanTransaction) dto.TransactionResponse {
	return dto.TransactionResponse{
		ID:               t.ID,
		Type:             t.Type.String(),
		Date:             t.Date,
		Amount:           t.Amount,
		PrincipalPortion: t.PrincipalPortion,
		InterestPortion:  t.InterestPortion,
		FeePortion:       t.FeePortion,
		PenaltyPortion:   t.PenaltyPortion,
		Overpayment:      t.Overpayment,
		Reversed:         t.Reversed,
	}
}

func toLoanResponse(loan model.Loan) dto.LoanResponse {
	schedule := loan.Schedule()
	installments := make([]dto.InstallmentResponse, len(schedule))
	for i, inst := range schedule {
		installments[i] = toInstallmentResponse(inst)
	}

	charges := loan.Charges()
	chargeResponses := make([]dto.ChargeResponse, len(charges))
	for i, c := range charges {
		chargeResponses[i] = toChargeResponse(c)
	}

	transactions := loan.Transactions()
	txnResponses := make([]dto.TransactionResponse, len(transactions))
	for i, t := range transactions {
		txnResponses[i] = toTransactionResponse(t)
	}

	return dto.LoanResponse{
		ID:                 loan.ID(),
		TenantID:           loan.TenantID(),
		ClientID:           loan.ClientID(),
		ProductID:          loan.ProductID(),
		LinkedSavingsID:    loan.LinkedSavingsID(),
		Status:             loan.Status().String(),
		Currency:           loan.Currency().Code(),
		ApprovedPrincipal:  loan.ApprovedPrincipal(),
		PrincipalDisbursed: loan.PrincipalDisbursed(),
		TotalOutstanding:   loan.TotalOutstanding(),
		TotalOverpaid:      loan.TotalOverpaid(),
		OverdueSince:       loan.OverdueSince(),
		AccruedThrough:     loan.AccruedThrough(),
		Schedule:           installments,
		Charges:            chargeResponses,
		Transactions:       txnResponses,
		SubmittedAt:        loan.SubmittedAt(),
		DisbursedAt:        loan.DisbursedAt(),
		ClosedAt:           loan.ClosedAt(),
		CreatedAt:          loan.CreatedAt(),
		UpdatedAt:          loan.UpdatedAt(),
	}
}
