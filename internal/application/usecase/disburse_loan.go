package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/application/job"
	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/port"
	"github.com/corebank/loanengine/internal/domain/service"
	"github.com/corebank/loanengine/internal/domain/valueobject"
)

// DisburseLoanUseCase pays out a tranche: it generates the schedule over all
// tranches, redistributes charges, posts the disbursement journal entry and,
// for linked loans, deposits the money into the savings account.
type DisburseLoanUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	locks       *job.LockRegistry
	savings     port.SavingsService

	generator    *service.ScheduleGenerator
	chargeEngine *service.ChargeEngine
	accounting   *service.AccountingEventGenerator
}

// NewDisburseLoanUseCase wires dependencies.
func NewDisburseLoanUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	locks *job.LockRegistry,
	savings port.SavingsService,
) *DisburseLoanUseCase {
	return &DisburseLoanUseCase{
		loanRepo:     loanRepo,
		journalRepo:  journalRepo,
		publisher:    publisher,
		locks:        locks,
		savings:      savings,
		generator:    service.NewScheduleGenerator(),
		chargeEngine: service.NewChargeEngine(),
		accounting:   service.NewAccountingEventGenerator(),
	}
}

// Execute disburses a tranche to cash or to the linked savings account.
func (uc *DisburseLoanUseCase) Execute(
	ctx context.Context,
	req dto.DisburseLoanRequest,
) (dto.TransactionResult, error) {
	release := uc.locks.Lock(req.LoanID)
	defer release()

	now := time.Now().UTC()

	loan, err := uc.loanRepo.FindByID(ctx, req.TenantID, req.LoanID)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("find loan: %w", err)
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = loan.ApprovedPrincipal()
	}
	tranche := model.Tranche{Date: req.DisbursementDate, Amount: amount}
	tranches := append(loan.Tranches(), tranche)

	terms := loan.Terms()
	schedule, err := uc.generator.Generate(service.ScheduleTerms{
		Currency:              terms.Currency,
		Tranches:              tranches,
		InterestRatePerPeriod: terms.InterestRatePerPeriod,
		NumberOfRepayments:    terms.NumberOfRepayments,
		RepaymentEvery:        terms.RepaymentEvery,
		Frequency:             terms.Frequency,
		Amortization:          terms.Amortization,
		InterestType:          terms.InterestType,
		GraceOnPrincipal:      terms.GraceOnPrincipal,
		GraceOnInterest:       terms.GraceOnInterest,
	})
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("generate schedule: %w", err)
	}

	charges, schedule, err := uc.chargeEngine.Recalculate(loan.Charges(), schedule, terms.Currency)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("recalculate charges: %w", err)
	}

	loan, txn, err := loan.Disburse(tranche, schedule, charges, now)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("disburse loan: %w", err)
	}

	if loan.LinkedSavingsID() != "" {
		if err := uc.savings.Deposit(ctx, loan.TenantID(), loan.LinkedSavingsID(), amount, tranche.Date); err != nil {
			return dto.TransactionResult{}, fmt.Errorf("deposit to linked savings: %w", err)
		}
	}

	entry, err := uc.accounting.EntryFor(loan.ID(), loan.TenantID(), terms.AccountingRule, terms.GLAccounts, txn)
	if err != nil {
		return dto.TransactionResult{}, fmt.Errorf("build journal entry: %w", err)
	}

	// ACCRUAL_UPFRONT recognises the full scheduled income at disbursement.
	var upfront *model.JournalEntry
	if terms.AccountingRule.Equal(valueobject.AccountingAccrualUpfront) {
		interest, fee := decimal.Zero, decimal.Zero
		for _, inst := range loan.Schedule() {
			interest = interest.Add(inst.Interest.Due)
			fee = fee.Add(inst.Fee.Due).Add(inst.Penalty.Due)
		}
		upfront, err = uc.accounting.UpfrontAccrualEntry(
			loan.ID(), loan.TenantID(), txn.ID, terms.GLAccounts, interest, fee, tranche.Date)
		if err != nil {
			return dto.TransactionResult{}, fmt.Errorf("build upfront accrual entry: %w", err)
		}
	}

	loan, err = finalize(ctx, uc.loanRepo, uc.journalRepo, uc.publisher, loan, entry, upfront)
	if err != nil {
		return dto.TransactionResult{}, err
	}
	return dto.TransactionResult{
		Loan:        toLoanResponse(loan),
		Transaction: toTransactionResponse(txn),
	}, nil
}

// UndoDisbursalUseCase rolls an active loan back to APPROVED, reversing its
// transactions, its journal entries and, for linked loans, the savings
// deposit the disbursement made.
type UndoDisbursalUseCase struct {
	loanRepo    port.LoanRepository
	journalRepo port.JournalRepository
	publisher   port.EventPublisher
	locks       *job.LockRegistry
	savings     port.SavingsService
}

// NewUndoDisbursalUseCase wires dependencies.
func NewUndoDisbursalUseCase(
	loanRepo port.LoanRepository,
	journalRepo port.JournalRepository,
	publisher port.EventPublisher,
	locks *job.LockRegistry,
	savings port.SavingsService,
) *UndoDisbursalUseCase {
	return &UndoDisbursalUseCase{
		loanRepo:    loanRepo,
		journalRepo: journalRepo,
		publisher:   publisher,
		locks:       locks,
		savings:     savings,
	}
}

// Execute undoes a disbursal before any repayment has been taken.
func (uc *UndoDisbursalUseCase) Execute(
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

	loan, reversedTxns, err := loan.UndoDisbursal(now)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("undo disbursal: %w", err)
	}

	// The disbursement money went into the linked savings account; pull it
	// back out so the account ends where it started.
	if loan.LinkedSavingsID() != "" {
		returned := decimal.Zero
		for _, txn := range reversedTxns {
			if txn.Type.Equal(valueobject.TxnDisbursement) {
				returned = returned.Add(txn.Amount)
			}
		}
		if returned.IsPositive() {
			if err := uc.savings.Withdraw(ctx, loan.TenantID(), loan.LinkedSavingsID(), returned, now); err != nil {
				return dto.LoanResponse{}, fmt.Errorf("withdraw from linked savings: %w", err)
			}
		}
	}

	// Each reversed transaction gets its journal entries flagged and offset.
	var journalUpdates []*model.JournalEntry
	for _, txn := range reversedTxns {
		entries, err := uc.journalRepo.FindByTransactionID(ctx, req.TenantID, txn.ID)
		if err != nil {
			return dto.LoanResponse{}, fmt.Errorf("find journal entries: %w", err)
		}
		for _, entry := range entries {
			if entry.Reversed() {
				continue
			}
			flagged, reversal, err := entry.Reverse(now)
			if err != nil {
				return dto.LoanResponse{}, fmt.Errorf("reverse journal entry: %w", err)
			}
			journalUpdates = append(journalUpdates, &flagged, &reversal)
		}
	}

	loan, err = finalize(ctx, uc.loanRepo, uc.journalRepo, uc.publisher, loan, journalUpdates...)
	if err != nil {
		return dto.LoanResponse{}, err
	}
	return toLoanResponse(loan), nil
}
