package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank/loanengine/internal/application/dto"
	"github.com/corebank/loanengine/internal/application/job"
	"github.com/corebank/loanengine/internal/application/usecase"
	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/service"
	"github.com/corebank/loanengine/internal/domain/valueobject"
	"github.com/corebank/loanengine/internal/infrastructure/adapter"
	"github.com/corebank/loanengine/pkg/money"
	"github.com/corebank/loanengine/pkg/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cashProduct() model.LoanProduct {
	return model.LoanProduct{
		ID:                    "prod-cash",
		TenantID:              "tenant-1",
		Name:                  "Term Loan",
		ShortName:             "TL",
		Currency:              money.USD,
		MinPrincipal:          dec("100"),
		MaxPrincipal:          dec("50000"),
		InterestRatePerPeriod: dec("0.02"),
		NumberOfRepayments:    2,
		RepaymentEvery:        1,
		RepaymentFrequency:    valueobject.FrequencyMonths,
		AmortizationType:      valueobject.AmortizationEqualPrincipal,
		InterestType:          valueobject.InterestDecliningBalance,
		InterestCalcPeriod:    valueobject.InterestCalcSameAsRepayment,
		AccountingRule:        valueobject.AccountingCashBased,
		GLAccounts: model.GLBindings{
			FundSource:           "1000",
			AssetAccount:         "1100",
			IncomeAccount:        "4000",
			ExpenseAccount:       "5000",
			OverpaymentLiability: "2000",
		},
	}
}

type fixture struct {
	loans    *memLoanRepo
	products *memProductRepo
	journal  *memJournalRepo
	pub      *capturePublisher
	locks    *job.LockRegistry
	savings  *adapter.StubSavingsService
}

func newFixture(product model.LoanProduct) *fixture {
	return &fixture{
		loans:    newMemLoanRepo(),
		products: newMemProductRepo(product),
		journal:  newMemJournalRepo(),
		pub:      newCapturePublisher(),
		locks:    job.NewLockRegistry(),
		savings:  adapter.NewStubSavingsService(),
	}
}

// submitAndApprove drives a loan through submission and approval.
func (f *fixture) submitAndApprove(t *testing.T, req dto.SubmitLoanRequest) string {
	t.Helper()
	ctx := context.Background()

	submitted, err := usecase.NewSubmitLoanUseCase(f.loans, f.products, f.pub).Execute(ctx, req)
	require.NoError(t, err)

	_, err = usecase.NewApproveLoanUseCase(f.loans, f.pub, f.locks).Execute(ctx,
		dto.LoanCommandRequest{TenantID: req.TenantID, LoanID: submitted.ID})
	require.NoError(t, err)
	return submitted.ID
}

func (f *fixture) disburse(t *testing.T, loanID string, date time.Time) dto.TransactionResult {
	t.Helper()
	result, err := usecase.NewDisburseLoanUseCase(f.loans, f.journal, f.pub, f.locks, f.savings).
		Execute(context.Background(), dto.DisburseLoanRequest{
			TenantID: "tenant-1", LoanID: loanID, DisbursementDate: date,
		})
	require.NoError(t, err)
	return result
}

func submitRequest() dto.SubmitLoanRequest {
	return dto.SubmitLoanRequest{
		TenantID:    "tenant-1",
		ClientID:    "client-1",
		ProductID:   "prod-cash",
		Principal:   dec("1000"),
		SubmittedOn: day(2024, 1, 1),
	}
}

func TestSubmitLoan(t *testing.T) {
	t.Run("opens a pending application", func(t *testing.T) {
		f := newFixture(cashProduct())

		resp, err := usecase.NewSubmitLoanUseCase(f.loans, f.products, f.pub).
			Execute(context.Background(), submitRequest())
		require.NoError(t, err)

		assert.Equal(t, valueobject.LoanStatusSubmitted.String(), resp.Status)
		assert.Equal(t, "USD", resp.Currency)
		testutil.AssertDecimalEqual(t, "1000", resp.ApprovedPrincipal)

		stored, err := f.loans.FindByID(context.Background(), "tenant-1", resp.ID)
		require.NoError(t, err)
		assert.Equal(t, resp.ID, stored.ID())
	})

	t.Run("rejects a principal outside the product range", func(t *testing.T) {
		f := newFixture(cashProduct())
		req := submitRequest()
		req.Principal = dec("50")

		_, err := usecase.NewSubmitLoanUseCase(f.loans, f.products, f.pub).
			Execute(context.Background(), req)
		var verr model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, model.CodePrincipalOutOfRange, verr.Code)
	})

	t.Run("fails for an unknown product", func(t *testing.T) {
		f := newFixture(cashProduct())
		req := submitRequest()
		req.ProductID = "prod-missing"

		_, err := usecase.NewSubmitLoanUseCase(f.loans, f.products, f.pub).
			Execute(context.Background(), req)
		assert.ErrorContains(t, err, "find product")
	})
}

func TestApproveLoan(t *testing.T) {
	f := newFixture(cashProduct())
	ctx := context.Background()

	submitted, err := usecase.NewSubmitLoanUseCase(f.loans, f.products, f.pub).
		Execute(ctx, submitRequest())
	require.NoError(t, err)

	resp, err := usecase.NewApproveLoanUseCase(f.loans, f.pub, f.locks).Execute(ctx,
		dto.LoanCommandRequest{TenantID: "tenant-1", LoanID: submitted.ID})
	require.NoError(t, err)

	assert.Equal(t, valueobject.LoanStatusApproved.String(), resp.Status)
	assert.Contains(t, f.pub.eventTypes(), "loan.approved")

	t.Run("undo returns the application to pending", func(t *testing.T) {
		resp, err := usecase.NewUndoApprovalUseCase(f.loans, f.pub, f.locks).Execute(ctx,
			dto.LoanCommandRequest{TenantID: "tenant-1", LoanID: submitted.ID})
		require.NoError(t, err)
		assert.Equal(t, valueobject.LoanStatusSubmitted.String(), resp.Status)
	})
}

func TestDisburseLoan(t *testing.T) {
	t.Run("activates the loan and posts the journal entry", func(t *testing.T) {
		f := newFixture(cashProduct())
		loanID := f.submitAndApprove(t, submitRequest())

		result := f.disburse(t, loanID, day(2024, 1, 1))

		assert.Equal(t, valueobject.LoanStatusActive.String(), result.Loan.Status)
		testutil.AssertDecimalEqual(t, "1000", result.Transaction.Amount)
		require.Len(t, result.Loan.Schedule, 3)
		testutil.AssertDecimalEqual(t, "500", result.Loan.Schedule[1].Principal.Due)
		testutil.AssertDecimalEqual(t, "20", result.Loan.Schedule[1].Interest.Due)
		testutil.AssertDecimalEqual(t, "10", result.Loan.Schedule[2].Interest.Due)

		entries, err := f.journal.FindByLoanID(context.Background(), "tenant-1", loanID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, result.Transaction.ID, entries[0].TransactionID())
		assert.Contains(t, f.pub.eventTypes(), "loan.disbursed")
	})

	t.Run("deposits into the linked savings account", func(t *testing.T) {
		f := newFixture(cashProduct())
		req := submitRequest()
		req.LinkedSavingsID = "sav-1"
		loanID := f.submitAndApprove(t, req)

		f.disburse(t, loanID, day(2024, 1, 1))

		balance, err := f.savings.GetBalance(context.Background(), "tenant-1", "sav-1")
		require.NoError(t, err)
		testutil.AssertDecimalEqual(t, "1000", balance)
	})

	t.Run("undo disbursal withdraws the linked savings deposit", func(t *testing.T) {
		f := newFixture(cashProduct())
		req := submitRequest()
		req.LinkedSavingsID = "sav-1"
		loanID := f.submitAndApprove(t, req)
		f.disburse(t, loanID, day(2024, 1, 1))

		resp, err := usecase.NewUndoDisbursalUseCase(f.loans, f.journal, f.pub, f.locks, f.savings).
			Execute(context.Background(), dto.LoanCommandRequest{TenantID: "tenant-1", LoanID: loanID})
		require.NoError(t, err)

		assert.Equal(t, valueobject.LoanStatusApproved.String(), resp.Status)
		balance, err := f.savings.GetBalance(context.Background(), "tenant-1", "sav-1")
		require.NoError(t, err)
		assert.True(t, balance.IsZero(), "savings balance should return to zero, got %s", balance)
	})

	t.Run("upfront accrual recognises scheduled income at once", func(t *testing.T) {
		product := cashProduct()
		product.AccountingRule = valueobject.AccountingAccrualUpfront
		f := newFixture(product)
		loanID := f.submitAndApprove(t, submitRequest())

		f.disburse(t, loanID, day(2024, 1, 1))

		// Disbursement entry plus the upfront income recognition.
		assert.Equal(t, 2, f.journal.count())
	})
}

func TestMakeRepayment(t *testing.T) {
	makeRepayment := func(f *fixture, loanID string, amount decimal.Decimal, valueDate time.Time) (dto.TransactionResult, error) {
		return usecase.NewMakeRepaymentUseCase(
			f.loans, f.journal, f.pub, f.locks, service.DefaultAllocator{},
		).Execute(context.Background(), dto.RepaymentRequest{
			TenantID: "tenant-1", LoanID: loanID, Amount: amount, ValueDate: valueDate,
		})
	}

	t.Run("a partial payment stays active", func(t *testing.T) {
		f := newFixture(cashProduct())
		loanID := f.submitAndApprove(t, submitRequest())
		f.disburse(t, loanID, day(2024, 1, 1))

		result, err := makeRepayment(f, loanID, dec("520"), day(2024, 2, 1))
		require.NoError(t, err)

		assert.Equal(t, valueobject.LoanStatusActive.String(), result.Loan.Status)
		testutil.AssertDecimalEqual(t, "500", result.Transaction.PrincipalPortion)
		testutil.AssertDecimalEqual(t, "20", result.Transaction.InterestPortion)
		testutil.AssertDecimalEqual(t, "510", result.Loan.TotalOutstanding)
	})

	t.Run("paying everything closes the loan", func(t *testing.T) {
		f := newFixture(cashProduct())
		loanID := f.submitAndApprove(t, submitRequest())
		f.disburse(t, loanID, day(2024, 1, 1))

		result, err := makeRepayment(f, loanID, dec("1030"), day(2024, 3, 1))
		require.NoError(t, err)

		assert.Equal(t, valueobject.LoanStatusClosedObligationsMet.String(), result.Loan.Status)
		assert.True(t, result.Loan.TotalOutstanding.IsZero())
		assert.Contains(t, f.pub.eventTypes(), "loan.closed")
		// Disbursement entry plus the repayment entry.
		assert.Equal(t, 2, f.journal.count())
	})

	t.Run("excess lands in the overpayment pool", func(t *testing.T) {
		f := newFixture(cashProduct())
		loanID := f.submitAndApprove(t, submitRequest())
		f.disburse(t, loanID, day(2024, 1, 1))

		result, err := makeRepayment(f, loanID, dec("1100"), day(2024, 3, 1))
		require.NoError(t, err)

		assert.Equal(t, valueobject.LoanStatusOverpaid.String(), result.Loan.Status)
		testutil.AssertDecimalEqual(t, "70", result.Loan.TotalOverpaid)
	})

	t.Run("concurrent payments on one loan do not lose updates", func(t *testing.T) {
		f := newFixture(cashProduct())
		loanID := f.submitAndApprove(t, submitRequest())
		f.disburse(t, loanID, day(2024, 1, 1))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = makeRepayment(f, loanID, dec("260"), day(2024, 2, 1))
			}(i)
		}
		wg.Wait()
		for _, err := range errs {
			require.NoError(t, err)
		}

		loan, err := f.loans.FindByID(context.Background(), "tenant-1", loanID)
		require.NoError(t, err)
		testutil.AssertDecimalEqual(t, "510", loan.TotalOutstanding())
		// Disbursement plus both repayments.
		assert.Len(t, loan.Transactions(), 3)
	})

	t.Run("rejects a value date before disbursement", func(t *testing.T) {
		f := newFixture(cashProduct())
		loanID := f.submitAndApprove(t, submitRequest())
		f.disburse(t, loanID, day(2024, 1, 1))

		_, err := makeRepayment(f, loanID, dec("100"), day(2023, 12, 1))
		var verr model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, model.CodePaymentBeforeActivation, verr.Code)
	})
}

func TestRunAccrual(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := func() *job.Runner {
		return job.NewRunner(2, job.NewLockRegistry(), logger)
	}

	t.Run("accrues periodic loans up to the cut-off", func(t *testing.T) {
		product := cashProduct()
		product.AccountingRule = valueobject.AccountingAccrualPeriodic
		f := newFixture(product)
		loanID := f.submitAndApprove(t, submitRequest())
		f.disburse(t, loanID, day(2024, 1, 1))

		uc := usecase.NewRunAccrualUseCase(f.loans, f.journal, f.pub, runner())
		resp, err := uc.Execute(context.Background(),
			dto.BatchRunRequest{TenantID: "tenant-1", AsOf: day(2024, 2, 2)})
		require.NoError(t, err)

		assert.Equal(t, 1, resp.LoansProcessed)
		assert.Empty(t, resp.Failures)

		loan, err := f.loans.FindByID(context.Background(), "tenant-1", loanID)
		require.NoError(t, err)
		assert.True(t, loan.AccruedThrough().Equal(day(2024, 2, 1)))

		t.Run("a rerun is idempotent", func(t *testing.T) {
			resp, err := uc.Execute(context.Background(),
				dto.BatchRunRequest{TenantID: "tenant-1", AsOf: day(2024, 2, 2)})
			require.NoError(t, err)
			assert.Zero(t, resp.LoansProcessed)
			assert.Equal(t, 1, resp.LoansSkipped)
		})
	})

	t.Run("skips loans without periodic accrual", func(t *testing.T) {
		f := newFixture(cashProduct())
		loanID := f.submitAndApprove(t, submitRequest())
		f.disburse(t, loanID, day(2024, 1, 1))

		resp, err := usecase.NewRunAccrualUseCase(f.loans, f.journal, f.pub, runner()).
			Execute(context.Background(), dto.BatchRunRequest{TenantID: "tenant-1", AsOf: day(2024, 2, 2)})
		require.NoError(t, err)

		assert.Zero(t, resp.LoansProcessed)
		assert.Equal(t, 1, resp.LoansSkipped)
	})
}
