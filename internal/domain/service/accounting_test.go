package service_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/service"
	"github.com/corebank/loanengine/internal/domain/valueobject"
	"github.com/corebank/loanengine/pkg/testutil"
)

var testGL = model.GLBindings{
	FundSource:           "1000",
	AssetAccount:         "1100",
	IncomeAccount:        "4000",
	ExpenseAccount:       "5000",
	OverpaymentLiability: "2000",
}

func lineAmount(entry *model.JournalEntry, account string, dir model.Direction) decimal.Decimal {
	total := decimal.Zero
	for _, l := range entry.Lines() {
		if l.GLAccount == account && l.Direction == dir {
			total = total.Add(l.Amount)
		}
	}
	return total
}

func TestEntryForDisbursement(t *testing.T) {
	gen := service.NewAccountingEventGenerator()
	txn := model.NewLoanTransaction(valueobject.TxnDisbursement, day(2024, 1, 1), dec("12000"))
	txn.PrincipalPortion = dec("12000")

	entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingCashBased, testGL, txn)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.True(t, entry.TotalDebits().Equal(entry.TotalCredits()))
	testutil.AssertDecimalEqual(t, "12000", lineAmount(entry, "1100", model.Debit))
	testutil.AssertDecimalEqual(t, "12000", lineAmount(entry, "1000", model.Credit))
}

func TestEntryForRepayment(t *testing.T) {
	gen := service.NewAccountingEventGenerator()

	repayment := func() model.LoanTransaction {
		txn := model.NewLoanTransaction(valueobject.TxnRepayment, day(2024, 2, 1), dec("3151.49"))
		txn.PrincipalPortion = dec("2911.49")
		txn.InterestPortion = dec("240")
		return txn
	}

	t.Run("cash based credits income on receipt", func(t *testing.T) {
		entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingCashBased, testGL, repayment())
		require.NoError(t, err)
		require.NotNil(t, entry)

		assert.True(t, entry.TotalDebits().Equal(entry.TotalCredits()))
		testutil.AssertDecimalEqual(t, "3151.49", lineAmount(entry, "1000", model.Debit))
		testutil.AssertDecimalEqual(t, "2911.49", lineAmount(entry, "1100", model.Credit))
		testutil.AssertDecimalEqual(t, "240", lineAmount(entry, "4000", model.Credit))
	})

	t.Run("accrual based relieves the receivable instead", func(t *testing.T) {
		entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingAccrualPeriodic, testGL, repayment())
		require.NoError(t, err)
		require.NotNil(t, entry)

		assert.True(t, entry.TotalDebits().Equal(entry.TotalCredits()))
		// Principal and interest both land on the asset account.
		testutil.AssertDecimalEqual(t, "3151.49", lineAmount(entry, "1100", model.Credit))
		assert.True(t, lineAmount(entry, "4000", model.Credit).IsZero())
	})

	t.Run("overpayment posts to the liability account", func(t *testing.T) {
		txn := repayment()
		txn.Amount = dec("3351.49")
		txn.Overpayment = dec("200")

		entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingCashBased, testGL, txn)
		require.NoError(t, err)
		require.NotNil(t, entry)

		assert.True(t, entry.TotalDebits().Equal(entry.TotalCredits()))
		testutil.AssertDecimalEqual(t, "200", lineAmount(entry, "2000", model.Credit))
	})
}

func TestEntryForWaiver(t *testing.T) {
	gen := service.NewAccountingEventGenerator()
	txn := model.NewLoanTransaction(valueobject.TxnWaiveInterest, day(2024, 2, 1), dec("50"))
	txn.InterestPortion = dec("50")

	t.Run("cash based posts nothing", func(t *testing.T) {
		entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingCashBased, testGL, txn)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("accrual based writes the receivable off to expense", func(t *testing.T) {
		entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingAccrualPeriodic, testGL, txn)
		require.NoError(t, err)
		require.NotNil(t, entry)

		assert.True(t, entry.TotalDebits().Equal(entry.TotalCredits()))
		testutil.AssertDecimalEqual(t, "50", lineAmount(entry, "5000", model.Debit))
		testutil.AssertDecimalEqual(t, "50", lineAmount(entry, "1100", model.Credit))
	})
}

func TestEntryForWriteOff(t *testing.T) {
	gen := service.NewAccountingEventGenerator()
	txn := model.NewLoanTransaction(valueobject.TxnWriteOff, day(2024, 6, 1), dec("3200"))
	txn.PrincipalPortion = dec("3000")
	txn.InterestPortion = dec("150")
	txn.FeePortion = dec("50")

	t.Run("cash based loses principal only", func(t *testing.T) {
		entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingCashBased, testGL, txn)
		require.NoError(t, err)
		require.NotNil(t, entry)

		testutil.AssertDecimalEqual(t, "3000", lineAmount(entry, "5000", model.Debit))
		testutil.AssertDecimalEqual(t, "3000", lineAmount(entry, "1100", model.Credit))
	})

	t.Run("accrual based loses the accrued income too", func(t *testing.T) {
		entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingAccrualPeriodic, testGL, txn)
		require.NoError(t, err)
		require.NotNil(t, entry)

		testutil.AssertDecimalEqual(t, "3200", lineAmount(entry, "5000", model.Debit))
	})
}

func TestEntryForRefund(t *testing.T) {
	gen := service.NewAccountingEventGenerator()
	txn := model.NewLoanTransaction(valueobject.TxnRefund, day(2024, 3, 1), dec("300"))
	txn.PrincipalPortion = dec("200")
	txn.InterestPortion = dec("50")
	txn.Overpayment = dec("50")

	entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingCashBased, testGL, txn)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.True(t, entry.TotalDebits().Equal(entry.TotalCredits()))
	testutil.AssertDecimalEqual(t, "50", lineAmount(entry, "2000", model.Debit))
	testutil.AssertDecimalEqual(t, "200", lineAmount(entry, "1100", model.Debit))
	testutil.AssertDecimalEqual(t, "50", lineAmount(entry, "4000", model.Debit))
	testutil.AssertDecimalEqual(t, "300", lineAmount(entry, "1000", model.Credit))
}

func TestEntryForAccrual(t *testing.T) {
	gen := service.NewAccountingEventGenerator()
	txn := model.NewLoanTransaction(valueobject.TxnAccrual, day(2024, 2, 1), dec("250"))
	txn.InterestPortion = dec("240")
	txn.FeePortion = dec("10")

	entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingAccrualPeriodic, testGL, txn)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.True(t, entry.TotalDebits().Equal(entry.TotalCredits()))
	testutil.AssertDecimalEqual(t, "250", lineAmount(entry, "1100", model.Debit))
	testutil.AssertDecimalEqual(t, "250", lineAmount(entry, "4000", model.Credit))
}

func TestEntryForSkipsRuleNone(t *testing.T) {
	gen := service.NewAccountingEventGenerator()
	txn := model.NewLoanTransaction(valueobject.TxnRepayment, day(2024, 2, 1), dec("100"))
	txn.PrincipalPortion = dec("100")

	entry, err := gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingNone, testGL, txn)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = gen.EntryFor("loan-1", "tenant-1", valueobject.AccountingRule{}, testGL, txn)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestUpfrontAccrualEntry(t *testing.T) {
	gen := service.NewAccountingEventGenerator()

	entry, err := gen.UpfrontAccrualEntry("loan-1", "tenant-1", "txn-1", testGL, dec("605.94"), dec("40"), day(2024, 1, 1))
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.True(t, entry.TotalDebits().Equal(entry.TotalCredits()))
	testutil.AssertDecimalEqual(t, "645.94", lineAmount(entry, "1100", model.Debit))
	testutil.AssertDecimalEqual(t, "645.94", lineAmount(entry, "4000", model.Credit))
}

func TestAccruableAmounts(t *testing.T) {
	schedule := twoPeriodSchedule() // dues on Feb 1 and Mar 1

	t.Run("covers periods due since the high-water mark", func(t *testing.T) {
		interest, fee, penalty, through := service.AccruableAmounts(schedule, time.Time{}, day(2024, 2, 15))

		testutil.AssertDecimalEqual(t, "10", interest)
		testutil.AssertDecimalEqual(t, "5", fee)
		testutil.AssertDecimalEqual(t, "2", penalty)
		assert.True(t, through.Equal(day(2024, 2, 1)))
	})

	t.Run("already accrued periods are excluded", func(t *testing.T) {
		interest, _, _, through := service.AccruableAmounts(schedule, day(2024, 2, 1), day(2024, 3, 15))

		testutil.AssertDecimalEqual(t, "10", interest)
		assert.True(t, through.Equal(day(2024, 3, 1)))
	})

	t.Run("nothing due yields a zero through date", func(t *testing.T) {
		_, _, _, through := service.AccruableAmounts(schedule, day(2024, 3, 1), day(2024, 4, 1))
		assert.True(t, through.IsZero())
	})
}
