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

// twoPeriodSchedule returns a disbursement pseudo-period followed by two
// periods each carrying 100 principal, 10 interest, 5 fee and 2 penalty.
func twoPeriodSchedule() []model.Installment {
	mk := func(period int, due time.Time) model.Installment {
		return model.Installment{
			Period:    period,
			DueDate:   due,
			Principal: model.Portion{Due: dec("100")},
			Interest:  model.Portion{Due: dec("10")},
			Fee:       model.Portion{Due: dec("5")},
			Penalty:   model.Portion{Due: dec("2")},
		}
	}
	return []model.Installment{
		{Period: 0, DueDate: day(2024, 1, 1)},
		mk(1, day(2024, 2, 1)),
		mk(2, day(2024, 3, 1)),
	}
}

func TestDefaultAllocator(t *testing.T) {
	date := day(2024, 2, 1)

	t.Run("consumes penalty then fee then interest then principal", func(t *testing.T) {
		result, err := (service.DefaultAllocator{}).Allocate(twoPeriodSchedule(), nil, dec("7"), date)
		require.NoError(t, err)

		txn := result.Transaction
		testutil.AssertDecimalEqual(t, "2", txn.PenaltyPortion)
		testutil.AssertDecimalEqual(t, "5", txn.FeePortion)
		assert.True(t, txn.InterestPortion.IsZero())
		assert.True(t, txn.PrincipalPortion.IsZero())
		assert.True(t, txn.Overpayment.IsZero())

		testutil.AssertDecimalEqual(t, "2", result.Installments[1].Penalty.Paid)
		testutil.AssertDecimalEqual(t, "5", result.Installments[1].Fee.Paid)
	})

	t.Run("walks periods earliest first", func(t *testing.T) {
		// 117 settles period 1 in full; 2 more starts on period 2's penalty.
		result, err := (service.DefaultAllocator{}).Allocate(twoPeriodSchedule(), nil, dec("119"), date)
		require.NoError(t, err)

		assert.True(t, result.Installments[1].IsSettled())
		testutil.AssertDecimalEqual(t, "2", result.Installments[2].Penalty.Paid)
		assert.True(t, result.Installments[2].Fee.Paid.IsZero())
	})

	t.Run("retains excess as overpayment", func(t *testing.T) {
		result, err := (service.DefaultAllocator{}).Allocate(twoPeriodSchedule(), nil, dec("250"), date)
		require.NoError(t, err)

		assert.True(t, result.Installments[1].IsSettled())
		assert.True(t, result.Installments[2].IsSettled())
		testutil.AssertDecimalEqual(t, "16", result.Transaction.Overpayment)
		testutil.AssertDecimalEqual(t, "234", result.Transaction.PortionTotal())
	})

	t.Run("keeps charge ledger in step with fee portions", func(t *testing.T) {
		fee, err := model.NewLoanCharge(
			valueobject.ChargeSpecifiedDueDate, valueobject.ChargeCalcFlat, dec("10"), day(2024, 2, 1), false)
		require.NoError(t, err)
		fee.SetAmount(dec("10"))

		result, err := (service.DefaultAllocator{}).Allocate(twoPeriodSchedule(), []model.LoanCharge{fee}, dec("7"), date)
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, "5", result.Charges[0].AmountPaid)
		testutil.AssertDecimalEqual(t, "5", result.Charges[0].AmountOutstanding)
	})

	t.Run("does not mutate its inputs", func(t *testing.T) {
		in := twoPeriodSchedule()
		_, err := (service.DefaultAllocator{}).Allocate(in, nil, dec("50"), date)
		require.NoError(t, err)
		assert.True(t, in[1].Penalty.Paid.IsZero())
	})
}

func TestRBIAllocator(t *testing.T) {
	result, err := (service.RBIAllocator{}).Allocate(twoPeriodSchedule(), nil, dec("115"), day(2024, 2, 1))
	require.NoError(t, err)

	// Interest and principal clear before penalty and fee.
	txn := result.Transaction
	testutil.AssertDecimalEqual(t, "10", txn.InterestPortion)
	testutil.AssertDecimalEqual(t, "100", txn.PrincipalPortion)
	testutil.AssertDecimalEqual(t, "2", txn.PenaltyPortion)
	testutil.AssertDecimalEqual(t, "3", txn.FeePortion)
}

func TestAllocatorByName(t *testing.T) {
	assert.Equal(t, "rbi-india", service.AllocatorByName("rbi-india").Name())
	assert.Equal(t, "penalties-fees-interest-principal", service.AllocatorByName("").Name())
	assert.Equal(t, "penalties-fees-interest-principal", service.AllocatorByName("unknown").Name())
}

func TestRefund(t *testing.T) {
	date := day(2024, 3, 1)

	paidSchedule := func() []model.Installment {
		schedule := twoPeriodSchedule()
		schedule[1].Principal.Paid = dec("100")
		schedule[1].Interest.Paid = dec("10")
		schedule[1].Fee.Paid = dec("5")
		schedule[1].Penalty.Paid = dec("2")
		schedule[2].Principal.Paid = dec("40")
		return schedule
	}

	t.Run("draws down the overpayment pool first", func(t *testing.T) {
		result, err := service.Refund(paidSchedule(), nil, dec("30"), dec("30"), date)
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, "30", result.Transaction.Overpayment)
		assert.True(t, result.Transaction.PortionTotal().IsZero())
		testutil.AssertDecimalEqual(t, "100", result.Installments[1].Principal.Paid)
	})

	t.Run("walks back from the latest period", func(t *testing.T) {
		result, err := service.Refund(paidSchedule(), nil, dec("60"), decimal.Zero, date)
		require.NoError(t, err)

		// Period 2's 40 of paid principal reverses before period 1 is touched.
		testutil.AssertDecimalEqual(t, "60", result.Transaction.PrincipalPortion)
		assert.True(t, result.Installments[2].Principal.Paid.IsZero())
		testutil.AssertDecimalEqual(t, "80", result.Installments[1].Principal.Paid)
	})

	t.Run("reverses principal before interest within a period", func(t *testing.T) {
		result, err := service.Refund(paidSchedule(), nil, dec("148"), decimal.Zero, date)
		require.NoError(t, err)

		txn := result.Transaction
		testutil.AssertDecimalEqual(t, "140", txn.PrincipalPortion)
		testutil.AssertDecimalEqual(t, "8", txn.InterestPortion)
	})

	t.Run("rejects refunds beyond what was paid", func(t *testing.T) {
		_, err := service.Refund(paidSchedule(), nil, dec("500"), dec("10"), date)
		require.Error(t, err)

		var verr model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, model.CodeRefundExceedsPaid, verr.Code)
	})

	t.Run("restores refunded charge payments to outstanding", func(t *testing.T) {
		fee, err := model.NewLoanCharge(
			valueobject.ChargeSpecifiedDueDate, valueobject.ChargeCalcFlat, dec("5"), day(2024, 2, 1), false)
		require.NoError(t, err)
		fee.SetAmount(dec("5"))
		fee.Pay(dec("5"))

		result, err := service.Refund(paidSchedule(), []model.LoanCharge{fee}, dec("157"), decimal.Zero, date)
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, "5", result.Transaction.FeePortion)
		testutil.AssertDecimalEqual(t, "5", result.Charges[0].AmountOutstanding)
		assert.True(t, result.Charges[0].AmountPaid.IsZero())
	})
}

func TestSettleAll(t *testing.T) {
	schedule := twoPeriodSchedule()
	schedule[1].Interest.Paid = dec("10")

	result := service.SettleAll(schedule, nil, day(2024, 3, 1))

	for _, inst := range result.Installments[1:] {
		assert.True(t, inst.IsSettled(), "period %d", inst.Period)
	}
	// 234 total due minus the 10 interest already paid.
	testutil.AssertDecimalEqual(t, "224", result.Transaction.Amount)
	testutil.AssertDecimalEqual(t, "200", result.Transaction.PrincipalPortion)
	testutil.AssertDecimalEqual(t, "10", result.Transaction.InterestPortion)
}

func TestWriteOffAll(t *testing.T) {
	fee, err := model.NewLoanCharge(
		valueobject.ChargeSpecifiedDueDate, valueobject.ChargeCalcFlat, dec("10"), day(2024, 2, 1), false)
	require.NoError(t, err)
	fee.SetAmount(dec("10"))

	result := service.WriteOffAll(twoPeriodSchedule(), []model.LoanCharge{fee}, day(2024, 3, 1))

	assert.True(t, result.Transaction.Type.Equal(valueobject.TxnWriteOff))
	testutil.AssertDecimalEqual(t, "234", result.Transaction.Amount)
	testutil.AssertDecimalEqual(t, "200", result.Installments[1].Principal.WrittenOff.Add(result.Installments[2].Principal.WrittenOff))
	testutil.AssertDecimalEqual(t, "10", result.Charges[0].AmountWaived)
	assert.True(t, result.Charges[0].AmountOutstanding.IsZero())
}

func TestWaiveInterestAllocation(t *testing.T) {
	t.Run("waives earliest periods first", func(t *testing.T) {
		result, err := service.WaiveInterest(twoPeriodSchedule(), dec("15"), day(2024, 3, 1))
		require.NoError(t, err)

		testutil.AssertDecimalEqual(t, "10", result.Installments[1].Interest.Waived)
		testutil.AssertDecimalEqual(t, "5", result.Installments[2].Interest.Waived)
		testutil.AssertDecimalEqual(t, "15", result.Transaction.InterestPortion)
		assert.True(t, result.Transaction.Type.Equal(valueobject.TxnWaiveInterest))
	})

	t.Run("caps at the outstanding interest", func(t *testing.T) {
		result, err := service.WaiveInterest(twoPeriodSchedule(), dec("999"), day(2024, 3, 1))
		require.NoError(t, err)
		testutil.AssertDecimalEqual(t, "20", result.Transaction.Amount)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := service.WaiveInterest(twoPeriodSchedule(), decimal.Zero, day(2024, 3, 1))
		assert.Error(t, err)
	})
}
