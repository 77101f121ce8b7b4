package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank/loanengine/internal/domain/valueobject"
)

func TestLoanStatus(t *testing.T) {
	t.Run("parses every known value", func(t *testing.T) {
		for _, raw := range []string{
			"SUBMITTED_AND_PENDING_APPROVAL", "APPROVED", "ACTIVE",
			"CLOSED_OBLIGATIONS_MET", "CLOSED_WRITTEN_OFF", "OVERPAID", "FORECLOSED",
		} {
			s, err := valueobject.NewLoanStatus(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, raw, s.String())
		}
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := valueobject.NewLoanStatus("PENDING")
		assert.Error(t, err)
		_, err = valueobject.NewLoanStatus("")
		assert.Error(t, err)
	})

	t.Run("repayable statuses", func(t *testing.T) {
		assert.True(t, valueobject.LoanStatusActive.IsRepayable())
		assert.True(t, valueobject.LoanStatusOverpaid.IsRepayable())
		assert.False(t, valueobject.LoanStatusSubmitted.IsRepayable())
		assert.False(t, valueobject.LoanStatusApproved.IsRepayable())
		assert.False(t, valueobject.LoanStatusForeclosed.IsRepayable())
	})

	t.Run("closed statuses", func(t *testing.T) {
		assert.True(t, valueobject.LoanStatusClosedObligationsMet.IsClosed())
		assert.True(t, valueobject.LoanStatusClosedWrittenOff.IsClosed())
		assert.True(t, valueobject.LoanStatusForeclosed.IsClosed())
		assert.False(t, valueobject.LoanStatusActive.IsClosed())
		assert.False(t, valueobject.LoanStatusOverpaid.IsClosed())
	})

	t.Run("zero value", func(t *testing.T) {
		var s valueobject.LoanStatus
		assert.True(t, s.IsZero())
		assert.False(t, valueobject.LoanStatusActive.IsZero())
	})
}

func TestTransactionType(t *testing.T) {
	t.Run("only money movements move cash", func(t *testing.T) {
		assert.True(t, valueobject.TxnDisbursement.MovesCash())
		assert.True(t, valueobject.TxnRepayment.MovesCash())
		assert.True(t, valueobject.TxnRefund.MovesCash())
		assert.False(t, valueobject.TxnWaiveInterest.MovesCash())
		assert.False(t, valueobject.TxnWaiveCharge.MovesCash())
		assert.False(t, valueobject.TxnWriteOff.MovesCash())
		assert.False(t, valueobject.TxnAccrual.MovesCash())
	})

	t.Run("round trip", func(t *testing.T) {
		v, err := valueobject.NewTransactionType("WAIVE_CHARGE")
		require.NoError(t, err)
		assert.True(t, v.Equal(valueobject.TxnWaiveCharge))

		_, err = valueobject.NewTransactionType("CHARGEBACK")
		assert.Error(t, err)
	})
}

func TestChargeCalcType(t *testing.T) {
	assert.False(t, valueobject.ChargeCalcFlat.IsPercentage())
	assert.True(t, valueobject.ChargeCalcPctOfAmount.IsPercentage())
	assert.True(t, valueobject.ChargeCalcPctOfInterest.IsPercentage())
	assert.True(t, valueobject.ChargeCalcPctOfAmountAndInterest.IsPercentage())

	var zero valueobject.ChargeCalcType
	assert.False(t, zero.IsPercentage(), "the zero value is not a percentage")

	_, err := valueobject.NewChargeCalcType("PCT_OF_PENALTY")
	assert.Error(t, err)
}

func TestChargeType(t *testing.T) {
	for _, raw := range []string{"DISBURSEMENT", "SPECIFIED_DUE_DATE", "INSTALLMENT_FEE", "OVERDUE_FEE"} {
		v, err := valueobject.NewChargeType(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, v.String())
	}
	_, err := valueobject.NewChargeType("ANNUAL_FEE")
	assert.Error(t, err)
}

func TestAccountingRule(t *testing.T) {
	t.Run("accrual predicate", func(t *testing.T) {
		assert.True(t, valueobject.AccountingAccrualUpfront.IsAccrual())
		assert.True(t, valueobject.AccountingAccrualPeriodic.IsAccrual())
		assert.False(t, valueobject.AccountingCashBased.IsAccrual())
		assert.False(t, valueobject.AccountingNone.IsAccrual())
	})

	t.Run("the zero value is distinct from NONE", func(t *testing.T) {
		var zero valueobject.AccountingRule
		assert.True(t, zero.IsZero())
		assert.False(t, valueobject.AccountingNone.IsZero())
		assert.False(t, zero.Equal(valueobject.AccountingNone))
	})
}

func TestCompoundingMethod(t *testing.T) {
	cases := []struct {
		method       valueobject.CompoundingMethod
		interest, fee bool
	}{
		{valueobject.CompoundingNone, false, false},
		{valueobject.CompoundingInterest, true, false},
		{valueobject.CompoundingFee, false, true},
		{valueobject.CompoundingInterestAndFee, true, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.interest, tc.method.CompoundsInterest(), tc.method.String())
		assert.Equal(t, tc.fee, tc.method.CompoundsFee(), tc.method.String())
	}
}

func TestRescheduleStrategy(t *testing.T) {
	for _, raw := range []string{"REDUCE_EMI", "REDUCE_NUMBER_OF_INSTALLMENTS", "RESCHEDULE_NEXT_REPAYMENTS"} {
		v, err := valueobject.NewRescheduleStrategy(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, v.String())
	}
	_, err := valueobject.NewRescheduleStrategy("KEEP_EMI")
	assert.Error(t, err)
}

func TestPeriodFrequency(t *testing.T) {
	for _, raw := range []string{"DAYS", "WEEKS", "MONTHS"} {
		v, err := valueobject.NewPeriodFrequency(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, raw, v.String())
	}
	_, err := valueobject.NewPeriodFrequency("YEARS")
	assert.Error(t, err)
}
