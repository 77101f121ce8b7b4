package model_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/pkg/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPortionLifecycle(t *testing.T) {
	t.Run("payment caps at outstanding", func(t *testing.T) {
		p := model.Portion{Due: dec("100")}
		applied := p.ApplyPayment(dec("150"))

		testutil.AssertDecimalEqual(t, "100", applied)
		testutil.AssertDecimalEqual(t, "100", p.Paid)
		assert.True(t, p.Outstanding().IsZero())
	})

	t.Run("waiver caps at outstanding", func(t *testing.T) {
		p := model.Portion{Due: dec("100"), Paid: dec("60")}
		waived := p.ApplyWaiver(dec("90"))

		testutil.AssertDecimalEqual(t, "40", waived)
		assert.True(t, p.Outstanding().IsZero())
	})

	t.Run("undo payment caps at paid", func(t *testing.T) {
		p := model.Portion{Due: dec("100"), Paid: dec("30")}
		reversed := p.UndoPayment(dec("50"))

		testutil.AssertDecimalEqual(t, "30", reversed)
		assert.True(t, p.Paid.IsZero())
		testutil.AssertDecimalEqual(t, "100", p.Outstanding())
	})

	t.Run("write off moves outstanding in full", func(t *testing.T) {
		p := model.Portion{Due: dec("100"), Paid: dec("25")}
		written := p.WriteOff()

		testutil.AssertDecimalEqual(t, "75", written)
		testutil.AssertDecimalEqual(t, "75", p.WrittenOff)
		assert.True(t, p.Outstanding().IsZero())
	})

	t.Run("due equals paid plus waived plus written off plus outstanding", func(t *testing.T) {
		p := model.Portion{Due: dec("100")}
		p.ApplyPayment(dec("40"))
		p.ApplyWaiver(dec("10"))
		p.WriteOff()

		sum := p.Paid.Add(p.Waived).Add(p.WrittenOff).Add(p.Outstanding())
		testutil.AssertDecimalEqual(t, "100", sum)
	})
}

func TestInstallmentTotals(t *testing.T) {
	inst := model.Installment{
		Period:    1,
		DueDate:   day(2024, 2, 1),
		Principal: model.Portion{Due: dec("100"), Paid: dec("20")},
		Interest:  model.Portion{Due: dec("10")},
		Fee:       model.Portion{Due: dec("5"), Waived: dec("5")},
		Penalty:   model.Portion{Due: dec("2")},
	}

	testutil.AssertDecimalEqual(t, "117", inst.TotalDue())
	testutil.AssertDecimalEqual(t, "92", inst.TotalOutstanding())
	assert.False(t, inst.IsSettled())
}

func TestInstallmentIsOverdue(t *testing.T) {
	inst := model.Installment{
		Period:    1,
		DueDate:   day(2024, 2, 1),
		Principal: model.Portion{Due: dec("100")},
	}

	assert.True(t, inst.IsOverdue(day(2024, 2, 2)))
	assert.False(t, inst.IsOverdue(day(2024, 2, 1)), "not overdue on the due date itself")

	settled := inst
	settled.Principal.Paid = dec("100")
	assert.False(t, settled.IsOverdue(day(2024, 3, 1)))

	pseudo := inst
	pseudo.Period = 0
	assert.False(t, pseudo.IsOverdue(day(2024, 3, 1)), "the disbursement pseudo-period is never overdue")
}

func TestPortionSelector(t *testing.T) {
	inst := model.Installment{
		Principal: model.Portion{Due: dec("1")},
		Interest:  model.Portion{Due: dec("2")},
		Fee:       model.Portion{Due: dec("3")},
		Penalty:   model.Portion{Due: dec("4")},
	}

	testutil.AssertDecimalEqual(t, "1", inst.Portion(model.ComponentPrincipal).Due)
	testutil.AssertDecimalEqual(t, "2", inst.Portion(model.ComponentInterest).Due)
	testutil.AssertDecimalEqual(t, "3", inst.Portion(model.ComponentFee).Due)
	testutil.AssertDecimalEqual(t, "4", inst.Portion(model.ComponentPenalty).Due)
}

func TestCopyInstallments(t *testing.T) {
	in := []model.Installment{{Period: 1, Principal: model.Portion{Due: dec("100")}}}
	out := model.CopyInstallments(in)
	out[0].Principal.Paid = dec("50")

	assert.True(t, in[0].Principal.Paid.IsZero())
	assert.Nil(t, model.CopyInstallments(nil))
}
