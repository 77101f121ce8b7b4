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
	"github.com/corebank/loanengine/pkg/money"
	"github.com/corebank/loanengine/pkg/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func baseTerms() service.ScheduleTerms {
	return service.ScheduleTerms{
		Currency:              money.USD,
		Tranches:              []model.Tranche{{Date: day(2024, 1, 1), Amount: dec("12000")}},
		InterestRatePerPeriod: dec("0.02"),
		NumberOfRepayments:    4,
		RepaymentEvery:        1,
		Frequency:             valueobject.FrequencyMonths,
		Amortization:          valueobject.AmortizationEqualInstallment,
		InterestType:          valueobject.InterestDecliningBalance,
	}
}

func sumPrincipalDue(schedule []model.Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range schedule {
		total = total.Add(inst.Principal.Due)
	}
	return total
}

func TestGenerateEqualInstallment(t *testing.T) {
	g := service.NewScheduleGenerator()

	schedule, err := g.Generate(baseTerms())
	require.NoError(t, err)
	require.Len(t, schedule, 5)

	t.Run("period zero is the disbursement pseudo-period", func(t *testing.T) {
		assert.Equal(t, 0, schedule[0].Period)
		assert.True(t, schedule[0].DueDate.Equal(day(2024, 1, 1)))
		assert.True(t, schedule[0].TotalDue().IsZero())
	})

	t.Run("annuity payment stays constant across periods", func(t *testing.T) {
		// 12000 at 2% per month over 4 months solves to an EMI of 3151.49.
		testutil.AssertDecimalEqual(t, "2911.49", schedule[1].Principal.Due)
		testutil.AssertDecimalEqual(t, "240", schedule[1].Interest.Due)

		testutil.AssertDecimalEqual(t, "2969.72", schedule[2].Principal.Due)
		testutil.AssertDecimalEqual(t, "181.77", schedule[2].Interest.Due)

		testutil.AssertDecimalEqual(t, "3029.11", schedule[3].Principal.Due)
		testutil.AssertDecimalEqual(t, "122.38", schedule[3].Interest.Due)
	})

	t.Run("last period absorbs the rounding remainder", func(t *testing.T) {
		testutil.AssertDecimalEqual(t, "3089.68", schedule[4].Principal.Due)
		testutil.AssertDecimalEqual(t, "61.79", schedule[4].Interest.Due)
	})

	t.Run("booked principal reconciles with disbursed", func(t *testing.T) {
		testutil.AssertDecimalEqual(t, "12000", sumPrincipalDue(schedule))
	})

	t.Run("due dates advance monthly from disbursement", func(t *testing.T) {
		assert.True(t, schedule[1].DueDate.Equal(day(2024, 2, 1)))
		assert.True(t, schedule[4].DueDate.Equal(day(2024, 5, 1)))
	})
}

func TestGenerateEqualPrincipal(t *testing.T) {
	terms := baseTerms()
	terms.Amortization = valueobject.AmortizationEqualPrincipal

	schedule, err := service.NewScheduleGenerator().Generate(terms)
	require.NoError(t, err)
	require.Len(t, schedule, 5)

	for i := 1; i <= 4; i++ {
		testutil.AssertDecimalEqual(t, "3000", schedule[i].Principal.Due, "period", i)
	}
	// Interest declines with the balance: 240, 180, 120, 60.
	testutil.AssertDecimalEqual(t, "240", schedule[1].Interest.Due)
	testutil.AssertDecimalEqual(t, "180", schedule[2].Interest.Due)
	testutil.AssertDecimalEqual(t, "120", schedule[3].Interest.Due)
	testutil.AssertDecimalEqual(t, "60", schedule[4].Interest.Due)
}

func TestGenerateFlatInterest(t *testing.T) {
	terms := baseTerms()
	terms.InterestType = valueobject.InterestFlat

	schedule, err := service.NewScheduleGenerator().Generate(terms)
	require.NoError(t, err)

	// Flat interest charges the full principal every period regardless of
	// what has been repaid.
	for i := 1; i <= 4; i++ {
		testutil.AssertDecimalEqual(t, "3000", schedule[i].Principal.Due, "period", i)
		testutil.AssertDecimalEqual(t, "240", schedule[i].Interest.Due, "period", i)
	}
}

func TestGenerateZeroRate(t *testing.T) {
	terms := baseTerms()
	terms.InterestRatePerPeriod = decimal.Zero

	schedule, err := service.NewScheduleGenerator().Generate(terms)
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		testutil.AssertDecimalEqual(t, "3000", schedule[i].Principal.Due)
		assert.True(t, schedule[i].Interest.Due.IsZero())
	}
}

func TestGenerateGracePeriods(t *testing.T) {
	t.Run("principal grace defers principal but not interest", func(t *testing.T) {
		terms := baseTerms()
		terms.GraceOnPrincipal = 1

		schedule, err := service.NewScheduleGenerator().Generate(terms)
		require.NoError(t, err)

		assert.True(t, schedule[1].Principal.Due.IsZero())
		testutil.AssertDecimalEqual(t, "240", schedule[1].Interest.Due)
		testutil.AssertDecimalEqual(t, "12000", sumPrincipalDue(schedule))
	})

	t.Run("interest grace spreads deferred interest over later periods", func(t *testing.T) {
		terms := baseTerms()
		terms.InterestType = valueobject.InterestFlat
		terms.GraceOnInterest = 1

		schedule, err := service.NewScheduleGenerator().Generate(terms)
		require.NoError(t, err)

		assert.True(t, schedule[1].Interest.Due.IsZero())
		// The deferred 240 is spread evenly over the three remaining periods.
		for i := 2; i <= 4; i++ {
			testutil.AssertDecimalEqual(t, "320", schedule[i].Interest.Due, "period", i)
		}
	})
}

func TestGenerateMultiTranche(t *testing.T) {
	terms := baseTerms()
	terms.Tranches = []model.Tranche{
		{Date: day(2024, 1, 1), Amount: dec("8000")},
		{Date: day(2024, 2, 15), Amount: dec("4000")},
	}

	schedule, err := service.NewScheduleGenerator().Generate(terms)
	require.NoError(t, err)

	testutil.AssertDecimalEqual(t, "12000", sumPrincipalDue(schedule))
	// Period 1 accrues interest on the first tranche only.
	testutil.AssertDecimalEqual(t, "160", schedule[1].Interest.Due)
}

func TestGenerateWeeklyDueDates(t *testing.T) {
	terms := baseTerms()
	terms.Frequency = valueobject.FrequencyWeeks
	terms.RepaymentEvery = 2

	schedule, err := service.NewScheduleGenerator().Generate(terms)
	require.NoError(t, err)

	assert.True(t, schedule[1].DueDate.Equal(day(2024, 1, 15)))
	assert.True(t, schedule[2].DueDate.Equal(day(2024, 1, 29)))
}

func TestGenerateValidation(t *testing.T) {
	g := service.NewScheduleGenerator()

	cases := []struct {
		name   string
		mutate func(*service.ScheduleTerms)
	}{
		{"no tranches", func(tm *service.ScheduleTerms) { tm.Tranches = nil }},
		{"non-positive tranche", func(tm *service.ScheduleTerms) {
			tm.Tranches = []model.Tranche{{Date: day(2024, 1, 1), Amount: decimal.Zero}}
		}},
		{"zero repayments", func(tm *service.ScheduleTerms) { tm.NumberOfRepayments = 0 }},
		{"zero interval", func(tm *service.ScheduleTerms) { tm.RepaymentEvery = 0 }},
		{"negative rate", func(tm *service.ScheduleTerms) { tm.InterestRatePerPeriod = dec("-0.01") }},
		{"grace consumes all periods", func(tm *service.ScheduleTerms) { tm.GraceOnPrincipal = 4 }},
		{"missing currency", func(tm *service.ScheduleTerms) { tm.Currency = money.Currency{} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			terms := baseTerms()
			tc.mutate(&terms)
			_, err := g.Generate(terms)
			assert.Error(t, err)
		})
	}
}
