package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/valueobject"
	"github.com/corebank/loanengine/pkg/money"
)

// ScheduleTerms are the inputs the generator derives a repayment schedule
// from. Tranches must be ordered by date; the first tranche date anchors the
// repayment due dates.
type ScheduleTerms struct {
	Currency              money.Currency
	Tranches              []model.Tranche
	InterestRatePerPeriod decimal.Decimal
	NumberOfRepayments    int
	RepaymentEvery        int
	Frequency             valueobject.PeriodFrequency
	Amortization          valueobject.AmortizationType
	InterestType          valueobject.InterestType
	GraceOnPrincipal      int
	GraceOnInterest       int
}

// TotalPrincipal sums all tranche amounts.
func (t ScheduleTerms) TotalPrincipal() decimal.Decimal {
	total := decimal.Zero
	for _, tr := range t.Tranches {
		total = total.Add(tr.Amount)
	}
	return total
}

// DisbursementDate returns the date of the first tranche.
func (t ScheduleTerms) DisbursementDate() time.Time {
	if len(t.Tranches) == 0 {
		return time.Time{}
	}
	return t.Tranches[0].Date
}

// ScheduleGenerator derives the initial installment schedule from product
// terms and a disbursement plan. It is a pure function of its inputs.
type ScheduleGenerator struct{}

// NewScheduleGenerator creates a ScheduleGenerator.
func NewScheduleGenerator() *ScheduleGenerator {
	return &ScheduleGenerator{}
}

// Generate computes the ordered installment sequence, with the conventional
// index-0 disbursement pseudo-period. Currency rounding is applied at the
// installment-amount level only.
func (g *ScheduleGenerator) Generate(terms ScheduleTerms) ([]model.Installment, error) {
	if err := g.validate(terms); err != nil {
		return nil, err
	}

	n := terms.NumberOfRepayments
	start := terms.DisbursementDate()
	dueDates := make([]time.Time, n+1)
	dueDates[0] = start
	for i := 1; i <= n; i++ {
		dueDates[i] = advanceDate(start, i*terms.RepaymentEvery, terms.Frequency)
	}

	totalPrincipal := terms.TotalPrincipal()
	repayingPeriods := n - terms.GraceOnPrincipal

	// Outstanding principal at the start of each period, increased by any
	// tranche falling inside an earlier or the current period.
	outstanding := decimal.Zero
	trancheIdx := 0

	schedule := make([]model.Installment, n+1)
	schedule[0] = model.Installment{Period: 0, DueDate: start}

	// For EQUAL_INSTALLMENT under declining balance the fixed payment is
	// re-solved whenever outstanding changes ahead of plan (extra tranche).
	var emi decimal.Decimal
	emiDirty := true

	interestDeferred := decimal.Zero
	principalBooked := decimal.Zero

	for i := 1; i <= n; i++ {
		periodEnd := dueDates[i]

		// Absorb tranches disbursed before the end of this period.
		for trancheIdx < len(terms.Tranches) && terms.Tranches[trancheIdx].Date.Before(periodEnd) {
			outstanding = outstanding.Add(terms.Tranches[trancheIdx].Amount)
			trancheIdx++
			emiDirty = true
		}

		inPrincipalGrace := i <= terms.GraceOnPrincipal
		inInterestGrace := i <= terms.GraceOnInterest
		remaining := n - i + 1
		remainingRepaying := remaining
		if inPrincipalGrace {
			remainingRepaying = repayingPeriods
		}

		var interestDue decimal.Decimal
		switch {
		case terms.InterestType.Equal(valueobject.InterestFlat):
			interestDue = terms.Currency.Round(totalPrincipal.Mul(terms.InterestRatePerPeriod))
		default:
			interestDue = terms.Currency.Round(outstanding.Mul(terms.InterestRatePerPeriod))
		}

		var principalDue decimal.Decimal
		switch {
		case inPrincipalGrace:
			principalDue = decimal.Zero
		case terms.Amortization.Equal(valueobject.AmortizationEqualPrincipal) ||
			terms.InterestType.Equal(valueobject.InterestFlat):
			principalDue = terms.Currency.Round(
				totalPrincipal.Div(decimal.NewFromInt(int64(repayingPeriods))))
		default:
			// EQUAL_INSTALLMENT on a declining balance: solve the annuity
			// payment for the current outstanding over the remaining
			// repaying periods.
			if emiDirty {
				emi = annuityPayment(outstanding, terms.InterestRatePerPeriod, remainingRepaying, terms.Currency)
				emiDirty = false
			}
			principalDue = emi.Sub(interestDue)
		}

		// Last period absorbs the rounding remainder so that booked principal
		// reconciles exactly with the disbursed total.
		if i == n {
			principalDue = totalPrincipal.Sub(principalBooked)
		}

		if inInterestGrace {
			interestDeferred = interestDeferred.Add(interestDue)
			interestDue = decimal.Zero
		}

		principalBooked = principalBooked.Add(principalDue)
		outstanding = outstanding.Sub(principalDue)

		schedule[i] = model.Installment{
			Period:    i,
			DueDate:   periodEnd,
			Principal: model.Portion{Due: principalDue},
			Interest:  model.Portion{Due: interestDue},
		}
	}

	// Interest-grace periods defer interest without reducing the total
	// charged: spread the deferred amount over the post-grace periods.
	if interestDeferred.IsPositive() && terms.GraceOnInterest < n {
		postGrace := n - terms.GraceOnInterest
		extra := terms.Currency.Round(interestDeferred.Div(decimal.NewFromInt(int64(postGrace))))
		spread := decimal.Zero
		for i := terms.GraceOnInterest + 1; i <= n; i++ {
			add := extra
			if i == n {
				add = interestDeferred.Sub(spread)
			}
			schedule[i].Interest.Due = schedule[i].Interest.Due.Add(add)
			spread = spread.Add(add)
		}
	}

	if !principalBooked.Equal(totalPrincipal) {
		return nil, model.ErrScheduleInconsistent
	}

	return schedule, nil
}

func (g *ScheduleGenerator) validate(terms ScheduleTerms) error {
	if len(terms.Tranches) == 0 {
		return fmt.Errorf("at least one disbursement tranche is required")
	}
	for _, tr := range terms.Tranches {
		if !tr.Amount.IsPositive() {
			return fmt.Errorf("tranche amount must be positive")
		}
	}
	if terms.NumberOfRepayments <= 0 {
		return fmt.Errorf("number of repayments must be positive")
	}
	if terms.RepaymentEvery <= 0 {
		return fmt.Errorf("repayment interval must be positive")
	}
	if terms.InterestRatePerPeriod.IsNegative() {
		return fmt.Errorf("interest rate must not be negative")
	}
	if terms.GraceOnPrincipal >= terms.NumberOfRepayments {
		return fmt.Errorf("grace on principal must leave at least one repaying period")
	}
	if terms.Currency.IsZero() {
		return fmt.Errorf("currency is required")
	}
	return nil
}

// annuityPayment solves the fixed-payment annuity formula
// P * r * (1+r)^n / ((1+r)^n - 1) in exact decimal arithmetic, rounding the
// payment to the currency's precision.
func annuityPayment(principal, rate decimal.Decimal, periods int, currency money.Currency) decimal.Decimal {
	if periods <= 0 {
		return decimal.Zero
	}
	if rate.IsZero() {
		return currency.Round(principal.Div(decimal.NewFromInt(int64(periods))))
	}
	factor := decimal.NewFromInt(1).Add(rate).Pow(decimal.NewFromInt(int64(periods)))
	payment := principal.Mul(rate).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1)))
	return currency.Round(payment)
}

// advanceDate moves a calendar date forward by k repayment intervals.
func advanceDate(date time.Time, k int, freq valueobject.PeriodFrequency) time.Time {
	switch {
	case freq.Equal(valueobject.FrequencyDays):
		return date.AddDate(0, 0, k)
	case freq.Equal(valueobject.FrequencyWeeks):
		return date.AddDate(0, 0, 7*k)
	default:
		return date.AddDate(0, k, 0)
	}
}
