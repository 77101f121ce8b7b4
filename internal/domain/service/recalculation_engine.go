package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/valueobject"
)

// RecalculationEngine rebuilds the unsettled tail of a schedule from the
// principal actually outstanding, so that prepayments reduce future interest
// and arrears compound into the interest base where the product allows it.
// All methods are pure.
type RecalculationEngine struct{}

// NewRecalculationEngine creates a RecalculationEngine.
func NewRecalculationEngine() *RecalculationEngine {
	return &RecalculationEngine{}
}

// balanceEvent is one dated change to outstanding principal, already
// quantized to the product's rest boundaries.
type balanceEvent struct {
	date  time.Time
	delta decimal.Decimal
}

// Recalculate returns a schedule whose future periods reflect the actual
// outstanding principal. Settled periods are untouched; paid and waived
// history on unsettled periods is preserved, only the Due sides move.
// Fee and penalty redistribution is the charge engine's job and runs after.
func (e *RecalculationEngine) Recalculate(
	terms model.LoanTerms,
	tranches []model.Tranche,
	installments []model.Installment,
	transactions []model.LoanTransaction,
	asOf time.Time,
) ([]model.Installment, error) {
	out := model.CopyInstallments(installments)
	if !terms.Recalculation.Enabled || terms.InterestType.Equal(valueobject.InterestFlat) {
		return out, nil
	}

	k := firstUnsettled(out)
	if k < 0 {
		return out, nil
	}
	n := len(out) - 1

	// Principal still owed across the whole tail, including the partially
	// paid current period.
	remaining := decimal.Zero
	paidAhead := make([]decimal.Decimal, n+1)
	for i := 1; i <= n; i++ {
		remaining = remaining.Add(out[i].Principal.Outstanding())
		paidAhead[i] = out[i].Principal.Paid
	}
	if !remaining.IsPositive() {
		return out, nil
	}

	rate := terms.InterestRatePerPeriod
	currency := terms.Currency
	cfg := terms.Recalculation

	timeline := buildBalanceTimeline(tranches, transactions, out, cfg)

	// Fixed payment for the strategies that keep one. REDUCE_EMI re-solves
	// it for the new outstanding; REDUCE_NUMBER_OF_INSTALLMENTS keeps the
	// currently planned installment amount and lets the schedule shorten.
	var fixedPayment decimal.Decimal
	switch {
	case cfg.RescheduleStrategy.Equal(valueobject.RescheduleReduceInstallments):
		fixedPayment = out[k].Principal.Due.Add(out[k].Interest.Due)
	case cfg.RescheduleStrategy.Equal(valueobject.RescheduleReduceEMI),
		cfg.RescheduleStrategy.IsZero():
		fixedPayment = annuityPayment(remaining, rate, n-k+1, currency)
	}

	outstanding := remaining
	compounded := decimal.Zero
	settledAt := n

	for i := k; i <= n; i++ {
		periodStart := out[i-1].DueDate
		periodEnd := out[i].DueDate
		base := outstanding.Add(compounded)

		var interestDue decimal.Decimal
		if i == k && periodStart.Before(asOf) && !cfg.RestFrequency.Equal(valueobject.RestSameAsRepayment) {
			// The partially elapsed period sees intra-period balance changes
			// at rest boundaries; later periods are planned flat.
			interestDue = currency.Round(
				weightedInterest(timeline, periodStart, periodEnd, rate).Add(compounded.Mul(rate)))
		} else {
			interestDue = currency.Round(base.Mul(rate))
		}

		var payment decimal.Decimal
		switch {
		case cfg.RescheduleStrategy.Equal(valueobject.RescheduleNextRepayments):
			payment = out[i].Principal.Outstanding()
		default:
			payment = fixedPayment.Sub(interestDue)
		}
		if payment.IsNegative() {
			payment = decimal.Zero
		}
		if i == n || payment.GreaterThan(outstanding) {
			payment = outstanding
		}

		out[i].Principal.Due = paidAhead[i].Add(payment).
			Add(out[i].Principal.Waived).Add(out[i].Principal.WrittenOff)
		out[i].Interest.Due = interestDue
		if out[i].Interest.Outstanding().IsNegative() {
			out[i].Interest.Due = out[i].Interest.Paid.Add(out[i].Interest.Waived).
				Add(out[i].Interest.WrittenOff)
		}

		// Arrears compound into the interest base once the period is past due.
		if !periodEnd.After(asOf) {
			if cfg.Compounding.CompoundsInterest() {
				compounded = compounded.Add(out[i].Interest.Outstanding())
			}
			if cfg.Compounding.CompoundsFee() {
				compounded = compounded.Add(out[i].Fee.Outstanding())
			}
		}

		outstanding = outstanding.Sub(payment)
		if !outstanding.IsPositive() && i < settledAt {
			settledAt = i
		}
	}

	// REDUCE_NUMBER_OF_INSTALLMENTS drops trailing periods with nothing due
	// and no history.
	if cfg.RescheduleStrategy.Equal(valueobject.RescheduleReduceInstallments) {
		out = trimEmptyTail(out, settledAt)
	}

	return out, nil
}

// ForeclosureSchedule trims the schedule to a settlement date: periods due
// before it keep their state, dropped future periods collapse into one
// settlement period whose interest is accrued to the date the pre-close
// strategy selects. Uncollected future fees and penalties are dropped.
func (e *RecalculationEngine) ForeclosureSchedule(
	terms model.LoanTerms,
	installments []model.Installment,
	settleDate time.Time,
) ([]model.Installment, error) {
	if len(installments) == 0 {
		return nil, model.ErrScheduleInconsistent
	}
	currency := terms.Currency
	cfg := terms.Recalculation

	out := make([]model.Installment, 0, len(installments))
	var dropped []model.Installment
	for _, inst := range installments {
		if inst.Period == 0 || inst.DueDate.Before(settleDate) {
			out = append(out, inst)
			continue
		}
		dropped = append(dropped, inst)
	}
	if len(dropped) == 0 {
		return out, nil
	}

	// Outstanding principal entering the settlement period.
	outstanding := decimal.Zero
	for _, inst := range dropped {
		outstanding = outstanding.Add(inst.Principal.Outstanding())
	}

	// Interest accrues from the last kept due date to the strategy's cut-off
	// as a day-count fraction of the periodic rate.
	periodStart := out[len(out)-1].DueDate
	periodEnd := dropped[0].DueDate
	cutoff := settleDate
	if cfg.PreCloseStrategy.Equal(valueobject.PreCloseOnRestDate) {
		cutoff = nextRestDate(settleDate, cfg, installments)
		if cutoff.After(periodEnd) {
			cutoff = periodEnd
		}
	}
	accrued := decimal.Zero
	if cutoff.After(periodStart) && outstanding.IsPositive() {
		fraction := dayFraction(periodStart, cutoff, periodStart, periodEnd)
		accrued = currency.Round(outstanding.Mul(terms.InterestRatePerPeriod).Mul(fraction))
	}

	settlement := model.Installment{
		Period:  out[len(out)-1].Period + 1,
		DueDate: settleDate,
	}
	for _, inst := range dropped {
		settlement.Principal.Due = settlement.Principal.Due.Add(inst.Principal.Due)
		settlement.Principal.Paid = settlement.Principal.Paid.Add(inst.Principal.Paid)
		settlement.Principal.Waived = settlement.Principal.Waived.Add(inst.Principal.Waived)
		settlement.Principal.WrittenOff = settlement.Principal.WrittenOff.Add(inst.Principal.WrittenOff)

		// Future interest, fees and penalties are not collected on
		// foreclosure; already-applied history carries over so the books
		// still reconcile.
		settlement.Interest.Paid = settlement.Interest.Paid.Add(inst.Interest.Paid)
		settlement.Interest.Waived = settlement.Interest.Waived.Add(inst.Interest.Waived)
		settlement.Fee.Paid = settlement.Fee.Paid.Add(inst.Fee.Paid)
		settlement.Fee.Waived = settlement.Fee.Waived.Add(inst.Fee.Waived)
		settlement.Penalty.Paid = settlement.Penalty.Paid.Add(inst.Penalty.Paid)
		settlement.Penalty.Waived = settlement.Penalty.Waived.Add(inst.Penalty.Waived)
	}
	settlement.Interest.Due = settlement.Interest.Paid.Add(settlement.Interest.Waived).Add(accrued)
	settlement.Fee.Due = settlement.Fee.Paid.Add(settlement.Fee.Waived)
	settlement.Penalty.Due = settlement.Penalty.Paid.Add(settlement.Penalty.Waived)

	return append(out, settlement), nil
}

// firstUnsettled returns the index of the earliest repayment period with an
// outstanding balance, or -1.
func firstUnsettled(installments []model.Installment) int {
	for i := 1; i < len(installments); i++ {
		if !installments[i].IsSettled() {
			return i
		}
	}
	return -1
}

// buildBalanceTimeline derives dated principal-balance changes from tranches
// and transactions, with payment dates pushed forward to the next rest
// boundary.
func buildBalanceTimeline(
	tranches []model.Tranche,
	transactions []model.LoanTransaction,
	installments []model.Installment,
	cfg model.RecalculationConfig,
) []balanceEvent {
	var events []balanceEvent
	for _, tr := range tranches {
		events = append(events, balanceEvent{date: tr.Date, delta: tr.Amount})
	}
	for _, txn := range transactions {
		if txn.Reversed || txn.PrincipalPortion.IsZero() {
			continue
		}
		switch {
		case txn.Type.Equal(valueobject.TxnRepayment), txn.Type.Equal(valueobject.TxnWriteOff):
			events = append(events, balanceEvent{
				date:  restEffectiveDate(txn.Date, cfg, installments),
				delta: txn.PrincipalPortion.Neg(),
			})
		case txn.Type.Equal(valueobject.TxnRefund):
			events = append(events, balanceEvent{
				date:  restEffectiveDate(txn.Date, cfg, installments),
				delta: txn.PrincipalPortion,
			})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].date.Before(events[j].date)
	})
	return events
}

// restEffectiveDate quantizes a payment date forward to the next rest
// boundary. With daily rest the payment takes effect immediately.
func restEffectiveDate(date time.Time, cfg model.RecalculationConfig, installments []model.Installment) time.Time {
	switch {
	case cfg.RestFrequency.Equal(valueobject.RestDaily):
		return date
	case cfg.RestFrequency.Equal(valueobject.RestWeekly):
		d := date
		for int(d.Weekday()) != cfg.RestAnchorDay%7 {
			d = d.AddDate(0, 0, 1)
		}
		return d
	case cfg.RestFrequency.Equal(valueobject.RestMonthly):
		anchor := cfg.RestAnchorDay
		if anchor < 1 || anchor > 28 {
			anchor = 1
		}
		d := time.Date(date.Year(), date.Month(), anchor, 0, 0, 0, 0, date.Location())
		if d.Before(date) {
			d = d.AddDate(0, 1, 0)
		}
		return d
	default:
		// SAME_AS_REPAYMENT: the next installment due date.
		for i := 1; i < len(installments); i++ {
			if !installments[i].DueDate.Before(date) {
				return installments[i].DueDate
			}
		}
		return date
	}
}

// nextRestDate returns the first rest boundary at or after date.
func nextRestDate(date time.Time, cfg model.RecalculationConfig, installments []model.Installment) time.Time {
	return restEffectiveDate(date, cfg, installments)
}

// weightedInterest computes interest for [start, end) as the day-weighted sum
// of balance segments, using the periodic rate scaled by each segment's share
// of the period.
func weightedInterest(events []balanceEvent, start, end time.Time, rate decimal.Decimal) decimal.Decimal {
	balance := decimal.Zero
	idx := 0
	for idx < len(events) && !events[idx].date.After(start) {
		balance = balance.Add(events[idx].delta)
		idx++
	}

	total := decimal.Zero
	segStart := start
	for idx < len(events) && events[idx].date.Before(end) {
		segEnd := events[idx].date
		if segEnd.After(segStart) {
			fraction := dayFraction(segStart, segEnd, start, end)
			total = total.Add(balance.Mul(rate).Mul(fraction))
			segStart = segEnd
		}
		balance = balance.Add(events[idx].delta)
		idx++
	}
	if end.After(segStart) {
		fraction := dayFraction(segStart, end, start, end)
		total = total.Add(balance.Mul(rate).Mul(fraction))
	}
	return total
}

// dayFraction returns days(from, to) / days(periodStart, periodEnd).
func dayFraction(from, to, periodStart, periodEnd time.Time) decimal.Decimal {
	periodDays := periodEnd.Sub(periodStart).Hours() / 24
	if periodDays <= 0 {
		return decimal.Zero
	}
	segDays := to.Sub(from).Hours() / 24
	return decimal.NewFromFloat(segDays / periodDays)
}

// trimEmptyTail removes trailing periods that carry neither dues nor history.
func trimEmptyTail(installments []model.Installment, lastLive int) []model.Installment {
	end := len(installments)
	for end-1 > lastLive {
		inst := installments[end-1]
		if inst.TotalDue().IsZero() &&
			inst.Principal.Paid.IsZero() && inst.Interest.Paid.IsZero() &&
			inst.Fee.Paid.IsZero() && inst.Penalty.Paid.IsZero() {
			end--
			continue
		}
		break
	}
	return installments[:end]
}
