package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/event"
	"github.com/corebank/loanengine/internal/domain/valueobject"
	"github.com/corebank/loanengine/pkg/events"
	"github.com/corebank/loanengine/pkg/money"
)

// Tranche is one disbursement of principal. Multi-tranche loans accumulate
// outstanding principal as tranches are paid out.
type Tranche struct {
	Date   time.Time
	Amount decimal.Decimal
}

// LoanTerms is the per-loan copy of the product terms frozen at submission
// time. Later product changes never affect open loans.
type LoanTerms struct {
	Currency              money.Currency
	InterestRatePerPeriod decimal.Decimal
	NumberOfRepayments    int
	RepaymentEvery        int
	Frequency             valueobject.PeriodFrequency
	Amortization          valueobject.AmortizationType
	InterestType          valueobject.InterestType
	InterestCalcPeriod    valueobject.InterestCalcPeriod
	GraceOnPrincipal      int
	GraceOnInterest       int
	Recalculation         RecalculationConfig
	OverdueCharge         *OverdueChargeConfig
	AccountingRule        valueobject.AccountingRule
	GLAccounts            GLBindings
}

// TermsFromProduct copies the schedule-relevant product settings into loan terms.
func TermsFromProduct(p LoanProduct) LoanTerms {
	return LoanTerms{
		Currency:              p.Currency,
		InterestRatePerPeriod: p.InterestRatePerPeriod,
		NumberOfRepayments:    p.NumberOfRepayments,
		RepaymentEvery:        p.RepaymentEvery,
		Frequency:             p.RepaymentFrequency,
		Amortization:          p.AmortizationType,
		InterestType:          p.InterestType,
		InterestCalcPeriod:    p.InterestCalcPeriod,
		GraceOnPrincipal:      p.GraceOnPrincipal,
		GraceOnInterest:       p.GraceOnInterest,
		Recalculation:         p.Recalculation,
		OverdueCharge:         p.OverdueCharge,
		AccountingRule:        p.AccountingRule,
		GLAccounts:            p.GLAccounts,
	}
}

// Loan is the aggregate root for a loan account. It owns the repayment
// schedule, attached charges and the transaction history, and enforces the
// lifecycle state machine. All mutating methods return a modified copy; the
// receiver is never changed.
type Loan struct {
	id              string
	tenantID        string
	clientID        string
	productID       string
	linkedSavingsID string

	status valueobject.LoanStatus
	terms  LoanTerms

	approvedPrincipal decimal.Decimal

	tranches             []Tranche
	installments         []Installment
	originalInstallments []Installment
	charges              []LoanCharge
	transactions         []LoanTransaction

	totalOverpaid  decimal.Decimal
	overdueSince   *time.Time
	accruedThrough time.Time

	submittedAt time.Time
	approvedAt  time.Time
	disbursedAt time.Time
	closedAt    time.Time

	version   int
	createdAt time.Time
	updatedAt time.Time

	domainEvents []events.DomainEvent
}

// NewLoan creates a loan application in SUBMITTED_AND_PENDING_APPROVAL state.
func NewLoan(
	tenantID, clientID string,
	product LoanProduct,
	principal decimal.Decimal,
	linkedSavingsID string,
	submittedAt time.Time,
) (Loan, error) {
	if tenantID == "" {
		return Loan{}, NewValidationError(CodeInvalidStateTransition, "tenant ID is required")
	}
	if clientID == "" {
		return Loan{}, NewValidationError(CodeInvalidStateTransition, "client ID is required")
	}
	if err := product.Validate(); err != nil {
		return Loan{}, err
	}
	if err := product.CheckPrincipal(principal); err != nil {
		return Loan{}, err
	}

	now := time.Now().UTC()
	return Loan{
		id:                uuid.New().String(),
		tenantID:          tenantID,
		clientID:          clientID,
		productID:         product.ID,
		linkedSavingsID:   linkedSavingsID,
		status:            valueobject.LoanStatusSubmitted,
		terms:             TermsFromProduct(product),
		approvedPrincipal: principal,
		totalOverpaid:     decimal.Zero,
		submittedAt:       submittedAt,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// LoanSnapshot carries the full persisted state of a loan.
type LoanSnapshot struct {
	ID              string
	TenantID        string
	ClientID        string
	ProductID       string
	LinkedSavingsID string

	Status valueobject.LoanStatus
	Terms  LoanTerms

	ApprovedPrincipal decimal.Decimal

	Tranches             []Tranche
	Installments         []Installment
	OriginalInstallments []Installment
	Charges              []LoanCharge
	Transactions         []LoanTransaction

	TotalOverpaid  decimal.Decimal
	OverdueSince   *time.Time
	AccruedThrough time.Time

	SubmittedAt time.Time
	ApprovedAt  time.Time
	DisbursedAt time.Time
	ClosedAt    time.Time

	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReconstructLoan rebuilds a Loan from persistence.
func ReconstructLoan(s LoanSnapshot) Loan {
	return Loan{
		id:                   s.ID,
		tenantID:             s.TenantID,
		clientID:             s.ClientID,
		productID:            s.ProductID,
		linkedSavingsID:      s.LinkedSavingsID,
		status:               s.Status,
		terms:                s.Terms,
		approvedPrincipal:    s.ApprovedPrincipal,
		tranches:             s.Tranches,
		installments:         s.Installments,
		originalInstallments: s.OriginalInstallments,
		charges:              s.Charges,
		transactions:         s.Transactions,
		totalOverpaid:        s.TotalOverpaid,
		overdueSince:         s.OverdueSince,
		accruedThrough:       s.AccruedThrough,
		submittedAt:          s.SubmittedAt,
		approvedAt:           s.ApprovedAt,
		disbursedAt:          s.DisbursedAt,
		closedAt:             s.ClosedAt,
		version:              s.Version,
		createdAt:            s.CreatedAt,
		updatedAt:            s.UpdatedAt,
	}
}

// Snapshot exports the loan's full state for persistence.
func (l Loan) Snapshot() LoanSnapshot {
	return LoanSnapshot{
		ID:                   l.id,
		TenantID:             l.tenantID,
		ClientID:             l.clientID,
		ProductID:            l.productID,
		LinkedSavingsID:      l.linkedSavingsID,
		Status:               l.status,
		Terms:                l.terms,
		ApprovedPrincipal:    l.approvedPrincipal,
		Tranches:             l.Tranches(),
		Installments:         l.Schedule(),
		OriginalInstallments: l.OriginalSchedule(),
		Charges:              l.Charges(),
		Transactions:         l.Transactions(),
		TotalOverpaid:        l.totalOverpaid,
		OverdueSince:         l.overdueSince,
		AccruedThrough:       l.accruedThrough,
		SubmittedAt:          l.submittedAt,
		ApprovedAt:           l.approvedAt,
		DisbursedAt:          l.disbursedAt,
		ClosedAt:             l.closedAt,
		Version:              l.version,
		CreatedAt:            l.createdAt,
		UpdatedAt:            l.updatedAt,
	}
}

func (l Loan) clone() Loan {
	out := l
	out.tranches = append([]Tranche(nil), l.tranches...)
	out.installments = CopyInstallments(l.installments)
	out.originalInstallments = CopyInstallments(l.originalInstallments)
	out.charges = CopyCharges(l.charges)
	out.transactions = CopyTransactions(l.transactions)
	out.domainEvents = append([]events.DomainEvent(nil), l.domainEvents...)
	if l.overdueSince != nil {
		d := *l.overdueSince
		out.overdueSince = &d
	}
	return out
}

func (l *Loan) record(e events.DomainEvent) {
	l.domainEvents = append(l.domainEvents, e)
}

func (l *Loan) touch(now time.Time) {
	l.updatedAt = now
}

// Approve moves a pending application to APPROVED.
func (l Loan) Approve(now time.Time) (Loan, error) {
	if !l.status.Equal(valueobject.LoanStatusSubmitted) {
		return Loan{}, NewStateError(CodeInvalidStateTransition,
			"cannot approve a loan in status %s", l.status)
	}
	out := l.clone()
	out.status = valueobject.LoanStatusApproved
	out.approvedAt = now
	out.touch(now)
	out.record(event.NewLoanApproved(out.id, out.tenantID, out.approvedPrincipal, out.terms.Currency.Code()))
	return out, nil
}

// UndoApproval rolls an approved loan back to pending.
func (l Loan) UndoApproval(now time.Time) (Loan, error) {
	if !l.status.Equal(valueobject.LoanStatusApproved) {
		return Loan{}, NewStateError(CodeInvalidStateTransition,
			"cannot undo approval of a loan in status %s", l.status)
	}
	out := l.clone()
	out.status = valueobject.LoanStatusSubmitted
	out.approvedAt = time.Time{}
	out.touch(now)
	out.record(event.NewLoanApprovalUndone(out.id, out.tenantID))
	return out, nil
}

// Disburse pays out a tranche and installs the generated schedule together
// with the redistributed charges. The first tranche activates the loan; later
// tranches extend an active multi-tranche loan. The schedule's total
// principal due must reconcile exactly with the sum of all tranches.
func (l Loan) Disburse(
	tranche Tranche,
	schedule []Installment,
	charges []LoanCharge,
	now time.Time,
) (Loan, LoanTransaction, error) {
	first := l.status.Equal(valueobject.LoanStatusApproved)
	if !first && !l.status.Equal(valueobject.LoanStatusActive) {
		return Loan{}, LoanTransaction{}, NewStateError(CodeInvalidStateTransition,
			"cannot disburse a loan in status %s", l.status)
	}
	if !tranche.Amount.IsPositive() {
		return Loan{}, LoanTransaction{}, NewValidationError(CodeAmountNotPositive,
			"disbursement amount must be positive, got %s", tranche.Amount)
	}

	out := l.clone()
	out.tranches = append(out.tranches, tranche)

	disbursed := decimal.Zero
	for _, tr := range out.tranches {
		disbursed = disbursed.Add(tr.Amount)
	}
	scheduled := decimal.Zero
	for _, inst := range schedule {
		scheduled = scheduled.Add(inst.Principal.Due)
	}
	if !scheduled.Equal(disbursed) {
		return Loan{}, LoanTransaction{}, ErrScheduleInconsistent
	}

	out.installments = CopyInstallments(schedule)
	out.charges = CopyCharges(charges)
	if first {
		out.status = valueobject.LoanStatusActive
		out.disbursedAt = tranche.Date
		out.originalInstallments = CopyInstallments(schedule)
	}

	txn := NewLoanTransaction(valueobject.TxnDisbursement, tranche.Date, tranche.Amount)
	txn.PrincipalPortion = tranche.Amount
	out.transactions = append(out.transactions, txn)

	out.touch(now)
	out.record(event.NewLoanDisbursed(out.id, out.tenantID, tranche.Amount, tranche.Date, out.linkedSavingsID))
	return out, txn, nil
}

// UndoDisbursal rolls an active loan back to APPROVED. It is rejected once
// any repayment-side transaction exists; all transactions are flagged
// reversed and the schedule is discarded.
func (l Loan) UndoDisbursal(now time.Time) (Loan, []LoanTransaction, error) {
	if !l.status.Equal(valueobject.LoanStatusActive) {
		return Loan{}, nil, NewStateError(CodeInvalidStateTransition,
			"cannot undo disbursal of a loan in status %s", l.status)
	}
	for _, txn := range l.transactions {
		if !txn.Reversed && !txn.Type.Equal(valueobject.TxnDisbursement) {
			return Loan{}, nil, NewStateError(CodeInvalidStateTransition,
				"cannot undo disbursal after a %s transaction", txn.Type)
		}
	}

	out := l.clone()
	total := decimal.Zero
	reversed := make([]LoanTransaction, 0, len(out.transactions))
	for i, txn := range out.transactions {
		if txn.Reversed {
			continue
		}
		out.transactions[i] = txn.Reverse()
		reversed = append(reversed, out.transactions[i])
		total = total.Add(txn.Amount)
	}

	out.status = valueobject.LoanStatusApproved
	out.tranches = nil
	out.installments = nil
	out.originalInstallments = nil
	out.disbursedAt = time.Time{}
	out.overdueSince = nil
	out.accruedThrough = time.Time{}
	for i := range out.charges {
		// Paid and waived history is gone with the reversed transactions.
		out.charges[i].AmountPaid = decimal.Zero
		out.charges[i].AmountWaived = decimal.Zero
		out.charges[i].AmountOutstanding = out.charges[i].Amount
	}

	out.touch(now)
	out.record(event.NewLoanDisbursalUndone(out.id, out.tenantID, total))
	return out, reversed, nil
}

// ValidateMoneyMovement rejects a repayment-side transaction whose amount or
// value date is invalid for this loan. The loan is left unchanged.
func (l Loan) ValidateMoneyMovement(amount decimal.Decimal, valueDate, now time.Time) error {
	if !l.status.IsRepayable() {
		return NewStateError(CodeInvalidStateTransition,
			"loan in status %s accepts no transactions", l.status)
	}
	if !amount.IsPositive() {
		return NewValidationError(CodeAmountNotPositive,
			"transaction amount must be positive, got %s", amount)
	}
	if valueDate.Before(l.disbursedAt) {
		return NewValidationError(CodePaymentBeforeActivation,
			"value date %s precedes disbursement date %s",
			valueDate.Format(time.DateOnly), l.disbursedAt.Format(time.DateOnly))
	}
	if valueDate.After(now) {
		return NewValidationError(CodeFutureDatedTransaction,
			"value date %s is in the future", valueDate.Format(time.DateOnly))
	}
	return nil
}

// ApplyRepayment installs the allocation outcome of a repayment: the
// transaction with its component split, the updated schedule and charges.
// Status is rederived afterwards (CLOSED_OBLIGATIONS_MET or OVERPAID).
func (l Loan) ApplyRepayment(
	txn LoanTransaction,
	installments []Installment,
	charges []LoanCharge,
	now time.Time,
) (Loan, error) {
	if err := l.ValidateMoneyMovement(txn.Amount, txn.Date, now); err != nil {
		return Loan{}, err
	}
	out := l.clone()
	out.installments = CopyInstallments(installments)
	out.charges = CopyCharges(charges)
	out.transactions = append(out.transactions, txn)
	out.totalOverpaid = out.totalOverpaid.Add(txn.Overpayment)
	out.record(event.NewRepaymentReceived(out.id, out.tenantID,
		txn.Amount, txn.PrincipalPortion, txn.InterestPortion,
		txn.FeePortion, txn.PenaltyPortion, txn.Overpayment, txn.Date))
	out.rederiveOpenStatus(now)
	out.touch(now)
	return out, nil
}

// ApplyWaiveInterest installs an interest waiver: a non-cash transaction that
// reduces outstanding interest.
func (l Loan) ApplyWaiveInterest(
	txn LoanTransaction,
	installments []Installment,
	now time.Time,
) (Loan, error) {
	if !l.status.IsRepayable() {
		return Loan{}, NewStateError(CodeInvalidStateTransition,
			"loan in status %s accepts no waivers", l.status)
	}
	out := l.clone()
	out.installments = CopyInstallments(installments)
	out.transactions = append(out.transactions, txn)
	out.record(event.NewInterestWaived(out.id, out.tenantID, txn.InterestPortion))
	out.rederiveOpenStatus(now)
	out.touch(now)
	return out, nil
}

// ApplyChargeWaiver installs a charge waiver outcome.
func (l Loan) ApplyChargeWaiver(
	txn LoanTransaction,
	charges []LoanCharge,
	installments []Installment,
	chargeID string,
	now time.Time,
) (Loan, error) {
	if !l.status.IsRepayable() {
		return Loan{}, NewStateError(CodeInvalidStateTransition,
			"loan in status %s accepts no waivers", l.status)
	}
	out := l.clone()
	out.charges = CopyCharges(charges)
	out.installments = CopyInstallments(installments)
	out.transactions = append(out.transactions, txn)
	out.record(event.NewChargeUpdated(out.id, out.tenantID, chargeID, "waived"))
	out.rederiveOpenStatus(now)
	out.touch(now)
	return out, nil
}

// ReplaceCharges installs a charge attach/update/delete outcome together with
// the redistributed schedule. No transaction is recorded.
func (l Loan) ReplaceCharges(
	charges []LoanCharge,
	installments []Installment,
	chargeID, action string,
	now time.Time,
) Loan {
	out := l.clone()
	out.charges = CopyCharges(charges)
	out.installments = CopyInstallments(installments)
	out.record(event.NewChargeUpdated(out.id, out.tenantID, chargeID, action))
	out.touch(now)
	return out
}

// ApplyRefund installs a refund outcome: paid amounts restored to
// outstanding, overpayment drawn down first. A closed or overpaid loan
// reopens to ACTIVE when outstanding reappears.
func (l Loan) ApplyRefund(
	txn LoanTransaction,
	installments []Installment,
	charges []LoanCharge,
	now time.Time,
) (Loan, error) {
	if l.status.Equal(valueobject.LoanStatusClosedWrittenOff) ||
		l.status.Equal(valueobject.LoanStatusSubmitted) ||
		l.status.Equal(valueobject.LoanStatusApproved) {
		return Loan{}, NewStateError(CodeInvalidStateTransition,
			"cannot refund a loan in status %s", l.status)
	}
	out := l.clone()
	out.installments = CopyInstallments(installments)
	out.charges = CopyCharges(charges)
	out.transactions = append(out.transactions, txn)
	out.totalOverpaid = out.totalOverpaid.Sub(txn.Overpayment)
	if out.totalOverpaid.IsNegative() {
		out.totalOverpaid = decimal.Zero
	}
	out.record(event.NewLoanRefunded(out.id, out.tenantID, txn.Amount))

	switch {
	case out.totalOverpaid.IsPositive():
		out.status = valueobject.LoanStatusOverpaid
	case out.totalOutstanding().IsPositive():
		out.status = valueobject.LoanStatusActive
		out.closedAt = time.Time{}
	default:
		out.status = valueobject.LoanStatusClosedObligationsMet
	}
	out.touch(now)
	return out, nil
}

// Foreclose settles the loan early in full and freezes it.
func (l Loan) Foreclose(
	txn LoanTransaction,
	installments []Installment,
	charges []LoanCharge,
	now time.Time,
) (Loan, error) {
	if !l.status.IsRepayable() {
		return Loan{}, NewStateError(CodeInvalidStateTransition,
			"cannot foreclose a loan in status %s", l.status)
	}
	// A fully prepaid loan forecloses with a zero settlement movement.
	if txn.Amount.IsPositive() {
		if err := l.ValidateMoneyMovement(txn.Amount, txn.Date, now); err != nil {
			return Loan{}, err
		}
	}
	out := l.clone()
	out.installments = CopyInstallments(installments)
	out.charges = CopyCharges(charges)
	out.transactions = append(out.transactions, txn)
	out.status = valueobject.LoanStatusForeclosed
	out.closedAt = now
	out.overdueSince = nil
	out.record(event.NewLoanForeclosed(out.id, out.tenantID, txn.Amount, txn.Date))
	out.touch(now)
	return out, nil
}

// WriteOff removes the remaining outstanding as a loss and freezes the loan.
func (l Loan) WriteOff(
	txn LoanTransaction,
	installments []Installment,
	charges []LoanCharge,
	now time.Time,
) (Loan, error) {
	if !l.status.Equal(valueobject.LoanStatusActive) {
		return Loan{}, NewStateError(CodeInvalidStateTransition,
			"cannot write off a loan in status %s", l.status)
	}
	out := l.clone()
	out.installments = CopyInstallments(installments)
	out.charges = CopyCharges(charges)
	out.transactions = append(out.transactions, txn)
	out.status = valueobject.LoanStatusClosedWrittenOff
	out.closedAt = now
	out.overdueSince = nil
	out.record(event.NewLoanWrittenOff(out.id, out.tenantID, txn.Amount))
	out.touch(now)
	return out, nil
}

// ApplyAccrual records recognised income and advances the accrual
// high-water mark. Periods at or before the current mark are never
// re-accrued, which makes the accrual job idempotent.
func (l Loan) ApplyAccrual(txn LoanTransaction, through, now time.Time) (Loan, error) {
	if !l.status.Equal(valueobject.LoanStatusActive) {
		return Loan{}, NewStateError(CodeInvalidStateTransition,
			"cannot accrue on a loan in status %s", l.status)
	}
	if !through.After(l.accruedThrough) {
		return Loan{}, NewStateError(CodeInvalidStateTransition,
			"accrual through %s does not advance the current mark %s",
			through.Format(time.DateOnly), l.accruedThrough.Format(time.DateOnly))
	}
	out := l.clone()
	out.transactions = append(out.transactions, txn)
	out.accruedThrough = through
	out.record(event.NewAccrualPosted(out.id, out.tenantID,
		txn.InterestPortion, txn.FeePortion, txn.PenaltyPortion, through))
	out.touch(now)
	return out, nil
}

// ApplyRecalculation installs a recalculated schedule and the charges
// redistributed over it. The new schedule's total principal due must still
// reconcile with the disbursed principal.
func (l Loan) ApplyRecalculation(installments []Installment, charges []LoanCharge, now time.Time) (Loan, error) {
	disbursed := l.PrincipalDisbursed()
	scheduled := decimal.Zero
	for _, inst := range installments {
		scheduled = scheduled.Add(inst.Principal.Due)
	}
	if !scheduled.Equal(disbursed) {
		return Loan{}, ErrScheduleInconsistent
	}
	out := l.clone()
	out.installments = CopyInstallments(installments)
	out.charges = CopyCharges(charges)
	out.touch(now)
	return out, nil
}

// RefreshOverdue recomputes the overdue marker from the earliest unsettled
// due date strictly before asOf. Which schedule is consulted depends on the
// product's arrears configuration.
func (l Loan) RefreshOverdue(asOf time.Time) Loan {
	out := l.clone()
	schedule := out.installments
	if out.terms.Recalculation.ArrearsOnOriginalSchedule && len(out.originalInstallments) > 0 {
		schedule = out.originalInstallments
	}
	out.overdueSince = nil
	for _, inst := range schedule {
		if inst.IsOverdue(asOf) {
			d := inst.DueDate
			out.overdueSince = &d
			break
		}
	}
	return out
}

// rederiveOpenStatus settles the ACTIVE / OVERPAID / CLOSED_OBLIGATIONS_MET
// triangle after a repayment-side mutation.
func (l *Loan) rederiveOpenStatus(now time.Time) {
	if !l.status.IsRepayable() {
		return
	}
	switch {
	case l.totalOverpaid.IsPositive():
		if !l.status.Equal(valueobject.LoanStatusOverpaid) {
			l.record(event.NewLoanOverpaid(l.id, l.tenantID, l.totalOverpaid))
		}
		l.status = valueobject.LoanStatusOverpaid
	case l.totalOutstanding().IsZero():
		l.status = valueobject.LoanStatusClosedObligationsMet
		l.closedAt = now
		l.overdueSince = nil
		l.record(event.NewLoanClosed(l.id, l.tenantID))
	default:
		l.status = valueobject.LoanStatusActive
	}
}

func (l Loan) totalOutstanding() decimal.Decimal {
	total := decimal.Zero
	for _, inst := range l.installments {
		total = total.Add(inst.TotalOutstanding())
	}
	return total
}

// Accessors
func (l Loan) ID() string                         { return l.id }
func (l Loan) TenantID() string                   { return l.tenantID }
func (l Loan) ClientID() string                   { return l.clientID }
func (l Loan) ProductID() string                  { return l.productID }
func (l Loan) LinkedSavingsID() string            { return l.linkedSavingsID }
func (l Loan) Status() valueobject.LoanStatus     { return l.status }
func (l Loan) Terms() LoanTerms                   { return l.terms }
func (l Loan) Currency() money.Currency           { return l.terms.Currency }
func (l Loan) ApprovedPrincipal() decimal.Decimal { return l.approvedPrincipal }
func (l Loan) TotalOverpaid() decimal.Decimal     { return l.totalOverpaid }
func (l Loan) AccruedThrough() time.Time          { return l.accruedThrough }
func (l Loan) SubmittedAt() time.Time             { return l.submittedAt }
func (l Loan) ApprovedAt() time.Time              { return l.approvedAt }
func (l Loan) DisbursedAt() time.Time             { return l.disbursedAt }
func (l Loan) ClosedAt() time.Time                { return l.closedAt }
func (l Loan) Version() int                       { return l.version }
func (l Loan) CreatedAt() time.Time               { return l.createdAt }
func (l Loan) UpdatedAt() time.Time               { return l.updatedAt }

// OverdueSince returns a copy of the overdue marker, or nil.
func (l Loan) OverdueSince() *time.Time {
	if l.overdueSince == nil {
		return nil
	}
	d := *l.overdueSince
	return &d
}

// Tranches returns a copy of the disbursement tranches.
func (l Loan) Tranches() []Tranche {
	return append([]Tranche(nil), l.tranches...)
}

// Schedule returns a copy of the current installment schedule.
func (l Loan) Schedule() []Installment {
	return CopyInstallments(l.installments)
}

// OriginalSchedule returns a copy of the schedule frozen at first disbursal.
func (l Loan) OriginalSchedule() []Installment {
	return CopyInstallments(l.originalInstallments)
}

// Charges returns a copy of the attached charges.
func (l Loan) Charges() []LoanCharge {
	return CopyCharges(l.charges)
}

// Transactions returns a copy of the transaction history.
func (l Loan) Transactions() []LoanTransaction {
	return CopyTransactions(l.transactions)
}

// PrincipalDisbursed sums all tranche amounts.
func (l Loan) PrincipalDisbursed() decimal.Decimal {
	total := decimal.Zero
	for _, tr := range l.tranches {
		total = total.Add(tr.Amount)
	}
	return total
}

// TotalOutstanding returns the sum of all component outstandings across the
// schedule.
func (l Loan) TotalOutstanding() decimal.Decimal {
	return l.totalOutstanding()
}

// ComponentOutstanding returns the outstanding total of one component.
func (l Loan) ComponentOutstanding(c Component) decimal.Decimal {
	total := decimal.Zero
	for i := range l.installments {
		total = total.Add(l.installments[i].Portion(c).Outstanding())
	}
	return total
}

// DomainEvents returns the events raised since the last clear.
func (l Loan) DomainEvents() []events.DomainEvent {
	return append([]events.DomainEvent(nil), l.domainEvents...)
}

// ClearEvents returns a copy with the event buffer emptied.
func (l Loan) ClearEvents() Loan {
	out := l.clone()
	out.domainEvents = nil
	return out
}
