package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/valueobject"
)

// AccountingEventGenerator maps loan transactions to balanced double-entry
// journal entries under the product's accounting rule. Multi-component
// transactions post one line per component so every GL account stays
// traceable to what it carries.
type AccountingEventGenerator struct{}

// NewAccountingEventGenerator creates an AccountingEventGenerator.
func NewAccountingEventGenerator() *AccountingEventGenerator {
	return &AccountingEventGenerator{}
}

// EntryFor builds the journal entry for a loan transaction, or nil when the
// rule is NONE or the transaction posts nothing under the rule.
func (g *AccountingEventGenerator) EntryFor(
	loanID, tenantID string,
	rule valueobject.AccountingRule,
	gl model.GLBindings,
	txn model.LoanTransaction,
) (*model.JournalEntry, error) {
	if rule.Equal(valueobject.AccountingNone) || rule.IsZero() {
		return nil, nil
	}

	var lines []model.JournalLine
	switch {
	case txn.Type.Equal(valueobject.TxnDisbursement):
		lines = addLine(lines, gl.AssetAccount, model.Debit, txn.Amount)
		lines = addLine(lines, gl.FundSource, model.Credit, txn.Amount)

	case txn.Type.Equal(valueobject.TxnRepayment):
		lines = addLine(lines, gl.FundSource, model.Debit, txn.Amount)
		lines = addLine(lines, gl.AssetAccount, model.Credit, txn.PrincipalPortion)
		// Under accrual rules income was recognised when accrued; cash in
		// relieves the receivable instead of hitting income again.
		incomeSide := gl.IncomeAccount
		if rule.IsAccrual() {
			incomeSide = gl.AssetAccount
		}
		lines = addLine(lines, incomeSide, model.Credit, txn.InterestPortion)
		lines = addLine(lines, incomeSide, model.Credit, txn.FeePortion)
		lines = addLine(lines, incomeSide, model.Credit, txn.PenaltyPortion)
		lines = addLine(lines, gl.OverpaymentLiability, model.Credit, txn.Overpayment)

	case txn.Type.Equal(valueobject.TxnWaiveInterest), txn.Type.Equal(valueobject.TxnWaiveCharge):
		// Cash-based books never recognised the income, so a waiver moves
		// nothing. Accrual books write the receivable off to expense.
		if !rule.IsAccrual() {
			return nil, nil
		}
		total := txn.PortionTotal()
		lines = addLine(lines, gl.ExpenseAccount, model.Debit, total)
		lines = addLine(lines, gl.AssetAccount, model.Credit, total)

	case txn.Type.Equal(valueobject.TxnWriteOff):
		written := txn.PrincipalPortion
		if rule.IsAccrual() {
			written = txn.PortionTotal()
		}
		lines = addLine(lines, gl.ExpenseAccount, model.Debit, written)
		lines = addLine(lines, gl.AssetAccount, model.Credit, written)

	case txn.Type.Equal(valueobject.TxnRefund):
		lines = addLine(lines, gl.OverpaymentLiability, model.Debit, txn.Overpayment)
		lines = addLine(lines, gl.AssetAccount, model.Debit, txn.PrincipalPortion)
		incomeSide := gl.IncomeAccount
		if rule.IsAccrual() {
			incomeSide = gl.AssetAccount
		}
		lines = addLine(lines, incomeSide, model.Debit, txn.InterestPortion)
		lines = addLine(lines, incomeSide, model.Debit, txn.FeePortion)
		lines = addLine(lines, incomeSide, model.Debit, txn.PenaltyPortion)
		lines = addLine(lines, gl.FundSource, model.Credit, txn.Amount)

	case txn.Type.Equal(valueobject.TxnAccrual):
		lines = addLine(lines, gl.AssetAccount, model.Debit, txn.PortionTotal())
		lines = addLine(lines, gl.IncomeAccount, model.Credit, txn.InterestPortion)
		lines = addLine(lines, gl.IncomeAccount, model.Credit, txn.FeePortion)
		lines = addLine(lines, gl.IncomeAccount, model.Credit, txn.PenaltyPortion)
	}

	if len(lines) == 0 {
		return nil, nil
	}
	entry, err := model.NewJournalEntry(tenantID, loanID, txn.ID, txn.Date, lines)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpfrontAccrualEntry recognises the full scheduled interest and fee income
// at disbursement time under ACCRUAL_UPFRONT.
func (g *AccountingEventGenerator) UpfrontAccrualEntry(
	loanID, tenantID, transactionID string,
	gl model.GLBindings,
	interest, fee decimal.Decimal,
	date time.Time,
) (*model.JournalEntry, error) {
	var lines []model.JournalLine
	lines = addLine(lines, gl.AssetAccount, model.Debit, interest.Add(fee))
	lines = addLine(lines, gl.IncomeAccount, model.Credit, interest)
	lines = addLine(lines, gl.IncomeAccount, model.Credit, fee)
	if len(lines) == 0 {
		return nil, nil
	}
	entry, err := model.NewJournalEntry(tenantID, loanID, transactionID, date, lines)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// AccruableAmounts sums the interest, fee and penalty dues of periods that
// fell due after the accrual high-water mark and up to asOf. The returned
// through date is the latest due date covered; a zero through date means
// nothing to accrue.
func AccruableAmounts(
	installments []model.Installment,
	accruedThrough, asOf time.Time,
) (interest, fee, penalty decimal.Decimal, through time.Time) {
	interest, fee, penalty = decimal.Zero, decimal.Zero, decimal.Zero
	for i := 1; i < len(installments); i++ {
		due := installments[i].DueDate
		if due.After(asOf) || !due.After(accruedThrough) {
			continue
		}
		interest = interest.Add(installments[i].Interest.Due)
		fee = fee.Add(installments[i].Fee.Due)
		penalty = penalty.Add(installments[i].Penalty.Due)
		if due.After(through) {
			through = due
		}
	}
	return interest, fee, penalty, through
}

func addLine(lines []model.JournalLine, account string, dir model.Direction, amount decimal.Decimal) []model.JournalLine {
	if !amount.IsPositive() {
		return lines
	}
	return append(lines, model.JournalLine{GLAccount: account, Direction: dir, Amount: amount})
}
