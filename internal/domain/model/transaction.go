package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/valueobject"
)

// LoanTransaction records one money movement (or movement-like event such as
// a waiver or accrual) against a loan, together with the component split the
// allocation strategy produced. Transactions are immutable once created;
// reversed transactions are flagged, never deleted.
type LoanTransaction struct {
	ID     string
	Type   valueobject.TransactionType
	Date   time.Time
	Amount decimal.Decimal

	PrincipalPortion decimal.Decimal
	InterestPortion  decimal.Decimal
	FeePortion       decimal.Decimal
	PenaltyPortion   decimal.Decimal

	// Overpayment is the part of Amount beyond total outstanding, retained
	// as a liability-like credit.
	Overpayment decimal.Decimal

	Reversed bool
}

// NewLoanTransaction creates a transaction with a generated ID.
func NewLoanTransaction(
	txnType valueobject.TransactionType,
	date time.Time,
	amount decimal.Decimal,
) LoanTransaction {
	return LoanTransaction{
		ID:     uuid.New().String(),
		Type:   txnType,
		Date:   date,
		Amount: amount,
	}
}

// PortionTotal returns the sum of the four component portions.
func (t LoanTransaction) PortionTotal() decimal.Decimal {
	return t.PrincipalPortion.Add(t.InterestPortion).Add(t.FeePortion).Add(t.PenaltyPortion)
}

// Reverse returns a copy flagged as reversed.
func (t LoanTransaction) Reverse() LoanTransaction {
	out := t
	out.Reversed = true
	return out
}

// CopyTransactions returns a deep copy of a transaction slice.
func CopyTransactions(in []LoanTransaction) []LoanTransaction {
	if in == nil {
		return nil
	}
	out := make([]LoanTransaction, len(in))
	copy(out, in)
	return out
}
