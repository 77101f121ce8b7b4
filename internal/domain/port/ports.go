package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/loanengine/internal/domain/event"
	"github.com/corebank/loanengine/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// LoanRepository persists and retrieves loan aggregates. Save enforces
// optimistic locking on the aggregate version.
type LoanRepository interface {
	Save(ctx context.Context, loan model.Loan) error
	FindByID(ctx context.Context, tenantID, id string) (model.Loan, error)
	FindByClientID(ctx context.Context, tenantID, clientID string) ([]model.Loan, error)
	ListActiveIDs(ctx context.Context, tenantID string) ([]string, error)
	ListOverdueCandidateIDs(ctx context.Context, tenantID string, asOf time.Time) ([]string, error)
}

// ProductRepository retrieves loan product reference data.
type ProductRepository interface {
	Save(ctx context.Context, product model.LoanProduct) error
	FindByID(ctx context.Context, tenantID, id string) (model.LoanProduct, error)
	List(ctx context.Context, tenantID string) ([]model.LoanProduct, error)
}

// JournalRepository persists journal entries append-only; reversal flips the
// reversed flag and stores the offsetting entry in one transaction.
type JournalRepository interface {
	Save(ctx context.Context, entries ...model.JournalEntry) error
	FindByLoanID(ctx context.Context, tenantID, loanID string) ([]model.JournalEntry, error)
	FindByTransactionID(ctx context.Context, tenantID, transactionID string) ([]model.JournalEntry, error)
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// External service ports
// ---------------------------------------------------------------------------

// SavingsService moves money against a linked savings account: disbursement
// deposits into it, charge payment withdraws from it.
type SavingsService interface {
	Deposit(ctx context.Context, tenantID, accountID string, amount decimal.Decimal, valueDate time.Time) error
	Withdraw(ctx context.Context, tenantID, accountID string, amount decimal.Decimal, valueDate time.Time) error
	GetBalance(ctx context.Context, tenantID, accountID string) (decimal.Decimal, error)
}
