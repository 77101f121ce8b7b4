package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corebank/loanengine/internal/domain/model"
	pgkit "github.com/corebank/loanengine/pkg/postgres"
)

// JournalRepo implements port.JournalRepository. Entries are append-only;
// a reversal upserts the reversed flag on the original and inserts the
// offsetting entry in the same call.
type JournalRepo struct {
	pool *pgxpool.Pool
}

// NewJournalRepo creates a new PostgreSQL-backed journal repository.
func NewJournalRepo(pool *pgxpool.Pool) *JournalRepo {
	return &JournalRepo{pool: pool}
}

// Save persists the given entries and their lines in one transaction.
func (r *JournalRepo) Save(ctx context.Context, entries ...model.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	return pgkit.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		for _, entry := range entries {
			if err := saveEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveEntry(ctx context.Context, tx pgkit.Querier, entry model.JournalEntry) error {
	entryQuery := `
		INSERT INTO journal_entries (id, tenant_id, loan_id, transaction_id, entry_date, reversed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET reversed = EXCLUDED.reversed
	`
	if _, err := tx.Exec(ctx, entryQuery,
		entry.ID(), entry.TenantID(), entry.LoanID(), entry.TransactionID(),
		entry.EntryDate(), entry.Reversed(), entry.CreatedAt(),
	); err != nil {
		return fmt.Errorf("save journal entry: %w", err)
	}

	for i, line := range entry.Lines() {
		lineQuery := `
			INSERT INTO journal_lines (entry_id, seq, gl_account, direction, amount)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (entry_id, seq) DO NOTHING
		`
		if _, err := tx.Exec(ctx, lineQuery,
			entry.ID(), i, line.GLAccount, string(line.Direction), line.Amount,
		); err != nil {
			return fmt.Errorf("save journal line %d: %w", i, err)
		}
	}
	return nil
}

// FindByLoanID retrieves all journal entries posted for a loan, oldest first.
func (r *JournalRepo) FindByLoanID(ctx context.Context, tenantID, loanID string) ([]model.JournalEntry, error) {
	query := `
		SELECT id, tenant_id, loan_id, transaction_id, entry_date, reversed, created_at
		FROM journal_entries
		WHERE tenant_id = $1 AND loan_id = $2
		ORDER BY created_at, id
	`
	return r.queryEntries(ctx, query, tenantID, loanID)
}

// FindByTransactionID retrieves the journal entries posted for one loan
// transaction.
func (r *JournalRepo) FindByTransactionID(ctx context.Context, tenantID, transactionID string) ([]model.JournalEntry, error) {
	query := `
		SELECT id, tenant_id, loan_id, transaction_id, entry_date, reversed, created_at
		FROM journal_entries
		WHERE tenant_id = $1 AND transaction_id = $2
		ORDER BY created_at, id
	`
	return r.queryEntries(ctx, query, tenantID, transactionID)
}

func (r *JournalRepo) queryEntries(ctx context.Context, query string, args ...any) ([]model.JournalEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query journal entries: %w", err)
	}
	defer rows.Close()

	type entryRow struct {
		id, tenantID, loanID, transactionID string
		entryDate, createdAt                time.Time
		reversed                            bool
	}

	var heads []entryRow
	for rows.Next() {
		var h entryRow
		if err := rows.Scan(&h.id, &h.tenantID, &h.loanID, &h.transactionID, &h.entryDate, &h.reversed, &h.createdAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		heads = append(heads, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}

	entries := make([]model.JournalEntry, 0, len(heads))
	for _, h := range heads {
		lines, err := r.loadLines(ctx, h.id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.ReconstructJournalEntry(
			h.id, h.tenantID, h.loanID, h.transactionID,
			h.entryDate, lines, h.reversed, h.createdAt,
		))
	}
	return entries, nil
}

func (r *JournalRepo) loadLines(ctx context.Context, entryID string) ([]model.JournalLine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT gl_account, direction, amount
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY seq`, entryID)
	if err != nil {
		return nil, fmt.Errorf("query journal lines: %w", err)
	}
	defer rows.Close()

	var lines []model.JournalLine
	for rows.Next() {
		var (
			line      model.JournalLine
			direction string
		)
		if err := rows.Scan(&line.GLAccount, &direction, &line.Amount); err != nil {
			return nil, fmt.Errorf("scan journal line: %w", err)
		}
		line.Direction = model.Direction(direction)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}
