package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corebank/loanengine/internal/domain/model"
	"github.com/corebank/loanengine/internal/domain/valueobject"
	pgkit "github.com/corebank/loanengine/pkg/postgres"
)

// ErrVersionConflict is returned when a concurrent writer saved the loan
// between this writer's read and its save.
var ErrVersionConflict = errors.New("optimistic locking conflict on loan")

// LoanRepo implements port.LoanRepository.
type LoanRepo struct {
	pool *pgxpool.Pool
}

// NewLoanRepo creates a new PostgreSQL-backed loan repository.
func NewLoanRepo(pool *pgxpool.Pool) *LoanRepo {
	return &LoanRepo{pool: pool}
}

// Save persists the loan aggregate: the loan row under an optimistic version
// guard, then the child rows (tranches, schedules, charges, transactions)
// replaced wholesale inside the same transaction.
func (r *LoanRepo) Save(ctx context.Context, loan model.Loan) error {
	terms, err := json.Marshal(toTermsRecord(loan.Terms()))
	if err != nil {
		return fmt.Errorf("marshal loan terms: %w", err)
	}

	loanQuery := `
		INSERT INTO loans (
			id, tenant_id, client_id, product_id, linked_savings_id,
			status, approved_principal, terms, total_overpaid,
			overdue_since, accrued_through,
			submitted_at, approved_at, disbursed_at, closed_at,
			version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO UPDATE SET
			status          = EXCLUDED.status,
			terms           = EXCLUDED.terms,
			total_overpaid  = EXCLUDED.total_overpaid,
			overdue_since   = EXCLUDED.overdue_since,
			accrued_through = EXCLUDED.accrued_through,
			approved_at     = EXCLUDED.approved_at,
			disbursed_at    = EXCLUDED.disbursed_at,
			closed_at       = EXCLUDED.closed_at,
			version         = loans.version + 1,
			updated_at      = EXCLUDED.updated_at
		WHERE loans.version = $16
	`
	return pgkit.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, loanQuery,
			loan.ID(), loan.TenantID(), loan.ClientID(), loan.ProductID(), loan.LinkedSavingsID(),
			loan.Status().String(), loan.ApprovedPrincipal(), terms, loan.TotalOverpaid(),
			loan.OverdueSince(), nullTime(loan.AccruedThrough()),
			loan.SubmittedAt(), nullTime(loan.ApprovedAt()), nullTime(loan.DisbursedAt()), nullTime(loan.ClosedAt()),
			loan.Version(), loan.CreatedAt(), loan.UpdatedAt(),
		)
		if err != nil {
			return fmt.Errorf("save loan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return r.saveChildren(ctx, tx, loan)
	})
}

func (r *LoanRepo) saveChildren(ctx context.Context, tx pgkit.Querier, loan model.Loan) error {
	for _, table := range []string{"loan_tranches", "loan_installments", "loan_charges", "loan_transactions"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE loan_id = $1", table), loan.ID()); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, tranche := range loan.Tranches() {
		_, err := tx.Exec(ctx, `
			INSERT INTO loan_tranches (loan_id, seq, tranche_date, amount)
			VALUES ($1, $2, $3, $4)`,
			loan.ID(), i, tranche.Date, tranche.Amount,
		)
		if err != nil {
			return fmt.Errorf("save tranche %d: %w", i, err)
		}
	}

	if err := saveInstallments(ctx, tx, loan.ID(), loan.Schedule(), false); err != nil {
		return err
	}
	if err := saveInstallments(ctx, tx, loan.ID(), loan.OriginalSchedule(), true); err != nil {
		return err
	}

	for _, c := range loan.Charges() {
		_, err := tx.Exec(ctx, `
			INSERT INTO loan_charges (
				id, loan_id, charge_type, calc_type, amount_or_percentage,
				due_date, is_penalty, amount, amount_paid, amount_waived, amount_outstanding
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			c.ID, loan.ID(), c.Type.String(), c.CalcType.String(), c.AmountOrPercentage,
			nullTime(c.DueDate), c.IsPenalty, c.Amount, c.AmountPaid, c.AmountWaived, c.AmountOutstanding,
		)
		if err != nil {
			return fmt.Errorf("save charge %s: %w", c.ID, err)
		}
	}

	for _, t := range loan.Transactions() {
		_, err := tx.Exec(ctx, `
			INSERT INTO loan_transactions (
				id, loan_id, txn_type, txn_date, amount,
				principal_portion, interest_portion, fee_portion, penalty_portion,
				overpayment, reversed
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			t.ID, loan.ID(), t.Type.String(), t.Date, t.Amount,
			t.PrincipalPortion, t.InterestPortion, t.FeePortion, t.PenaltyPortion,
			t.Overpayment, t.Reversed,
		)
		if err != nil {
			return fmt.Errorf("save transaction %s: %w", t.ID, err)
		}
	}

	return nil
}

func saveInstallments(ctx context.Context, tx pgkit.Querier, loanID string, installments []model.Installment, original bool) error {
	for _, inst := range installments {
		_, err := tx.Exec(ctx, `
			INSERT INTO loan_installments (
				loan_id, is_original, period, due_date,
				principal_due, principal_paid, principal_waived, principal_written_off,
				interest_due, interest_paid, interest_waived, interest_written_off,
				fee_due, fee_paid, fee_waived, fee_written_off,
				penalty_due, penalty_paid, penalty_waived, penalty_written_off
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
			loanID, original, inst.Period, inst.DueDate,
			inst.Principal.Due, inst.Principal.Paid, inst.Principal.Waived, inst.Principal.WrittenOff,
			inst.Interest.Due, inst.Interest.Paid, inst.Interest.Waived, inst.Interest.WrittenOff,
			inst.Fee.Due, inst.Fee.Paid, inst.Fee.Waived, inst.Fee.WrittenOff,
			inst.Penalty.Due, inst.Penalty.Paid, inst.Penalty.Waived, inst.Penalty.WrittenOff,
		)
		if err != nil {
			return fmt.Errorf("save installment %d: %w", inst.Period, err)
		}
	}
	return nil
}

// FindByID retrieves a loan aggregate with all its children.
func (r *LoanRepo) FindByID(ctx context.Context, tenantID, id string) (model.Loan, error) {
	query := `
		SELECT id, tenant_id, client_id, product_id, linked_savings_id,
		       status, approved_principal, terms, total_overpaid,
		       overdue_since, accrued_through,
		       submitted_at, approved_at, disbursed_at, closed_at,
		       version, created_at, updated_at
		FROM loans
		WHERE tenant_id = $1 AND id = $2
	`
	snap, err := scanLoanRow(r.pool.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		return model.Loan{}, err
	}
	if err := r.loadChildren(ctx, &snap); err != nil {
		return model.Loan{}, err
	}
	return model.ReconstructLoan(snap), nil
}

// FindByClientID retrieves all loans of one client, newest first.
func (r *LoanRepo) FindByClientID(ctx context.Context, tenantID, clientID string) ([]model.Loan, error) {
	query := `
		SELECT id, tenant_id, client_id, product_id, linked_savings_id,
		       status, approved_principal, terms, total_overpaid,
		       overdue_since, accrued_through,
		       submitted_at, approved_at, disbursed_at, closed_at,
		       version, created_at, updated_at
		FROM loans
		WHERE tenant_id = $1 AND client_id = $2
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, tenantID, clientID)
	if err != nil {
		return nil, fmt.Errorf("query loans: %w", err)
	}
	defer rows.Close()

	var snaps []model.LoanSnapshot
	for rows.Next() {
		snap, err := scanLoanRow(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}

	loans := make([]model.Loan, 0, len(snaps))
	for i := range snaps {
		if err := r.loadChildren(ctx, &snaps[i]); err != nil {
			return nil, err
		}
		loans = append(loans, model.ReconstructLoan(snaps[i]))
	}
	return loans, nil
}

// ListActiveIDs returns the IDs of loans with repayable outstanding state.
func (r *LoanRepo) ListActiveIDs(ctx context.Context, tenantID string) ([]string, error) {
	query := `
		SELECT id FROM loans
		WHERE tenant_id = $1 AND status IN ('ACTIVE', 'OVERPAID')
		ORDER BY id
	`
	return r.listIDs(ctx, query, tenantID)
}

// ListOverdueCandidateIDs returns active loans with at least one unsettled
// installment due strictly before the cut-off date.
func (r *LoanRepo) ListOverdueCandidateIDs(ctx context.Context, tenantID string, asOf time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT l.id
		FROM loans l
		JOIN loan_installments i ON i.loan_id = l.id AND NOT i.is_original
		WHERE l.tenant_id = $1
		  AND l.status = 'ACTIVE'
		  AND i.due_date < $2
		  AND (i.principal_due + i.interest_due + i.fee_due + i.penalty_due)
		    > (i.principal_paid + i.principal_waived + i.principal_written_off
		     + i.interest_paid + i.interest_waived + i.interest_written_off
		     + i.fee_paid + i.fee_waived + i.fee_written_off
		     + i.penalty_paid + i.penalty_waived + i.penalty_written_off)
		ORDER BY l.id
	`
	return r.listIDs(ctx, query, tenantID, asOf)
}

// ---------------------------------------------------------------------------
// internal helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func scanLoanRow(s scannable) (model.LoanSnapshot, error) {
	var (
		snap         model.LoanSnapshot
		statusStr    string
		termsJSON    []byte
		overdueSince *time.Time
		accruedAt    *time.Time
		approvedAt   *time.Time
		disbursedAt  *time.Time
		closedAt     *time.Time
	)

	err := s.Scan(
		&snap.ID, &snap.TenantID, &snap.ClientID, &snap.ProductID, &snap.LinkedSavingsID,
		&statusStr, &snap.ApprovedPrincipal, &termsJSON, &snap.TotalOverpaid,
		&overdueSince, &accruedAt,
		&snap.SubmittedAt, &approvedAt, &disbursedAt, &closedAt,
		&snap.Version, &snap.CreatedAt, &snap.UpdatedAt,
	)
	if err != nil {
		return model.LoanSnapshot{}, fmt.Errorf("scan loan: %w", err)
	}

	status, err := valueobject.NewLoanStatus(statusStr)
	if err != nil {
		return model.LoanSnapshot{}, fmt.Errorf("parse loan status: %w", err)
	}
	snap.Status = status

	var rec termsRecord
	if err := json.Unmarshal(termsJSON, &rec); err != nil {
		return model.LoanSnapshot{}, fmt.Errorf("unmarshal loan terms: %w", err)
	}
	if snap.Terms, err = fromTermsRecord(rec); err != nil {
		return model.LoanSnapshot{}, fmt.Errorf("parse loan terms: %w", err)
	}

	snap.OverdueSince = overdueSince
	snap.AccruedThrough = derefTime(accruedAt)
	snap.ApprovedAt = derefTime(approvedAt)
	snap.DisbursedAt = derefTime(disbursedAt)
	snap.ClosedAt = derefTime(closedAt)

	return snap, nil
}

func (r *LoanRepo) loadChildren(ctx context.Context, snap *model.LoanSnapshot) error {
	var err error
	if snap.Tranches, err = r.loadTranches(ctx, snap.ID); err != nil {
		return err
	}
	if snap.Installments, err = r.loadInstallments(ctx, snap.ID, false); err != nil {
		return err
	}
	if snap.OriginalInstallments, err = r.loadInstallments(ctx, snap.ID, true); err != nil {
		return err
	}
	if snap.Charges, err = r.loadCharges(ctx, snap.ID); err != nil {
		return err
	}
	if snap.Transactions, err = r.loadTransactions(ctx, snap.ID); err != nil {
		return err
	}
	return nil
}

func (r *LoanRepo) loadTranches(ctx context.Context, loanID string) ([]model.Tranche, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT tranche_date, amount FROM loan_tranches
		WHERE loan_id = $1 ORDER BY seq`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query tranches: %w", err)
	}
	defer rows.Close()

	var tranches []model.Tranche
	for rows.Next() {
		var t model.Tranche
		if err := rows.Scan(&t.Date, &t.Amount); err != nil {
			return nil, fmt.Errorf("scan tranche: %w", err)
		}
		tranches = append(tranches, t)
	}
	return tranches, rows.Err()
}

func (r *LoanRepo) loadInstallments(ctx context.Context, loanID string, original bool) ([]model.Installment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT period, due_date,
		       principal_due, principal_paid, principal_waived, principal_written_off,
		       interest_due, interest_paid, interest_waived, interest_written_off,
		       fee_due, fee_paid, fee_waived, fee_written_off,
		       penalty_due, penalty_paid, penalty_waived, penalty_written_off
		FROM loan_installments
		WHERE loan_id = $1 AND is_original = $2
		ORDER BY period`, loanID, original)
	if err != nil {
		return nil, fmt.Errorf("query installments: %w", err)
	}
	defer rows.Close()

	var installments []model.Installment
	for rows.Next() {
		var inst model.Installment
		err := rows.Scan(
			&inst.Period, &inst.DueDate,
			&inst.Principal.Due, &inst.Principal.Paid, &inst.Principal.Waived, &inst.Principal.WrittenOff,
			&inst.Interest.Due, &inst.Interest.Paid, &inst.Interest.Waived, &inst.Interest.WrittenOff,
			&inst.Fee.Due, &inst.Fee.Paid, &inst.Fee.Waived, &inst.Fee.WrittenOff,
			&inst.Penalty.Due, &inst.Penalty.Paid, &inst.Penalty.Waived, &inst.Penalty.WrittenOff,
		)
		if err != nil {
			return nil, fmt.Errorf("scan installment: %w", err)
		}
		installments = append(installments, inst)
	}
	return installments, rows.Err()
}

func (r *LoanRepo) loadCharges(ctx context.Context, loanID string) ([]model.LoanCharge, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, charge_type, calc_type, amount_or_percentage,
		       due_date, is_penalty, amount, amount_paid, amount_waived, amount_outstanding
		FROM loan_charges
		WHERE loan_id = $1
		ORDER BY due_date, id`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query charges: %w", err)
	}
	defer rows.Close()

	var charges []model.LoanCharge
	for rows.Next() {
		var (
			c                    model.LoanCharge
			chargeType, calcType string
			dueDate              *time.Time
		)
		err := rows.Scan(
			&c.ID, &chargeType, &calcType, &c.AmountOrPercentage,
			&dueDate, &c.IsPenalty, &c.Amount, &c.AmountPaid, &c.AmountWaived, &c.AmountOutstanding,
		)
		if err != nil {
			return nil, fmt.Errorf("scan charge: %w", err)
		}
		if c.Type, err = valueobject.NewChargeType(chargeType); err != nil {
			return nil, fmt.Errorf("parse charge type: %w", err)
		}
		if c.CalcType, err = valueobject.NewChargeCalcType(calcType); err != nil {
			return nil, fmt.Errorf("parse charge calc type: %w", err)
		}
		c.DueDate = derefTime(dueDate)
		charges = append(charges, c)
	}
	return charges, rows.Err()
}

func (r *LoanRepo) loadTransactions(ctx context.Context, loanID string) ([]model.LoanTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, txn_type, txn_date, amount,
		       principal_portion, interest_portion, fee_portion, penalty_portion,
		       overpayment, reversed
		FROM loan_transactions
		WHERE loan_id = $1
		ORDER BY txn_date, id`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var txns []model.LoanTransaction
	for rows.Next() {
		var (
			t       model.LoanTransaction
			txnType string
		)
		err := rows.Scan(
			&t.ID, &txnType, &t.Date, &t.Amount,
			&t.PrincipalPortion, &t.InterestPortion, &t.FeePortion, &t.PenaltyPortion,
			&t.Overpayment, &t.Reversed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Type, err = valueobject.NewTransactionType(txnType); err != nil {
			return nil, fmt.Errorf("parse transaction type: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (r *LoanRepo) listIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query loan IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan loan ID: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
