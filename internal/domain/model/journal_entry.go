package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the side of a journal line.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// JournalLine is one leg of a double-entry posting: a GL account, a side and
// an amount. Multi-component transactions post one line per component type to
// preserve per-account traceability.
type JournalLine struct {
	GLAccount string
	Direction Direction
	Amount    decimal.Decimal
}

// JournalEntry is a balanced set of journal lines produced for one loan
// transaction under the product's accounting rule.
type JournalEntry struct {
	id            string
	tenantID      string
	loanID        string
	transactionID string
	entryDate     time.Time
	lines         []JournalLine
	reversed      bool
	createdAt     time.Time
}

// NewJournalEntry creates a journal entry after validating that debits and
// credits balance exactly.
func NewJournalEntry(
	tenantID, loanID, transactionID string,
	entryDate time.Time,
	lines []JournalLine,
) (JournalEntry, error) {
	if tenantID == "" {
		return JournalEntry{}, fmt.Errorf("tenant ID is required")
	}
	if loanID == "" {
		return JournalEntry{}, fmt.Errorf("loan ID is required")
	}
	if len(lines) == 0 {
		return JournalEntry{}, fmt.Errorf("at least one journal line is required")
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for _, l := range lines {
		if l.GLAccount == "" {
			return JournalEntry{}, fmt.Errorf("journal line missing GL account")
		}
		if !l.Amount.IsPositive() {
			return JournalEntry{}, fmt.Errorf("journal line amount must be positive, got %s", l.Amount)
		}
		switch l.Direction {
		case Debit:
			debits = debits.Add(l.Amount)
		case Credit:
			credits = credits.Add(l.Amount)
		default:
			return JournalEntry{}, fmt.Errorf("invalid journal line direction %q", l.Direction)
		}
	}
	if !debits.Equal(credits) {
		return JournalEntry{}, fmt.Errorf("unbalanced journal entry: debits %s, credits %s", debits, credits)
	}

	now := time.Now().UTC()
	return JournalEntry{
		id:            uuid.New().String(),
		tenantID:      tenantID,
		loanID:        loanID,
		transactionID: transactionID,
		entryDate:     entryDate,
		lines:         lines,
		createdAt:     now,
	}, nil
}

// ReconstructJournalEntry rebuilds a JournalEntry from persistence.
func ReconstructJournalEntry(
	id, tenantID, loanID, transactionID string,
	entryDate time.Time,
	lines []JournalLine,
	reversed bool,
	createdAt time.Time,
) JournalEntry {
	return JournalEntry{
		id:            id,
		tenantID:      tenantID,
		loanID:        loanID,
		transactionID: transactionID,
		entryDate:     entryDate,
		lines:         lines,
		reversed:      reversed,
		createdAt:     createdAt,
	}
}

// Reverse marks the entry reversed and returns a new balanced entry with every
// line's direction swapped, dated at the given time.
func (je JournalEntry) Reverse(now time.Time) (reversed JournalEntry, reversal JournalEntry, err error) {
	if je.reversed {
		return JournalEntry{}, JournalEntry{}, fmt.Errorf("journal entry %s already reversed", je.id)
	}

	reversed = je
	reversed.reversed = true

	lines := make([]JournalLine, len(je.lines))
	for i, l := range je.lines {
		dir := Debit
		if l.Direction == Debit {
			dir = Credit
		}
		lines[i] = JournalLine{GLAccount: l.GLAccount, Direction: dir, Amount: l.Amount}
	}

	reversal, err = NewJournalEntry(je.tenantID, je.loanID, je.transactionID, now, lines)
	if err != nil {
		return JournalEntry{}, JournalEntry{}, fmt.Errorf("build reversal entry: %w", err)
	}
	return reversed, reversal, nil
}

// Accessors
func (je JournalEntry) ID() string            { return je.id }
func (je JournalEntry) TenantID() string      { return je.tenantID }
func (je JournalEntry) LoanID() string        { return je.loanID }
func (je JournalEntry) TransactionID() string { return je.transactionID }
func (je JournalEntry) EntryDate() time.Time  { return je.entryDate }
func (je JournalEntry) Reversed() bool        { return je.reversed }
func (je JournalEntry) CreatedAt() time.Time  { return je.createdAt }

// Lines returns a defensive copy of the journal lines.
func (je JournalEntry) Lines() []JournalLine {
	out := make([]JournalLine, len(je.lines))
	copy(out, je.lines)
	return out
}

// TotalDebits sums the debit lines.
func (je JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range je.lines {
		if l.Direction == Debit {
			total = total.Add(l.Amount)
		}
	}
	return total
}

// TotalCredits sums the credit lines.
func (je JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range je.lines {
		if l.Direction == Credit {
			total = total.Add(l.Amount)
		}
	}
	return total
}
