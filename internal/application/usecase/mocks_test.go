package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/corebank/loanengine/internal/domain/event"
	"github.com/corebank/loanengine/internal/domain/model"
)

// memLoanRepo is an in-memory LoanRepository keyed by tenant and loan ID.
type memLoanRepo struct {
	mu      sync.Mutex
	loans   map[string]model.LoanSnapshot
	saveErr error
}

func newMemLoanRepo() *memLoanRepo {
	return &memLoanRepo{loans: make(map[string]model.LoanSnapshot)}
}

func repoKey(tenantID, id string) string { return tenantID + "|" + id }

func (r *memLoanRepo) Save(_ context.Context, loan model.Loan) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loans[repoKey(loan.TenantID(), loan.ID())] = loan.Snapshot()
	return nil
}

func (r *memLoanRepo) FindByID(_ context.Context, tenantID, id string) (model.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.loans[repoKey(tenantID, id)]
	if !ok {
		return model.Loan{}, fmt.Errorf("loan %s not found", id)
	}
	return model.ReconstructLoan(snap), nil
}

func (r *memLoanRepo) FindByClientID(_ context.Context, tenantID, clientID string) ([]model.Loan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Loan
	for _, snap := range r.loans {
		if snap.TenantID == tenantID && snap.ClientID == clientID {
			out = append(out, model.ReconstructLoan(snap))
		}
	}
	return out, nil
}

func (r *memLoanRepo) ListActiveIDs(_ context.Context, tenantID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, snap := range r.loans {
		if snap.TenantID == tenantID && snap.Status.IsRepayable() {
			ids = append(ids, snap.ID)
		}
	}
	return ids, nil
}

func (r *memLoanRepo) ListOverdueCandidateIDs(_ context.Context, tenantID string, _ time.Time) ([]string, error) {
	return r.ListActiveIDs(context.Background(), tenantID)
}

// memProductRepo is an in-memory ProductRepository.
type memProductRepo struct {
	mu       sync.Mutex
	products map[string]model.LoanProduct
}

func newMemProductRepo(products ...model.LoanProduct) *memProductRepo {
	r := &memProductRepo{products: make(map[string]model.LoanProduct)}
	for _, p := range products {
		r.products[repoKey(p.TenantID, p.ID)] = p
	}
	return r
}

func (r *memProductRepo) Save(_ context.Context, product model.LoanProduct) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[repoKey(product.TenantID, product.ID)] = product
	return nil
}

func (r *memProductRepo) FindByID(_ context.Context, tenantID, id string) (model.LoanProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[repoKey(tenantID, id)]
	if !ok {
		return model.LoanProduct{}, fmt.Errorf("product %s not found", id)
	}
	return p, nil
}

func (r *memProductRepo) List(_ context.Context, tenantID string) ([]model.LoanProduct, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.LoanProduct
	for _, p := range r.products {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

// memJournalRepo collects saved journal entries.
type memJournalRepo struct {
	mu      sync.Mutex
	entries []model.JournalEntry
}

func newMemJournalRepo() *memJournalRepo { return &memJournalRepo{} }

func (r *memJournalRepo) Save(_ context.Context, entries ...model.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *memJournalRepo) FindByLoanID(_ context.Context, tenantID, loanID string) ([]model.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.JournalEntry
	for _, e := range r.entries {
		if e.TenantID() == tenantID && e.LoanID() == loanID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memJournalRepo) FindByTransactionID(_ context.Context, tenantID, transactionID string) ([]model.JournalEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.JournalEntry
	for _, e := range r.entries {
		if e.TenantID() == tenantID && e.TransactionID() == transactionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memJournalRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// capturePublisher records every published domain event.
type capturePublisher struct {
	mu     sync.Mutex
	events []event.DomainEvent
}

func newCapturePublisher() *capturePublisher { return &capturePublisher{} }

func (p *capturePublisher) Publish(_ context.Context, events ...event.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}
