package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// StubSavingsService is a development/test adapter that keeps savings
// balances in memory. It implements port.SavingsService with the same
// rejection rules a real deposits backend would apply: no overdrafts, no
// movements dated in the future and no movements before the account's
// activation date.
type StubSavingsService struct {
	mu        sync.Mutex
	balances  map[string]decimal.Decimal
	activated map[string]time.Time
}

// NewStubSavingsService creates a new stub adapter with empty balances.
func NewStubSavingsService() *StubSavingsService {
	return &StubSavingsService{
		balances:  make(map[string]decimal.Decimal),
		activated: make(map[string]time.Time),
	}
}

// SetBalance seeds an account balance for test scenarios.
func (s *StubSavingsService) SetBalance(tenantID, accountID string, balance decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[key(tenantID, accountID)] = balance
}

// ActivateAccount records when an account came into existence. Accounts with
// no recorded activation accept any non-future value date.
func (s *StubSavingsService) ActivateAccount(tenantID, accountID string, activatedOn time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activated[key(tenantID, accountID)] = activatedOn
}

// Deposit credits the account.
func (s *StubSavingsService) Deposit(_ context.Context, tenantID, accountID string, amount decimal.Decimal, valueDate time.Time) error {
	if err := validateMovement(accountID, amount, valueDate); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(tenantID, accountID)
	if err := s.checkActivation(k, accountID, valueDate); err != nil {
		return err
	}
	s.balances[k] = s.balances[k].Add(amount)
	return nil
}

// Withdraw debits the account, rejecting overdrafts.
func (s *StubSavingsService) Withdraw(_ context.Context, tenantID, accountID string, amount decimal.Decimal, valueDate time.Time) error {
	if err := validateMovement(accountID, amount, valueDate); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(tenantID, accountID)
	if err := s.checkActivation(k, accountID, valueDate); err != nil {
		return err
	}
	balance := s.balances[k]
	if balance.LessThan(amount) {
		return fmt.Errorf("insufficient savings balance on account %s: have %s, need %s",
			accountID, balance, amount)
	}
	s.balances[k] = balance.Sub(amount)
	return nil
}

// checkActivation is called with s.mu held.
func (s *StubSavingsService) checkActivation(k, accountID string, valueDate time.Time) error {
	activatedOn, ok := s.activated[k]
	if ok && valueDate.Before(activatedOn) {
		return fmt.Errorf("movement value date %s predates activation of account %s on %s",
			valueDate.Format(time.DateOnly), accountID, activatedOn.Format(time.DateOnly))
	}
	return nil
}

// GetBalance returns the current account balance.
func (s *StubSavingsService) GetBalance(_ context.Context, tenantID, accountID string) (decimal.Decimal, error) {
	if accountID == "" {
		return decimal.Zero, fmt.Errorf("savings account ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[key(tenantID, accountID)], nil
}

func validateMovement(accountID string, amount decimal.Decimal, valueDate time.Time) error {
	if accountID == "" {
		return fmt.Errorf("savings account ID is required")
	}
	if !amount.IsPositive() {
		return fmt.Errorf("movement amount must be positive, got %s", amount)
	}
	if valueDate.After(time.Now().UTC()) {
		return fmt.Errorf("movement value date %s is in the future", valueDate.Format(time.DateOnly))
	}
	return nil
}

func key(tenantID, accountID string) string {
	return tenantID + "/" + accountID
}
