package adapter_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank/loanengine/internal/infrastructure/adapter"
	"github.com/corebank/loanengine/pkg/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestStubSavingsDepositAndWithdraw(t *testing.T) {
	ctx := context.Background()
	svc := adapter.NewStubSavingsService()
	valueDate := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, svc.Deposit(ctx, "tenant-1", "sav-1", dec("500"), valueDate))
	require.NoError(t, svc.Withdraw(ctx, "tenant-1", "sav-1", dec("120"), valueDate))

	balance, err := svc.GetBalance(ctx, "tenant-1", "sav-1")
	require.NoError(t, err)
	testutil.AssertDecimalEqual(t, "380", balance)
}

func TestStubSavingsBalancesAreTenantScoped(t *testing.T) {
	ctx := context.Background()
	svc := adapter.NewStubSavingsService()
	svc.SetBalance("tenant-1", "sav-1", dec("100"))

	balance, err := svc.GetBalance(ctx, "tenant-2", "sav-1")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestStubSavingsRejections(t *testing.T) {
	ctx := context.Background()
	valueDate := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	t.Run("overdraft", func(t *testing.T) {
		svc := adapter.NewStubSavingsService()
		svc.SetBalance("tenant-1", "sav-1", dec("50"))

		err := svc.Withdraw(ctx, "tenant-1", "sav-1", dec("60"), valueDate)
		assert.ErrorContains(t, err, "insufficient savings balance")
	})

	t.Run("non-positive amount", func(t *testing.T) {
		svc := adapter.NewStubSavingsService()
		err := svc.Deposit(ctx, "tenant-1", "sav-1", decimal.Zero, valueDate)
		assert.ErrorContains(t, err, "must be positive")
	})

	t.Run("future value date", func(t *testing.T) {
		svc := adapter.NewStubSavingsService()
		future := time.Now().UTC().Add(48 * time.Hour)
		err := svc.Deposit(ctx, "tenant-1", "sav-1", dec("10"), future)
		assert.ErrorContains(t, err, "in the future")
	})

	t.Run("value date before account activation", func(t *testing.T) {
		svc := adapter.NewStubSavingsService()
		svc.ActivateAccount("tenant-1", "sav-1", time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
		svc.SetBalance("tenant-1", "sav-1", dec("100"))

		err := svc.Withdraw(ctx, "tenant-1", "sav-1", dec("10"), valueDate)
		assert.ErrorContains(t, err, "predates activation")

		err = svc.Deposit(ctx, "tenant-1", "sav-1", dec("10"), valueDate)
		assert.ErrorContains(t, err, "predates activation")
	})

	t.Run("missing account", func(t *testing.T) {
		svc := adapter.NewStubSavingsService()
		err := svc.Deposit(ctx, "tenant-1", "", dec("10"), valueDate)
		assert.ErrorContains(t, err, "account ID is required")

		_, err = svc.GetBalance(ctx, "tenant-1", "")
		assert.Error(t, err)
	})
}
