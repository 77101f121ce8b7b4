package job_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corebank/loanengine/internal/application/job"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loanIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("loan-%03d", i)
	}
	return ids
}

func TestRunnerProcessesEveryLoan(t *testing.T) {
	runner := job.NewRunner(4, job.NewLockRegistry(), silentLogger())

	var count atomic.Int64
	stats := runner.Run(context.Background(), loanIDs(50), func(ctx context.Context, loanID string) error {
		count.Add(1)
		return nil
	})

	assert.Equal(t, 50, stats.Processed)
	assert.Equal(t, int64(50), count.Load())
	assert.Zero(t, stats.Skipped)
	assert.Empty(t, stats.Failures)
}

func TestRunnerCollectsFailures(t *testing.T) {
	runner := job.NewRunner(2, job.NewLockRegistry(), silentLogger())

	boom := errors.New("ledger unavailable")
	stats := runner.Run(context.Background(), loanIDs(10), func(ctx context.Context, loanID string) error {
		if loanID == "loan-003" || loanID == "loan-007" {
			return boom
		}
		return nil
	})

	assert.Equal(t, 8, stats.Processed)
	require.Len(t, stats.Failures, 2)
	assert.Contains(t, stats.Failures, "loan-003: ledger unavailable")
	assert.Contains(t, stats.Failures, "loan-007: ledger unavailable")
}

func TestRunnerSkipsAfterCancellation(t *testing.T) {
	runner := job.NewRunner(1, job.NewLockRegistry(), silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stats := runner.Run(ctx, loanIDs(5), func(ctx context.Context, loanID string) error {
		t.Fatal("no task should run with a cancelled context")
		return nil
	})

	assert.Zero(t, stats.Processed)
	assert.Equal(t, 5, stats.Skipped)
}

func TestRunnerSerializesPerLoan(t *testing.T) {
	registry := job.NewLockRegistry()
	runner := job.NewRunner(8, registry, silentLogger())

	// Every task targets the same loan; the per-loan lock must keep them
	// from overlapping.
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = "loan-001"
	}

	var inFlight, maxInFlight atomic.Int64
	stats := runner.Run(context.Background(), ids, func(ctx context.Context, loanID string) error {
		cur := inFlight.Add(1)
		for {
			prev := maxInFlight.Load()
			if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
				break
			}
		}
		inFlight.Add(-1)
		return nil
	})

	assert.Equal(t, 20, stats.Processed)
	assert.Equal(t, int64(1), maxInFlight.Load())
}

func TestRunnerClampsWorkerCount(t *testing.T) {
	runner := job.NewRunner(0, job.NewLockRegistry(), silentLogger())

	stats := runner.Run(context.Background(), loanIDs(3), func(ctx context.Context, loanID string) error {
		return nil
	})
	assert.Equal(t, 3, stats.Processed)
}

func TestLockRegistry(t *testing.T) {
	registry := job.NewLockRegistry()

	t.Run("different loans do not block each other", func(t *testing.T) {
		releaseA := registry.Lock("loan-a")
		defer releaseA()

		done := make(chan struct{})
		go func() {
			release := registry.Lock("loan-b")
			release()
			close(done)
		}()
		<-done
	})

	t.Run("the same loan serializes", func(t *testing.T) {
		release := registry.Lock("loan-c")

		var wg sync.WaitGroup
		acquired := false
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := registry.Lock("loan-c")
			acquired = true
			r()
		}()

		assert.False(t, acquired)
		release()
		wg.Wait()
		assert.True(t, acquired)
	})
}
