package job

import (
	"context"
	"log/slog"
	"sync"
)

// LockRegistry hands out one mutex per loan so concurrent operations on the
// same loan serialize while different loans proceed in parallel. Locks are
// created on demand and never evicted; the registry is sized by the set of
// loans touched in a process lifetime.
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockRegistry creates an empty LockRegistry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the per-loan mutex and returns its release function.
func (r *LockRegistry) Lock(loanID string) func() {
	r.mu.Lock()
	m, ok := r.locks[loanID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[loanID] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// Stats summarises one batch run.
type Stats struct {
	Processed int
	Skipped   int
	Failures  []string
}

// Runner executes a per-loan task across a set of loans with a bounded
// worker pool. A cancelled context stops dispatching; loans not yet started
// count as skipped. One failing loan never aborts the batch.
type Runner struct {
	workers  int
	registry *LockRegistry
	logger   *slog.Logger
}

// NewRunner creates a Runner. Worker counts below one are clamped to one.
func NewRunner(workers int, registry *LockRegistry, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{workers: workers, registry: registry, logger: logger}
}

// Run fans the task out over loanIDs and blocks until every dispatched task
// has finished.
func (r *Runner) Run(ctx context.Context, loanIDs []string, task func(ctx context.Context, loanID string) error) Stats {
	var (
		mu    sync.Mutex
		stats Stats
		wg    sync.WaitGroup
	)
	sem := make(chan struct{}, r.workers)

	for _, id := range loanIDs {
		// Checked before the select: with a free semaphore slot the select
		// would otherwise pick a case at random and could dispatch after
		// cancellation.
		if ctx.Err() != nil {
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			continue
		}

		select {
		case <-ctx.Done():
			mu.Lock()
			stats.Skipped++
			mu.Unlock()
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(loanID string) {
			defer wg.Done()
			defer func() { <-sem }()

			release := r.registry.Lock(loanID)
			defer release()

			if err := task(ctx, loanID); err != nil {
				r.logger.Error("batch task failed",
					slog.String("loan_id", loanID),
					slog.String("error", err.Error()))
				mu.Lock()
				stats.Failures = append(stats.Failures, loanID+": "+err.Error())
				mu.Unlock()
				return
			}
			mu.Lock()
			stats.Processed++
			mu.Unlock()
		}(id)
	}

	wg.Wait()
	return stats
}
