// Package batch applies one remote operation to an ordered list of items,
// one request at a time, with a fixed spacing between dispatches.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/observability"
)

type Op[T, R any] func(ctx context.Context, item T) (R, error)

// ItemError is the single failure of a batch. Items before Index
// completed; items after it were never attempted.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("batch item %d: %v", e.Index+1, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Completed is how many items finished before the failing one.
func (e *ItemError) Completed() int { return e.Index }

type Runner struct {
	delay     time.Duration
	operation string
	log       *slog.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
}

type RunnerConfig struct {
	// Delay is the minimum spacing between two consecutive dispatches.
	Delay time.Duration
	// Operation labels logs and metrics.
	Operation string
	Logger    *slog.Logger
	// Now and Sleep replace the wall clock; both nil outside tests.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.Discard()
	}
	op := cfg.Operation
	if op == "" {
		op = "batch"
	}
	delay := cfg.Delay
	if delay < 0 {
		delay = 0
	}
	r := &Runner{
		delay:     delay,
		operation: op,
		log:       logger,
		now:       time.Now,
		sleep:     sleepContext,
	}
	if cfg.Now != nil {
		r.now = cfg.Now
	}
	if cfg.Sleep != nil {
		r.sleep = cfg.Sleep
	}
	return r
}

func (r *Runner) Delay() time.Duration { return r.delay }

// Run dispatches op for every item in order. Item i+1 is dispatched no
// sooner than delay after item i was dispatched, and never before item i
// has completed. The first failure stops the batch.
func Run[T, R any](ctx context.Context, r *Runner, items []T, op Op[T, R]) ([]R, error) {
	results := make([]R, 0, len(items))
	var lastDispatch time.Time

	for i, item := range items {
		if i > 0 {
			if wait := r.delay - r.now().Sub(lastDispatch); wait > 0 {
				if err := r.sleep(ctx, wait); err != nil {
					return nil, &ItemError{Index: i, Err: err}
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, &ItemError{Index: i, Err: err}
		}

		lastDispatch = r.now()
		r.log.Info("batch dispatch", "operation", r.operation, "index", i, "total", len(items), "item", item)

		res, err := op(ctx, item)
		if err != nil {
			observability.BatchItems.WithLabelValues(r.operation, "failed").Inc()
			r.log.Warn("batch item failed", "operation", r.operation, "index", i, "item", item, "error", err)
			return nil, &ItemError{Index: i, Err: err}
		}
		observability.BatchItems.WithLabelValues(r.operation, "ok").Inc()
		results = append(results, res)
	}
	return results, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
