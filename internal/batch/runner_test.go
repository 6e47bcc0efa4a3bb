package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when the runner sleeps or an op takes time.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.t = c.t.Add(d)
	return nil
}

func newFakeRunner(delay time.Duration) (*Runner, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
	r := NewRunner(RunnerConfig{Delay: delay, Operation: "test", Now: clock.now, Sleep: clock.sleep})
	return r, clock
}

func TestRunAllSucceed(t *testing.T) {
	r, clock := newFakeRunner(1500 * time.Millisecond)
	start := clock.t

	var dispatched []time.Duration
	var order []int
	results, err := Run(context.Background(), r, []int{11, 12, 13}, func(_ context.Context, id int) (string, error) {
		dispatched = append(dispatched, clock.t.Sub(start))
		order = append(order, id)
		return fmt.Sprintf("ok-%d", id), nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"ok-11", "ok-12", "ok-13"}, results)
	assert.Equal(t, []int{11, 12, 13}, order)
	assert.Equal(t, []time.Duration{0, 1500 * time.Millisecond, 3000 * time.Millisecond}, dispatched)
}

func TestRunDelayCountsFromDispatchNotCompletion(t *testing.T) {
	r, clock := newFakeRunner(time.Second)
	start := clock.t

	var dispatched []time.Duration
	_, err := Run(context.Background(), r, []string{"a", "b", "c"}, func(_ context.Context, item string) (string, error) {
		dispatched = append(dispatched, clock.t.Sub(start))
		switch item {
		case "a":
			clock.t = clock.t.Add(400 * time.Millisecond)
		case "b":
			// Slower than the delay: the next dispatch follows completion.
			clock.t = clock.t.Add(1700 * time.Millisecond)
		}
		return item, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{0, time.Second, 2700 * time.Millisecond}, dispatched)
}

func TestRunFailsFast(t *testing.T) {
	r, _ := newFakeRunner(time.Second)
	boom := errors.New("409 conflict")

	calls := 0
	results, err := Run(context.Background(), r, []int{1, 2, 3, 4, 5}, func(_ context.Context, id int) (int, error) {
		calls++
		if id == 3 {
			return 0, boom
		}
		return id, nil
	})

	assert.Nil(t, results)
	assert.Equal(t, 3, calls)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var itemErr *ItemError
	require.ErrorAs(t, err, &itemErr)
	assert.Equal(t, 2, itemErr.Index)
	assert.Equal(t, 2, itemErr.Completed())
	assert.Contains(t, err.Error(), "batch item 3")
}

func TestRunFirstItemFailure(t *testing.T) {
	r, _ := newFakeRunner(time.Second)

	calls := 0
	_, err := Run(context.Background(), r, []int{1, 2}, func(_ context.Context, id int) (int, error) {
		calls++
		return 0, errors.New("down")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunEmpty(t *testing.T) {
	r, _ := newFakeRunner(time.Second)

	results, err := Run(context.Background(), r, nil, func(_ context.Context, id int) (int, error) {
		t.Fatalf("op must not be called for empty input")
		return 0, nil
	})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	r, _ := newFakeRunner(time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	_, err := Run(ctx, r, []int{1, 2, 3}, func(_ context.Context, id int) (int, error) {
		calls++
		cancel()
		return id, nil
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRealClockSpacing(t *testing.T) {
	delay := 20 * time.Millisecond
	r := NewRunner(RunnerConfig{Delay: delay})

	var stamps []time.Time
	_, err := Run(context.Background(), r, []int{1, 2, 3}, func(_ context.Context, id int) (int, error) {
		stamps = append(stamps, time.Now())
		return id, nil
	})

	require.NoError(t, err)
	require.Len(t, stamps, 3)
	// Stamps are taken inside op, a hair after the runner's own dispatch time.
	for i := 1; i < len(stamps); i++ {
		assert.GreaterOrEqual(t, stamps[i].Sub(stamps[i-1]), delay-time.Millisecond)
	}
}

func TestNewRunnerClampsNegativeDelay(t *testing.T) {
	r := NewRunner(RunnerConfig{Delay: -time.Second})
	assert.Equal(t, time.Duration(0), r.Delay())
}
