package runner_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalnine/abebench/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	var count atomic.Int32
	jobs := make([]runner.Job, 10)
	for i := range jobs {
		jobs[i] = func(context.Context) error {
			count.Add(1)
			return nil
		}
	}
	errs := runner.RunPool(context.Background(), 3, jobs)
	assert.Empty(t, errs)
	assert.Equal(t, int32(10), count.Load())
}

func TestPoolWithErrors(t *testing.T) {
	jobs := []runner.Job{
		func(context.Context) error { return nil },
		func(context.Context) error { return fmt.Errorf("fail one") },
		func(context.Context) error { return nil },
		func(context.Context) error { return fmt.Errorf("fail two") },
	}
	errs := runner.RunPool(context.Background(), 2, jobs)
	require.Len(t, errs, 2)
	assert.EqualError(t, errs[0], "fail one")
	assert.EqualError(t, errs[1], "fail two")
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	jobs := make([]runner.Job, 8)
	for i := range jobs {
		jobs[i] = func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		}
	}
	runner.RunPool(context.Background(), 2, jobs)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPoolZeroWorkers(t *testing.T) {
	var count atomic.Int32
	jobs := []runner.Job{
		func(context.Context) error { count.Add(1); return nil },
		func(context.Context) error { count.Add(1); return nil },
	}
	assert.Empty(t, runner.RunPool(context.Background(), 0, jobs))
	assert.Equal(t, int32(2), count.Load())
}

func TestPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var count atomic.Int32
	jobs := []runner.Job{
		func(context.Context) error { count.Add(1); return nil },
	}
	errs := runner.RunPool(ctx, 1, jobs)
	// the select may pick either ready case; a job that runs must see ctx done
	if count.Load() == 0 {
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], context.Canceled)
	}
}
