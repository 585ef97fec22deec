package poller_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/servicehubhq/cart-service/internal/poller"
	"github.com/stretchr/testify/assert"
)

func TestPollerRunsOnInterval(t *testing.T) {
	var ticks atomic.Int32

	p := poller.New("test", 10*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)

		return nil
	})

	p.Start(context.Background())

	assert.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	p.Stop()
}

func TestPollerSingleInFlight(t *testing.T) {
	var inFlight atomic.Int32
	var overlapped atomic.Bool

	p := poller.New("slow", 5*time.Millisecond, func(ctx context.Context) error {
		if inFlight.Add(1) > 1 {
			overlapped.Store(true)
		}
		defer inFlight.Add(-1)

		// Task runs much longer than the interval.
		time.Sleep(25 * time.Millisecond)

		return nil
	})

	p.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	p.Stop()

	assert.False(t, overlapped.Load(), "a tick started while the previous one was still running")
}

func TestPollerKeepsTickingAfterFailure(t *testing.T) {
	var ticks atomic.Int32

	p := poller.New("failing", 10*time.Millisecond, func(ctx context.Context) error {
		ticks.Add(1)

		return errors.New("upstream unavailable")
	})

	p.Start(context.Background())

	assert.Eventually(t, func() bool {
		return ticks.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	p.Stop()
}

func TestPollerStop(t *testing.T) {
	t.Run("Stop Without Start Returns", func(t *testing.T) {
		p := poller.New("idle", time.Hour, func(ctx context.Context) error { return nil })
		p.Stop()
	})

	t.Run("Stop Is Idempotent", func(t *testing.T) {
		p := poller.New("twice", 10*time.Millisecond, func(ctx context.Context) error { return nil })
		p.Start(context.Background())
		p.Stop()
		p.Stop()
	})

	t.Run("Context Cancellation Ends Loop", func(t *testing.T) {
		var ticks atomic.Int32

		ctx, cancel := context.WithCancel(context.Background())

		p := poller.New("ctx", 10*time.Millisecond, func(ctx context.Context) error {
			ticks.Add(1)

			return nil
		})
		p.Start(ctx)

		assert.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, 5*time.Millisecond)

		cancel()
		time.Sleep(50 * time.Millisecond)
		before := ticks.Load()
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, before, ticks.Load())
	})
}
