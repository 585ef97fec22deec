// Package poller runs a task on a fixed interval with at most one execution
// in flight at a time. Replaces the uncoordinated browser-style refresh
// timer: under a slow collaborator ticks are skipped, never stacked.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

type TaskFunc func(ctx context.Context) error

type Poller struct {
	name     string
	interval time.Duration
	task     TaskFunc

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func New(name string, interval time.Duration, task TaskFunc) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		task:     task,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. Each tick runs the task synchronously in
// the loop goroutine, so a tick that arrives while the task is still
// running is dropped by the ticker rather than starting a second run.
// Failures are logged and the loop keeps its fixed cadence: no backoff, no
// pause-on-failure, each tick is independent.
func (p *Poller) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.started.Store(true)
		go p.run(ctx)
	})
}

func (p *Poller) run(ctx context.Context) {

	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
			if err := p.task(ctx); err != nil {
				slog.Warn("Poll tick failed",
					slog.String("poller", p.name),
					slog.String("error", err.Error()))
			}
		}
	}
}

// Stop halts the loop and waits for any in-flight task to finish. Safe to
// call more than once and before Start.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})

	if !p.started.Load() {
		return
	}

	select {
	case <-p.done:
	case <-time.After(p.interval + 5*time.Second):
		slog.Warn("Poller did not drain in time", slog.String("poller", p.name))
	}
}
