// Package poller periodically refreshes a coordinator's base list from
// the backend. The refresh is a plain SetBase, so pending optimistic
// overlays survive every poll.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// RefreshFunc fetches a fresh server snapshot and installs it, typically
// a closure over an api list call and Coordinator.SetBase.
type RefreshFunc func(ctx context.Context) error

// Poller runs one RefreshFunc on a fixed interval.
//
// Ticks never overlap: if a refresh is still in flight when the next tick
// fires, that tick is skipped rather than queued, so a slow backend
// cannot pile up requests. The first refresh runs immediately on Start.
type Poller struct {
	interval time.Duration
	refresh  RefreshFunc
	log      *slog.Logger

	inFlight atomic.Bool
	wg       sync.WaitGroup
	cancel   context.CancelFunc
	done     chan struct{}
	mu       sync.Mutex
	started  bool
}

// New creates a poller. interval must be positive.
func New(interval time.Duration, refresh RefreshFunc, log *slog.Logger) *Poller {
	if log == nil {
		log = slog.Default()
	}
	return &Poller{
		interval: interval,
		refresh:  refresh,
		log:      log,
	}
}

// Start launches the poll loop. The first refresh runs before the first
// interval elapses. Calling Start twice is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go p.loop(ctx)
}

// Stop cancels the loop and waits for any in-flight refresh to return.
// No refresh starts after Stop returns. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.started = false
	p.cancel()
	<-p.done
	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.done)

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one refresh on its own goroutine, unless the previous one is
// still in flight.
func (p *Poller) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.log.Debug("poll tick skipped, refresh still in flight")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)

		start := time.Now()
		if err := p.refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			// Best-effort: the stale base stays until a tick succeeds.
			p.log.Warn("poll refresh failed", "error", err)
			return
		}
		p.log.Debug("poll refreshed", "elapsed", time.Since(start).Round(time.Millisecond).String())
	}()
}
