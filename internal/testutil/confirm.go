// Package testutil provides deterministic building blocks for exercising
// the optimistic coordinator in tests and scenario harnesses: scripted
// confirms, a settlement collector, and canned ChefSync entities.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/chefsync/backline/internal/optimistic"
)

// ImmediateConfirm returns a confirm that resolves with err as soon as
// the coordinator runs it.
func ImmediateConfirm(err error) optimistic.ConfirmFunc {
	return func(context.Context) error {
		return err
	}
}

// GatedConfirm returns a confirm that blocks until release is called
// with its outcome. Tests use the gate to hold an action in the pending
// state while asserting on the derived view.
//
// release may be called before or after the coordinator runs the
// confirm; the outcome is buffered. Calling release twice panics.
func GatedConfirm() (confirm optimistic.ConfirmFunc, release func(error)) {
	ch := make(chan error, 1)
	confirm = func(ctx context.Context) error {
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	release = func(err error) {
		ch <- err
		close(ch)
	}
	return confirm, release
}

// SettlementLog collects settlements in arrival order.
// Pass Record as the OnSettle option and WaitFor the expected count.
type SettlementLog[K comparable, E any] struct {
	mu      sync.Mutex
	entries []optimistic.Settlement[K, E]
	arrived chan struct{}
}

// NewSettlementLog creates an empty settlement log.
func NewSettlementLog[K comparable, E any]() *SettlementLog[K, E] {
	return &SettlementLog[K, E]{arrived: make(chan struct{}, 64)}
}

// Record appends one settlement. Safe for concurrent use.
func (l *SettlementLog[K, E]) Record(s optimistic.Settlement[K, E]) {
	l.mu.Lock()
	l.entries = append(l.entries, s)
	l.mu.Unlock()
	l.arrived <- struct{}{}
}

// Entries returns a copy of the settlements collected so far.
func (l *SettlementLog[K, E]) Entries() []optimistic.Settlement[K, E] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]optimistic.Settlement[K, E](nil), l.entries...)
}

// WaitFor blocks until n settlements have arrived, then returns them.
// Returns false if the timeout elapses first.
func (l *SettlementLog[K, E]) WaitFor(n int, timeout time.Duration) ([]optimistic.Settlement[K, E], bool) {
	deadline := time.After(timeout)
	for {
		l.mu.Lock()
		have := len(l.entries)
		l.mu.Unlock()
		if have >= n {
			return l.Entries(), true
		}
		select {
		case <-l.arrived:
		case <-deadline:
			return l.Entries(), false
		}
	}
}
