package optimistic

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Policy decides what happens when an edit targets a key that already has
// a pending action.
type Policy int

const (
	// PolicyReject refuses the new edit with an ACTION_PENDING conflict.
	// This is the default: the row stays busy until its confirm settles.
	PolicyReject Policy = iota

	// PolicySupersede cancels the prior pending action and starts the new
	// one in its place. The superseded action's settlement becomes a
	// no-op, and the new action inherits the original previous value as
	// its rollback target, so the two edits can never both apply.
	PolicySupersede
)

// Outcome is the terminal disposition of a settled action.
type Outcome string

const (
	// OutcomeCommitted finalizes the optimistic value into the base list.
	OutcomeCommitted Outcome = "committed"
	// OutcomeReverted discards the optimistic value; the view snaps back
	// to the last confirmed value.
	OutcomeReverted Outcome = "reverted"
)

// Settlement reports one settled action to the OnSettle callback.
type Settlement[K comparable, E any] struct {
	Action  Action[K, E]
	Outcome Outcome
	// Err is the confirm failure for reverted settlements, nil otherwise.
	Err error
	// Seq is the logical clock stamp assigned at settlement time.
	Seq int64
}

// Coordinator reconciles speculative local edits against server-
// authoritative confirmation for one list-based view. See the package
// documentation for the derived-view invariant and concurrency model.
type Coordinator[K comparable, E any] struct {
	mu      sync.Mutex
	keyOf   func(E) K
	base    []E
	pending map[K]Action[K, E]
	closed  bool

	clock    *Clock
	tokens   TokenGenerator
	policy   Policy
	onSettle func(Settlement[K, E])
}

// Option configures a Coordinator.
type Option[K comparable, E any] func(*Coordinator[K, E])

// WithPolicy sets the concurrent-edit policy. Default is PolicyReject.
func WithPolicy[K comparable, E any](p Policy) Option[K, E] {
	return func(c *Coordinator[K, E]) { c.policy = p }
}

// WithTokens sets the action token generator. Default is UUIDv7Generator.
// Tests use FixedGenerator for deterministic traces.
func WithTokens[K comparable, E any](g TokenGenerator) Option[K, E] {
	return func(c *Coordinator[K, E]) { c.tokens = g }
}

// WithClock sets the logical clock. Default is a fresh clock at 0.
// Pass NewClockAt to continue a journal's sequence.
func WithClock[K comparable, E any](clock *Clock) Option[K, E] {
	return func(c *Coordinator[K, E]) { c.clock = clock }
}

// OnSettle registers the settlement callback. It fires exactly once per
// settled action - committed or reverted - after the view effect has been
// applied, and never after Close. The callback runs on the confirm's
// goroutine with no locks held, so it may call back into the coordinator.
func OnSettle[K comparable, E any](fn func(Settlement[K, E])) Option[K, E] {
	return func(c *Coordinator[K, E]) { c.onSettle = fn }
}

// New creates a Coordinator over a base list.
//
// keyOf extracts the identity the coordinator tracks pending edits by.
// The base slice is copied; later server refreshes go through SetBase.
func New[K comparable, E any](keyOf func(E) K, base []E, opts ...Option[K, E]) *Coordinator[K, E] {
	c := &Coordinator[K, E]{
		keyOf:   keyOf,
		base:    append([]E(nil), base...),
		pending: make(map[K]Action[K, E]),
		clock:   NewClock(),
		tokens:  UUIDv7Generator{},
		policy:  PolicyReject,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply requests a speculative field edit: current is the confirmed value
// (the rollback target), optimistic is the value to render immediately.
// The derived view reflects optimistic before Apply returns; confirm runs
// asynchronously and its resolution arrives through OnSettle.
//
// Returns a ConflictError if the coordinator is closed, the identities
// disagree, or the key is already pending under PolicyReject.
func (c *Coordinator[K, E]) Apply(ctx context.Context, current, optimistic E, confirm ConfirmFunc) error {
	return c.start(ctx, KindUpdate, current, optimistic, confirm)
}

// Delete requests a speculative removal: the view omits the entity
// immediately, and a failed confirm restores it at its original position.
func (c *Coordinator[K, E]) Delete(ctx context.Context, current E, confirm ConfirmFunc) error {
	return c.start(ctx, KindDelete, current, current, confirm)
}

func (c *Coordinator[K, E]) start(ctx context.Context, kind Kind, current, optimistic E, confirm ConfirmFunc) error {
	key := c.keyOf(current)
	if optKey := c.keyOf(optimistic); optKey != key {
		return newKeyMismatchError(fmt.Sprint(key), fmt.Sprint(optKey))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return newClosedError()
	}

	act := Action[K, E]{
		Key:        key,
		Kind:       kind,
		Previous:   current,
		Optimistic: optimistic,
		Index:      c.indexOfLocked(key),
		StartedAt:  time.Now(),
	}

	if prior, exists := c.pending[key]; exists {
		if c.policy == PolicyReject {
			c.mu.Unlock()
			return newPendingError(fmt.Sprint(key))
		}
		// Supersede: the prior settlement will find a foreign token and
		// no-op. Inherit the original rollback target and position so a
		// revert restores truly confirmed state.
		act.Previous = prior.Previous
		act.Index = prior.Index
		slog.Debug("pending action superseded",
			"key", fmt.Sprint(key),
			"prior_token", prior.Token,
		)
	}

	act.Token = c.tokens.Generate()
	act.Seq = c.clock.Next()
	c.pending[key] = act
	c.mu.Unlock()

	slog.Debug("action applied",
		"key", fmt.Sprint(key),
		"kind", string(kind),
		"token", act.Token,
		"seq", act.Seq,
	)

	go c.run(ctx, act, confirm)
	return nil
}

// run awaits the confirm and settles its action. Runs on its own
// goroutine, one per in-flight action.
func (c *Coordinator[K, E]) run(ctx context.Context, act Action[K, E], confirm ConfirmFunc) {
	c.settle(act, confirm(ctx))
}

// settle applies the terminal effect of one action: commit into the base
// on success, discard on failure. Settlements for closed coordinators and
// superseded actions are silently ignored.
func (c *Coordinator[K, E]) settle(act Action[K, E], confirmErr error) {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return
	}
	cur, exists := c.pending[act.Key]
	if !exists || cur.Token != act.Token {
		// Superseded while in flight; the replacing action owns the key.
		c.mu.Unlock()
		return
	}
	delete(c.pending, act.Key)

	st := Settlement[K, E]{Action: act, Seq: c.clock.Next()}
	if confirmErr == nil {
		st.Outcome = OutcomeCommitted
		c.commitLocked(act)
	} else {
		st.Outcome = OutcomeReverted
		st.Err = confirmErr
		// Nothing to undo: the base was never touched, so dropping the
		// pending record restores the entity (or re-inserts it at its
		// original position, for deletes).
	}
	onSettle := c.onSettle
	c.mu.Unlock()

	if st.Outcome == OutcomeCommitted {
		slog.Debug("action committed",
			"key", fmt.Sprint(act.Key),
			"kind", string(act.Kind),
			"token", act.Token,
			"seq", st.Seq,
		)
	} else {
		slog.Info("action reverted",
			"key", fmt.Sprint(act.Key),
			"kind", string(act.Kind),
			"token", act.Token,
			"seq", st.Seq,
			"error", confirmErr,
		)
	}

	if onSettle != nil {
		onSettle(st)
	}
}

// commitLocked folds a committed action into the base list.
// Caller holds c.mu.
func (c *Coordinator[K, E]) commitLocked(act Action[K, E]) {
	idx := c.indexOfLocked(act.Key)
	if idx < 0 {
		// The base was refreshed without this key mid-flight; the commit
		// has nothing to update.
		return
	}
	switch act.Kind {
	case KindUpdate:
		c.base[idx] = act.Optimistic
	case KindDelete:
		c.base = append(c.base[:idx], c.base[idx+1:]...)
	}
}

// indexOfLocked returns the base position of key, or -1.
// Caller holds c.mu.
func (c *Coordinator[K, E]) indexOfLocked(key K) int {
	for i, e := range c.base {
		if c.keyOf(e) == key {
			return i
		}
	}
	return -1
}

// View returns the derived list: the base with every pending entity's
// value overridden by its optimistic value and pending deletes omitted.
// Pure query; the returned slice is the caller's to keep.
func (c *Coordinator[K, E]) View() []E {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]E, 0, len(c.base))
	for _, e := range c.base {
		act, exists := c.pending[c.keyOf(e)]
		if !exists {
			out = append(out, e)
			continue
		}
		if act.Kind == KindDelete {
			continue
		}
		out = append(out, act.Optimistic)
	}
	return out
}

// Base returns a copy of the last-known-confirmed list.
func (c *Coordinator[K, E]) Base() []E {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]E(nil), c.base...)
}

// SetBase replaces the confirmed list with a fresh server-authoritative
// snapshot. Pending overlays survive: the next View still shows in-flight
// optimistic values on top of the new base.
func (c *Coordinator[K, E]) SetBase(base []E) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = append([]E(nil), base...)
}

// IsPending reports whether key has an in-flight edit. Pure query.
func (c *Coordinator[K, E]) IsPending(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.pending[key]
	return exists
}

// Pending returns the in-flight action for key, if any. Callers use it
// to journal an action right after Apply returns.
func (c *Coordinator[K, E]) Pending(key K) (Action[K, E], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	act, exists := c.pending[key]
	return act, exists
}

// PendingCount returns the number of in-flight edits.
func (c *Coordinator[K, E]) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Clock returns the coordinator's logical clock, shared with the journal
// so apply and settlement records interleave on one sequence.
func (c *Coordinator[K, E]) Clock() *Clock {
	return c.clock
}

// Close tears the coordinator down. Every settlement that arrives after
// Close - commits and reverts alike - mutates nothing and fires no
// callback. Close is idempotent. Confirm goroutines are not interrupted;
// callers who want them stopped cancel the context they passed to Apply.
func (c *Coordinator[K, E]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if n := len(c.pending); n > 0 {
		slog.Debug("coordinator closed with pending actions", "pending", n)
	}
	c.pending = make(map[K]Action[K, E])
}
