package optimistic

import (
	"context"
	"time"
)

// Kind distinguishes the two speculative edit shapes.
type Kind string

const (
	// KindUpdate substitutes the optimistic value into the view.
	KindUpdate Kind = "update"
	// KindDelete removes the entity from the view; revert restores it
	// at its original position.
	KindDelete Kind = "delete"
)

// ConfirmFunc is the asynchronous confirmation for a speculative edit,
// typically a closure around the backend API call. A nil error commits
// the optimistic value; a non-nil error reverts it.
//
// The coordinator never retries and never applies its own timeout; pass
// a context with whatever deadline the caller wants honored.
type ConfirmFunc func(ctx context.Context) error

// Action is the immutable record of one pending speculative edit.
// Created synchronously when the edit is requested, never mutated, and
// discarded exactly once when its confirm settles.
type Action[K comparable, E any] struct {
	// Token uniquely identifies this action. A settlement only applies
	// if its token still matches the pending record for the key, which
	// is how superseded actions become no-ops.
	Token string

	// Key is the entity identity the edit targets.
	Key K

	// Kind is update or delete.
	Kind Kind

	// Previous is the rollback target: the last confirmed value at the
	// time the edit was requested. Under the supersede policy a
	// replacement action inherits the ORIGINAL previous value, so a
	// chain of edits still reverts to confirmed state.
	Previous E

	// Optimistic is the value rendered while the confirm is in flight.
	// For deletes it equals Previous and the view omits the entity.
	Optimistic E

	// Index is the entity's position in the base list when the edit was
	// requested. Recorded for deletes so a revert can report where the
	// entity reappears.
	Index int

	// Seq is the logical clock stamp assigned at apply time.
	Seq int64

	// StartedAt is wall-clock apply time, for display and the journal.
	// Never used for ordering.
	StartedAt time.Time
}
