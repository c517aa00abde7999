// Package optimistic implements the optimistic update coordinator that
// drives backline's list views.
//
// A Coordinator owns the last-known-confirmed list of entities (the base)
// plus a map of in-flight speculative edits (pending actions). The view it
// derives is always the base with every pending entity's value overridden
// by its optimistic value - an entity being deleted disappears, an entity
// being updated shows the intended outcome, everything else shows the last
// confirmed value.
//
// Lifecycle per entity key: Idle -> Pending -> {Committed, Reverted} -> Idle.
// Committed and Reverted are transient - they collapse back to Idle as soon
// as their side effects (base update, callback) have been applied. There is
// no error terminal state: after a revert the entity simply reflects its
// last confirmed value and the failure is reported through the revert
// callback.
//
// CONCURRENCY MODEL:
//
// Apply and Delete never block the caller; each confirm operation runs on
// its own goroutine and many may be in flight at once, one per distinct
// pending key. All state mutation is serialized through a single
// mutex-guarded settlement path, so commits for different keys apply
// independent, non-overlapping updates and commute safely. Operations on
// the SAME key are serialized by policy (reject or supersede) - the view
// can never observe two pending operations for one key both applying
// their effects.
//
// FAILURE SEMANTICS:
//
// A failed confirm is never retried by the coordinator; retry is a fresh
// Apply by the caller. There is no internal timeout - the coordinator
// waits indefinitely for confirm to settle, deferring to whatever timeout
// the supplied context or HTTP client carries. After Close, settlements
// arriving from still-running confirms mutate nothing and fire no
// callbacks.
package optimistic
