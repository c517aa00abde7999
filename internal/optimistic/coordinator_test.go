package optimistic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// account is a minimal entity for coordinator tests.
type account struct {
	ID     int
	Name   string
	Active bool
}

func accountKey(a account) int { return a.ID }

// gate is a confirm that blocks until the test releases it with an outcome.
type gate chan error

func newGate() gate { return make(gate) }

func (g gate) confirm(ctx context.Context) error {
	select {
	case err := <-g:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func confirmOK(context.Context) error   { return nil }
func confirmFail(context.Context) error { return errors.New("backend said no") }

// newTestCoordinator wires a coordinator with a settlement channel so
// tests can await resolution deterministically.
func newTestCoordinator(t *testing.T, base []account, opts ...Option[int, account]) (*Coordinator[int, account], chan Settlement[int, account]) {
	t.Helper()
	settled := make(chan Settlement[int, account], 16)
	opts = append(opts, OnSettle[int, account](func(s Settlement[int, account]) {
		settled <- s
	}))
	c := New(accountKey, base, opts...)
	t.Cleanup(c.Close)
	return c, settled
}

func awaitSettlement(t *testing.T, ch chan Settlement[int, account]) Settlement[int, account] {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for settlement")
		return Settlement[int, account]{}
	}
}

func TestCoordinator_ApplyIsSynchronouslyVisible(t *testing.T) {
	base := []account{{ID: 1, Name: "asha", Active: true}}
	c, settled := newTestCoordinator(t, base)

	g := newGate()
	err := c.Apply(context.Background(), base[0], account{ID: 1, Name: "asha", Active: false}, g.confirm)
	require.NoError(t, err)

	// The derived view reflects the optimistic value before the confirm
	// resolves, and the key reports pending.
	view := c.View()
	require.Len(t, view, 1)
	assert.False(t, view[0].Active)
	assert.True(t, c.IsPending(1))

	// The base is untouched while pending.
	assert.True(t, c.Base()[0].Active)

	g <- nil
	s := awaitSettlement(t, settled)
	assert.Equal(t, OutcomeCommitted, s.Outcome)
	assert.False(t, c.IsPending(1))

	// After commit the base matches the optimistic value.
	assert.False(t, c.Base()[0].Active)
	assert.False(t, c.View()[0].Active)
}

func TestCoordinator_FailedConfirmReverts(t *testing.T) {
	base := []account{{ID: 1, Name: "asha", Active: true}}
	c, settled := newTestCoordinator(t, base)

	err := c.Apply(context.Background(), base[0], base[0].WithInactive(), confirmFail)
	require.NoError(t, err)

	s := awaitSettlement(t, settled)
	require.Equal(t, OutcomeReverted, s.Outcome)
	assert.EqualError(t, s.Err, "backend said no")
	assert.Equal(t, 1, s.Action.Key)

	// The row snaps back to its prior displayed value.
	view := c.View()
	require.Len(t, view, 1)
	assert.True(t, view[0].Active)
	assert.False(t, c.IsPending(1))
}

// WithInactive mirrors the entity helpers used by the real DTOs.
func (a account) WithInactive() account {
	a.Active = false
	return a
}

func TestCoordinator_DeleteCommitRemovesFromBase(t *testing.T) {
	base := []account{{ID: 1}, {ID: 2}}
	c, settled := newTestCoordinator(t, base)

	g := newGate()
	require.NoError(t, c.Delete(context.Background(), base[1], g.confirm))

	// Immediately omitted from the view.
	view := c.View()
	require.Len(t, view, 1)
	assert.Equal(t, 1, view[0].ID)

	g <- nil
	s := awaitSettlement(t, settled)
	assert.Equal(t, OutcomeCommitted, s.Outcome)
	assert.Equal(t, KindDelete, s.Action.Kind)

	// The confirmed list shrinks too.
	require.Len(t, c.Base(), 1)
	assert.Equal(t, 1, c.Base()[0].ID)
}

func TestCoordinator_DeleteRevertRestoresOriginalPosition(t *testing.T) {
	base := []account{{ID: 1}, {ID: 2}, {ID: 3}}
	c, settled := newTestCoordinator(t, base)

	require.NoError(t, c.Delete(context.Background(), base[1], confirmFail))

	s := awaitSettlement(t, settled)
	require.Equal(t, OutcomeReverted, s.Outcome)
	assert.Equal(t, 1, s.Action.Index)

	// id 2 reappears between 1 and 3.
	view := c.View()
	require.Len(t, view, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{view[0].ID, view[1].ID, view[2].ID})
}

func TestCoordinator_RejectPolicyRefusesSecondEdit(t *testing.T) {
	base := []account{{ID: 1, Active: true}}
	c, _ := newTestCoordinator(t, base)

	g := newGate()
	require.NoError(t, c.Apply(context.Background(), base[0], base[0].WithInactive(), g.confirm))

	err := c.Apply(context.Background(), base[0], base[0].WithInactive(), confirmOK)
	require.Error(t, err)
	assert.True(t, IsActionPending(err))

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeActionPending, ce.Code)

	close(g)
}

func TestCoordinator_SupersedeInheritsOriginalRollback(t *testing.T) {
	base := []account{{ID: 1, Name: "asha", Active: true}}
	c, settled := newTestCoordinator(t, base, WithPolicy[int, account](PolicySupersede))

	first := newGate()
	require.NoError(t, c.Apply(context.Background(), base[0], account{ID: 1, Name: "asha", Active: false}, first.confirm))

	// Second edit supersedes while the first is in flight. Its rollback
	// target must be the ORIGINAL confirmed value, not the first edit's
	// optimistic value.
	current := c.View()[0]
	require.NoError(t, c.Apply(context.Background(), current, account{ID: 1, Name: "ash", Active: false}, confirmFail))

	s := awaitSettlement(t, settled)
	require.Equal(t, OutcomeReverted, s.Outcome)

	view := c.View()
	require.Len(t, view, 1)
	assert.Equal(t, "asha", view[0].Name)
	assert.True(t, view[0].Active, "revert must restore the confirmed value, not an intermediate optimistic one")

	// The superseded action's late settlement is a no-op.
	first <- nil
	time.Sleep(20 * time.Millisecond)
	assert.True(t, c.Base()[0].Active)
	assert.Equal(t, 0, c.PendingCount())
	select {
	case s := <-settled:
		t.Fatalf("superseded action settled: %+v", s)
	default:
	}
}

func TestCoordinator_NonPendingEntriesEqualBase(t *testing.T) {
	base := []account{{ID: 1, Active: true}, {ID: 2, Active: true}, {ID: 3, Active: true}}
	c, _ := newTestCoordinator(t, base)

	g := newGate()
	require.NoError(t, c.Apply(context.Background(), base[1], base[1].WithInactive(), g.confirm))

	view := c.View()
	b := c.Base()
	assert.Equal(t, b[0], view[0])
	assert.Equal(t, b[2], view[2])
	assert.NotEqual(t, b[1], view[1])

	close(g)
}

func TestCoordinator_IsPendingIsPure(t *testing.T) {
	base := []account{{ID: 1, Active: true}}
	c, settled := newTestCoordinator(t, base)

	g := newGate()
	require.NoError(t, c.Apply(context.Background(), base[0], base[0].WithInactive(), g.confirm))

	for i := 0; i < 5; i++ {
		assert.True(t, c.IsPending(1))
	}
	assert.False(t, c.IsPending(2))

	g <- nil
	awaitSettlement(t, settled)
	assert.False(t, c.IsPending(1))
}

func TestCoordinator_CloseSuppressesLateSettlement(t *testing.T) {
	base := []account{{ID: 1, Active: true}}
	settled := make(chan Settlement[int, account], 1)
	c := New(accountKey, base, OnSettle[int, account](func(s Settlement[int, account]) {
		settled <- s
	}))

	g := newGate()
	require.NoError(t, c.Apply(context.Background(), base[0], base[0].WithInactive(), g.confirm))

	c.Close()
	g <- nil

	select {
	case s := <-settled:
		t.Fatalf("settlement fired after close: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCoordinator_ApplyAfterCloseRejected(t *testing.T) {
	base := []account{{ID: 1, Active: true}}
	c, _ := newTestCoordinator(t, base)
	c.Close()

	err := c.Apply(context.Background(), base[0], base[0].WithInactive(), confirmOK)
	require.Error(t, err)
	assert.True(t, IsClosed(err))

	err = c.Delete(context.Background(), base[0], confirmOK)
	assert.True(t, IsClosed(err))
}

func TestCoordinator_CloseIsIdempotent(t *testing.T) {
	c, _ := newTestCoordinator(t, []account{{ID: 1}})
	c.Close()
	c.Close()
}

func TestCoordinator_KeyMismatchRejected(t *testing.T) {
	base := []account{{ID: 1, Active: true}}
	c, _ := newTestCoordinator(t, base)

	err := c.Apply(context.Background(), base[0], account{ID: 2, Active: false}, confirmOK)
	require.Error(t, err)

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeKeyMismatch, ce.Code)
}

func TestCoordinator_SetBaseKeepsPendingOverlay(t *testing.T) {
	base := []account{{ID: 1, Name: "asha", Active: true}}
	c, settled := newTestCoordinator(t, base)

	g := newGate()
	require.NoError(t, c.Apply(context.Background(), base[0], base[0].WithInactive(), g.confirm))

	// A poll refresh lands mid-flight with a new name from the server.
	c.SetBase([]account{{ID: 1, Name: "asha k", Active: true}, {ID: 2, Name: "ben", Active: true}})

	view := c.View()
	require.Len(t, view, 2)
	// Pending override still wins for key 1.
	assert.False(t, view[0].Active)
	assert.Equal(t, "ben", view[1].Name)

	g <- nil
	awaitSettlement(t, settled)

	// Commit folded the optimistic value into the refreshed base.
	assert.False(t, c.Base()[0].Active)
}

func TestCoordinator_CommitAfterKeyVanishesIsNoop(t *testing.T) {
	base := []account{{ID: 1, Active: true}}
	c, settled := newTestCoordinator(t, base)

	g := newGate()
	require.NoError(t, c.Apply(context.Background(), base[0], base[0].WithInactive(), g.confirm))

	// The server refresh no longer contains key 1.
	c.SetBase([]account{{ID: 2, Active: true}})

	g <- nil
	s := awaitSettlement(t, settled)
	assert.Equal(t, OutcomeCommitted, s.Outcome)
	require.Len(t, c.Base(), 1)
	assert.Equal(t, 2, c.Base()[0].ID)
}

func TestCoordinator_DistinctKeysSettleIndependently(t *testing.T) {
	base := []account{{ID: 1, Active: true}, {ID: 2, Active: true}, {ID: 3, Active: true}}
	c, settled := newTestCoordinator(t, base)

	g1, g3 := newGate(), newGate()
	require.NoError(t, c.Apply(context.Background(), base[0], base[0].WithInactive(), g1.confirm))
	require.NoError(t, c.Apply(context.Background(), base[2], base[2].WithInactive(), g3.confirm))
	assert.Equal(t, 2, c.PendingCount())

	// Resolve out of order: key 3 fails first, then key 1 commits.
	g3 <- errors.New("conflict")
	s := awaitSettlement(t, settled)
	assert.Equal(t, 3, s.Action.Key)
	assert.Equal(t, OutcomeReverted, s.Outcome)

	g1 <- nil
	s = awaitSettlement(t, settled)
	assert.Equal(t, 1, s.Action.Key)
	assert.Equal(t, OutcomeCommitted, s.Outcome)

	b := c.Base()
	assert.False(t, b[0].Active)
	assert.True(t, b[1].Active)
	assert.True(t, b[2].Active)
}

func TestCoordinator_SettlementSeqsAreMonotonic(t *testing.T) {
	base := []account{{ID: 1, Active: true}, {ID: 2, Active: true}}
	c, settled := newTestCoordinator(t, base, WithTokens[int, account](NewFixedGenerator("a", "b")))

	require.NoError(t, c.Apply(context.Background(), base[0], base[0].WithInactive(), confirmOK))
	s1 := awaitSettlement(t, settled)
	require.NoError(t, c.Apply(context.Background(), base[1], base[1].WithInactive(), confirmOK))
	s2 := awaitSettlement(t, settled)

	assert.Equal(t, "a", s1.Action.Token)
	assert.Equal(t, "b", s2.Action.Token)
	assert.Greater(t, s2.Seq, s1.Seq)
	assert.Greater(t, s1.Seq, s1.Action.Seq)
}
