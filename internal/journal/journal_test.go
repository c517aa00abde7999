package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefsync/backline/internal/entity"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func testAction(t *testing.T, token string, seq int64) ActionRecord {
	t.Helper()
	u := entity.User{ID: 7, Name: "asha", Role: entity.RoleCook, Active: true}
	rec, err := NewActionRecord(token, "update", "users", "7", u, u.WithActive(false), seq, time.Now())
	require.NoError(t, err)
	return rec
}

func TestJournal_RoundTripsActionAndSettlement(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	act := testAction(t, "act-1", 1)
	require.NoError(t, j.RecordAction(ctx, act))

	st, err := NewSettlementRecord(act.ID, "reverted", "backend said no", 2, time.Now())
	require.NoError(t, err)
	require.NoError(t, j.RecordSettlement(ctx, st))

	row, err := j.ByToken(ctx, "act-1")
	require.NoError(t, err)
	assert.Equal(t, act.ID, row.Action.ID)
	assert.Equal(t, "users", row.Action.Resource)
	assert.Equal(t, "7", row.Action.Key)
	assert.JSONEq(t, string(act.Optimistic), string(row.Action.Optimistic))
	require.True(t, row.Settled)
	assert.Equal(t, "reverted", row.Outcome)
	assert.Equal(t, "backend said no", row.Error)
	assert.Equal(t, int64(2), row.SettledSeq)
}

func TestJournal_RecordingIsIdempotent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	act := testAction(t, "act-1", 1)
	require.NoError(t, j.RecordAction(ctx, act))
	require.NoError(t, j.RecordAction(ctx, act))

	st, err := NewSettlementRecord(act.ID, "committed", "", 2, time.Now())
	require.NoError(t, err)
	require.NoError(t, j.RecordSettlement(ctx, st))
	require.NoError(t, j.RecordSettlement(ctx, st))

	// A conflicting second settlement for the same action is ignored too.
	st2, err := NewSettlementRecord(act.ID, "reverted", "late error", 3, time.Now())
	require.NoError(t, err)
	require.NoError(t, j.RecordSettlement(ctx, st2))

	row, err := j.ByToken(ctx, "act-1")
	require.NoError(t, err)
	assert.Equal(t, "committed", row.Outcome)

	rows, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestJournal_UnsettledListsInFlightActions(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	first := testAction(t, "act-1", 1)
	second := testAction(t, "act-2", 2)
	require.NoError(t, j.RecordAction(ctx, first))
	require.NoError(t, j.RecordAction(ctx, second))

	st, err := NewSettlementRecord(first.ID, "committed", "", 3, time.Now())
	require.NoError(t, err)
	require.NoError(t, j.RecordSettlement(ctx, st))

	open, err := j.Unsettled(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "act-2", open[0].Action.Token)
	assert.False(t, open[0].Settled)
}

func TestJournal_RecentOrdersNewestFirst(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i, token := range []string{"act-1", "act-2", "act-3"} {
		require.NoError(t, j.RecordAction(ctx, testAction(t, token, int64(i+1))))
	}

	rows, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "act-3", rows[0].Action.Token)
	assert.Equal(t, "act-2", rows[1].Action.Token)
}

func TestJournal_ByResourceFilters(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.RecordAction(ctx, testAction(t, "act-1", 1)))

	o := entity.Order{ID: 3, Status: entity.OrderConfirmed}
	orderAct, err := NewActionRecord("act-2", "update", "orders", "3", o, o.WithStatus(entity.OrderPreparing), 2, time.Now())
	require.NoError(t, err)
	require.NoError(t, j.RecordAction(ctx, orderAct))

	rows, err := j.ByResource(ctx, "orders")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "act-2", rows[0].Action.Token)
}

func TestJournal_ByTokenMissingIsErrNoRows(t *testing.T) {
	j := openTestJournal(t)
	_, err := j.ByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestJournal_LastSeqSpansBothTables(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	seq, err := j.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	act := testAction(t, "act-1", 5)
	require.NoError(t, j.RecordAction(ctx, act))

	st, err := NewSettlementRecord(act.ID, "committed", "", 6, time.Now())
	require.NoError(t, err)
	require.NoError(t, j.RecordSettlement(ctx, st))

	seq, err = j.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, int64(6), seq)
}

func TestJournal_OpenIsIdempotentOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordAction(context.Background(), testAction(t, "act-1", 1)))
	require.NoError(t, j.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	rows, err := j2.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
