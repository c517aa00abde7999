package cli

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefsync/backline/internal/entity"
	"github.com/chefsync/backline/internal/journal"
	"github.com/chefsync/backline/internal/metrics"
	"github.com/chefsync/backline/internal/optimistic"
	"github.com/chefsync/backline/internal/testutil"
)

func newTestSession(t *testing.T) *session {
	t.Helper()
	jnl, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { jnl.Close() })

	return &session{
		journal: jnl,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: metrics.New(prometheus.NewRegistry()),
	}
}

func TestExecuteEdit_JournalsCommit(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	u := entity.User{ID: 7, Name: "marco", Role: entity.RoleCook}

	out, err := executeEdit(ctx, s, "users", []entity.User{u}, entity.User.Key, u,
		func(c *optimistic.Coordinator[int64, entity.User]) error {
			return c.Apply(ctx, u, u.WithActive(true), testutil.ImmediateConfirm(nil))
		})
	require.NoError(t, err)
	assert.Equal(t, "committed", out.Outcome)

	row, err := s.journal.ByToken(ctx, out.Token)
	require.NoError(t, err)
	assert.True(t, row.Settled)
	assert.Equal(t, "committed", row.Outcome)
}

// A confirm can resolve before the command gets around to journaling the
// action. The edit must still be journaled and reported as committed.
func TestExecuteEdit_SettlesBeforeJournaling(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	u := entity.User{ID: 7, Name: "marco", Role: entity.RoleCook}

	out, err := executeEdit(ctx, s, "users", []entity.User{u}, entity.User.Key, u,
		func(c *optimistic.Coordinator[int64, entity.User]) error {
			if err := c.Apply(ctx, u, u.WithActive(true), testutil.ImmediateConfirm(nil)); err != nil {
				return err
			}
			// Hold the command back until the settlement has landed, so the
			// pending record is gone by the time it looks.
			deadline := time.Now().Add(5 * time.Second)
			for c.IsPending(u.ID) && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			require.False(t, c.IsPending(u.ID))
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "committed", out.Outcome)
	assert.Equal(t, "update", out.Kind)

	row, err := s.journal.ByToken(ctx, out.Token)
	require.NoError(t, err)
	assert.True(t, row.Settled)
	assert.Equal(t, "committed", row.Outcome)
}

func TestExecuteEdit_JournalsRevert(t *testing.T) {
	s := newTestSession(t)
	ctx := context.Background()
	u := entity.User{ID: 7, Name: "marco", Role: entity.RoleCook}

	out, err := executeEdit(ctx, s, "users", []entity.User{u}, entity.User.Key, u,
		func(c *optimistic.Coordinator[int64, entity.User]) error {
			return c.Apply(ctx, u, u.WithActive(false), testutil.ImmediateConfirm(assert.AnError))
		})
	require.NoError(t, err)
	assert.Equal(t, "reverted", out.Outcome)
	assert.Equal(t, assert.AnError.Error(), out.Error)

	row, err := s.journal.ByToken(ctx, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "reverted", row.Outcome)
	assert.Equal(t, assert.AnError.Error(), row.Error)
}
