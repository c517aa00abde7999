package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefsync/backline/internal/optimistic"
)

func TestGatedConfirm_BlocksUntilReleased(t *testing.T) {
	confirm, release := GatedConfirm()

	got := make(chan error, 1)
	go func() { got <- confirm(context.Background()) }()

	select {
	case err := <-got:
		t.Fatalf("confirm resolved before release: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	release(errors.New("denied"))
	select {
	case err := <-got:
		assert.EqualError(t, err, "denied")
	case <-time.After(2 * time.Second):
		t.Fatal("confirm did not resolve after release")
	}
}

func TestGatedConfirm_ReleaseBeforeRunIsBuffered(t *testing.T) {
	confirm, release := GatedConfirm()
	release(nil)
	assert.NoError(t, confirm(context.Background()))
}

func TestGatedConfirm_HonorsContextCancellation(t *testing.T) {
	confirm, _ := GatedConfirm()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, confirm(ctx), context.Canceled)
}

func TestSettlementLog_WaitForCollectsInOrder(t *testing.T) {
	log := NewSettlementLog[int, string]()

	go func() {
		log.Record(optimistic.Settlement[int, string]{Outcome: optimistic.OutcomeCommitted, Seq: 1})
		log.Record(optimistic.Settlement[int, string]{Outcome: optimistic.OutcomeReverted, Seq: 2})
	}()

	entries, ok := log.WaitFor(2, 2*time.Second)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(1), entries[0].Seq)
	assert.Equal(t, int64(2), entries[1].Seq)
}

func TestSettlementLog_WaitForTimesOut(t *testing.T) {
	log := NewSettlementLog[int, string]()
	entries, ok := log.WaitFor(1, 20*time.Millisecond)
	assert.False(t, ok)
	assert.Empty(t, entries)
}
