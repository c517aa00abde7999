package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chefsync/backline/internal/canon"
)

// ActionRecord is one applied optimistic edit, ready to persist.
// Previous and Optimistic carry the entity snapshots as JSON.
type ActionRecord struct {
	ID         string
	Token      string
	Kind       string
	Resource   string
	Key        string
	Previous   json.RawMessage
	Optimistic json.RawMessage
	Seq        int64
	StartedAt  time.Time
}

// SettlementRecord is the terminal disposition of one action.
type SettlementRecord struct {
	ID        string
	ActionID  string
	Outcome   string
	Error     string
	Seq       int64
	SettledAt time.Time
}

// NewActionRecord builds an ActionRecord with its content-addressed ID.
// prev and opt are serialized with encoding/json; the ID hashes only the
// identity fields (token, kind, resource, key, seq), so a payload field
// the backend adds later does not change historical IDs.
func NewActionRecord(token, kind, resource, key string, prev, opt any, seq int64, startedAt time.Time) (ActionRecord, error) {
	id, err := canon.ActionID(token, kind, resource, key, seq)
	if err != nil {
		return ActionRecord{}, err
	}
	prevJSON, err := json.Marshal(prev)
	if err != nil {
		return ActionRecord{}, fmt.Errorf("marshal previous: %w", err)
	}
	optJSON, err := json.Marshal(opt)
	if err != nil {
		return ActionRecord{}, fmt.Errorf("marshal optimistic: %w", err)
	}
	return ActionRecord{
		ID:         id,
		Token:      token,
		Kind:       kind,
		Resource:   resource,
		Key:        key,
		Previous:   prevJSON,
		Optimistic: optJSON,
		Seq:        seq,
		StartedAt:  startedAt.UTC(),
	}, nil
}

// NewSettlementRecord builds a SettlementRecord with its content-addressed
// ID, linked to the action it settles.
func NewSettlementRecord(actionID, outcome, errText string, seq int64, settledAt time.Time) (SettlementRecord, error) {
	id, err := canon.SettlementID(actionID, outcome, seq)
	if err != nil {
		return SettlementRecord{}, err
	}
	return SettlementRecord{
		ID:        id,
		ActionID:  actionID,
		Outcome:   outcome,
		Error:     errText,
		Seq:       seq,
		SettledAt: settledAt.UTC(),
	}, nil
}

// RecordAction appends one action. ON CONFLICT DO NOTHING: re-recording
// the same action (same content-addressed ID or token) is a silent no-op.
func (j *Journal) RecordAction(ctx context.Context, rec ActionRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO actions
		(id, token, kind, resource, entity_key, previous, optimistic, seq, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.Token,
		rec.Kind,
		rec.Resource,
		rec.Key,
		string(rec.Previous),
		string(rec.Optimistic),
		rec.Seq,
		rec.StartedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record action: %w", err)
	}
	return nil
}

// RecordSettlement appends one settlement. At most one settlement per
// action is kept (UNIQUE on action_id); duplicates are silently ignored.
// The referenced action must already be recorded.
func (j *Journal) RecordSettlement(ctx context.Context, rec SettlementRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO settlements
		(id, action_id, outcome, error, seq, settled_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.ActionID,
		rec.Outcome,
		rec.Error,
		rec.Seq,
		rec.SettledAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record settlement: %w", err)
	}
	return nil
}
