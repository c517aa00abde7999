package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// TraceRow is one action joined with its settlement, if any.
// Settled is false for actions still awaiting their confirm when the
// process exited (or that never settled because the session closed).
type TraceRow struct {
	Action  ActionRecord
	Settled bool
	// The remaining fields are meaningful only when Settled.
	Outcome      string
	Error        string
	SettledSeq   int64
	SettledAt    time.Time
	SettlementID string
}

const traceSelect = `
	SELECT a.id, a.token, a.kind, a.resource, a.entity_key,
	       a.previous, a.optimistic, a.seq, a.started_at,
	       s.id, s.outcome, s.error, s.seq, s.settled_at
	FROM actions a
	LEFT JOIN settlements s ON s.action_id = a.id
`

// Recent returns the most recent actions with their settlements, newest
// first, up to limit.
func (j *Journal) Recent(ctx context.Context, limit int) ([]TraceRow, error) {
	rows, err := j.db.QueryContext(ctx, traceSelect+`
		ORDER BY a.seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	return scanTraceRows(rows)
}

// ByResource returns every action against one resource (e.g. "users"),
// oldest first.
func (j *Journal) ByResource(ctx context.Context, resource string) ([]TraceRow, error) {
	rows, err := j.db.QueryContext(ctx, traceSelect+`
		WHERE a.resource = ? ORDER BY a.seq ASC
	`, resource)
	if err != nil {
		return nil, fmt.Errorf("by resource: %w", err)
	}
	return scanTraceRows(rows)
}

// ByToken returns the action with the given token, or sql.ErrNoRows.
func (j *Journal) ByToken(ctx context.Context, token string) (TraceRow, error) {
	rows, err := j.db.QueryContext(ctx, traceSelect+`
		WHERE a.token = ?
	`, token)
	if err != nil {
		return TraceRow{}, fmt.Errorf("by token: %w", err)
	}
	out, err := scanTraceRows(rows)
	if err != nil {
		return TraceRow{}, err
	}
	if len(out) == 0 {
		return TraceRow{}, sql.ErrNoRows
	}
	return out[0], nil
}

// Unsettled returns actions with no settlement, oldest first. A non-empty
// result after a clean session end means edits were abandoned in flight.
func (j *Journal) Unsettled(ctx context.Context) ([]TraceRow, error) {
	rows, err := j.db.QueryContext(ctx, traceSelect+`
		WHERE s.id IS NULL ORDER BY a.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("unsettled: %w", err)
	}
	return scanTraceRows(rows)
}

func scanTraceRows(rows *sql.Rows) ([]TraceRow, error) {
	defer rows.Close()

	var out []TraceRow
	for rows.Next() {
		var (
			tr        TraceRow
			prev, opt string
			startedAt string
			settleID  sql.NullString
			outcome   sql.NullString
			settleErr sql.NullString
			settleSeq sql.NullInt64
			settledAt sql.NullString
		)
		err := rows.Scan(
			&tr.Action.ID, &tr.Action.Token, &tr.Action.Kind,
			&tr.Action.Resource, &tr.Action.Key,
			&prev, &opt, &tr.Action.Seq, &startedAt,
			&settleID, &outcome, &settleErr, &settleSeq, &settledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trace row: %w", err)
		}

		tr.Action.Previous = json.RawMessage(prev)
		tr.Action.Optimistic = json.RawMessage(opt)
		tr.Action.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}

		if settleID.Valid {
			tr.Settled = true
			tr.SettlementID = settleID.String
			tr.Outcome = outcome.String
			tr.Error = settleErr.String
			tr.SettledSeq = settleSeq.Int64
			tr.SettledAt, err = time.Parse(time.RFC3339Nano, settledAt.String)
			if err != nil {
				return nil, fmt.Errorf("parse settled_at: %w", err)
			}
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trace rows: %w", err)
	}
	return out, nil
}
