package harness

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/chefsync/backline/internal/optimistic"
	"github.com/chefsync/backline/internal/testutil"
)

// settleTimeout bounds how long a settle step waits for its settlement.
// Generous because CI machines stall; a correct runner settles in
// microseconds.
const settleTimeout = 5 * time.Second

// Result is the observable outcome of running a scenario: the ordered
// trace plus the final derived view and pending set.
type Result struct {
	Trace      []map[string]any
	View       []map[string]any
	Pending    int
	PendingIDs []int
}

// Run executes a scenario against a real coordinator.
//
// Determinism: tokens come from a FixedGenerator ("act-1", "act-2", ...),
// the logical clock starts at zero, steps run on one goroutine, and every
// settle step waits for its settlement callback before the next step
// runs. Two runs of the same scenario produce identical traces.
func Run(sc *Scenario) (*Result, error) {
	if err := validateScenario(sc); err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(sc.Steps))
	for i := 0; i < len(sc.Steps); i++ {
		tokens = append(tokens, fmt.Sprintf("act-%d", i+1))
	}

	policy := optimistic.PolicyReject
	if sc.Policy == "supersede" {
		policy = optimistic.PolicySupersede
	}

	log := testutil.NewSettlementLog[int, map[string]any]()
	coord := optimistic.New(scenarioKey, cloneEntities(sc.Base),
		optimistic.WithTokens[int, map[string]any](optimistic.NewFixedGenerator(tokens...)),
		optimistic.WithPolicy[int, map[string]any](policy),
		optimistic.OnSettle[int, map[string]any](log.Record),
	)

	r := &runner{sc: sc, coord: coord, log: log, gates: map[int][]func(error){}}
	defer r.teardown()

	for i, st := range sc.Steps {
		if err := r.step(i, st); err != nil {
			return nil, err
		}
	}

	var pendingIDs []int
	for id := range r.gates {
		if coord.IsPending(id) {
			pendingIDs = append(pendingIDs, id)
		}
	}
	sort.Ints(pendingIDs)

	return &Result{
		Trace:      r.trace,
		View:       coord.View(),
		Pending:    coord.PendingCount(),
		PendingIDs: pendingIDs,
	}, nil
}

type runner struct {
	sc    *Scenario
	coord *optimistic.Coordinator[int, map[string]any]
	log   *testutil.SettlementLog[int, map[string]any]

	trace   []map[string]any
	gates   map[int][]func(error)
	settled int
}

func (r *runner) step(i int, st Step) error {
	switch {
	case st.Apply != nil:
		return r.apply(i, st)
	case st.Delete != nil:
		return r.remove(i, st)
	case st.Settle != nil:
		return r.settle(i, *st.Settle)
	case st.Refresh != nil:
		r.coord.SetBase(cloneEntities(st.Refresh))
		r.trace = append(r.trace, map[string]any{
			"type": "refresh",
			"size": len(st.Refresh),
		})
		return nil
	}
	return fmt.Errorf("steps[%d]: empty step", i)
}

func (r *runner) apply(i int, st Step) error {
	current, ok := r.currentValue(st.Apply.ID)
	if !ok {
		return fmt.Errorf("steps[%d]: no entity with id %d", i, st.Apply.ID)
	}
	next := cloneEntity(current)
	for k, v := range st.Apply.Set {
		next[k] = v
	}

	confirm, release := testutil.GatedConfirm()
	err := r.coord.Apply(context.Background(), current, next, confirm)
	return r.afterStart(i, st, "apply", st.Apply.ID, err, release)
}

func (r *runner) remove(i int, st Step) error {
	current, ok := r.currentValue(*st.Delete)
	if !ok {
		return fmt.Errorf("steps[%d]: no entity with id %d", i, *st.Delete)
	}

	confirm, release := testutil.GatedConfirm()
	err := r.coord.Delete(context.Background(), current, confirm)
	return r.afterStart(i, st, "delete", *st.Delete, err, release)
}

func (r *runner) afterStart(i int, st Step, kind string, id int, err error, release func(error)) error {
	if st.ExpectConflict != "" {
		var ce *optimistic.ConflictError
		if !errors.As(err, &ce) {
			return fmt.Errorf("steps[%d]: expected %s conflict, got err=%v", i, st.ExpectConflict, err)
		}
		if string(ce.Code) != st.ExpectConflict {
			return fmt.Errorf("steps[%d]: expected conflict %s, got %s", i, st.ExpectConflict, ce.Code)
		}
		r.trace = append(r.trace, map[string]any{
			"type": "conflict",
			"kind": kind,
			"id":   id,
			"code": string(ce.Code),
		})
		return nil
	}
	if err != nil {
		return fmt.Errorf("steps[%d]: %s: %w", i, kind, err)
	}

	r.gates[id] = append(r.gates[id], release)
	r.trace = append(r.trace, map[string]any{
		"type":     kind,
		"resource": r.sc.Resource,
		"id":       id,
		"seq":      r.coord.Clock().Current(),
	})
	return nil
}

func (r *runner) settle(i int, st SettleStep) error {
	releases := r.gates[st.ID]
	if len(releases) == 0 {
		return fmt.Errorf("steps[%d]: settle: nothing pending for id %d", i, st.ID)
	}
	// The newest gate owns the key; older ones were superseded.
	release := releases[len(releases)-1]
	r.gates[st.ID] = releases[:len(releases)-1]

	var outcome error
	if st.Outcome == "revert" {
		outcome = errors.New(st.Error)
	}
	release(outcome)

	r.settled++
	entries, ok := r.log.WaitFor(r.settled, settleTimeout)
	if !ok {
		return fmt.Errorf("steps[%d]: settle: timed out waiting for settlement", i)
	}
	s := entries[r.settled-1]

	ev := map[string]any{
		"type":    "settle",
		"id":      s.Action.Key,
		"outcome": string(s.Outcome),
		"token":   s.Action.Token,
		"seq":     s.Seq,
	}
	if s.Err != nil {
		ev["error"] = s.Err.Error()
	}
	r.trace = append(r.trace, ev)
	return nil
}

// currentValue resolves the confirmed value for id, preferring the
// pending action's optimistic value so chained edits compose the way a
// user editing the rendered view would see them.
func (r *runner) currentValue(id int) (map[string]any, bool) {
	for _, e := range r.coord.View() {
		if eid, err := entityID(e); err == nil && eid == id {
			return e, true
		}
	}
	// Pending deletes hide the row from the view; fall back to the base
	// so a scenario can still reference it.
	for _, e := range r.coord.Base() {
		if eid, err := entityID(e); err == nil && eid == id {
			return e, true
		}
	}
	return nil, false
}

// teardown closes the coordinator and unblocks any confirm goroutines a
// scenario left gated (superseded or never settled).
func (r *runner) teardown() {
	r.coord.Close()
	for _, releases := range r.gates {
		for _, release := range releases {
			release(errors.New("scenario ended"))
		}
	}
}

func scenarioKey(e map[string]any) int {
	id, err := entityID(e)
	if err != nil {
		return -1
	}
	return id
}

func cloneEntity(e map[string]any) map[string]any {
	out := make(map[string]any, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

func cloneEntities(list []map[string]any) []map[string]any {
	out := make([]map[string]any, len(list))
	for i, e := range list {
		out[i] = cloneEntity(e)
	}
	return out
}
