package harness

import (
	"fmt"
	"reflect"
)

// Check evaluates a scenario's assertions against a run result.
// Returns the first failure, or nil when every assertion holds.
func Check(sc *Scenario, r *Result) error {
	for i, a := range sc.Assertions {
		if err := checkOne(&a, r); err != nil {
			return fmt.Errorf("assertions[%d] (%s): %w", i, a.Type, err)
		}
	}
	return nil
}

func checkOne(a *Assertion, r *Result) error {
	switch a.Type {
	case AssertViewContains:
		e, ok := findInView(r, a.ID)
		if !ok {
			return fmt.Errorf("entity %d not in view", a.ID)
		}
		for k, want := range a.Expect {
			got, present := e[k]
			if !present {
				return fmt.Errorf("entity %d has no field %q", a.ID, k)
			}
			if !reflect.DeepEqual(got, want) {
				return fmt.Errorf("entity %d field %q = %v, want %v", a.ID, k, got, want)
			}
		}
		return nil

	case AssertViewMissing:
		if _, ok := findInView(r, a.ID); ok {
			return fmt.Errorf("entity %d unexpectedly in view", a.ID)
		}
		return nil

	case AssertViewOrder:
		got := make([]int, 0, len(r.View))
		for _, e := range r.View {
			id, err := entityID(e)
			if err != nil {
				return err
			}
			got = append(got, id)
		}
		if !reflect.DeepEqual(got, a.IDs) {
			return fmt.Errorf("view order %v, want %v", got, a.IDs)
		}
		return nil

	case AssertPending:
		// The runner waits out every settle step, so pending state here
		// reflects only actions the scenario deliberately left open.
		pending := false
		for _, id := range r.PendingIDs {
			if id == a.ID {
				pending = true
			}
		}
		if pending != a.Pending {
			return fmt.Errorf("pending(%d) = %v, want %v", a.ID, pending, a.Pending)
		}
		return nil

	case AssertPendingCount:
		if r.Pending != a.Count {
			return fmt.Errorf("pending count %d, want %d", r.Pending, a.Count)
		}
		return nil
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func findInView(r *Result, id int) (map[string]any, bool) {
	for _, e := range r.View {
		if eid, err := entityID(e); err == nil && eid == id {
			return e, true
		}
	}
	return nil, false
}
