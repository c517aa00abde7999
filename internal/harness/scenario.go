package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one declarative coordinator exercise.
//
// Entities are free-form maps with an integer "id" field; the runner
// keys the coordinator on it. Steps run strictly in order, and a settle
// step blocks until its settlement has landed, so interleavings are
// explicit in the file rather than dependent on goroutine timing.
type Scenario struct {
	// Name uniquely identifies this scenario; the golden file shares it.
	Name string `yaml:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description"`

	// Resource names what the entities are ("users", "orders"). Recorded
	// in the trace only.
	Resource string `yaml:"resource"`

	// Policy is "reject" (default) or "supersede".
	Policy string `yaml:"policy,omitempty"`

	// Base is the initial confirmed list.
	Base []map[string]any `yaml:"base"`

	// Steps is the ordered step sequence.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final view and pending set.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one scenario step. Exactly one of Apply, Delete, Settle, or
// Refresh must be set.
type Step struct {
	// Apply starts a speculative field edit.
	Apply *ApplyStep `yaml:"apply,omitempty"`

	// Delete starts a speculative removal of the entity with this id.
	Delete *int `yaml:"delete,omitempty"`

	// Settle resolves the pending action on a key.
	Settle *SettleStep `yaml:"settle,omitempty"`

	// Refresh replaces the base list, as a poll tick would.
	Refresh []map[string]any `yaml:"refresh,omitempty"`

	// ExpectConflict marks an apply/delete that the coordinator must
	// refuse, with the given conflict code.
	ExpectConflict string `yaml:"expect_conflict,omitempty"`
}

// ApplyStep edits the entity with ID by merging Set over its current
// confirmed value.
type ApplyStep struct {
	ID  int            `yaml:"id"`
	Set map[string]any `yaml:"set"`
}

// SettleStep resolves the in-flight action on ID. Outcome is "commit" or
// "revert"; Error is the confirm failure text for reverts.
type SettleStep struct {
	ID      int    `yaml:"id"`
	Outcome string `yaml:"outcome"`
	Error   string `yaml:"error,omitempty"`
}

// Assertion validates the state after all steps.
type Assertion struct {
	// Type: view_contains, view_missing, view_order, pending, pending_count.
	Type string `yaml:"type"`

	// ID is the entity id (view_contains, view_missing, pending).
	ID int `yaml:"id,omitempty"`

	// Expect is a subset match over the entity (view_contains).
	Expect map[string]any `yaml:"expect,omitempty"`

	// IDs is the exact expected view order (view_order).
	IDs []int `yaml:"ids,omitempty"`

	// Pending is the expected pending flag (pending).
	Pending bool `yaml:"pending,omitempty"`

	// Count is the expected pending count (pending_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertViewContains = "view_contains"
	AssertViewMissing  = "view_missing"
	AssertViewOrder    = "view_order"
	AssertPending      = "pending"
	AssertPendingCount = "pending_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so a typo fails the scenario instead of silently skipping a
// step.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &sc, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Resource == "" {
		return fmt.Errorf("resource is required")
	}
	switch s.Policy {
	case "", "reject", "supersede":
	default:
		return fmt.Errorf("unknown policy %q", s.Policy)
	}
	if len(s.Base) == 0 {
		return fmt.Errorf("base list is required and must be non-empty")
	}
	for i, e := range s.Base {
		if _, err := entityID(e); err != nil {
			return fmt.Errorf("base[%d]: %w", i, err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, st := range s.Steps {
		if err := validateStep(i, &st); err != nil {
			return err
		}
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	set := 0
	if st.Apply != nil {
		set++
		if len(st.Apply.Set) == 0 {
			return fmt.Errorf("steps[%d].apply: set is required", index)
		}
	}
	if st.Delete != nil {
		set++
	}
	if st.Settle != nil {
		set++
		if st.Settle.Outcome != "commit" && st.Settle.Outcome != "revert" {
			return fmt.Errorf("steps[%d].settle: outcome must be commit or revert", index)
		}
		if st.Settle.Outcome == "revert" && st.Settle.Error == "" {
			return fmt.Errorf("steps[%d].settle: error is required for revert", index)
		}
	}
	if st.Refresh != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of apply, delete, settle, refresh is required", index)
	}
	if st.ExpectConflict != "" && st.Apply == nil && st.Delete == nil {
		return fmt.Errorf("steps[%d]: expect_conflict applies only to apply and delete", index)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertViewContains:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for view_contains", index)
		}
	case AssertViewMissing, AssertPending:
	case AssertViewOrder:
		if len(a.IDs) == 0 {
			return fmt.Errorf("assertions[%d]: ids list is required for view_order", index)
		}
	case AssertPendingCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// entityID extracts the integer "id" field every scenario entity must
// carry.
func entityID(e map[string]any) (int, error) {
	raw, ok := e["id"]
	if !ok {
		return 0, fmt.Errorf("entity has no id field")
	}
	id, ok := raw.(int)
	if !ok {
		return 0, fmt.Errorf("entity id must be an integer, got %T", raw)
	}
	return id, nil
}
