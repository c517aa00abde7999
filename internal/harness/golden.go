package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/chefsync/backline/internal/canon"
)

// Snapshot serializes a run result to canonical JSON so golden
// comparisons are byte-stable across runs and platforms.
func Snapshot(sc *Scenario, r *Result) ([]byte, error) {
	trace := make([]any, len(r.Trace))
	for i, ev := range r.Trace {
		trace[i] = ev
	}
	view := make([]any, len(r.View))
	for i, e := range r.View {
		view[i] = e
	}

	obj := map[string]any{
		"scenario":   sc.Name,
		"resource":   sc.Resource,
		"trace":      trace,
		"final_view": view,
		"pending":    r.Pending,
	}
	return canon.Marshal(obj)
}

// RunWithGolden executes a scenario, checks its assertions, and pins the
// trace against testdata/golden/{name}.golden. Regenerate with -update.
func RunWithGolden(t *testing.T, sc *Scenario) {
	t.Helper()

	result, err := Run(sc)
	if err != nil {
		t.Fatalf("run scenario %s: %v", sc.Name, err)
	}
	if err := Check(sc, result); err != nil {
		t.Fatalf("scenario %s: %v", sc.Name, err)
	}

	snap, err := Snapshot(sc, result)
	if err != nil {
		t.Fatalf("snapshot scenario %s: %v", sc.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, snap)
}
