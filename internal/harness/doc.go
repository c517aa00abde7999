// Package harness executes YAML-defined coordinator scenarios.
//
// A scenario declares a base list of entities, a sequence of steps
// (apply, delete, settle, refresh), and assertions over the derived view
// and pending set after the steps run. The runner drives a real
// Coordinator with a fixed token generator and gated confirms, so a
// scenario's trace is byte-for-byte reproducible and can be pinned with
// a golden file.
//
// Scenarios live in testdata/scenarios, goldens in testdata/golden.
// Regenerate goldens with:
//
//	go test ./internal/harness -update
package harness
