// Package canon produces RFC 8785 canonical JSON and content-addressed
// identifiers for journal records and golden traces.
//
// Canonical form is the only serialization used for identity hashing:
// object keys sorted by UTF-16 code units, strings NFC normalized, no
// HTML escaping, and no floats or nulls in hashed payloads. The same
// inputs always produce the same bytes, so action IDs are stable across
// process restarts and trace comparisons are byte-exact.
package canon
