// Package journal provides durable storage for the optimistic edit trail.
//
// Every applied action and every settlement is appended to a SQLite
// database, so an operator can answer "what did we change, when, and did
// the backend accept it" after the fact. Records are content-addressed:
// an ID is the SHA-256 of the record's canonical JSON under a domain
// prefix, so replaying the same action writes the same row and the
// ON CONFLICT DO NOTHING inserts make re-recording idempotent.
//
// The journal never participates in coordination. The coordinator is
// correct with no journal at all; this package only remembers.
package journal
