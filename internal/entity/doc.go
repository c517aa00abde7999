// Package entity defines the backend resource DTOs the admin surface
// renders: users, orders, payments, food items, notifications, and the
// dashboard aggregates.
//
// These types mirror the platform API verbatim and carry no business
// logic of their own. The backend owns their semantics; backline only
// fetches, displays, and mutates them through the API client. The one
// local concern is identity: each listable entity exposes a stable key
// used by the optimistic update coordinator to track pending edits.
//
// Monetary amounts are decimal strings exactly as the API serializes
// them. They are never parsed into floats here.
package entity
