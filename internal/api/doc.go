// Package api is the HTTP client for the ChefSync admin-management API.
//
// The client is read/write but deliberately thin: list endpoints return
// decoded entities plus the server's total count, and every mutation
// returns a ConfirmFunc closure instead of executing immediately, so the
// optimistic coordinator decides when the request actually runs.
//
// The backend's list endpoints are not uniform. Depending on the view a
// list arrives as a bare JSON array, a DRF page ({"results": [...],
// "count": n}), a {"data": [...]} wrapper, or a {"data": {"results":
// [...]}} double wrapper. ParseList recognizes exactly these four shapes
// and fails closed on anything else rather than guessing.
package api
