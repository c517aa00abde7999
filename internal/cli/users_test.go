package cli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBackend starts a fake admin API. patchStatus controls the response
// to mutation requests.
func newBackend(t *testing.T, patchStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var mutations atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin-management/users/":
			w.Write([]byte(`{"results": [
				{"id": 3, "name": "lena", "email": "lena@chefsync.example", "role": "cook",
				 "approval_status": "pending", "is_active": false, "email_verified": true,
				 "date_joined": "2026-03-01T09:00:00Z"}
			], "count": 1}`))
		case r.Method == http.MethodPatch || r.Method == http.MethodDelete:
			mutations.Add(1)
			if patchStatus >= 400 {
				http.Error(w, `{"detail": "nope"}`, patchStatus)
				return
			}
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &mutations
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "backline.cue")
	content := fmt.Sprintf(`
api: base_url: %q
journal: path: %q
`, baseURL, filepath.Join(dir, "journal.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestUsersActivate_CommitsAndJournals(t *testing.T) {
	srv, mutations := newBackend(t, http.StatusOK)
	cfg := writeConfig(t, srv.URL)

	out, err := executeCommand(t, "--config", cfg, "users", "activate", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "committed")
	assert.Equal(t, int32(1), mutations.Load())

	// The edit landed in the journal next to the config.
	traceOut, err := executeCommand(t, "--config", cfg, "trace")
	require.NoError(t, err)
	assert.Contains(t, traceOut, "users")
	assert.Contains(t, traceOut, "committed")
}

func TestUsersDeactivate_BackendFailureReverts(t *testing.T) {
	srv, _ := newBackend(t, http.StatusConflict)
	cfg := writeConfig(t, srv.URL)

	out, err := executeCommand(t, "--config", cfg, "users", "deactivate", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "reverted")
}

func TestUsersList_TextTable(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK)
	cfg := writeConfig(t, srv.URL)

	out, err := executeCommand(t, "--config", cfg, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "lena")
	assert.Contains(t, out, "1 of 1 users")
}

func TestUsersList_RejectsUnknownRole(t *testing.T) {
	_, err := executeCommand(t, "users", "list", "--role", "superuser")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestUsersEdit_UnknownIDFails(t *testing.T) {
	srv, _ := newBackend(t, http.StatusOK)
	cfg := writeConfig(t, srv.URL)

	_, err := executeCommand(t, "--config", cfg, "users", "activate", "99")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
