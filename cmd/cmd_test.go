package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxcal/internal/store"
)

// useTempDB points the persistent flags at a fresh database file.
func useTempDB(t *testing.T) {
	t.Helper()
	prev := globals
	globals.dbPath = filepath.Join(t.TempDir(), "inboxcal.db")
	globals.configPath = ""
	t.Cleanup(func() { globals = prev })
}

// run executes cmd with args and stdin, returning its stdout.
func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestLoadGlobalEnvVars(t *testing.T) {
	prev := globals
	t.Cleanup(func() { globals = prev })

	t.Setenv("INBOXCAL_DB", "/tmp/from-env.db")
	t.Setenv("INBOXCAL_CONFIG", "/tmp/from-env.yaml")

	globals.dbPath = defaultDBPath
	globals.configPath = ""
	loadGlobalEnvVars(&cobra.Command{})

	assert.Equal(t, "/tmp/from-env.db", globals.dbPath)
	assert.Equal(t, "/tmp/from-env.yaml", globals.configPath)
}

func TestRecordCommands(t *testing.T) {
	useTempDB(t)

	out, err := run(t, newUserCmd(), "", "create", "--email", "alice@example.com", "--account", "work")
	require.NoError(t, err)
	assert.Equal(t, "User stored as 1\n", out)

	out, err = run(t, newUserCmd(), "", "show", "1")
	require.NoError(t, err)
	var u store.User
	require.NoError(t, json.Unmarshal([]byte(out), &u))
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "work", u.GoogleAccount)

	out, err = run(t, newEmailCmd(), "", "add", "--user-id", "1", "--gmail-id", "msg-1", "--subject", "Sync?")
	require.NoError(t, err)
	assert.Equal(t, "Email stored as 1\n", out)

	payload := `{"type":"DATE_RANGE","start":"2030-01-07T09:00:00Z","end":"2030-01-07T12:00:00Z","title":"Project sync"}`

	out, err = run(t, newCandidateCmd(), payload, "add", "--user-id", "1", "--email-id", "1")
	require.NoError(t, err)
	assert.Equal(t, "Candidate stored as 1\n", out)

	out, err = run(t, newCandidateCmd(), payload, "add", "--user-id", "1", "--email-id", "1")
	require.NoError(t, err)
	assert.Equal(t, "Candidate already stored as 1\n", out)

	out, err = run(t, newCandidateCmd(), "", "list", "--user-id", "1", "--email-id", "1")
	require.NoError(t, err)
	var listed []store.Candidate
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Project sync", listed[0].Payload.Title)
}

func TestCandidateAdd_Errors(t *testing.T) {
	useTempDB(t)

	_, err := run(t, newCandidateCmd(), "", "add", "--user-id", "1", "--email-id", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payload is required")

	_, err = run(t, newCandidateCmd(), "{not json", "add", "--user-id", "1", "--email-id", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid payload")

	_, err = run(t, newCandidateCmd(), `{"type":"INVITE"}`, "add", "--user-id", "1", "--email-id", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCandidateList_Empty(t *testing.T) {
	useTempDB(t)

	_, err := run(t, newUserCmd(), "", "create", "--email", "bob@example.com")
	require.NoError(t, err)
	_, err = run(t, newEmailCmd(), "", "add", "--user-id", "1", "--gmail-id", "msg-1")
	require.NoError(t, err)

	out, err := run(t, newCandidateCmd(), "", "list", "--user-id", "1", "--email-id", "1")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestUserPrefs(t *testing.T) {
	useTempDB(t)

	_, err := run(t, newUserCmd(), "", "create", "--email", "carol@example.com")
	require.NoError(t, err)

	out, err := run(t, newUserCmd(), "", "prefs", "show", "1")
	require.NoError(t, err)
	assert.Regexp(t, `start_time: "?09:00"?`, out)
	assert.Contains(t, out, "meeting_default_duration_min: 30")

	prefs := "working_hours:\n  days: [mon, tue]\n  start_time: \"08:30\"\n  end_time: \"16:00\"\nmeeting_default_duration_min: 45\n"
	out, err = run(t, newUserCmd(), prefs, "prefs", "set", "1")
	require.NoError(t, err)
	assert.Equal(t, "Preferences stored for user 1\n", out)

	out, err = run(t, newUserCmd(), "", "prefs", "show", "1")
	require.NoError(t, err)
	assert.Regexp(t, `start_time: "?08:30"?`, out)
	assert.Contains(t, out, "meeting_default_duration_min: 45")
	assert.Contains(t, out, "automation_level: SUGGEST_ONLY")

	_, err = run(t, newUserCmd(), "working_hours:\n  start_time: nine\n", "prefs", "set", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid working hours")

	_, err = run(t, newUserCmd(), "", "prefs", "show", "99")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, s := range []string{"", "0", "-1", "abc"} {
		_, err := parseID(s)
		assert.Error(t, err, s)
	}
}

func TestSuggestCmd_InvalidFormat(t *testing.T) {
	useTempDB(t)

	_, err := run(t, newSuggestCmd(), "", "--user-id", "1", "--candidate-id", "1", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestSuggestCmd_UnknownCandidate(t *testing.T) {
	useTempDB(t)

	_, err := run(t, newUserCmd(), "", "create", "--email", "dave@example.com")
	require.NoError(t, err)

	_, err = run(t, newSuggestCmd(), "", "--user-id", "1", "--candidate-id", "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVersionCmd(t *testing.T) {
	prev := version
	version = "1.2.3"
	t.Cleanup(func() { version = prev })

	out, err := run(t, newVersionCmd(), "")
	require.NoError(t, err)
	assert.Equal(t, "inboxcal version 1.2.3\n", out)
}
