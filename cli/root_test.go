// ABOUTME: Tests for the CLI command tree and end-to-end command runs
// ABOUTME: Commands run against badger and memory stores in temporary directories
package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/bizcrm/models"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand("1.2.3")
	require.NotNil(t, cmd)
	assert.Equal(t, "bizcrm", cmd.Use)
	assert.Equal(t, "1.2.3", cmd.Version)
	assert.Contains(t, cmd.Long, "Google Calendar")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand("test")
	commands := [][]string{
		{"init"},
		{"contacts", "list"}, {"contacts", "add"},
		{"deals", "list"}, {"deals", "add"}, {"deals", "advance"},
		{"tasks", "list"}, {"tasks", "add"}, {"tasks", "done"}, {"tasks", "delete"},
		{"invoices", "list"}, {"invoices", "next"}, {"invoices", "create"}, {"invoices", "pay"}, {"invoices", "cancel"},
		{"report"}, {"dashboard"}, {"graph", "contacts"}, {"graph", "pipeline"},
		{"calendar", "connect"}, {"calendar", "disconnect"}, {"calendar", "sync"}, {"calendar", "status"},
		{"mail", "connect"}, {"mail", "disconnect"}, {"mail", "scan"},
		{"login"}, {"logout"}, {"tui"}, {"mcp"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand("test")

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	for _, name := range []string{"config", "backend", "data-dir"} {
		require.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestTasksAddFlags(t *testing.T) {
	cmd := NewRootCommand("test")
	addCmd, _, err := cmd.Find([]string{"tasks", "add"})
	require.NoError(t, err)

	for _, name := range []string{"due", "type", "priority", "start", "end", "contact"} {
		require.NotNil(t, addCmd.Flags().Lookup(name), name)
	}
}

func TestMCPCommandFlags(t *testing.T) {
	cmd := NewRootCommand("test")
	mcpCmd, _, err := cmd.Find([]string{"mcp"})
	require.NoError(t, err)

	metricsFlag := mcpCmd.Flags().Lookup("metrics-addr")
	require.NotNil(t, metricsFlag)
	assert.Equal(t, "", metricsFlag.DefValue)
}

type cliEnv struct {
	config  string
	dataDir string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	for _, k := range []string{"BIZCRM_BACKEND", "BIZCRM_DATA_DIR", "BIZCRM_GOOGLE_CLIENT_ID", "BIZCRM_GOOGLE_CLIENT_SECRET", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET"} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merge_policy: provider_wins\ntimezone: UTC\n"), 0600))
	return cliEnv{config: path, dataDir: filepath.Join(dir, "data")}
}

func (e cliEnv) run(t *testing.T, backend string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.config, "--backend", backend, "--data-dir", e.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestContactsListShowsSeededContacts(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "memory", "contacts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Sarah Miller")
	assert.Contains(t, out, "Total: 3 contact(s)")

	out, err = env.run(t, "memory", "contacts", "list", "--query", "nobody-matches-this")
	require.NoError(t, err)
	assert.Contains(t, out, "No contacts found.")
}

func TestCommandsPersistAcrossRuns(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "badger", "contacts", "add", "Robin Park", "--company", "Parkworks", "--email", "robin@parkworks.example")
	require.NoError(t, err)
	assert.Contains(t, out, "Added contact Robin Park")

	out, err = env.run(t, "badger", "contacts", "list", "-q", "parkworks")
	require.NoError(t, err)
	assert.Contains(t, out, "Robin Park")
	assert.Contains(t, out, "Total: 1 contact(s)")

	out, err = env.run(t, "badger", "tasks", "add", "Call Robin", "--due", "2030-01-02", "--type", "call")
	require.NoError(t, err)
	assert.Contains(t, out, "Added task Call Robin")

	out, err = env.run(t, "badger", "tasks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Call Robin")
	assert.Contains(t, out, "2030-01-02")
}

func TestInvoiceCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "badger", "invoices", "next", "--year", "2019")
	require.NoError(t, err)
	assert.Equal(t, "2019-101\n", out)

	out, err = env.run(t, "badger", "invoices", "create", "--contact", "seed-contact-2", "--amount", "750", "--date", "2019-03-01")
	require.NoError(t, err)
	assert.Contains(t, out, "Created invoice 2019-101 for 750.00")

	out, err = env.run(t, "badger", "invoices", "list", "--open")
	require.NoError(t, err)
	assert.Contains(t, out, "2019-101")

	_, err = env.run(t, "badger", "invoices", "create", "--contact", "seed-contact-2", "--amount", "-5")
	assert.Error(t, err)

	_, err = env.run(t, "badger", "invoices", "create", "--amount", "5")
	assert.Error(t, err, "contact is required")
}

func TestDealsAdvance(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "memory", "deals", "advance", "seed-deal-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Website relaunch is now "+string(models.StageNegotiation))

	_, err = env.run(t, "memory", "deals", "advance", "no-such-deal")
	assert.Error(t, err)
}

func TestReportCommand(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "memory", "report", "--year", "2019")
	require.NoError(t, err)
	assert.Contains(t, out, "Revenue 2019")
	assert.Contains(t, out, "Pipeline")
	assert.Contains(t, out, string(models.StageProposal))
}

func TestDashboardAndGraphCommands(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "memory", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "BIZCRM DASHBOARD")
	assert.Contains(t, out, "3 contacts")

	out, err = env.run(t, "memory", "graph", "contacts", "seed-contact-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Sarah Miller")
	assert.Contains(t, out, "Website relaunch")

	path := filepath.Join(t.TempDir(), "pipeline.svg")
	out, err = env.run(t, "memory", "graph", "pipeline", "--format", "svg", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote pipeline graph")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	_, err = env.run(t, "memory", "graph", "pipeline", "--format", "png")
	assert.Error(t, err)
}

func TestTUIRequiresTerminal(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "memory", "tui")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestCalendarCommandsWithoutGoogleClient(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "memory", "calendar", "connect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "google client not configured")

	out, err := env.run(t, "memory", "calendar", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Sync skipped")

	out, err = env.run(t, "memory", "calendar", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "not connected")
	assert.Contains(t, out, "provider_wins")

	out, err = env.run(t, "memory", "mail", "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "Scan skipped: mail not connected")

	_, err = env.run(t, "memory", "mail", "connect")
	require.Error(t, err)
}

func TestInitWritesConfig(t *testing.T) {
	env := newCLIEnv(t)
	path := filepath.Join(t.TempDir(), "fresh", "config.yaml")

	cmd := NewRootCommand("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"init", "--config", path, "--backend", "memory", "--data-dir", env.dataDir})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Wrote config to "+path)
	assert.Contains(t, out.String(), "3 contacts")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: memory")
}

func TestResolveID(t *testing.T) {
	items := []models.Contact{{ID: "abc-1"}, {ID: "abc-2"}, {ID: "xyz"}}

	id, err := resolveID(items, "xy")
	require.NoError(t, err)
	assert.Equal(t, "xyz", id)

	id, err = resolveID(items, "abc-1")
	require.NoError(t, err)
	assert.Equal(t, "abc-1", id)

	_, err = resolveID(items, "abc")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveID(items, "nope")
	assert.Error(t, err)
}

func TestNewMCPServerRegisters(t *testing.T) {
	env := newCLIEnv(t)
	cmd := NewRootCommand("test")
	opts := &RootOptions{ConfigPath: env.config, Backend: "memory", DataDir: env.dataDir}

	svc, cleanup, err := opts.open(cmd, true)
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, NewMCPServer(svc, "test"))
}
