// ABOUTME: Tests for configuration loading, env overrides and validation
// ABOUTME: Uses temporary config files so the user's real configuration is never read
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BIZCRM_BACKEND", "BIZCRM_DATA_DIR", "BIZCRM_MERGE_POLICY", "BIZCRM_TIMEZONE",
		"BIZCRM_GOOGLE_CLIENT_ID", "BIZCRM_GOOGLE_CLIENT_SECRET",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "backend: sqlite\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, DefaultDataDir(), cfg.DataDir)
	assert.Equal(t, "charm.2389.dev", cfg.CharmHost)
	assert.True(t, cfg.CharmAutoSync)
	assert.Equal(t, 8085, cfg.RedirectPort)
	assert.Equal(t, "provider_wins", cfg.MergePolicy)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.GoogleConfigured())
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
backend: badger
data_dir: /tmp/bizcrm-test
merge_policy: local_wins
timezone: Europe/Berlin
redirect_port: 9999
google_client_id: id-from-file
google_client_secret: secret-from-file
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, "/tmp/bizcrm-test/badger", cfg.BadgerDir())
	assert.Equal(t, "/tmp/bizcrm-test/bizcrm.db", cfg.SQLitePath())
	assert.Equal(t, "local_wins", cfg.MergePolicy)
	assert.Equal(t, 9999, cfg.RedirectPort)
	assert.True(t, cfg.GoogleConfigured())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "backend: badger\n")
	t.Setenv("BIZCRM_BACKEND", "memory")
	t.Setenv("GOOGLE_CLIENT_ID", "legacy-id")
	t.Setenv("BIZCRM_GOOGLE_CLIENT_SECRET", "env-secret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "legacy-id", cfg.GoogleClientID)
	assert.Equal(t, "env-secret", cfg.GoogleClientSecret)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("BIZCRM_BACKEND", "memory")

	cfg, found, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, BackendMemory, cfg.Backend)
	assert.Equal(t, "provider_wins", cfg.MergePolicy)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{Backend: BackendSQLite, MergePolicy: "provider_wins", RedirectPort: 8085}
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Backend = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "unknown backend")

	cfg = base()
	cfg.Backend = BackendFirestore
	assert.ErrorContains(t, cfg.Validate(), "firestore_project")
	cfg.FirestoreProject = "p"
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.MergePolicy = "newest"
	assert.ErrorContains(t, cfg.Validate(), "merge policy")

	cfg = base()
	cfg.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, cfg.Validate(), "timezone")

	cfg = base()
	cfg.RedirectPort = 70000
	assert.Error(t, cfg.Validate())
}

func TestLocationDefaultsToLocal(t *testing.T) {
	cfg := Config{}
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestSaveAndReload(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Config{
		Backend:             BackendCharm,
		DataDir:             "/data",
		CharmHost:           "charm.example",
		CharmAutoSync:       false,
		FirestoreCollection: "bizcrm",
		RedirectPort:        8085,
		MergePolicy:         "last_write_wins",
		LogLevel:            "debug",
	}
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *got)
}
