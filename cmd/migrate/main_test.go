// ABOUTME: Tests for the backend migration utility
// ABOUTME: Copies between sqlite and badger stores in a temporary data directory
package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/bizcrm/config"
	"github.com/harperreed/bizcrm/db"
	"github.com/harperreed/bizcrm/logging"
	"github.com/harperreed/bizcrm/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Backend:      config.BackendSQLite,
		DataDir:      t.TempDir(),
		MergePolicy:  "provider_wins",
		RedirectPort: 8085,
	}
}

func seedSQLite(t *testing.T, cfg *config.Config) {
	t.Helper()
	kv, err := db.OpenKV(cfg.SQLitePath())
	require.NoError(t, err)
	require.NoError(t, kv.Set("contacts", []byte(`[{"id":"c1","name":"Ada"}]`)))
	require.NoError(t, kv.Set("tasks", []byte(`[]`)))
	require.NoError(t, kv.Close())
}

func TestMigrateSQLiteToBadger(t *testing.T) {
	cfg := testConfig(t)
	seedSQLite(t, cfg)

	err := migrate(context.Background(), logging.Discard(), cfg, options{to: config.BackendBadger})
	require.NoError(t, err)

	dst, err := store.OpenBadger(cfg.BadgerDir())
	require.NoError(t, err)
	defer func() { _ = dst.Close() }()

	keys, err := dst.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"contacts", "tasks"}, keys)

	v, err := dst.Get("contacts")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"c1","name":"Ada"}]`, string(v))
}

func TestMigrateDryRunWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	seedSQLite(t, cfg)

	err := migrate(context.Background(), logging.Discard(), cfg, options{to: config.BackendBadger, dryRun: true})
	require.NoError(t, err)

	dst, err := store.OpenBadger(cfg.BadgerDir())
	require.NoError(t, err)
	defer func() { _ = dst.Close() }()
	keys, err := dst.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMigrateRefusesNonEmptyDestination(t *testing.T) {
	cfg := testConfig(t)
	seedSQLite(t, cfg)
	require.NoError(t, migrate(context.Background(), logging.Discard(), cfg, options{to: config.BackendBadger}))

	err := migrate(context.Background(), logging.Discard(), cfg, options{to: config.BackendBadger})
	assert.ErrorContains(t, err, "-force")

	err = migrate(context.Background(), logging.Discard(), cfg, options{to: config.BackendBadger, force: true})
	assert.NoError(t, err)
}

func TestMigrateBacksUpSQLiteDestination(t *testing.T) {
	cfg := testConfig(t)
	seedSQLite(t, cfg)
	require.NoError(t, migrate(context.Background(), logging.Discard(), cfg, options{to: config.BackendBadger}))

	err := migrate(context.Background(), logging.Discard(), cfg, options{from: config.BackendBadger, to: config.BackendSQLite, backup: true, force: true})
	require.NoError(t, err)

	matches, err := filepath.Glob(cfg.SQLitePath() + ".backup.*")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	info, err := os.Stat(matches[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestMigrateRejectsInvalidPairs(t *testing.T) {
	cfg := testConfig(t)

	assert.Error(t, migrate(context.Background(), logging.Discard(), cfg, options{to: config.BackendSQLite}))
	assert.Error(t, migrate(context.Background(), logging.Discard(), cfg, options{to: config.BackendMemory}))
	assert.Error(t, migrate(context.Background(), logging.Discard(), cfg, options{to: "tape"}))
}
