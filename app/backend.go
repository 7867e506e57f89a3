// ABOUTME: Storage backend factory keyed by configuration
// ABOUTME: Opens sqlite, badger, charm, firestore or in-memory stores behind store.Backend
package app

import (
	"context"
	"fmt"

	"github.com/harperreed/bizcrm/charm"
	"github.com/harperreed/bizcrm/config"
	"github.com/harperreed/bizcrm/db"
	"github.com/harperreed/bizcrm/store"
)

// OpenBackend opens the backend named by cfg.Backend. The caller closes it.
func OpenBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	var (
		b   store.Backend
		err error
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		var kv *db.KV
		kv, err = db.OpenKV(cfg.SQLitePath())
		b = kv
	case config.BackendBadger:
		var bg *store.Badger
		bg, err = store.OpenBadger(cfg.BadgerDir())
		b = bg
	case config.BackendCharm:
		var c *charm.Client
		c, err = charm.NewClient(&charm.Config{Host: cfg.CharmHost, AutoSync: cfg.CharmAutoSync})
		b = c
	case config.BackendFirestore:
		var fs *store.Firestore
		fs, err = store.OpenFirestore(ctx, cfg.FirestoreProject, cfg.FirestoreCollection)
		b = fs
	case config.BackendMemory:
		b = store.NewMemory()
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
	}
	return b, nil
}
