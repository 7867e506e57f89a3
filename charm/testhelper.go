// ABOUTME: Test utilities for creating isolated charm clients
// ABOUTME: Uses temporary directories with in-memory BadgerDB for test isolation

package charm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v3"
)

// testKV wraps BadgerDB to provide the same interface as charm/kv.KV
// for testing without requiring server connectivity.
type testKV struct {
	db    *badger.DB
	syncs int
}

func (t *testKV) Get(key []byte) ([]byte, error) {
	var result []byte
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	return result, err
}

func (t *testKV) Set(key, value []byte) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

func (t *testKV) Delete(key []byte) error {
	return t.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

func (t *testKV) Keys() ([][]byte, error) {
	var keys [][]byte
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.KeyCopy(nil)
			keys = append(keys, key)
		}
		return nil
	})
	return keys, err
}

func (t *testKV) Sync() error {
	t.syncs++
	return nil
}

func (t *testKV) Reset() error {
	return t.db.DropAll()
}

func (t *testKV) Close() error {
	return t.db.Close()
}

// NewTestClient creates a charm client on a temporary BadgerDB for testing.
// It never contacts a charm server; Sync is a no-op.
func NewTestClient(t *testing.T) *Client {
	t.Helper()

	dataDir := filepath.Join(t.TempDir(), AppName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		t.Fatalf("Failed to create data dir: %v", err)
	}

	opts := badger.DefaultOptions(dataDir).
		WithLogger(nil) // Suppress badger logs in tests

	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}

	tkv := &testKV{db: db}
	c := &Client{
		kv:     tkv,
		config: &Config{Host: "localhost", AutoSync: true},
		closer: tkv.Close,
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})
	return c
}
