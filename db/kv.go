// ABOUTME: SQLite implementation of the key/value store backend
// ABOUTME: Each Set is a single UPSERT statement, so writes are atomic per key
package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/harperreed/bizcrm/store"
)

// KV is a store.Backend on top of the kv table.
type KV struct {
	db *sql.DB
}

// OpenKV opens the SQLite file at path and returns a backend over it.
func OpenKV(path string) (*KV, error) {
	database, err := OpenDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	return &KV{db: database}, nil
}

// NewKV wraps an already opened database. The schema must be initialized.
func NewKV(database *sql.DB) *KV {
	return &KV{db: database}
}

func (k *KV) Get(key string) ([]byte, error) {
	var value []byte
	err := k.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, nil
}

func (k *KV) Set(key string, value []byte) error {
	_, err := k.db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (k *KV) Delete(key string) error {
	if _, err := k.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (k *KV) Keys() ([]string, error) {
	rows, err := k.db.Query(`SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}
	return keys, nil
}

func (k *KV) Close() error {
	return k.db.Close()
}
