// ABOUTME: SQLite connection management for the kv backend
// ABOUTME: Opens files in WAL mode with a busy timeout and takes consistent snapshot backups
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dsnOptions = "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"

// OpenDatabase opens path, creating its directory and the kv schema as needed.
func OpenDatabase(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	database, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, err
	}

	// One writer at a time; SQLite reports "database is locked" otherwise.
	database.SetMaxOpenConns(1)

	if err := InitSchema(database); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// Backup writes a snapshot of the database at path next to it and returns the
// snapshot's path. A missing database is not an error and yields "".
// VACUUM INTO includes pages still sitting in the WAL file.
func Backup(path string, now time.Time) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("failed to stat database: %w", err)
	}

	database, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	backupPath := fmt.Sprintf("%s.backup.%s", path, now.Format("20060102-150405"))
	if _, err := database.Exec(`VACUUM INTO ?`, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	if err := os.Chmod(backupPath, 0600); err != nil {
		return "", fmt.Errorf("failed to restrict backup permissions: %w", err)
	}
	return backupPath, nil
}
