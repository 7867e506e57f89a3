// ABOUTME: Key/value store adapter for JSON-serializable records
// ABOUTME: Backend interface plus typed Read/Write helpers with per-key corruption isolation
package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by backends when a key has never been written.
	ErrNotFound = errors.New("key not found")
	// ErrCorrupt marks a stored value that is not valid JSON for the requested type.
	ErrCorrupt = errors.New("corrupt value")
)

// Backend is a durable string-keyed blob store. Implementations must make Set
// atomic: a reader sees either the old or the new value, never a mix.
type Backend interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Keys() ([]string, error)
	Close() error
}

// Read deserializes the JSON stored under key. A missing key yields fallback
// with no error. An undecodable value yields fallback and an error wrapping
// ErrCorrupt; the caller decides whether to surface it.
func Read[T any](b Backend, key string, fallback T) (T, error) {
	data, err := b.Get(key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return fallback, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return value, nil
}

// Write serializes value and stores it with a single Set.
func Write(b Backend, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := b.Set(key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key has a stored value.
func Exists(b Backend, key string) (bool, error) {
	_, err := b.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Copy writes every key of src into dst and returns how many keys were copied.
func Copy(dst, src Backend) (int, error) {
	keys, err := src.Keys()
	if err != nil {
		return 0, fmt.Errorf("failed to list source keys: %w", err)
	}

	copied := 0
	for _, key := range keys {
		value, err := src.Get(key)
		if err != nil {
			return copied, fmt.Errorf("failed to read %s: %w", key, err)
		}
		if err := dst.Set(key, value); err != nil {
			return copied, fmt.Errorf("failed to write %s: %w", key, err)
		}
		copied++
	}
	return copied, nil
}
