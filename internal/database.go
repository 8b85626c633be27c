package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

const createGuestKVSQL = `
CREATE TABLE IF NOT EXISTS guestKV (
	key TEXT PRIMARY KEY,
	value TEXT
)`

// OpenDatabase opens (creating if needed) a SQLite database holding the guestKV table
func OpenDatabase(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.Exec(createGuestKVSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create guestKV table: %w", err)
	}

	return db, nil
}

// QueryGuestKV queries the guestKV table with a LIKE pattern
func QueryGuestKV(db *sql.DB, pattern string) ([]KeyValuePair, error) {
	query := "SELECT key, value FROM guestKV WHERE key LIKE ? AND value IS NOT NULL"
	rows, err := db.Query(query, pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return pairs, nil
}

// KeyValuePair represents a key-value pair from guestKV
type KeyValuePair struct {
	Key   string
	Value string
}

// SQLiteBackend stores guest keys in the guestKV table
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend wraps an already opened database. The guestKV table must exist.
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db}
}

// OpenSQLiteBackend opens the database at path and wraps it
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := OpenDatabase(path)
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Op: "open", Key: path, Err: err}
	}
	return NewSQLiteBackend(db), nil
}

// Get returns the value stored under key
func (b *SQLiteBackend) Get(key string) (string, bool, error) {
	var value sql.NullString
	err := b.db.QueryRow("SELECT value FROM guestKV WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Backend: "sqlite", Op: "get", Key: key, Err: err}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Set overwrites the value stored under key
func (b *SQLiteBackend) Set(key, value string) error {
	_, err := b.db.Exec(
		"INSERT INTO guestKV (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Backend: "sqlite", Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (b *SQLiteBackend) Remove(key string) error {
	if _, err := b.db.Exec("DELETE FROM guestKV WHERE key = ?", key); err != nil {
		return &StorageError{Backend: "sqlite", Op: "remove", Key: key, Err: err}
	}
	return nil
}

// Keys lists stored keys starting with prefix
func (b *SQLiteBackend) Keys(prefix string) ([]string, error) {
	pairs, err := QueryGuestKV(b.db, escapeLike(prefix)+"%")
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Op: "keys", Key: prefix, Err: err}
	}
	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		// LIKE is case-insensitive for ASCII and treats _ as a wildcard
		if len(pair.Key) >= len(prefix) && pair.Key[:len(prefix)] == prefix {
			keys = append(keys, pair.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the underlying database
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// escapeLike drops LIKE wildcards from a prefix; callers re-check the prefix exactly.
func escapeLike(prefix string) string {
	out := make([]byte, 0, len(prefix))
	for i := 0; i < len(prefix); i++ {
		switch prefix[i] {
		case '%':
			return string(out)
		default:
			out = append(out, prefix[i])
		}
	}
	return string(out)
}
