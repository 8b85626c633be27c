package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateSQLiteFixture creates an on-disk SQLite database holding a guest profile
func CreateSQLiteFixture(t *testing.T, dbPath string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS guestKV (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	insertSQL := "INSERT INTO guestKV (key, value) VALUES (?, ?)"
	if _, err := db.Exec(insertSQL, "guest_id", "guest_fixture1"); err != nil {
		t.Fatalf("Failed to insert guest id: %v", err)
	}
	if _, err := db.Exec(insertSQL, "guest_mood_logs", `[{"id":"guest_m1","mood_score":5,"stress_level":5,"anxiety_level":5,"timestamp":1000}]`); err != nil {
		t.Fatalf("Failed to insert mood logs: %v", err)
	}
}

// CreateFileFixture writes raw data to path, creating parent directories
func CreateFileFixture(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write fixture file: %v", err)
	}
}
