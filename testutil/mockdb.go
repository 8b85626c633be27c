package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

// CreateInMemoryDB creates an in-memory SQLite database with the guestKV table
func CreateInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	// Every pooled connection would otherwise get its own empty database
	db.SetMaxOpenConns(1)

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS guestKV (
		key TEXT PRIMARY KEY,
		value TEXT
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		t.Fatalf("Failed to create guestKV table: %v", err)
	}

	return db
}

// CreateTestDB creates a test database with sample guest data
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db := CreateInMemoryDB(t)

	rows := []struct {
		key   string
		value string
	}{
		{
			key:   "guest_id",
			value: "guest_fixture1",
		},
		{
			key:   "guest_chat_sessions",
			value: `[{"id":"guest_s1","messages":[{"role":"user","content":"Hello","timestamp":1000},{"role":"bot","content":"Hi there","timestamp":2000,"intent":"general"}],"sessionId":"sess-1","timestamp":2000}]`,
		},
		{
			key:   "guest_mood_logs",
			value: `[{"id":"guest_m1","mood_score":6,"stress_level":4,"anxiety_level":3,"notes":"ok","timestamp":1000},{"id":"guest_m2","mood_score":7,"stress_level":3,"anxiety_level":2,"timestamp":3000}]`,
		},
		{
			key:   "guest_wellness_points",
			value: `{"points":40,"lastUpdated":3000}`,
		},
		{
			key:   "guest_peer_messages_1",
			value: `[{"id":"guest_p1","groupId":"1","role":"user","content":"hi group one","timestamp":1000}]`,
		},
		{
			key:   "guest_peer_groups",
			value: `["1"]`,
		},
	}

	stmt, err := db.Prepare("INSERT INTO guestKV (key, value) VALUES (?, ?)")
	if err != nil {
		db.Close()
		t.Fatalf("Failed to prepare insert statement: %v", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.Exec(row.key, row.value); err != nil {
			db.Close()
			t.Fatalf("Failed to insert %s: %v", row.key, err)
		}
	}

	return db
}

// InsertKV inserts or replaces a raw value, bypassing the guest store
func InsertKV(t *testing.T, db *sql.DB, key, value string) {
	t.Helper()
	insertSQL := "INSERT OR REPLACE INTO guestKV (key, value) VALUES (?, ?)"
	if _, err := db.Exec(insertSQL, key, value); err != nil {
		t.Fatalf("Failed to insert %s: %v", key, err)
	}
}
