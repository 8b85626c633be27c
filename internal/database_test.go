package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/serenity-guest/testutil"
)

func TestOpenDatabase(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr bool
	}{
		{
			name: "existing database",
			setup: func(t *testing.T) string {
				dbPath := filepath.Join(testutil.CreateTempDir(t), "test.db")
				testutil.CreateSQLiteFixture(t, dbPath)
				return dbPath
			},
			wantErr: false,
		},
		{
			name: "missing database is created with its directory",
			setup: func(t *testing.T) string {
				return filepath.Join(testutil.CreateTempDir(t), "nested", "dir", "guest.db")
			},
			wantErr: false,
		},
		{
			name: "in-memory database",
			setup: func(t *testing.T) string {
				return ":memory:"
			},
			wantErr: false,
		},
		{
			name: "parent is a file",
			setup: func(t *testing.T) string {
				blocker := filepath.Join(testutil.CreateTempDir(t), "blocker")
				testutil.CreateFileFixture(t, blocker, []byte("x"))
				return filepath.Join(blocker, "guest.db")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbPath := tt.setup(t)
			db, err := OpenDatabase(dbPath)
			if (err != nil) != tt.wantErr {
				t.Errorf("OpenDatabase() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			defer db.Close()

			var count int
			if err := db.QueryRow("SELECT COUNT(*) FROM guestKV").Scan(&count); err != nil {
				t.Errorf("guestKV table missing: %v", err)
			}
			if dbPath != ":memory:" {
				if _, err := os.Stat(dbPath); err != nil {
					t.Errorf("database file not created: %v", err)
				}
			}
		})
	}
}

func TestQueryGuestKV(t *testing.T) {
	db := testutil.CreateTestDB(t)
	defer db.Close()

	tests := []struct {
		name    string
		pattern string
		want    int
	}{
		{"all guest keys", "guest_%", 6},
		{"peer partitions", "guest_peer_messages_%", 1},
		{"exact key", "guest_id", 1},
		{"no match", "token%", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pairs, err := QueryGuestKV(db, tt.pattern)
			if err != nil {
				t.Fatalf("QueryGuestKV() error = %v", err)
			}
			if len(pairs) != tt.want {
				t.Errorf("QueryGuestKV(%q) returned %d pairs, want %d", tt.pattern, len(pairs), tt.want)
			}
		})
	}
}

func TestQueryGuestKV_SkipsNullValues(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	defer db.Close()

	if _, err := db.Exec("INSERT INTO guestKV (key, value) VALUES ('guest_null', NULL)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	testutil.InsertKV(t, db, "guest_set", "1")

	pairs, err := QueryGuestKV(db, "guest_%")
	if err != nil {
		t.Fatalf("QueryGuestKV() error = %v", err)
	}
	if len(pairs) != 1 || pairs[0].Key != "guest_set" {
		t.Errorf("QueryGuestKV() = %+v, want only guest_set", pairs)
	}
}

func TestSQLiteBackend_NullValueReadsAsMissing(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	b := NewSQLiteBackend(db)
	defer b.Close()

	if _, err := db.Exec("INSERT INTO guestKV (key, value) VALUES ('guest_id', NULL)"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, ok, err := b.Get(KeyGuestID); err != nil || ok {
		t.Errorf("Get() = ok %v, err %v; want missing", ok, err)
	}
}

func TestSQLiteBackend_KeysExactPrefix(t *testing.T) {
	db := testutil.CreateInMemoryDB(t)
	b := NewSQLiteBackend(db)
	defer b.Close()

	// LIKE would match these case-insensitively or through the _ wildcard
	for _, key := range []string{"guest_peer_messages_1", "GUEST_PEER_MESSAGES_2", "guestXpeer_messages_3", "guest_peer_messages_4"} {
		if err := b.Set(key, "[]"); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	keys, err := b.Keys(KeyPeerMessages + "_")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	want := []string{"guest_peer_messages_1", "guest_peer_messages_4"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("Keys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"guest_", "guest_"},
		{"", ""},
		{"50%off", "50"},
		{"%", ""},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOpenSQLiteBackend_ErrorIsStorageError(t *testing.T) {
	blocker := filepath.Join(testutil.CreateTempDir(t), "blocker")
	testutil.CreateFileFixture(t, blocker, []byte("x"))

	_, err := OpenSQLiteBackend(filepath.Join(blocker, "guest.db"))
	if err == nil {
		t.Fatal("expected an error")
	}
	storageErr, ok := err.(*StorageError)
	if !ok {
		t.Fatalf("error type = %T, want *StorageError", err)
	}
	if storageErr.Backend != "sqlite" || storageErr.Op != "open" {
		t.Errorf("StorageError = %+v", storageErr)
	}
}
