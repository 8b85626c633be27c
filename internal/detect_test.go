package internal

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDetectDataPaths(t *testing.T) {
	t.Setenv("SUDO_USER", "")
	paths, err := DetectDataPaths()
	if err != nil {
		t.Fatalf("DetectDataPaths() error = %v", err)
	}

	if paths.ConfigDir == "" || paths.DataDir == "" {
		t.Fatalf("DetectDataPaths() = %+v, want both directories set", paths)
	}

	home, _ := os.UserHomeDir()
	if runtime.GOOS == "darwin" {
		want := filepath.Join(home, "Library/Application Support", AppName)
		if paths.ConfigDir != want {
			t.Errorf("ConfigDir = %v, want %v", paths.ConfigDir, want)
		}
	}
}

func TestDetectDataPaths_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG directories only apply on linux")
	}
	t.Setenv("SUDO_USER", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_DATA_HOME", "relative/ignored")

	paths, err := DetectDataPaths()
	if err != nil {
		t.Fatalf("DetectDataPaths() error = %v", err)
	}
	if want := filepath.Join("/tmp/xdg-config", AppName); paths.ConfigDir != want {
		t.Errorf("ConfigDir = %v, want %v", paths.ConfigDir, want)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".local/share", AppName); paths.DataDir != want {
		t.Errorf("DataDir = %v, want %v (relative XDG_DATA_HOME is ignored)", paths.DataDir, want)
	}
}

func TestDataPaths_StoragePathFor(t *testing.T) {
	paths := DataPaths{ConfigDir: "/cfg", DataDir: "/data"}

	tests := []struct {
		kind string
		want string
	}{
		{"", filepath.Join("/data", "guest.db")},
		{BackendSQLite, filepath.Join("/data", "guest.db")},
		{BackendFile, filepath.Join("/data", "store")},
		{BackendMemory, ""},
		{BackendRedis, ""},
	}
	for _, tt := range tests {
		if got := paths.StoragePathFor(tt.kind); got != tt.want {
			t.Errorf("StoragePathFor(%q) = %v, want %v", tt.kind, got, tt.want)
		}
	}

	if got := paths.ConfigFile(); got != filepath.Join("/cfg", "config.yaml") {
		t.Errorf("ConfigFile() = %v", got)
	}
}

func TestDataPaths_DatabaseExists(t *testing.T) {
	dir := t.TempDir()
	paths := DataPaths{DataDir: dir}
	if paths.DatabaseExists() {
		t.Error("DatabaseExists() = true before the database was created")
	}

	backend, err := OpenSQLiteBackend(paths.DatabasePath())
	if err != nil {
		t.Fatalf("OpenSQLiteBackend() error = %v", err)
	}
	backend.Close()

	if !paths.DatabaseExists() {
		t.Error("DatabaseExists() = false after opening the database")
	}
}
