package internal

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// AppName names the per-user config and data directories
const AppName = "serenity-guest"

// DataPaths holds the per-user locations for config and guest data
type DataPaths struct {
	ConfigDir string // config.yaml and .env live here
	DataDir   string // guest.db and the file backend live here
}

// DetectDataPaths resolves the config and data directories for the current OS
func DetectDataPaths() (DataPaths, error) {
	home, err := homeDir()
	if err != nil {
		return DataPaths{}, fmt.Errorf("failed to get home directory: %w", err)
	}

	var configDir, dataDir string
	switch runtime.GOOS {
	case "darwin":
		base := filepath.Join(home, "Library/Application Support", AppName)
		configDir, dataDir = base, base
	case "linux", "freebsd", "openbsd", "netbsd":
		configDir = xdgDir("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
		dataDir = xdgDir("XDG_DATA_HOME", filepath.Join(home, ".local/share"))
	case "windows":
		base := os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Roaming")
		}
		configDir = filepath.Join(base, AppName)
		dataDir = configDir
	default:
		return DataPaths{}, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	return DataPaths{ConfigDir: configDir, DataDir: dataDir}, nil
}

// xdgDir returns $env/AppName, or fallback/AppName when env is unset or relative
func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" && filepath.IsAbs(dir) {
		return filepath.Join(dir, AppName)
	}
	return filepath.Join(fallback, AppName)
}

// homeDir prefers the invoking user's home when running under sudo
func homeDir() (string, error) {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil && u.HomeDir != "" {
			return u.HomeDir, nil
		}
	}
	return os.UserHomeDir()
}

// ConfigFile returns the default config file path
func (dp DataPaths) ConfigFile() string {
	return filepath.Join(dp.ConfigDir, "config.yaml")
}

// DatabasePath returns the default sqlite backend path
func (dp DataPaths) DatabasePath() string {
	return filepath.Join(dp.DataDir, "guest.db")
}

// FileStoreDir returns the default file backend directory
func (dp DataPaths) FileStoreDir() string {
	return filepath.Join(dp.DataDir, "store")
}

// StoragePathFor returns the default storage location for a backend kind.
// Kinds without local storage return "".
func (dp DataPaths) StoragePathFor(kind string) string {
	switch kind {
	case "", BackendSQLite:
		return dp.DatabasePath()
	case BackendFile:
		return dp.FileStoreDir()
	default:
		return ""
	}
}

// DatabaseExists checks if the sqlite database has been created
func (dp DataPaths) DatabaseExists() bool {
	info, err := os.Stat(dp.DatabasePath())
	return err == nil && !info.IsDir()
}
