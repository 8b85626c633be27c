package internal

import (
	"fmt"
	"strings"
)

// Backend is the whole-value key/value substrate the guest store persists
// into. Values are JSON strings; a missing key reports ok == false.
type Backend interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// KeyLister is implemented by backends that can enumerate keys by prefix.
type KeyLister interface {
	Keys(prefix string) ([]string, error)
}

// Backend kinds accepted by OpenBackend
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// BackendOptions selects and configures a Backend
type BackendOptions struct {
	Kind        string // "sqlite", "file", "memory", "redis"
	Path        string // sqlite database file or file-backend directory
	RedisURL    string
	RedisPrefix string
}

// OpenBackend creates a backend based on kind
func OpenBackend(opts BackendOptions) (Backend, error) {
	switch strings.ToLower(opts.Kind) {
	case "", BackendSQLite:
		if opts.Path == "" {
			return nil, fmt.Errorf("sqlite backend requires a database path")
		}
		return OpenSQLiteBackend(opts.Path)
	case BackendFile:
		if opts.Path == "" {
			return nil, fmt.Errorf("file backend requires a directory")
		}
		return NewFileBackend(opts.Path)
	case BackendMemory:
		return NewMemoryBackend(), nil
	case BackendRedis:
		return OpenRedisBackend(opts.RedisURL, opts.RedisPrefix)
	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: sqlite, file, memory, redis)", opts.Kind)
	}
}
