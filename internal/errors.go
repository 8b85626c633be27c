package internal

import "fmt"

// StorageError represents errors reading or writing a backend key
type StorageError struct {
	Backend string // "sqlite", "file", "memory", "redis"
	Op      string // "open", "get", "set", "remove"
	Key     string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage error [%s]: %s: %v", e.Backend, e.Op, e.Err)
	}
	return fmt.Sprintf("storage error [%s]: %s %s: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents a stored value that could not be decoded
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error %s: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SyncError represents a failed upload of guest data
type SyncError struct {
	Endpoint string // "/chatbot/sync", "/analytics/sync"
	Err      error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync error [%s]: %v", e.Endpoint, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
