package internal

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// FileBackend stores each key as a JSON file in a directory, with a YAML
// index of the keys it holds.
type FileBackend struct {
	dir string
	mu  sync.Mutex
}

// KeyIndexEntry represents one key in the index
type KeyIndexEntry struct {
	Key       string    `yaml:"key"`
	File      string    `yaml:"file"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// KeyIndexMetadata stores metadata about the directory
type KeyIndexMetadata struct {
	FormatVersion string    `yaml:"format_version"`
	CreatedAt     time.Time `yaml:"created_at"`
	UpdatedAt     time.Time `yaml:"updated_at"`
}

// KeyIndex represents the YAML index of all keys
type KeyIndex struct {
	Keys     []KeyIndexEntry  `yaml:"keys"`
	Metadata KeyIndexMetadata `yaml:"metadata"`
}

// NewFileBackend creates a file backend rooted at dir, creating it if needed
func NewFileBackend(dir string) (*FileBackend, error) {
	fb := &FileBackend{dir: dir}
	if err := fb.ensureDir(); err != nil {
		return nil, &StorageError{Backend: "file", Op: "open", Key: dir, Err: err}
	}
	return fb, nil
}

func (fb *FileBackend) ensureDir() error {
	return os.MkdirAll(fb.dir, 0755)
}

// Dir returns the backend directory
func (fb *FileBackend) Dir() string {
	return fb.dir
}

// IndexPath returns the path to the key index YAML file
func (fb *FileBackend) IndexPath() string {
	return filepath.Join(fb.dir, "keys.yaml")
}

// ValuePath returns the path to the file holding key
func (fb *FileBackend) ValuePath(key string) string {
	return filepath.Join(fb.dir, valueFileName(key))
}

func valueFileName(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key)) + ".json"
}

// Get returns the value stored under key
func (fb *FileBackend) Get(key string) (string, bool, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	data, err := os.ReadFile(fb.ValuePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Backend: "file", Op: "get", Key: key, Err: err}
	}
	return string(data), true, nil
}

// Set overwrites the value stored under key and records it in the index
func (fb *FileBackend) Set(key, value string) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if err := fb.ensureDir(); err != nil {
		return &StorageError{Backend: "file", Op: "set", Key: key, Err: err}
	}

	// Write to a temp file first so readers never see a half-written value
	path := fb.ValuePath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return &StorageError{Backend: "file", Op: "set", Key: key, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &StorageError{Backend: "file", Op: "set", Key: key, Err: err}
	}

	index := fb.loadIndexOrNew()
	now := time.Now()
	found := false
	for i, entry := range index.Keys {
		if entry.Key == key {
			index.Keys[i].UpdatedAt = now
			found = true
			break
		}
	}
	if !found {
		index.Keys = append(index.Keys, KeyIndexEntry{
			Key:       key,
			File:      valueFileName(key),
			UpdatedAt: now,
		})
	}
	index.Metadata.UpdatedAt = now

	if err := fb.saveIndex(index); err != nil {
		return &StorageError{Backend: "file", Op: "set", Key: key, Err: err}
	}
	return nil
}

// Remove deletes key; removing a missing key is not an error
func (fb *FileBackend) Remove(key string) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	if err := os.Remove(fb.ValuePath(key)); err != nil && !os.IsNotExist(err) {
		return &StorageError{Backend: "file", Op: "remove", Key: key, Err: err}
	}

	index := fb.loadIndexOrNew()
	kept := index.Keys[:0]
	for _, entry := range index.Keys {
		if entry.Key != key {
			kept = append(kept, entry)
		}
	}
	index.Keys = kept
	index.Metadata.UpdatedAt = time.Now()

	if err := fb.saveIndex(index); err != nil {
		return &StorageError{Backend: "file", Op: "remove", Key: key, Err: err}
	}
	return nil
}

// Keys lists stored keys starting with prefix
func (fb *FileBackend) Keys(prefix string) ([]string, error) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	index, err := fb.LoadIndex()
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, &StorageError{Backend: "file", Op: "keys", Key: prefix, Err: err}
	}

	keys := make([]string, 0, len(index.Keys))
	for _, entry := range index.Keys {
		if strings.HasPrefix(entry.Key, prefix) {
			keys = append(keys, entry.Key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op; files are written synchronously
func (fb *FileBackend) Close() error {
	return nil
}

// LoadIndex loads the key index
func (fb *FileBackend) LoadIndex() (*KeyIndex, error) {
	data, err := os.ReadFile(fb.IndexPath())
	if err != nil {
		return nil, err
	}

	var index KeyIndex
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}

	return &index, nil
}

func (fb *FileBackend) loadIndexOrNew() *KeyIndex {
	index, err := fb.LoadIndex()
	if err == nil && index != nil {
		return index
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		LogWarn("Rebuilding unreadable key index %s: %v", fb.IndexPath(), err)
	}
	now := time.Now()
	return &KeyIndex{
		Keys: make([]KeyIndexEntry, 0),
		Metadata: KeyIndexMetadata{
			FormatVersion: "1.0",
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

func (fb *FileBackend) saveIndex(index *KeyIndex) error {
	data, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return os.WriteFile(fb.IndexPath(), data, 0644)
}
