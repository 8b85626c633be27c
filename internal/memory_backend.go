package internal

import (
	"sort"
	"strings"

	cache "github.com/patrickmn/go-cache"
)

// MemoryBackend keeps guest keys in process memory. Nothing survives a restart.
type MemoryBackend struct {
	items *cache.Cache
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		items: cache.New(cache.NoExpiration, 0),
	}
}

// Get returns the value stored under key
func (m *MemoryBackend) Get(key string) (string, bool, error) {
	v, ok := m.items.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	return s, ok, nil
}

// Set overwrites the value stored under key
func (m *MemoryBackend) Set(key, value string) error {
	m.items.Set(key, value, cache.NoExpiration)
	return nil
}

// Remove deletes key
func (m *MemoryBackend) Remove(key string) error {
	m.items.Delete(key)
	return nil
}

// Keys lists stored keys starting with prefix
func (m *MemoryBackend) Keys(prefix string) ([]string, error) {
	keys := make([]string, 0)
	for k := range m.items.Items() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close drops all items
func (m *MemoryBackend) Close() error {
	m.items.Flush()
	return nil
}
