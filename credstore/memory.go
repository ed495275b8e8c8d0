package credstore

import (
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory. Used by tests and by
// ephemeral sessions that must not outlive the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
	secure  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]Entry{}}
}

func (s *MemoryStore) Write(name, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = newEntry(name, value, ttl, s.secure)
	return nil
}

func (s *MemoryStore) Read(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[name]
	if !ok || entry.Expired(time.Now()) {
		return "", false
	}
	return entry.Value, true
}

func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, name)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
