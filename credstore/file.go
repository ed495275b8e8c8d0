package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const credentialsFileName = "credentials.json"

// FileStore keeps entries in a single JSON file under the user config
// directory, permission 0600. A host without a resolvable home directory
// behaves as "no storage context": reads report absence, writes fail with
// [ErrStoreUnavailable].
type FileStore struct {
	mu     sync.Mutex
	path   string
	secure bool
}

// NewFileStore creates a [FileStore] rooted at dir, or at the default
// per-user config location when dir is empty. secure marks new entries as
// transport-protected (set when the gateway base URL is https).
func NewFileStore(dir string, secure bool) (*FileStore, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			// No home directory. Keep the store constructible so reads can
			// report absence instead of crashing headless environments.
			return &FileStore{secure: secure}, nil
		}
		dir = filepath.Join(base, "admincore")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &FileStore{
		path:   filepath.Join(dir, credentialsFileName),
		secure: secure,
	}, nil
}

// Write persists value under name, replacing any prior entry with that name.
func (s *FileStore) Write(name, value string, ttl time.Duration) error {
	if s.path == "" {
		return fmt.Errorf("%w: no storage context", ErrStoreUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	entries[name] = newEntry(name, value, ttl, s.secure)
	return s.flush(entries)
}

// Read returns the non-expired value stored under name. Expired entries are
// pruned lazily on the next Write or Delete rather than here; Read stays
// side-effect free so concurrent readers never contend on the file.
func (s *FileStore) Read(name string) (string, bool) {
	if s.path == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.load()[name]
	if !ok || entry.Expired(time.Now()) {
		return "", false
	}
	return entry.Value, true
}

// Delete removes the entry. Deleting a missing entry is a no-op success.
func (s *FileStore) Delete(name string) error {
	if s.path == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.load()
	if _, ok := entries[name]; !ok {
		return nil
	}
	delete(entries, name)
	return s.flush(entries)
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error { return nil }

// Path returns the location of the credentials file, empty when the store
// has no storage context.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() map[string]Entry {
	entries := map[string]Entry{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Print("admincore: credential file unreadable, treating as empty")
		}
		return entries
	}

	if err := json.Unmarshal(data, &entries); err != nil {
		// Corrupt file. Treat as empty; the next flush rewrites it whole.
		log.Print("admincore: credential file corrupt, treating as empty")
		return map[string]Entry{}
	}

	now := time.Now()
	for name, entry := range entries {
		if entry.Expired(now) {
			delete(entries, name)
		}
	}
	return entries
}

func (s *FileStore) flush(entries map[string]Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
