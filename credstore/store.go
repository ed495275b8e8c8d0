package credstore

import (
	"errors"
	"time"
)

// ErrStoreUnavailable wraps backend failures (unreachable Redis, unwritable
// config directory). Reads never surface it for mere absence; absence is the
// (value, false) return.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// SameSite mirrors the cookie attribute recorded with each entry.
type SameSite string

const (
	// SameSiteStrict is the only policy the admin console writes.
	SameSiteStrict SameSite = "Strict"
	// SameSiteLax exists for completeness when inspecting foreign entries.
	SameSiteLax SameSite = "Lax"
)

// Entry is a single durable credential record. Value carries the opaque
// payload; the remaining fields are cookie-style attributes preserved so a
// store dump stays faithful to what a browser client would have written.
type Entry struct {
	Name      string    `json:"name"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
	Path      string    `json:"path"`
	SameSite  SameSite  `json:"same_site"`
	Secure    bool      `json:"secure"`
}

// Expired reports whether the entry's expiry has passed at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// Store is the contract every credential backend satisfies.
//
// Write persists value under name with the given lifetime. Read returns the
// most recently written non-expired value, or ("", false) when the entry was
// never written, has expired, or the backing medium is absent — Read must not
// fail for those conditions. Delete forces immediate expiry and is
// idempotent. Close releases backend resources.
type Store interface {
	Write(name, value string, ttl time.Duration) error
	Read(name string) (string, bool)
	Delete(name string) error
	Close() error
}

// Attributes fixed for every entry the console writes. Path scopes the
// credential to the whole application; Strict keeps it first-party only.
const entryPath = "/"

func newEntry(name, value string, ttl time.Duration, secure bool) Entry {
	return Entry{
		Name:      name,
		Value:     value,
		ExpiresAt: time.Now().Add(ttl),
		Path:      entryPath,
		SameSite:  SameSiteStrict,
		Secure:    secure,
	}
}
