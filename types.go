package admincore

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	internalnotice "github.com/ieltsline/admincore/internal/notice"
)

// Role represents the access tier carried by a platform account.
type Role string

const (
	// RoleUser is an exported constant or variable used by the session manager.
	RoleUser Role = "USER"
	// RoleAdmin is an exported constant or variable used by the session manager.
	RoleAdmin Role = "ADMIN"
	// RoleSuperAdmin is an exported constant or variable used by the session manager.
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// SessionState represents the lifecycle state of the single process session.
type SessionState uint8

const (
	// StateInitializing is an exported constant or variable used by the session manager.
	StateInitializing SessionState = iota
	// StateAuthenticated is an exported constant or variable used by the session manager.
	StateAuthenticated
	// StateAnonymous is an exported constant or variable used by the session manager.
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// User defines a public type used by admincore APIs.
//
// Field tags follow the platform API wire format; the same encoding is used
// for the persisted credential entry, so a record written by one process
// restores unchanged in the next.
type User struct {
	ID            string     `json:"_id"`
	Phone         string     `json:"phone"`
	Role          Role       `json:"role"`
	Status        string     `json:"status"`
	PhoneVerified bool       `json:"phoneVerified"`
	FirstName     string     `json:"firstName,omitempty"`
	LastName      string     `json:"lastName,omitempty"`
	Avatar        string     `json:"avatar,omitempty"`
	EmailVerified bool       `json:"emailVerified,omitempty"`
	LastLoginAt   *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ParseUser decodes and schema-checks a persisted user record. A record
// missing its identifier or role is rejected rather than half-restored.
func ParseUser(data []byte) (User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrUserRecordInvalid, err)
	}
	if u.ID == "" {
		return User{}, fmt.Errorf("%w: missing _id", ErrUserRecordInvalid)
	}
	if u.Role == "" {
		return User{}, fmt.Errorf("%w: missing role", ErrUserRecordInvalid)
	}
	return u, nil
}

// Snapshot defines a public type used by admincore APIs.
//
// Snapshot instances are point-in-time copies handed to subscribers; mutating
// one never affects the manager.
type Snapshot struct {
	State   SessionState
	User    *User
	Loading bool
}

// TokenValidator reports whether a bearer token is still usable. The default
// implementation decodes the expiry claim offline; no network, no signature
// check.
type TokenValidator func(tok string) bool

// NoticeEvent is a structured session lifecycle record emitted by the manager.
type NoticeEvent = internalnotice.Event

// NoticeSink receives [NoticeEvent] values from the manager's notice dispatcher.
type NoticeSink = internalnotice.Sink

// NoOpSink is a [NoticeSink] that silently discards all events.
type NoOpSink = internalnotice.NoOpSink

// ChannelSink is a buffered channel-based [NoticeSink].
type ChannelSink = internalnotice.ChannelSink

// JSONWriterSink is a [NoticeSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalnotice.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalnotice.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalnotice.NewJSONWriterSink(w)
}

// Notice kinds emitted by the manager.
const (
	// NoticeRestore is an exported constant or variable used by the session manager.
	NoticeRestore = "session.restore"
	// NoticeLogin is an exported constant or variable used by the session manager.
	NoticeLogin = "session.login"
	// NoticeLogout is an exported constant or variable used by the session manager.
	NoticeLogout = "session.logout"
	// NoticeAccessDenied is an exported constant or variable used by the session manager.
	NoticeAccessDenied = "session.access_denied"
)
