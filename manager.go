package admincore

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/ieltsline/admincore/credstore"
	"github.com/ieltsline/admincore/internal/notice"
)

// Manager defines a public type used by admincore APIs.
//
// Manager owns the single process session. All state transitions go through
// Restore, Login, and Logout; the internal mutex serializes them, so two
// concurrent Login calls can never interleave half-written credential
// entries.
type Manager struct {
	config    Config
	creds     credstore.Store
	validator TokenValidator
	allowed   map[Role]struct{}

	notices *notice.Dispatcher
	metrics *Metrics

	mu       sync.Mutex
	state    SessionState
	user     *User
	loading  bool
	restored bool

	subMu       sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int
}

// Restore describes the restore operation and its observable behavior.
//
// Restore reads both persisted credential entries and settles the session in
// AUTHENTICATED or ANONYMOUS. Every failure path (absent entries, expired
// token, malformed user record, role outside the allow-list) resolves to
// ANONYMOUS; nothing escapes to the caller. Loading flips false exactly once,
// on the first Restore.
func (m *Manager) Restore(ctx context.Context) Snapshot {
	start := time.Now()

	m.mu.Lock()
	if m.restored {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap
	}

	tok, tokOK := m.creds.Read(m.config.Session.TokenEntryName)
	raw, userOK := m.creds.Read(m.config.Session.UserEntryName)

	// Events are collected and emitted after the lock is released; the
	// dispatcher may block when DropIfFull is off.
	var events []NoticeEvent

	switch {
	case !tokOK || !userOK:
		m.settleLocked(StateAnonymous, nil)
		m.metrics.Inc(MetricRestoreAnonymous)

	case !m.validator(tok):
		m.purgeLocked()
		m.settleLocked(StateAnonymous, nil)
		m.metrics.Inc(MetricRestorePurged)
		events = append(events, NoticeEvent{
			Timestamp: time.Now(),
			Kind:      NoticeRestore,
			Success:   false,
			Reason:    "token invalid or expired",
		})

	default:
		user, err := ParseUser([]byte(raw))
		if err != nil {
			log.Print("admincore: restore: ", err)
			m.purgeLocked()
			m.settleLocked(StateAnonymous, nil)
			m.metrics.Inc(MetricRestorePurged)
			break
		}
		if _, ok := m.allowed[user.Role]; !ok {
			m.purgeLocked()
			m.settleLocked(StateAnonymous, nil)
			m.metrics.Inc(MetricRestorePurged)
			events = append(events, NoticeEvent{
				Timestamp: time.Now(),
				Kind:      NoticeAccessDenied,
				UserID:    user.ID,
				Phone:     user.Phone,
				Role:      string(user.Role),
				Success:   false,
				Reason:    ErrRoleDenied.Error(),
			})
			break
		}
		m.settleLocked(StateAuthenticated, &user)
		m.metrics.Inc(MetricRestoreAuthenticated)
		events = append(events, NoticeEvent{
			Timestamp: time.Now(),
			Kind:      NoticeRestore,
			UserID:    user.ID,
			Role:      string(user.Role),
			Success:   true,
		})
	}

	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.metrics.Observe(MetricRestoreLatency, time.Since(start))
	for _, event := range events {
		m.emit(ctx, event)
	}
	m.notify(snap)
	return snap
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// A role outside the allow-list persists nothing and returns [ErrRoleDenied];
// the session stays where it was. Credential write failures are logged and
// swallowed, so a missing storage context still yields an in-memory session.
func (m *Manager) Login(ctx context.Context, user User, tok string) error {
	m.mu.Lock()
	if !m.restored {
		m.mu.Unlock()
		return ErrRestorePending
	}

	if _, ok := m.allowed[user.Role]; !ok {
		m.metrics.Inc(MetricLoginDenied)
		m.mu.Unlock()
		m.emit(ctx, NoticeEvent{
			Timestamp: time.Now(),
			Kind:      NoticeAccessDenied,
			UserID:    user.ID,
			Phone:     user.Phone,
			Role:      string(user.Role),
			Success:   false,
			Reason:    ErrRoleDenied.Error(),
		})
		return ErrRoleDenied
	}

	m.persistLocked(user, tok)
	u := user
	m.state = StateAuthenticated
	m.user = &u
	m.metrics.Inc(MetricLoginSuccess)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(ctx, NoticeEvent{
		Timestamp: time.Now(),
		Kind:      NoticeLogin,
		UserID:    user.ID,
		Phone:     user.Phone,
		Role:      string(user.Role),
		Success:   true,
	})
	m.notify(snap)
	return nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout is idempotent: it deletes both credential entries, settles the
// session ANONYMOUS, and never fails. Calling it on an already anonymous
// session is a no-op apart from the forced entry expiry.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	m.purgeLocked()
	wasAuthenticated := m.state == StateAuthenticated
	m.state = StateAnonymous
	m.user = nil
	m.restored = true
	m.loading = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if wasAuthenticated {
		m.metrics.Inc(MetricLogout)
		m.emit(ctx, NoticeEvent{
			Timestamp: time.Now(),
			Kind:      NoticeLogout,
			Success:   true,
		})
	}
	m.notify(snap)
}

// CurrentUser describes the currentuser operation and its observable behavior.
//
// CurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) CurrentUser() (*User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAuthenticated || m.user == nil {
		return nil, false
	}
	u := *m.user
	return &u, true
}

// State describes the state operation and its observable behavior.
//
// State does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Loading describes the loading operation and its observable behavior.
//
// Loading does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Subscribe registers fn to receive a [Snapshot] after every state
// transition. The returned cancel detaches the subscriber; a cancelled
// subscriber never receives another snapshot.
func (m *Manager) Subscribe(fn func(Snapshot)) (cancel func()) {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subscribers, id)
		m.subMu.Unlock()
	}
}

// UnauthorizedHandler returns the hook the gateway invokes on a 401. A token
// expiring mid-session purges credentials and settles the session ANONYMOUS
// instead of leaving a half-authenticated shell behind.
func (m *Manager) UnauthorizedHandler() func() {
	return func() {
		m.metrics.Inc(MetricUnauthorizedSignal)
		m.Logout(context.Background())
	}
}

// Metrics describes the metrics operation and its observable behavior.
//
// Metrics does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) Metrics() *Metrics {
	return m.metrics
}

// NoticesDropped describes the noticesdropped operation and its observable behavior.
//
// NoticesDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *Manager) NoticesDropped() uint64 {
	return m.notices.Dropped()
}

// Close describes the close operation and its observable behavior.
//
// Close drains and stops the notice dispatcher. The manager remains usable
// for state reads afterwards; further notices are discarded.
func (m *Manager) Close() {
	m.notices.Close()
}

func (m *Manager) settleLocked(state SessionState, user *User) {
	m.state = state
	m.user = user
	m.restored = true
	m.loading = false
}

func (m *Manager) persistLocked(user User, tok string) {
	ttl := m.config.Session.CredentialTTL
	if err := m.creds.Write(m.config.Session.TokenEntryName, tok, ttl); err != nil {
		log.Print("admincore: persist token entry: ", err)
		m.metrics.Inc(MetricCredentialWriteFailure)
	}
	data, err := json.Marshal(user)
	if err != nil {
		log.Print("admincore: encode user entry: ", err)
		m.metrics.Inc(MetricCredentialWriteFailure)
		return
	}
	if err := m.creds.Write(m.config.Session.UserEntryName, string(data), ttl); err != nil {
		log.Print("admincore: persist user entry: ", err)
		m.metrics.Inc(MetricCredentialWriteFailure)
	}
}

// purgeLocked removes both entries. Token and user are always removed
// together; a session never survives with one of the two.
func (m *Manager) purgeLocked() {
	if err := m.creds.Delete(m.config.Session.TokenEntryName); err != nil {
		log.Print("admincore: delete token entry: ", err)
	}
	if err := m.creds.Delete(m.config.Session.UserEntryName); err != nil {
		log.Print("admincore: delete user entry: ", err)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{State: m.state, Loading: m.loading}
	if m.user != nil {
		u := *m.user
		snap.User = &u
	}
	return snap
}

func (m *Manager) emit(ctx context.Context, event NoticeEvent) {
	if ctx == nil {
		ctx = context.Background()
	}
	m.notices.Emit(ctx, event)
}

func (m *Manager) notify(snap Snapshot) {
	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
