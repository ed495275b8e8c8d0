package admincore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ieltsline/admincore/credstore"
)

func acceptAll(string) bool { return true }
func rejectAll(string) bool { return false }

func adminUser() User {
	return User{
		ID:            "u-100",
		Phone:         "+998901112233",
		Role:          RoleAdmin,
		Status:        "ACTIVE",
		PhoneVerified: true,
		CreatedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func newTestManager(t *testing.T, store credstore.Store, v TokenValidator) *Manager {
	t.Helper()
	m, err := New().
		WithCredentials(store).
		WithValidator(v).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestRestoreWithNoEntriesIsAnonymous(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := newTestManager(t, store, acceptAll)

	if !m.Loading() {
		t.Fatal("expected loading before restore")
	}
	snap := m.Restore(context.Background())
	if snap.State != StateAnonymous || snap.User != nil {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if m.Loading() {
		t.Fatal("expected loading false after restore")
	}
}

func TestLoginDeniedRoleWritesNothing(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := newTestManager(t, store, acceptAll)
	m.Restore(context.Background())

	u := adminUser()
	u.Role = RoleUser
	err := m.Login(context.Background(), u, "tok123")
	if !errors.Is(err, ErrRoleDenied) {
		t.Fatalf("expected ErrRoleDenied, got %v", err)
	}

	if _, ok := store.Read("access_token"); ok {
		t.Fatal("token entry must not be written for a denied role")
	}
	if _, ok := store.Read("user"); ok {
		t.Fatal("user entry must not be written for a denied role")
	}
	if m.State() != StateAnonymous {
		t.Fatalf("expected anonymous after denied login, got %v", m.State())
	}
}

func TestLoginPersistsBothEntries(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := newTestManager(t, store, acceptAll)
	m.Restore(context.Background())

	u := adminUser()
	u.Role = RoleSuperAdmin
	if err := m.Login(context.Background(), u, "tok123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	tok, ok := store.Read("access_token")
	if !ok || tok != "tok123" {
		t.Fatalf("expected persisted token, got %q ok=%v", tok, ok)
	}
	raw, ok := store.Read("user")
	if !ok {
		t.Fatal("expected persisted user entry")
	}
	var persisted User
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("decode persisted user: %v", err)
	}
	if persisted.ID != u.ID || persisted.Role != RoleSuperAdmin {
		t.Fatalf("unexpected persisted user: %+v", persisted)
	}

	got, ok := m.CurrentUser()
	if !ok || got.ID != u.ID {
		t.Fatalf("unexpected current user: %+v ok=%v", got, ok)
	}
}

func TestLoginBeforeRestoreRejected(t *testing.T) {
	m := newTestManager(t, credstore.NewMemoryStore(), acceptAll)
	if err := m.Login(context.Background(), adminUser(), "tok"); !errors.Is(err, ErrRestorePending) {
		t.Fatalf("expected ErrRestorePending, got %v", err)
	}
}

func TestZeroCredentialTTLDefaultsToSevenDays(t *testing.T) {
	cfg := defaultConfig()
	cfg.Session.CredentialTTL = 0

	store := credstore.NewMemoryStore()
	m, err := New().
		WithConfig(cfg).
		WithCredentials(store).
		WithValidator(acceptAll).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(m.Close)

	ctx := context.Background()
	m.Restore(ctx)
	if err := m.Login(ctx, adminUser(), "tok123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, ok := store.Read("access_token"); !ok {
		t.Fatal("token entry expired immediately: zero TTL must mean the 7-day default")
	}
	if _, ok := store.Read("user"); !ok {
		t.Fatal("user entry expired immediately: zero TTL must mean the 7-day default")
	}

	m2 := newTestManager(t, store, acceptAll)
	if snap := m2.Restore(ctx); snap.State != StateAuthenticated {
		t.Fatalf("expected authenticated restore after zero-TTL login, got %v", snap.State)
	}
}

func TestRestoreRoundTripAcrossManagers(t *testing.T) {
	store := credstore.NewMemoryStore()
	m1 := newTestManager(t, store, acceptAll)
	m1.Restore(context.Background())
	if err := m1.Login(context.Background(), adminUser(), "tok123"); err != nil {
		t.Fatalf("login: %v", err)
	}

	m2 := newTestManager(t, store, acceptAll)
	snap := m2.Restore(context.Background())
	if snap.State != StateAuthenticated {
		t.Fatalf("expected authenticated restore, got %v", snap.State)
	}
	if snap.User == nil || snap.User.ID != "u-100" || snap.User.Role != RoleAdmin {
		t.Fatalf("unexpected restored user: %+v", snap.User)
	}
}

func TestRestoreInvalidTokenPurgesBoth(t *testing.T) {
	store := credstore.NewMemoryStore()
	seedSession(t, store, adminUser(), "expired-tok")

	m := newTestManager(t, store, rejectAll)
	snap := m.Restore(context.Background())
	if snap.State != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", snap.State)
	}
	assertPurged(t, store)
	if m.Metrics().Value(MetricRestorePurged) != 1 {
		t.Fatal("expected purge metric incremented")
	}
}

func TestRestoreMalformedUserPurgesBoth(t *testing.T) {
	store := credstore.NewMemoryStore()
	if err := store.Write("access_token", "tok", time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := store.Write("user", `{"phone":"+998"`, time.Hour); err != nil {
		t.Fatal(err)
	}

	m := newTestManager(t, store, acceptAll)
	if snap := m.Restore(context.Background()); snap.State != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", snap.State)
	}
	assertPurged(t, store)
}

func TestRestoreDisallowedRolePurgesAndNotifies(t *testing.T) {
	store := credstore.NewMemoryStore()
	u := adminUser()
	u.Role = RoleUser
	seedSession(t, store, u, "tok")

	sink := NewChannelSink(4)
	m, err := New().
		WithCredentials(store).
		WithValidator(acceptAll).
		WithNoticeSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(m.Close)

	if snap := m.Restore(context.Background()); snap.State != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", snap.State)
	}
	assertPurged(t, store)

	select {
	case event := <-sink.Events():
		if event.Kind != NoticeAccessDenied || event.Role != string(RoleUser) {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("expected access denied notice")
	}
}

func TestRestoreRunsOnce(t *testing.T) {
	store := credstore.NewMemoryStore()
	seedSession(t, store, adminUser(), "tok")

	m := newTestManager(t, store, acceptAll)
	first := m.Restore(context.Background())
	if first.State != StateAuthenticated {
		t.Fatalf("expected authenticated, got %v", first.State)
	}

	// A second Restore must not re-read the store or flip state.
	if err := store.Delete("access_token"); err != nil {
		t.Fatal(err)
	}
	second := m.Restore(context.Background())
	if second.State != StateAuthenticated {
		t.Fatalf("expected restore to be one-shot, got %v", second.State)
	}
}

func TestLogoutIdempotent(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := newTestManager(t, store, acceptAll)
	m.Restore(context.Background())
	if err := m.Login(context.Background(), adminUser(), "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}

	m.Logout(context.Background())
	assertPurged(t, store)
	if m.State() != StateAnonymous {
		t.Fatalf("expected anonymous, got %v", m.State())
	}

	m.Logout(context.Background())
	if m.State() != StateAnonymous {
		t.Fatal("second logout must be a no-op")
	}
	if m.Metrics().Value(MetricLogout) != 1 {
		t.Fatalf("expected one logout metric, got %d", m.Metrics().Value(MetricLogout))
	}
}

func TestUnauthorizedHandlerSettlesAnonymous(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := newTestManager(t, store, acceptAll)
	m.Restore(context.Background())
	if err := m.Login(context.Background(), adminUser(), "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}

	m.UnauthorizedHandler()()

	if m.State() != StateAnonymous {
		t.Fatalf("expected anonymous after 401 signal, got %v", m.State())
	}
	assertPurged(t, store)
	if m.Metrics().Value(MetricUnauthorizedSignal) != 1 {
		t.Fatal("expected unauthorized metric incremented")
	}
}

func TestSubscribeObservesTransitions(t *testing.T) {
	store := credstore.NewMemoryStore()
	m := newTestManager(t, store, acceptAll)

	var states []SessionState
	cancel := m.Subscribe(func(snap Snapshot) { states = append(states, snap.State) })

	ctx := context.Background()
	m.Restore(ctx)
	if err := m.Login(ctx, adminUser(), "tok"); err != nil {
		t.Fatalf("login: %v", err)
	}

	cancel()
	m.Logout(ctx)

	want := []SessionState{StateAnonymous, StateAuthenticated}
	if len(states) != len(want) {
		t.Fatalf("expected %v, got %v", want, states)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, states)
		}
	}
}

func seedSession(t *testing.T, store credstore.Store, u User, tok string) {
	t.Helper()
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("encode user: %v", err)
	}
	if err := store.Write("access_token", tok, time.Hour); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := store.Write("user", string(data), time.Hour); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func assertPurged(t *testing.T, store credstore.Store) {
	t.Helper()
	if _, ok := store.Read("access_token"); ok {
		t.Fatal("expected token entry purged")
	}
	if _, ok := store.Read("user"); ok {
		t.Fatal("expected user entry purged")
	}
}
