package credstore

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisStoreTest(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return NewRedisStoreWithClient(rdb, "console-1", false), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStoreTest(t)

	if err := store.Write("access_token", "tok123", time.Hour); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, ok := store.Read("access_token")
	if !ok || got != "tok123" {
		t.Fatalf("expected tok123, got %q ok=%v", got, ok)
	}
}

func TestRedisStoreTTLMapsToKeyExpiry(t *testing.T) {
	store, mr := newRedisStoreTest(t)

	if err := store.Write("access_token", "tok", time.Hour); err != nil {
		t.Fatalf("write: %v", err)
	}

	mr.FastForward(2 * time.Hour)
	if _, ok := store.Read("access_token"); ok {
		t.Fatal("expected entry to expire with its key TTL")
	}
}

func TestRedisStoreDeleteIdempotent(t *testing.T) {
	store, _ := newRedisStoreTest(t)

	if err := store.Write("user", `{"id":"u-1"}`, time.Hour); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := store.Delete("user"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete("user"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, ok := store.Read("user"); ok {
		t.Fatal("expected entry absent after double delete")
	}
}

func TestRedisStoreUnreachableReadsAbsent(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	mr.Close()

	if _, ok := store.Read("access_token"); ok {
		t.Fatal("expected unreachable backend to read as absent")
	}
}

func TestRedisStorePrefixIsolation(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	a := NewRedisStoreWithClient(rdb, "console-a", false)
	b := NewRedisStoreWithClient(rdb, "console-b", false)

	if err := a.Write("access_token", "tok-a", time.Hour); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if _, ok := b.Read("access_token"); ok {
		t.Fatal("expected console-b to not see console-a credentials")
	}
}
