package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries in Redis, one key per entry with the entry TTL
// mapped onto the Redis key TTL. Intended for shared kiosk deployments where
// several console hosts present one operator session.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	secure bool
	owns   bool
}

// NewRedisStore connects to addr and verifies the connection with a ping.
// prefix namespaces this console's keys; pass the operator or workstation ID.
func NewRedisStore(addr, username, password, prefix string, secure bool) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Username: username,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &RedisStore{client: client, prefix: prefix, secure: secure, owns: true}, nil
}

// NewRedisStoreWithClient wraps an existing client. The caller keeps
// ownership of the client's lifecycle.
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string, secure bool) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, secure: secure}
}

func (s *RedisStore) key(name string) string {
	if s.prefix == "" {
		return "ac:cred:" + name
	}
	return "ac:cred:" + s.prefix + ":" + name
}

func (s *RedisStore) Write(name, value string, ttl time.Duration) error {
	entry := newEntry(name, value, ttl, s.secure)
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ctx, cancel := s.opContext()
	defer cancel()
	if err := s.client.Set(ctx, s.key(name), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Read(name string) (string, bool) {
	ctx, cancel := s.opContext()
	defer cancel()

	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// An unreachable backend reads as absent credentials; the
			// operator re-authenticates rather than seeing a crash.
			log.Print("admincore: credential read failed, treating as absent")
		}
		return "", false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.Print("admincore: credential entry corrupt, treating as absent")
		return "", false
	}
	if entry.Expired(time.Now()) {
		return "", false
	}
	return entry.Value, true
}

func (s *RedisStore) Delete(name string) error {
	ctx, cancel := s.opContext()
	defer cancel()
	if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if !s.owns {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}
