package credstore

import (
	"fmt"
	"log"
)

// Backend names accepted by [New].
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options selects and parameterizes a credential backend.
type Options struct {
	Backend string // file (default), memory, redis
	Dir     string // file backend: override config directory
	Secure  bool   // mark entries transport-protected

	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisPrefix   string
}

// New builds the configured backend. A Redis backend that cannot be reached
// falls back to the file store so the console stays usable offline.
func New(opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		store, err := NewRedisStore(opts.RedisAddr, opts.RedisUsername, opts.RedisPassword, opts.RedisPrefix, opts.Secure)
		if err != nil {
			log.Print("admincore: redis credential store unreachable, falling back to file store")
			return NewFileStore(opts.Dir, opts.Secure)
		}
		return store, nil
	case BackendFile, "":
		return NewFileStore(opts.Dir, opts.Secure)
	default:
		return nil, fmt.Errorf("unknown credential backend %q", opts.Backend)
	}
}
