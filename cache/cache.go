package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a cache entry.
type Status uint8

const (
	// StatusIdle marks a key that has never been fetched.
	StatusIdle Status = iota
	// StatusLoading marks a key with a fetch in flight and no prior success.
	StatusLoading
	// StatusSuccess marks a key holding fresh data.
	StatusSuccess
	// StatusError marks a key whose last fetch failed.
	StatusError
)

// Result is what a Query returns to its caller.
//
// Previous carries the last successful data for the same resource when the
// requested key itself had to fetch. This is the "keep previous data visible"
// policy, so paginated views do not flash empty on a filter change.
type Result struct {
	Data          any
	Previous      any
	Status        Status
	LastFetchedAt time.Time
}

// Mutation is a declared write operation. Invalidates lists the resource
// names whose cached reads become stale once Run succeeds.
type Mutation struct {
	Name        string
	Invalidates []string
	Run         func(ctx context.Context) (any, error)
}

// Stats counts cache traffic. All fields are atomic; read them through
// Snapshot.
type Stats struct {
	hits          atomic.Uint64
	misses        atomic.Uint64
	shared        atomic.Uint64
	invalidations atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Hits          uint64
	Misses        uint64
	Shared        uint64
	Invalidations uint64
}

type entry struct {
	data          any
	status        Status
	err           error
	lastFetchedAt time.Time
}

type fetchOutcome struct {
	data any
	at   time.Time
}

// Cache deduplicates and memoizes keyed reads and applies mutation-driven
// invalidation. Safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*entry
	// lastSuccess remembers the most recent successful payload per resource,
	// surviving invalidation so Result.Previous can bridge refetches.
	lastSuccess map[string]any
	group       singleflight.Group
	stats       Stats

	subMu       sync.Mutex
	subscribers map[int]func(Key)
	nextSubID   int
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{
		entries:     map[Key]*entry{},
		lastSuccess: map[string]any{},
		subscribers: map[int]func(Key){},
	}
}

// Query returns the cached data for key, or executes fetch to populate it.
// Concurrent calls for an identical key share one underlying fetch; every
// caller receives the same resolved data or the same error.
func (c *Cache) Query(ctx context.Context, key Key, fetch func(ctx context.Context) (any, error)) (Result, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	if ok && e.status == StatusSuccess {
		res := Result{Data: e.data, Status: StatusSuccess, LastFetchedAt: e.lastFetchedAt}
		c.mu.RUnlock()
		c.stats.hits.Add(1)
		return res, nil
	}
	previous := c.lastSuccess[key.Resource]
	c.mu.RUnlock()

	c.stats.misses.Add(1)
	c.markLoading(key)

	// The cache write happens inside the flight so every sharer observes the
	// stored result and a late joiner never launches a second fetch.
	v, err, sharedCall := c.group.Do(key.String(), func() (any, error) {
		if res, ok := c.Peek(key); ok && res.Status == StatusSuccess {
			return fetchOutcome{data: res.Data, at: res.LastFetchedAt}, nil
		}
		data, err := fetch(ctx)
		if err != nil {
			c.markError(key, err)
			return fetchOutcome{}, err
		}
		at := c.markSuccess(key, data)
		return fetchOutcome{data: data, at: at}, nil
	})
	if sharedCall {
		c.stats.shared.Add(1)
	}
	if err != nil {
		return Result{Previous: previous, Status: StatusError}, err
	}

	outcome := v.(fetchOutcome)
	return Result{Data: outcome.data, Previous: previous, Status: StatusSuccess, LastFetchedAt: outcome.at}, nil
}

// Peek reports the entry state for key without fetching.
func (c *Cache) Peek(key Key) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{Status: StatusIdle, Previous: c.lastSuccess[key.Resource]}, false
	}
	return Result{
		Data:          e.data,
		Previous:      c.lastSuccess[key.Resource],
		Status:        e.status,
		LastFetchedAt: e.lastFetchedAt,
	}, true
}

// Mutate executes op and, on success, synchronously invalidates every entry
// whose resource appears in op.Invalidates before returning. The next Query
// against those resources refetches instead of serving stale cache.
func (c *Cache) Mutate(ctx context.Context, op Mutation) (any, error) {
	if op.Run == nil {
		return nil, nil
	}

	data, err := op.Run(ctx)
	if err != nil {
		return nil, err
	}

	for _, resource := range op.Invalidates {
		c.Invalidate(resource)
	}
	return data, nil
}

// Invalidate discards every entry whose key's resource-name component equals
// resource. The per-resource previous-data memo survives so views keep
// something to show while the refetch runs.
func (c *Cache) Invalidate(resource string) {
	c.mu.Lock()
	var removed []Key
	for key := range c.entries {
		if key.Resource == resource {
			delete(c.entries, key)
			removed = append(removed, key)
		}
	}
	c.mu.Unlock()

	if len(removed) > 0 {
		c.stats.invalidations.Add(uint64(len(removed)))
	}
	for _, key := range removed {
		c.notify(key)
	}
}

// Subscribe registers fn to run after any entry changes or is invalidated.
// The returned cancel detaches the subscriber; a cancelled subscriber never
// receives another notification (unmount semantics).
func (c *Cache) Subscribe(fn func(Key)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subscribers, id)
		c.subMu.Unlock()
	}
}

// StatsSnapshot returns current counter values.
func (c *Cache) StatsSnapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:          c.stats.hits.Load(),
		Misses:        c.stats.misses.Load(),
		Shared:        c.stats.shared.Load(),
		Invalidations: c.stats.invalidations.Load(),
	}
}

func (c *Cache) markLoading(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.entries[key] = &entry{status: StatusLoading}
		return
	}
	if e.status != StatusSuccess {
		e.status = StatusLoading
	}
}

func (c *Cache) markSuccess(key Key, data any) time.Time {
	now := time.Now()
	c.mu.Lock()
	c.entries[key] = &entry{data: data, status: StatusSuccess, lastFetchedAt: now}
	c.lastSuccess[key.Resource] = data
	c.mu.Unlock()

	c.notify(key)
	return now
}

func (c *Cache) markError(key Key, err error) {
	c.mu.Lock()
	c.entries[key] = &entry{status: StatusError, err: err}
	c.mu.Unlock()

	c.notify(key)
}

func (c *Cache) notify(key Key) {
	c.subMu.Lock()
	fns := make([]func(Key), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// QueryAs is the typed convenience wrapper over [Cache.Query]. Two callers
// reading the same key through different types is a programming error; the
// mismatched caller gets an error rather than a silent zero value.
func QueryAs[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	res, err := c.Query(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	out, ok := res.Data.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache: key %q holds %T, not %T", key.String(), res.Data, zero)
	}
	return out, nil
}
