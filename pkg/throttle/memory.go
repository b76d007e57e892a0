package throttle

import (
	"context"
	"strconv"
	"sync"
)

type bucket struct {
	count    int64
	expireAt int64
}

// MemoryStore is an in-process CounterStore with the same fixed-window
// semantics as RedisStore.
//
// It is safe for concurrent use by multiple goroutines, but its state is
// local to the process and is not shared across replicas. Use RedisStore
// when you need a single global quota across multiple instances.
type MemoryStore struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep int64
}

// NewMemoryStore constructs a MemoryStore with empty state.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]*bucket)}
}

// Evaluate increments the caller's counters for each constrained window
// and reports whether any budget was exceeded. It mirrors the Lua
// evaluator: windows are checked minute, hour, day; a limit of 0 skips
// its window; the first exceeded window short-circuits, with earlier
// windows already counted.
func (m *MemoryStore) Evaluate(ctx context.Context, key string, quota QuotaSpec, now int64) (Verdict, error) {
	limits := quota.limits()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.maybeSweep(now)

	for i, def := range windowDefs {
		limit := limits[i]
		if limit <= 0 {
			continue
		}
		bucketKey := key + ":" + def.tag + ":" +
			strconv.FormatInt(def.seconds, 10) + ":" +
			strconv.FormatInt(now/def.seconds, 10)

		b, ok := m.buckets[bucketKey]
		if !ok || b.expireAt <= now {
			b = &bucket{}
			m.buckets[bucketKey] = b
		}
		b.count++
		b.expireAt = now + def.seconds
		if b.count > limit {
			return VerdictDeny, nil
		}
	}
	return VerdictAllow, nil
}

// maybeSweep drops expired buckets at most once per minute so the map is
// bounded by active windows, matching the TTL cleanup Redis does for us.
// Caller holds the mutex.
func (m *MemoryStore) maybeSweep(now int64) {
	if now-m.lastSweep < 60 {
		return
	}
	m.lastSweep = now
	for k, b := range m.buckets {
		if b.expireAt <= now {
			delete(m.buckets, k)
		}
	}
}

// count returns the live counter for a bucket, for tests.
func (m *MemoryStore) count(bucketKey string, now int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucketKey]
	if !ok || b.expireAt <= now {
		return 0
	}
	return b.count
}
