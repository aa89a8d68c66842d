package repo

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/gantryhq/gantry/pkg/observability"
)

// DefaultTTL is the staleness window for cached repository documents and
// asset manifests.
const DefaultTTL = 5 * time.Second

type memoEntry struct {
	val       any
	fetchedAt time.Time
}

// memo is an in-memory cache with a fixed staleness window. Concurrent
// callers of the same key share one in-flight fetch; an entry older than
// the window is never returned.
type memo struct {
	kind string // cache hook key type ("document", "manifest")
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]memoEntry
	flight  singleflight.Group
}

func newMemo(kind string, ttl time.Duration) *memo {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &memo{
		kind:    kind,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoEntry),
	}
}

// get returns the cached value for key, fetching on miss. refresh bypasses
// the cached entry but still coalesces with concurrent fetches of key.
func (m *memo) get(ctx context.Context, key string, refresh bool, fetch func() (any, error)) (any, error) {
	if !refresh {
		if v, ok := m.lookup(key); ok {
			observability.Cache().OnCacheHit(ctx, m.kind)
			return v, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, m.kind)

	v, err, _ := m.flight.Do(key, func() (any, error) {
		// A concurrent fetch may have landed while this caller waited on
		// the flight lock.
		if !refresh {
			if v, ok := m.lookup(key); ok {
				return v, nil
			}
		}
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		m.store(ctx, key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (m *memo) lookup(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || m.now().Sub(e.fetchedAt) > m.ttl {
		return nil, false
	}
	return e.val, true
}

func (m *memo) store(ctx context.Context, key string, v any) {
	m.mu.Lock()
	m.entries[key] = memoEntry{val: v, fetchedAt: m.now()}
	size := len(m.entries)
	m.mu.Unlock()
	observability.Cache().OnCacheSet(ctx, m.kind, size)
}

// purge drops every cached entry.
func (m *memo) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]memoEntry)
}
