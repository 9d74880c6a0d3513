package cache

import (
	"context"
	"sync"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/jonboulle/clockwork"
)

type entry struct {
	value     []byte
	createdAt time.Time
	ttl       time.Duration
}

// fresh reports whether the entry is still within its ttl at now
func (e entry) fresh(now time.Time) bool {
	return now.Sub(e.createdAt) <= e.ttl
}

// LocalBackend is the in-process fallback. Expired entries stay in memory
// until they are read or swept.
type LocalBackend struct {
	mu      sync.RWMutex
	entries map[string]entry
	clock   clockwork.Clock
}

// NewLocalBackend creates an empty LocalBackend. A nil clock uses the real clock.
func NewLocalBackend(clock clockwork.Clock) *LocalBackend {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LocalBackend{
		entries: make(map[string]entry),
		clock:   clock,
	}
}

func (b *LocalBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	e, ok := b.entries[key]
	b.mu.RUnlock()

	if !ok {
		return nil, domain.ErrCacheMiss
	}

	if !e.fresh(b.clock.Now()) {
		b.mu.Lock()
		// re-check, a concurrent Set may have replaced it
		if cur, ok := b.entries[key]; ok && !cur.fresh(b.clock.Now()) {
			delete(b.entries, key)
		}
		b.mu.Unlock()
		return nil, domain.ErrCacheMiss
	}

	return e.value, nil
}

func (b *LocalBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[key] = entry{value: value, createdAt: b.clock.Now(), ttl: ttl}
	return nil
}

func (b *LocalBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.entries, key)
	return nil
}

// DeleteByPattern is not supported by the local backend and removes nothing
func (b *LocalBackend) DeleteByPattern(context.Context, string) (int, error) {
	return 0, nil
}

func (b *LocalBackend) Sweep(context.Context) (int, error) {
	now := b.clock.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	removed := 0
	for key, e := range b.entries {
		if !e.fresh(now) {
			delete(b.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (b *LocalBackend) Kind() string {
	return KindLocal
}

// Len returns the number of stored entries, fresh or not
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}
