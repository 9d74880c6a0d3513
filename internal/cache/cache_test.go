package cache

import (
	"context"
	"log/slog"
	"net/url"
	"testing"
	"time"

	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string                 `json:"name"`
	Count int                    `json:"count"`
	Avg   domain.Optional[int64] `json:"avg"`
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestLocalBackend_TTL(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	c := New(NewLocalBackend(clock), discard())

	want := payload{Name: "paris", Count: 3, Avg: domain.Some[int64](52500)}
	require.NoError(t, Set(ctx, c, "k", want, time.Hour))

	got, ok := Get[payload](ctx, c, "k")
	require.True(t, ok)
	assert.Equal(t, want, got)

	clock.Advance(time.Hour)
	_, ok = Get[payload](ctx, c, "k")
	assert.True(t, ok, "entry is fresh while age equals ttl")

	clock.Advance(time.Second)
	_, ok = Get[payload](ctx, c, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Backend().(*LocalBackend).Len(), "stale entry evicted on read")
}

func TestLocalBackend_Cleanup(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()
	backend := NewLocalBackend(clock)
	c := New(backend, discard())

	require.NoError(t, Set(ctx, c, "short", 1, time.Minute))
	require.NoError(t, Set(ctx, c, "long", 2, time.Hour))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, backend.Len(), "stale entries stay until swept")

	n, err := c.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, backend.Len())

	got, ok := Get[int](ctx, c, "long")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestLocalBackend_RemoveAndPattern(t *testing.T) {
	ctx := context.Background()
	c := New(NewLocalBackend(nil), discard())

	require.NoError(t, Set(ctx, c, "jobs:search:a", "a", time.Hour))
	require.NoError(t, Set(ctx, c, "jobs:search:b", "b", time.Hour))

	n, err := c.RemoveByPattern(ctx, "jobs:search:*")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, ok := Get[string](ctx, c, "jobs:search:a")
	assert.True(t, ok)

	require.NoError(t, c.Remove(ctx, "jobs:search:a"))
	_, ok = Get[string](ctx, c, "jobs:search:a")
	assert.False(t, ok)
}

func TestGet_UndecodableIsMiss(t *testing.T) {
	ctx := context.Background()
	backend := NewLocalBackend(nil)
	c := New(backend, discard())

	require.NoError(t, backend.Set(ctx, "k", []byte("not json"), time.Hour))

	_, ok := Get[payload](ctx, c, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, backend.Len())
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, New(NewRedisBackend(client), discard())
}

func TestRedisBackend_TTL(t *testing.T) {
	ctx := context.Background()
	mr, c := newMiniredis(t)

	want := payload{Name: "lyon", Count: 1}
	require.NoError(t, Set(ctx, c, "k", want, time.Hour))

	got, ok := Get[payload](ctx, c, "k")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, time.Hour, mr.TTL("k"))

	mr.FastForward(time.Hour + time.Second)
	_, ok = Get[payload](ctx, c, "k")
	assert.False(t, ok)
}

func TestRedisBackend_RemoveByPattern(t *testing.T) {
	ctx := context.Background()
	mr, c := newMiniredis(t)

	for _, k := range []string{"jobs:search:a", "jobs:search:b", "jobs:statistics:a", "geocode:paris,france"} {
		require.NoError(t, Set(ctx, c, k, k, time.Hour))
	}

	n, err := c.RemoveByPattern(ctx, "jobs:*")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"geocode:paris,france"}, mr.Keys())

	require.NoError(t, c.Remove(ctx, "geocode:paris,france"))
	assert.Empty(t, mr.Keys())

	swept, err := c.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)
}

func TestRedisBackend_DownIsMiss(t *testing.T) {
	ctx := context.Background()
	mr, c := newMiniredis(t)

	require.NoError(t, Set(ctx, c, "k", 1, time.Hour))
	mr.Close()

	_, ok := Get[int](ctx, c, "k")
	assert.False(t, ok)
	assert.ErrorIs(t, Set(ctx, c, "k", 2, time.Hour), domain.ErrCacheBackendUnavailable)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("redis reachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		c := Open(ctx, Options{RedisURL: "redis://" + mr.Addr()}, discard())
		defer c.Close()
		assert.Equal(t, KindRedis, c.Kind())
	})

	t.Run("redis unreachable falls back", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		c := Open(ctx, Options{RedisURL: "redis://" + addr}, discard())
		assert.Equal(t, KindLocal, c.Kind())
		assert.NoError(t, c.Close())
	})

	t.Run("invalid url falls back", func(t *testing.T) {
		c := Open(ctx, Options{RedisURL: "://nope"}, discard())
		assert.Equal(t, KindLocal, c.Kind())
	})

	t.Run("not configured", func(t *testing.T) {
		c := Open(ctx, Options{}, discard())
		assert.Equal(t, KindLocal, c.Kind())
	})
}

func TestQueryKey(t *testing.T) {
	base := domain.Query{Text: "golang", Location: "Paris"}

	tests := []struct {
		name  string
		a, b  domain.Query
		equal bool
	}{
		{name: "defaults applied", a: base, b: domain.Query{Text: "golang", Location: "Paris", Page: 1, PageSize: 20}, equal: true},
		{name: "trimmed", a: base, b: domain.Query{Text: " golang ", Location: "Paris"}, equal: true},
		{name: "page differs", a: base, b: domain.Query{Text: "golang", Location: "Paris", Page: 2}, equal: false},
		{name: "filter differs", a: base, b: domain.Query{Text: "golang", Location: "Paris", WorkMode: "Remote"}, equal: false},
		{name: "salary bound present", a: base, b: domain.Query{Text: "golang", Location: "Paris", MinSalary: domain.Some(0.0)}, equal: false},
		{name: "text vs location swapped", a: base, b: domain.Query{Text: "Paris", Location: "golang"}, equal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := QueryKey(NamespaceSearch, tt.a)
			kb := QueryKey(NamespaceSearch, tt.b)
			if tt.equal {
				assert.Equal(t, ka, kb)
			} else {
				assert.NotEqual(t, ka, kb)
			}
		})
	}

	assert.NotEqual(t, QueryKey(NamespaceSearch, base), QueryKey(NamespaceStatistics, base))
	assert.Equal(t,
		"jobs:search:employmentType=&experienceLevel=&location=Paris&page=1&pageSize=20&text=golang&workMode=",
		QueryKey(NamespaceSearch, base),
	)
}

func TestKeyHelpers(t *testing.T) {
	assert.Equal(t, "jobs:trends", Key(NamespaceTrends, nil))
	assert.Equal(t, "jobs:trends:days=30", Key(NamespaceTrends, url.Values{"days": {"30"}}))
	assert.Equal(t, "geocode:paris,france", GeocodeKey(" Paris ", "France"))
}
