package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisCacheFromClient(client, "test"), mr
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "prices:CLZ25", []byte(`[1,2]`), time.Hour))
	assert.True(t, mr.Exists("test:prices:CLZ25"))

	got, err := c.Get(ctx, "prices:CLZ25")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))

	mr.FastForward(2 * time.Hour)
	_, err = c.Get(ctx, "prices:CLZ25")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestRedis(t)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "prices:A", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "prices:B", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "other", []byte("3"), 0))

	require.NoError(t, c.DeleteByPattern(ctx, "prices:*"))
	assert.False(t, mr.Exists("test:prices:A"))
	assert.False(t, mr.Exists("test:prices:B"))
	assert.True(t, mr.Exists("test:other"))
}

func TestMemoryCacheExpiryAndEviction(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)
	mc := NewMemoryCache(WithMemoryMaxSize(2), WithMemoryCleanup(0))
	mc.now = func() time.Time { return now }
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Minute))
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), time.Minute))
	now = now.Add(time.Second)
	_, err := mc.Get(ctx, "a") // touch a so b is least recent
	require.NoError(t, err)
	now = now.Add(time.Second)
	require.NoError(t, mc.Set(ctx, "c", []byte("3"), time.Minute))

	assert.Equal(t, 2, mc.Len())
	_, err = mc.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)

	now = now.Add(2 * time.Minute)
	_, err = mc.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestLayeredCachePromotesFromL2(t *testing.T) {
	ctx := context.Background()
	l2, _ := newTestRedis(t)
	lc := NewLayeredCache(l2, 10)
	defer lc.Close()

	require.NoError(t, l2.Set(ctx, "k", []byte("v"), time.Hour))
	got, err := lc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))

	fromL1, err := lc.l1.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(fromL1))
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(0))
	defer mc.Close()

	require.NoError(t, SetJSON(ctx, mc, "k", map[string]float64{"x": 1.5}, 0))
	got, err := GetJSON[map[string]float64](ctx, mc, "k")
	require.NoError(t, err)
	assert.Equal(t, 1.5, got["x"])

	_, err = GetJSON[int](ctx, mc, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestKeyFormatsDays(t *testing.T) {
	start := time.Date(2024, time.March, 1, 15, 30, 0, 0, time.UTC)
	end := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "prices:#BRNZ25:20240301:20261018", Key("prices", "#BRNZ25", start, end))
	assert.Equal(t, "spreads:Brent_Dec:3", Key("spreads", "Brent Dec", 3))
}
