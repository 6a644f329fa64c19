package rediscache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestGetMissReturnsFalse(t *testing.T) {
	c, _ := newTestCache(t)
	v, ok, err := c.Get(context.Background(), "catalog:product:p1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestSetGetAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "catalog:product:p1", []byte(`{"id":"p1"}`), time.Minute))
	v, ok, err := c.Get(ctx, "catalog:product:p1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":"p1"}`, string(v))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "catalog:product:p1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRemoveByPatternOnlyDropsMatchingKeys(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("catalog:product:%d", i), []byte("x"), 0))
	}
	require.NoError(t, c.Set(ctx, "catalog:products", []byte("[]"), 0))

	require.NoError(t, c.RemoveByPattern(ctx, "catalog:product:*"))

	assert.Equal(t, []string{"catalog:products"}, mr.Keys())
}

func TestRemove(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Remove(ctx, "k"))
	assert.False(t, mr.Exists("k"))
	require.NoError(t, c.Remove(ctx, "k"))
}
