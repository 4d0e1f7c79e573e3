package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/types"
)

func exerciseCache(t *testing.T, c ReadCache) {
	ctx := context.Background()

	_, ok := c.Get(ctx, "acct-1", "folders")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "acct-1", "folders", []byte(`[1]`)))
	require.NoError(t, c.Set(ctx, "acct-1", "messages?limit=10", []byte(`[2]`)))
	require.NoError(t, c.Set(ctx, "acct-2", "folders", []byte(`[3]`)))

	value, ok := c.Get(ctx, "acct-1", "folders")
	require.True(t, ok)
	assert.Equal(t, []byte(`[1]`), value)

	require.NoError(t, c.InvalidateAccount(ctx, "acct-1"))

	_, ok = c.Get(ctx, "acct-1", "folders")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "acct-1", "messages?limit=10")
	assert.False(t, ok)

	value, ok = c.Get(ctx, "acct-2", "folders")
	require.True(t, ok)
	assert.Equal(t, []byte(`[3]`), value)
}

func TestMemoryCache(t *testing.T) {
	exerciseCache(t, New(types.CacheConfig{}, nil))
}

func TestMemoryCacheExpires(t *testing.T) {
	c := NewMemoryCache(10, 20*time.Millisecond)
	require.NoError(t, c.Set(context.Background(), "a", "k", []byte("v")))
	time.Sleep(50 * time.Millisecond)

	_, ok := c.Get(context.Background(), "a", "k")
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	s := miniredis.RunT(t)
	rdb, err := common.NewRedisClient(types.RedisConfig{Addrs: []string{s.Addr()}, Mode: types.RedisModeSingle})
	require.NoError(t, err)

	exerciseCache(t, New(types.CacheConfig{TTL: time.Minute}, rdb))
	assert.False(t, s.Exists(common.Keys.CacheIndex("acct-1")))
}
