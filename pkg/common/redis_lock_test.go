package common

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/mailsync/pkg/types"
)

func newRedisForTest(t *testing.T) *RedisClient {
	t.Helper()
	s := miniredis.RunT(t)

	rdb, err := NewRedisClient(types.RedisConfig{
		Addrs: []string{s.Addr()},
		Mode:  types.RedisModeSingle,
	})
	require.NoError(t, err)
	return rdb
}

func TestRedisLockExclusive(t *testing.T) {
	rdb := newRedisForTest(t)
	ctx := context.Background()
	key := Keys.SyncSweepLock()

	first := NewRedisLock(rdb)
	second := NewRedisLock(rdb)

	require.NoError(t, first.Acquire(ctx, key, RedisLockOptions{TtlS: 10}))
	assert.ErrorIs(t, second.Acquire(ctx, key, RedisLockOptions{TtlS: 10}), ErrLockNotObtained)

	require.NoError(t, first.Release(key))
	assert.NoError(t, second.Acquire(ctx, key, RedisLockOptions{TtlS: 10}))
	assert.NoError(t, second.Release(key))
}

func TestRedisLockReleaseUnknownKey(t *testing.T) {
	rdb := newRedisForTest(t)
	lock := NewRedisLock(rdb)
	assert.Error(t, lock.Release("never-acquired"))
}
