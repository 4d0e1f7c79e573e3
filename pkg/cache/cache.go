package cache

import (
	"context"
	"time"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const (
	defaultTTL  = 30 * time.Second
	defaultSize = 10000
)

// ReadCache holds JSON-encoded listing responses grouped by account so that
// every entry of an account can be dropped after a sync.
type ReadCache interface {
	Get(ctx context.Context, accountId, key string) ([]byte, bool)
	Set(ctx context.Context, accountId, key string, value []byte) error
	InvalidateAccount(ctx context.Context, accountId string) error
}

// New returns a Redis-backed cache when rdb is set, otherwise an in-process one
func New(cfg types.CacheConfig, rdb *common.RedisClient) ReadCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	if rdb != nil {
		return NewRedisCache(rdb, ttl)
	}

	size := cfg.Size
	if size <= 0 {
		size = defaultSize
	}
	return NewMemoryCache(size, ttl)
}
