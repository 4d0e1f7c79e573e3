package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/common"
)

// RedisCache shares cached reads across gateway replicas. Each account keeps
// an index set of its entry keys so invalidation does not need SCAN.
type RedisCache struct {
	rdb *common.RedisClient
	ttl time.Duration
}

func NewRedisCache(rdb *common.RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, accountId, key string) ([]byte, bool) {
	value, err := c.rdb.Get(ctx, common.Keys.CacheEntry(accountId, key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("account_id", accountId).Msg("cache read failed")
		}
		return nil, false
	}
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, accountId, key string, value []byte) error {
	entryKey := common.Keys.CacheEntry(accountId, key)
	indexKey := common.Keys.CacheIndex(accountId)

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, entryKey, value, c.ttl)
	pipe.SAdd(ctx, indexKey, entryKey)
	pipe.Expire(ctx, indexKey, 2*c.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *RedisCache) InvalidateAccount(ctx context.Context, accountId string) error {
	indexKey := common.Keys.CacheIndex(accountId)

	keys, err := c.rdb.SMembers(ctx, indexKey).Result()
	if err != nil {
		return err
	}

	keys = append(keys, indexKey)
	return c.rdb.Del(ctx, keys...).Err()
}
