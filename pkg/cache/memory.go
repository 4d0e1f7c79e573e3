package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is the local-mode ReadCache
type MemoryCache struct {
	entries *expirable.LRU[string, []byte]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: expirable.NewLRU[string, []byte](size, nil, ttl),
	}
}

func memoryKey(accountId, key string) string {
	return accountId + "/" + key
}

func (c *MemoryCache) Get(ctx context.Context, accountId, key string) ([]byte, bool) {
	return c.entries.Get(memoryKey(accountId, key))
}

func (c *MemoryCache) Set(ctx context.Context, accountId, key string, value []byte) error {
	c.entries.Add(memoryKey(accountId, key), value)
	return nil
}

func (c *MemoryCache) InvalidateAccount(ctx context.Context, accountId string) error {
	prefix := accountId + "/"
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
	return nil
}
