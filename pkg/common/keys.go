package common

import "fmt"

var (
	// Sync keys
	syncPrefix    string = "mailsync:sync"
	syncSweepLock string = "mailsync:sync:sweep:lock"
	syncTrigger   string = "mailsync:sync:trigger:%d" // unix tick

	// Gateway keys
	gatewayInitLock string = "mailsync:gateway:init_lock:%s"

	// Cache keys
	cachePrefix string = "mailsync:cache"
	cacheEntry  string = "mailsync:cache:{%s}:%s"    // accountId, key
	cacheIndex  string = "mailsync:cache:{%s}:index" // accountId
)

var Keys = &redisKeys{}

type redisKeys struct{}

// Sync keys
func (rk *redisKeys) SyncPrefix() string {
	return syncPrefix
}

func (rk *redisKeys) SyncSweepLock() string {
	return syncSweepLock
}

func (rk *redisKeys) SyncTrigger(tick int64) string {
	return fmt.Sprintf(syncTrigger, tick)
}

// Gateway keys
func (rk *redisKeys) GatewayInitLock(name string) string {
	return fmt.Sprintf(gatewayInitLock, name)
}

// Cache keys
func (rk *redisKeys) CachePrefix() string {
	return cachePrefix
}

func (rk *redisKeys) CacheEntry(accountId, key string) string {
	return fmt.Sprintf(cacheEntry, accountId, key)
}

func (rk *redisKeys) CacheIndex(accountId string) string {
	return fmt.Sprintf(cacheIndex, accountId)
}
