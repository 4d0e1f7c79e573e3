package repository

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/types"
)

// NewRedisClientForTest creates a Redis client backed by miniredis for testing
func NewRedisClientForTest() (*common.RedisClient, error) {
	s, err := miniredis.Run()
	if err != nil {
		return nil, err
	}

	rdb, err := common.NewRedisClient(types.RedisConfig{
		Addrs: []string{s.Addr()},
		Mode:  types.RedisModeSingle,
	})
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

// NewSQLiteBackendForTest opens a fully migrated in-memory store
func NewSQLiteBackendForTest(t testing.TB) *SQLBackend {
	t.Helper()

	b := openSQLiteForTest(t)
	if err := b.RunMigrations(); err != nil {
		t.Fatalf("failed to migrate test store: %v", err)
	}
	return b
}

// NewSQLiteBackendAtVersionForTest opens an in-memory store migrated only up to version
func NewSQLiteBackendAtVersionForTest(t testing.TB, version int64) *SQLBackend {
	t.Helper()

	b := openSQLiteForTest(t)
	if err := b.RunMigrationsTo(version); err != nil {
		t.Fatalf("failed to migrate test store to %d: %v", version, err)
	}
	return b
}

func openSQLiteForTest(t testing.TB) *SQLBackend {
	b, err := NewSQLiteBackend(types.SQLiteConfig{Path: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}
