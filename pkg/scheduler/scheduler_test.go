package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beam-cloud/mailsync/pkg/repository"
	"github.com/beam-cloud/mailsync/pkg/syncer"
	"github.com/beam-cloud/mailsync/pkg/types"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingSweeper) Sweep(ctx context.Context, req syncer.SweepRequest) ([]types.SweepResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return []types.SweepResult{{AccountId: "a"}}, c.err
}

func (c *countingSweeper) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestTickWithoutRedis(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler(context.Background(), types.SchedulerConfig{Interval: time.Minute}, nil, sweeper)

	assert.True(t, s.tick())
	assert.True(t, s.tick())
	assert.Equal(t, 2, sweeper.count())
}

func TestTickClaimedOncePerReplicaSet(t *testing.T) {
	rdb, err := repository.NewRedisClientForTest()
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2024, 1, 1, 12, 0, 30, 0, time.UTC) }
	sweeper := &countingSweeper{}

	first := NewScheduler(context.Background(), types.SchedulerConfig{Interval: time.Minute}, rdb, sweeper)
	second := NewScheduler(context.Background(), types.SchedulerConfig{Interval: time.Minute}, rdb, sweeper)
	first.now, second.now = now, now

	assert.True(t, first.tick())
	assert.False(t, second.tick())
	assert.Equal(t, 1, sweeper.count())

	// the next interval is a new tick
	second.now = func() time.Time { return now().Add(time.Minute) }
	assert.True(t, second.tick())
	assert.Equal(t, 2, sweeper.count())
}

func TestTickSweepInProgress(t *testing.T) {
	sweeper := &countingSweeper{err: types.ErrSweepInProgress}
	s := NewScheduler(context.Background(), types.SchedulerConfig{}, nil, sweeper)

	assert.False(t, s.tick())
	assert.Equal(t, defaultInterval, s.config.Interval)
}

func TestStartStop(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewScheduler(context.Background(), types.SchedulerConfig{Interval: 10 * time.Millisecond}, nil, sweeper)

	require.NoError(t, s.Start())
	assert.Error(t, s.Start())

	assert.Eventually(t, func() bool { return sweeper.count() > 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())
}
