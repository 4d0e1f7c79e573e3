package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/syncer"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const defaultInterval = 5 * time.Minute

// Sweeper runs one sweep
type Sweeper interface {
	Sweep(ctx context.Context, req syncer.SweepRequest) ([]types.SweepResult, error)
}

// Scheduler fires the sweep on a fixed interval. With Redis configured only
// one replica fires per tick.
type Scheduler struct {
	ctx         context.Context
	cancel      context.CancelFunc
	config      types.SchedulerConfig
	redisClient *common.RedisClient
	sweeper     Sweeper
	hostname    string
	now         func() time.Time

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewScheduler creates a scheduler. redisClient may be nil in local mode.
func NewScheduler(ctx context.Context, config types.SchedulerConfig, redisClient *common.RedisClient, sweeper Sweeper) *Scheduler {
	ctx, cancel := context.WithCancel(ctx)

	if config.Interval <= 0 {
		config.Interval = defaultInterval
	}

	hostname, _ := os.Hostname()

	return &Scheduler{
		ctx:         ctx,
		cancel:      cancel,
		config:      config,
		redisClient: redisClient,
		sweeper:     sweeper,
		hostname:    hostname,
		now:         time.Now,
		done:        make(chan struct{}),
	}
}

// Start begins the trigger loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	s.running = true

	log.Info().Dur("interval", s.config.Interval).Msg("sweep scheduler started")

	go s.triggerLoop()
	return nil
}

// Stop gracefully stops the scheduler and waits for an in-flight sweep
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()
	<-s.done
	log.Info().Msg("sweep scheduler stopped")
	return nil
}

func (s *Scheduler) triggerLoop() {
	defer close(s.done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick runs one sweep unless another replica already claimed this tick.
// It reports whether a sweep ran.
func (s *Scheduler) tick() bool {
	claimed, err := s.claim()
	if err != nil {
		log.Warn().Err(err).Msg("failed to claim sweep tick")
		return false
	}
	if !claimed {
		log.Debug().Msg("sweep tick claimed by another replica")
		return false
	}

	results, err := s.sweeper.Sweep(s.ctx, syncer.SweepRequest{})
	if errors.Is(err, types.ErrSweepInProgress) {
		log.Debug().Msg("sweep already in progress")
		return false
	}
	if err != nil {
		log.Error().Err(err).Msg("scheduled sweep failed")
		return false
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	log.Info().Int("jobs", len(results)).Int("failed", failed).Msg("scheduled sweep finished")
	return true
}

func (s *Scheduler) claim() (bool, error) {
	if s.redisClient == nil {
		return true, nil
	}

	tick := s.now().Truncate(s.config.Interval).Unix()
	return s.redisClient.SetNX(s.ctx, common.Keys.SyncTrigger(tick), s.hostname, s.config.Interval).Result()
}
