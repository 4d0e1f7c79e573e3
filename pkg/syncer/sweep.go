package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/types"
)

// SweepRequest configures one sweep
type SweepRequest struct {
	// Manual sweeps every account in scope when no jobs are due
	Manual bool
	Scope  types.SweepScope
}

// Sweep runs every due email_sync job oldest-first. Accounts are processed
// one at a time and a failing account never stops the sweep; its error is
// recorded on its job and in the results.
func (s *Service) Sweep(ctx context.Context, req SweepRequest) ([]types.SweepResult, error) {
	if s.locker != nil {
		key := common.Keys.SyncSweepLock()
		err := s.locker.Acquire(ctx, key, common.RedisLockOptions{TtlS: sweepLockTtlS})
		if errors.Is(err, common.ErrLockNotObtained) {
			return nil, types.ErrSweepInProgress
		}
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := s.locker.Release(key); err != nil {
				log.Warn().Err(err).Msg("failed to release sweep lock")
			}
		}()
	}

	jobs, err := s.store.ListDueJobs(ctx, types.JobTypeEmailSync, s.now(), req.Scope)
	if err != nil {
		return nil, err
	}

	if len(jobs) == 0 && req.Manual {
		return s.sweepAccounts(ctx, req.Scope)
	}

	results := make([]types.SweepResult, 0, len(jobs))
	for _, job := range jobs {
		result, ok := s.runJob(ctx, job)
		if ok {
			results = append(results, result)
		}
	}

	log.Info().Int("jobs", len(jobs)).Int("count", len(results)).Bool("manual", req.Manual).Msg("sweep complete")
	return results, nil
}

// runJob claims and runs one job. ok is false when another sweep claimed it first.
func (s *Service) runJob(ctx context.Context, job *types.SyncJob) (types.SweepResult, bool) {
	result := types.SweepResult{JobId: job.Id}

	if err := s.store.SetJobStarted(ctx, job.Id); err != nil {
		var notClaimable *types.ErrJobNotClaimable
		if errors.As(err, &notClaimable) {
			log.Debug().Str("job_id", job.Id).Msg("job already claimed")
			return result, false
		}
		result.Error = err.Error()
		return result, true
	}

	var (
		count  int
		runErr error
	)
	if job.AccountId == nil {
		runErr = errors.New("job has no account")
	} else {
		result.AccountId = *job.AccountId
		if account, err := s.store.GetAccount(ctx, *job.AccountId); err == nil {
			result.Email = account.Email
		}
		count, runErr = s.runAccountSync(ctx, *job.AccountId)
	}

	var nextRunAt *time.Time
	if job.IsRecurring() {
		next := NextRun(job.Schedule, s.now(), s.config.RecurringInterval)
		nextRunAt = &next
	}

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
		result.Error = errMsg
	} else {
		result.Result = &count
	}

	if err := s.store.SetJobResult(ctx, job.Id, errMsg, nextRunAt); err != nil {
		log.Error().Err(err).Str("job_id", job.Id).Msg("failed to record job result")
	}

	if nextRunAt != nil {
		s.enqueueSuccessor(ctx, job, *nextRunAt)
	}

	event := log.Info()
	if runErr != nil {
		event = log.Warn().Err(runErr)
	}
	event.Str("job_id", job.Id).Str("account_id", result.AccountId).Int("count", count).Msg("job finished")

	return result, true
}

// sweepAccounts syncs every account in scope directly and records an audit job per account
func (s *Service) sweepAccounts(ctx context.Context, scope types.SweepScope) ([]types.SweepResult, error) {
	accounts, err := s.store.ListAccounts(ctx, scope.UserId)
	if err != nil {
		return nil, err
	}

	results := make([]types.SweepResult, 0, len(accounts))
	for _, account := range accounts {
		result := types.SweepResult{AccountId: account.Id, Email: account.Email}

		accountId := account.Id
		job := &types.SyncJob{
			Type:      types.JobTypeEmailSync,
			AccountId: &accountId,
			Metadata:  types.JobMetadata{"trigger": "manual"},
		}
		if err := s.store.CreateJob(ctx, job); err != nil {
			log.Warn().Err(err).Str("account_id", account.Id).Msg("failed to create audit job")
			job = nil
		} else if err := s.store.SetJobStarted(ctx, job.Id); err != nil {
			log.Warn().Err(err).Str("job_id", job.Id).Msg("failed to start audit job")
			job = nil
		}

		count, runErr := s.runAccountSync(ctx, account.Id)
		errMsg := ""
		if runErr != nil {
			errMsg = runErr.Error()
			result.Error = errMsg
		} else {
			result.Result = &count
		}

		if job != nil {
			result.JobId = job.Id
			if err := s.store.SetJobResult(ctx, job.Id, errMsg, nil); err != nil {
				log.Error().Err(err).Str("job_id", job.Id).Msg("failed to record audit job result")
			}
		}

		results = append(results, result)
	}

	log.Info().Int("accounts", len(accounts)).Msg("manual sweep complete")
	return results, nil
}

func (s *Service) runAccountSync(ctx context.Context, accountId string) (int, error) {
	if s.config.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SyncTimeout)
		defer cancel()
	}

	result, err := s.SyncMessages(ctx, accountId)
	if err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (s *Service) enqueueSuccessor(ctx context.Context, job *types.SyncJob, nextRunAt time.Time) {
	successor := &types.SyncJob{
		Type:      job.Type,
		AccountId: job.AccountId,
		Schedule:  job.Schedule,
		NextRunAt: &nextRunAt,
		Metadata:  types.JobMetadata{"previous_job_id": job.Id},
	}
	if err := s.store.CreateJob(ctx, successor); err != nil {
		log.Error().Err(err).Str("job_id", job.Id).Msg("failed to enqueue next recurring job")
		return
	}
	log.Debug().Str("job_id", successor.Id).Time("next_run_at", nextRunAt).Msg("recurring job enqueued")
}
