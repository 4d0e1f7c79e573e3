package syncer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/types"
)

// EnqueueJob creates a pending email_sync job for an account
func (s *Service) EnqueueJob(ctx context.Context, accountId, schedule string) (*types.SyncJob, error) {
	if _, err := s.store.GetAccount(ctx, accountId); err != nil {
		return nil, err
	}
	if schedule != "" {
		if _, ok := parseInterval(schedule); !ok {
			log.Warn().Str("schedule", schedule).Dur("fallback", s.config.RecurringInterval).Msg("unparsed schedule, using fixed interval")
		}
	}

	job := &types.SyncJob{
		Type:      types.JobTypeEmailSync,
		AccountId: &accountId,
		Schedule:  schedule,
		Metadata:  types.JobMetadata{"trigger": "api"},
	}
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// RetryJob enqueues a fresh pending copy of a failed or cancelled job.
// The original job is left untouched. A failed recurring job already has a
// successor from the sweep, so its retry runs once without a schedule.
func (s *Service) RetryJob(ctx context.Context, jobId string) (*types.SyncJob, error) {
	job, err := s.store.GetJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	if !job.IsRetryable() {
		return nil, &types.ErrJobNotRetryable{Id: job.Id, Status: job.Status}
	}

	retry := &types.SyncJob{
		Type:      job.Type,
		AccountId: job.AccountId,
		Metadata:  types.JobMetadata{"retry_of": job.Id},
	}
	if job.Status == types.JobStatusCancelled {
		retry.Schedule = job.Schedule
	}
	if err := s.store.CreateJob(ctx, retry); err != nil {
		return nil, fmt.Errorf("failed to enqueue retry: %w", err)
	}

	log.Info().Str("job_id", retry.Id).Str("retry_of", job.Id).Msg("job retry enqueued")
	return retry, nil
}

// CancelJob cancels a pending job
func (s *Service) CancelJob(ctx context.Context, jobId string) (*types.SyncJob, error) {
	if err := s.store.CancelJob(ctx, jobId); err != nil {
		return nil, err
	}
	return s.store.GetJob(ctx, jobId)
}
