package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const (
	jobColumns = `id, type, status, account_id, schedule, next_run_at, error, metadata,
	created_at, started_at, finished_at`

	// error is NULL unless the job failed
	jobSelectColumns = `id, type, status, account_id, schedule, next_run_at, COALESCE(error, '') AS error, metadata,
	created_at, started_at, finished_at`

	defaultJobLimit = 100
)

// CreateJob creates a new pending job unless another status is set
func (b *SQLBackend) CreateJob(ctx context.Context, job *types.SyncJob) error {
	if job.Id == "" {
		job.Id = common.NewID()
	}
	if job.Status == "" {
		job.Status = types.JobStatusPending
	}
	if job.Metadata == nil {
		job.Metadata = types.JobMetadata{}
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sync_jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?, ?, ?)
	`
	_, err := b.exec(ctx, query,
		job.Id, job.Type, job.Status, job.AccountId, job.Schedule, utcPtr(job.NextRunAt),
		job.Error, job.Metadata, job.CreatedAt.UTC(), utcPtr(job.StartedAt), utcPtr(job.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJob retrieves a job by ID
func (b *SQLBackend) GetJob(ctx context.Context, id string) (*types.SyncJob, error) {
	query := `SELECT ` + jobSelectColumns + ` FROM sync_jobs WHERE id = ?`

	job := &types.SyncJob{}
	err := b.db.GetContext(ctx, job, b.db.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.ErrJobNotFound{Id: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// ListJobs lists jobs newest first
func (b *SQLBackend) ListJobs(ctx context.Context, filter types.JobFilter) ([]*types.SyncJob, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.AccountId != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filter.AccountId)
	}
	if filter.UserId != "" {
		conditions = append(conditions, "account_id IN (SELECT id FROM email_accounts WHERE user_id = ?)")
		args = append(args, filter.UserId)
	}

	query := `SELECT ` + jobSelectColumns + ` FROM sync_jobs`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultJobLimit
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ?`
	args = append(args, limit)

	return b.selectJobs(ctx, query, args...)
}

// ListDueJobs returns pending jobs that may run at now, oldest first
func (b *SQLBackend) ListDueJobs(ctx context.Context, jobType types.JobType, now time.Time, scope types.SweepScope) ([]*types.SyncJob, error) {
	query := `
		SELECT ` + jobSelectColumns + ` FROM sync_jobs
		WHERE type = ? AND status = ? AND (next_run_at IS NULL OR next_run_at <= ?)
	`
	args := []interface{}{jobType, types.JobStatusPending, now.UTC()}
	if scope.UserId != "" {
		query += ` AND account_id IN (SELECT id FROM email_accounts WHERE user_id = ?)`
		args = append(args, scope.UserId)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	return b.selectJobs(ctx, query, args...)
}

// SetJobStarted claims a pending job. Fails with ErrJobNotClaimable when the
// job has already left pending.
func (b *SQLBackend) SetJobStarted(ctx context.Context, id string) error {
	query := `UPDATE sync_jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?`

	n, err := b.exec(ctx, query, types.JobStatusRunning, time.Now().UTC(), id, types.JobStatusPending)
	if err != nil {
		return fmt.Errorf("failed to start job: %w", err)
	}
	if n == 0 {
		return b.notUpdated(ctx, id, types.JobStatusPending)
	}
	return nil
}

// SetJobResult finishes a running job. An empty errorMsg completes it,
// anything else fails it with that message.
func (b *SQLBackend) SetJobResult(ctx context.Context, id string, errorMsg string, nextRunAt *time.Time) error {
	status := types.JobStatusCompleted
	if errorMsg != "" {
		status = types.JobStatusFailed
	}

	query := `
		UPDATE sync_jobs SET status = ?, error = NULLIF(?, ''), next_run_at = ?, finished_at = ?
		WHERE id = ? AND status = ?
	`
	n, err := b.exec(ctx, query, status, errorMsg, utcPtr(nextRunAt), time.Now().UTC(), id, types.JobStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to set job result: %w", err)
	}
	if n == 0 {
		return b.notUpdated(ctx, id, types.JobStatusRunning)
	}
	return nil
}

// CancelJob cancels a job that has not started yet
func (b *SQLBackend) CancelJob(ctx context.Context, id string) error {
	query := `UPDATE sync_jobs SET status = ?, finished_at = ? WHERE id = ? AND status = ?`

	n, err := b.exec(ctx, query, types.JobStatusCancelled, time.Now().UTC(), id, types.JobStatusPending)
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	if n == 0 {
		return b.notUpdated(ctx, id, types.JobStatusPending)
	}
	return nil
}

func (b *SQLBackend) selectJobs(ctx context.Context, query string, args ...interface{}) ([]*types.SyncJob, error) {
	jobs := []*types.SyncJob{}
	if err := b.db.SelectContext(ctx, &jobs, b.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// notUpdated distinguishes a missing job from one in the wrong status
func (b *SQLBackend) notUpdated(ctx context.Context, id string, expected types.JobStatus) error {
	if _, err := b.GetJob(ctx, id); err != nil {
		return err
	}
	return &types.ErrJobNotClaimable{Id: id, Status: expected}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
