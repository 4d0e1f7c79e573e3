package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JobType is the kind of background work a job wraps
type JobType string

const (
	JobTypeEmailSync        JobType = "email_sync"
	JobTypeCleanup          JobType = "cleanup"
	JobTypeReportGeneration JobType = "report_generation"
)

func (t JobType) Valid() bool {
	switch t {
	case JobTypeEmailSync, JobTypeCleanup, JobTypeReportGeneration:
		return true
	}
	return false
}

// JobStatus represents the current status of a sync job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// SyncJob is a schedulable record of one sync attempt
type SyncJob struct {
	// Id is the UUID exposed via API
	Id string `json:"id" db:"id"`

	Type   JobType   `json:"type" db:"type"`
	Status JobStatus `json:"status" db:"status"`

	// AccountId is the account this job syncs (nil for account-less job types)
	AccountId *string `json:"account_id,omitempty" db:"account_id"`

	// Schedule is the recurrence expression; empty for one-shot jobs
	Schedule string `json:"schedule,omitempty" db:"schedule"`

	// NextRunAt gates when a pending job becomes due; nil means immediately
	NextRunAt *time.Time `json:"next_run_at,omitempty" db:"next_run_at"`

	// Error is set iff the job failed
	Error string `json:"error,omitempty" db:"error"`

	Metadata JobMetadata `json:"metadata" db:"metadata"`

	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// IsTerminal returns true if the job is in a terminal state.
func (j *SyncJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted ||
		j.Status == JobStatusFailed ||
		j.Status == JobStatusCancelled
}

// IsRecurring returns true if the job carries a schedule
func (j *SyncJob) IsRecurring() bool {
	return j.Schedule != ""
}

// IsRetryable returns true if a new job may be enqueued from this one
func (j *SyncJob) IsRetryable() bool {
	return j.Status == JobStatusFailed || j.Status == JobStatusCancelled
}

// JobFilter narrows job listings. Zero values are ignored.
type JobFilter struct {
	Type      JobType
	Status    JobStatus
	AccountId string
	UserId    string // jobs whose account belongs to this user
	Limit     int
}

// JobMetadata is a free-form bag stored as JSON text
type JobMetadata map[string]interface{}

func (m JobMetadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *JobMetadata) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = JobMetadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata type %T", src)
	}

	if len(raw) == 0 {
		*m = JobMetadata{}
		return nil
	}
	out := JobMetadata{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*m = out
	return nil
}
