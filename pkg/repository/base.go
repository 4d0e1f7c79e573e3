package repository

import (
	"context"
	"time"

	"github.com/beam-cloud/mailsync/pkg/types"
)

// AccountRepository manages mailbox accounts
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *types.Account) error
	GetAccount(ctx context.Context, id string) (*types.Account, error)
	// ListAccounts returns accounts owned by userId, or every account when userId is empty
	ListAccounts(ctx context.Context, userId string) ([]*types.Account, error)
	UpdateAccountLastSynced(ctx context.Context, id string, at time.Time) error
	DeleteAccount(ctx context.Context, id string) error
}

// FolderRepository manages folders under an account
type FolderRepository interface {
	// InsertFolderIfAbsent inserts unless (account_id, path) exists and reports whether it did
	InsertFolderIfAbsent(ctx context.Context, folder *types.Folder) (bool, error)
	GetFolder(ctx context.Context, id string) (*types.Folder, error)
	ListFolders(ctx context.Context, accountId string) ([]*types.Folder, error)
	// RecomputeFolderCounts rewrites message_count and unread_count from live counts
	RecomputeFolderCounts(ctx context.Context, folderId string) (*types.Folder, error)
}

// MessageRepository manages imported messages
type MessageRepository interface {
	// InsertMessageIfAbsent inserts unless external_id exists and reports whether it did.
	// archived/deleted are written only when caps.MessageFlags is set.
	InsertMessageIfAbsent(ctx context.Context, msg *types.Message, caps types.StoreCapabilities) (bool, error)
	GetMessage(ctx context.Context, id string) (*types.Message, error)
	GetMessageByExternalId(ctx context.Context, externalId string) (*types.Message, error)
	ListMessages(ctx context.Context, filter types.MessageFilter) ([]*types.Message, error)
	UpdateMessageStatus(ctx context.Context, id string, status types.MessageStatus) error
	SetMessageArchived(ctx context.Context, id string, archived bool) error
	SetMessageDeleted(ctx context.Context, id string, deleted bool) error
}

// JobRepository manages the sync job table
type JobRepository interface {
	CreateJob(ctx context.Context, job *types.SyncJob) error
	GetJob(ctx context.Context, id string) (*types.SyncJob, error)
	ListJobs(ctx context.Context, filter types.JobFilter) ([]*types.SyncJob, error)
	// ListDueJobs returns pending jobs of jobType whose next_run_at is unset or not after now, oldest first
	ListDueJobs(ctx context.Context, jobType types.JobType, now time.Time, scope types.SweepScope) ([]*types.SyncJob, error)
	// SetJobStarted moves a pending job to running
	SetJobStarted(ctx context.Context, id string) error
	// SetJobResult moves a running job to completed, or failed when errorMsg is set
	SetJobResult(ctx context.Context, id string, errorMsg string, nextRunAt *time.Time) error
	CancelJob(ctx context.Context, id string) error
}

// BackendRepository is the relational store used by the sync pipeline
type BackendRepository interface {
	AccountRepository
	FolderRepository
	MessageRepository
	JobRepository

	// Capabilities declares which optional fields the current schema supports
	Capabilities(ctx context.Context) (types.StoreCapabilities, error)

	// Utilities
	Ping(ctx context.Context) error
	Close() error
	RunMigrations() error
}
