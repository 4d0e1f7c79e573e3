package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/mailbox"
	"github.com/beam-cloud/mailsync/pkg/repository"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const (
	defaultFetchWindow       = 20
	defaultRecurringInterval = 15 * time.Minute
	sweepLockTtlS            = 600
)

// ErrNoIMAPCredentials is returned when validating an account that would sync from demo data
var ErrNoIMAPCredentials = errors.New("account has no usable imap credentials")

// Invalidator drops cached reads for an account
type Invalidator interface {
	InvalidateAccount(ctx context.Context, accountId string) error
}

// Archiver stores the raw bytes of newly imported messages
type Archiver interface {
	PutRaw(ctx context.Context, accountId, externalId string, raw []byte) error
}

// Locker guards the sweep across replicas
type Locker interface {
	Acquire(ctx context.Context, key string, opts common.RedisLockOptions) error
	Release(key string) error
}

// Service runs folder reconciliation, message import and job sweeps
type Service struct {
	store  repository.BackendRepository
	dialer mailbox.Dialer
	config types.SyncConfig

	cache   Invalidator
	archive Archiver
	locker  Locker
	now     func() time.Time

	group singleflight.Group
}

type ServiceOption func(*Service)

func WithCache(cache Invalidator) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

func WithArchiver(archive Archiver) ServiceOption {
	return func(s *Service) { s.archive = archive }
}

func WithLocker(locker Locker) ServiceOption {
	return func(s *Service) { s.locker = locker }
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a sync service. Zero config values take defaults.
func NewService(store repository.BackendRepository, dialer mailbox.Dialer, config types.SyncConfig, opts ...ServiceOption) *Service {
	if config.FetchWindow <= 0 {
		config.FetchWindow = defaultFetchWindow
	}
	if config.FallbackCount <= 0 {
		config.FallbackCount = defaultFallbackCount
	}
	if config.RecurringInterval <= 0 {
		config.RecurringInterval = defaultRecurringInterval
	}

	s := &Service{
		store:  store,
		dialer: dialer,
		config: config,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncAccount runs folders, then messages, then stamps last_synced.
// The result count is the number of new messages.
func (s *Service) SyncAccount(ctx context.Context, accountId string) (*types.SyncResult, error) {
	v, err, _ := s.group.Do("account:"+accountId, func() (interface{}, error) {
		account, err := s.store.GetAccount(ctx, accountId)
		if err != nil {
			return nil, err
		}

		if _, err := s.syncFolders(ctx, account); err != nil {
			return nil, err
		}

		result, err := s.syncMessages(ctx, account)
		if err != nil {
			return nil, err
		}

		if err := s.store.UpdateAccountLastSynced(ctx, account.Id, s.now()); err != nil {
			return nil, err
		}

		s.invalidate(ctx, account.Id)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.SyncResult), nil
}

// ValidateAccount checks an account's IMAP credentials without persisting anything
func (s *Service) ValidateAccount(ctx context.Context, account *types.Account) error {
	if !account.HasIMAPCredentials() {
		return ErrNoIMAPCredentials
	}
	return mailbox.Validate(ctx, s.dialer, s.mailboxConfig(account))
}

func (s *Service) mailboxConfig(account *types.Account) mailbox.Config {
	return mailbox.ConfigFromAccount(account, s.config.DialTimeout)
}

func (s *Service) invalidate(ctx context.Context, accountId string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateAccount(ctx, accountId); err != nil {
		log.Warn().Err(err).Str("account_id", accountId).Msg("failed to invalidate cache")
	}
}
