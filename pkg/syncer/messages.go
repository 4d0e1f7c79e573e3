package syncer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/mailbox"
	"github.com/beam-cloud/mailsync/pkg/parser"
	"github.com/beam-cloud/mailsync/pkg/types"
)

// SyncMessages imports the newest messages of the account's inbox and stamps
// last_synced. The result count is the number of newly inserted messages;
// zero means nothing new.
func (s *Service) SyncMessages(ctx context.Context, accountId string) (*types.SyncResult, error) {
	v, err, _ := s.group.Do("messages:"+accountId, func() (interface{}, error) {
		account, err := s.store.GetAccount(ctx, accountId)
		if err != nil {
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

func (s *Service) syncMessages(ctx context.Context, account *types.Account) (*types.SyncResult, error) {
	folder, err := s.targetFolder(ctx, account)
	if err != nil {
		return nil, err
	}

	caps, err := s.store.Capabilities(ctx)
	if err != nil {
		return nil, err
	}

	var (
		inserted int
		fallback = !account.HasIMAPCredentials()
	)
	if fallback {
		inserted = s.importFallback(ctx, account, folder, caps)
	} else {
		inserted, err = s.importRemote(ctx, account, folder, caps)
		if err != nil {
			return nil, err
		}
	}

	counts, err := s.store.RecomputeFolderCounts(ctx, folder.Id)
	if err != nil {
		return nil, err
	}

	event := log.Info().
		Str("account_id", account.Id).
		Str("email", account.Email).
		Str("folder", folder.Path).
		Int("count", inserted).
		Bool("fallback", fallback)
	if counts.MessageCount != nil {
		event = event.Int("message_count", *counts.MessageCount)
	}
	event.Msg("messages synced")

	return &types.SyncResult{AccountId: account.Id, Count: inserted, Fallback: fallback}, nil
}

// targetFolder returns the inbox folder, or the first folder by path.
// Folders are reconciled first when the account has none.
func (s *Service) targetFolder(ctx context.Context, account *types.Account) (*types.Folder, error) {
	folders, err := s.store.ListFolders(ctx, account.Id)
	if err != nil {
		return nil, err
	}

	if len(folders) == 0 {
		if _, err := s.syncFolders(ctx, account); err != nil {
			return nil, err
		}
		if folders, err = s.store.ListFolders(ctx, account.Id); err != nil {
			return nil, err
		}
	}

	if len(folders) == 0 {
		return nil, &types.ErrFolderNotFound{AccountId: account.Id, Path: "INBOX"}
	}

	for _, folder := range folders {
		if folder.Type == types.FolderTypeInbox {
			return folder, nil
		}
	}
	return folders[0], nil
}

func (s *Service) importRemote(ctx context.Context, account *types.Account, folder *types.Folder, caps types.StoreCapabilities) (int, error) {
	raws, total, err := mailbox.FetchWindow(ctx, s.dialer, s.mailboxConfig(account), folder.MailboxName(), uint32(s.config.FetchWindow))
	if err != nil {
		return 0, err
	}

	log.Debug().
		Str("account_id", account.Id).
		Str("folder", folder.Path).
		Uint32("total", total).
		Int("fetched", len(raws)).
		Msg("fetched message window")

	now := s.now()
	inserted := 0
	for _, raw := range raws {
		parsed, err := parser.Parse(raw.Body, now)
		if err != nil {
			log.Warn().Err(err).Str("account_id", account.Id).Uint32("seq", raw.SeqNum).Msg("skipping unparseable message")
			continue
		}

		seen, flagged := raw.Seen, raw.Flagged
		folderId := folder.Id
		msg := &types.Message{
			AccountId:   account.Id,
			FolderId:    &folderId,
			ExternalId:  common.MessageExternalID(account.Id, raw.RemoteID()),
			Subject:     parsed.Subject,
			FromAddress: parsed.FromAddress,
			FromName:    parsed.FromName,
			Date:        parsed.Date,
			Preview:     parsed.Preview,
			Content:     parsed.Content,
			IsRead:      &seen,
			IsFlagged:   &flagged,
		}

		ok, err := s.insertMessage(ctx, msg, caps)
		if err != nil {
			log.Warn().Err(err).Str("account_id", account.Id).Str("external_id", msg.ExternalId).Msg("failed to insert message")
			continue
		}
		if !ok {
			continue
		}
		inserted++

		if s.archive != nil {
			if err := s.archive.PutRaw(ctx, account.Id, msg.ExternalId, raw.Body); err != nil {
				log.Warn().Err(err).Str("account_id", account.Id).Str("external_id", msg.ExternalId).Msg("failed to archive raw message")
			}
		}
	}

	return inserted, nil
}

func (s *Service) importFallback(ctx context.Context, account *types.Account, folder *types.Folder, caps types.StoreCapabilities) int {
	inserted := 0
	for _, msg := range GenerateFallback(account, folder.Id, s.now(), s.config.FallbackCount) {
		ok, err := s.insertMessage(ctx, msg, caps)
		if err != nil {
			log.Warn().Err(err).Str("account_id", account.Id).Str("external_id", msg.ExternalId).Msg("failed to insert demo message")
			continue
		}
		if ok {
			inserted++
		}
	}
	return inserted
}

// insertMessage writes a new inbox row. Archived and deleted start false
// when the store carries those fields.
func (s *Service) insertMessage(ctx context.Context, msg *types.Message, caps types.StoreCapabilities) (bool, error) {
	if msg.Status == "" {
		msg.Status = types.MessageStatusInbox
	}
	if caps.MessageFlags {
		archived, deleted := false, false
		msg.Archived = &archived
		msg.Deleted = &deleted
	}
	return s.store.InsertMessageIfAbsent(ctx, msg, caps)
}

// UpdateMessageStatus moves a message to a workflow column
func (s *Service) UpdateMessageStatus(ctx context.Context, messageId string, status types.MessageStatus) (*types.Message, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status %q", status)
	}
	return s.mutateMessage(ctx, messageId, func(msg *types.Message) error {
		return s.store.UpdateMessageStatus(ctx, msg.Id, status)
	})
}

// ArchiveMessage sets the archived flag
func (s *Service) ArchiveMessage(ctx context.Context, messageId string) (*types.Message, error) {
	return s.mutateMessage(ctx, messageId, func(msg *types.Message) error {
		return s.store.SetMessageArchived(ctx, msg.Id, true)
	})
}

// TrashMessage soft-deletes a message
func (s *Service) TrashMessage(ctx context.Context, messageId string) (*types.Message, error) {
	return s.mutateMessage(ctx, messageId, func(msg *types.Message) error {
		return s.store.SetMessageDeleted(ctx, msg.Id, true)
	})
}

// RestoreMessage clears the soft-delete flag
func (s *Service) RestoreMessage(ctx context.Context, messageId string) (*types.Message, error) {
	return s.mutateMessage(ctx, messageId, func(msg *types.Message) error {
		return s.store.SetMessageDeleted(ctx, msg.Id, false)
	})
}

func (s *Service) mutateMessage(ctx context.Context, messageId string, mutate func(*types.Message) error) (*types.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageId)
	if err != nil {
		return nil, err
	}
	if err := mutate(msg); err != nil {
		return nil, err
	}

	if msg.FolderId != nil {
		if _, err := s.store.RecomputeFolderCounts(ctx, *msg.FolderId); err != nil {
			log.Warn().Err(err).Str("folder_id", *msg.FolderId).Msg("failed to recompute folder counts")
		}
	}
	s.invalidate(ctx, msg.AccountId)

	return s.store.GetMessage(ctx, messageId)
}
