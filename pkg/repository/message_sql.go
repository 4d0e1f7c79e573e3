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
	messageBaseColumns = `id, account_id, folder_id, external_id, subject, from_address, from_name,
	date, preview, content, is_read, is_flagged, status, created_at, updated_at`

	defaultMessageLimit = 100
)

func messageSelectColumns(caps types.StoreCapabilities) string {
	if caps.MessageFlags {
		return messageBaseColumns + `, archived, deleted`
	}
	return messageBaseColumns + `, NULL AS archived, NULL AS deleted`
}

// InsertMessageIfAbsent inserts a message unless its external_id is already
// stored. Archived and Deleted are dropped when the schema lacks them.
func (b *SQLBackend) InsertMessageIfAbsent(ctx context.Context, msg *types.Message, caps types.StoreCapabilities) (bool, error) {
	if msg.Id == "" {
		msg.Id = common.NewID()
	}
	if msg.Status == "" {
		msg.Status = types.MessageStatusInbox
	}
	now := time.Now().UTC()
	msg.CreatedAt = now
	msg.UpdatedAt = now

	columns := messageBaseColumns
	args := []interface{}{
		msg.Id, msg.AccountId, msg.FolderId, msg.ExternalId, msg.Subject, msg.FromAddress, msg.FromName,
		msg.Date.UTC(), msg.Preview, msg.Content, msg.IsRead, msg.IsFlagged, msg.Status, msg.CreatedAt, msg.UpdatedAt,
	}
	if caps.MessageFlags {
		columns += `, archived, deleted`
		args = append(args, msg.Archived, msg.Deleted)
	} else {
		msg.Archived = nil
		msg.Deleted = nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
	query := `INSERT INTO emails (` + columns + `) VALUES (` + placeholders + `) ON CONFLICT (external_id) DO NOTHING`

	n, err := b.exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to insert message %s: %w", msg.ExternalId, err)
	}
	return n > 0, nil
}

// GetMessage retrieves a message by ID
func (b *SQLBackend) GetMessage(ctx context.Context, id string) (*types.Message, error) {
	return b.getMessageBy(ctx, "id", id)
}

// GetMessageByExternalId retrieves a message by its de-duplication key
func (b *SQLBackend) GetMessageByExternalId(ctx context.Context, externalId string) (*types.Message, error) {
	return b.getMessageBy(ctx, "external_id", externalId)
}

func (b *SQLBackend) getMessageBy(ctx context.Context, column, value string) (*types.Message, error) {
	caps, err := b.Capabilities(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + messageSelectColumns(caps) + ` FROM emails WHERE ` + column + ` = ?`

	msg := &types.Message{}
	err = b.db.GetContext(ctx, msg, b.db.Rebind(query), value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.ErrMessageNotFound{Id: value}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// ListMessages lists messages newest first
func (b *SQLBackend) ListMessages(ctx context.Context, filter types.MessageFilter) ([]*types.Message, error) {
	caps, err := b.Capabilities(ctx)
	if err != nil {
		return nil, err
	}

	var (
		conditions []string
		args       []interface{}
	)
	if filter.AccountId != "" {
		conditions = append(conditions, "account_id = ?")
		args = append(args, filter.AccountId)
	}
	if filter.FolderId != "" {
		conditions = append(conditions, "folder_id = ?")
		args = append(args, filter.FolderId)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if caps.MessageFlags && !filter.IncludeDeleted {
		conditions = append(conditions, "(deleted IS NULL OR deleted = ?)")
		args = append(args, false)
	}

	query := `SELECT ` + messageSelectColumns(caps) + ` FROM emails`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	query += ` ORDER BY date DESC, id ASC LIMIT ?`
	args = append(args, limit)

	messages := []*types.Message{}
	if err := b.db.SelectContext(ctx, &messages, b.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// UpdateMessageStatus moves a message to another workflow column
func (b *SQLBackend) UpdateMessageStatus(ctx context.Context, id string, status types.MessageStatus) error {
	return b.updateMessage(ctx, id, "status", status)
}

// SetMessageArchived sets the archived flag
func (b *SQLBackend) SetMessageArchived(ctx context.Context, id string, archived bool) error {
	if err := b.requireMessageFlags(ctx); err != nil {
		return err
	}
	return b.updateMessage(ctx, id, "archived", archived)
}

// SetMessageDeleted sets the soft-delete flag
func (b *SQLBackend) SetMessageDeleted(ctx context.Context, id string, deleted bool) error {
	if err := b.requireMessageFlags(ctx); err != nil {
		return err
	}
	return b.updateMessage(ctx, id, "deleted", deleted)
}

func (b *SQLBackend) requireMessageFlags(ctx context.Context) error {
	caps, err := b.Capabilities(ctx)
	if err != nil {
		return err
	}
	if !caps.MessageFlags {
		return &types.ErrCapabilityUnsupported{Capability: "message flags"}
	}
	return nil
}

func (b *SQLBackend) updateMessage(ctx context.Context, id, column string, value interface{}) error {
	query := `UPDATE emails SET ` + column + ` = ?, updated_at = ? WHERE id = ?`
	n, err := b.exec(ctx, query, value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update message %s: %w", column, err)
	}
	if n == 0 {
		return &types.ErrMessageNotFound{Id: id}
	}
	return nil
}
