package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/types"
)

const folderColumns = `id, account_id, name, path, remote_name, type,
	message_count, unread_count, created_at, updated_at`

// InsertFolderIfAbsent inserts a folder unless one already exists at the same
// (account_id, path). The uniqueness constraint decides, so concurrent syncs
// of one account never create duplicates.
func (b *SQLBackend) InsertFolderIfAbsent(ctx context.Context, folder *types.Folder) (bool, error) {
	if folder.Id == "" {
		folder.Id = common.NewID()
	}
	if folder.Type == "" {
		folder.Type = types.FolderTypeCustom
	}
	now := time.Now().UTC()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	query := `
		INSERT INTO email_folders (` + folderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id, path) DO NOTHING
	`
	n, err := b.exec(ctx, query,
		folder.Id, folder.AccountId, folder.Name, folder.Path, folder.RemoteName, folder.Type,
		folder.MessageCount, folder.UnreadCount, folder.CreatedAt, folder.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert folder %s: %w", folder.Path, err)
	}

	return n > 0, nil
}

// GetFolder retrieves a folder by ID
func (b *SQLBackend) GetFolder(ctx context.Context, id string) (*types.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM email_folders WHERE id = ?`

	folder := &types.Folder{}
	err := b.db.GetContext(ctx, folder, b.db.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.ErrFolderNotFound{Path: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return folder, nil
}

// ListFolders lists an account's folders ordered by path
func (b *SQLBackend) ListFolders(ctx context.Context, accountId string) ([]*types.Folder, error) {
	query := `SELECT ` + folderColumns + ` FROM email_folders WHERE account_id = ? ORDER BY path ASC`

	folders := []*types.Folder{}
	if err := b.db.SelectContext(ctx, &folders, b.db.Rebind(query), accountId); err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

// RecomputeFolderCounts sets message_count and unread_count from the rows
// currently stored in the folder. A message with no read state is unread.
func (b *SQLBackend) RecomputeFolderCounts(ctx context.Context, folderId string) (*types.Folder, error) {
	query := `
		UPDATE email_folders SET
			message_count = (SELECT COUNT(*) FROM emails WHERE folder_id = ?),
			unread_count = (SELECT COUNT(*) FROM emails WHERE folder_id = ? AND (is_read IS NULL OR is_read = ?)),
			updated_at = ?
		WHERE id = ?
	`
	n, err := b.exec(ctx, query, folderId, folderId, false, time.Now().UTC(), folderId)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute folder counts: %w", err)
	}
	if n == 0 {
		return nil, &types.ErrFolderNotFound{Path: folderId}
	}

	return b.GetFolder(ctx, folderId)
}
