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

const accountColumns = `id, user_id, provider, email, auth_type,
	imap_host, imap_port, imap_username, imap_secret,
	smtp_host, smtp_port, smtp_username, smtp_secret,
	sync_interval, last_synced, created_at, updated_at`

// CreateAccount stores a new account. Secrets are sealed before they are written.
func (b *SQLBackend) CreateAccount(ctx context.Context, account *types.Account) error {
	if account.Id == "" {
		account.Id = common.NewID()
	}
	if account.SyncInterval == 0 {
		account.SyncInterval = 15
	}
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	imapSecret, err := b.secrets.Seal(account.IMAPSecret)
	if err != nil {
		return fmt.Errorf("failed to seal imap secret: %w", err)
	}
	smtpSecret, err := b.secrets.Seal(account.SMTPSecret)
	if err != nil {
		return fmt.Errorf("failed to seal smtp secret: %w", err)
	}

	query := `
		INSERT INTO email_accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = b.exec(ctx, query,
		account.Id, account.UserId, account.Provider, account.Email, account.AuthType,
		account.IMAPHost, account.IMAPPort, account.IMAPUsername, imapSecret,
		account.SMTPHost, account.SMTPPort, account.SMTPUsername, smtpSecret,
		account.SyncInterval, account.LastSynced, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccount retrieves an account by ID with its secrets opened
func (b *SQLBackend) GetAccount(ctx context.Context, id string) (*types.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM email_accounts WHERE id = ?`

	account := &types.Account{}
	err := b.db.GetContext(ctx, account, b.db.Rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &types.ErrAccountNotFound{Id: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := b.openSecrets(account); err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts lists accounts for a user, or all accounts when userId is empty
func (b *SQLBackend) ListAccounts(ctx context.Context, userId string) ([]*types.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM email_accounts`
	args := []interface{}{}
	if userId != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userId)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	accounts := []*types.Account{}
	if err := b.db.SelectContext(ctx, &accounts, b.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	for _, account := range accounts {
		if err := b.openSecrets(account); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// UpdateAccountLastSynced stamps the account's last successful sync
func (b *SQLBackend) UpdateAccountLastSynced(ctx context.Context, id string, at time.Time) error {
	at = at.UTC()
	n, err := b.exec(ctx, `UPDATE email_accounts SET last_synced = ?, updated_at = ? WHERE id = ?`, at, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last_synced: %w", err)
	}
	if n == 0 {
		return &types.ErrAccountNotFound{Id: id}
	}
	return nil
}

// DeleteAccount removes an account; folders, messages and jobs cascade
func (b *SQLBackend) DeleteAccount(ctx context.Context, id string) error {
	n, err := b.exec(ctx, `DELETE FROM email_accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if n == 0 {
		return &types.ErrAccountNotFound{Id: id}
	}
	return nil
}

func (b *SQLBackend) openSecrets(account *types.Account) error {
	var err error
	if account.IMAPSecret, err = b.secrets.Open(account.IMAPSecret); err != nil {
		return fmt.Errorf("failed to open imap secret for account %s: %w", account.Id, err)
	}
	if account.SMTPSecret, err = b.secrets.Open(account.SMTPSecret); err != nil {
		return fmt.Errorf("failed to open smtp secret for account %s: %w", account.Id, err)
	}
	return nil
}
