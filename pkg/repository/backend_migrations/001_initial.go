package backend_migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upInitial, downInitial)
}

// Statements stay within the SQL shared by Postgres and SQLite.
func upInitial(tx *sql.Tx) error {
	createStatements := []string{
		`CREATE TABLE IF NOT EXISTS email_accounts (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			provider VARCHAR(64) NOT NULL DEFAULT '',
			email VARCHAR(320) NOT NULL,
			auth_type VARCHAR(16) NOT NULL,
			imap_host VARCHAR(255) NOT NULL DEFAULT '',
			imap_port INTEGER NOT NULL DEFAULT 0,
			imap_username VARCHAR(320) NOT NULL DEFAULT '',
			imap_secret TEXT NOT NULL DEFAULT '',
			smtp_host VARCHAR(255) NOT NULL DEFAULT '',
			smtp_port INTEGER NOT NULL DEFAULT 0,
			smtp_username VARCHAR(320) NOT NULL DEFAULT '',
			smtp_secret TEXT NOT NULL DEFAULT '',
			sync_interval INTEGER NOT NULL DEFAULT 15,
			last_synced TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS email_folders (
			id VARCHAR(64) PRIMARY KEY,
			account_id VARCHAR(64) NOT NULL REFERENCES email_accounts(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			path VARCHAR(1024) NOT NULL,
			remote_name VARCHAR(1024) NOT NULL DEFAULT '',
			type VARCHAR(16) NOT NULL DEFAULT 'custom',
			message_count INTEGER,
			unread_count INTEGER,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (account_id, path)
		);`,

		`CREATE TABLE IF NOT EXISTS emails (
			id VARCHAR(64) PRIMARY KEY,
			account_id VARCHAR(64) NOT NULL REFERENCES email_accounts(id) ON DELETE CASCADE,
			folder_id VARCHAR(64) REFERENCES email_folders(id) ON DELETE SET NULL,
			external_id VARCHAR(1024) NOT NULL UNIQUE,
			subject TEXT NOT NULL DEFAULT '',
			from_address VARCHAR(320) NOT NULL DEFAULT '',
			from_name VARCHAR(255) NOT NULL DEFAULT '',
			date TIMESTAMP NOT NULL,
			preview TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			is_read BOOLEAN,
			is_flagged BOOLEAN,
			status VARCHAR(16) NOT NULL DEFAULT 'inbox',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS sync_jobs (
			id VARCHAR(64) PRIMARY KEY,
			type VARCHAR(32) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			account_id VARCHAR(64) REFERENCES email_accounts(id) ON DELETE CASCADE,
			schedule VARCHAR(64) NOT NULL DEFAULT '',
			next_run_at TIMESTAMP,
			error TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL,
			started_at TIMESTAMP,
			finished_at TIMESTAMP
		);`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_email_accounts_user_id ON email_accounts(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_emails_account_folder ON emails(account_id, folder_id);`,
		`CREATE INDEX IF NOT EXISTS idx_emails_date ON emails(date DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_sync_jobs_due ON sync_jobs(type, status, created_at);`,
	}

	for _, stmt := range createStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func downInitial(tx *sql.Tx) error {
	dropStatements := []string{
		"DROP TABLE IF EXISTS sync_jobs;",
		"DROP TABLE IF EXISTS emails;",
		"DROP TABLE IF EXISTS email_folders;",
		"DROP TABLE IF EXISTS email_accounts;",
	}

	for _, stmt := range dropStatements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
