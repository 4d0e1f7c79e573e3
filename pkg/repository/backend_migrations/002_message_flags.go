package backend_migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upMessageFlags, downMessageFlags)
}

// archived/deleted are optional: stores that stop at version 1 import
// messages without them.
func upMessageFlags(tx *sql.Tx) error {
	statements := []string{
		`ALTER TABLE emails ADD COLUMN archived BOOLEAN;`,
		`ALTER TABLE emails ADD COLUMN deleted BOOLEAN;`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func downMessageFlags(tx *sql.Tx) error {
	statements := []string{
		`ALTER TABLE emails DROP COLUMN deleted;`,
		`ALTER TABLE emails DROP COLUMN archived;`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
