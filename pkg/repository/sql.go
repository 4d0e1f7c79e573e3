package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/beam-cloud/mailsync/pkg/common"
	"github.com/beam-cloud/mailsync/pkg/types"

	// Import migrations to register them with goose
	_ "github.com/beam-cloud/mailsync/pkg/repository/backend_migrations"
)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite3"

	// messageFlagsVersion is the first schema version with archived/deleted columns
	messageFlagsVersion int64 = 2
)

// SQLBackend implements BackendRepository on Postgres (remote mode) or
// SQLite (local mode). Queries are written with ? placeholders and rebound
// for the driver.
type SQLBackend struct {
	db      *sqlx.DB
	dialect string
	secrets *common.SecretBox
}

// NewPostgresBackend creates a new Postgres backend
func NewPostgresBackend(cfg types.PostgresConfig, secrets *common.SecretBox) (*SQLBackend, error) {
	// Apply defaults
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.Database == "" {
		cfg.Database = "mailsync"
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// Test connection
	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to postgres")

	return &SQLBackend{db: db, dialect: dialectPostgres, secrets: secrets}, nil
}

// NewSQLiteBackend opens (or creates) a SQLite database at path
func NewSQLiteBackend(cfg types.SQLiteConfig, secrets *common.SecretBox) (*SQLBackend, error) {
	path := cfg.Path
	if path == "" {
		path = "mailsync.db"
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// One writer; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}

	log.Info().Str("path", path).Msg("opened sqlite store")

	return &SQLBackend{db: db, dialect: dialectSQLite, secrets: secrets}, nil
}

// DB returns the underlying database connection
func (b *SQLBackend) DB() *sqlx.DB {
	return b.db
}

// Close closes the database connection
func (b *SQLBackend) Close() error {
	return b.db.Close()
}

// Ping checks the database connection
func (b *SQLBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

// RunMigrations runs database migrations using goose
func (b *SQLBackend) RunMigrations() error {
	return b.migrate(func() error { return goose.Up(b.db.DB, ".") })
}

// RunMigrationsTo migrates up to and including version
func (b *SQLBackend) RunMigrationsTo(version int64) error {
	return b.migrate(func() error { return goose.UpTo(b.db.DB, ".", version) })
}

func (b *SQLBackend) migrate(up func() error) error {
	if err := goose.SetDialect(b.dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	// Run migrations (goose uses registered migrations from init())
	if err := up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(b.db.DB)
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	log.Info().Int64("version", version).Str("dialect", b.dialect).Msg("migrations complete")
	return nil
}

// Capabilities derives the optional field set from the applied schema version
func (b *SQLBackend) Capabilities(ctx context.Context) (types.StoreCapabilities, error) {
	var version int64
	err := b.db.GetContext(ctx, &version, b.db.Rebind(
		`SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version WHERE is_applied = ?`), true)
	if err != nil {
		return types.StoreCapabilities{}, fmt.Errorf("failed to read schema version: %w", err)
	}

	return types.StoreCapabilities{
		SchemaVersion: version,
		MessageFlags:  version >= messageFlagsVersion,
	}, nil
}

// exec runs a write and returns rows affected
func (b *SQLBackend) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := b.db.ExecContext(ctx, b.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}
