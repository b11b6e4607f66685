package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dirPermissions  = 0750
	filePermissions = 0600

	openPingTimeout = 5 * time.Second
	connMaxIdle     = 30 * time.Minute
)

// DB wraps the sql.DB handle for the SQLite store and carries the file path
// for diagnostics. Migrations and health checks hang off this type.
type DB struct {
	*sql.DB
	path string
}

// Config is the database section of the application config.
type Config struct {
	// Path to the SQLite file. The parent directory is created on open.
	Path string

	// WALMode switches the journal to write-ahead logging so reads do not
	// block behind a writer.
	WALMode bool

	// BusyTimeout is how long, in seconds, a statement waits on a locked
	// database before failing.
	BusyTimeout int
}

// Open connects to the SQLite file, applying the busy timeout, foreign key
// enforcement, and optional WAL pragmas through the DSN. Foreign keys are
// required here: task ownership and the student-teacher link both reference
// the users table. The connection is verified with a ping before returning.
func Open(cfg Config) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_foreign_keys=on",
		cfg.Path, cfg.BusyTimeout*1000)
	if cfg.WALMode {
		dsn += "&_journal_mode=WAL&_synchronous=NORMAL"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite has a single writer. One connection makes handlers queue on the
	// busy timeout instead of racing the pool.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(connMaxIdle)

	db := &DB{DB: sqlDB, path: cfg.Path}

	ctx, cancel := context.WithTimeout(context.Background(), openPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		sqlDB.Close() //nolint:errcheck // best effort on the error path
		return nil, fmt.Errorf("verifying database connection: %w", err)
	}

	// The file may not exist until the first write, so a chmod failure here
	// is not an error.
	_ = os.Chmod(cfg.Path, filePermissions)

	return db, nil
}

// Close shuts the connection down. Safe to call on a zero-value DB.
func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Path returns the filesystem path of the SQLite file.
func (db *DB) Path() string {
	return db.path
}

// HealthCheck runs a trivial query to confirm the connection is usable.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// BeginTx starts a transaction. Callers defer tx.Rollback, which becomes a
// no-op once the transaction commits.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}
