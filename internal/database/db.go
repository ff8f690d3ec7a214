// Package database is the sqlite-backed capsule record store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const defaultDBTimeout = 5 * time.Second

// Database wraps a sqlite connection pool.
type Database struct {
	DB     *sql.DB
	dbFile string
	now    func() time.Time
}

// Open opens (creating if needed) the sqlite file at path and applies the
// schema.
func Open(ctx context.Context, path string) (*Database, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	d := &Database{DB: db, dbFile: path, now: time.Now}
	if err := d.DB.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, &OpError{Op: "open", Resource: "database", Err: err}
	}
	if err := d.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the connection pool.
func (d *Database) Close() error {
	if d == nil || d.DB == nil {
		return nil
	}
	return d.DB.Close()
}

// Path is the sqlite file backing d.
func (d *Database) Path() string {
	return d.dbFile
}

func (d *Database) createTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS capsules (
			id TEXT PRIMARY KEY,
			sender TEXT NOT NULL,
			message TEXT NOT NULL,
			open_date TEXT NOT NULL,
			use_password_key INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS capsule_recipients (
			capsule_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			phone TEXT,
			PRIMARY KEY (capsule_id, position),
			FOREIGN KEY(capsule_id) REFERENCES capsules(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
	}
	for _, q := range queries {
		if _, err := d.DB.ExecContext(ctx, q); err != nil {
			return &OpError{Op: "create", Resource: "schema", Err: err}
		}
	}
	return nil
}

// migrate applies additive column changes for databases created by older
// builds. Each statement is safe to repeat.
func (d *Database) migrate(ctx context.Context) error {
	stmts := []string{
		"ALTER TABLE capsules ADD COLUMN sender_phone TEXT",
		"ALTER TABLE capsules ADD COLUMN open_at INTEGER",
		"CREATE INDEX IF NOT EXISTS idx_capsules_open_at ON capsules(open_at)",
	}
	for _, stmt := range stmts {
		if _, err := d.DB.ExecContext(ctx, stmt); err != nil && !isIgnorableMigrationErr(err) {
			return &OpError{Op: "migrate", Resource: "schema", Err: err}
		}
	}
	return nil
}

func isIgnorableMigrationErr(err error) bool {
	if err == nil {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}

func (d *Database) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// WithTx runs fn inside a transaction, rolling back when fn fails.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
