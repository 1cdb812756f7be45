// Package sqlite implements all persistence over a single local SQLite
// file. It is the only package that touches storage; every caller goes
// through the policy-checked services.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/atlasconseil/opsboard/internal/core/domain"
)

const readPoolSize = 4

// Open creates the database file if needed, applies the WAL and foreign-key
// pragmas, and runs migrations.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// WAL supports one writer alongside concurrent readers, so reads must
	// not queue behind each other. Writes serialize on the in-process key
	// lock; residual cross-connection contention is covered by busy_timeout
	// and the transient-error retry.
	db.SetMaxOpenConns(readPoolSize)
	db.SetMaxIdleConns(readPoolSize)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

// storageErr wraps a driver error into the domain taxonomy, flagging lock
// contention as transient so the service layer can retry once.
func storageErr(op string, err error) error {
	return &domain.StorageError{Op: op, Transient: isBusy(err), Err: err}
}

func isBusy(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		code := se.Code()
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

// inTx runs fn inside one transaction, rolling back on any error.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin tx", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit tx", err)
	}
	return nil
}
