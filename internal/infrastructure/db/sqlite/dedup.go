package sqlite

import (
	"context"
	"database/sql"
)

// BatchDedup answers whether an import batch key has already been committed.
// Keys are written by InsertBatch in the same transaction as the entries.
type BatchDedup struct {
	db *sql.DB
}

func NewBatchDedup(db *sql.DB) *BatchDedup {
	return &BatchDedup{db: db}
}

func (d *BatchDedup) IsDuplicate(ctx context.Context, key string) (bool, error) {
	var exists int
	err := d.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM import_batches WHERE key = ?)", key).Scan(&exists)
	if err != nil {
		return false, storageErr("check batch key", err)
	}
	return exists == 1, nil
}
