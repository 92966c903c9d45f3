package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dmitrijs2005/homekeeper/internal/common"
	"github.com/dmitrijs2005/homekeeper/internal/dbx"
)

type SQLiteRepository struct {
	db    dbx.DBTX
	quota int64
}

// NewSQLiteRepository returns a repository over db limited to quota bytes
// (0 disables the limit).
func NewSQLiteRepository(db dbx.DBTX, quota int64) *SQLiteRepository {
	return &SQLiteRepository{db: db, quota: quota}
}

func (r *SQLiteRepository) Quota() int64 {
	return r.quota
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get kv[%s]: %w", key, err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	if r.quota > 0 {
		var others int64
		err := r.db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(value)), 0)
			FROM kv WHERE key <> ?
		`, key).Scan(&others)
		if err != nil {
			return fmt.Errorf("failed to set kv[%s]: %w", key, err)
		}
		if used := others + int64(len(key)+len(value)); used > r.quota {
			return fmt.Errorf("failed to set kv[%s]: %d of %d bytes: %w", key, used, r.quota, common.ErrQuotaExceeded)
		}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		if isDiskFull(err) {
			return fmt.Errorf("failed to set kv[%s]: %w", key, errors.Join(common.ErrQuotaExceeded, err))
		}
		return fmt.Errorf("failed to set kv[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete kv[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv`)
	if err != nil {
		return fmt.Errorf("failed to clear kv: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Usage(ctx context.Context) (int64, error) {
	var used int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(LENGTH(CAST(key AS BLOB)) + LENGTH(value)), 0) FROM kv`).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("failed to compute kv usage: %w", err)
	}
	return used, nil
}

func isDiskFull(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_FULL
	}
	return false
}
