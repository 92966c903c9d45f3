package backups

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/homekeeper/internal/common"
	"github.com/dmitrijs2005/homekeeper/internal/dbx"
	"github.com/dmitrijs2005/homekeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, b *models.Backup) error {
	query := `
		INSERT INTO backups (id, user_id, storage_key, size, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query, b.ID, b.UserID, b.StorageKey, b.Size, b.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetLatest(ctx context.Context, userID, backupID string) error {
	query := `
		INSERT INTO latest_backups (user_id, backup_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET backup_id = EXCLUDED.backup_id
	`
	if _, err := r.db.ExecContext(ctx, query, userID, backupID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Backup, error) {
	query := `
		SELECT id, user_id, storage_key, size, created_at
		FROM backups
		WHERE id = $1
	`
	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Latest(ctx context.Context, userID string) (*models.Backup, error) {
	query := `
		SELECT b.id, b.user_id, b.storage_key, b.size, b.created_at
		FROM latest_backups l
		JOIN backups b ON b.id = l.backup_id
		WHERE l.user_id = $1
	`
	return scanOne(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) List(ctx context.Context, userID string, limit int) ([]models.Backup, error) {
	query := `
		SELECT id, user_id, storage_key, size, created_at
		FROM backups
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Backup, 0, limit)
	for rows.Next() {
		var b models.Backup
		if err := rows.Scan(&b.ID, &b.UserID, &b.StorageKey, &b.Size, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Prune(ctx context.Context, userID string, keep int) ([]string, error) {
	query := `
		DELETE FROM backups
		WHERE user_id = $1
		  AND id NOT IN (
			SELECT id FROM backups
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		  )
		RETURNING storage_key
	`
	rows, err := r.db.QueryContext(ctx, query, userID, keep)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return keys, nil
}

func scanOne(row *sql.Row) (*models.Backup, error) {
	b := &models.Backup{}
	if err := row.Scan(&b.ID, &b.UserID, &b.StorageKey, &b.Size, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return b, nil
}
