package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/homekeeper/internal/common"
	"github.com/dmitrijs2005/homekeeper/internal/dbx"
	"github.com/dmitrijs2005/homekeeper/internal/logging"
	"github.com/dmitrijs2005/homekeeper/internal/server/blobstore"
	"github.com/dmitrijs2005/homekeeper/internal/server/config"
	"github.com/dmitrijs2005/homekeeper/internal/server/models"
	"github.com/dmitrijs2005/homekeeper/internal/server/repositories/repomanager"
)

// BackupService keeps each user's snapshot history. Rows live in Postgres,
// payloads in a blobstore.Store. Every push moves the user's latest pointer
// and prunes history down to the configured limit.
type BackupService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	blobs        blobstore.Store
	historyLimit int
	maxPayload   int
	log          logging.Logger
	now          func() time.Time
	newID        func() string
}

func NewBackupService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, cfg *config.Config, log logging.Logger) *BackupService {
	return &BackupService{
		db:           db,
		repomanager:  m,
		blobs:        blobs,
		historyLimit: cfg.HistoryLimit,
		maxPayload:   cfg.MaxPayloadBytes,
		log:          log.With("module", "backups"),
		now:          time.Now,
		newID:        func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Push stores data as the user's newest backup.
func (s *BackupService) Push(ctx context.Context, userID, data string) (*models.Backup, error) {
	if data == "" {
		return nil, fmt.Errorf("%w: empty backup", common.ErrValidation)
	}
	if s.maxPayload > 0 && len(data) > s.maxPayload {
		return nil, fmt.Errorf("%w: backup of %d bytes exceeds %d", common.ErrValidation, len(data), s.maxPayload)
	}

	now := s.now().UTC()
	b := &models.Backup{
		ID:         s.newID(),
		UserID:     userID,
		StorageKey: blobstore.NewStorageKey(userID, now),
		Size:       int64(len(data)),
		CreatedAt:  now,
	}

	if err := s.blobs.Put(ctx, b.StorageKey, []byte(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	var pruned []string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Backups(tx)
		if err := repo.Create(ctx, b); err != nil {
			return err
		}
		if err := repo.SetLatest(ctx, userID, b.ID); err != nil {
			return err
		}
		if s.historyLimit > 0 {
			keys, err := repo.Prune(ctx, userID, s.historyLimit)
			if err != nil {
				return err
			}
			pruned = keys
		}
		return nil
	})
	if err != nil {
		s.deleteBlobs(ctx, b.StorageKey)
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	s.deleteBlobs(ctx, pruned...)
	s.log.Info(ctx, "backup stored", "user", userID, "id", b.ID, "size", b.Size, "pruned", len(pruned))
	return b, nil
}

// Latest returns the newest backup of userID with its payload.
func (s *BackupService) Latest(ctx context.Context, userID string) (*models.Backup, string, error) {
	b, err := s.repomanager.Backups(s.db).Latest(ctx, userID)
	if err != nil {
		return nil, "", s.lookupError(err)
	}
	return s.withPayload(ctx, b)
}

// Get returns the backup with the given id. A backup owned by someone else
// yields common.ErrForbidden.
func (s *BackupService) Get(ctx context.Context, userID, id string) (*models.Backup, string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, "", fmt.Errorf("backup %q: %w", id, common.ErrNotFound)
	}

	b, err := s.repomanager.Backups(s.db).Get(ctx, id)
	if err != nil {
		return nil, "", s.lookupError(err)
	}
	if b.UserID != userID {
		s.log.Warn(ctx, "cross-account backup access refused", "user", userID, "id", id)
		return nil, "", fmt.Errorf("backup %s: %w", id, common.ErrForbidden)
	}
	return s.withPayload(ctx, b)
}

// List returns up to limit backups, most recent first. Limits outside
// 1..historyLimit are clamped.
func (s *BackupService) List(ctx context.Context, userID string, limit int) ([]models.Backup, error) {
	if limit <= 0 || (s.historyLimit > 0 && limit > s.historyLimit) {
		limit = s.historyLimit
	}
	if limit <= 0 {
		return []models.Backup{}, nil
	}

	items, err := s.repomanager.Backups(s.db).List(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	return items, nil
}

func (s *BackupService) withPayload(ctx context.Context, b *models.Backup) (*models.Backup, string, error) {
	data, err := s.blobs.Get(ctx, b.StorageKey)
	if err != nil {
		s.log.Error(ctx, "backup payload unavailable", "id", b.ID, "key", b.StorageKey, "error", err)
		return nil, "", fmt.Errorf("%w: payload of %s: %v", common.ErrInternal, b.ID, err)
	}
	return b, string(data), nil
}

func (s *BackupService) lookupError(err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", common.ErrInternal, err)
}

// deleteBlobs logs and skips failures.
func (s *BackupService) deleteBlobs(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.log.Warn(ctx, "could not delete backup payload", "key", key, "error", err)
		}
	}
}
