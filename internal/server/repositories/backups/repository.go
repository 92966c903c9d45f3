// Package backups stores backup history rows and the per-user pointer to the
// latest backup. Payloads are kept elsewhere, see blobstore.
package backups

import (
	"context"

	"github.com/dmitrijs2005/homekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, b *models.Backup) error
	// SetLatest points userID's latest backup at backupID.
	SetLatest(ctx context.Context, userID, backupID string) error
	// Get returns common.ErrNotFound for an unknown id.
	Get(ctx context.Context, id string) (*models.Backup, error)
	// Latest returns common.ErrNotFound when the user has no backup.
	Latest(ctx context.Context, userID string) (*models.Backup, error)
	// List returns at most limit backups, most recent first.
	List(ctx context.Context, userID string, limit int) ([]models.Backup, error)
	// Prune deletes all but the keep most recent backups of userID and
	// returns the storage keys of the deleted rows.
	Prune(ctx context.Context, userID string, keep int) ([]string, error)
}
