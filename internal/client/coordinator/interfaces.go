package coordinator

import (
	"context"
	"time"

	"github.com/dmitrijs2005/homekeeper/internal/client/models"
	"github.com/dmitrijs2005/homekeeper/internal/client/services"
)

// Store is the local snapshot owner, implemented by localstore.Store.
type Store interface {
	Get(ctx context.Context) (*models.Snapshot, error)
	Set(ctx context.Context, snap *models.Snapshot) error
	GetCollection(ctx context.Context, name string) ([]models.Record, error)
	SaveCollection(ctx context.Context, name string, records []models.Record) error
	AddItem(ctx context.Context, name string, rec models.Record) (models.Record, error)
	UpdateItem(ctx context.Context, name, id string, rec models.Record) (bool, error)
	DeleteItem(ctx context.Context, name, id string) (bool, error)
	GetSettings(ctx context.Context) (map[string]any, error)
	SaveSettings(ctx context.Context, settings map[string]any) error
	UpdateLastBackup(ctx context.Context, t time.Time) error
	GetLastBackup(ctx context.Context) (*time.Time, error)
	ClearStorage(ctx context.Context) (*models.Snapshot, error)
}

// Remote is the backup service, implemented by services.RemoteBackupService.
type Remote interface {
	Register(ctx context.Context, email, password, displayName string) services.Result[models.Identity]
	Login(ctx context.Context, email, password string) services.Result[models.Identity]
	Logout(ctx context.Context) services.Result[struct{}]
	Push(ctx context.Context, snap *models.Snapshot) services.Result[models.PushReceipt]
	PullLatest(ctx context.Context) services.Result[*models.Snapshot]
	PullByID(ctx context.Context, backupID string) services.Result[*models.Snapshot]
	History(ctx context.Context, limit int) services.Result[[]models.BackupInfo]
}
