package client

import (
	"context"

	"github.com/dmitrijs2005/homekeeper/internal/client/models"
)

// Client is the transport to the backup server. Implementations keep the
// session tokens of the last successful Login.
type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Register(ctx context.Context, email, displayName string, salt []byte, verifier []byte) (*models.Identity, error)
	GetSalt(ctx context.Context, email string) ([]byte, error)
	Login(ctx context.Context, email string, verifier []byte) (*models.Identity, error)
	Logout(ctx context.Context) error
	HasSession() bool
	PushBackup(ctx context.Context, data string) (*models.BackupInfo, error)
	GetLatestBackup(ctx context.Context) (*models.BackupEntry, error)
	GetBackup(ctx context.Context, id string) (*models.BackupEntry, error)
	ListBackups(ctx context.Context, limit int) ([]models.BackupInfo, error)
}
