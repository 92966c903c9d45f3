// Package blobstore keeps encoded backup payloads, addressed by storage key.
// Backup metadata stays in Postgres; only the payload bytes live here.
package blobstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	// Get returns common.ErrNotFound for an unknown key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewStorageKey returns a fresh key of the form
// backups/<user>/<yyyy>/<mm>/<dd>/<uuid>.
func NewStorageKey(userID string, now time.Time) string {
	d := now.UTC()
	return fmt.Sprintf("backups/%s/%04d/%02d/%02d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}
