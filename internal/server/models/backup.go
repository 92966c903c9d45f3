package models

import "time"

// Backup describes one stored snapshot. The encoded payload itself lives in
// the blob store under StorageKey.
type Backup struct {
	ID         string
	UserID     string
	StorageKey string
	Size       int64
	CreatedAt  time.Time
}
