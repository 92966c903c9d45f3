package models

import "time"

// Identity is the authenticated principal.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// BackupInfo describes one entry of the remote history.
type BackupInfo struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Size      int64     `json:"size"`
}

// PushReceipt is returned by a successful push.
type PushReceipt struct {
	ID               string
	Timestamp        time.Time
	CompressionRatio float64
}

// BackupEntry is a remote backup as fetched for restore.
type BackupEntry struct {
	ID        string
	Owner     string
	Timestamp time.Time
	Data      string
}
