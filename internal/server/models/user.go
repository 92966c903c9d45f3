// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID          string
	Email       string
	DisplayName string
	Salt        []byte
	Verifier    []byte
	CreatedAt   time.Time
}
