// Package users declares and implements storage of backup service accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/homekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in its id and creation time. An email
	// that is already registered yields common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
