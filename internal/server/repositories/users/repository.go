// Package users is the credential store: accounts keyed by id with a
// unique email.
package users

import (
	"context"

	"github.com/dmitrijs2005/tact0/internal/server/models"
)

// Repository persists accounts.
//
// Create reports common.ErrAlreadyExists when the email is taken; this is
// the authoritative uniqueness check. Lookups report common.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetRole(ctx context.Context, id string, role models.Role) error
	Delete(ctx context.Context, id string) error
}
