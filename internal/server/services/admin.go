package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tact0/internal/common"
	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/models"
	"github.com/dmitrijs2005/tact0/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tact0/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// AdminService backs the operator tooling. It is never reachable over HTTP.
type AdminService struct {
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
	newID       func() string
}

func NewAdminService(rm repomanager.RepositoryManager, logger logging.Logger) *AdminService {
	return &AdminService{repomanager: rm, logger: logger, newID: uuid.NewString}
}

// EnsureAdmin makes email an ADMIN account. A missing account is created with
// password; an existing one is promoted and its password left untouched.
// created reports which of the two happened.
func (s *AdminService) EnsureAdmin(ctx context.Context, email, password string) (u *models.User, created bool, err error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, false, err
	}

	err = s.repomanager.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		existing, err := repo.GetByEmail(ctx, email)
		if err == nil {
			if err := repo.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return err
			}
			existing.Role = models.RoleAdmin
			u = existing
			return nil
		}
		if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
		if err != nil {
			return err
		}
		u, err = repo.Create(ctx, &models.User{
			ID:           s.newID(),
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
		})
		created = err == nil
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("ensure admin: %w", err)
	}

	s.logger.Info(ctx, "admin account ensured", "user_id", u.ID, "created", created)
	return u, created, nil
}

// SetRole changes the role of the account registered under email.
func (s *AdminService) SetRole(ctx context.Context, email string, role models.Role) error {
	if !role.Valid() {
		return common.ErrValidation
	}
	return s.repomanager.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		u, err := repo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		return repo.SetRole(ctx, u.ID, role)
	})
}

// Delete removes the account registered under email. Outstanding tokens for
// it resolve to anonymous from the next request on.
func (s *AdminService) Delete(ctx context.Context, email string) error {
	return s.repomanager.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		u, err := repo.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		return repo.Delete(ctx, u.ID)
	})
}
