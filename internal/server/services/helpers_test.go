package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/tact0/internal/server/auth"
	"github.com/dmitrijs2005/tact0/internal/server/models"
	"github.com/dmitrijs2005/tact0/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

func newCodec(t *testing.T) *auth.Codec {
	t.Helper()
	c, err := auth.NewCodec([]byte("test-secret"), time.Hour)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

// fakeUsersRepo delegates to an in-memory repository unless an error is set
// for the operation.
type fakeUsersRepo struct {
	inner *users.MemoryRepository

	createErr  error
	getByEmail error
	getByID    error

	creates int
	lookups int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{inner: users.NewMemoryRepository()}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.creates++
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.inner.Create(ctx, u)
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.lookups++
	if f.getByEmail != nil {
		return nil, f.getByEmail
	}
	return f.inner.GetByEmail(ctx, email)
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getByID != nil {
		return nil, f.getByID
	}
	return f.inner.GetByID(ctx, id)
}

func (f *fakeUsersRepo) SetRole(ctx context.Context, id string, role models.Role) error {
	return f.inner.SetRole(ctx, id, role)
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	return f.inner.Delete(ctx, id)
}

type fakeRepoManager struct {
	u     *fakeUsersRepo
	txErr error
	txs   int
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsersRepo()}
}

func (m *fakeRepoManager) RunMigrations(context.Context) error { return nil }
func (m *fakeRepoManager) Users() users.Repository             { return m.u }
func (m *fakeRepoManager) Close() error                        { return nil }

func (m *fakeRepoManager) InTx(ctx context.Context, fn func(context.Context, users.Repository) error) error {
	m.txs++
	if m.txErr != nil {
		return m.txErr
	}
	return fn(ctx, m.u)
}
