package repomanager

import (
	"context"

	"github.com/dmitrijs2005/tact0/internal/logging"
	"github.com/dmitrijs2005/tact0/internal/server/repositories/users"
)

// RepositoryManager hands out the credential store and owns its lifecycle.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	// InTx runs fn against a users.Repository bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error
	Close() error
}

// New selects the backend for dsn. An empty dsn yields the in-memory store,
// which loses every account on restart.
func New(ctx context.Context, dsn string, logger logging.Logger) (RepositoryManager, error) {
	if dsn == "" {
		logger.Warn(ctx, "no database configured, using in-memory credential store")
		return NewMemoryRepositoryManager(), nil
	}

	db, err := openPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresRepositoryManager(db), nil
}
