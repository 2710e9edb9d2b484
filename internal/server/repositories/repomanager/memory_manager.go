package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/tact0/internal/server/repositories/users"
)

// MemoryRepositoryManager serves a single in-memory users repository.
// Transactions are emulated by serializing InTx callers; a failed fn does
// not undo the writes it already made.
type MemoryRepositoryManager struct {
	mu    sync.Mutex
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, repo users.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.users)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
