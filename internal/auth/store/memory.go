package store

import (
	"context"
	"sync"

	"cardgate/internal/auth/models"
)

// InMemory holds users and role assignments in process memory. It backs
// handler tests where a tenant database is not available.
type InMemory struct {
	mu    sync.RWMutex
	users map[string]models.User // keyed by username
	roles map[string][]string    // keyed by user ID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users: make(map[string]models.User),
		roles: make(map[string][]string),
	}
}

func (m *InMemory) Put(u models.User, roles ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.UserName] = u
	m.roles[u.ID] = append([]string(nil), roles...)
}

func (m *InMemory) FindByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrNotFound
	}
	copied := u
	return &copied, nil
}

func (m *InMemory) RolesByUserID(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.roles[userID]...), nil
}
