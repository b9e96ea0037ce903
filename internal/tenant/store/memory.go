package store

import (
	"context"
	"fmt"
	"sync"

	"cardgate/internal/tenant/models"
)

// InMemory stores tenant configs in memory for tests and local wiring.
type InMemory struct {
	mu      sync.RWMutex
	tenants map[string]*models.TenantConfig
}

// NewInMemory creates an in-memory tenant directory.
func NewInMemory() *InMemory {
	return &InMemory{tenants: make(map[string]*models.TenantConfig)}
}

// Put registers or replaces a tenant config, keyed by CUIT.
func (s *InMemory) Put(cfg *models.TenantConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[cfg.CUIT] = cfg
}

// FindByCUIT retrieves the active tenant config for a CUIT.
// Inactive tenants are reported exactly like missing ones.
func (s *InMemory) FindByCUIT(_ context.Context, cuit string) (*models.TenantConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.tenants[cuit]
	if !ok || !cfg.Active {
		return nil, fmt.Errorf("tenant %s: %w", cuit, ErrNotFound)
	}
	out := *cfg
	return &out, nil
}
