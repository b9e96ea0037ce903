// Package store provides access to the master tenant directory.
package store

import (
	"context"

	"cardgate/internal/sentinel"
	"cardgate/internal/tenant/models"
)

// ErrNotFound is returned when no active tenant exists for a CUIT.
var ErrNotFound = sentinel.ErrNotFound

// Directory looks up tenant configs by CUIT.
// Error contract: FindByCUIT returns ErrNotFound (optionally wrapped) when
// the tenant is absent or inactive; any other error means the directory
// itself is unavailable.
type Directory interface {
	FindByCUIT(ctx context.Context, cuit string) (*models.TenantConfig, error)
}
