package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cardgate/internal/tenant/models"
)

// Postgres reads tenant configs from the master directory database.
// Only active tenants are visible; the lookup fails closed for everything else.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a directory over the master database pool.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// FindByCUIT retrieves the active tenant config for a CUIT.
// Column names follow the legacy clientes table carried over from the
// previous system.
func (s *Postgres) FindByCUIT(ctx context.Context, cuit string) (*models.TenantConfig, error) {
	query := `
		SELECT id, cuit, cliente, server, data_base, user_db, pass_udb, driver_odbc, token_acceso, activo
		FROM clientes
		WHERE cuit = $1 AND activo
	`
	var cfg models.TenantConfig
	err := s.db.QueryRowContext(ctx, query, cuit).Scan(
		&cfg.ID,
		&cfg.CUIT,
		&cfg.Name,
		&cfg.DBHost,
		&cfg.DBName,
		&cfg.DBUser,
		&cfg.DBPassword,
		&cfg.Driver,
		&cfg.AccessToken,
		&cfg.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("tenant %s: %w", cuit, ErrNotFound)
		}
		return nil, fmt.Errorf("find tenant by cuit: %w", err)
	}
	return &cfg, nil
}
