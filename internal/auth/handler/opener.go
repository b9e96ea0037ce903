package handler

import (
	"context"
	"fmt"

	"cardgate/internal/auth/store"
	"cardgate/internal/platform/database"
	tenantmodels "cardgate/internal/tenant/models"
)

// SQLOpener dials the tenant database named by the resolved descriptor and
// wraps it in a SQL user store. Each request gets its own handle; connection
// reuse across requests is left to the driver's pool.
type SQLOpener struct{}

func NewSQLOpener() *SQLOpener {
	return &SQLOpener{}
}

func (o *SQLOpener) Open(ctx context.Context, tn *tenantmodels.ResolvedTenant) (store.Users, func() error, error) {
	db, err := database.Open(ctx, tn.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening tenant database %q: %w", tn.Database, err)
	}
	return store.NewSQL(db), db.Close, nil
}

// StaticOpener returns the same user store for every tenant. Tests use it to
// serve logins from an in-memory store.
type StaticOpener struct {
	Users store.Users
}

func (o *StaticOpener) Open(context.Context, *tenantmodels.ResolvedTenant) (store.Users, func() error, error) {
	return o.Users, func() error { return nil }, nil
}
