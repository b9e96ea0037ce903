package store

import (
	"context"

	"cardgate/internal/auth/models"
	"cardgate/internal/sentinel"
)

// ErrNotFound is returned when no user matches the given username.
var ErrNotFound = sentinel.ErrNotFound

// Users provides read access to the identity tables of one tenant database.
type Users interface {
	// FindByUsername returns the user record, or ErrNotFound.
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// RolesByUserID returns the role names assigned to the user. A user with
	// no roles yields an empty slice, not an error.
	RolesByUserID(ctx context.Context, userID string) ([]string, error)
}
