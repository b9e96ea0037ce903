package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cardgate/internal/auth/models"
)

// Column and table names follow the legacy identity schema carried over from
// the tenants' existing databases.
const (
	findUserQuery = `SELECT "Id", "UserName", "Email", "PasswordHash",
		"LockoutEnabled", "LockoutEndDateUtc", "AccessFailedCount"
		FROM "AspNetUsers" WHERE "UserName" = $1`

	userRolesQuery = `SELECT r."Name"
		FROM "AspNetUserRoles" ur
		JOIN "AspNetRoles" r ON r."Id" = ur."RoleId"
		WHERE ur."UserId" = $1
		ORDER BY r."Name"`
)

// SQL reads users from a tenant database handle. The handle is owned by the
// caller; SQL never closes it.
type SQL struct {
	db *sql.DB
}

func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

func (s *SQL) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var (
		u          models.User
		email      sql.NullString
		lockoutEnd sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, findUserQuery, username).Scan(
		&u.ID, &u.UserName, &email, &u.PasswordHash,
		&u.LockoutEnabled, &lockoutEnd, &u.AccessFailedCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user %q: %w", username, err)
	}
	u.Email = email.String
	if lockoutEnd.Valid {
		end := lockoutEnd.Time.UTC()
		u.LockoutEnd = &end
	}
	return &u, nil
}

func (s *SQL) RolesByUserID(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, userRolesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("querying roles for user %s: %w", userID, err)
	}
	defer rows.Close()

	roles := make([]string, 0, 4)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning role row: %w", err)
		}
		roles = append(roles, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating role rows: %w", err)
	}
	return roles, nil
}
