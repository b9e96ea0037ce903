package models

import (
	"fmt"
	"net/url"
)

// TenantConfig is one tenant's record in the master directory: routing data
// for its own database plus the tenant-level access token every caller must
// present. The directory store owns and mutates it; the gateway only reads.
// At most one active config exists per CUIT.
type TenantConfig struct {
	ID          int64
	CUIT        string
	Name        string
	DBHost      string
	DBName      string
	DBUser      string
	DBPassword  string
	Driver      string
	AccessToken string
	Active      bool
}

// DSN builds the connection string for the tenant's database.
func (c *TenantConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		url.QueryEscape(c.DBUser),
		url.QueryEscape(c.DBPassword),
		c.DBHost,
		url.PathEscape(c.DBName),
	)
}

// ResolvedTenant is the per-request outcome of tenant resolution: enough for
// the business handler to open a connection to the tenant's database, and
// nothing more. It is created fresh per request and never persisted.
type ResolvedTenant struct {
	CUIT     string
	Database string
	DSN      string
}
