package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. It is built once at startup
// and passed by handle into the services that need it; nothing in the core
// reads the environment after this point.
type Server struct {
	Addr string

	// Master directory database (tenant configs live here).
	DirectoryURL string

	// Session token parameters. The secret is immutable for process lifetime.
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration
	TokenLeeway time.Duration

	// TTL for the in-process tenant config cache; zero disables caching.
	TenantCacheTTL time.Duration
}

const (
	defaultAddr     = ":8080"
	defaultTokenTTL = 60 * time.Minute
	defaultLeeway   = 10 * time.Second
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:         envOr("CARDGATE_ADDR", defaultAddr),
		DirectoryURL: os.Getenv("DIRECTORY_DB_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTIssuer:    envOr("JWT_ISSUER", "cardgate"),
		JWTAudience:  envOr("JWT_AUDIENCE", "cardgate-api"),
		TokenTTL:     defaultTokenTTL,
		TokenLeeway:  defaultLeeway,
	}

	if cfg.JWTSecret == "" {
		// Development fallback; must be overridden in production.
		cfg.JWTSecret = "dev-secret-change-me"
	}

	if minutes := os.Getenv("JWT_EXPIRES_MIN"); minutes != "" {
		if m, err := strconv.Atoi(minutes); err == nil && m > 0 {
			cfg.TokenTTL = time.Duration(m) * time.Minute
		}
	}
	if ttl := os.Getenv("TENANT_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil && d > 0 {
			cfg.TenantCacheTTL = d
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
