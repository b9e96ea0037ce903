// Package tenant resolves incoming requests to exactly one tenant. The
// resolver is the outer gate: it must pass before session validation and any
// tenant-scoped business logic, because the session token's tenant claim is
// only meaningful once the caller has proven it speaks for that tenant.
package tenant

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"cardgate/internal/audit"
	"cardgate/internal/platform/metrics"
	"cardgate/internal/platform/tracer"
	"cardgate/internal/sentinel"
	"cardgate/internal/tenant/models"
	"cardgate/internal/tenant/store"
	dErrors "cardgate/pkg/domainerrors"
)

// Request headers carried over from the previous system; existing tenant
// integrations depend on these exact names.
const (
	HeaderCUIT  = "CUIT-Cliente"
	HeaderToken = "X-Cliente-Token"
)

// AuditPublisher records tenant-level denials.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Resolver authenticates the tenant-level caller and produces the
// per-request ResolvedTenant descriptor. It holds no mutable state.
type Resolver struct {
	directory store.Directory
	logger    *slog.Logger
	tracer    tracer.Tracer
	metrics   *metrics.Metrics
	audit     AuditPublisher
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = t
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func WithAudit(a AuditPublisher) Option {
	return func(r *Resolver) {
		r.audit = a
	}
}

// NewResolver creates a Resolver over the given directory.
func NewResolver(directory store.Directory, opts ...Option) (*Resolver, error) {
	if directory == nil {
		return nil, fmt.Errorf("tenant directory is required")
	}
	r := &Resolver{directory: directory}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.tracer == nil {
		r.tracer = tracer.NewNoop()
	}
	return r, nil
}

// Resolve checks the tenant headers in order, short-circuiting on the first
// failure: both headers present, tenant registered and active, supplied token
// equal to the stored one. On success it returns a connection descriptor;
// it never opens the connection itself.
func (r *Resolver) Resolve(ctx context.Context, cuit, clientToken string) (result *models.ResolvedTenant, err error) {
	ctx, span := r.tracer.Start(ctx, "tenant.resolve", tracer.String("cuit", cuit))
	defer func() { span.End(err) }()

	if cuit == "" {
		r.countOutcome("missing_header")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing "+HeaderCUIT+" header")
	}
	if clientToken == "" {
		r.countOutcome("missing_header")
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing "+HeaderToken+" header")
	}

	cfg, lookupErr := r.directory.FindByCUIT(ctx, cuit)
	if lookupErr != nil {
		if errors.Is(lookupErr, sentinel.ErrNotFound) {
			r.countOutcome("unknown_tenant")
			return nil, dErrors.New(dErrors.CodeNotFound, "tenant not registered or inactive")
		}
		r.countOutcome("directory_unavailable")
		r.logger.ErrorContext(ctx, "tenant directory lookup failed", "cuit", cuit, "error", lookupErr)
		return nil, dErrors.Wrap(lookupErr, dErrors.CodeUnavailable, "tenant directory unavailable")
	}

	if subtle.ConstantTimeCompare([]byte(clientToken), []byte(cfg.AccessToken)) != 1 {
		r.countOutcome("token_mismatch")
		r.logger.WarnContext(ctx, "tenant token mismatch", "cuit", cuit)
		if r.audit != nil {
			_ = r.audit.Emit(ctx, audit.Event{
				Tenant: cuit,
				Action: audit.ActionTenantDenied,
				Reason: "token mismatch",
			})
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid tenant token")
	}

	r.countOutcome("resolved")
	return &models.ResolvedTenant{
		CUIT:     cfg.CUIT,
		Database: cfg.DBName,
		DSN:      cfg.DSN(),
	}, nil
}

func (r *Resolver) countOutcome(outcome string) {
	if r.metrics != nil {
		r.metrics.TenantResolutions.WithLabelValues(outcome).Inc()
	}
}
