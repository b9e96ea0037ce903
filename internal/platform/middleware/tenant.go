package middleware

import (
	"context"
	"net/http"

	"cardgate/internal/tenant"
	"cardgate/internal/tenant/models"
	"cardgate/internal/transport/httputil"
)

// TenantResolver authenticates the tenant-level caller from request headers.
type TenantResolver interface {
	Resolve(ctx context.Context, cuit, clientToken string) (*models.ResolvedTenant, error)
}

type tenantKey struct{}

// GetTenant retrieves the resolved tenant from the context.
// Returns nil outside a RequireTenant-guarded handler.
func GetTenant(ctx context.Context) *models.ResolvedTenant {
	resolved, _ := ctx.Value(tenantKey{}).(*models.ResolvedTenant)
	return resolved
}

// WithTenant stores a resolved tenant in the context. Handler tests use it in
// place of the full RequireTenant chain.
func WithTenant(ctx context.Context, resolved *models.ResolvedTenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, resolved)
}

// RequireTenant gates every tenant-scoped route: it reads the tenant headers,
// resolves and authenticates the tenant, and stores the descriptor in the
// request context. It must run before session validation.
func RequireTenant(resolver TenantResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved, err := resolver.Resolve(r.Context(),
				r.Header.Get(tenant.HeaderCUIT),
				r.Header.Get(tenant.HeaderToken),
			)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), tenantKey{}, resolved)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
