package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhandler "cardgate/internal/auth/handler"
	"cardgate/internal/catalog"
	"cardgate/internal/installments"
	"cardgate/internal/platform/health"
	"cardgate/internal/platform/metrics"
	"cardgate/internal/platform/middleware"
	"cardgate/internal/purchase"
)

// RoleMerchant is required for recording purchases.
const RoleMerchant = "Comercio"

// Deps carries everything the router needs. All fields except Metrics and
// Health are required.
type Deps struct {
	Logger       *slog.Logger
	Resolver     middleware.TenantResolver
	Sessions     middleware.SessionValidator
	Auth         *authhandler.Handler
	Installments *installments.Handler
	Catalog      *catalog.Handler
	Purchases    *purchase.Handler
	Metrics      *metrics.Metrics
	Health       *health.Handler
}

// NewRouter wires all endpoints with the shared middleware stack. Tenant
// resolution gates everything except quotes, health, and metrics; session
// validation additionally gates the catalog and purchase surfaces.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ContentTypeJSON)
	if d.Metrics != nil {
		r.Use(latency(d.Metrics))
	}

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	// Open: pure calculation over caller-provided numbers.
	d.Installments.Register(r)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant(d.Resolver))

		d.Auth.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(d.Sessions, d.Logger))

			d.Catalog.Register(r)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(RoleMerchant))
				d.Purchases.Register(r)
			})
		})
	})

	return r
}

// latency observes request duration per chi route pattern, so path params
// collapse into one series.
func latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.EndpointLatency.WithLabelValues(pattern).Observe(time.Since(start).Seconds())
		})
	}
}
