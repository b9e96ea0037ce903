package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	LoginsTotal       prometheus.Counter
	AuthFailures      prometheus.Counter
	LockoutRejections prometheus.Counter
	TenantResolutions *prometheus.CounterVec
	RelaxedLegacyHash prometheus.Counter
	TokensIssued      prometheus.Counter
	TokenValidations  *prometheus.CounterVec
	PurchasesRecorded prometheus.Counter
	EndpointLatency   *prometheus.HistogramVec
	TenantCacheHits   prometheus.Counter
	TenantCacheMisses prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		LoginsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_logins_total",
			Help: "Total number of successful interactive logins",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_auth_failures_total",
			Help: "Total number of failed authentication attempts",
		}),
		LockoutRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_lockout_rejections_total",
			Help: "Total number of logins rejected because the account was locked",
		}),
		TenantResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cardgate_tenant_resolutions_total",
			Help: "Tenant resolution attempts, labeled by outcome",
		}, []string{"outcome"}),
		RelaxedLegacyHash: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_relaxed_legacy_hash_total",
			Help: "Legacy V2 password hashes accepted with a truncated derived key",
		}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_tokens_issued_total",
			Help: "Total number of session tokens issued",
		}),
		TokenValidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cardgate_token_validations_total",
			Help: "Session token validations, labeled by outcome",
		}, []string{"outcome"}),
		PurchasesRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_purchases_recorded_total",
			Help: "Total number of purchases recorded through the stored procedure",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cardgate_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		TenantCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_tenant_cache_hits_total",
			Help: "Tenant directory cache hits",
		}),
		TenantCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_tenant_cache_misses_total",
			Help: "Tenant directory cache misses",
		}),
	}
}
