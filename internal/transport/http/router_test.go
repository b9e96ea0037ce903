package httptransport

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authhandler "cardgate/internal/auth/handler"
	authservice "cardgate/internal/auth/service"
	authstore "cardgate/internal/auth/store"
	"cardgate/internal/catalog"
	"cardgate/internal/installments"
	"cardgate/internal/passwordhash"
	"cardgate/internal/platform/health"
	"cardgate/internal/purchase"
	"cardgate/internal/tenant"
	tenantmodels "cardgate/internal/tenant/models"
	tenantstore "cardgate/internal/tenant/store"
	"cardgate/internal/token"
)

func newTestDeps(t *testing.T) Deps {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	directory := tenantstore.NewInMemory()
	directory.Put(&tenantmodels.TenantConfig{
		CUIT:        "20-12345678-9",
		Name:        "Tarjeta Centro",
		AccessToken: "T1",
		Active:      true,
	})
	resolver, err := tenant.NewResolver(directory)
	require.NoError(t, err)

	codec := token.New("test-secret", "cardgate", "cardgate-api", time.Hour)
	svc, err := authservice.New(passwordhash.New(), codec)
	require.NoError(t, err)
	auth, err := authhandler.New(svc, &authhandler.StaticOpener{Users: authstore.NewInMemory()}, log)
	require.NoError(t, err)

	cat, err := catalog.NewHandler(&catalog.StaticOpener{Store: catalog.NewMemory()}, log)
	require.NoError(t, err)

	// Purchase handler is exercised in its own package; the router test only
	// needs the role gate in front of it.
	purchases := newPurchaseHandler(t, log)

	return Deps{
		Logger:       log,
		Resolver:     resolver,
		Sessions:     codec,
		Auth:         auth,
		Installments: installments.NewHandler(log),
		Catalog:      cat,
		Purchases:    purchases,
		Health:       health.New(),
	}
}

func newPurchaseHandler(t *testing.T, log *slog.Logger) *purchase.Handler {
	t.Helper()
	h, err := purchase.NewHandler(purchase.NewService(),
		&purchase.StaticOpener{Store: purchase.NewMemory()}, log)
	require.NoError(t, err)
	return h
}

func issueFor(codec *token.Codec, roles []string) (string, error) {
	return codec.Issue("u-1001", "alice", roles, "20-12345678-9")
}

func TestRouterOpenEndpoints(t *testing.T) {
	router := NewRouter(newTestDeps(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/calcular_cuotas?monto=1000&tasa_interes_mensual=5&cuotas=12", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterTenantGate(t *testing.T) {
	router := NewRouter(newTestDeps(t))

	// No tenant headers at all.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"x","password":"y"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Catalog needs both the tenant headers and a session.
	req := httptest.NewRequest(http.MethodGet, "/estados", nil)
	req.Header.Set(tenant.HeaderCUIT, "20-12345678-9")
	req.Header.Set(tenant.HeaderToken, "T1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterRoleGate(t *testing.T) {
	deps := newTestDeps(t)
	router := NewRouter(deps)

	codec := deps.Sessions.(*token.Codec)
	validate := func(roles []string) int {
		tok, err := issueFor(codec, roles)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/grabar_compra",
			strings.NewReader(`{"idcomercio":1,"idtarjeta":2,"importe":10,"idplan":3,"fecha":"2025-03-14T10:30:00Z"}`))
		req.Header.Set(tenant.HeaderCUIT, "20-12345678-9")
		req.Header.Set(tenant.HeaderToken, "T1")
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, validate([]string{"Cliente"}))
	assert.Equal(t, http.StatusOK, validate([]string{"Comercio"}))
}
