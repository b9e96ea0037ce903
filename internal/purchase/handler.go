package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cardgate/internal/platform/database"
	"cardgate/internal/platform/middleware"
	tenantmodels "cardgate/internal/tenant/models"
	"cardgate/internal/transport/httputil"
	dErrors "cardgate/pkg/domainerrors"
)

// StoreOpener opens a purchase store bound to the resolved tenant's database.
type StoreOpener interface {
	Open(ctx context.Context, tn *tenantmodels.ResolvedTenant) (Store, func() error, error)
}

// SQLOpener dials the tenant database per request.
type SQLOpener struct{}

func NewSQLOpener() *SQLOpener {
	return &SQLOpener{}
}

func (o *SQLOpener) Open(ctx context.Context, tn *tenantmodels.ResolvedTenant) (Store, func() error, error) {
	db, err := database.Open(ctx, tn.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening tenant database %q: %w", tn.Database, err)
	}
	return NewSQLStore(db), db.Close, nil
}

// StaticOpener serves a fixed store regardless of tenant, for tests.
type StaticOpener struct {
	Store Store
}

func (o *StaticOpener) Open(context.Context, *tenantmodels.ResolvedTenant) (Store, func() error, error) {
	return o.Store, func() error { return nil }, nil
}

// Handler serves purchase recording. The parent router applies tenant
// resolution, session validation, and the merchant role gate.
type Handler struct {
	service *Service
	opener  StoreOpener
	logger  *slog.Logger
}

func NewHandler(service *Service, opener StoreOpener, logger *slog.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("purchase: service is required")
	}
	if opener == nil {
		return nil, errors.New("purchase: store opener is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, opener: opener, logger: logger}, nil
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/grabar_compra", h.HandleRecord)
	r.Post("/grabar_compra_y_actualizar_saldo", h.HandleRecordAndUpdate)
	r.Put("/actualizar_saldo_tarjeta", h.HandleUpdateBalance)
}

// HandleRecord implements POST /grabar_compra.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.service.Record)
}

// HandleRecordAndUpdate implements POST /grabar_compra_y_actualizar_saldo.
func (h *Handler) HandleRecordAndUpdate(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.service.RecordAndUpdateBalance)
}

type recordFunc func(ctx context.Context, tn *tenantmodels.ResolvedTenant, store Store, p Purchase) (*Receipt, error)

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, record recordFunc) {
	ctx := r.Context()

	tn := middleware.GetTenant(ctx)
	if tn == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, ""))
		return
	}

	var p Purchase
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}

	store, closeStore, err := h.openStore(ctx, w, tn)
	if err != nil {
		return
	}
	defer closeStore()

	receipt, err := record(ctx, tn, store, p)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, receipt)
}

// HandleUpdateBalance implements PUT /actualizar_saldo_tarjeta.
func (h *Handler) HandleUpdateBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tn := middleware.GetTenant(ctx)
	if tn == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, ""))
		return
	}

	var upd BalanceUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}

	store, closeStore, err := h.openStore(ctx, w, tn)
	if err != nil {
		return
	}
	defer closeStore()

	if err := h.service.UpdateBalance(ctx, tn, store, upd); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Saldo actualizado correctamente",
	})
}

// openStore opens the tenant store, writing the 503 itself on failure so
// callers can just bail out.
func (h *Handler) openStore(ctx context.Context, w http.ResponseWriter, tn *tenantmodels.ResolvedTenant) (Store, func(), error) {
	store, closeStore, err := h.opener.Open(ctx, tn)
	if err != nil {
		h.logger.ErrorContext(ctx, "tenant purchase store unavailable",
			"error", err,
			"tenant", tn.CUIT,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "tenant database unavailable"))
		return nil, nil, err
	}
	return store, func() {
		if err := closeStore(); err != nil {
			h.logger.WarnContext(ctx, "closing tenant purchase store", "error", err)
		}
	}, nil
}
