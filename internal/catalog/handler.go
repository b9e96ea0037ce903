package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cardgate/internal/platform/database"
	"cardgate/internal/platform/middleware"
	"cardgate/internal/sentinel"
	tenantmodels "cardgate/internal/tenant/models"
	"cardgate/internal/transport/httputil"
	dErrors "cardgate/pkg/domainerrors"
)

// StoreOpener opens a catalog store bound to the resolved tenant's database.
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

// Handler serves the per-tenant catalog reads. The parent router applies
// tenant resolution and session validation.
type Handler struct {
	opener StoreOpener
	logger *slog.Logger
}

func NewHandler(opener StoreOpener, logger *slog.Logger) (*Handler, error) {
	if opener == nil {
		return nil, errors.New("catalog: store opener is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{opener: opener, logger: logger}, nil
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/estados", h.list(func(ctx context.Context, s Store, _ *http.Request) (any, error) {
		return s.States(ctx)
	}))
	r.Get("/estados/{id}", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		id, err := pathID(r)
		if err != nil {
			return nil, err
		}
		return s.StateByID(ctx, id)
	}))
	r.Get("/planes", h.list(func(ctx context.Context, s Store, _ *http.Request) (any, error) {
		return s.Plans(ctx)
	}))
	r.Get("/planes/{id}", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		id, err := pathID(r)
		if err != nil {
			return nil, err
		}
		return s.PlanByID(ctx, id)
	}))
	r.Get("/planesComercios", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		merchantID, err := queryID(r, "id_comercio")
		if err != nil {
			return nil, err
		}
		return s.PlansByMerchant(ctx, merchantID)
	}))
	r.Get("/compras", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		cardID, err := queryID(r, "id_tarjeta")
		if err != nil {
			return nil, err
		}
		return s.RecentPurchases(ctx, cardID)
	}))
	r.Get("/cuotas", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		purchaseID, err := queryID(r, "id_compra")
		if err != nil {
			return nil, err
		}
		return s.PurchaseInstallments(ctx, purchaseID)
	}))
	r.Get("/comercios", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		merchantID, err := queryID(r, "id_comercio")
		if err != nil {
			return nil, err
		}
		return s.MerchantByID(ctx, merchantID)
	}))
	r.Get("/cajasComercios", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		merchantID, err := queryID(r, "id_comercio")
		if err != nil {
			return nil, err
		}
		return s.MerchantRegisters(ctx, merchantID)
	}))
	r.Get("/tarjetas", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		cardID, err := queryID(r, "id_tarjeta")
		if err != nil {
			return nil, err
		}
		return s.CardByID(ctx, cardID)
	}))
	r.Get("/usuario", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		userName := r.URL.Query().Get("user_name")
		if userName == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "user_name is required")
		}
		return s.UserByName(ctx, userName)
	}))
	// The previous system spelled this query key with a capital U.
	r.Get("/TarjetaComercio", h.list(func(ctx context.Context, s Store, r *http.Request) (any, error) {
		userID := r.URL.Query().Get("User_id")
		if userID == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "User_id is required")
		}
		return s.UserCardMerchant(ctx, userID)
	}))
}

type queryFunc func(ctx context.Context, s Store, r *http.Request) (any, error)

// list opens the tenant store, runs one read, and translates the outcome.
// Store-level failures never leak driver detail to the caller.
func (h *Handler) list(query queryFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tn := middleware.GetTenant(ctx)
		if tn == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, ""))
			return
		}

		store, closeStore, err := h.opener.Open(ctx, tn)
		if err != nil {
			h.logger.ErrorContext(ctx, "tenant catalog store unavailable",
				"error", err,
				"tenant", tn.CUIT,
				"request_id", middleware.GetRequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "tenant database unavailable"))
			return
		}
		defer func() {
			if err := closeStore(); err != nil {
				h.logger.WarnContext(ctx, "closing tenant catalog store", "error", err)
			}
		}()

		result, err := query(ctx, store, r)
		if errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no such record"))
			return
		}
		if err != nil {
			var domainErr *dErrors.Error
			if errors.As(err, &domainErr) {
				httputil.WriteError(w, err)
				return
			}
			h.logger.ErrorContext(ctx, "catalog read failed",
				"error", err,
				"tenant", tn.CUIT,
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "tenant database unavailable"))
			return
		}

		httputil.WriteJSON(w, http.StatusOK, result)
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "id must be an integer")
	}
	return id, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" must be an integer")
	}
	return id, nil
}
