package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"cardgate/internal/auth/models"
	"cardgate/internal/auth/store"
	"cardgate/internal/platform/middleware"
	tenantmodels "cardgate/internal/tenant/models"
	"cardgate/internal/transport/httputil"
	dErrors "cardgate/pkg/domainerrors"
)

// Service defines the login operation the handler depends on.
type Service interface {
	Login(ctx context.Context, tn *tenantmodels.ResolvedTenant, users store.Users, username, password string) (*models.LoginResult, error)
}

// UserStoreOpener opens a user store bound to the resolved tenant's database.
// The returned close func must be called once the request is served.
type UserStoreOpener interface {
	Open(ctx context.Context, tn *tenantmodels.ResolvedTenant) (store.Users, func() error, error)
}

// Handler serves the interactive login endpoint.
type Handler struct {
	auth   Service
	opener UserStoreOpener
	logger *slog.Logger
}

func New(auth Service, opener UserStoreOpener, logger *slog.Logger) (*Handler, error) {
	if auth == nil {
		return nil, errors.New("handler: auth service is required")
	}
	if opener == nil {
		return nil, errors.New("handler: user store opener is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: auth, opener: opener, logger: logger}, nil
}

// Register registers the auth routes with the chi router. The parent router
// must apply tenant resolution first.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

// HandleLogin implements POST /auth/login.
//
// Input: { "username": "alice", "password": "secret123" }
// Output: { "access_token": "...", "token_type": "Bearer", "expires_in": 3600 }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	tn := middleware.GetTenant(ctx)
	if tn == nil {
		h.logger.ErrorContext(ctx, "login reached without resolved tenant",
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, ""))
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON in request body"))
		return
	}

	users, closeStore, err := h.opener.Open(ctx, tn)
	if err != nil {
		h.logger.ErrorContext(ctx, "tenant user store unavailable",
			"error", err,
			"request_id", requestID,
			"tenant", tn.CUIT,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnavailable, "tenant database unavailable"))
		return
	}
	defer func() {
		if err := closeStore(); err != nil {
			h.logger.WarnContext(ctx, "closing tenant user store", "error", err)
		}
	}()

	res, err := h.auth.Login(ctx, tn, users, req.Username, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestID,
			"tenant", tn.CUIT,
			"device", deviceString(r.UserAgent()),
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login successful",
		"request_id", requestID,
		"tenant", tn.CUIT,
		"device", deviceString(r.UserAgent()),
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}

// deviceString condenses a User-Agent header into "Browser x.y on OS" for
// audit logs.
func deviceString(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		return "unknown"
	}
	os := ua.OS()
	if os == "" {
		os = "unknown OS"
	}
	return name + " " + version + " on " + os
}
