package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"cardgate/internal/audit"
	"cardgate/internal/auth/models"
	"cardgate/internal/auth/store"
	"cardgate/internal/platform/metrics"
	"cardgate/internal/platform/tracer"
	tenantmodels "cardgate/internal/tenant/models"
	dErrors "cardgate/pkg/domainerrors"
)

//go:generate mockgen -source=service.go -destination=mocks/service_mock.go -package=mocks TokenIssuer,PasswordVerifier,AuditPublisher
//go:generate mockgen -source=../store/store.go -destination=mocks/users_mock.go -package=mocks Users

// TokenIssuer mints session tokens after a successful credential check.
type TokenIssuer interface {
	Issue(subject, displayName string, roles []string, tenantID string) (string, error)
	TTL() time.Duration
}

// PasswordVerifier checks a cleartext password against a stored legacy hash.
type PasswordVerifier interface {
	Verify(storedHash, password string) bool
}

// AuditPublisher records security-relevant login outcomes.
type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event) error
}

// genericAuthMessage is returned for both unknown usernames and wrong
// passwords, so a caller cannot tell the two cases apart.
const genericAuthMessage = "invalid credentials"

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

func WithAudit(a AuditPublisher) Option {
	return func(s *Service) { s.audit = a }
}

// WithClock overrides the time source used for lockout checks. Tests use it
// to pin "now" around a lockout boundary.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service implements interactive login against one tenant's user records.
type Service struct {
	verifier PasswordVerifier
	tokens   TokenIssuer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
	audit    AuditPublisher
	now      func() time.Time
}

func New(verifier PasswordVerifier, tokens TokenIssuer, opts ...Option) (*Service, error) {
	if verifier == nil {
		return nil, errors.New("service: password verifier is required")
	}
	if tokens == nil {
		return nil, errors.New("service: token issuer is required")
	}
	s := &Service{
		verifier: verifier,
		tokens:   tokens,
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login authenticates the given credentials against the resolved tenant's
// user store and returns a freshly minted session token. The users store is
// passed per call because each tenant owns its own database.
func (s *Service) Login(ctx context.Context, tn *tenantmodels.ResolvedTenant, users store.Users, username, password string) (result *models.LoginResult, err error) {
	ctx, span := s.tracer.Start(ctx, "auth.login")
	defer func() { span.End(err) }()

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username and password are required")
	}

	user, err := users.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, s.authFailure(ctx, tn, username, "unknown_user")
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "user lookup failed",
			slog.String("tenant", tn.CUIT),
			slog.String("error", err.Error()),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}

	if user.LockedOutAt(s.now()) {
		if s.metrics != nil {
			s.metrics.LockoutRejections.Inc()
		}
		s.emit(ctx, audit.Event{
			Tenant:  tn.CUIT,
			Subject: user.ID,
			Action:  audit.ActionAccountLocked,
			Reason:  "lockout window active",
		})
		return nil, dErrors.New(dErrors.CodeLocked, "account is temporarily locked")
	}

	if user.PasswordHash == "" || !s.verifier.Verify(user.PasswordHash, password) {
		return nil, s.authFailure(ctx, tn, user.ID, "bad_password")
	}

	roles, err := users.RolesByUserID(ctx, user.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "role lookup failed",
			slog.String("tenant", tn.CUIT),
			slog.String("user", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "user store unavailable")
	}

	accessToken, err := s.tokens.Issue(user.ID, user.UserName, roles, tn.CUIT)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "issuing session token")
	}

	if s.metrics != nil {
		s.metrics.LoginsTotal.Inc()
	}
	s.emit(ctx, audit.Event{
		Tenant:  tn.CUIT,
		Subject: user.ID,
		Action:  audit.ActionLoginSucceeded,
	})
	s.logger.InfoContext(ctx, "login succeeded",
		slog.String("tenant", tn.CUIT),
		slog.String("user", user.ID),
		slog.Int("roles", len(roles)),
	)

	return &models.LoginResult{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.TTL().Seconds()),
	}, nil
}

// authFailure records the failed attempt and returns the shared generic
// error. The reason never reaches the caller, only logs and audit.
func (s *Service) authFailure(ctx context.Context, tn *tenantmodels.ResolvedTenant, subject, reason string) error {
	if s.metrics != nil {
		s.metrics.AuthFailures.Inc()
	}
	s.emit(ctx, audit.Event{
		Tenant:  tn.CUIT,
		Subject: subject,
		Action:  audit.ActionLoginFailed,
		Reason:  reason,
	})
	s.logger.WarnContext(ctx, "login failed",
		slog.String("tenant", tn.CUIT),
		slog.String("reason", reason),
	)
	return dErrors.New(dErrors.CodeUnauthorized, genericAuthMessage)
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, e)
}
