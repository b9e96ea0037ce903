package purchase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cardgate/internal/audit"
	"cardgate/internal/platform/metrics"
	"cardgate/internal/platform/tracer"
	tenantmodels "cardgate/internal/tenant/models"
	dErrors "cardgate/pkg/domainerrors"
)

// defaultCharge marks an automatic purchase load, the only mode the POS
// clients send today.
const defaultCharge = "A"

// AuditPublisher records recorded purchases for the audit trail.
type AuditPublisher interface {
	Emit(ctx context.Context, e audit.Event) error
}

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

// WithClock overrides the time source used for authorization codes.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service records card purchases against one tenant's database.
type Service struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
	audit   AuditPublisher
	now     func() time.Time
}

func NewService(opts ...Option) *Service {
	s := &Service{
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record generates the coupon number and authorization code, then hands the
// purchase to the tenant's recording procedure.
func (s *Service) Record(ctx context.Context, tn *tenantmodels.ResolvedTenant, store Store, p Purchase) (*Receipt, error) {
	return s.record(ctx, tn, store, p, false)
}

// RecordAndUpdateBalance records the purchase and applies the amount to the
// card's balance in one pass.
func (s *Service) RecordAndUpdateBalance(ctx context.Context, tn *tenantmodels.ResolvedTenant, store Store, p Purchase) (*Receipt, error) {
	// Combined loads always run in automatic mode.
	p.Charge = defaultCharge
	return s.record(ctx, tn, store, p, true)
}

func (s *Service) record(ctx context.Context, tn *tenantmodels.ResolvedTenant, store Store, p Purchase, updateBalance bool) (receipt *Receipt, err error) {
	ctx, span := s.tracer.Start(ctx, "purchase.record")
	defer func() { span.End(err) }()

	if err := validate(p); err != nil {
		return nil, err
	}
	if p.Charge == "" {
		p.Charge = defaultCharge
	}

	authCode := AuthorizationCode(s.now())

	coupon, err := store.NextCoupon(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "coupon sequence failed",
			"error", err,
			"tenant", tn.CUIT,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not assign coupon number")
	}

	message, err := store.RecordPurchase(ctx, Record{
		Purchase:          p,
		Coupon:            coupon,
		AuthorizationCode: authCode,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "purchase recording failed",
			"error", err,
			"tenant", tn.CUIT,
			"merchant", p.MerchantID,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not record purchase")
	}

	if updateBalance {
		if err := store.UpdateCardBalance(ctx, p.CardID, p.Amount); err != nil {
			s.logger.ErrorContext(ctx, "balance update failed",
				"error", err,
				"tenant", tn.CUIT,
				"card", p.CardID,
			)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not update card balance")
		}
	}

	if s.metrics != nil {
		s.metrics.PurchasesRecorded.Inc()
	}
	s.emit(ctx, audit.Event{
		Tenant: tn.CUIT,
		Action: audit.ActionPurchaseRecorded,
		Reason: fmt.Sprintf("merchant %d coupon %d", p.MerchantID, coupon),
	})
	s.logger.InfoContext(ctx, "purchase recorded",
		"tenant", tn.CUIT,
		"merchant", p.MerchantID,
		"coupon", coupon,
	)

	return &Receipt{
		Message:           message,
		Coupon:            coupon,
		AuthorizationCode: authCode,
	}, nil
}

// UpdateBalance applies a standalone balance adjustment.
func (s *Service) UpdateBalance(ctx context.Context, tn *tenantmodels.ResolvedTenant, store Store, upd BalanceUpdate) error {
	if upd.CardID <= 0 {
		return dErrors.New(dErrors.CodeBadRequest, "id must be a positive card ID")
	}
	if err := store.UpdateCardBalance(ctx, upd.CardID, upd.Amount); err != nil {
		s.logger.ErrorContext(ctx, "balance update failed",
			"error", err,
			"tenant", tn.CUIT,
			"card", upd.CardID,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not update card balance")
	}
	return nil
}

func validate(p Purchase) error {
	switch {
	case p.MerchantID <= 0:
		return dErrors.New(dErrors.CodeBadRequest, "idcomercio must be a positive merchant ID")
	case p.CardID <= 0:
		return dErrors.New(dErrors.CodeBadRequest, "idtarjeta must be a positive card ID")
	case p.PlanID <= 0:
		return dErrors.New(dErrors.CodeBadRequest, "idplan must be a positive plan ID")
	case p.Amount <= 0:
		return dErrors.New(dErrors.CodeBadRequest, "importe must be greater than zero")
	case p.Date.IsZero():
		return dErrors.New(dErrors.CodeBadRequest, "fecha is required")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, e audit.Event) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, e)
}

// AuthorizationCode derives the nine-digit code printed on the coupon: the
// day of the year followed by the HHMMSS tail of the timestamp.
func AuthorizationCode(now time.Time) string {
	julian := fmt.Sprintf("%03d", now.YearDay())
	stamp := now.Format("20060102150405")
	return julian + stamp[len(stamp)-6:]
}
