package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Event is emitted from domain logic to capture security-relevant actions.
// Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	Tenant    string
	Subject   string
	Action    string
	Reason    string
	RequestID string
}

const (
	ActionLoginSucceeded   = "login_succeeded"
	ActionLoginFailed      = "login_failed"
	ActionAccountLocked    = "account_locked"
	ActionTenantDenied     = "tenant_denied"
	ActionRelaxedHashRead  = "relaxed_legacy_hash"
	ActionPurchaseRecorded = "purchase_recorded"
)

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and delegates
// persistence to the store so tests can swap sinks easily.
type Publisher struct {
	store     Store
	events    chan Event
	wg        sync.WaitGroup
	logger    *slog.Logger
	async     bool
	requestID func(context.Context) string
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithRequestIDFunc extracts a request identifier from the emitting context,
// so callers do not have to thread it through every event.
func WithRequestIDFunc(fn func(context.Context) string) PublisherOption {
	return func(p *Publisher) {
		p.requestID = fn
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if err := p.store.Append(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"subject", event.Subject,
			)
		}
	}
}

// Emit records an event. In async mode a full buffer drops the event rather
// than blocking the request path.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RequestID == "" && p.requestID != nil {
		event.RequestID = p.requestID(ctx)
	}
	if p.async {
		select {
		case p.events <- event:
		default:
			if p.logger != nil {
				p.logger.Warn("audit buffer full, dropping event", "action", event.Action)
			}
		}
		return nil
	}
	return p.store.Append(ctx, event)
}

// Close drains the async queue and stops the background goroutine.
func (p *Publisher) Close() {
	if p.async {
		close(p.events)
		p.wg.Wait()
	}
}
