package audit

import (
	"context"
	"log/slog"
	"sync"
)

// LogStore writes audit events to the structured log. It is the default sink;
// a relational sink can replace it without touching the publisher.
type LogStore struct {
	logger *slog.Logger
}

func NewLogStore(logger *slog.Logger) *LogStore {
	return &LogStore{logger: logger}
}

func (s *LogStore) Append(ctx context.Context, event Event) error {
	s.logger.InfoContext(ctx, "audit",
		"action", event.Action,
		"tenant", event.Tenant,
		"subject", event.Subject,
		"reason", event.Reason,
		"request_id", event.RequestID,
		"timestamp", event.Timestamp,
		"log_type", "audit",
	)
	return nil
}

// MemoryStore keeps events in memory for tests.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of all recorded events.
func (s *MemoryStore) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
