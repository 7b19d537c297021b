package events

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Appender persists published events. *EventLog implements it.
type Appender interface {
	Append(ctx context.Context, e Event) (int64, error)
}

type subscription struct {
	ch     chan Event
	types  []string // empty means every type
	closed bool     // guarded by Bus.mu
}

func (s *subscription) wants(eventType string) bool {
	return len(s.types) == 0 || slices.Contains(s.types, eventType)
}

// Bus is an in-process pub/sub for activity events. Delivery never blocks
// the publisher: a full subscriber misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscription
	log    Appender // may be nil
	logger *slog.Logger
	closed bool
}

// NewBus creates a new event bus. Pass a nil log to disable persistence.
func NewBus(log Appender, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		log:    log,
		logger: logger,
	}
}

// Publish persists e, when a log is configured, and delivers it to every
// matching subscriber. Persistence failures are logged, not returned.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	targets := make([]*subscription, 0, len(b.subs))
	for _, s := range b.subs {
		if s.wants(e.EventType()) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	if b.log != nil {
		if _, err := b.log.Append(ctx, e); err != nil {
			b.logger.Error("failed to persist event", "type", e.EventType(), "error", err)
		}
	}

	// A target may have been unsubscribed while the lock was released.
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range targets {
		if s.closed {
			continue
		}
		select {
		case s.ch <- e:
		default:
			b.logger.Warn("subscriber channel full, dropping event", "type", e.EventType())
		}
	}
}

// Subscribe returns a channel receiving events of the given types, or of
// every type when none are given.
func (b *Bus) Subscribe(bufferSize int, types ...string) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &subscription{ch: make(chan Event, bufferSize), types: types}
	if b.closed {
		s.closed = true
		close(s.ch)
		return s.ch
	}
	b.subs = append(b.subs, s)
	return s.ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.ch == ch {
			b.subs = slices.Delete(b.subs, i, i+1)
			s.closed = true
			close(s.ch)
			return
		}
	}
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	for _, s := range b.subs {
		s.closed = true
		close(s.ch)
	}
	b.subs = nil
	return nil
}
