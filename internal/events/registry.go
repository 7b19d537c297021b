package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownEvent is returned when a stored event type has no factory.
var ErrUnknownEvent = errors.New("unknown event type")

// Registry turns stored payloads back into typed activity events.
type Registry struct {
	factories map[string]func() Event
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]func() Event)}
}

// Register binds eventType to a constructor of its zero value.
func (r *Registry) Register(eventType string, factory func() Event) {
	r.factories[eventType] = factory
}

// Types returns the registered event types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Unmarshal decodes raw into its registered type.
func (r *Registry) Unmarshal(raw RawEvent) (Event, error) {
	factory, ok := r.factories[raw.EventType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, raw.EventType)
	}

	e := factory()
	if err := json.Unmarshal([]byte(raw.Payload), e); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", raw.EventType, err)
	}
	return e, nil
}

// DefaultRegistry knows every event the session publishes.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(EventProfileChanged, func() Event { return &ProfileChanged{} })
	r.Register(EventSearchCompleted, func() Event { return &SearchCompleted{} })
	r.Register(EventRecommendationsApplied, func() Event { return &RecommendationsApplied{} })
	r.Register(EventRequestFailed, func() Event { return &RequestFailed{} })
	return r
}
