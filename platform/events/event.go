// Package events is the in-process publish/subscribe bus modules use to react
// to each other without importing one another.
package events

import (
	"context"
	"time"
)

// Event is a fact published by a module. EventName is the subscription key.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent is embedded by concrete events for the timestamp.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc lets a plain function subscribe.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers events to the handlers subscribed to their name.
type Bus interface {
	// Publish runs handlers in the background; their errors are only logged.
	Publish(ctx context.Context, event Event)
	// PublishSync runs handlers in subscription order and stops at the first error.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
