package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cotizador_backend/platform/logger"
)

const asyncHandlerTimeout = 2 * time.Minute

// InMemoryBus is a process-local Bus. Asynchronous deliveries are detached
// from the publisher's cancellation so a finished HTTP request does not abort
// an email that is still being sent.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
	wg       sync.WaitGroup
}

var _ Bus = (*InMemoryBus)(nil)

// NewInMemoryBus creates an empty bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	if log == nil {
		log = logger.Discard()
	}
	return &InMemoryBus{handlers: make(map[string][]Handler), log: log}
}

// Subscribe registers a handler for eventName.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Handler(nil), b.handlers[eventName]...)
}

// Publish delivers the event to every handler on its own goroutine.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	for _, h := range b.handlersFor(event.EventName()) {
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					b.log.Error("event handler panicked",
						slog.String("event", event.EventName()),
						slog.String("panic", fmt.Sprint(r)))
				}
			}()

			hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncHandlerTimeout)
			defer cancel()
			if err := h.Handle(hctx, event); err != nil {
				b.log.Error("event handler failed",
					slog.String("event", event.EventName()),
					slog.String("error", err.Error()))
			}
		}(h)
	}
}

// PublishSync delivers the event to handlers in registration order.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	for _, h := range b.handlersFor(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil {
			return fmt.Errorf("%s handler: %w", event.EventName(), err)
		}
	}
	return nil
}

// Wait blocks until all in-flight asynchronous deliveries finish. Used on shutdown.
func (b *InMemoryBus) Wait() {
	b.wg.Wait()
}
