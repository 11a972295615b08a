package events

import (
	"context"
	"errors"
	"sync"

	"member_portal_backend/platform/logger"
)

// InMemoryBus is a simple in-process event bus. Async handlers run in their
// own goroutine; panics are recovered and logged so a misbehaving subscriber
// cannot take down the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	log      *logger.Logger
}

// NewInMemoryBus creates a new in-memory event bus.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

// Subscribe registers a handler for the given event name.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish dispatches the event to all subscribers asynchronously.
// Handler errors are logged, not returned.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	for _, h := range b.handlersFor(event.EventName()) {
		handler := h
		go func() {
			defer b.recoverPanic(event.EventName())
			if err := handler.Handle(context.WithoutCancel(ctx), event); err != nil && b.log != nil {
				b.log.Error("event handler failed", "event", event.EventName(), "error", err)
			}
		}()
	}
}

// PublishSync dispatches the event and waits for all handlers, joining errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, h := range b.handlersFor(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (b *InMemoryBus) handlersFor(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	registered := b.handlers[eventName]
	out := make([]Handler, len(registered))
	copy(out, registered)
	return out
}

func (b *InMemoryBus) recoverPanic(eventName string) {
	if r := recover(); r != nil && b.log != nil {
		b.log.Error("event handler panicked", "event", eventName, "panic", r)
	}
}
