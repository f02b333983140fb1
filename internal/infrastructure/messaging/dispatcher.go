// Package messaging delivers domain events to in-process handlers
package messaging

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/domain/shared"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
)

// Dispatcher fans domain events out to handlers registered by event name.
// A failing handler is logged and does not stop the others.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	log      *zap.Logger
}

var (
	_ outbound.EventPublisher = (*Dispatcher)(nil)
	_ shared.EventDispatcher  = (*Dispatcher)(nil)
)

// NewDispatcher creates a new event dispatcher
func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]shared.EventHandler),
		log:      log.Named("events"),
	}
}

// Register registers an event handler
func (d *Dispatcher) Register(eventName string, handler shared.EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventName] = append(d.handlers[eventName], handler)
	d.log.Debug("Registered event handler", zap.String("event", eventName))
}

// Dispatch dispatches an event to registered handlers
func (d *Dispatcher) Dispatch(event shared.DomainEvent) error {
	d.mu.RLock()
	handlers := d.handlers[event.EventName()]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.log.Debug("No handlers registered for event", zap.String("event", event.EventName()))
		return nil
	}
	for _, handler := range handlers {
		if err := handler(event); err != nil {
			d.log.Error("Failed to handle event",
				zap.String("event", event.EventName()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Publish dispatches events in order. It stops early only when ctx is done.
func (d *Dispatcher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := d.Dispatch(event); err != nil {
			return err
		}
	}
	return nil
}
