// Package ports defines the EventBus interface for event-driven communication.
// The event bus decouples the session core from the shells that observe it.
package ports

import (
	"github.com/cadenza-player/cadenza/internal/domain"
)

// EventBus is the interface for publishing and subscribing to events.
//
// Multiple subscribers can listen to the same event, and subscribers don't
// know about publishers.
//
// Thread-safety: implementations must be thread-safe as events may be
// published and subscribed from multiple goroutines simultaneously.
//
// Example usage:
//
//	// In service: publish an event
//	bus.Publish(domain.NewPauseChangedEvent(true))
//
//	// In a shell: subscribe to events
//	subID := bus.Subscribe(domain.EventPauseChanged, func(event domain.Event) {
//	    e := event.(domain.PauseChangedEvent)
//	    ui.SetPaused(e.Paused)
//	})
//
//	// Later: unsubscribe
//	bus.Unsubscribe(subID)
type EventBus interface {
	// Publish publishes an event to all subscribers of that event type.
	// Handlers are called synchronously in subscription order; they must
	// process events quickly or dispatch to a background goroutine.
	Publish(event domain.Event)

	// Subscribe registers a handler for events of the specified type.
	// The same handler can be registered multiple times, resulting in
	// multiple calls. Each subscription gets a unique SubscriptionID.
	Subscribe(eventType domain.EventType, handler domain.EventHandler) domain.SubscriptionID

	// Unsubscribe removes a previously registered event handler.
	// Invalid or already-removed ids are a no-op.
	Unsubscribe(id domain.SubscriptionID)

	// SubscribeAll registers a handler that receives every event.
	// Useful for logging and debugging.
	SubscribeAll(handler domain.EventHandler) domain.SubscriptionID

	// HasSubscribers reports whether anyone listens for the given type.
	HasSubscribers(eventType domain.EventType) bool

	// Close shuts down the event bus and clears all subscriptions.
	Close() error
}
