package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-player/cadenza/internal/domain"
)

// TestPublishSubscribe tests basic publish/subscribe functionality.
func TestPublishSubscribe(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	var received domain.Event
	var callCount int

	subID := bus.Subscribe(domain.EventPositionChanged, func(event domain.Event) {
		received = event
		callCount++
	})
	require.NotEmpty(t, subID)

	bus.Publish(domain.NewPositionChangedEvent(42.5))

	require.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, domain.EventPositionChanged, received.Type())

	posEvent := received.(domain.PositionChangedEvent)
	assert.Equal(t, 42.5, posEvent.Position)
	assert.Equal(t, "00:00:42", posEvent.Formatted)
}

// TestMultipleSubscribers tests multiple handlers for the same event type.
func TestMultipleSubscribers(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	var calls [3]int32
	for i := range calls {
		i := i
		bus.Subscribe(domain.EventPauseChanged, func(event domain.Event) {
			atomic.AddInt32(&calls[i], 1)
		})
	}

	bus.Publish(domain.NewPauseChangedEvent(true))

	for i := range calls {
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls[i]), "handler %d", i)
	}
}

// TestUnsubscribe tests that unsubscribed handlers stop receiving events.
func TestUnsubscribe(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	var callCount int32
	subID := bus.Subscribe(domain.EventMuteChanged, func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	})

	bus.Publish(domain.NewMuteChangedEvent(true))
	require.EqualValues(t, 1, atomic.LoadInt32(&callCount))

	bus.Unsubscribe(subID)

	bus.Publish(domain.NewMuteChangedEvent(false))
	assert.EqualValues(t, 1, atomic.LoadInt32(&callCount))
}

// TestUnsubscribeInvalidID tests unsubscribing with an unknown ID (no-op).
func TestUnsubscribeInvalidID(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	bus.Unsubscribe("invalid-id")
	bus.Unsubscribe("")
}

// TestSubscribeAll tests wildcard subscriptions.
func TestSubscribeAll(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	var mu sync.Mutex
	var receivedTypes []domain.EventType

	bus.SubscribeAll(func(event domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		receivedTypes = append(receivedTypes, event.Type())
	})

	bus.Publish(domain.NewPositionChangedEvent(1))
	bus.Publish(domain.NewPauseChangedEvent(true))
	bus.Publish(domain.NewVolumeChangedEvent(80, 100))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.EventType{
		domain.EventPositionChanged,
		domain.EventPauseChanged,
		domain.EventVolumeChanged,
	}, receivedTypes)
}

// TestHasSubscribers tests subscriber presence reporting.
func TestHasSubscribers(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	assert.False(t, bus.HasSubscribers(domain.EventPositionChanged))

	bus.Subscribe(domain.EventPositionChanged, func(event domain.Event) {})

	assert.True(t, bus.HasSubscribers(domain.EventPositionChanged))
	assert.False(t, bus.HasSubscribers(domain.EventPauseChanged))

	// a wildcard subscriber makes every type report subscribers
	bus.SubscribeAll(func(event domain.Event) {})
	assert.True(t, bus.HasSubscribers(domain.EventPauseChanged))
}

// TestHandlerPanic tests that a panicking handler does not stop delivery.
func TestHandlerPanic(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	var callCount int32
	bus.Subscribe(domain.EventEndOfFile, func(event domain.Event) {
		panic("test panic")
	})
	bus.Subscribe(domain.EventEndOfFile, func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	})

	bus.Publish(domain.NewEndOfFileEvent("file:///a.mkv", domain.ActionAdvanceNext))

	assert.EqualValues(t, 1, atomic.LoadInt32(&callCount))
}

// TestClose tests closing the event bus.
func TestClose(t *testing.T) {
	bus := NewSyncEventBus(nil)

	var callCount int32
	bus.Subscribe(domain.EventPositionChanged, func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	})

	require.NoError(t, bus.Close())

	// publishing on a closed bus is a no-op
	bus.Publish(domain.NewPositionChangedEvent(1))
	assert.EqualValues(t, 0, atomic.LoadInt32(&callCount))

	assert.Error(t, bus.Close())
}

// TestConcurrentPublish tests concurrent event publishing.
func TestConcurrentPublish(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	var eventCount int32
	bus.Subscribe(domain.EventPositionChanged, func(event domain.Event) {
		atomic.AddInt32(&eventCount, 1)
	})

	const numGoroutines = 10
	const eventsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				bus.Publish(domain.NewPositionChangedEvent(float64(j)))
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, numGoroutines*eventsPerGoroutine, atomic.LoadInt32(&eventCount))
}

// TestNilEvent tests publishing a nil event (no-op).
func TestNilEvent(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	var callCount int32
	bus.Subscribe(domain.EventPositionChanged, func(event domain.Event) {
		atomic.AddInt32(&callCount, 1)
	})

	bus.Publish(nil)

	assert.EqualValues(t, 0, atomic.LoadInt32(&callCount))
}

// TestNilHandler tests that subscribing a nil handler panics.
func TestNilHandler(t *testing.T) {
	bus := NewSyncEventBus(nil)
	defer func() { _ = bus.Close() }()

	assert.Panics(t, func() {
		bus.Subscribe(domain.EventPositionChanged, nil)
	})
}
