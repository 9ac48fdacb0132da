package mock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-player/cadenza/internal/ports"
)

// TestObservedSetEchoes tests that setting an observed property echoes a
// change notification.
func TestObservedSetEchoes(t *testing.T) {
	engine := NewEngine()
	defer func() { _ = engine.Close() }()

	require.NoError(t, engine.ObserveProperty(ports.PropPause, ports.FormatFlag))
	engine.SetProperty(ports.PropPause, true)

	event := <-engine.Events()
	assert.Equal(t, ports.EnginePropertyChange, event.Kind)
	assert.Equal(t, ports.PropPause, event.Name)
	assert.Equal(t, true, event.Value)
}

// TestUnobservedSetSilent tests that unobserved properties do not notify.
func TestUnobservedSetSilent(t *testing.T) {
	engine := NewEngine()
	defer func() { _ = engine.Close() }()

	engine.SetProperty(ports.PropVolume, int64(50))

	select {
	case event := <-engine.Events():
		t.Fatalf("unexpected event: %+v", event)
	default:
	}

	value, err := engine.GetProperty(ports.PropVolume)
	require.NoError(t, err)
	assert.Equal(t, int64(50), value)
}

// TestGetPropertyAsync tests the tagged reply path.
func TestGetPropertyAsync(t *testing.T) {
	engine := NewEngine()
	defer func() { _ = engine.Close() }()

	engine.SetProperty(ports.PropPosition, 12.5)
	require.NoError(t, engine.GetPropertyAsync(ports.PropPosition, ports.TagSavePosition))

	event := <-engine.Events()
	assert.Equal(t, ports.EngineAsyncReply, event.Kind)
	assert.Equal(t, ports.TagSavePosition, event.Tag)
	assert.Equal(t, 12.5, event.Data)
}

// TestCommandRecording tests that directives are recorded in order.
func TestCommandRecording(t *testing.T) {
	engine := NewEngine()
	defer func() { _ = engine.Close() }()

	engine.Command("loadfile", "/media/a.mkv")
	require.NoError(t, engine.CommandBlocking("stop"))

	commands := engine.Commands()
	require.Len(t, commands, 1)
	assert.Equal(t, []string{"loadfile", "/media/a.mkv"}, commands[0])

	blocking := engine.BlockingCommands()
	require.Len(t, blocking, 1)
	assert.Equal(t, []string{"stop"}, blocking[0])
}

// TestScriptedFailure tests failure injection on blocking calls.
func TestScriptedFailure(t *testing.T) {
	engine := NewEngine()
	defer func() { _ = engine.Close() }()

	engine.SetFailCommands(true)

	assert.Error(t, engine.CommandBlocking("stop"))
	assert.Error(t, engine.SetPropertyBlocking(ports.PropMute, true))
	assert.Error(t, engine.CommandAsync(ports.TagScreenshot, "screenshot"))
}

// TestCloseStopsEvents tests that Close closes the event channel and later
// calls fail or no-op.
func TestCloseStopsEvents(t *testing.T) {
	engine := NewEngine()

	require.NoError(t, engine.Close())

	_, open := <-engine.Events()
	assert.False(t, open)

	assert.Error(t, engine.ObserveProperty(ports.PropPause, ports.FormatFlag))
	assert.Error(t, engine.Close())

	// fire-and-forget calls must not panic after close
	engine.SetProperty(ports.PropPause, true)
	engine.Command("stop")
	engine.EmitFileLoaded()
}
