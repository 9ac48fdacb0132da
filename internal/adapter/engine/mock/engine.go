// Package mock provides a mock implementation of the PlayerEngine interface.
// This is used for testing services without requiring a running media engine.
package mock

import (
	"strings"
	"sync"

	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/ports"
)

// eventBuffer sizes the mock's event channel. Tests emit far fewer events
// than this, so emits never block.
const eventBuffer = 256

// Engine is a mock implementation of the PlayerEngine interface.
// It keeps a property map in memory and lets tests script engine behavior:
// emit notifications, inspect issued commands, inject failures.
//
// Setting an observed property through SetProperty or SetPropertyBlocking
// echoes a change notification, the way the real engine reports observed
// properties back.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	mu sync.Mutex

	properties map[string]any
	observed   map[string]bool

	commands         [][]string
	blockingCommands [][]string

	events chan ports.EngineEvent
	closed bool

	// Behavior configuration (for testing error scenarios)
	failCommands    bool
	asyncReplies    map[ports.RequestTag]any
	asyncReplyError error
}

// NewEngine creates a new mock player engine.
func NewEngine() *Engine {
	return &Engine{
		properties:   make(map[string]any),
		observed:     make(map[string]bool),
		asyncReplies: make(map[ports.RequestTag]any),
		events:       make(chan ports.EngineEvent, eventBuffer),
	}
}

// SetFailCommands configures blocking and async calls to fail (for testing).
func (m *Engine) SetFailCommands(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCommands = fail
}

// ScriptAsyncReply sets the data a CommandAsync with the given tag replies
// with (for testing).
func (m *Engine) ScriptAsyncReply(tag ports.RequestTag, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asyncReplies[tag] = data
}

// ScriptAsyncReplyError makes every async reply carry err (for testing).
func (m *Engine) ScriptAsyncReplyError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asyncReplyError = err
}

// ObserveProperty records the property as observed.
func (m *Engine) ObserveProperty(name string, _ ports.PropertyFormat) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrEngineClosed
	}
	m.observed[name] = true
	return nil
}

// IsObserved reports whether name was registered via ObserveProperty
// (for testing).
func (m *Engine) IsObserved(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.observed[name]
}

// SetProperty stores the value and echoes a change notification when the
// property is observed.
func (m *Engine) SetProperty(name string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(name, value)
}

// SetPropertyBlocking behaves like SetProperty but reports scripted failures.
func (m *Engine) SetPropertyBlocking(name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrEngineClosed
	}
	if m.failCommands {
		return domain.NewEngineError("set_property", name, "mock failure", nil)
	}
	m.setLocked(name, value)
	return nil
}

func (m *Engine) setLocked(name string, value any) {
	if m.closed {
		return
	}
	m.properties[name] = value
	if m.observed[name] {
		m.events <- ports.EngineEvent{
			Kind:  ports.EnginePropertyChange,
			Name:  name,
			Value: value,
		}
	}
}

// GetProperty returns the stored value, or nil when the property was never
// set.
func (m *Engine) GetProperty(name string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, domain.ErrEngineClosed
	}
	return m.properties[name], nil
}

// GetPropertyAsync replies with the stored value as a tagged async event.
func (m *Engine) GetPropertyAsync(name string, tag ports.RequestTag) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrEngineClosed
	}
	if m.failCommands {
		return domain.NewEngineError("get_property_async", name, "mock failure", nil)
	}

	m.events <- ports.EngineEvent{
		Kind: ports.EngineAsyncReply,
		Tag:  tag,
		Data: m.properties[name],
		Err:  m.asyncReplyError,
	}
	return nil
}

// Command records the issued directive.
func (m *Engine) Command(args ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.commands = append(m.commands, args)
	m.applyCommandLocked(args)
}

// CommandBlocking records the directive and reports scripted failures.
func (m *Engine) CommandBlocking(args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrEngineClosed
	}
	if m.failCommands {
		return domain.NewEngineError("command", strings.Join(args, " "), "mock failure", nil)
	}
	m.blockingCommands = append(m.blockingCommands, args)
	m.applyCommandLocked(args)
	return nil
}

// CommandAsync records the directive and replies with the scripted data for
// its tag.
func (m *Engine) CommandAsync(tag ports.RequestTag, args ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrEngineClosed
	}
	if m.failCommands {
		return domain.NewEngineError("command_async", strings.Join(args, " "), "mock failure", nil)
	}
	m.commands = append(m.commands, args)

	m.events <- ports.EngineEvent{
		Kind: ports.EngineAsyncReply,
		Tag:  tag,
		Data: m.asyncReplies[tag],
		Err:  m.asyncReplyError,
	}
	return nil
}

// applyCommandLocked mirrors the few directives whose effect the session
// reads back through properties.
func (m *Engine) applyCommandLocked(args []string) {
	if len(args) >= 3 && args[0] == "set" {
		m.setLocked(args[1], args[2])
	}
}

// Events returns the channel of engine notifications.
func (m *Engine) Events() <-chan ports.EngineEvent {
	return m.events
}

// Close shuts down the mock and closes the event channel.
func (m *Engine) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return domain.ErrEngineClosed
	}
	m.closed = true
	close(m.events)
	return nil
}

// EmitPropertyChange delivers a property change notification (for testing).
func (m *Engine) EmitPropertyChange(name string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.properties[name] = value
	m.events <- ports.EngineEvent{
		Kind:  ports.EnginePropertyChange,
		Name:  name,
		Value: value,
	}
}

// EmitFileStarted delivers a file-started notification (for testing).
func (m *Engine) EmitFileStarted() {
	m.emit(ports.EngineEvent{Kind: ports.EngineFileStarted})
}

// EmitFileLoaded delivers a file-loaded notification (for testing).
func (m *Engine) EmitFileLoaded() {
	m.emit(ports.EngineEvent{Kind: ports.EngineFileLoaded})
}

// EmitEndFile delivers an end-file notification with a reason (for testing).
func (m *Engine) EmitEndFile(reason string) {
	m.emit(ports.EngineEvent{Kind: ports.EngineEndFile, Reason: reason})
}

// EmitVideoReconfig delivers a video-reconfig notification (for testing).
func (m *Engine) EmitVideoReconfig() {
	m.emit(ports.EngineEvent{Kind: ports.EngineVideoReconfig})
}

// EmitAsyncReply delivers a tagged async reply (for testing).
func (m *Engine) EmitAsyncReply(tag ports.RequestTag, data any, err error) {
	m.emit(ports.EngineEvent{Kind: ports.EngineAsyncReply, Tag: tag, Data: data, Err: err})
}

func (m *Engine) emit(event ports.EngineEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.events <- event
}

// Commands returns every recorded non-blocking directive (for testing).
func (m *Engine) Commands() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.commands))
	copy(out, m.commands)
	return out
}

// BlockingCommands returns every recorded blocking directive (for testing).
func (m *Engine) BlockingCommands() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]string, len(m.blockingCommands))
	copy(out, m.blockingCommands)
	return out
}

// PropertyValue returns the current stored value for name (for testing).
func (m *Engine) PropertyValue(name string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.properties[name]
}

// Verify that Engine implements the PlayerEngine interface
var _ ports.PlayerEngine = (*Engine)(nil)
