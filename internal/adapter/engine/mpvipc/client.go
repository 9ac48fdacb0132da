// Package mpvipc implements the PlayerEngine interface over the media
// engine's JSON IPC socket.
//
// The protocol is newline-delimited JSON over a unix socket: requests carry
// a command array and a request_id, replies echo the request_id, and
// observed properties arrive as unsolicited property-change events.
package mpvipc

import (
	"bufio"
	"encoding/json"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/ports"
)

// replyTimeout bounds how long blocking calls wait for the engine.
const replyTimeout = 5 * time.Second

// eventBuffer sizes the outbound event channel. The consumer drains it on a
// dedicated goroutine; the buffer only absorbs short bursts.
const eventBuffer = 128

// message is the wire shape of everything the engine sends. Reply fields and
// event fields never overlap, so one struct covers both.
type message struct {
	// reply fields
	RequestID int64           `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`

	// event fields
	Event  string `json:"event,omitempty"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason,omitempty"`
	ID     int64  `json:"id,omitempty"`
}

// request is the wire shape of an outbound command.
type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
	Async     bool  `json:"async,omitempty"`
}

// pendingReply is a parked blocking call waiting for its request_id.
type pendingReply chan message

// Client talks to a running engine instance over its IPC socket.
//
// Thread-safety: outbound calls may come from any goroutine. A single reader
// goroutine owns the socket's receive side and feeds the Events channel.
type Client struct {
	conn   net.Conn
	logger *slog.Logger

	writeMu sync.Mutex
	encoder *json.Encoder

	mu        sync.Mutex
	nextID    int64
	nextObsID int64
	pending   map[int64]pendingReply
	asyncTags map[int64]ports.RequestTag
	closed    bool

	events chan ports.EngineEvent
	done   chan struct{}
}

// Dial connects to the engine socket at path and starts the reader.
func Dial(path string, logger *slog.Logger) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, domain.NewEngineError("dial", path, "cannot connect to engine socket", err)
	}

	c := &Client{
		conn:      conn,
		logger:    logger,
		encoder:   json.NewEncoder(conn),
		pending:   make(map[int64]pendingReply),
		asyncTags: make(map[int64]ports.RequestTag),
		events:    make(chan ports.EngineEvent, eventBuffer),
		done:      make(chan struct{}),
	}

	go c.reader()

	return c, nil
}

// reader drains the socket until it closes, routing replies to their waiters
// and translating events for the consumer.
func (c *Client) reader() {
	defer close(c.events)
	defer close(c.done)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			c.logger.Warn("engine sent unparseable message", slog.Any("error", err))
			continue
		}

		if msg.Event != "" {
			c.handleEvent(msg)
			continue
		}
		c.handleReply(msg)
	}

	c.failPending()
}

// handleEvent translates one engine event and forwards it. The channel send
// drops when the consumer lags behind the buffer; property changes are
// idempotent so a dropped one is recovered by the next.
func (c *Client) handleEvent(msg message) {
	var event ports.EngineEvent

	switch msg.Event {
	case "property-change":
		event = ports.EngineEvent{
			Kind:  ports.EnginePropertyChange,
			Name:  msg.Name,
			Value: decodeValue(msg.Data),
		}
	case "start-file":
		event = ports.EngineEvent{Kind: ports.EngineFileStarted}
	case "file-loaded":
		event = ports.EngineEvent{Kind: ports.EngineFileLoaded}
	case "end-file":
		event = ports.EngineEvent{Kind: ports.EngineEndFile, Reason: msg.Reason}
	case "video-reconfig":
		event = ports.EngineEvent{Kind: ports.EngineVideoReconfig}
	default:
		return
	}

	select {
	case c.events <- event:
	default:
		c.logger.Warn("engine event dropped, consumer lagging",
			slog.String("event", msg.Event),
			slog.String("name", msg.Name))
	}
}

// handleReply routes a request_id reply to its blocking waiter or, for async
// requests, surfaces it as a tagged event.
func (c *Client) handleReply(msg message) {
	c.mu.Lock()
	waiter, isPending := c.pending[msg.RequestID]
	if isPending {
		delete(c.pending, msg.RequestID)
	}
	tag, isAsync := c.asyncTags[msg.RequestID]
	if isAsync {
		delete(c.asyncTags, msg.RequestID)
	}
	c.mu.Unlock()

	if isPending {
		waiter <- msg
		return
	}

	if isAsync {
		event := ports.EngineEvent{
			Kind: ports.EngineAsyncReply,
			Tag:  tag,
			Data: decodeValue(msg.Data),
		}
		if msg.Error != "" && msg.Error != "success" {
			event.Err = domain.NewEngineError("async", "", msg.Error, nil)
		}
		select {
		case c.events <- event:
		default:
			c.logger.Warn("async reply dropped, consumer lagging")
		}
	}
}

// failPending releases every parked blocking call after the socket dies.
func (c *Client) failPending() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, waiter := range c.pending {
		waiter <- message{Error: "connection closed"}
		delete(c.pending, id)
	}
}

// decodeValue turns raw reply data into the loosest matching Go value.
// Numbers decode as json.Number so consumers can pick int64 or float64.
func decodeValue(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil
	}
	return value
}

// send writes one request to the socket.
func (c *Client) send(req request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.encoder.Encode(req)
}

// allocateID reserves a request id, optionally parking a waiter for it.
func (c *Client) allocateID(waiter pendingReply, tag ports.RequestTag) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, domain.ErrEngineClosed
	}

	c.nextID++
	id := c.nextID
	if waiter != nil {
		c.pending[id] = waiter
	}
	if tag != ports.TagNone {
		c.asyncTags[id] = tag
	}
	return id, nil
}

// forgetID drops the bookkeeping for a request that never made it out.
func (c *Client) forgetID(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
	delete(c.asyncTags, id)
}

// roundTrip sends a command and waits for its reply.
func (c *Client) roundTrip(op string, args ...any) (message, error) {
	waiter := make(pendingReply, 1)
	id, err := c.allocateID(waiter, ports.TagNone)
	if err != nil {
		return message{}, err
	}

	if err := c.send(request{Command: args, RequestID: id}); err != nil {
		c.forgetID(id)
		return message{}, domain.NewEngineError(op, "", "engine write failed", err)
	}

	select {
	case msg := <-waiter:
		return msg, nil
	case <-time.After(replyTimeout):
		c.forgetID(id)
		return message{}, domain.NewEngineError(op, "", "engine reply timed out", nil)
	}
}

// fireAndForget sends a command and logs, rather than returns, failures.
func (c *Client) fireAndForget(op string, args ...any) {
	id, err := c.allocateID(nil, ports.TagNone)
	if err != nil {
		return
	}
	if err := c.send(request{Command: args, RequestID: id}); err != nil {
		c.logger.Warn("engine write failed",
			slog.String("op", op),
			slog.Any("error", err))
	}
}

// ObserveProperty subscribes to change notifications for a property.
// The engine picks the decoding itself, so the format hint is unused here.
func (c *Client) ObserveProperty(name string, _ ports.PropertyFormat) error {
	c.mu.Lock()
	c.nextObsID++
	obsID := c.nextObsID
	c.mu.Unlock()

	msg, err := c.roundTrip("observe_property", "observe_property", obsID, name)
	if err != nil {
		return err
	}
	if msg.Error != "" && msg.Error != "success" {
		return domain.NewEngineError("observe_property", name, msg.Error, nil)
	}
	return nil
}

// SetProperty sets a property without waiting for the result.
func (c *Client) SetProperty(name string, value any) {
	c.fireAndForget("set_property", "set_property", name, value)
}

// SetPropertyBlocking sets a property and waits for the engine to apply it.
func (c *Client) SetPropertyBlocking(name string, value any) error {
	msg, err := c.roundTrip("set_property", "set_property", name, value)
	if err != nil {
		return err
	}
	if msg.Error != "" && msg.Error != "success" {
		return domain.NewEngineError("set_property", name, msg.Error, nil)
	}
	return nil
}

// GetProperty reads a property synchronously. Properties the engine does not
// know resolve to a nil value.
func (c *Client) GetProperty(name string) (any, error) {
	msg, err := c.roundTrip("get_property", "get_property", name)
	if err != nil {
		return nil, err
	}
	if msg.Error != "" && msg.Error != "success" {
		if isUnknownProperty(msg.Error) {
			return nil, nil
		}
		return nil, domain.NewEngineError("get_property", name, msg.Error, nil)
	}
	return decodeValue(msg.Data), nil
}

// isUnknownProperty matches the engine's "no such value" reply strings.
func isUnknownProperty(errText string) bool {
	return errText == "property unavailable" || errText == "property not found"
}

// GetPropertyAsync requests a property read whose result arrives later as a
// tagged async-reply event.
func (c *Client) GetPropertyAsync(name string, tag ports.RequestTag) error {
	id, err := c.allocateID(nil, tag)
	if err != nil {
		return err
	}
	if err := c.send(request{Command: []any{"get_property", name}, RequestID: id, Async: true}); err != nil {
		c.forgetID(id)
		return domain.NewEngineError("get_property_async", name, "engine write failed", err)
	}
	return nil
}

// Command issues an engine directive without waiting for the result.
func (c *Client) Command(args ...string) {
	c.fireAndForget("command", toAny(args)...)
}

// CommandBlocking issues a directive and waits for the engine's reply.
func (c *Client) CommandBlocking(args ...string) error {
	msg, err := c.roundTrip("command", toAny(args)...)
	if err != nil {
		return err
	}
	if msg.Error != "" && msg.Error != "success" {
		return domain.NewEngineError("command", strings.Join(args, " "), msg.Error, nil)
	}
	return nil
}

// CommandAsync issues a directive whose reply arrives later as a tagged
// async-reply event.
func (c *Client) CommandAsync(tag ports.RequestTag, args ...string) error {
	id, err := c.allocateID(nil, tag)
	if err != nil {
		return err
	}
	if err := c.send(request{Command: toAny(args), RequestID: id, Async: true}); err != nil {
		c.forgetID(id)
		return domain.NewEngineError("command_async", strings.Join(args, " "), "engine write failed", err)
	}
	return nil
}

func toAny(args []string) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		out[i] = arg
	}
	return out
}

// Events returns the channel of decoded engine notifications. The channel
// closes when the connection dies or Close is called.
func (c *Client) Events() <-chan ports.EngineEvent {
	return c.events
}

// Close shuts down the connection. The reader drains, fails parked callers
// and closes the event channel before Close returns.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.ErrEngineClosed
	}
	c.closed = true
	c.mu.Unlock()

	err := c.conn.Close()
	<-c.done
	return err
}

// Verify that Client implements the PlayerEngine interface
var _ ports.PlayerEngine = (*Client)(nil)
