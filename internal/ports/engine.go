// Package ports defines interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

// Property names the session observes on the engine. These follow the
// engine's own vocabulary so adapters can pass them through unchanged.
const (
	PropMediaTitle          = "media-title"
	PropPosition            = "time-pos"
	PropRemaining           = "time-remaining"
	PropDuration            = "duration"
	PropPause               = "pause"
	PropVolume              = "volume"
	PropVolumeMax           = "volume-max"
	PropMute                = "mute"
	PropAudioID             = "aid"
	PropSubtitleID          = "sid"
	PropSecondarySubtitleID = "secondary-sid"
	PropVideoID             = "vid"
	PropWidth               = "width"
	PropHeight              = "height"
	PropChapter             = "chapter"
	PropChapterList         = "chapter-list"
	PropTrackList           = "track-list"
	PropTracksCount         = "track-list/count"
	PropSubtitleDelay       = "sub-delay"
	PropEOFReached          = "eof-reached"
	PropKeepOpen            = "keep-open"
	PropStart               = "start"
)

// PropertyFormat hints how an observed property's value should be decoded.
type PropertyFormat int

const (
	// FormatNode decodes into whatever structure the engine reports
	FormatNode PropertyFormat = iota

	// FormatString decodes into a string
	FormatString

	// FormatDouble decodes into a float64
	FormatDouble

	// FormatInt64 decodes into an int64
	FormatInt64

	// FormatFlag decodes into a bool
	FormatFlag
)

// RequestTag correlates asynchronous engine replies with their handlers.
// Replies carrying an unknown tag are ignored.
type RequestTag int

const (
	// TagNone marks untagged replies; they are dropped
	TagNone RequestTag = iota

	// TagSavePosition is a position read for the checkpoint path
	TagSavePosition

	// TagScreenshot is a screenshot command result
	TagScreenshot

	// TagTrackList is a full track-list fetch
	TagTrackList

	// TagChapterList is a chapter-list fetch
	TagChapterList

	// TagVideoTrackProbe is the video-presence probe after load
	TagVideoTrackProbe

	// TagAddSubtitleTrack confirms an external subtitle was attached
	TagAddSubtitleTrack
)

// EngineEventKind discriminates events arriving from the engine.
type EngineEventKind int

const (
	// EnginePropertyChange is a change notification for an observed property
	EnginePropertyChange EngineEventKind = iota

	// EngineFileStarted fires when the engine begins loading a file
	EngineFileStarted

	// EngineFileLoaded fires when a load settles and playback can begin
	EngineFileLoaded

	// EngineEndFile fires after a file is unloaded, with a reason
	EngineEndFile

	// EngineVideoReconfig fires when video geometry changes
	EngineVideoReconfig

	// EngineAsyncReply delivers the result of a tagged asynchronous request
	EngineAsyncReply
)

// EngineEvent is a single notification from the engine, already decoded.
// Which fields are meaningful depends on Kind.
type EngineEvent struct {
	Kind EngineEventKind

	// Name and Value are set for property changes
	Name  string
	Value any

	// Reason is set for end-file events ("eof", "stop", "error", ...)
	Reason string

	// Tag, Data and Err are set for async replies
	Tag  RequestTag
	Data any
	Err  error
}

// PlayerEngine is the boundary to the external media engine. The engine
// decodes and renders on its own; this interface only carries the
// observe/command protocol.
//
// Engine callbacks run on the adapter's reader goroutine; they are surfaced
// through Events and must be drained by a single consumer, which is the one
// mandatory thread hop between the engine and session state.
//
// Implementations must be safe for concurrent outbound calls.
type PlayerEngine interface {
	// ObserveProperty subscribes to change notifications for a property.
	// The format is a decoding hint; adapters may ignore it.
	ObserveProperty(name string, format PropertyFormat) error

	// SetProperty sets a property without waiting for the result.
	// Communication failures are logged by the adapter, not surfaced.
	SetProperty(name string, value any)

	// SetPropertyBlocking sets a property and waits until the engine has
	// applied it. Use only where ordering relative to a following command
	// matters; it blocks the calling goroutine for a full round-trip.
	SetPropertyBlocking(name string, value any) error

	// GetProperty reads a property synchronously. Properties the engine
	// does not know resolve to a nil value, not an error.
	GetProperty(name string) (any, error)

	// GetPropertyAsync requests a property read; the result arrives later
	// as an EngineAsyncReply event carrying tag.
	GetPropertyAsync(name string, tag RequestTag) error

	// Command issues an engine directive without waiting for the result.
	Command(args ...string)

	// CommandBlocking issues a directive and waits for the engine's reply.
	// Failures are reported as an error.
	CommandBlocking(args ...string) error

	// CommandAsync issues a directive whose reply arrives later as an
	// EngineAsyncReply event carrying tag.
	CommandAsync(tag RequestTag, args ...string) error

	// Events returns the channel of decoded engine notifications.
	Events() <-chan EngineEvent

	// Close shuts down the engine connection and closes the event channel.
	Close() error
}
