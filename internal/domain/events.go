// Package domain defines events for the event-driven architecture.
// Events carry session state changes out to subscribers (UI shells, MPRIS
// adaptors, logging) without coupling the core to them.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Session lifecycle events
	EventLoadStateChanged EventType = "session.load_state"
	EventMediaLoaded      EventType = "session.media_loaded"
	EventEndOfFile        EventType = "session.end_of_file"
	EventPlaybackError    EventType = "session.error"

	// Property-derived events
	EventTitleChanged        EventType = "session.title"
	EventPositionChanged     EventType = "session.position"
	EventRemainingChanged    EventType = "session.remaining"
	EventDurationChanged     EventType = "session.duration"
	EventPauseChanged        EventType = "session.pause"
	EventVolumeChanged       EventType = "session.volume"
	EventMuteChanged         EventType = "session.mute"
	EventVideoSizeChanged    EventType = "session.video_size"
	EventChapterChanged      EventType = "session.chapter"
	EventChaptersUpdated     EventType = "session.chapters"
	EventTracksUpdated       EventType = "session.tracks"
	EventTrackSelection      EventType = "session.track_selection"
	EventWatchPercentage     EventType = "session.watch_percentage"
	EventOSDMessage          EventType = "session.osd"
	EventSubtitleDelayNotice EventType = "session.subtitle_delay"

	// Playlist events
	EventPlayingItemChanged EventType = "playlist.playing_item"
	EventPlaylistUpdated    EventType = "playlist.updated"

	// Radio search events
	EventSearchCompleted EventType = "radio.search_completed"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

// newBaseEvent creates a new base event with the current timestamp.
func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// LoadStateChangedEvent is published when the session lifecycle state moves.
type LoadStateChangedEvent struct {
	baseEvent
	State LoadState
	URL   string
}

// Type returns the event type.
func (e LoadStateChangedEvent) Type() EventType {
	return EventLoadStateChanged
}

// NewLoadStateChangedEvent creates a new LoadStateChangedEvent.
func NewLoadStateChangedEvent(state LoadState, url string) LoadStateChangedEvent {
	return LoadStateChangedEvent{
		baseEvent: newBaseEvent(),
		State:     state,
		URL:       url,
	}
}

// MediaLoadedEvent is published once when a load settles and the session is
// ready (chapter list, track list and video probe requests are in flight).
type MediaLoadedEvent struct {
	baseEvent
	URL string
}

// Type returns the event type.
func (e MediaLoadedEvent) Type() EventType {
	return EventMediaLoaded
}

// NewMediaLoadedEvent creates a new MediaLoadedEvent.
func NewMediaLoadedEvent(url string) MediaLoadedEvent {
	return MediaLoadedEvent{
		baseEvent: newBaseEvent(),
		URL:       url,
	}
}

// EndOfFileEvent is published when the engine reports the end-of-file flag.
type EndOfFileEvent struct {
	baseEvent
	URL    string
	Action Action
}

// Type returns the event type.
func (e EndOfFileEvent) Type() EventType {
	return EventEndOfFile
}

// NewEndOfFileEvent creates a new EndOfFileEvent.
func NewEndOfFileEvent(url string, action Action) EndOfFileEvent {
	return EndOfFileEvent{
		baseEvent: newBaseEvent(),
		URL:       url,
		Action:    action,
	}
}

// PlaybackErrorEvent is a user-visible, non-fatal playback failure.
type PlaybackErrorEvent struct {
	baseEvent
	Message string
	Err     error
}

// Type returns the event type.
func (e PlaybackErrorEvent) Type() EventType {
	return EventPlaybackError
}

// NewPlaybackErrorEvent creates a new PlaybackErrorEvent.
func NewPlaybackErrorEvent(message string, err error) PlaybackErrorEvent {
	return PlaybackErrorEvent{
		baseEvent: newBaseEvent(),
		Message:   message,
		Err:       err,
	}
}

// TitleChangedEvent is published when the engine reports a new media title.
type TitleChangedEvent struct {
	baseEvent
	Title string
}

// Type returns the event type.
func (e TitleChangedEvent) Type() EventType {
	return EventTitleChanged
}

// NewTitleChangedEvent creates a new TitleChangedEvent.
func NewTitleChangedEvent(title string) TitleChangedEvent {
	return TitleChangedEvent{
		baseEvent: newBaseEvent(),
		Title:     title,
	}
}

// PositionChangedEvent carries the playback position in seconds together
// with its formatted representation for display surfaces.
type PositionChangedEvent struct {
	baseEvent
	Position  float64
	Formatted string
}

// Type returns the event type.
func (e PositionChangedEvent) Type() EventType {
	return EventPositionChanged
}

// NewPositionChangedEvent creates a new PositionChangedEvent.
func NewPositionChangedEvent(position float64) PositionChangedEvent {
	return PositionChangedEvent{
		baseEvent: newBaseEvent(),
		Position:  position,
		Formatted: FormatTime(position),
	}
}

// RemainingChangedEvent carries the remaining playback time in seconds.
type RemainingChangedEvent struct {
	baseEvent
	Remaining float64
	Formatted string
}

// Type returns the event type.
func (e RemainingChangedEvent) Type() EventType {
	return EventRemainingChanged
}

// NewRemainingChangedEvent creates a new RemainingChangedEvent.
func NewRemainingChangedEvent(remaining float64) RemainingChangedEvent {
	return RemainingChangedEvent{
		baseEvent: newBaseEvent(),
		Remaining: remaining,
		Formatted: FormatTime(remaining),
	}
}

// DurationChangedEvent carries the media duration in seconds.
type DurationChangedEvent struct {
	baseEvent
	Duration  float64
	Formatted string
}

// Type returns the event type.
func (e DurationChangedEvent) Type() EventType {
	return EventDurationChanged
}

// NewDurationChangedEvent creates a new DurationChangedEvent.
func NewDurationChangedEvent(duration float64) DurationChangedEvent {
	return DurationChangedEvent{
		baseEvent: newBaseEvent(),
		Duration:  duration,
		Formatted: FormatTime(duration),
	}
}

// PauseChangedEvent is published when the pause flag flips.
type PauseChangedEvent struct {
	baseEvent
	Paused bool
}

// Type returns the event type.
func (e PauseChangedEvent) Type() EventType {
	return EventPauseChanged
}

// NewPauseChangedEvent creates a new PauseChangedEvent.
func NewPauseChangedEvent(paused bool) PauseChangedEvent {
	return PauseChangedEvent{
		baseEvent: newBaseEvent(),
		Paused:    paused,
	}
}

// VolumeChangedEvent is published when the volume or its ceiling changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume    int64
	VolumeMax int64
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType {
	return EventVolumeChanged
}

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume, volumeMax int64) VolumeChangedEvent {
	return VolumeChangedEvent{
		baseEvent: newBaseEvent(),
		Volume:    volume,
		VolumeMax: volumeMax,
	}
}

// MuteChangedEvent is published when the mute flag flips.
type MuteChangedEvent struct {
	baseEvent
	Muted bool
}

// Type returns the event type.
func (e MuteChangedEvent) Type() EventType {
	return EventMuteChanged
}

// NewMuteChangedEvent creates a new MuteChangedEvent.
func NewMuteChangedEvent(muted bool) MuteChangedEvent {
	return MuteChangedEvent{
		baseEvent: newBaseEvent(),
		Muted:     muted,
	}
}

// VideoSizeChangedEvent is published when the engine reports video geometry.
type VideoSizeChangedEvent struct {
	baseEvent
	Width  int64
	Height int64
}

// Type returns the event type.
func (e VideoSizeChangedEvent) Type() EventType {
	return EventVideoSizeChanged
}

// NewVideoSizeChangedEvent creates a new VideoSizeChangedEvent.
func NewVideoSizeChangedEvent(width, height int64) VideoSizeChangedEvent {
	return VideoSizeChangedEvent{
		baseEvent: newBaseEvent(),
		Width:     width,
		Height:    height,
	}
}

// ChapterChangedEvent is published when the current chapter index moves.
type ChapterChangedEvent struct {
	baseEvent
	Index int64
}

// Type returns the event type.
func (e ChapterChangedEvent) Type() EventType {
	return EventChapterChanged
}

// NewChapterChangedEvent creates a new ChapterChangedEvent.
func NewChapterChangedEvent(index int64) ChapterChangedEvent {
	return ChapterChangedEvent{
		baseEvent: newBaseEvent(),
		Index:     index,
	}
}

// ChaptersUpdatedEvent carries a freshly ingested chapter list.
type ChaptersUpdatedEvent struct {
	baseEvent
	Chapters []Chapter
}

// Type returns the event type.
func (e ChaptersUpdatedEvent) Type() EventType {
	return EventChaptersUpdated
}

// NewChaptersUpdatedEvent creates a new ChaptersUpdatedEvent.
func NewChaptersUpdatedEvent(chapters []Chapter) ChaptersUpdatedEvent {
	return ChaptersUpdatedEvent{
		baseEvent: newBaseEvent(),
		Chapters:  chapters,
	}
}

// TracksUpdatedEvent carries freshly ingested audio and subtitle track lists.
type TracksUpdatedEvent struct {
	baseEvent
	Audio    []Track
	Subtitle []Track
}

// Type returns the event type.
func (e TracksUpdatedEvent) Type() EventType {
	return EventTracksUpdated
}

// NewTracksUpdatedEvent creates a new TracksUpdatedEvent.
func NewTracksUpdatedEvent(audio, subtitle []Track) TracksUpdatedEvent {
	return TracksUpdatedEvent{
		baseEvent: newBaseEvent(),
		Audio:     audio,
		Subtitle:  subtitle,
	}
}

// TrackSelectionKind distinguishes the selected-track id notifications.
type TrackSelectionKind int

const (
	// SelectionAudio is the active audio track id
	SelectionAudio TrackSelectionKind = iota

	// SelectionSubtitle is the active subtitle track id
	SelectionSubtitle

	// SelectionSecondarySubtitle is the active secondary subtitle track id
	SelectionSecondarySubtitle
)

// TrackSelectionEvent is published when one of the selected-track ids moves.
type TrackSelectionEvent struct {
	baseEvent
	Kind TrackSelectionKind
	ID   int64
}

// Type returns the event type.
func (e TrackSelectionEvent) Type() EventType {
	return EventTrackSelection
}

// NewTrackSelectionEvent creates a new TrackSelectionEvent.
func NewTrackSelectionEvent(kind TrackSelectionKind, id int64) TrackSelectionEvent {
	return TrackSelectionEvent{
		baseEvent: newBaseEvent(),
		Kind:      kind,
		ID:        id,
	}
}

// WatchPercentageEvent carries the derived watch percentage of the session.
type WatchPercentageEvent struct {
	baseEvent
	Percentage float64
}

// Type returns the event type.
func (e WatchPercentageEvent) Type() EventType {
	return EventWatchPercentage
}

// NewWatchPercentageEvent creates a new WatchPercentageEvent.
func NewWatchPercentageEvent(percentage float64) WatchPercentageEvent {
	return WatchPercentageEvent{
		baseEvent:  newBaseEvent(),
		Percentage: percentage,
	}
}

// OSDMessageEvent is a transient user-facing notification (skipped chapter,
// screenshot taken, subtitle delay change).
type OSDMessageEvent struct {
	baseEvent
	Message string
}

// Type returns the event type.
func (e OSDMessageEvent) Type() EventType {
	return EventOSDMessage
}

// NewOSDMessageEvent creates a new OSDMessageEvent.
func NewOSDMessageEvent(message string) OSDMessageEvent {
	return OSDMessageEvent{
		baseEvent: newBaseEvent(),
		Message:   message,
	}
}

// SubtitleDelayChangedEvent is published when the subtitle delay moves, in
// seconds (positive values show subtitles later).
type SubtitleDelayChangedEvent struct {
	baseEvent
	Delay float64
}

// Type returns the event type.
func (e SubtitleDelayChangedEvent) Type() EventType {
	return EventSubtitleDelayNotice
}

// NewSubtitleDelayChangedEvent creates a new SubtitleDelayChangedEvent.
func NewSubtitleDelayChangedEvent(delay float64) SubtitleDelayChangedEvent {
	return SubtitleDelayChangedEvent{
		baseEvent: newBaseEvent(),
		Delay:     delay,
	}
}

// PlayingItemChangedEvent is published by the playlist when the playing item
// moves; the session reacts by loading the new item.
type PlayingItemChangedEvent struct {
	baseEvent
	Item  MediaItem
	Index int
}

// Type returns the event type.
func (e PlayingItemChangedEvent) Type() EventType {
	return EventPlayingItemChanged
}

// NewPlayingItemChangedEvent creates a new PlayingItemChangedEvent.
func NewPlayingItemChangedEvent(item MediaItem, index int) PlayingItemChangedEvent {
	return PlayingItemChangedEvent{
		baseEvent: newBaseEvent(),
		Item:      item,
		Index:     index,
	}
}

// PlaylistUpdatedEvent is published when the playlist contents change.
type PlaylistUpdatedEvent struct {
	baseEvent
	Items []MediaItem
	Index int
}

// Type returns the event type.
func (e PlaylistUpdatedEvent) Type() EventType {
	return EventPlaylistUpdated
}

// NewPlaylistUpdatedEvent creates a new PlaylistUpdatedEvent.
func NewPlaylistUpdatedEvent(items []MediaItem, index int) PlaylistUpdatedEvent {
	return PlaylistUpdatedEvent{
		baseEvent: newBaseEvent(),
		Items:     items,
		Index:     index,
	}
}

// SearchCompletedEvent is published when a radio station search settles.
type SearchCompletedEvent struct {
	baseEvent
	Count int
}

// Type returns the event type.
func (e SearchCompletedEvent) Type() EventType {
	return EventSearchCompleted
}

// NewSearchCompletedEvent creates a new SearchCompletedEvent.
func NewSearchCompletedEvent(count int) SearchCompletedEvent {
	return SearchCompletedEvent{
		baseEvent: newBaseEvent(),
		Count:     count,
	}
}
