// Package domain contains core business models and logic with no external dependencies.
// This package defines the fundamental entities of the Cadenza playback core.
package domain

import (
	"fmt"
	"math"
	"strings"
)

// MediaItem identifies a playable resource together with the metadata the
// playlist already knows about it. URL is the opaque media identity: a local
// path, a file:// URL, or a network stream URL.
type MediaItem struct {
	// URL is the media identity string used for content-key derivation
	URL string

	// Title is the display title (filename or stream title)
	Title string

	// Duration is the known duration in seconds (0 when unknown)
	Duration float64
}

// IsLocal reports whether the identity refers to a local file path rather
// than a network stream.
func (m MediaItem) IsLocal() bool {
	return IsLocalPath(m.URL)
}

// IsLocalPath reports whether identity looks like a local file path.
// Anything without a scheme, and file:// URLs, are treated as local.
func IsLocalPath(identity string) bool {
	if strings.HasPrefix(identity, "file://") {
		return true
	}
	return !strings.Contains(identity, "://")
}

// LocalPath strips the file:// scheme from a local identity. Identities that
// are already plain paths are returned unchanged.
func LocalPath(identity string) string {
	return strings.TrimPrefix(identity, "file://")
}

// LoadState is the lifecycle state of a playback session.
type LoadState int

const (
	// LoadStateIdle means no media has been requested
	LoadStateIdle LoadState = iota

	// LoadStateLoading means a load command was issued and has not settled
	LoadStateLoading

	// LoadStateReady means the engine finished loading and playback can proceed
	LoadStateReady

	// LoadStateEnded means playback reached end-of-file and stopped
	LoadStateEnded

	// LoadStateError means the load or playback failed
	LoadStateError
)

// String returns a human-readable representation of the load state.
func (s LoadState) String() string {
	switch s {
	case LoadStateIdle:
		return "idle"
	case LoadStateLoading:
		return "loading"
	case LoadStateReady:
		return "ready"
	case LoadStateEnded:
		return "ended"
	case LoadStateError:
		return "error"
	default:
		return "unknown"
	}
}

// Track describes a single audio or subtitle track exposed by the engine.
type Track struct {
	// ID is the engine-side track identifier (0 means "none")
	ID int64

	// Language is the track language code, if tagged
	Language string

	// Title is the track title, if tagged
	Title string

	// Codec is the codec name reported by the engine
	Codec string
}

// Chapter is a single entry of a media file's chapter list.
type Chapter struct {
	// Title is the chapter title
	Title string

	// StartTime is the chapter start offset in seconds
	StartTime float64
}

// PlaybackBehavior selects what happens when the current item reaches
// end-of-file. It is external read-only configuration for the session.
type PlaybackBehavior int

const (
	// BehaviorAdvance plays the next playlist item (default)
	BehaviorAdvance PlaybackBehavior = iota

	// BehaviorStopAfterLast stops after the last playlist item
	BehaviorStopAfterLast

	// BehaviorStopAfterItem stops after every item
	BehaviorStopAfterItem

	// BehaviorRepeatItem repeats the current item
	BehaviorRepeatItem

	// BehaviorRepeatPlaylist restarts the playlist after the last item
	BehaviorRepeatPlaylist
)

// String returns the canonical configuration name of the behavior.
func (b PlaybackBehavior) String() string {
	switch b {
	case BehaviorStopAfterLast:
		return "StopAfterLast"
	case BehaviorStopAfterItem:
		return "StopAfterItem"
	case BehaviorRepeatItem:
		return "RepeatItem"
	case BehaviorRepeatPlaylist:
		return "RepeatPlaylist"
	default:
		return "Advance"
	}
}

// ParsePlaybackBehavior maps a configuration string to a behavior.
// Unknown values fall back to BehaviorAdvance.
func ParsePlaybackBehavior(s string) PlaybackBehavior {
	switch s {
	case "StopAfterLast":
		return BehaviorStopAfterLast
	case "StopAfterItem":
		return BehaviorStopAfterItem
	case "RepeatItem":
		return BehaviorRepeatItem
	case "RepeatPlaylist":
		return BehaviorRepeatPlaylist
	default:
		return BehaviorAdvance
	}
}

// Action is the outcome of the playlist progression policy after end-of-file.
type Action int

const (
	// ActionAdvanceNext loads the next playlist item
	ActionAdvanceNext Action = iota

	// ActionStopAtZero seeks to zero and pauses
	ActionStopAtZero

	// ActionRepeatCurrent seeks to zero and keeps playing
	ActionRepeatCurrent
)

// String returns a human-readable representation of the action.
func (a Action) String() string {
	switch a {
	case ActionStopAtZero:
		return "stop-at-zero"
	case ActionRepeatCurrent:
		return "repeat-current"
	default:
		return "advance-next"
	}
}

// RecentFile is one entry of the recently-played history.
type RecentFile struct {
	// URL is the media identity
	URL string

	// Filename is the display name recorded at open time
	Filename string

	// OpenedFrom records how the file was opened (playlist, external, resume)
	OpenedFrom string

	// Timestamp is the unix time of the last open
	Timestamp int64
}

// Sources for RecentFile.OpenedFrom.
const (
	OpenedFromPlaylist    = "playlist"
	OpenedFromExternalApp = "external"
	OpenedFromResume      = "resume"
)

// FormatTime renders a position in seconds as hh:mm:ss.
// Negative, NaN and infinite inputs render as 00:00:00.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
