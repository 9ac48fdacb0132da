// Package ports defines the collaborator boundaries the session consumes.
package ports

import (
	"context"

	"github.com/cadenza-player/cadenza/internal/domain"
)

// Playlist is the session's view of the playback queue. The session never
// mutates the queue beyond cursor movement; the shell owns its contents.
//
// Thread-safety: implementations must be thread-safe.
type Playlist interface {
	// CurrentItem returns the item under the playing cursor.
	// The zero MediaItem is returned when the playlist is empty.
	CurrentItem() domain.MediaItem

	// PlayingIndex returns the playing cursor, -1 when nothing plays.
	PlayingIndex() int

	// IsLastItem reports whether index is the final playlist row.
	IsLastItem(index int) bool

	// RowCount returns the number of playlist rows.
	RowCount() int

	// PlayNext advances the playing cursor and announces the new item.
	PlayNext() error

	// PlayPrevious moves the playing cursor back and announces the new item.
	PlayPrevious() error

	// SetPlayingItem moves the playing cursor to index and announces it.
	SetPlayingItem(index int) error
}

// Settings is the read-only configuration surface the session consumes.
// Values may change between reads; the session re-reads on every decision.
type Settings interface {
	// RestoreFilePosition reports whether saved positions are restored on load.
	RestoreFilePosition() bool

	// PlayOnResume reports whether restored media starts playing immediately.
	PlayOnResume() bool

	// MinDurationToSavePosition is the minimum media length, in minutes,
	// for which positions are persisted.
	MinDurationToSavePosition() int

	// SavePositionInterval is the checkpoint timer interval in seconds.
	SavePositionInterval() int

	// SkipChapters reports whether chapter skipping is enabled.
	SkipChapters() bool

	// ChaptersToSkip is the comma-separated list of title substrings.
	ChaptersToSkip() string

	// ShowOsdOnSkipChapters reports whether skips raise an OSD notice.
	ShowOsdOnSkipChapters() bool

	// PlaybackBehavior is the configured end-of-file progression mode.
	PlaybackBehavior() domain.PlaybackBehavior

	// OpenLastPlayedFile reports whether startup resumes the last session.
	OpenLastPlayedFile() bool

	// LastPlayedFile is the identity persisted by the previous session.
	LastPlayedFile() string

	// SetLastPlayedFile persists the identity for session resumption.
	SetLastPlayedFile(identity string)

	// RecursiveSubtitleSearch reports whether loads trigger a subtitle scan.
	RecursiveSubtitleSearch() bool

	// DefaultCover is the image attached when an audio file has no video track.
	DefaultCover() string
}

// DurationProber extracts a media duration for local files whose duration the
// playlist does not know. Implementations sniff the MIME type to pick a parser.
type DurationProber interface {
	// Duration returns the media duration in seconds, 0 when unknown.
	Duration(path string) float64

	// MimeType returns the detected MIME type, empty when undetectable.
	MimeType(path string) string
}

// SubtitleFinder locates external subtitle files for a media identity.
// A superseding load cancels the context of the previous search.
type SubtitleFinder interface {
	// Find returns subtitle file paths related to the given local media path.
	Find(ctx context.Context, mediaPath string) ([]string, error)
}
