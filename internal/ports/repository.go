// Package ports defines repository interfaces for data persistence abstraction.
package ports

import (
	"github.com/cadenza-player/cadenza/internal/domain"
)

// PositionRepository persists playback positions keyed by content key.
// Absence is a valid "no memory" state, never an error; write failures are
// best-effort and must not surface into playback.
//
// Thread-safety: implementations must be thread-safe. Writes may be applied
// asynchronously on a background worker; Flush forces completion.
type PositionRepository interface {
	// Position returns the stored position for key, or 0.0 when absent or
	// when the read fails (the failure is logged by the implementation).
	Position(key string) float64

	// SavePosition creates or overwrites the position row for key.
	// The identity string is stored alongside for inspection/debugging.
	// Fire-and-forget: errors are logged, not returned.
	SavePosition(key, identity string, position float64)

	// DeletePosition removes the row for key. Deleting a missing key is a
	// no-op success. Fire-and-forget like SavePosition.
	DeletePosition(key string)

	// Flush blocks until all queued writes have been applied.
	Flush()
}

// RecentFilesRepository persists the recently-played history.
//
// Thread-safety: implementations must be thread-safe.
type RecentFilesRepository interface {
	// AddRecentFile upserts an entry keyed by URL, refreshing its
	// opened-from source and timestamp.
	AddRecentFile(entry domain.RecentFile)

	// RecentFiles returns up to limit entries, newest first.
	RecentFiles(limit int) []domain.RecentFile

	// ClearRecentFiles removes all history entries.
	ClearRecentFiles()
}
