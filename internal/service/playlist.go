package service

import (
	"log/slog"
	"sync"

	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/ports"
)

// PlaylistService owns the playback queue and the playing cursor. Cursor
// moves are announced on the event bus; the session follows by loading the
// announced item.
//
// Thread-safety: This implementation is thread-safe.
type PlaylistService struct {
	logger   *slog.Logger
	bus      ports.EventBus
	settings ports.Settings

	mu      sync.RWMutex
	items   []domain.MediaItem
	playing int
}

// NewPlaylistService creates an empty playlist.
func NewPlaylistService(logger *slog.Logger, bus ports.EventBus, settings ports.Settings) *PlaylistService {
	return &PlaylistService{
		logger:   logger,
		bus:      bus,
		settings: settings,
		playing:  -1,
	}
}

// Add appends an item to the queue.
func (p *PlaylistService) Add(item domain.MediaItem) {
	p.mu.Lock()
	p.items = append(p.items, item)
	items, index := p.snapshotLocked()
	p.mu.Unlock()

	p.bus.Publish(domain.NewPlaylistUpdatedEvent(items, index))
}

// AddItems appends several items at once, announcing a single update.
func (p *PlaylistService) AddItems(newItems []domain.MediaItem) {
	if len(newItems) == 0 {
		return
	}

	p.mu.Lock()
	p.items = append(p.items, newItems...)
	items, index := p.snapshotLocked()
	p.mu.Unlock()

	p.bus.Publish(domain.NewPlaylistUpdatedEvent(items, index))
}

// Remove deletes the item at index. Removing the playing item keeps the
// cursor in place so the next row takes its slot; removing an earlier row
// shifts the cursor back with it.
func (p *PlaylistService) Remove(index int) error {
	p.mu.Lock()
	if index < 0 || index >= len(p.items) {
		p.mu.Unlock()
		return domain.ErrInvalidIndex
	}

	p.items = append(p.items[:index], p.items[index+1:]...)
	switch {
	case index < p.playing:
		p.playing--
	case index == p.playing && p.playing >= len(p.items):
		p.playing = len(p.items) - 1
	}
	items, playing := p.snapshotLocked()
	p.mu.Unlock()

	p.bus.Publish(domain.NewPlaylistUpdatedEvent(items, playing))
	return nil
}

// Clear empties the queue and resets the cursor.
func (p *PlaylistService) Clear() {
	p.mu.Lock()
	p.items = nil
	p.playing = -1
	p.mu.Unlock()

	p.bus.Publish(domain.NewPlaylistUpdatedEvent(nil, -1))
}

// Items returns a copy of the queue.
func (p *PlaylistService) Items() []domain.MediaItem {
	p.mu.RLock()
	defer p.mu.RUnlock()

	items := make([]domain.MediaItem, len(p.items))
	copy(items, p.items)
	return items
}

// CurrentItem returns the item under the playing cursor, or the zero item
// when nothing plays.
func (p *PlaylistService) CurrentItem() domain.MediaItem {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.playing < 0 || p.playing >= len(p.items) {
		return domain.MediaItem{}
	}
	return p.items[p.playing]
}

// PlayingIndex returns the playing cursor, -1 when nothing plays.
func (p *PlaylistService) PlayingIndex() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}

// IsLastItem reports whether index is the final row.
func (p *PlaylistService) IsLastItem(index int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items) > 0 && index == len(p.items)-1
}

// RowCount returns the number of rows.
func (p *PlaylistService) RowCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

// SetPlayingItem moves the cursor to index and announces the new item.
func (p *PlaylistService) SetPlayingItem(index int) error {
	p.mu.Lock()
	if index < 0 || index >= len(p.items) {
		p.mu.Unlock()
		return domain.ErrInvalidIndex
	}
	p.playing = index
	item := p.items[index]
	p.mu.Unlock()

	p.logger.Debug("playing item changed",
		slog.Int("index", index),
		slog.String("url", item.URL))
	p.bus.Publish(domain.NewPlayingItemChangedEvent(item, index))
	return nil
}

// PlayNext advances the cursor. Past the last row the cursor wraps to the
// first row when the repeat-playlist behavior is active, otherwise the call
// is a no-op.
func (p *PlaylistService) PlayNext() error {
	p.mu.RLock()
	next := p.playing + 1
	count := len(p.items)
	p.mu.RUnlock()

	if count == 0 {
		return domain.ErrPlaylistEmpty
	}
	if next >= count {
		if p.settings.PlaybackBehavior() != domain.BehaviorRepeatPlaylist {
			return nil
		}
		next = 0
	}
	return p.SetPlayingItem(next)
}

// PlayPrevious moves the cursor back one row. At the first row the call is
// a no-op.
func (p *PlaylistService) PlayPrevious() error {
	p.mu.RLock()
	previous := p.playing - 1
	count := len(p.items)
	p.mu.RUnlock()

	if count == 0 {
		return domain.ErrPlaylistEmpty
	}
	if previous < 0 {
		return nil
	}
	return p.SetPlayingItem(previous)
}

// snapshotLocked copies the queue for event payloads. Caller must hold mu.
func (p *PlaylistService) snapshotLocked() ([]domain.MediaItem, int) {
	items := make([]domain.MediaItem, len(p.items))
	copy(items, p.items)
	return items, p.playing
}

// Verify that PlaylistService implements the Playlist interface
var _ ports.Playlist = (*PlaylistService)(nil)
