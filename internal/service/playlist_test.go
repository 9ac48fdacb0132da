package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenza-player/cadenza/internal/adapter/eventbus"
	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/logger"
)

func newTestPlaylist(t *testing.T, settings *fakeSettings) (*PlaylistService, *eventRecorder) {
	t.Helper()

	if settings == nil {
		settings = &fakeSettings{}
	}
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	t.Cleanup(func() { _ = bus.Close() })

	recorder := recordEvents(bus)
	return NewPlaylistService(logger.NewTestLogger(), bus, settings), recorder
}

func item(url string) domain.MediaItem {
	return domain.MediaItem{URL: url, Title: url}
}

func TestPlaylistAddAndCount(t *testing.T) {
	playlist, recorder := newTestPlaylist(t, nil)

	playlist.Add(item("a"))
	playlist.AddItems([]domain.MediaItem{item("b"), item("c")})

	assert.Equal(t, 3, playlist.RowCount())
	assert.Equal(t, -1, playlist.PlayingIndex())
	assert.Len(t, recorder.ofType(domain.EventPlaylistUpdated), 2)
}

func TestPlaylistSetPlayingItem(t *testing.T) {
	playlist, recorder := newTestPlaylist(t, nil)
	playlist.AddItems([]domain.MediaItem{item("a"), item("b")})

	require.NoError(t, playlist.SetPlayingItem(1))

	assert.Equal(t, 1, playlist.PlayingIndex())
	assert.Equal(t, "b", playlist.CurrentItem().URL)

	changes := recorder.ofType(domain.EventPlayingItemChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, "b", changes[0].(domain.PlayingItemChangedEvent).Item.URL)
}

func TestPlaylistSetPlayingItemOutOfRange(t *testing.T) {
	playlist, _ := newTestPlaylist(t, nil)
	playlist.Add(item("a"))

	assert.ErrorIs(t, playlist.SetPlayingItem(5), domain.ErrInvalidIndex)
	assert.ErrorIs(t, playlist.SetPlayingItem(-1), domain.ErrInvalidIndex)
}

func TestPlaylistPlayNext(t *testing.T) {
	playlist, _ := newTestPlaylist(t, nil)
	playlist.AddItems([]domain.MediaItem{item("a"), item("b")})
	require.NoError(t, playlist.SetPlayingItem(0))

	require.NoError(t, playlist.PlayNext())

	assert.Equal(t, 1, playlist.PlayingIndex())
}

func TestPlaylistPlayNextAtEndStays(t *testing.T) {
	playlist, recorder := newTestPlaylist(t, nil)
	playlist.AddItems([]domain.MediaItem{item("a"), item("b")})
	require.NoError(t, playlist.SetPlayingItem(1))

	require.NoError(t, playlist.PlayNext())

	assert.Equal(t, 1, playlist.PlayingIndex())
	assert.Len(t, recorder.ofType(domain.EventPlayingItemChanged), 1)
}

func TestPlaylistPlayNextWrapsOnRepeat(t *testing.T) {
	playlist, _ := newTestPlaylist(t, &fakeSettings{behavior: domain.BehaviorRepeatPlaylist})
	playlist.AddItems([]domain.MediaItem{item("a"), item("b")})
	require.NoError(t, playlist.SetPlayingItem(1))

	require.NoError(t, playlist.PlayNext())

	assert.Equal(t, 0, playlist.PlayingIndex())
}

func TestPlaylistPlayNextEmpty(t *testing.T) {
	playlist, _ := newTestPlaylist(t, nil)

	assert.ErrorIs(t, playlist.PlayNext(), domain.ErrPlaylistEmpty)
}

func TestPlaylistPlayPrevious(t *testing.T) {
	playlist, _ := newTestPlaylist(t, nil)
	playlist.AddItems([]domain.MediaItem{item("a"), item("b")})
	require.NoError(t, playlist.SetPlayingItem(1))

	require.NoError(t, playlist.PlayPrevious())
	assert.Equal(t, 0, playlist.PlayingIndex())

	// at the first row another previous is a no-op
	require.NoError(t, playlist.PlayPrevious())
	assert.Equal(t, 0, playlist.PlayingIndex())
}

func TestPlaylistIsLastItem(t *testing.T) {
	playlist, _ := newTestPlaylist(t, nil)

	assert.False(t, playlist.IsLastItem(0))

	playlist.AddItems([]domain.MediaItem{item("a"), item("b")})
	assert.False(t, playlist.IsLastItem(0))
	assert.True(t, playlist.IsLastItem(1))
}

func TestPlaylistRemove(t *testing.T) {
	playlist, _ := newTestPlaylist(t, nil)
	playlist.AddItems([]domain.MediaItem{item("a"), item("b"), item("c")})
	require.NoError(t, playlist.SetPlayingItem(2))

	// removing an earlier row shifts the cursor back with its item
	require.NoError(t, playlist.Remove(0))
	assert.Equal(t, 1, playlist.PlayingIndex())
	assert.Equal(t, "c", playlist.CurrentItem().URL)

	// removing the playing last row clamps the cursor
	require.NoError(t, playlist.Remove(1))
	assert.Equal(t, 0, playlist.PlayingIndex())
	assert.Equal(t, "b", playlist.CurrentItem().URL)

	assert.ErrorIs(t, playlist.Remove(9), domain.ErrInvalidIndex)
}

func TestPlaylistClear(t *testing.T) {
	playlist, _ := newTestPlaylist(t, nil)
	playlist.AddItems([]domain.MediaItem{item("a"), item("b")})
	require.NoError(t, playlist.SetPlayingItem(0))

	playlist.Clear()

	assert.Zero(t, playlist.RowCount())
	assert.Equal(t, -1, playlist.PlayingIndex())
	assert.Empty(t, playlist.CurrentItem().URL)
}

func TestPlaylistItemsIsACopy(t *testing.T) {
	playlist, _ := newTestPlaylist(t, nil)
	playlist.Add(item("a"))

	items := playlist.Items()
	items[0].URL = "mutated"

	assert.Equal(t, "a", playlist.Items()[0].URL)
}
