// Package service provides the playback business logic for Cadenza.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/mediakey"
	"github.com/cadenza-player/cadenza/internal/ports"
)

// endThreshold is how close to the end, in seconds, a position counts as
// "finished": at that point the stored position is deleted instead of saved.
const endThreshold = 10.0

// SessionService owns the playback session: current media identity, load
// lifecycle, end-of-file policy resolution, periodic position checkpointing
// and track/chapter list ingestion.
//
// All engine notifications and the checkpoint timer are serialized through a
// single dispatch goroutine, so no two notification handlers ever run
// concurrently. Public operations are thread-safe via sync.RWMutex and may
// interleave with the dispatch goroutine.
type SessionService struct {
	// Dependencies (injected)
	logger    *slog.Logger
	engine    ports.PlayerEngine
	bus       ports.EventBus
	positions ports.PositionRepository
	recents   ports.RecentFilesRepository
	playlist  ports.Playlist
	settings  ports.Settings
	prober    ports.DurationProber
	subtitles ports.SubtitleFinder

	// Session state, guarded by mu
	mu                 sync.RWMutex
	currentURL         string
	loadState          domain.LoadState
	mediaTitle         string
	position           float64
	remaining          float64
	duration           float64
	paused             bool
	muted              bool
	volume             int64
	volumeMax          int64
	audioID            int64
	subtitleID         int64
	secondarySubID     int64
	videoWidth         int64
	videoHeight        int64
	chapter            int64
	chapters           []domain.Chapter
	audioTracks        []domain.Track
	subtitleTracks     []domain.Track
	eofReached         bool
	finishedLoading    bool
	watchLaterPosition float64
	watchPercentage    float64
	secondsWatched     map[int]struct{}

	// Dispatch lifecycle
	runCtx    context.Context
	runCancel context.CancelFunc
	wg        sync.WaitGroup
	started   bool
}

// SessionDeps bundles the collaborators a session needs.
type SessionDeps struct {
	Logger    *slog.Logger
	Engine    ports.PlayerEngine
	Bus       ports.EventBus
	Positions ports.PositionRepository
	Recents   ports.RecentFilesRepository
	Playlist  ports.Playlist
	Settings  ports.Settings
	Prober    ports.DurationProber
	Subtitles ports.SubtitleFinder
}

// NewSessionService creates a new playback session service.
// Call Start to subscribe to the engine and begin dispatching.
func NewSessionService(deps SessionDeps) *SessionService {
	ctx, cancel := context.WithCancel(context.Background())

	s := &SessionService{
		logger:         deps.Logger,
		engine:         deps.Engine,
		bus:            deps.Bus,
		positions:      deps.Positions,
		recents:        deps.Recents,
		playlist:       deps.Playlist,
		settings:       deps.Settings,
		prober:         deps.Prober,
		subtitles:      deps.Subtitles,
		loadState:      domain.LoadStateIdle,
		secondsWatched: make(map[int]struct{}),
		runCtx:         ctx,
		runCancel:      cancel,
	}

	deps.Logger.Debug("session service initialized")

	return s
}

// observedProperties is the fixed set of engine properties the session
// tracks, with their decoding hints.
var observedProperties = []struct {
	name   string
	format ports.PropertyFormat
}{
	{ports.PropMediaTitle, ports.FormatString},
	{ports.PropPosition, ports.FormatDouble},
	{ports.PropRemaining, ports.FormatDouble},
	{ports.PropDuration, ports.FormatDouble},
	{ports.PropPause, ports.FormatFlag},
	{ports.PropVolume, ports.FormatInt64},
	{ports.PropVolumeMax, ports.FormatInt64},
	{ports.PropMute, ports.FormatFlag},
	{ports.PropAudioID, ports.FormatInt64},
	{ports.PropSubtitleID, ports.FormatInt64},
	{ports.PropSecondarySubtitleID, ports.FormatInt64},
	{ports.PropWidth, ports.FormatNode},
	{ports.PropHeight, ports.FormatNode},
	{ports.PropChapter, ports.FormatInt64},
	{ports.PropChapterList, ports.FormatNode},
	{ports.PropTracksCount, ports.FormatNode},
	{ports.PropSubtitleDelay, ports.FormatDouble},
	{ports.PropEOFReached, ports.FormatFlag},
}

// Start subscribes to engine properties, registers the playlist listener and
// launches the dispatch goroutine. Calling Start twice is a no-op.
func (s *SessionService) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	for _, prop := range observedProperties {
		if err := s.engine.ObserveProperty(prop.name, prop.format); err != nil {
			// leave the session startable so the caller can retry
			s.mu.Lock()
			s.started = false
			s.mu.Unlock()
			return fmt.Errorf("observe %s: %w", prop.name, err)
		}
	}

	// the playlist announces cursor moves; the session follows by loading
	s.bus.Subscribe(domain.EventPlayingItemChanged, func(event domain.Event) {
		change, ok := event.(domain.PlayingItemChangedEvent)
		if !ok {
			return
		}
		if err := s.Load(change.Item.URL, domain.OpenedFromPlaylist); err != nil {
			s.logger.Warn("failed to load playlist item",
				slog.String("url", change.Item.URL),
				slog.Any("error", err))
		}
	})

	s.wg.Add(1)
	go s.run()

	return nil
}

// run is the dispatch goroutine: engine notifications and checkpoint ticks
// are serialized here.
func (s *SessionService) run() {
	defer s.wg.Done()

	interval := time.Duration(s.settings.SavePositionInterval()) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.runCtx.Done():
			return

		case event, ok := <-s.engine.Events():
			if !ok {
				return
			}
			s.handleEngineEvent(event)

		case <-ticker.C:
			s.onCheckpointTick()
		}
	}
}

// handleEngineEvent routes one decoded engine notification.
func (s *SessionService) handleEngineEvent(event ports.EngineEvent) {
	switch event.Kind {
	case ports.EnginePropertyChange:
		s.onPropertyChanged(event.Name, event.Value)
	case ports.EngineFileStarted:
		s.logger.Debug("engine started loading file")
	case ports.EngineFileLoaded:
		s.onFileLoaded()
	case ports.EngineEndFile:
		s.onEndFile(event.Reason)
	case ports.EngineVideoReconfig:
		s.logger.Debug("video reconfigured")
	case ports.EngineAsyncReply:
		s.onAsyncReply(event.Tag, event.Data, event.Err)
	}
}

// propertyHandler applies one property notification to session state.
type propertyHandler func(s *SessionService, value any)

// propertyHandlers is the dispatch table from property name to state update.
var propertyHandlers = map[string]propertyHandler{
	ports.PropMediaTitle: func(s *SessionService, value any) {
		s.mu.Lock()
		s.mediaTitle = asString(value)
		title := s.mediaTitle
		s.mu.Unlock()
		s.bus.Publish(domain.NewTitleChangedEvent(title))
	},
	ports.PropPosition: func(s *SessionService, value any) {
		position := asFloat(value)
		s.mu.Lock()
		s.position = position
		s.trackWatchedSecondLocked(position)
		percentage := s.watchPercentage
		s.mu.Unlock()
		s.bus.Publish(domain.NewPositionChangedEvent(position))
		if percentage > 0 {
			s.bus.Publish(domain.NewWatchPercentageEvent(percentage))
		}
	},
	ports.PropRemaining: func(s *SessionService, value any) {
		remaining := asFloat(value)
		s.mu.Lock()
		s.remaining = remaining
		s.mu.Unlock()
		s.bus.Publish(domain.NewRemainingChangedEvent(remaining))
	},
	ports.PropDuration: func(s *SessionService, value any) {
		duration := asFloat(value)
		s.mu.Lock()
		s.duration = duration
		s.mu.Unlock()
		s.bus.Publish(domain.NewDurationChangedEvent(duration))
	},
	ports.PropPause: func(s *SessionService, value any) {
		paused := asBool(value)
		s.mu.Lock()
		s.paused = paused
		s.mu.Unlock()
		s.bus.Publish(domain.NewPauseChangedEvent(paused))
	},
	ports.PropVolume: func(s *SessionService, value any) {
		s.mu.Lock()
		s.volume = asInt64(value)
		volume, volumeMax := s.volume, s.volumeMax
		s.mu.Unlock()
		s.bus.Publish(domain.NewVolumeChangedEvent(volume, volumeMax))
	},
	ports.PropVolumeMax: func(s *SessionService, value any) {
		s.mu.Lock()
		s.volumeMax = asInt64(value)
		volume, volumeMax := s.volume, s.volumeMax
		s.mu.Unlock()
		s.bus.Publish(domain.NewVolumeChangedEvent(volume, volumeMax))
	},
	ports.PropMute: func(s *SessionService, value any) {
		muted := asBool(value)
		s.mu.Lock()
		s.muted = muted
		s.mu.Unlock()
		s.bus.Publish(domain.NewMuteChangedEvent(muted))
	},
	ports.PropAudioID: func(s *SessionService, value any) {
		id := asInt64(value)
		s.mu.Lock()
		s.audioID = id
		s.mu.Unlock()
		s.bus.Publish(domain.NewTrackSelectionEvent(domain.SelectionAudio, id))
	},
	ports.PropSubtitleID: func(s *SessionService, value any) {
		id := asInt64(value)
		s.mu.Lock()
		s.subtitleID = id
		s.mu.Unlock()
		s.bus.Publish(domain.NewTrackSelectionEvent(domain.SelectionSubtitle, id))
	},
	ports.PropSecondarySubtitleID: func(s *SessionService, value any) {
		id := asInt64(value)
		s.mu.Lock()
		s.secondarySubID = id
		s.mu.Unlock()
		s.bus.Publish(domain.NewTrackSelectionEvent(domain.SelectionSecondarySubtitle, id))
	},
	ports.PropWidth: func(s *SessionService, value any) {
		s.mu.Lock()
		s.videoWidth = asInt64(value)
		width, height := s.videoWidth, s.videoHeight
		s.mu.Unlock()
		s.bus.Publish(domain.NewVideoSizeChangedEvent(width, height))
	},
	ports.PropHeight: func(s *SessionService, value any) {
		s.mu.Lock()
		s.videoHeight = asInt64(value)
		width, height := s.videoWidth, s.videoHeight
		s.mu.Unlock()
		s.bus.Publish(domain.NewVideoSizeChangedEvent(width, height))
	},
	ports.PropChapter: func(s *SessionService, value any) {
		index := asInt64(value)
		s.mu.Lock()
		s.chapter = index
		s.mu.Unlock()
		s.bus.Publish(domain.NewChapterChangedEvent(index))
		s.onChapterChanged()
	},
	ports.PropChapterList: func(s *SessionService, value any) {
		if list, ok := value.([]any); ok {
			s.ingestChapters(list)
		}
	},
	ports.PropTracksCount: func(s *SessionService, value any) {
		// count changes when tracks are added externally; refetch the list
		if err := s.engine.GetPropertyAsync(ports.PropTrackList, ports.TagTrackList); err != nil {
			s.logger.Warn("failed to refetch track list", slog.Any("error", err))
		}
	},
	ports.PropSubtitleDelay: func(s *SessionService, value any) {
		delay := asFloat(value)
		s.bus.Publish(domain.NewSubtitleDelayChangedEvent(delay))
		s.bus.Publish(domain.NewOSDMessageEvent(formatSubtitleDelay(delay)))
	},
	ports.PropEOFReached: func(s *SessionService, value any) {
		reached := asBool(value)
		s.mu.Lock()
		wasReached := s.eofReached
		s.eofReached = reached
		ready := s.loadState == domain.LoadStateReady
		s.mu.Unlock()
		if reached && !wasReached && ready {
			s.onEndOfFileReached()
		}
	},
}

// formatSubtitleDelay renders a subtitle delay notice with an explicit sign.
func formatSubtitleDelay(delay float64) string {
	return fmt.Sprintf("Subtitle timing: %+.2f seconds", delay)
}

// onPropertyChanged dispatches one property notification through the table.
func (s *SessionService) onPropertyChanged(name string, value any) {
	handler, ok := propertyHandlers[name]
	if !ok {
		s.logger.Debug("unhandled property change", slog.String("property", name))
		return
	}
	handler(s, value)
}

// trackWatchedSecondLocked records a visited whole second and recomputes the
// watch percentage. Caller must hold mu.
func (s *SessionService) trackWatchedSecondLocked(position float64) {
	second := int(position)
	if _, visited := s.secondsWatched[second]; visited {
		return
	}
	s.secondsWatched[second] = struct{}{}
	if s.duration != 0 {
		s.watchPercentage = float64(len(s.secondsWatched)) * 100 / s.duration
	}
}

// Load loads a new media identity into the session. Loading the identity that
// is already current is a no-op unless the previous load failed or ended.
// openedFrom records how the media was opened for the recent-files history.
func (s *SessionService) Load(identity string, openedFrom string) error {
	s.mu.Lock()
	events, err := s.loadLocked(identity, openedFrom, false)
	s.mu.Unlock()

	s.publish(events)
	return err
}

// Reload forces a fresh load of the current identity.
func (s *SessionService) Reload() error {
	s.mu.Lock()
	if s.currentURL == "" {
		s.mu.Unlock()
		return domain.ErrNoMediaLoaded
	}
	events, err := s.loadLocked(s.currentURL, domain.OpenedFromResume, true)
	s.mu.Unlock()

	s.publish(events)
	return err
}

// publish delivers queued events once the caller released mu, so a subscriber
// on the synchronous bus can call back into the session without deadlocking.
func (s *SessionService) publish(events []domain.Event) {
	for _, event := range events {
		s.bus.Publish(event)
	}
}

// loadLocked drives a load. Caller must hold mu; the returned events are
// published by the caller after unlocking.
func (s *SessionService) loadLocked(identity string, openedFrom string, force bool) ([]domain.Event, error) {
	if identity == s.currentURL && !force {
		switch s.loadState {
		case domain.LoadStateLoading, domain.LoadStateReady:
			s.logger.Debug("ignoring reload of current media", slog.String("url", identity))
			return nil, nil
		}
	}

	// keep-open must stay on for the end-of-file policy to see the eof flag
	// before the file is unloaded
	s.engine.SetProperty(ports.PropKeepOpen, "always")

	if domain.IsLocalPath(identity) && !localFileExists(identity) {
		s.currentURL = ""
		s.loadState = domain.LoadStateIdle
		s.logger.Warn("file does not exist", slog.String("path", identity))
		events := []domain.Event{domain.NewPlaybackErrorEvent(
			fmt.Sprintf("File doesn't exist: %s", identity), domain.ErrFileNotFound)}
		return events, domain.ErrFileNotFound
	}

	if identity != s.currentURL {
		s.currentURL = identity
		s.resetTransientLocked()
	}
	s.loadState = domain.LoadStateLoading
	s.finishedLoading = false
	events := []domain.Event{domain.NewLoadStateChangedEvent(domain.LoadStateLoading, identity)}

	// mute while loading to avoid a popping sound, restore afterwards
	previousMute := s.muted
	if err := s.engine.SetPropertyBlocking(ports.PropMute, true); err != nil {
		s.logger.Warn("failed to mute before load", slog.Any("error", err))
	}

	s.watchLaterPosition = s.restorePositionLocked(identity)
	if s.settings.RestoreFilePosition() {
		start := "+" + strconv.FormatFloat(s.watchLaterPosition, 'f', -1, 64)
		if err := s.engine.SetPropertyBlocking(ports.PropStart, start); err != nil {
			s.logger.Warn("failed to set start offset", slog.Any("error", err))
		}
	}

	s.engine.Command("loadfile", identity)

	pause := false
	if s.settings.RestoreFilePosition() {
		pause = !s.settings.PlayOnResume() && s.watchLaterPosition > 1
	}
	if err := s.engine.SetPropertyBlocking(ports.PropPause, pause); err != nil {
		s.logger.Warn("failed to set initial pause", slog.Any("error", err))
	}
	if err := s.engine.SetPropertyBlocking(ports.PropMute, previousMute); err != nil {
		s.logger.Warn("failed to restore mute", slog.Any("error", err))
	}

	if s.settings.RecursiveSubtitleSearch() && s.subtitles != nil && domain.IsLocalPath(identity) {
		s.searchSubtitles(identity)
	}

	s.settings.SetLastPlayedFile(identity)
	if s.recents != nil {
		s.recents.AddRecentFile(domain.RecentFile{
			URL:        identity,
			Filename:   displayName(identity),
			OpenedFrom: openedFrom,
			Timestamp:  time.Now().Unix(),
		})
	}

	return events, nil
}

// resetTransientLocked clears per-session fields when the identity changes.
// Caller must hold mu.
func (s *SessionService) resetTransientLocked() {
	s.chapters = nil
	s.audioTracks = nil
	s.subtitleTracks = nil
	s.eofReached = false
	s.watchPercentage = 0
	s.secondsWatched = make(map[int]struct{})
}

// restorePositionLocked resolves the position to resume from for identity.
// Media shorter than the configured minimum never restores. Caller must
// hold mu.
func (s *SessionService) restorePositionLocked(identity string) float64 {
	duration := 0.0
	if item := s.playlist.CurrentItem(); item.URL == identity {
		duration = item.Duration
	}
	if duration == 0 && s.prober != nil && domain.IsLocalPath(identity) {
		duration = s.prober.Duration(domain.LocalPath(identity))
	}

	minimum := float64(s.settings.MinDurationToSavePosition()) * 60
	if domain.IsLocalPath(identity) && duration < minimum {
		return 0
	}

	return s.positions.Position(mediakey.Derive(identity))
}

// searchSubtitles scans for external subtitle files in the background and
// attaches any it finds. A later Shutdown cancels the scan.
func (s *SessionService) searchSubtitles(identity string) {
	mediaPath := domain.LocalPath(identity)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		subs, err := s.subtitles.Find(s.runCtx, mediaPath)
		if err != nil {
			s.logger.Warn("subtitle search failed", slog.Any("error", err))
			return
		}
		for _, sub := range subs {
			if err := s.engine.CommandBlocking("sub-add", sub, "select"); err != nil {
				s.logger.Warn("failed to add subtitle",
					slog.String("file", sub),
					slog.Any("error", err))
			}
		}
		if len(subs) > 0 {
			if err := s.engine.GetPropertyAsync(ports.PropTrackList, ports.TagTrackList); err != nil {
				s.logger.Warn("failed to refetch track list", slog.Any("error", err))
			}
		}
	}()
}

// onFileLoaded runs once when a load settles: playback can begin and the
// chapter list, video probe and track list are fetched in the background.
func (s *SessionService) onFileLoaded() {
	if err := s.engine.GetPropertyAsync(ports.PropChapterList, ports.TagChapterList); err != nil {
		s.logger.Warn("failed to fetch chapter list", slog.Any("error", err))
	}
	if err := s.engine.GetPropertyAsync(ports.PropVideoID, ports.TagVideoTrackProbe); err != nil {
		s.logger.Warn("failed to probe video track", slog.Any("error", err))
	}
	if err := s.engine.GetPropertyAsync(ports.PropTrackList, ports.TagTrackList); err != nil {
		s.logger.Warn("failed to fetch track list", slog.Any("error", err))
	}

	s.engine.SetProperty("ab-loop-a", "no")
	s.engine.SetProperty("ab-loop-b", "no")

	s.mu.Lock()
	s.finishedLoading = true
	s.loadState = domain.LoadStateReady
	url := s.currentURL
	s.mu.Unlock()

	s.bus.Publish(domain.NewLoadStateChangedEvent(domain.LoadStateReady, url))
	s.bus.Publish(domain.NewMediaLoadedEvent(url))
}

// onEndFile runs after the engine unloaded the file. Only the error reason
// needs handling; regular end of file was already resolved through the
// eof-reached flag while the file was still loaded.
func (s *SessionService) onEndFile(reason string) {
	if reason != "error" {
		return
	}
	if s.playlist.RowCount() == 0 {
		return
	}

	item := s.playlist.CurrentItem()
	title := item.Title
	if title == "" {
		title = item.URL
	}

	s.mu.Lock()
	s.loadState = domain.LoadStateError
	url := s.currentURL
	s.mu.Unlock()

	s.bus.Publish(domain.NewLoadStateChangedEvent(domain.LoadStateError, url))
	s.bus.Publish(domain.NewPlaybackErrorEvent(
		fmt.Sprintf("Could not play: %s", title), nil))
}

// onEndOfFileReached applies the progression policy when playback reaches
// the end of the current item. Runs before the engine unloads the file.
func (s *SessionService) onEndOfFileReached() {
	mode := s.settings.PlaybackBehavior()
	index := s.playlist.PlayingIndex()
	action := DecideProgression(mode, s.playlist.IsLastItem(index), s.playlist.RowCount())

	s.mu.RLock()
	url := s.currentURL
	s.mu.RUnlock()

	s.logger.Debug("end of file reached",
		slog.String("behavior", mode.String()),
		slog.String("action", action.String()))

	switch action {
	case domain.ActionStopAtZero:
		s.applyStop(true)
		s.mu.Lock()
		s.loadState = domain.LoadStateEnded
		s.mu.Unlock()
		s.bus.Publish(domain.NewLoadStateChangedEvent(domain.LoadStateEnded, url))

	case domain.ActionRepeatCurrent:
		s.applyStop(false)

	case domain.ActionAdvanceNext:
		if err := s.playlist.PlayNext(); err != nil {
			s.logger.Warn("failed to advance playlist", slog.Any("error", err))
		}
	}

	s.bus.Publish(domain.NewEndOfFileEvent(url, action))
}

// applyStop rewinds to zero and sets the pause flag. Both writes block so
// their order relative to each other is guaranteed.
func (s *SessionService) applyStop(pause bool) {
	if err := s.engine.SetPropertyBlocking(ports.PropPosition, 0.0); err != nil {
		s.logger.Warn("failed to rewind", slog.Any("error", err))
	}
	if err := s.engine.SetPropertyBlocking(ports.PropPause, pause); err != nil {
		s.logger.Warn("failed to set pause", slog.Any("error", err))
	}
}

// onChapterChanged skips the new chapter when its title matches one of the
// configured substrings. A skip is issued once; the skipped-into chapter is
// checked again only through its own change notification.
func (s *SessionService) onChapterChanged() {
	s.mu.RLock()
	ready := s.finishedLoading
	chapters := s.chapters
	index := s.chapter
	s.mu.RUnlock()

	if !ready || !s.settings.SkipChapters() {
		return
	}
	skipList := s.settings.ChaptersToSkip()
	if len(chapters) == 0 || skipList == "" {
		return
	}
	if index < 0 || int(index) >= len(chapters) {
		return
	}

	title := chapters[index].Title
	lowerTitle := strings.ToLower(title)
	for _, word := range strings.Split(skipList, ",") {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if strings.Contains(lowerTitle, word) {
			s.engine.Command("add", "chapter", "1")
			if s.settings.ShowOsdOnSkipChapters() {
				s.bus.Publish(domain.NewOSDMessageEvent(
					fmt.Sprintf("Skipped chapter: %s", title)))
			}
			return
		}
	}
}

// onCheckpointTick persists or resets the stored position on each timer
// fire. Positions within endThreshold of the end mean the media is finished
// and not worth resuming.
func (s *SessionService) onCheckpointTick() {
	s.mu.RLock()
	active := s.finishedLoading && s.duration > 0 && !s.paused
	beforeEnd := s.position < s.duration-endThreshold
	s.mu.RUnlock()

	if !active {
		return
	}
	if beforeEnd {
		s.checkpointPosition()
	} else {
		s.ResetPosition()
	}
}

// checkpointPosition requests the current position from the engine; the
// reply lands in onAsyncReply tagged for the position store. Media shorter
// than the configured minimum is never persisted.
func (s *SessionService) checkpointPosition() {
	s.mu.RLock()
	duration := s.duration
	s.mu.RUnlock()

	if duration < float64(s.settings.MinDurationToSavePosition())*60 {
		return
	}

	if err := s.engine.GetPropertyAsync(ports.PropPosition, ports.TagSavePosition); err != nil {
		s.logger.Warn("failed to request position", slog.Any("error", err))
	}
}

// ResetPosition deletes the stored position for the current identity.
func (s *SessionService) ResetPosition() {
	s.mu.RLock()
	url := s.currentURL
	s.mu.RUnlock()

	if url == "" {
		return
	}
	s.positions.DeletePosition(mediakey.Derive(url))
}

// onAsyncReply dispatches a tagged engine reply. Unknown tags are ignored.
func (s *SessionService) onAsyncReply(tag ports.RequestTag, data any, replyErr error) {
	switch tag {
	case ports.TagSavePosition:
		s.mu.RLock()
		url := s.currentURL
		s.mu.RUnlock()
		if url == "" {
			return
		}
		s.positions.SavePosition(mediakey.Derive(url), url, asFloat(data))

	case ports.TagScreenshot:
		if replyErr != nil {
			s.bus.Publish(domain.NewOSDMessageEvent("Screenshot failed"))
			return
		}
		filename := ""
		if result, ok := data.(map[string]any); ok {
			filename = asString(result["filename"])
		}
		if filename == "" {
			s.bus.Publish(domain.NewOSDMessageEvent("Screenshot taken"))
		} else {
			s.bus.Publish(domain.NewOSDMessageEvent("Screenshot: " + filename))
		}

	case ports.TagTrackList:
		if list, ok := data.([]any); ok {
			s.ingestTracks(list)
		}

	case ports.TagChapterList:
		if list, ok := data.([]any); ok {
			s.ingestChapters(list)
		}

	case ports.TagVideoTrackProbe:
		s.onVideoProbe(data)

	case ports.TagAddSubtitleTrack:
		value, err := s.engine.GetProperty(ports.PropTrackList)
		if err != nil {
			s.logger.Warn("failed to read track list", slog.Any("error", err))
			return
		}
		if list, ok := value.([]any); ok {
			s.ingestTracks(list)
		}
	}
}

// onVideoProbe handles the video-presence probe after a load. A missing
// video track on a video file means it cannot be decoded; on an audio file
// the configured cover image is attached instead.
func (s *SessionService) onVideoProbe(data any) {
	if asBool(data) {
		return
	}

	s.mu.RLock()
	url := s.currentURL
	s.mu.RUnlock()

	mimeType := ""
	if s.prober != nil {
		mimeType = s.prober.MimeType(domain.LocalPath(url))
	}
	if strings.HasPrefix(mimeType, "video/") {
		s.bus.Publish(domain.NewPlaybackErrorEvent(
			"No video track detected, most likely the video track can't be decoded due to missing codecs", nil))
		return
	}
	if cover := s.settings.DefaultCover(); cover != "" {
		s.engine.Command("video-add", cover)
	}
}

// ingestTracks partitions an engine track list into audio and subtitle
// models. The subtitle list is led by a synthetic "None" entry used to clear
// the selection.
func (s *SessionService) ingestTracks(list []any) {
	audio := make([]domain.Track, 0, len(list))
	subtitle := []domain.Track{{ID: 0, Title: "None"}}

	for _, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		track := domain.Track{
			ID:       asInt64(entry["id"]),
			Language: asString(entry["lang"]),
			Title:    asString(entry["title"]),
			Codec:    asString(entry["codec"]),
		}
		switch asString(entry["type"]) {
		case "audio":
			audio = append(audio, track)
		case "sub":
			subtitle = append(subtitle, track)
		}
	}

	s.mu.Lock()
	s.audioTracks = audio
	s.subtitleTracks = subtitle
	s.mu.Unlock()

	s.bus.Publish(domain.NewTracksUpdatedEvent(audio, subtitle))
}

// ingestChapters decodes an engine chapter list.
func (s *SessionService) ingestChapters(list []any) {
	chapters := make([]domain.Chapter, 0, len(list))
	for _, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		chapters = append(chapters, domain.Chapter{
			Title:     asString(entry["title"]),
			StartTime: asFloat(entry["time"]),
		})
	}

	s.mu.Lock()
	s.chapters = chapters
	s.mu.Unlock()

	s.bus.Publish(domain.NewChaptersUpdatedEvent(chapters))
}

// SetPosition seeks to the given position in seconds.
func (s *SessionService) SetPosition(seconds float64) {
	s.engine.SetProperty(ports.PropPosition, seconds)
}

// SetPause sets the pause flag.
func (s *SessionService) SetPause(pause bool) {
	s.engine.SetProperty(ports.PropPause, pause)
}

// SetVolume sets the playback volume.
func (s *SessionService) SetVolume(volume int64) {
	s.engine.SetProperty(ports.PropVolume, volume)
}

// SetMute sets the mute flag.
func (s *SessionService) SetMute(mute bool) {
	s.engine.SetProperty(ports.PropMute, mute)
}

// SetAudioTrack selects the audio track by engine id.
func (s *SessionService) SetAudioTrack(id int64) {
	s.engine.SetProperty(ports.PropAudioID, id)
}

// SetSubtitleTrack selects the subtitle track by engine id; 0 clears it.
func (s *SessionService) SetSubtitleTrack(id int64) {
	s.engine.SetProperty(ports.PropSubtitleID, id)
}

// SetSecondarySubtitleTrack selects the secondary subtitle track.
func (s *SessionService) SetSecondarySubtitleTrack(id int64) {
	s.engine.SetProperty(ports.PropSecondarySubtitleID, id)
}

// SetChapter jumps to the chapter at index.
func (s *SessionService) SetChapter(index int64) {
	s.engine.SetProperty(ports.PropChapter, index)
}

// Stop rewinds to zero and pauses.
func (s *SessionService) Stop() {
	s.applyStop(true)
}

// Screenshot captures the current frame; the result arrives as an OSD
// notice. When includeSubtitles is set, rendered subtitles are part of the
// capture.
func (s *SessionService) Screenshot(includeSubtitles bool) error {
	flag := "video"
	if includeSubtitles {
		flag = "subtitles"
	}
	return s.engine.CommandAsync(ports.TagScreenshot, "screenshot", flag)
}

// AddSubtitles attaches an external subtitle file and selects it; the track
// list refreshes once the engine confirms.
func (s *SessionService) AddSubtitles(subtitleFile string) error {
	return s.engine.CommandAsync(ports.TagAddSubtitleTrack, "sub-add", subtitleFile, "select")
}

// Shutdown performs a final position checkpoint, stops the dispatch
// goroutine and flushes pending position writes. The engine connection is
// not closed here; the owner closes it after Shutdown returns.
func (s *SessionService) Shutdown() {
	s.mu.RLock()
	url := s.currentURL
	loaded := s.finishedLoading && s.duration > 0
	beforeEnd := s.position < s.duration-endThreshold
	longEnough := s.duration >= float64(s.settings.MinDurationToSavePosition())*60
	position := s.position
	s.mu.RUnlock()

	// the final checkpoint reads in-memory state directly; an async engine
	// read could not complete before teardown
	if url != "" && loaded {
		if beforeEnd {
			if longEnough {
				s.positions.SavePosition(mediakey.Derive(url), url, position)
			}
		} else {
			s.ResetPosition()
		}
	}

	s.runCancel()
	s.wg.Wait()
	s.positions.Flush()

	s.logger.Debug("session service shut down")
}

// State returns the current load state.
func (s *SessionService) State() domain.LoadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadState
}

// CurrentURL returns the current media identity, empty when idle.
func (s *SessionService) CurrentURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentURL
}

// MediaTitle returns the engine-reported title of the current media.
func (s *SessionService) MediaTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mediaTitle
}

// Position returns the playback position in seconds.
func (s *SessionService) Position() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.position
}

// Duration returns the media duration in seconds, 0 when unknown.
func (s *SessionService) Duration() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration
}

// Paused returns the pause flag.
func (s *SessionService) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// WatchPercentage returns the derived watch percentage of the session.
func (s *SessionService) WatchPercentage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watchPercentage
}

// WatchLaterPosition returns the position the current load restored from.
func (s *SessionService) WatchLaterPosition() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watchLaterPosition
}

// Chapters returns the ingested chapter list.
func (s *SessionService) Chapters() []domain.Chapter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chapters
}

// AudioTracks returns the ingested audio track list.
func (s *SessionService) AudioTracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audioTracks
}

// SubtitleTracks returns the ingested subtitle track list, "None" first.
func (s *SessionService) SubtitleTracks() []domain.Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subtitleTracks
}
