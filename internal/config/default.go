package config

// Configuration keys. Dotted keys map to TOML tables and, through the env
// replacer, to CADENZA_* environment variables.
const (
	KeyRestorePosition   = "playback.restore_position"
	KeyPlayOnResume      = "playback.play_on_resume"
	KeyMinDurationToSave = "playback.min_duration_to_save_position"
	KeySaveInterval      = "playback.save_position_interval"
	KeyPlaybackBehavior  = "playback.behavior"
	KeyOpenLastPlayed    = "playback.open_last_played_file"
	KeyLastPlayedFile    = "playback.last_played_file"

	KeySkipChapters   = "chapters.skip"
	KeyChaptersToSkip = "chapters.skip_words"
	KeyOsdOnSkip      = "chapters.osd_on_skip"

	KeySubtitleSearch = "subtitles.recursive_search"
	KeyDefaultCover   = "audio.default_cover"

	KeyEngineSocket = "engine.socket"
	KeyDatabasePath = "storage.database"

	KeyLogLevel  = "logging.level"
	KeyLogFormat = "logging.format"

	KeyRadioFavorites = "radio.favorites_file"
	KeyRadioMirrors   = "radio.mirrors"
)

// Field describes one configuration entry.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Default holds the registry of all configuration fields.
var Default = make(map[string]Field)

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
	}

	register(KeyRestorePosition, true, "Resume media from the last saved position")
	register(KeyPlayOnResume, false, "Start playing immediately when a position was restored")
	register(KeyMinDurationToSave, 5, "Minimum media length in minutes for which positions are saved")
	register(KeySaveInterval, 5, "Position checkpoint interval in seconds")
	register(KeyPlaybackBehavior, "Advance", "What happens at end of file.\nAvailable options are: Advance, StopAfterLast, StopAfterItem, RepeatItem, RepeatPlaylist")
	register(KeyOpenLastPlayed, true, "Reopen the last played file on startup")
	register(KeyLastPlayedFile, "", "Identity of the last played file, written by the player")

	register(KeySkipChapters, false, "Automatically skip chapters whose title matches a skip word")
	register(KeyChaptersToSkip, "", "Comma-separated title substrings of chapters to skip")
	register(KeyOsdOnSkip, true, "Show a notice when a chapter is skipped")

	register(KeySubtitleSearch, false, "Search sibling directories for external subtitles on load")
	register(KeyDefaultCover, "", "Image attached when an audio file has no video track")

	register(KeyEngineSocket, "/tmp/cadenza-mpv.sock", "Path of the media engine IPC socket")
	register(KeyDatabasePath, "", "Path of the position/history database.\nEmpty means a cadenza.db next to the config file")

	register(KeyLogLevel, "info", "Available options are: debug, info, warn, error")
	register(KeyLogFormat, "text", "Available options are: text, json")

	register(KeyRadioFavorites, "", "Path of the favorite stations file.\nEmpty means favorites.json next to the config file")
	register(KeyRadioMirrors, []string{
		"https://de1.api.radio-browser.info",
		"https://nl1.api.radio-browser.info",
		"https://at1.api.radio-browser.info",
	}, "Ordered station directory mirrors; the next one is tried when a search fails")
}
