// Package config manages application settings through a Viper-backed store
// with registered defaults and environment bindings. It implements the
// read-only settings boundary the playback session consumes.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/ports"
)

// envPrefix namespaces the environment variables, e.g.
// CADENZA_PLAYBACK_RESTORE_POSITION overrides playback.restore_position.
const envPrefix = "CADENZA"

// envKeyReplacer normalizes configuration keys into environment variable
// naming conventions.
var envKeyReplacer = strings.NewReplacer(".", "_")

// Config is the Viper-backed settings store. Reads are served live so a
// rewritten config file (viper watches are not used; Reload re-reads) or an
// in-process Set is visible to the next read.
//
// Thread-safety: This implementation is thread-safe.
type Config struct {
	mu     sync.RWMutex
	v      *viper.Viper
	logger *slog.Logger
	path   string
}

// Load reads the configuration file at path, creating its directory when
// missing. A missing file is not an error; defaults and environment
// variables still apply.
func Load(path string, logger *slog.Logger) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	v.SetTypeByDefaultValue(true)
	for name, field := range Default {
		v.SetDefault(name, field.Value)
	}

	cfg := &Config{v: v, logger: logger, path: path}
	if path == "" {
		return cfg, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	logger.Debug("configuration loaded", slog.String("path", path))
	return cfg, nil
}

// Set overrides a value in memory. It does not persist; use Save for that.
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v.Set(key, value)
}

// Save writes the current configuration to its file.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return nil
	}
	return c.v.WriteConfigAs(c.path)
}

// RestoreFilePosition reports whether saved positions are restored on load.
func (c *Config) RestoreFilePosition() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(KeyRestorePosition)
}

// PlayOnResume reports whether restored media starts playing immediately.
func (c *Config) PlayOnResume() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(KeyPlayOnResume)
}

// MinDurationToSavePosition is the minimum media length, in minutes, for
// which positions are persisted.
func (c *Config) MinDurationToSavePosition() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt(KeyMinDurationToSave)
}

// SavePositionInterval is the checkpoint timer interval in seconds.
func (c *Config) SavePositionInterval() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetInt(KeySaveInterval)
}

// SkipChapters reports whether chapter skipping is enabled.
func (c *Config) SkipChapters() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(KeySkipChapters)
}

// ChaptersToSkip is the comma-separated list of title substrings.
func (c *Config) ChaptersToSkip() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(KeyChaptersToSkip)
}

// ShowOsdOnSkipChapters reports whether skips raise an OSD notice.
func (c *Config) ShowOsdOnSkipChapters() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(KeyOsdOnSkip)
}

// PlaybackBehavior is the configured end-of-file progression mode.
// Unknown values fall back to advancing through the playlist.
func (c *Config) PlaybackBehavior() domain.PlaybackBehavior {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.ParsePlaybackBehavior(c.v.GetString(KeyPlaybackBehavior))
}

// OpenLastPlayedFile reports whether startup resumes the last session.
func (c *Config) OpenLastPlayedFile() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(KeyOpenLastPlayed)
}

// LastPlayedFile is the identity persisted by the previous session.
func (c *Config) LastPlayedFile() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(KeyLastPlayedFile)
}

// SetLastPlayedFile persists the identity for session resumption. The write
// is best-effort; a failure is logged, not surfaced, so playback is never
// interrupted by a read-only config directory.
func (c *Config) SetLastPlayedFile(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.v.Set(KeyLastPlayedFile, identity)
	if c.path == "" {
		return
	}
	if err := c.v.WriteConfigAs(c.path); err != nil {
		c.logger.Warn("failed to persist last played file", slog.Any("error", err))
	}
}

// RecursiveSubtitleSearch reports whether loads trigger a subtitle scan.
func (c *Config) RecursiveSubtitleSearch() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetBool(KeySubtitleSearch)
}

// DefaultCover is the image attached when an audio file has no video track.
func (c *Config) DefaultCover() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(KeyDefaultCover)
}

// EngineSocket is the path of the engine's IPC socket.
func (c *Config) EngineSocket() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(KeyEngineSocket)
}

// DatabasePath is the location of the position/history database.
func (c *Config) DatabasePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(KeyDatabasePath)
}

// LogLevel is the configured log verbosity (debug, info, warn, error).
func (c *Config) LogLevel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(KeyLogLevel)
}

// LogFormat is the configured log output format (text, json).
func (c *Config) LogFormat() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(KeyLogFormat)
}

// RadioFavoritesFile is the path of the favorite-stations file.
func (c *Config) RadioFavoritesFile() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetString(KeyRadioFavorites)
}

// RadioMirrors is the ordered list of station directory mirrors.
func (c *Config) RadioMirrors() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v.GetStringSlice(KeyRadioMirrors)
}

// Verify that Config implements the Settings interface
var _ ports.Settings = (*Config)(nil)
