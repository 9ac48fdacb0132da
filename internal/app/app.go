// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cadenza-player/cadenza/internal/adapter/engine/mock"
	"github.com/cadenza-player/cadenza/internal/adapter/engine/mpvipc"
	"github.com/cadenza-player/cadenza/internal/adapter/eventbus"
	"github.com/cadenza-player/cadenza/internal/adapter/storage/sqlite"
	"github.com/cadenza-player/cadenza/internal/config"
	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/logger"
	"github.com/cadenza-player/cadenza/internal/metadata"
	"github.com/cadenza-player/cadenza/internal/ports"
	"github.com/cadenza-player/cadenza/internal/radio"
	"github.com/cadenza-player/cadenza/internal/service"
)

// Options holds the startup parameters the entry point derives from flags.
type Options struct {
	// ConfigPath is the TOML configuration file; empty means defaults only.
	ConfigPath string

	// SocketPath overrides the engine socket from the config when non-empty.
	SocketPath string

	// MediaPaths are files or URLs to queue at startup.
	MediaPaths []string

	// UseMockEngine swaps the IPC engine for the in-process mock (testing).
	UseMockEngine bool
}

// Application is the root structure that holds all dependencies, wired with
// constructor-based injection.
type Application struct {
	logger *slog.Logger
	cfg    *config.Config

	// Infrastructure
	eventBus ports.EventBus
	engine   ports.PlayerEngine
	store    *sqlite.Store

	// Collaborators
	prober    *metadata.Prober
	subtitles *metadata.SubtitleSearcher
	browser   *radio.Browser

	// Services
	playlist *service.PlaylistService
	session  *service.SessionService
}

// New creates the application with all dependencies wired.
func New(opts Options) (*Application, error) {
	app := &Application{}

	// Step 1: Configuration, then the logger at the configured level
	bootstrapLogger := logger.NewLogger(logger.DefaultConfig())
	cfg, err := config.Load(opts.ConfigPath, bootstrapLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	app.cfg = cfg
	app.logger = logger.NewLogger(logger.Config{
		Level:  parseLevel(cfg.LogLevel()),
		Format: cfg.LogFormat(),
	})

	// Step 2: Event bus
	app.eventBus = eventbus.NewSyncEventBus(
		app.logger.With(slog.String("component", "eventbus")))

	// Step 3: Engine
	if opts.UseMockEngine {
		app.engine = mock.NewEngine()
	} else {
		socket := cfg.EngineSocket()
		if opts.SocketPath != "" {
			socket = opts.SocketPath
		}
		engine, err := mpvipc.Dial(socket,
			app.logger.With(slog.String("component", "engine")))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to engine at %s: %w", socket, err)
		}
		app.engine = engine
	}

	// Step 4: Position store
	store, err := sqlite.Open(app.databasePath(opts),
		app.logger.With(slog.String("component", "store")))
	if err != nil {
		_ = app.engine.Close()
		return nil, fmt.Errorf("failed to open position store: %w", err)
	}
	app.store = store

	// Step 5: Metadata collaborators
	app.prober = metadata.NewProber(app.logger.With(slog.String("component", "prober")))
	app.subtitles = metadata.NewSubtitleSearcher(
		app.logger.With(slog.String("component", "subtitles")))

	// Step 6: Radio browser
	favorites := radio.LoadFavorites(app.favoritesPath(opts),
		app.logger.With(slog.String("component", "favorites")))
	app.browser = radio.NewBrowser(
		app.logger.With(slog.String("component", "radio")),
		app.eventBus, favorites, cfg.RadioMirrors())

	// Step 7: Services
	app.playlist = service.NewPlaylistService(
		app.logger.With(slog.String("service", "playlist")),
		app.eventBus, cfg)

	app.session = service.NewSessionService(service.SessionDeps{
		Logger:    app.logger.With(slog.String("service", "session")),
		Engine:    app.engine,
		Bus:       app.eventBus,
		Positions: store,
		Recents:   store,
		Playlist:  app.playlist,
		Settings:  cfg,
		Prober:    app.prober,
		Subtitles: app.subtitles,
	})

	return app, nil
}

// Run starts the session and queues the startup media, then blocks until
// ctx is cancelled.
func (a *Application) Run(ctx context.Context, opts Options) error {
	if err := a.session.Start(); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	a.logger.Info("cadenza started")

	a.queueStartupMedia(opts.MediaPaths)

	<-ctx.Done()
	return nil
}

// queueStartupMedia builds the playlist from the given paths, or falls back
// to the previous session's file.
func (a *Application) queueStartupMedia(paths []string) {
	if len(paths) == 0 {
		a.openLastPlayedFile()
		return
	}

	items := make([]domain.MediaItem, 0, len(paths))
	for _, path := range paths {
		if domain.IsLocalPath(path) {
			items = append(items, a.prober.Probe(domain.LocalPath(path)))
		} else {
			items = append(items, domain.MediaItem{URL: path, Title: path})
		}
	}

	a.playlist.AddItems(items)
	if err := a.playlist.SetPlayingItem(0); err != nil {
		a.logger.Warn("failed to start playback", slog.Any("error", err))
	}
}

// openLastPlayedFile resumes the previous session when configured to.
func (a *Application) openLastPlayedFile() {
	if !a.cfg.OpenLastPlayedFile() {
		return
	}
	last := a.cfg.LastPlayedFile()
	if last == "" {
		return
	}

	a.logger.Info("resuming last played file", slog.String("url", last))
	if err := a.session.Load(last, domain.OpenedFromResume); err != nil {
		a.logger.Warn("failed to resume last played file", slog.Any("error", err))
	}
}

// Session exposes the playback session for embedding callers.
func (a *Application) Session() *service.SessionService {
	return a.session
}

// Playlist exposes the playback queue for embedding callers.
func (a *Application) Playlist() *service.PlaylistService {
	return a.playlist
}

// Radio exposes the station browser for embedding callers.
func (a *Application) Radio() *radio.Browser {
	return a.browser
}

// Shutdown tears the application down in reverse dependency order: the
// session checkpoint first, then the engine, then storage.
func (a *Application) Shutdown() {
	a.logger.Info("shutting down")

	if a.session != nil {
		a.session.Shutdown()
	}
	if a.engine != nil {
		if err := a.engine.Close(); err != nil {
			a.logger.Warn("failed to close engine", slog.Any("error", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close store", slog.Any("error", err))
		}
	}
	if bus, ok := a.eventBus.(*eventbus.SyncEventBus); ok {
		if err := bus.Close(); err != nil {
			a.logger.Warn("failed to close event bus", slog.Any("error", err))
		}
	}

	a.logger.Info("shutdown complete")
}

// databasePath resolves the store location: explicit config first, then a
// cadenza.db next to the config file, then in-memory as a last resort.
func (a *Application) databasePath(opts Options) string {
	if path := a.cfg.DatabasePath(); path != "" {
		return path
	}
	if opts.ConfigPath != "" {
		return filepath.Join(filepath.Dir(opts.ConfigPath), "cadenza.db")
	}
	return ":memory:"
}

// favoritesPath resolves the favorites file next to the config by default.
func (a *Application) favoritesPath(opts Options) string {
	if path := a.cfg.RadioFavoritesFile(); path != "" {
		return path
	}
	if opts.ConfigPath != "" {
		return filepath.Join(filepath.Dir(opts.ConfigPath), "favorites.json")
	}
	return ""
}

// parseLevel maps a config string to a slog level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DefaultConfigPath returns the per-user config location.
func DefaultConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "cadenza", "cadenza.toml")
}
