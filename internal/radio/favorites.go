package radio

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/lo"
)

// Favorites is the persistent favorite-stations list, stored as an indented
// JSON array so the file stays hand-editable.
//
// Thread-safety: This implementation is thread-safe.
type Favorites struct {
	mu       sync.Mutex
	logger   *slog.Logger
	path     string
	stations []Station
}

// LoadFavorites reads the favorites file at path. A missing or malformed
// file yields an empty list; parse failures are logged.
func LoadFavorites(path string, logger *slog.Logger) *Favorites {
	f := &Favorites{logger: logger, path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read favorites", slog.Any("error", err))
		}
		return f
	}

	var stations []Station
	if err := json.Unmarshal(data, &stations); err != nil {
		logger.Warn("malformed favorites file", slog.Any("error", err))
		return f
	}

	f.stations = lo.Filter(stations, func(s Station, _ int) bool {
		return s.IsValid()
	})
	for i := range f.stations {
		f.stations[i].IsFavorite = true
	}

	logger.Debug("favorites loaded", slog.Int("count", len(f.stations)))
	return f
}

// Toggle adds the station when absent and removes it when present,
// persisting the list. It returns whether the station is now a favorite.
func (f *Favorites) Toggle(station Station) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, present := lo.Find(f.stations, func(s Station) bool {
		return s.UUID == station.UUID
	})

	if present {
		f.stations = lo.Reject(f.stations, func(s Station, _ int) bool {
			return s.UUID == station.UUID
		})
	} else {
		station.IsFavorite = true
		f.stations = append(f.stations, station)
	}

	f.saveLocked()
	return !present
}

// Contains reports whether the station with uuid is a favorite.
func (f *Favorites) Contains(uuid string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return lo.ContainsBy(f.stations, func(s Station) bool {
		return s.UUID == uuid
	})
}

// List returns a copy of the favorites.
func (f *Favorites) List() []Station {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Station, len(f.stations))
	copy(out, f.stations)
	return out
}

// Count returns the number of favorites.
func (f *Favorites) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stations)
}

// saveLocked persists the list. Write failures are logged, not surfaced.
// Caller must hold mu.
func (f *Favorites) saveLocked() {
	if f.path == "" {
		return
	}

	data, err := json.MarshalIndent(f.stations, "", "    ")
	if err != nil {
		f.logger.Warn("failed to encode favorites", slog.Any("error", err))
		return
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		f.logger.Warn("failed to create favorites directory", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		f.logger.Warn("failed to write favorites", slog.Any("error", err))
	}
}
