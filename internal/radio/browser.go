package radio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/ports"
)

const (
	// maxRetries bounds the mirror fallback to one alternate endpoint per
	// search.
	maxRetries = 1

	userAgent      = "Cadenza/1.0"
	requestTimeout = 10 * time.Second
)

// favoriteKeywords are the queries that show the favorites list instead of
// hitting the directory.
var favoriteKeywords = []string{"fav", "favorite", "favorites", "favourite", "favourites"}

// Browser searches the radio-browser station directory. Only one search is
// in flight at a time; starting a new one cancels the previous.
//
// Thread-safety: This implementation is thread-safe.
type Browser struct {
	logger    *slog.Logger
	bus       ports.EventBus
	client    *http.Client
	favorites *Favorites
	mirrors   []string

	mu     sync.Mutex
	mirror int
	cancel context.CancelFunc
}

// NewBrowser creates a station browser over the given mirror list.
func NewBrowser(logger *slog.Logger, bus ports.EventBus, favorites *Favorites, mirrors []string) *Browser {
	return &Browser{
		logger:    logger,
		bus:       bus,
		client:    &http.Client{Timeout: requestTimeout},
		favorites: favorites,
		mirrors:   mirrors,
	}
}

// Favorites returns the favorites store backing this browser.
func (b *Browser) Favorites() *Favorites {
	return b.favorites
}

// Search resolves a query into stations. The query decides the lookup:
// empty or a favorites keyword shows the favorites, a "genre:" prefix
// searches by tag, a two-letter uppercase query searches by country code,
// anything else searches by name.
func (b *Browser) Search(ctx context.Context, query string) ([]Station, error) {
	// every search supersedes the previous one, favorites lookups included
	ctx, cancel := b.supersede(ctx)
	defer cancel()

	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)

	if trimmed == "" || lo.Contains(favoriteKeywords, lower) {
		stations := b.favorites.List()
		b.bus.Publish(domain.NewSearchCompletedEvent(len(stations)))
		return stations, nil
	}

	var path string
	switch {
	case strings.HasPrefix(lower, "genre:"):
		tag := strings.TrimSpace(lower[len("genre:"):])
		path = "/json/stations/bytagexact/" + url.PathEscape(tag)
	case len(trimmed) == 2 && strings.ToUpper(trimmed) == trimmed:
		path = "/json/stations/bycountrycodeexact/" + trimmed
	default:
		path = "/json/stations/byname/" + url.PathEscape(trimmed)
	}

	return b.fetch(ctx, path)
}

// supersede cancels the in-flight search, if any, and registers the new one.
func (b *Browser) supersede(ctx context.Context) (context.Context, context.CancelFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		b.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	return ctx, cancel
}

// fetch runs the directory request, falling back to the next mirror on
// failure.
func (b *Browser) fetch(ctx context.Context, path string) ([]Station, error) {
	if len(b.mirrors) == 0 {
		return nil, domain.ErrMirrorsExhausted
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		b.mu.Lock()
		mirror := b.mirrors[b.mirror]
		b.mu.Unlock()

		body, err := b.get(ctx, mirror+path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			b.logger.Warn("station search failed",
				slog.String("mirror", mirror),
				slog.Any("error", err))
			b.nextMirror()
			continue
		}

		stations := b.decode(body)
		b.bus.Publish(domain.NewSearchCompletedEvent(len(stations)))
		return stations, nil
	}

	return nil, domain.ErrMirrorsExhausted
}

func (b *Browser) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// decode parses a directory response. Malformed payloads are logged and
// treated as an empty result set.
func (b *Browser) decode(body []byte) []Station {
	var stations []Station
	if err := json.Unmarshal(body, &stations); err != nil {
		b.logger.Warn("malformed station payload", slog.Any("error", err))
		return nil
	}

	stations = lo.Filter(stations, func(s Station, _ int) bool {
		return s.IsValid()
	})
	for i := range stations {
		stations[i].IsFavorite = b.favorites.Contains(stations[i].UUID)
	}
	return stations
}

// nextMirror advances the mirror cursor, stopping at the last one.
func (b *Browser) nextMirror() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mirror < len(b.mirrors)-1 {
		b.mirror++
		b.logger.Debug("switching station mirror",
			slog.String("mirror", b.mirrors[b.mirror]))
	}
}
