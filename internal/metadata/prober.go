// Package metadata probes local media files: MIME detection, tag reading
// and duration extraction for the common audio containers. The engine is the
// authority on duration once a file is loaded; this prober exists for
// decisions that must be made before loading, like whether a saved position
// applies.
package metadata

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/go-audio/wav"

	"github.com/cadenza-player/cadenza/internal/domain"
	"github.com/cadenza-player/cadenza/internal/ports"
)

// Prober implements duration and MIME probing for local files.
type Prober struct {
	logger *slog.Logger
}

// NewProber creates a file prober.
func NewProber(logger *slog.Logger) *Prober {
	return &Prober{logger: logger}
}

// MimeType returns the detected MIME type, empty when undetectable.
func (p *Prober) MimeType(path string) string {
	return detectMimeType(path)
}

// Duration returns the media duration in seconds, 0 when the container is
// not one of the supported audio formats or parsing fails.
func (p *Prober) Duration(path string) float64 {
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	var duration float64
	switch detectMimeType(path) {
	case "audio/wav":
		duration, err = wavDuration(file)
	case "audio/flac":
		duration, err = flacDuration(file)
	case "audio/mpeg":
		duration, err = mp3Duration(file)
	default:
		return 0
	}

	if err != nil {
		p.logger.Debug("duration probe failed",
			slog.String("path", path),
			slog.Any("error", err))
		return 0
	}
	return duration
}

// Probe builds a playlist item for a local file: title from the embedded
// tags when present, filename otherwise, plus the probed duration.
func (p *Prober) Probe(path string) domain.MediaItem {
	item := domain.MediaItem{
		URL:      path,
		Title:    filepath.Base(path),
		Duration: p.Duration(path),
	}

	file, err := os.Open(path)
	if err != nil {
		return item
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil || meta == nil {
		return item
	}

	title := strings.TrimSpace(meta.Title())
	artist := strings.TrimSpace(meta.Artist())
	switch {
	case title != "" && artist != "":
		item.Title = artist + " - " + title
	case title != "":
		item.Title = title
	}
	return item
}

// wavDuration reads the duration from the RIFF headers.
func wavDuration(file *os.File) (float64, error) {
	duration, err := wav.NewDecoder(file).Duration()
	if err != nil {
		return 0, err
	}
	return duration.Seconds(), nil
}

// flacDuration derives the duration from the stream length reported by the
// STREAMINFO block.
func flacDuration(file *os.File) (float64, error) {
	streamer, format, err := flac.Decode(file)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	return float64(streamer.Len()) / float64(format.SampleRate), nil
}

// mp3Duration derives the duration from the decoded stream length. The
// decoder walks the frame headers, so variable bitrate files come out exact.
func mp3Duration(file *os.File) (float64, error) {
	streamer, format, err := mp3.Decode(file)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	return float64(streamer.Len()) / float64(format.SampleRate), nil
}

// Verify that Prober implements the DurationProber interface
var _ ports.DurationProber = (*Prober)(nil)
