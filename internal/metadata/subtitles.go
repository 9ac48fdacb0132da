package metadata

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cadenza-player/cadenza/internal/ports"
)

// subtitleExtensions are the external subtitle formats the engine accepts.
var subtitleExtensions = map[string]bool{
	".srt": true,
	".ass": true,
	".ssa": true,
	".sub": true,
	".vtt": true,
	".sup": true,
}

// maxSearchDepth bounds the recursive walk below the media's directory.
const maxSearchDepth = 3

// SubtitleSearcher finds external subtitle files related to a media file by
// walking the media's directory tree.
type SubtitleSearcher struct {
	logger *slog.Logger
}

// NewSubtitleSearcher creates a subtitle searcher.
func NewSubtitleSearcher(logger *slog.Logger) *SubtitleSearcher {
	return &SubtitleSearcher{logger: logger}
}

// Find returns subtitle files below the media's directory whose name
// contains the media's base name, sorted for stable attach order. The walk
// stops when ctx is cancelled.
func (s *SubtitleSearcher) Find(ctx context.Context, mediaPath string) ([]string, error) {
	root := filepath.Dir(mediaPath)
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(mediaPath), filepath.Ext(mediaPath)))

	var matches []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subdirectory, keep walking
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			if depthBelow(root, path) > maxSearchDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !subtitleExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		name := strings.ToLower(entry.Name())
		if strings.Contains(name, base) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(matches)
	s.logger.Debug("subtitle search finished",
		slog.String("media", mediaPath),
		slog.Int("matches", len(matches)))
	return matches, nil
}

// depthBelow counts directory levels of path below root.
func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

// Verify that SubtitleSearcher implements the SubtitleFinder interface
var _ ports.SubtitleFinder = (*SubtitleSearcher)(nil)
