// Package mediafile builds scrobble records from local audio files.
package mediafile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/scrobz/scrobz/internal/scrobble"
)

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".wav":  true,
	".opus": true,
}

// Read builds a scrobble from an audio file's embedded metadata. Tag
// containers carry no reliable length, so the caller supplies the
// duration along with the play start time. When the file has no title
// tag the filename stands in.
func Read(path string, startedAt time.Time, durationMs int) (scrobble.Track, error) {
	if !allowedExtensions[strings.ToLower(filepath.Ext(path))] {
		return scrobble.Track{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return scrobble.Track{}, fmt.Errorf("open media file: %w", err)
	}
	defer f.Close()

	meta, err := tag.ReadFrom(f)
	if err != nil {
		return scrobble.Track{}, fmt.Errorf("read tags: %w", err)
	}

	title := meta.Title()
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return scrobble.Track{
		Title:      title,
		Artist:     meta.Artist(),
		Album:      meta.Album(),
		DurationMs: durationMs,
		StartedAt:  startedAt,
	}, nil
}
