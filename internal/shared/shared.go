// package shared defines shared helpers
package shared

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// UnknownArtist is substituted when an aggregated track carries no artist.
const UnknownArtist = "Unknown Artist"

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// SongKey derives the "<name> by <artist>" identity used to deduplicate songs
// within one aggregation run. Name and artist are trimmed but case is
// preserved; an empty artist falls back to [UnknownArtist]. Identical
// title+artist pairs across playlists deliberately collapse to one song.
func SongKey(name, artist string) string {
	name = strings.TrimSpace(name)
	artist = strings.TrimSpace(artist)
	if artist == "" {
		artist = UnknownArtist
	}
	return name + " by " + artist
}

// TrailingSegment extracts the last path segment of an upstream resource
// link, the track's secondary identity. Returns "" for an empty href.
func TrailingSegment(href string) string {
	href = strings.TrimSuffix(href, "/")
	if i := strings.LastIndex(href, "/"); i >= 0 {
		return href[i+1:]
	}
	return href
}
