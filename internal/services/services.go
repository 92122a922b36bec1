// package services defines interfaces for the upstream HTTP APIs the
// pipeline depends on: Spotify and the semantic classifier.
package services

import (
	"context"

	"github.com/speedwagon1299/MoodyGrooves/internal/models"
)

// MusicService is the upstream library provider consumed by the filter
// pipeline. All calls act on behalf of a principal whose credentials are
// resolved through the token manager.
type MusicService interface {
	// Profile resolves the authenticated user's identity.
	Profile(ctx context.Context, principal string) (*models.Profile, error)

	// Playlists drains the paginated playlist listing to completion.
	Playlists(ctx context.Context, principal string) ([]models.Playlist, error)

	// CollectUniqueSongs aggregates the tracks of every source href into
	// one deduplicated song set.
	CollectUniqueSongs(ctx context.Context, principal string, hrefs []string) (*models.SongSet, error)

	// Name returns the provider name (e.g. "Spotify")
	Name() string
}

// Classifier labels each item of a list against a free-text descriptor.
// Implementations must return exactly one boolean per input item in input
// order, degrading failed batches to false rather than failing the call.
type Classifier interface {
	Classify(ctx context.Context, descriptor string, items []string) []bool
}
