// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"

	"github.com/speedwagon1299/MoodyGrooves/internal/models"
)

// MockMusicService is a configurable test double for [services.MusicService].
type MockMusicService struct {
	ProfileFn     func(ctx context.Context, principal string) (*models.Profile, error)
	PlaylistsFn   func(ctx context.Context, principal string) ([]models.Playlist, error)
	CollectFn     func(ctx context.Context, principal string, hrefs []string) (*models.SongSet, error)
	CollectCalls  int
	CollectedRefs []string
}

func (m *MockMusicService) Profile(ctx context.Context, principal string) (*models.Profile, error) {
	if m.ProfileFn != nil {
		return m.ProfileFn(ctx, principal)
	}
	return &models.Profile{ID: principal}, nil
}

func (m *MockMusicService) Playlists(ctx context.Context, principal string) ([]models.Playlist, error) {
	if m.PlaylistsFn != nil {
		return m.PlaylistsFn(ctx, principal)
	}
	return []models.Playlist{}, nil
}

func (m *MockMusicService) CollectUniqueSongs(ctx context.Context, principal string, hrefs []string) (*models.SongSet, error) {
	m.CollectCalls++
	m.CollectedRefs = hrefs
	if m.CollectFn != nil {
		return m.CollectFn(ctx, principal, hrefs)
	}
	return &models.SongSet{Songs: []string{}, IDs: []string{}}, nil
}

func (m *MockMusicService) Name() string { return "mock" }

// MockClassifier is a test double for [services.Classifier] returning a
// fixed verdict pattern.
type MockClassifier struct {
	Verdicts   []bool
	Calls      int
	Descriptor string
	Items      []string
}

// Classify returns the configured verdicts truncated or false-padded to the
// input length, mimicking the real classifier's alignment contract.
func (m *MockClassifier) Classify(_ context.Context, descriptor string, items []string) []bool {
	m.Calls++
	m.Descriptor = descriptor
	m.Items = items

	result := make([]bool, len(items))
	copy(result, m.Verdicts)
	return result
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
