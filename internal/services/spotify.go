// Spotify API implementation of [MusicService]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/speedwagon1299/MoodyGrooves/internal/models"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	"github.com/speedwagon1299/MoodyGrooves/internal/tokens"
	"golang.org/x/time/rate"
)

const defaultSpotifyBaseURL = "https://api.spotify.com/v1"

// Upstream maxima for the paginated endpoints. Requesting the cap reduces
// round-trips per aggregation run.
const (
	playlistPageLimit = 50
	trackPageLimit    = 100
)

// page is the shape shared by Spotify's cursor-style listing endpoints.
// A null next or an empty items slice terminates pagination; the latter
// guards against infinite loops on malformed next links.
type page[T any] struct {
	Items  []T     `json:"items"`
	Next   *string `json:"next"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyTrackRef struct {
	Name    string          `json:"name"`
	Href    string          `json:"href"`
	Artists []spotifyArtist `json:"artists"`
}

// playlistTrackItem wraps a track inside a playlist page. Track is nil for
// tombstoned or removed upstream items.
type playlistTrackItem struct {
	Track *spotifyTrackRef `json:"track"`
}

type playlistTracksRef struct {
	Href  string `json:"href"`
	Total int    `json:"total"`
}

type spotifySimplePlaylist struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Public      bool              `json:"public"`
	Tracks      playlistTracksRef `json:"tracks"`
}

// SpotifyService implements [MusicService] against the Spotify Web API,
// resolving bearer tokens per call through the token manager.
type SpotifyService struct {
	tokens     *tokens.Manager
	httpClient *http.Client
	logger     *log.Logger
	limiter    *rate.Limiter
	baseURL    string
}

// SpotifyOpts contains the dependencies for creating a SpotifyService.
type SpotifyOpts struct {
	Tokens     *tokens.Manager
	HTTPClient *http.Client
	Logger     *log.Logger
	RateLimit  float64 // requests per second against the upstream API
	BaseURL    string
}

// NewSpotifyService creates a Spotify service. RateLimit defaults to 10 rps.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.Tokens == nil {
		return nil, fmt.Errorf("%w: token manager is required", shared.ErrInvalidArgument)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultSpotifyBaseURL
	}

	return &SpotifyService{
		tokens:     opts.Tokens,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		baseURL:    opts.BaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

func (s *SpotifyService) authorizedGet(ctx context.Context, principal, fullURL string) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	token, err := s.tokens.AccessToken(ctx, principal)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return resp, nil
}

// getJSON performs an authorized GET and decodes the response. On an
// authorization failure the cached token is invalidated, refreshed, and the
// same request retried exactly once; a second failure propagates with the
// upstream status and body.
func (s *SpotifyService) getJSON(ctx context.Context, principal, fullURL string, result any) error {
	resp, err := s.authorizedGet(ctx, principal, fullURL)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if err := s.tokens.Invalidate(ctx, principal); err != nil {
			return fmt.Errorf("failed to invalidate token: %w", err)
		}

		s.logger.Debug("retrying after authorization failure", "url", fullURL)
		if resp, err = s.authorizedGet(ctx, principal, fullURL); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// fetchAllPages drains a paginated endpoint to completion, appending items
// in upstream order. No shape validation happens at this layer; that is the
// caller's concern.
func fetchAllPages[T any](ctx context.Context, s *SpotifyService, principal string, buildURL func(limit, offset int) string, limit int) ([]T, error) {
	var items []T
	offset := 0

	for {
		var p page[T]
		if err := s.getJSON(ctx, principal, buildURL(limit, offset), &p); err != nil {
			return nil, err
		}

		items = append(items, p.Items...)

		if p.Next == nil || len(p.Items) == 0 {
			break
		}
		offset += len(p.Items)
	}

	return items, nil
}

// Profile retrieves the current authenticated user's profile. The resulting
// ID is the authoritative principal key; client-supplied identities are
// never trusted for it.
func (s *SpotifyService) Profile(ctx context.Context, principal string) (*models.Profile, error) {
	var profile models.Profile
	if err := s.getJSON(ctx, principal, s.baseURL+"/me", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileWithToken resolves the user identity with an explicit bearer token,
// bypassing the token manager. Used during login before any tokens are
// stored under the principal.
func (s *SpotifyService) ProfileWithToken(ctx context.Context, accessToken string) (*models.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/me", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, string(body))
	}

	var profile models.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	return &profile, nil
}

// Playlists retrieves all playlists for the principal, draining the
// paginated listing to completion.
func (s *SpotifyService) Playlists(ctx context.Context, principal string) ([]models.Playlist, error) {
	buildURL := func(limit, offset int) string {
		return fmt.Sprintf("%s/me/playlists?limit=%d&offset=%d", s.baseURL, limit, offset)
	}

	raw, err := fetchAllPages[spotifySimplePlaylist](ctx, s, principal, buildURL, playlistPageLimit)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, len(raw))
	for i, sp := range raw {
		playlists[i] = models.Playlist{
			ID:          sp.ID,
			Name:        sp.Name,
			Description: sp.Description,
			TrackCount:  sp.Tracks.Total,
			Public:      sp.Public,
			TracksHref:  sp.Tracks.Href,
		}
	}

	return playlists, nil
}

// CollectUniqueSongs merges the tracks of every source href into two
// insertion-ordered unique sets: song keys and track IDs. Both sets are
// built in lock-step over the same merged item stream, inserting into each
// only when the respective value is novel at that step, so the caller can
// zip them by index immediately after return. When two upstream items share
// a song key but differ in track ID, only the first-seen pair survives;
// that collapse is intentional.
func (s *SpotifyService) CollectUniqueSongs(ctx context.Context, principal string, hrefs []string) (*models.SongSet, error) {
	songSeen := make(map[string]struct{})
	idSeen := make(map[string]struct{})
	set := &models.SongSet{Songs: []string{}, IDs: []string{}}

	for _, href := range hrefs {
		if href == "" {
			continue
		}

		buildURL, err := trackPageURL(href)
		if err != nil {
			return nil, err
		}

		items, err := fetchAllPages[playlistTrackItem](ctx, s, principal, buildURL, trackPageLimit)
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			// tombstoned or removed upstream items carry no track name
			if item.Track == nil || item.Track.Name == "" {
				continue
			}

			artist := ""
			if len(item.Track.Artists) > 0 {
				artist = item.Track.Artists[0].Name
			}

			key := shared.SongKey(item.Track.Name, artist)
			if _, ok := songSeen[key]; !ok {
				songSeen[key] = struct{}{}
				set.Songs = append(set.Songs, key)
			}

			if id := shared.TrailingSegment(item.Track.Href); id != "" {
				if _, ok := idSeen[id]; !ok {
					idSeen[id] = struct{}{}
					set.IDs = append(set.IDs, id)
				}
			}
		}
	}

	s.logger.Info("collected unique songs", "songs", len(set.Songs), "ids", len(set.IDs))

	return set, nil
}

// trackPageURL builds the per-page URL for a playlist tracks href, carrying
// a fields projection that limits the payload to name/artist/link.
func trackPageURL(href string) (func(limit, offset int) string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, fmt.Errorf("%w: bad source href %q: %v", shared.ErrInvalidInput, href, err)
	}

	return func(limit, offset int) string {
		q := u.Query()
		q.Set("fields", "items(track.name,track.href,track.artists.name),next")
		q.Set("limit", strconv.Itoa(limit))
		q.Set("offset", strconv.Itoa(offset))
		u.RawQuery = q.Encode()
		return u.String()
	}, nil
}
