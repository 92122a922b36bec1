// package models defines the data model for the mood filter web service
package models

// Profile represents the authenticated Spotify user, resolved from GET /v1/me.
// The ID field is the principal key under which tokens and sessions are stored.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Country     string `json:"country"`
	Product     string `json:"product"`
}

// Playlist represents a playlist owned or followed by the user.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	TracksHref  string `json:"tracks_href"`
}

// StoredRefreshRecord is the value persisted under token:refresh:<principal>.
// The refresh token never leaves the secrets package unencrypted.
type StoredRefreshRecord struct {
	EncryptedRefreshToken string   `json:"encryptedRefreshToken"`
	Scopes                []string `json:"scopes,omitempty"`
}

// CachedAccessToken is the value persisted under token:access:<principal>.
// ExpiresAt is absolute wall-clock time in milliseconds. The cache entry's
// own TTL is shorter than the token lifetime, so a stored copy always dies
// before the upstream token does.
type CachedAccessToken struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Session is the value persisted under session:<id>, addressed by an opaque
// identifier handed to the browser as a cookie.
type Session struct {
	Principal string `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
}

// SongSet holds the result of a deduplicating aggregation run. Songs and IDs
// are independently deduplicated but built in lock-step over the same item
// stream, so zipping them by index pairs each song with its track ID.
type SongSet struct {
	Songs []string `json:"unique_songs"`
	IDs   []string `json:"unique_ids"`
}
