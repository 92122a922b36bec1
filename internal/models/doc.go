// Package models defines the domain records for the MoodyGrooves mood filter service.
//
// The package contains two categories of types:
//
// 1. Upstream projections: Lightweight structs representing Spotify data
//   - [Profile] : User identity resolved from the profile endpoint
//   - [Playlist] : Playlist metadata from the paginated listing endpoint
//   - [SongSet] : Deduplicated song and track-ID sets from an aggregation run
//
// 2. Cache records: JSON-serialized values stored in the key-value cache
//   - [StoredRefreshRecord] : Encrypted refresh token plus granted scopes
//   - [CachedAccessToken] : Short-lived bearer token with absolute expiry
//   - [Session] : Browser session bound to a principal
//
// Cache records carry no behavior; their lifecycle (TTLs, rotation, deletion)
// is owned by the tokens and auth packages.
package models
