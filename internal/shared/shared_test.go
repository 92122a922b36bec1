package shared

import (
	"errors"
	"testing"
)

func TestSongKey(t *testing.T) {
	tc := []struct {
		name   string
		title  string
		artist string
		want   string
	}{
		{
			name:   "basic key",
			title:  "Song Title",
			artist: "Artist Name",
			want:   "Song Title by Artist Name",
		},
		{
			name:   "trims whitespace",
			title:  "  Song Title  ",
			artist: " Artist Name ",
			want:   "Song Title by Artist Name",
		},
		{
			name:   "preserves case",
			title:  "SoNg TiTlE",
			artist: "ArTiSt NaMe",
			want:   "SoNg TiTlE by ArTiSt NaMe",
		},
		{
			name:   "missing artist",
			title:  "Song Title",
			artist: "",
			want:   "Song Title by Unknown Artist",
		},
		{
			name:   "whitespace-only artist",
			title:  "Song Title",
			artist: "   ",
			want:   "Song Title by Unknown Artist",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := SongKey(tt.title, tt.artist)
			if got != tt.want {
				t.Errorf("SongKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenBrowser(t *testing.T) {
	t.Run("unsupported platform", func(t *testing.T) {
		orig := goos
		goos = func() string { return "plan9" }
		defer func() { goos = orig }()

		err := OpenBrowser("https://example.com")
		if !errors.Is(err, ErrServiceUnavailable) {
			t.Errorf("got %v, want ErrServiceUnavailable", err)
		}
	})
}

func TestTrailingSegment(t *testing.T) {
	tc := []struct {
		name string
		href string
		want string
	}{
		{"track href", "https://api.spotify.com/v1/tracks/6rqhFgbbKwnb9MLmUQDhG6", "6rqhFgbbKwnb9MLmUQDhG6"},
		{"trailing slash", "https://api.spotify.com/v1/tracks/abc123/", "abc123"},
		{"bare id", "abc123", "abc123"},
		{"empty", "", ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrailingSegment(tt.href); got != tt.want {
				t.Errorf("TrailingSegment(%q) = %v, want %v", tt.href, got, tt.want)
			}
		})
	}
}
