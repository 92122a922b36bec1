package tasks

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/speedwagon1299/MoodyGrooves/internal/models"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
	internaltest "github.com/speedwagon1299/MoodyGrooves/internal/testing"
)

func TestFilter(t *testing.T) {
	hrefs := []string{"https://api.example.com/v1/playlists/a/tracks"}

	t.Run("zips matches by index", func(t *testing.T) {
		music := &internaltest.MockMusicService{
			CollectFn: func(context.Context, string, []string) (*models.SongSet, error) {
				return &models.SongSet{
					Songs: []string{"Alpha by A", "Beta by B", "Gamma by C", "Delta by D"},
					IDs:   []string{"id-1", "id-2", "id-3", "id-4"},
				}, nil
			},
		}
		classifier := &internaltest.MockClassifier{Verdicts: []bool{true, false, true, false}}

		engine := NewFilterEngine(music, classifier, nil)
		result, err := engine.Filter(context.Background(), nil, "user1", "rainy sunday", hrefs)
		if err != nil {
			t.Fatalf("Filter failed: %v", err)
		}

		if len(result.Matches) != 4 {
			t.Fatalf("got %d matches, want 4", len(result.Matches))
		}

		wantSongs := []string{"Alpha by A", "Gamma by C"}
		wantIDs := []string{"id-1", "id-3"}
		if len(result.MatchedSongs) != len(wantSongs) {
			t.Fatalf("got %d matched songs, want %d", len(result.MatchedSongs), len(wantSongs))
		}
		for i := range wantSongs {
			if result.MatchedSongs[i] != wantSongs[i] {
				t.Errorf("matched song[%d] = %q, want %q", i, result.MatchedSongs[i], wantSongs[i])
			}
			if result.MatchedIDs[i] != wantIDs[i] {
				t.Errorf("matched id[%d] = %q, want %q", i, result.MatchedIDs[i], wantIDs[i])
			}
		}

		if classifier.Descriptor != "rainy sunday" {
			t.Errorf("classifier saw descriptor %q", classifier.Descriptor)
		}
	})

	t.Run("shorter id list", func(t *testing.T) {
		music := &internaltest.MockMusicService{
			CollectFn: func(context.Context, string, []string) (*models.SongSet, error) {
				return &models.SongSet{
					Songs: []string{"Alpha by A", "Beta by B", "Gamma by C"},
					IDs:   []string{"id-1"},
				}, nil
			},
		}
		classifier := &internaltest.MockClassifier{Verdicts: []bool{true, true, true}}

		engine := NewFilterEngine(music, classifier, nil)
		result, err := engine.Filter(context.Background(), nil, "user1", "upbeat", hrefs)
		if err != nil {
			t.Fatalf("Filter failed: %v", err)
		}

		if len(result.MatchedSongs) != 3 {
			t.Errorf("got %d matched songs, want 3", len(result.MatchedSongs))
		}
		if len(result.MatchedIDs) != 1 || result.MatchedIDs[0] != "id-1" {
			t.Errorf("matched ids = %v, want [id-1]", result.MatchedIDs)
		}
	})

	t.Run("empty collection skips classification", func(t *testing.T) {
		music := &internaltest.MockMusicService{}
		classifier := &internaltest.MockClassifier{}

		engine := NewFilterEngine(music, classifier, nil)
		result, err := engine.Filter(context.Background(), nil, "user1", "upbeat", hrefs)
		if err != nil {
			t.Fatalf("Filter failed: %v", err)
		}

		if classifier.Calls != 0 {
			t.Errorf("classifier was called %d times, want 0", classifier.Calls)
		}
		if len(result.Matches) != 0 || len(result.MatchedSongs) != 0 {
			t.Errorf("expected empty result, got %+v", result)
		}
	})

	t.Run("input validation", func(t *testing.T) {
		engine := NewFilterEngine(&internaltest.MockMusicService{}, &internaltest.MockClassifier{}, nil)

		if _, err := engine.Filter(context.Background(), nil, "user1", "", hrefs); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("empty descriptor: got %v, want ErrInvalidInput", err)
		}
		if _, err := engine.Filter(context.Background(), nil, "user1", "upbeat", nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("no hrefs: got %v, want ErrInvalidInput", err)
		}
	})

	t.Run("collection errors propagate", func(t *testing.T) {
		music := &internaltest.MockMusicService{
			CollectFn: func(context.Context, string, []string) (*models.SongSet, error) {
				return nil, fmt.Errorf("%w: token refresh failed", shared.ErrRefreshFailed)
			},
		}

		engine := NewFilterEngine(music, &internaltest.MockClassifier{}, nil)
		_, err := engine.Filter(context.Background(), nil, "user1", "upbeat", hrefs)
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Errorf("got %v, want wrapped ErrRefreshFailed", err)
		}
		if !shared.IsReauthRequired(err) {
			t.Error("refresh failure should require reauthentication")
		}
	})

	t.Run("progress updates are non-blocking", func(t *testing.T) {
		music := &internaltest.MockMusicService{
			CollectFn: func(context.Context, string, []string) (*models.SongSet, error) {
				return &models.SongSet{Songs: []string{"Alpha by A"}, IDs: []string{"id-1"}}, nil
			},
		}

		engine := NewFilterEngine(music, &internaltest.MockClassifier{Verdicts: []bool{true}}, nil)

		// unbuffered channel with no reader must not deadlock the run
		progress := make(chan ProgressUpdate)
		if _, err := engine.Filter(context.Background(), progress, "user1", "upbeat", hrefs); err != nil {
			t.Fatalf("Filter failed: %v", err)
		}
	})
}
