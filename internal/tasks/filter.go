// package tasks orchestrates the mood filtering pipeline: aggregate songs
// from the selected playlists, classify them against a descriptor, and
// assemble the matching subset.
//
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/speedwagon1299/MoodyGrooves/internal/services"
	"github.com/speedwagon1299/MoodyGrooves/internal/shared"
)

// FilterResult contains all data from a filter run. Songs, IDs and Matches
// are the raw pipeline output; MatchedSongs and MatchedIDs are the subsets
// selected by the classifier, index-aligned with each other.
type FilterResult struct {
	Descriptor   string   `json:"descriptor"`
	Songs        []string `json:"songs"`
	IDs          []string `json:"ids"`
	Matches      []bool   `json:"matches"`
	MatchedSongs []string `json:"matchedSongs"`
	MatchedIDs   []string `json:"matchedIds"`
}

// MoodEngine defines the filtering operations exposed to the CLI and HTTP
// layers.
type MoodEngine interface {
	// Filter aggregates the songs of every source href, classifies them
	// against descriptor, and returns the full result including the
	// matched subset.
	Filter(ctx context.Context, progress chan<- ProgressUpdate, principal, descriptor string, hrefs []string) (*FilterResult, error)
}

// FilterEngine implements MoodEngine on top of a music service and a
// classifier.
type FilterEngine struct {
	music      services.MusicService
	classifier services.Classifier
	logger     *log.Logger
}

// NewFilterEngine creates a FilterEngine with the provided services.
func NewFilterEngine(music services.MusicService, classifier services.Classifier, logger *log.Logger) *FilterEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &FilterEngine{
		music:      music,
		classifier: classifier,
		logger:     logger,
	}
}

func (e *FilterEngine) Filter(ctx context.Context, progress chan<- ProgressUpdate, principal, descriptor string, hrefs []string) (*FilterResult, error) {
	if e.music == nil || e.classifier == nil {
		return nil, fmt.Errorf("%w: engine not initialized", shared.ErrServiceUnavailable)
	}
	if descriptor == "" {
		return nil, fmt.Errorf("%w: mood descriptor is required", shared.ErrInvalidInput)
	}
	if len(hrefs) == 0 {
		return nil, fmt.Errorf("%w: at least one playlist is required", shared.ErrInvalidInput)
	}

	e.sendProgress(progress, collectSongsUpdate(1, len(hrefs)))

	set, err := e.music.CollectUniqueSongs(ctx, principal, hrefs)
	if err != nil {
		return nil, fmt.Errorf("failed to collect songs: %w", err)
	}

	result := &FilterResult{
		Descriptor:   descriptor,
		Songs:        set.Songs,
		IDs:          set.IDs,
		MatchedSongs: []string{},
		MatchedIDs:   []string{},
	}

	if len(set.Songs) == 0 {
		result.Matches = []bool{}
		return result, nil
	}

	e.sendProgress(progress, classifySongsUpdate(len(set.Songs)))

	result.Matches = e.classifier.Classify(ctx, descriptor, set.Songs)

	for i, matched := range result.Matches {
		if !matched {
			continue
		}
		result.MatchedSongs = append(result.MatchedSongs, set.Songs[i])
		if i < len(set.IDs) {
			result.MatchedIDs = append(result.MatchedIDs, set.IDs[i])
		}
	}

	e.sendProgress(progress, assembleUpdate(len(result.MatchedSongs), len(set.Songs)))

	e.logger.Info("filter run complete",
		"descriptor", descriptor,
		"songs", len(set.Songs),
		"matched", len(result.MatchedSongs))

	return result, nil
}

// sendProgress sends an update without blocking when no listener is attached.
func (e *FilterEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
