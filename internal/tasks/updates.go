package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	CollectSongs
	ClassifySongs
	Assemble
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case CollectSongs:
		return "collect_songs"
	case ClassifySongs:
		return "classify_songs"
	case Assemble:
		return "assemble"
	default:
		return ""
	}
}

func collectSongsUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CollectSongs,
		Step:    step,
		Total:   total,
		Message: "Collecting songs from selected playlists...",
	}
}

func classifySongsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClassifySongs,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Classifying %d songs against the mood...", count),
	}
}

func assembleUpdate(matched, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Assemble,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Matched %d of %d songs", matched, total),
	}
}
