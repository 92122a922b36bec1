package formatter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/speedwagon1299/MoodyGrooves/internal/tasks"
)

func sampleResult() *tasks.FilterResult {
	return &tasks.FilterResult{
		Descriptor:   "late night coding",
		Songs:        []string{"Alpha by A", "Beta by B", "Gamma by C"},
		IDs:          []string{"id-1", "id-2", "id-3"},
		Matches:      []bool{true, false, true},
		MatchedSongs: []string{"Alpha by A", "Gamma by C"},
		MatchedIDs:   []string{"id-1", "id-3"},
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleResult())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Song,ID,Matched") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Alpha by A,id-1,true") {
			t.Errorf("CSV missing matched row, got: %s", output)
		}
		if !strings.Contains(output, "Beta by B,id-2,false") {
			t.Errorf("CSV missing unmatched row, got: %s", output)
		}
	})

	t.Run("ExportToCSV with short id list", func(t *testing.T) {
		result := sampleResult()
		result.IDs = []string{"id-1"}

		data, err := ExportToCSV(result)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		if !strings.Contains(string(data), "Beta by B,,false") {
			t.Errorf("CSV should leave missing ids blank, got: %s", data)
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleResult())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Mood: late night coding") {
			t.Errorf("text missing descriptor, got: %s", output)
		}
		if !strings.Contains(output, "Matched 2 of 3 songs") {
			t.Errorf("text missing summary, got: %s", output)
		}
		if !strings.Contains(output, "1. Alpha by A") || !strings.Contains(output, "2. Gamma by C") {
			t.Errorf("text missing matched songs, got: %s", output)
		}
		if strings.Contains(output, "Beta by B") {
			t.Errorf("text should omit unmatched songs, got: %s", output)
		}
	})

	t.Run("ExportToJSON round trips", func(t *testing.T) {
		data, err := ExportToJSON(sampleResult())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded tasks.FilterResult
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("failed to decode JSON export: %v", err)
		}
		if decoded.Descriptor != "late night coding" || len(decoded.MatchedSongs) != 2 {
			t.Errorf("decoded export incomplete: %+v", decoded)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("writes each format", func(t *testing.T) {
		dir := t.TempDir()

		for _, format := range []string{"csv", "json", "txt"} {
			path := filepath.Join(dir, "result."+format)
			written, err := WriteExport(sampleResult(), format, path)
			if err != nil {
				t.Fatalf("WriteExport(%s) failed: %v", format, err)
			}
			if written != path {
				t.Errorf("WriteExport returned %q, want %q", written, path)
			}
			if _, err := os.Stat(path); err != nil {
				t.Errorf("export file missing: %v", err)
			}
		}
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		if _, err := WriteExport(sampleResult(), "xml", filepath.Join(t.TempDir(), "out")); err == nil {
			t.Error("expected error for unsupported format")
		}
	})
}
