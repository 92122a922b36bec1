// package formatter provides functions to export filter results to various formats (CSV, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/speedwagon1299/MoodyGrooves/internal/tasks"
)

// ExportToCSV converts a FilterResult to CSV format with columns: Song, ID, Matched
func ExportToCSV(result *tasks.FilterResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Song", "ID", "Matched"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, song := range result.Songs {
		id := ""
		if i < len(result.IDs) {
			id = result.IDs[i]
		}
		matched := false
		if i < len(result.Matches) {
			matched = result.Matches[i]
		}

		record := []string{song, id, strconv.FormatBool(matched)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a FilterResult to plain text format, listing only
// the matched songs.
func ExportToText(result *tasks.FilterResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Mood: %s\n", result.Descriptor))
	buf.WriteString(fmt.Sprintf("Matched %d of %d songs\n\n", len(result.MatchedSongs), len(result.Songs)))

	for i, song := range result.MatchedSongs {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, song))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a FilterResult to indented JSON
func ExportToJSON(result *tasks.FilterResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate JSON: %w", err)
	}
	return data, nil
}

// WriteExport writes a FilterResult to path in the requested format.
//
// Supported formats: csv, json, txt. Returns the written path.
func WriteExport(result *tasks.FilterResult, format, path string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(result)
	case "json":
		data, err = ExportToJSON(result)
	case "txt", "text", "":
		data, err = ExportToText(result)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
