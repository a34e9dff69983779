// package formatter renders engine results to human-readable formats
// (Markdown, CSV, plain text) for reports and playlist exports.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/musicbridge/internal/models"
	"github.com/desertthunder/musicbridge/internal/shared"
	"github.com/desertthunder/musicbridge/internal/tasks"
)

// MissingTracksMarkdown renders the tracks a sync could not place on the
// target as a Markdown report with a summary header and one table row per
// track.
func MissingTracksMarkdown(result *tasks.SyncResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Missing on %s\n\n", targetName(result)))
	buf.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339)))

	buf.WriteString(fmt.Sprintf("**Source playlist**: %s\n", result.SourcePlaylist.Title))
	buf.WriteString(fmt.Sprintf("**Total tracks**: %d\n", result.TotalTracks))
	buf.WriteString(fmt.Sprintf("**Already present**: %d\n", result.AlreadyPresent))
	buf.WriteString(fmt.Sprintf("**Matched**: %d\n", len(result.Matched)))
	buf.WriteString(fmt.Sprintf("**Missing**: %d\n\n", len(result.Missing)))

	if len(result.Missing) == 0 {
		buf.WriteString("All tracks were matched.\n")
		return buf.Bytes()
	}

	buf.WriteString("| # | Title | Artist | Album | Reason |\n")
	buf.WriteString("|---|-------|--------|-------|--------|\n")
	for i, m := range result.Missing {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			i+1, m.Original.Title, m.Original.DisplayArtist(), m.Original.Album, m.Reason))
	}

	return buf.Bytes()
}

func targetName(result *tasks.SyncResult) string {
	if result.TargetPlaylist != nil && result.TargetPlaylist.Title != "" {
		return result.TargetPlaylist.Title
	}
	return "target"
}

// MissingTracksJSON renders the sync result as indented JSON, for piping
// into other tooling.
func MissingTracksJSON(result *tasks.SyncResult) ([]byte, error) {
	return shared.MarshalJSON(result, true)
}

// WriteReport writes report bytes to a file, creating or truncating it.
func WriteReport(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ExportToCSV converts a playlist listing to CSV with columns: ID, Title,
// Artist, Album, Duration, Explicit.
func ExportToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration", "Explicit"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Title,
			track.DisplayArtist(),
			track.Album,
			track.Duration,
			fmt.Sprintf("%t", track.Explicit),
		}
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

// ExportToMarkdown converts a playlist listing to Markdown.
func ExportToMarkdown(playlist *models.Playlist, tracks []models.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", playlist.Title))

	if playlist.Description != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", playlist.Description))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		durationPart := ""
		if track.Duration != "" {
			durationPart = fmt.Sprintf(" [%s]", track.Duration)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s%s\n", i+1, track.DisplayArtist(), track.Title, albumPart, durationPart))
	}

	return buf.Bytes()
}

// ScanSummaryText renders a scan result as plain text for terminal output.
func ScanSummaryText(result *tasks.ScanResult) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlists: %d total, %d scanned, %d skipped, %d removed\n",
		result.PlaylistsTotal, result.PlaylistsScanned, result.PlaylistsSkipped, result.PlaylistsRemoved))
	buf.WriteString(fmt.Sprintf("Tracks: %d added, %d removed (%d orphaned artists pruned)\n",
		result.TracksAdded, result.TracksRemoved, result.ArtistsRemoved))

	if result.PlaylistsFailed > 0 {
		buf.WriteString(fmt.Sprintf("Failures: %d\n", result.PlaylistsFailed))
		for _, e := range result.Errors {
			buf.WriteString(fmt.Sprintf("  - %s: %s\n", e.Title, e.Err))
		}
	}

	if result.SnapshotPath != "" {
		buf.WriteString(fmt.Sprintf("Snapshot: %s\n", result.SnapshotPath))
	}

	return buf.Bytes()
}
