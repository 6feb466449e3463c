// package formatter provides functions to export listening history to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/shared"
)

// ExportToCSV converts listening sessions to CSV format with columns:
// ID, Resource, Title, Start, End, Listened, Speed, Completed, StartedAt, EndedAt
func ExportToCSV(sessions []*models.ListeningSession) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Resource", "Title", "Start", "End", "Listened", "Speed", "Completed", "StartedAt", "EndedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, session := range sessions {
		record := []string{
			session.ID(),
			session.ResourceKind + "/" + session.ResourceID,
			session.Title,
			strconv.FormatFloat(session.StartPosition, 'f', 0, 64),
			strconv.FormatFloat(session.EndPosition, 'f', 0, 64),
			strconv.FormatFloat(session.Listened(), 'f', 0, 64),
			strconv.FormatFloat(session.PlaybackSpeed, 'f', 2, 64),
			strconv.FormatBool(session.Completed),
			session.StartedAt.Format(time.RFC3339),
			session.EndedAt.Format(time.RFC3339),
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

// ExportToMarkdown converts listening sessions to a Markdown history report
func ExportToMarkdown(sessions []*models.ListeningSession) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Listening History\n\n")
	buf.WriteString(fmt.Sprintf("**Sessions**: %d\n", len(sessions)))

	var total float64
	for _, session := range sessions {
		total += session.Listened()
	}
	buf.WriteString(fmt.Sprintf("**Total listened**: %s\n\n", shared.FormatDuration(total)))

	buf.WriteString("## Sessions\n\n")
	for i, session := range sessions {
		status := ""
		if session.Completed {
			status = " [finished]"
		}
		title := session.Title
		if title == "" {
			title = session.ResourceKind + "/" + session.ResourceID
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s to %s (%s listened)%s\n",
			i+1,
			title,
			shared.FormatDuration(session.StartPosition),
			shared.FormatDuration(session.EndPosition),
			shared.FormatDuration(session.Listened()),
			status,
		))
	}

	return buf.Bytes(), nil
}

// ExportToText converts listening sessions to plain text format
func ExportToText(sessions []*models.ListeningSession) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Sessions: %d\n\n", len(sessions)))

	for i, session := range sessions {
		title := session.Title
		if title == "" {
			title = session.ResourceKind + "/" + session.ResourceID
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%s listened, %s)\n",
			i+1,
			title,
			shared.FormatDuration(session.Listened()),
			session.StartedAt.Format("2006-01-02 15:04"),
		))
	}

	return buf.Bytes(), nil
}

// ExportResult contains the path of the file created by WriteExport
type ExportResult struct {
	File   string
	Format string
}

// WriteExport writes listening history to a file in the requested format.
//
// Supported formats: csv, markdown (md), text (txt). Defaults to a
// history.{ext} filename in the working directory when path is empty.
func WriteExport(sessions []*models.ListeningSession, format, path string) (*ExportResult, error) {
	var (
		data []byte
		ext  string
		err  error
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(sessions)
		ext = "csv"
	case "markdown", "md":
		data, err = ExportToMarkdown(sessions)
		ext = "md"
	case "text", "txt", "":
		data, err = ExportToText(sessions)
		ext = "txt"
		format = "text"
	default:
		return nil, fmt.Errorf("%w: unsupported export format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = "history." + ext
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write export file: %w", err)
	}

	return &ExportResult{File: path, Format: format}, nil
}
