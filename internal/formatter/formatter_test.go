package formatter

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/shared"
)

func sampleSessions() []*models.ListeningSession {
	first := models.NewListeningSession("chapter", "c1", "Chapter One")
	first.SetID("s1")
	first.StartPosition = 0
	first.EndPosition = 300
	first.Duration = 900
	first.EndedAt = first.StartedAt.Add(5 * time.Minute)

	second := models.NewListeningSession("bookintro", "b1", "")
	second.SetID("s2")
	second.StartPosition = 60
	second.EndPosition = 4260
	second.Duration = 4260
	second.PlaybackSpeed = 1.5
	second.Completed = true
	second.EndedAt = second.StartedAt.Add(time.Hour)

	return []*models.ListeningSession{first, second}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleSessions())
	if err != nil {
		t.Fatalf("failed to export CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "ID" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][1] != "chapter/c1" {
		t.Errorf("expected resource column, got %s", records[1][1])
	}
	if records[2][7] != "true" {
		t.Errorf("expected completed true, got %s", records[2][7])
	}
	if records[2][6] != "1.50" {
		t.Errorf("expected speed 1.50, got %s", records[2][6])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleSessions())
	if err != nil {
		t.Fatalf("failed to export Markdown: %v", err)
	}

	report := string(data)
	if !strings.Contains(report, "# Listening History") {
		t.Error("expected report heading")
	}
	if !strings.Contains(report, "**Sessions**: 2") {
		t.Error("expected session count")
	}
	// 300s + 4200s listened.
	if !strings.Contains(report, "1:15:00") {
		t.Errorf("expected total listened 1:15:00 in report:\n%s", report)
	}
	if !strings.Contains(report, "Chapter One") {
		t.Error("expected session title")
	}
	if !strings.Contains(report, "bookintro/b1") {
		t.Error("expected resource fallback for untitled session")
	}
	if !strings.Contains(report, "[finished]") {
		t.Error("expected finished marker")
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleSessions())
	if err != nil {
		t.Fatalf("failed to export text: %v", err)
	}

	report := string(data)
	if !strings.Contains(report, "Sessions: 2") {
		t.Error("expected session count")
	}
	if !strings.Contains(report, "5:00 listened") {
		t.Errorf("expected listened duration in report:\n%s", report)
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("CSV", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")

		result, err := WriteExport(sampleSessions(), "csv", path)
		if err != nil {
			t.Fatalf("failed to write export: %v", err)
		}
		if result.File != path || result.Format != "csv" {
			t.Errorf("unexpected result %+v", result)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if !strings.HasPrefix(string(data), "ID,Resource") {
			t.Error("expected CSV header in file")
		}
	})

	t.Run("Default Filename", func(t *testing.T) {
		dir := t.TempDir()
		cwd, err := os.Getwd()
		if err != nil {
			t.Fatalf("failed to get working directory: %v", err)
		}
		if err := os.Chdir(dir); err != nil {
			t.Fatalf("failed to change directory: %v", err)
		}
		defer os.Chdir(cwd)

		result, err := WriteExport(sampleSessions(), "md", "")
		if err != nil {
			t.Fatalf("failed to write export: %v", err)
		}
		if result.File != "history.md" {
			t.Errorf("expected default filename, got %s", result.File)
		}
		if _, err := os.Stat(filepath.Join(dir, "history.md")); err != nil {
			t.Errorf("expected export file created: %v", err)
		}
	})

	t.Run("Unsupported Format", func(t *testing.T) {
		if _, err := WriteExport(sampleSessions(), "xml", ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
