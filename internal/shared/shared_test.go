package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestShared(t *testing.T) {
	t.Run("NewLogger", func(t *testing.T) {
		t.Run("With Writer", func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLogger(buf)

			logger.Info("hello")
			if !strings.Contains(buf.String(), "hello") {
				t.Errorf("expected log output to contain message, got %q", buf.String())
			}
		})

		t.Run("With Nil Writer", func(t *testing.T) {
			if NewLogger(nil) == nil {
				t.Error("expected logger instance")
			}
		})
	})

	t.Run("NewFileLogger", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "session.log")

		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Info("file entry")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "file entry") {
			t.Errorf("expected log file to contain entry, got %q", string(data))
		}
	})

	t.Run("WithLogger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := WithLogger(NewLogger(buf), "session", "abc")

		logger.Info("tagged")
		if !strings.Contains(buf.String(), "session") {
			t.Errorf("expected child logger fields in output, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger(buf)
		SetLogLevel(logger, log.ErrorLevel)

		logger.Info("suppressed")
		if strings.Contains(buf.String(), "suppressed") {
			t.Error("expected info log to be suppressed at error level")
		}
	})

	t.Run("FormatDuration", func(t *testing.T) {
		cases := []struct {
			seconds float64
			want    string
		}{
			{0, "0:00"},
			{59, "0:59"},
			{90, "1:30"},
			{3600, "1:00:00"},
			{4515, "1:15:15"},
			{-30, "0:00"},
		}
		for _, tc := range cases {
			if got := FormatDuration(tc.seconds); got != tc.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tc.seconds, got, tc.want)
			}
		}
	})

	t.Run("GenerateID", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == "" || b == "" {
			t.Error("expected non-empty IDs")
		}
		if a == b {
			t.Error("expected unique IDs")
		}
	})
}
