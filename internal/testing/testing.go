// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/services"
	"github.com/desertthunder/shelfplay/internal/shared"
)

// MockLibrary is a configurable test double for [services.Library]
type MockLibrary struct {
	LoginResult    *services.LoginResult
	LoginErr       error
	UserResult     *models.User
	UserErr        error
	BooksResult    []models.Book
	BooksErr       error
	ChaptersResult []models.Chapter
	ChaptersErr    error
	ProgressResult *services.ProgressRecord
	ProgressErr    error
	PushErr        error

	PushedUpdates []services.ProgressUpdate
}

var _ services.Library = (*MockLibrary)(nil)

func (m *MockLibrary) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	if m.LoginResult != nil {
		return m.LoginResult, nil
	}
	return &services.LoginResult{
		Token: "mock-token",
		User:  models.User{ID: "u1", Email: email, Name: "Mock User"},
	}, nil
}

func (m *MockLibrary) Me(ctx context.Context) (*models.User, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	if m.UserResult != nil {
		return m.UserResult, nil
	}
	return &models.User{ID: "u1", Email: "mock@example.com", Name: "Mock User"}, nil
}

func (m *MockLibrary) Books(ctx context.Context) ([]models.Book, error) {
	return m.BooksResult, m.BooksErr
}

func (m *MockLibrary) Chapters(ctx context.Context, bookID string) ([]models.Chapter, error) {
	return m.ChaptersResult, m.ChaptersErr
}

func (m *MockLibrary) Progress(ctx context.Context, ref services.ResourceRef) (*services.ProgressRecord, error) {
	if m.ProgressErr != nil {
		return nil, m.ProgressErr
	}
	if m.ProgressResult == nil {
		return nil, shared.ErrNoProgress
	}
	return m.ProgressResult, nil
}

func (m *MockLibrary) PushProgress(ctx context.Context, ref services.ResourceRef, update services.ProgressUpdate) error {
	m.PushedUpdates = append(m.PushedUpdates, update)
	return m.PushErr
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
