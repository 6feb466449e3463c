// package services defines the client interface for the shelfplay backend API
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/shelfplay/internal/models"
)

// ResourceKind selects between the two streamable resource types.
type ResourceKind int

const (
	KindBookIntro ResourceKind = iota
	KindChapter
)

func (k ResourceKind) String() string {
	switch k {
	case KindBookIntro:
		return "bookintro"
	case KindChapter:
		return "chapter"
	default:
		return "unknown"
	}
}

// ParseResourceKind converts a kind name to a [ResourceKind].
func ParseResourceKind(s string) (ResourceKind, error) {
	switch s {
	case "bookintro", "book", "intro":
		return KindBookIntro, nil
	case "chapter":
		return KindChapter, nil
	default:
		return 0, fmt.Errorf("unknown resource kind %q", s)
	}
}

// ResourceRef identifies a streamable media resource.
type ResourceRef struct {
	Kind ResourceKind
	ID   string
}

func (r ResourceRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// Library defines read access to the backend book catalog and progress store.
// The concrete implementation is [Client]; tests substitute a double.
type Library interface {
	// Login exchanges credentials for a bearer token and user profile.
	Login(ctx context.Context, email, password string) (*LoginResult, error)

	// Me validates the current token and returns the user profile.
	// A 401 response maps to shared.ErrTokenExpired so callers can clear the token.
	Me(ctx context.Context) (*models.User, error)

	// Books retrieves all books available to the authenticated user.
	Books(ctx context.Context) ([]models.Book, error)

	// Chapters retrieves the chapter listing for a book.
	Chapters(ctx context.Context, bookID string) ([]models.Chapter, error)

	// Progress fetches the saved progress record for a resource.
	Progress(ctx context.Context, ref ResourceRef) (*ProgressRecord, error)

	// PushProgress writes the current position/status/speed for a resource.
	PushProgress(ctx context.Context, ref ResourceRef, update ProgressUpdate) error
}

// LoginResult is the response of a successful login.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}
