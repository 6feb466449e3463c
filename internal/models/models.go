// package models defines the data model for the shelfplay audiobook client
package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models in the client.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Book represents an audiobook from the backend library.
type Book struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Author       string  `json:"author"`
	Description  string  `json:"description"`
	CoverURL     string  `json:"cover_url"`
	Duration     float64 `json:"duration"` // Total length in seconds
	ChapterCount int     `json:"chapter_count"`
	HasIntro     bool    `json:"has_intro"`
}

// Chapter represents a single chapter of a book.
type Chapter struct {
	ID       string  `json:"id"`
	BookID   string  `json:"book_id"`
	Number   int     `json:"number"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"` // Length in seconds
}

// User represents the authenticated user's profile.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// ListeningSession records one closed playback session for the local history
// cache. Implements [Model].
type ListeningSession struct {
	id            string
	createdAt     time.Time
	updatedAt     time.Time
	ResourceKind  string
	ResourceID    string
	Title         string
	StartPosition float64
	EndPosition   float64
	Duration      float64
	PlaybackSpeed float64
	Completed     bool
	StartedAt     time.Time
	EndedAt       time.Time
}

var _ Model = (*ListeningSession)(nil)

// NewListeningSession creates a ListeningSession with timestamps initialized to now.
func NewListeningSession(kind, resourceID, title string) *ListeningSession {
	now := time.Now().UTC()
	return &ListeningSession{
		createdAt:     now,
		updatedAt:     now,
		ResourceKind:  kind,
		ResourceID:    resourceID,
		Title:         title,
		PlaybackSpeed: 1.0,
		StartedAt:     now,
	}
}

func (s *ListeningSession) ID() string           { return s.id }
func (s *ListeningSession) CreatedAt() time.Time { return s.createdAt }
func (s *ListeningSession) UpdatedAt() time.Time { return s.updatedAt }

// SetID assigns the identifier. Called by the repository on insert.
func (s *ListeningSession) SetID(id string) { s.id = id }

// SetTimestamps assigns created/updated times. Called by the repository on load.
func (s *ListeningSession) SetTimestamps(created, updated time.Time) {
	s.createdAt = created
	s.updatedAt = updated
}

// Touch bumps the updated timestamp.
func (s *ListeningSession) Touch() { s.updatedAt = time.Now().UTC() }

// Validate checks the session's invariants before persistence.
func (s *ListeningSession) Validate() error {
	if s.ResourceKind == "" {
		return fmt.Errorf("listening session missing resource kind")
	}
	if s.ResourceID == "" {
		return fmt.Errorf("listening session missing resource id")
	}
	if s.StartPosition < 0 || s.EndPosition < 0 {
		return fmt.Errorf("listening session positions must be non-negative")
	}
	if s.PlaybackSpeed <= 0 {
		return fmt.Errorf("listening session playback speed must be positive")
	}
	if s.EndedAt.Before(s.StartedAt) {
		return fmt.Errorf("listening session ended before it started")
	}
	return nil
}

// Listened returns the wall-clock seconds of audio covered by this session.
func (s *ListeningSession) Listened() float64 {
	d := s.EndPosition - s.StartPosition
	if d < 0 {
		return 0
	}
	return d
}
