package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func closedSession(kind, resourceID string, start, end float64) *models.ListeningSession {
	session := models.NewListeningSession(kind, resourceID, "Test Title")
	session.StartPosition = start
	session.EndPosition = end
	session.Duration = 900
	session.EndedAt = session.StartedAt.Add(time.Duration(end-start) * time.Second)
	return session
}

func TestListeningSessionRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewListeningSessionRepository(db)
		session := closedSession("chapter", "c1", 0, 300)

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if session.ID() == "" {
			t.Error("session ID should be set after creation")
		}

		t.Run("Rejects Invalid Session", func(t *testing.T) {
			invalid := closedSession("", "c1", 0, 300)
			if err := repo.Create(invalid); err == nil {
				t.Error("expected validation error for missing resource kind")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewListeningSessionRepository(db)
		session := closedSession("bookintro", "b1", 120, 450)

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		retrieved, err := repo.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}

		if retrieved.ID() != session.ID() {
			t.Errorf("expected ID %s, got %s", session.ID(), retrieved.ID())
		}
		if retrieved.ResourceKind != "bookintro" || retrieved.ResourceID != "b1" {
			t.Errorf("unexpected resource %s/%s", retrieved.ResourceKind, retrieved.ResourceID)
		}
		if retrieved.StartPosition != 120 || retrieved.EndPosition != 450 {
			t.Errorf("unexpected positions %f..%f", retrieved.StartPosition, retrieved.EndPosition)
		}
		if retrieved.Listened() != 330 {
			t.Errorf("expected 330s listened, got %f", retrieved.Listened())
		}

		t.Run("Not Found", func(t *testing.T) {
			if _, err := repo.Get("missing"); !errors.Is(err, sql.ErrNoRows) {
				t.Errorf("expected ErrNoRows, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewListeningSessionRepository(db)
		session := closedSession("chapter", "c1", 0, 100)

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		session.EndPosition = 900
		session.Completed = true
		if err := repo.Update(session); err != nil {
			t.Fatalf("failed to update session: %v", err)
		}

		retrieved, err := repo.Get(session.ID())
		if err != nil {
			t.Fatalf("failed to get session: %v", err)
		}
		if retrieved.EndPosition != 900 || !retrieved.Completed {
			t.Errorf("update not persisted: %+v", retrieved)
		}

		t.Run("Missing Row", func(t *testing.T) {
			ghost := closedSession("chapter", "c2", 0, 10)
			ghost.SetID(shared.GenerateID())
			if err := repo.Update(ghost); !errors.Is(err, sql.ErrNoRows) {
				t.Errorf("expected ErrNoRows, got %v", err)
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewListeningSessionRepository(db)
		session := closedSession("chapter", "c1", 0, 100)

		if err := repo.Create(session); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if err := repo.Delete(session.ID()); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}

		if _, err := repo.Get(session.ID()); !errors.Is(err, sql.ErrNoRows) {
			t.Errorf("expected ErrNoRows after delete, got %v", err)
		}

		t.Run("Missing Row", func(t *testing.T) {
			if err := repo.Delete("missing"); !errors.Is(err, sql.ErrNoRows) {
				t.Errorf("expected ErrNoRows, got %v", err)
			}
		})
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewListeningSessionRepository(db)

		first := closedSession("chapter", "c1", 0, 300)
		first.StartedAt = time.Now().UTC().Add(-2 * time.Hour)
		first.EndedAt = first.StartedAt.Add(5 * time.Minute)

		second := closedSession("chapter", "c2", 0, 900)
		second.Completed = true

		third := closedSession("bookintro", "b1", 0, 60)

		for _, s := range []*models.ListeningSession{first, second, third} {
			if err := repo.Create(s); err != nil {
				t.Fatalf("failed to create session: %v", err)
			}
		}

		t.Run("All Newest First", func(t *testing.T) {
			sessions, err := repo.List(nil)
			if err != nil {
				t.Fatalf("failed to list sessions: %v", err)
			}
			if len(sessions) != 3 {
				t.Fatalf("expected 3 sessions, got %d", len(sessions))
			}
			if sessions[len(sessions)-1].ID() != first.ID() {
				t.Error("expected oldest session last")
			}
		})

		t.Run("By Resource Kind", func(t *testing.T) {
			sessions, err := repo.List(map[string]any{"resource_kind": "chapter"})
			if err != nil {
				t.Fatalf("failed to list sessions: %v", err)
			}
			if len(sessions) != 2 {
				t.Errorf("expected 2 chapter sessions, got %d", len(sessions))
			}
		})

		t.Run("By Completed", func(t *testing.T) {
			sessions, err := repo.List(map[string]any{"completed": true})
			if err != nil {
				t.Fatalf("failed to list sessions: %v", err)
			}
			if len(sessions) != 1 || sessions[0].ID() != second.ID() {
				t.Errorf("expected only the completed session, got %d rows", len(sessions))
			}
		})

		t.Run("With Limit", func(t *testing.T) {
			sessions, err := repo.List(map[string]any{"limit": 1})
			if err != nil {
				t.Fatalf("failed to list sessions: %v", err)
			}
			if len(sessions) != 1 {
				t.Errorf("expected 1 session, got %d", len(sessions))
			}
		})

		t.Run("Rejects Unknown Key", func(t *testing.T) {
			if _, err := repo.List(map[string]any{"color": "red"}); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewListeningSessionRepository(db)
		for i := 0; i < 3; i++ {
			if err := repo.Create(closedSession("chapter", "c1", 0, 10)); err != nil {
				t.Fatalf("failed to create session: %v", err)
			}
		}

		removed, err := repo.Clear()
		if err != nil {
			t.Fatalf("failed to clear sessions: %v", err)
		}
		if removed != 3 {
			t.Errorf("expected 3 removed, got %d", removed)
		}

		sessions, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list sessions: %v", err)
		}
		if len(sessions) != 0 {
			t.Errorf("expected empty history, got %d rows", len(sessions))
		}
	})

	t.Run("TotalListened", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewListeningSessionRepository(db)
		if err := repo.Create(closedSession("chapter", "c1", 0, 300)); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if err := repo.Create(closedSession("chapter", "c2", 100, 250)); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		total, err := repo.TotalListened()
		if err != nil {
			t.Fatalf("failed to sum listened time: %v", err)
		}
		if total != 450 {
			t.Errorf("expected 450s total, got %f", total)
		}
	})
}
