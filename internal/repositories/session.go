package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/shelfplay/internal/models"
	"github.com/desertthunder/shelfplay/internal/shared"
)

// ListeningSessionRepository implements models.Repository[*models.ListeningSession]
// for the listening-history cache.
type ListeningSessionRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.ListeningSession] = (*ListeningSessionRepository)(nil)

// NewListeningSessionRepository creates a new ListeningSessionRepository with the given database connection
func NewListeningSessionRepository(db *sql.DB) *ListeningSessionRepository {
	return &ListeningSessionRepository{db: db}
}

// Create inserts a new listening session into the database with a generated ID
func (r *ListeningSessionRepository) Create(session *models.ListeningSession) error {
	session.SetID(shared.GenerateID())

	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO listening_sessions (
			id, resource_kind, resource_id, title, start_position,
			end_position, duration, playback_speed, completed,
			started_at, ended_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		session.ID(),
		session.ResourceKind,
		session.ResourceID,
		session.Title,
		session.StartPosition,
		session.EndPosition,
		session.Duration,
		session.PlaybackSpeed,
		session.Completed,
		session.StartedAt,
		session.EndedAt,
		session.CreatedAt(),
		session.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert listening session: %w", err)
	}

	return nil
}

// Get retrieves a listening session by ID
func (r *ListeningSessionRepository) Get(id string) (*models.ListeningSession, error) {
	query := selectColumns + ` WHERE id = ?`
	return r.scanOne(r.db.QueryRow(query, id))
}

// Update modifies an existing listening session in the database
func (r *ListeningSessionRepository) Update(session *models.ListeningSession) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	session.Touch()

	query := `
		UPDATE listening_sessions
		SET end_position = ?, duration = ?, playback_speed = ?,
			completed = ?, ended_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		session.EndPosition,
		session.Duration,
		session.PlaybackSpeed,
		session.Completed,
		session.EndedAt,
		session.UpdatedAt(),
		session.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update listening session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listening session %s: %w", session.ID(), sql.ErrNoRows)
	}

	return nil
}

// Delete removes a listening session from the database by its ID
func (r *ListeningSessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM listening_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listening session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("listening session %s: %w", id, sql.ErrNoRows)
	}

	return nil
}

// List retrieves listening sessions matching the given criteria, newest first.
//
// Supported criteria keys: resource_kind, resource_id, completed (bool),
// limit (int).
func (r *ListeningSessionRepository) List(criteria map[string]any) ([]*models.ListeningSession, error) {
	var (
		conditions []string
		args       []any
		limit      int
	)

	for key, value := range criteria {
		switch key {
		case "resource_kind", "resource_id":
			conditions = append(conditions, key+" = ?")
			args = append(args, value)
		case "completed":
			conditions = append(conditions, "completed = ?")
			args = append(args, value)
		case "limit":
			n, ok := value.(int)
			if !ok {
				return nil, fmt.Errorf("%w: limit must be an int", shared.ErrInvalidArgument)
			}
			limit = n
		default:
			return nil, fmt.Errorf("%w: unsupported criteria key %q", shared.ErrInvalidArgument, key)
		}
	}

	query := selectColumns
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query listening sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.ListeningSession
	for rows.Next() {
		session, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listening sessions: %w", err)
	}

	return sessions, nil
}

// Clear removes every row from the history cache and returns the count removed.
func (r *ListeningSessionRepository) Clear() (int, error) {
	result, err := r.db.Exec(`DELETE FROM listening_sessions`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear listening sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check clear result: %w", err)
	}

	return int(rows), nil
}

// TotalListened sums the seconds of audio covered across all cached sessions.
func (r *ListeningSessionRepository) TotalListened() (float64, error) {
	query := `
		SELECT COALESCE(SUM(MAX(end_position - start_position, 0)), 0)
		FROM listening_sessions
	`

	var total float64
	if err := r.db.QueryRow(query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum listened time: %w", err)
	}

	return total, nil
}

const selectColumns = `
	SELECT
		id, resource_kind, resource_id, title, start_position,
		end_position, duration, playback_speed, completed,
		started_at, ended_at, created_at, updated_at
	FROM listening_sessions`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ListeningSessionRepository) scanOne(row *sql.Row) (*models.ListeningSession, error) {
	session, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("listening session not found: %w", err)
		}
		return nil, err
	}
	return session, nil
}

func (r *ListeningSessionRepository) scanRow(scanner rowScanner) (*models.ListeningSession, error) {
	var (
		session   models.ListeningSession
		id        string
		createdAt time.Time
		updatedAt time.Time
	)

	err := scanner.Scan(
		&id,
		&session.ResourceKind,
		&session.ResourceID,
		&session.Title,
		&session.StartPosition,
		&session.EndPosition,
		&session.Duration,
		&session.PlaybackSpeed,
		&session.Completed,
		&session.StartedAt,
		&session.EndedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan listening session: %w", err)
	}

	session.SetID(id)
	session.SetTimestamps(createdAt, updatedAt)
	return &session, nil
}
