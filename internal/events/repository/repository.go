package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"member_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event represents the event database model.
type Event struct {
	ID        uuid.UUID  `db:"id"`
	Title     string     `db:"title"`
	Body      *string    `db:"body"`
	Location  *string    `db:"location"`
	StartsAt  *time.Time `db:"starts_at"`
	EndsAt    *time.Time `db:"ends_at"`
	Capacity  *int       `db:"capacity"`
	Published bool       `db:"published"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

// Question is a registration question belonging to an event.
type Question struct {
	ID           uuid.UUID `db:"id"`
	EventID      uuid.UUID `db:"event_id"`
	QuestionType string    `db:"question_type"`
	Label        string    `db:"label"`
	Required     bool      `db:"required"`
}

// File is an attachment belonging to an event. FileKey points into object
// storage.
type File struct {
	ID          uuid.UUID `db:"id"`
	EventID     uuid.UUID `db:"event_id"`
	FileKey     string    `db:"file_key"`
	FileName    string    `db:"file_name"`
	ContentType *string   `db:"content_type"`
}

// GroupLink restricts event visibility to a member group.
type GroupLink struct {
	ID      uuid.UUID `db:"id"`
	EventID uuid.UUID `db:"event_id"`
	GroupID uuid.UUID `db:"group_id"`
}

// Registration is a member's registration for an event.
type Registration struct {
	ID        uuid.UUID `db:"id"`
	EventID   uuid.UUID `db:"event_id"`
	UserID    uuid.UUID `db:"user_id"`
	Answers   []byte    `db:"answers"`
	CreatedAt time.Time `db:"created_at"`
}

const eventNotFoundMsg = "event not found"

// Repository provides database operations for events and their children.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new events repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new event and returns its ID.
func (r *Repository) Create(ctx context.Context, e Event) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO events (title, body, location, starts_at, ends_at, capacity, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.pool.QueryRow(ctx, query, e.Title, e.Body, e.Location, e.StartsAt, e.EndsAt, e.Capacity, e.Published).Scan(&id)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create event: %w", err)
	}
	return id, nil
}

// GetByID retrieves an active event.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var e Event
	query := `SELECT id, title, body, location, starts_at, ends_at, capacity, published, created_at, updated_at
		FROM events WHERE id = $1 AND deleted_at IS NULL`
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.Title, &e.Body, &e.Location, &e.StartsAt, &e.EndsAt,
		&e.Capacity, &e.Published, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(eventNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}

// ListAll returns all active events for the admin dashboard, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]Event, error) {
	query := `SELECT id, title, body, location, starts_at, ends_at, capacity, published, created_at, updated_at
		FROM events WHERE deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListVisible returns published events the member may see: events with no
// active group links, plus events linked to any of the member's groups.
func (r *Repository) ListVisible(ctx context.Context, groupIDs []uuid.UUID) ([]Event, error) {
	query := `SELECT e.id, e.title, e.body, e.location, e.starts_at, e.ends_at, e.capacity, e.published, e.created_at, e.updated_at
		FROM events e
		WHERE e.deleted_at IS NULL AND e.published
		  AND (
			NOT EXISTS (SELECT 1 FROM event_groups eg WHERE eg.event_id = e.id AND eg.deleted_at IS NULL)
			OR EXISTS (SELECT 1 FROM event_groups eg WHERE eg.event_id = e.id AND eg.deleted_at IS NULL AND eg.group_id = ANY($1))
		  )
		ORDER BY e.starts_at NULLS LAST, e.created_at DESC`
	rows, err := r.pool.Query(ctx, query, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list visible events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Title, &e.Body, &e.Location, &e.StartsAt, &e.EndsAt,
			&e.Capacity, &e.Published, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Update modifies the event parent row.
func (r *Repository) Update(ctx context.Context, e Event) error {
	query := `UPDATE events SET title = $2, body = $3, location = $4, starts_at = $5, ends_at = $6,
		capacity = $7, published = $8, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.pool.Exec(ctx, query, e.ID, e.Title, e.Body, e.Location, e.StartsAt, e.EndsAt, e.Capacity, e.Published)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(eventNotFoundMsg)
	}
	return nil
}

// SoftDelete marks the event deleted.
func (r *Repository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE events SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`
	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to soft delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(eventNotFoundMsg)
	}
	return nil
}

// ListQuestions returns the active registration questions for an event.
func (r *Repository) ListQuestions(ctx context.Context, eventID uuid.UUID) ([]Question, error) {
	query := `SELECT id, event_id, question_type, label, required FROM event_questions
		WHERE event_id = $1 AND deleted_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event questions: %w", err)
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.EventID, &q.QuestionType, &q.Label, &q.Required); err != nil {
			return nil, fmt.Errorf("failed to scan event question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// InsertQuestions adds new registration questions.
func (r *Repository) InsertQuestions(ctx context.Context, eventID uuid.UUID, questions []Question) error {
	for _, q := range questions {
		query := `INSERT INTO event_questions (event_id, question_type, label, required) VALUES ($1, $2, $3, $4)`
		if _, err := r.pool.Exec(ctx, query, eventID, q.QuestionType, q.Label, q.Required); err != nil {
			return fmt.Errorf("failed to insert event question: %w", err)
		}
	}
	return nil
}

// SoftDeleteQuestions marks the given question rows deleted.
func (r *Repository) SoftDeleteQuestions(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE event_questions SET deleted_at = now() WHERE id = ANY($1) AND deleted_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to soft delete event questions: %w", err)
	}
	return nil
}

// ListFiles returns the active attachments for an event.
func (r *Repository) ListFiles(ctx context.Context, eventID uuid.UUID) ([]File, error) {
	query := `SELECT id, event_id, file_key, file_name, content_type FROM event_files
		WHERE event_id = $1 AND deleted_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event files: %w", err)
	}
	defer rows.Close()

	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.EventID, &f.FileKey, &f.FileName, &f.ContentType); err != nil {
			return nil, fmt.Errorf("failed to scan event file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// InsertFiles adds new attachment rows.
func (r *Repository) InsertFiles(ctx context.Context, eventID uuid.UUID, files []File) error {
	for _, f := range files {
		query := `INSERT INTO event_files (event_id, file_key, file_name, content_type) VALUES ($1, $2, $3, $4)`
		if _, err := r.pool.Exec(ctx, query, eventID, f.FileKey, f.FileName, f.ContentType); err != nil {
			return fmt.Errorf("failed to insert event file: %w", err)
		}
	}
	return nil
}

// SoftDeleteFiles marks the given attachment rows deleted.
func (r *Repository) SoftDeleteFiles(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE event_files SET deleted_at = now() WHERE id = ANY($1) AND deleted_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to soft delete event files: %w", err)
	}
	return nil
}

// GetFile returns an active attachment row.
func (r *Repository) GetFile(ctx context.Context, fileID uuid.UUID) (*File, error) {
	var f File
	query := `SELECT id, event_id, file_key, file_name, content_type FROM event_files
		WHERE id = $1 AND deleted_at IS NULL`
	err := r.pool.QueryRow(ctx, query, fileID).Scan(&f.ID, &f.EventID, &f.FileKey, &f.FileName, &f.ContentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("file not found")
		}
		return nil, fmt.Errorf("failed to get event file: %w", err)
	}
	return &f, nil
}

// ListGroupLinks returns the active visibility links for an event.
func (r *Repository) ListGroupLinks(ctx context.Context, eventID uuid.UUID) ([]GroupLink, error) {
	query := `SELECT id, event_id, group_id FROM event_groups
		WHERE event_id = $1 AND deleted_at IS NULL`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event groups: %w", err)
	}
	defer rows.Close()

	var out []GroupLink
	for rows.Next() {
		var g GroupLink
		if err := rows.Scan(&g.ID, &g.EventID, &g.GroupID); err != nil {
			return nil, fmt.Errorf("failed to scan event group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// InsertGroupLinks adds new visibility links.
func (r *Repository) InsertGroupLinks(ctx context.Context, eventID uuid.UUID, groupIDs []uuid.UUID) error {
	for _, groupID := range groupIDs {
		query := `INSERT INTO event_groups (event_id, group_id) VALUES ($1, $2)`
		if _, err := r.pool.Exec(ctx, query, eventID, groupID); err != nil {
			return fmt.Errorf("failed to insert event group: %w", err)
		}
	}
	return nil
}

// SoftDeleteGroupLinks marks the given visibility links deleted.
func (r *Repository) SoftDeleteGroupLinks(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE event_groups SET deleted_at = now() WHERE id = ANY($1) AND deleted_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("failed to soft delete event groups: %w", err)
	}
	return nil
}

// CountRegistrations returns the number of active registrations for an event.
func (r *Repository) CountRegistrations(ctx context.Context, eventID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND deleted_at IS NULL`
	if err := r.pool.QueryRow(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

// CreateRegistration registers a member. The unique index on
// (event_id, user_id) rejects a second active registration.
func (r *Repository) CreateRegistration(ctx context.Context, eventID, userID uuid.UUID, answers []byte) (uuid.UUID, error) {
	var id uuid.UUID
	query := `INSERT INTO event_registrations (event_id, user_id, answers) VALUES ($1, $2, $3) RETURNING id`
	if err := r.pool.QueryRow(ctx, query, eventID, userID, answers).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return uuid.UUID{}, apperr.Conflict("already registered for event")
		}
		return uuid.UUID{}, fmt.Errorf("failed to create registration: %w", err)
	}
	return id, nil
}

// GetRegistration returns the member's active registration, or nil when absent.
func (r *Repository) GetRegistration(ctx context.Context, eventID, userID uuid.UUID) (*Registration, error) {
	var reg Registration
	query := `SELECT id, event_id, user_id, answers, created_at FROM event_registrations
		WHERE event_id = $1 AND user_id = $2 AND deleted_at IS NULL`
	err := r.pool.QueryRow(ctx, query, eventID, userID).Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Answers, &reg.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return &reg, nil
}

// CancelRegistration soft-deletes the member's registration. A missing
// registration is not an error.
func (r *Repository) CancelRegistration(ctx context.Context, eventID, userID uuid.UUID) error {
	query := `UPDATE event_registrations SET deleted_at = now()
		WHERE event_id = $1 AND user_id = $2 AND deleted_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("failed to cancel registration: %w", err)
	}
	return nil
}

// ListRegistrations returns the active registrations for an event, oldest
// first, for the admin attendee list.
func (r *Repository) ListRegistrations(ctx context.Context, eventID uuid.UUID) ([]Registration, error) {
	query := `SELECT id, event_id, user_id, answers, created_at FROM event_registrations
		WHERE event_id = $1 AND deleted_at IS NULL ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer rows.Close()

	var out []Registration
	for rows.Next() {
		var reg Registration
		if err := rows.Scan(&reg.ID, &reg.EventID, &reg.UserID, &reg.Answers, &reg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
